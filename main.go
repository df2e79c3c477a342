package main

import "github.com/KaramelBytes/csvask/cmd"

func main() {
	cmd.Execute()
}
