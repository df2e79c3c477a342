package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/apex/log/handlers/json"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/csvask/internal/ai"
	"github.com/KaramelBytes/csvask/internal/analyzer"
	cfgpkg "github.com/KaramelBytes/csvask/internal/config"
)

var (
	// Global flags
	cfgFile   string
	envFile   string
	debug     bool
	logFormat string
	// HTTP flag (overrides config if set)
	flagHTTPTimeoutSec int

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "csvask",
	Short: "csvask: ask questions about a CSV file with Azure OpenAI",
	Long: `csvask loads a CSV file, previews it as a table, and answers natural-language
questions by sending the whole file and the question to an Azure OpenAI chat deployment.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var be *bannerError
		if errors.As(err, &be) {
			fmt.Fprintln(os.Stderr, "✗", err)
		} else {
			fmt.Fprintln(os.Stderr, "✗ Error:", err)
		}
		os.Exit(1)
	}
}

// bannerError already reads as a user-facing error line.
type bannerError struct{ msg string }

func (e *bannerError) Error() string { return e.msg }

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.csvask/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "settings file loaded into the environment before config")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text|json")
	rootCmd.PersistentFlags().IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds (overrides config)")
}

func loadConfig() {
	setupLogging()
	if err := cfgpkg.LoadEnvFile(envFile); err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: %v\n", err)
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: missing secrets only surface when a question is asked
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		cfg = &cfgpkg.Global{}
		return
	}
	cfg = c

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		cfg.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
}

func setupLogging() {
	switch logFormat {
	case "json":
		log.SetHandler(json.New(os.Stderr))
	default:
		log.SetHandler(cli.New(os.Stderr))
	}
	if debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.WarnLevel)
	}
}

// newClient builds the Azure completion client from the loaded configuration.
func newClient(c *cfgpkg.Global) *ai.Client {
	return ai.NewAzureClient(ai.Options{
		APIKey:      c.APIKey,
		Endpoint:    c.Endpoint,
		APIVersion:  c.APIVersion,
		Model:       c.Model,
		Deployment:  c.Deployment,
		HTTPTimeout: time.Duration(c.HTTPTimeoutSec) * time.Second,
	})
}

func newService(c *cfgpkg.Global) *analyzer.Service {
	client := newClient(c)
	return analyzer.New(client, analyzer.WithModel(client.Model()), analyzer.WithLogger(log.Log))
}
