package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/csvask/internal/table"
)

var previewLimit int

var previewCmd = &cobra.Command{
	Use:   "preview <file.csv>",
	Short: "Parse a CSV file and print it as a table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if !table.AllowedExtension(path) {
			return fmt.Errorf("%s: only .csv files are accepted", path)
		}
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open csv: %w", err)
		}
		defer f.Close()
		out := newService(cfg).Ingest(f)
		if out.Err != nil {
			return fmt.Errorf("%s: %w", path, out.Err)
		}
		renderPreview(cmd.OutOrStdout(), out.Table, previewLimit)
		return nil
	},
}

// renderPreview prints the header with inferred kinds and up to limit rows.
// A limit of 0 prints every row.
func renderPreview(w io.Writer, t *table.Table, limit int) {
	tw := tablewriter.NewWriter(w)
	header := make([]string, t.NumCols())
	for i, c := range t.Columns {
		header[i] = fmt.Sprintf("%s (%s)", c, t.Kinds[i])
	}
	tw.SetHeader(header)
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)
	rows := t.Rows
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	tw.AppendBulk(rows)
	tw.Render()

	fmt.Fprintf(w, "%d rows × %d columns", t.NumRows(), t.NumCols())
	if len(rows) < t.NumRows() {
		fmt.Fprintf(w, " (showing first %d)", len(rows))
	}
	fmt.Fprintln(w)
	for i, c := range t.Columns {
		if n := t.MissingCount(i); n > 0 {
			fmt.Fprintf(w, "  %s: %d missing\n", c, n)
		}
	}
}

func init() {
	rootCmd.AddCommand(previewCmd)
	previewCmd.Flags().IntVar(&previewLimit, "limit", 20, "maximum rows to print (0 = all)")
}
