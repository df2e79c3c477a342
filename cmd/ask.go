package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/csvask/internal/ai"
	"github.com/KaramelBytes/csvask/internal/analyzer"
	"github.com/KaramelBytes/csvask/internal/table"
	"github.com/KaramelBytes/csvask/internal/utils"
)

var (
	askJSON        bool
	askQuiet       bool
	askPrintPrompt bool
	askOutputPath  string
	askTimeoutSec  int
)

var askCmd = &cobra.Command{
	Use:   "ask <file.csv> <question>",
	Short: "Ask one question about a CSV file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, question := args[0], args[1]
		if question == "" {
			return errors.New("question cannot be empty")
		}
		if !table.AllowedExtension(path) {
			return fmt.Errorf("%s: only .csv files are accepted", path)
		}
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open csv: %w", err)
		}
		defer f.Close()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		if askTimeoutSec > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, time.Duration(askTimeoutSec)*time.Second)
			defer cancel()
		}

		out := newService(cfg).Ask(ctx, f, question)
		if out.Fault == analyzer.FaultIngest {
			return fmt.Errorf("%s: %w", path, out.Err)
		}
		w := cmd.OutOrStdout()
		if askPrintPrompt && !askQuiet {
			fmt.Fprintln(w, "=== Prompt ===")
			fmt.Fprintln(w, out.Prompt)
		}
		if out.Fault == analyzer.FaultCompletion {
			return &bannerError{msg: out.ErrorMessage()}
		}
		return writeAnswer(out, outputOptions{
			JSON:       askJSON,
			Quiet:      askQuiet,
			File:       path,
			Model:      cfg.Model,
			OutputPath: askOutputPath,
			Writer:     w,
		})
	},
}

type outputOptions struct {
	JSON       bool
	Quiet      bool
	File       string
	Model      string
	OutputPath string
	Writer     io.Writer
}

func writeAnswer(out *analyzer.Outcome, opts outputOptions) error {
	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}
	payload := map[string]any{
		"file":          opts.File,
		"model":         opts.Model,
		"rows":          out.Table.NumRows(),
		"columns":       out.Table.NumCols(),
		"question":      out.Question,
		"prompt_tokens": utils.CountTokens(out.Prompt),
		"usage":         out.Usage,
		"answer":        out.Answer,
	}
	if cost, ok := ai.EstimateCostUSD(opts.Model, out.Usage.PromptTokens, out.Usage.CompletionTokens); ok {
		payload["cost_usd_est"] = cost
	}

	var body []byte
	if opts.JSON {
		b, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal output: %w", err)
		}
		body = b
		fmt.Fprintln(w, string(b))
	} else {
		body = []byte(out.Answer)
		if opts.Quiet {
			fmt.Fprintln(w, out.Answer)
		} else {
			fmt.Fprintf(w, "✓ Loaded %s (%d rows × %d columns)\n", opts.File, out.Table.NumRows(), out.Table.NumCols())
			fmt.Fprintln(w, "\n=== 🧠 Answer ===")
			fmt.Fprintln(w, out.Answer)
		}
	}

	if opts.OutputPath == "" {
		return nil
	}
	if err := os.WriteFile(opts.OutputPath, body, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if !opts.Quiet {
		fmt.Fprintf(w, "\n💾 Saved output to %s\n", opts.OutputPath)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the answer as JSON")
	askCmd.Flags().BoolVar(&askQuiet, "quiet", false, "print only the answer")
	askCmd.Flags().BoolVar(&askPrintPrompt, "print-prompt", false, "print the composed prompt before the answer")
	askCmd.Flags().StringVarP(&askOutputPath, "output", "o", "", "also write the answer (or JSON with --json) to a file")
	askCmd.Flags().IntVar(&askTimeoutSec, "timeout", 0, "cancel the question after N seconds (0 = wait indefinitely)")
}
