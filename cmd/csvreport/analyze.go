package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"insights/analytics"
	"insights/logger"
	"insights/narrative"
	"insights/storage"
)

type analyzeOptions struct {
	limit   int
	summary bool
	compact bool
}

func newAnalyzeCmd() *cobra.Command {
	opts := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Print the analytics report of a CSV or XLSX file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}
	f := cmd.Flags()
	f.IntVar(&opts.limit, "limit", analytics.DefaultSampleLimit, "rows kept for statistics")
	f.BoolVar(&opts.summary, "summary", false, "attach a narrative summary (Gemini when GEMINI_API_KEY is set)")
	f.BoolVar(&opts.compact, "compact", false, "print JSON without indentation")
	return cmd
}

func runAnalyze(ctx context.Context, out io.Writer, path string, opts *analyzeOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var src io.Reader = f
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		data, err := storage.ConvertXLSX(f)
		if err != nil {
			return err
		}
		src = bytes.NewReader(data)
	}

	engine := analytics.NewEngine(analytics.WithSampleLimit(opts.limit))
	report, err := engine.Analyze(ctx, src)
	if err != nil {
		return fmt.Errorf("analyze %s: %w", filepath.Base(path), err)
	}

	if opts.summary {
		log := logger.New(os.Stderr, "warn")
		var gen narrative.Generator
		if key := os.Getenv("GEMINI_API_KEY"); key != "" {
			gemini, err := narrative.NewGemini(ctx, key, os.Getenv("GEMINI_MODEL"))
			if err != nil {
				log.Warn("gemini unavailable, using fallback", "error", err)
			} else {
				defer gemini.Close()
				gen = gemini
			}
		}
		report.AISummary = narrative.NewNarrator(gen, 0, log).Summarize(ctx, narrative.FromReport(filepath.Base(path), report))
	}

	enc := json.NewEncoder(out)
	if !opts.compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(report)
}
