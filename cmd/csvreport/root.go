package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "csvreport",
		Short:         "Analyze review CSV exports offline",
		Long:          `csvreport profiles a CSV (or XLSX) file, detects sentiment, rating, branch and date columns, and prints the same report the dashboard API serves.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newAnalyzeCmd())
	return root
}
