package main

import (
	"fmt"
	"io"

	"github.com/graevy/mag/internal/report"
	"github.com/graevy/mag/internal/util"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize the library as Markdown",
	Long: `Generate a Markdown summary of the library: song, tag and assignment
counts plus per-tag coverage. Printed to stdout unless --out is given.`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().String("out", "", "write the report to this file")
}

func runReport(cmd *cobra.Command, args []string) error {
	lib, logger := newLibrary()
	defer logger.Close()

	summary, err := lib.Summary()
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	outputPath, _ := cmd.Flags().GetString("out")
	if outputPath == "" {
		_, err := io.WriteString(cmd.OutOrStdout(), summary.RenderMarkdown())
		return err
	}

	if err := report.WriteMarkdownReport(summary, outputPath); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	util.SuccessLog("Report saved to: %s", outputPath)
	util.InfoLog("  Songs: %d", summary.Stats.Songs)
	util.InfoLog("  Tags: %d", summary.Stats.Tags)
	return nil
}
