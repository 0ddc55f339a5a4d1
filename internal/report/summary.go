package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/graevy/mag/internal/store"
)

// SummaryReport is a snapshot of library contents
type SummaryReport struct {
	GeneratedAt  time.Time
	DatabasePath string
	EventLogPath string
	Stats        store.Stats
	Tags         []store.TagUsage
}

// GenerateSummaryReport gathers counts and tag usage from an open store
func GenerateSummaryReport(db *store.Store, eventLogPath string) (*SummaryReport, error) {
	stats, err := db.GetStats()
	if err != nil {
		return nil, err
	}
	tags, err := db.GetTagUsage()
	if err != nil {
		return nil, err
	}

	return &SummaryReport{
		GeneratedAt:  time.Now(),
		DatabasePath: db.Path(),
		EventLogPath: eventLogPath,
		Stats:        *stats,
		Tags:         tags,
	}, nil
}

// RenderMarkdown renders the report as a markdown document
func (r *SummaryReport) RenderMarkdown() string {
	var md strings.Builder

	md.WriteString("# Music Library - Summary Report\n\n")
	md.WriteString(fmt.Sprintf("**Generated:** %s\n\n", r.GeneratedAt.Format("2006-01-02 15:04:05")))
	if r.DatabasePath != "" {
		md.WriteString(fmt.Sprintf("**Database:** `%s`\n\n", r.DatabasePath))
	}
	if r.EventLogPath != "" {
		md.WriteString(fmt.Sprintf("**Event Log:** `%s`\n\n", r.EventLogPath))
	}

	md.WriteString("---\n\n")

	md.WriteString("## Overview\n\n")
	md.WriteString("| Metric | Value |\n")
	md.WriteString("|--------|-------|\n")
	md.WriteString(fmt.Sprintf("| Songs | %d |\n", r.Stats.Songs))
	md.WriteString(fmt.Sprintf("| Tags | %d |\n", r.Stats.Tags))
	md.WriteString(fmt.Sprintf("| Tag Assignments | %d |\n", r.Stats.Assignments))
	if r.Stats.PlayEvents > 0 {
		md.WriteString(fmt.Sprintf("| Play Events | %d |\n", r.Stats.PlayEvents))
	}
	md.WriteString("\n")

	if len(r.Tags) > 0 {
		md.WriteString("## Tags\n\n")
		md.WriteString("| Tag | Songs | Coverage |\n")
		md.WriteString("|-----|-------|----------|\n")
		for _, t := range r.Tags {
			md.WriteString(fmt.Sprintf("| %s | %d | %s |\n", escapeCell(t.Name), t.Songs, coverage(t.Songs, r.Stats.Songs)))
		}
		md.WriteString("\n")
	}

	return md.String()
}

// WriteMarkdownReport writes the report to outputPath, creating its directory
func WriteMarkdownReport(report *SummaryReport, outputPath string) error {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := os.WriteFile(outputPath, []byte(report.RenderMarkdown()), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func coverage(n, total int) string {
	if total == 0 {
		return "-"
	}
	return fmt.Sprintf("%.0f%%", 100*float64(n)/float64(total))
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
