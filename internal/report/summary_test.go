package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/graevy/mag/internal/store"
)

func TestGenerateSummaryReport(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "music.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer db.Close()

	db.InsertSong("/music/a.mp3")
	db.InsertSong("/music/b.mp3")
	db.InsertTag("energy")
	db.InsertTag("mood")
	if err := db.SetSongTag("/music/a.mp3", "energy", 7); err != nil {
		t.Fatalf("tag failed: %v", err)
	}

	report, err := GenerateSummaryReport(db, "")
	if err != nil {
		t.Fatalf("GenerateSummaryReport failed: %v", err)
	}

	if report.Stats.Songs != 2 || report.Stats.Tags != 2 || report.Stats.Assignments != 1 {
		t.Errorf("unexpected stats: %+v", report.Stats)
	}
	if len(report.Tags) != 2 || report.Tags[0].Name != "energy" || report.Tags[0].Songs != 1 {
		t.Errorf("unexpected tag usage: %+v", report.Tags)
	}
	if report.DatabasePath != db.Path() {
		t.Errorf("expected database path %s, got %s", db.Path(), report.DatabasePath)
	}
}

func TestWriteMarkdownReport(t *testing.T) {
	report := &SummaryReport{
		DatabasePath: "music.db",
		Stats:        store.Stats{Songs: 4, Tags: 2, Assignments: 3},
		Tags: []store.TagUsage{
			{Name: "energy", Songs: 2},
			{Name: "a|b", Songs: 1},
		},
	}

	outputPath := filepath.Join(t.TempDir(), "reports", "summary.md")
	if err := WriteMarkdownReport(report, outputPath); err != nil {
		t.Fatalf("WriteMarkdownReport failed: %v", err)
	}

	content, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("failed to read report: %v", err)
	}
	md := string(content)

	expected := []string{
		"# Music Library - Summary Report",
		"**Database:** `music.db`",
		"| Songs | 4 |",
		"| Tag Assignments | 3 |",
		"| energy | 2 | 50% |",
		`| a\|b | 1 | 25% |`,
	}
	for _, s := range expected {
		if !strings.Contains(md, s) {
			t.Errorf("report missing %q", s)
		}
	}
	if strings.Contains(md, "Play Events") {
		t.Error("play events row should be omitted when zero")
	}
}

func TestReportWithEmptyLibrary(t *testing.T) {
	md := (&SummaryReport{}).RenderMarkdown()
	if !strings.Contains(md, "| Songs | 0 |") {
		t.Error("expected zero song count")
	}
	if strings.Contains(md, "## Tags") {
		t.Error("tags section should be omitted for an empty library")
	}
}
