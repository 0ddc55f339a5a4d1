package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/graevy/mag/internal/meta"
	"github.com/graevy/mag/internal/query"
	"github.com/graevy/mag/internal/store"
	"github.com/graevy/mag/internal/util"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var exportCmd = &cobra.Command{
	Use:     "export <condition>...",
	Aliases: []string{"e"},
	Short:   "Export a playlist of songs matching every tag condition",
	Long: `Export a playlist of songs matching every tag condition.

Conditions take the form <tag><op><0-9> with op one of =, !=, >, <, >=, <=:

  musiq export energy>=7 mood<5 background=3

A song matches when it carries every named tag with a value satisfying
the comparison. Results are ordered by path.

Formats:
  text  "Found N songs:" followed by one path per line (default)
  m3u   extended M3U playlist
  json  conditions and songs as JSON
  yaml  conditions and songs as YAML`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("format", "f", "text", "output format: text, m3u, json, yaml")
	exportCmd.Flags().StringP("output", "o", "", "write to file instead of stdout")
}

// playlist is the structured export document
type playlist struct {
	Conditions []query.Condition `json:"conditions" yaml:"conditions"`
	Count      int               `json:"count" yaml:"count"`
	Songs      []store.Song      `json:"songs" yaml:"songs"`
}

func runExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")

	if !validFormat(format) {
		return fmt.Errorf("%w: unknown export format %q", util.ErrInvalidConfig, format)
	}

	if len(args) == 0 {
		util.WarnLog("No tag conditions specified")
		return nil
	}

	conds, err := query.ParseConditions(args)
	if err != nil {
		return fmt.Errorf("error parsing tag condition: %w", err)
	}

	lib, logger := newLibrary()
	defer logger.Close()

	songs, err := lib.QuerySongs(conds)
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}

	out := cmd.OutOrStdout()
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", outputPath, err)
		}
		defer f.Close()
		out = f
	}

	if err := writePlaylist(out, format, conds, songs); err != nil {
		return err
	}
	if outputPath != "" {
		util.SuccessLog("Wrote %d songs to %s", len(songs), outputPath)
	}
	return nil
}

func validFormat(format string) bool {
	switch format {
	case "text", "m3u", "json", "yaml":
		return true
	}
	return false
}

// writePlaylist renders songs in the requested format
func writePlaylist(w io.Writer, format string, conds []query.Condition, songs []store.Song) error {
	switch format {
	case "text":
		if len(songs) == 0 {
			_, err := fmt.Fprintln(w, "No songs found matching the specified conditions")
			return err
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Found %d songs:\n", len(songs))
		for _, s := range songs {
			b.WriteString(s.Path)
			b.WriteByte('\n')
		}
		_, err := io.WriteString(w, b.String())
		return err

	case "m3u":
		var b strings.Builder
		b.WriteString("#EXTM3U\n")
		for _, s := range songs {
			tags, err := meta.ReadFileTags(s.Path)
			if err != nil {
				util.DebugLog("No embedded tags for %s: %v", s.Path, err)
			}
			fmt.Fprintf(&b, "#EXTINF:-1,%s\n%s\n", tags.DisplayTitle(s.Path), s.Path)
		}
		_, err := io.WriteString(w, b.String())
		return err

	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(playlist{Conditions: conds, Count: len(songs), Songs: songs})

	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(playlist{Conditions: conds, Count: len(songs), Songs: songs}); err != nil {
			return err
		}
		return enc.Close()
	}

	return fmt.Errorf("%w: unknown export format %q", util.ErrInvalidConfig, format)
}
