package main

import (
	"errors"
	"fmt"

	"github.com/graevy/mag/internal/library"
	"github.com/graevy/mag/internal/meta"
	"github.com/graevy/mag/internal/query"
	"github.com/graevy/mag/internal/util"
	"github.com/spf13/cobra"
)

var songCmd = &cobra.Command{
	Use:     "song",
	Aliases: []string{"s"},
	Short:   "Create, tag or remove songs",
}

var songAddCmd = &cobra.Command{
	Use:   "add <path>...",
	Short: "Add songs to the library by path",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSongAdd,
}

var songRemoveCmd = &cobra.Command{
	Use:   "remove <path>...",
	Short: "Remove songs and everything recorded about them",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSongRemove,
}

var songTagCmd = &cobra.Command{
	Use:   "tag <path> <name=value>...",
	Short: "Tag a song with name=value pairs",
	Long: `Tag a song with name=value pairs, values 0 through 9.

Tags are created on first use. Re-tagging replaces the previous value.
Malformed pairs are reported and skipped; the rest are still applied.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSongTag,
}

var songShowCmd = &cobra.Command{
	Use:   "show <path>",
	Short: "Show a song's tags and embedded file metadata",
	Args:  cobra.ExactArgs(1),
	RunE:  runSongShow,
}

func init() {
	rootCmd.AddCommand(songCmd)
	songCmd.AddCommand(songAddCmd, songRemoveCmd, songTagCmd, songShowCmd)
}

func runSongAdd(cmd *cobra.Command, args []string) error {
	lib, logger := newLibrary()
	defer logger.Close()

	for _, path := range args {
		if err := lib.AddSong(path); err != nil {
			return err
		}
		util.SuccessLog("Added %s", path)
	}
	return nil
}

func runSongRemove(cmd *cobra.Command, args []string) error {
	lib, logger := newLibrary()
	defer logger.Close()

	for _, path := range args {
		if err := lib.RemoveSong(path); err != nil {
			return err
		}
		util.SuccessLog("Removed %s", path)
	}
	return nil
}

func runSongTag(cmd *cobra.Command, args []string) error {
	lib, logger := newLibrary()
	defer logger.Close()

	_, failed, err := tagSong(lib, args[0], args[1:])
	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d tags not applied", failed, len(args)-1)
	}
	return nil
}

// tagSong applies each name=value pair to path. Parse failures and missing
// songs are reported per pair; storage failures abort.
func tagSong(lib *library.Library, path string, pairs []string) (applied, failed int, err error) {
	for _, pair := range pairs {
		c, err := query.ParseAssignment(pair)
		if err != nil {
			util.ErrorLog("Error parsing tag: %v", err)
			failed++
			continue
		}

		if err := lib.AddTag(c.Tag); err != nil {
			return applied, failed, err
		}
		if err := lib.TagSong(path, c.Tag, c.Value); err != nil {
			if errors.Is(err, util.ErrNotFound) || errors.Is(err, util.ErrConstraintViolation) {
				util.ErrorLog("%v", err)
				failed++
				continue
			}
			return applied, failed, err
		}

		util.SuccessLog("Tagged %s with %s", path, c)
		applied++
	}
	return applied, failed, nil
}

func runSongShow(cmd *cobra.Command, args []string) error {
	lib, logger := newLibrary()
	defer logger.Close()

	path := args[0]
	tags, err := lib.SongTags(path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fileTags, err := meta.ReadFileTags(path)
	if err != nil {
		util.DebugLog("No embedded tags for %s: %v", path, err)
	}

	fmt.Fprintf(out, "%s\n", path)
	fmt.Fprintf(out, "  Title: %s\n", fileTags.DisplayTitle(path))
	if fileTags != nil {
		if fileTags.Album != "" {
			fmt.Fprintf(out, "  Album: %s\n", fileTags.Album)
		}
		if fileTags.Genre != "" {
			fmt.Fprintf(out, "  Genre: %s\n", fileTags.Genre)
		}
		if fileTags.Year != 0 {
			fmt.Fprintf(out, "  Year: %d\n", fileTags.Year)
		}
	}

	if len(tags) == 0 {
		fmt.Fprintln(out, "  No tags")
		return nil
	}
	fmt.Fprintln(out, "  Tags:")
	for _, t := range tags {
		fmt.Fprintf(out, "    %s=%d\n", t.Name, t.Value)
	}
	return nil
}
