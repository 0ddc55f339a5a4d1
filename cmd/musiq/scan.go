package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/graevy/mag/internal/scan"
	"github.com/graevy/mag/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var scanCmd = &cobra.Command{
	Use:   "scan <dir>",
	Short: "Add every audio file under a directory to the library",
	Long: `Walk a directory tree and add every audio file as a song, keyed by
absolute path. Songs already in the library are left untouched, so scans
can be repeated safely.

With --verify each file's embedded tags are read first and files that
cannot be parsed are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().Bool("verify", false, "skip files whose embedded tags cannot be read")
	scanCmd.Flags().StringSlice("ext", nil, "additional file extensions to treat as audio")
	scanCmd.Flags().Int("concurrency", 4, "number of verification workers")

	viper.BindPFlag("scan.ext", scanCmd.Flags().Lookup("ext"))
	viper.BindPFlag("scan.concurrency", scanCmd.Flags().Lookup("concurrency"))
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	source := args[0]
	verify, _ := cmd.Flags().GetBool("verify")

	lib, logger := newLibrary()
	defer logger.Close()

	util.InfoLog("Library: %s", lib.Path())

	scanner := scan.New(&scan.Config{
		Songs:          lib,
		AdditionalExts: viper.GetStringSlice("scan.ext"),
		Concurrency:    viper.GetInt("scan.concurrency"),
		Verify:         verify,
		Logger:         logger,
	})

	startTime := time.Now()
	result, err := scanner.Scan(ctx, source)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	util.InfoLog("Scanned %s in %v", source, time.Since(startTime).Round(time.Millisecond))
	util.InfoLog("  Audio files found: %s", humanize.Comma(int64(result.Discovered)))
	util.InfoLog("  New songs: %d", result.Added)
	util.InfoLog("  Already in library: %d", result.Existing)
	if result.Skipped > 0 {
		util.WarnLog("  Skipped (unreadable tags): %d", result.Skipped)
	}
	if len(result.Errors) > 0 {
		util.WarnLog("  Errors: %d", len(result.Errors))
	}

	return nil
}
