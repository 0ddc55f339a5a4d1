package main

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/graevy/mag/internal/store"
	"github.com/graevy/mag/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks on the library and configuration",
	Long: `Run diagnostic checks to ensure musiq can operate correctly.

This command checks:
- SQLite version
- Library database accessibility and integrity
- Whether the database sits on a network filesystem
- Disk space next to the database
- Event log directory, when configured`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

type checkResult struct {
	name    string
	message string
	error   bool
	warning bool
}

func runDoctor(cmd *cobra.Command, args []string) error {
	util.InfoLog("=== musiq doctor ===")

	dbPath := util.GetDBPath()
	results := []checkResult{
		checkSQLite(),
		checkDatabase(dbPath),
		checkFilesystem(dbPath, viper.GetBool("network-optimized")),
		checkDiskSpace(filepath.Dir(dbPath)),
	}
	if dir := util.GetLogDir(); dir != "" {
		results = append(results, checkLogDirectory(dir))
	}

	hasErrors := false
	hasWarnings := false

	for _, r := range results {
		symbol := "✓"
		if r.error {
			symbol = "✗"
			hasErrors = true
		} else if r.warning {
			symbol = "⚠"
			hasWarnings = true
		}

		line := fmt.Sprintf("[%s] %s", symbol, r.name)
		if r.message != "" {
			line += fmt.Sprintf(": %s", r.message)
		}

		if r.error {
			util.ErrorLog("%s", line)
		} else if r.warning {
			util.WarnLog("%s", line)
		} else {
			util.SuccessLog("%s", line)
		}
	}

	if hasErrors {
		return fmt.Errorf("diagnostics failed")
	} else if hasWarnings {
		util.WarnLog("Some checks produced warnings")
	} else {
		util.SuccessLog("All checks passed")
	}

	return nil
}

// checkSQLite verifies the embedded SQLite reports a version
func checkSQLite() checkResult {
	version := store.SQLiteVersion()
	if version == "" {
		return checkResult{
			name:    "SQLite",
			error:   true,
			message: "unable to determine version",
		}
	}

	return checkResult{
		name:    "SQLite",
		message: fmt.Sprintf("version %s (built-in)", version),
	}
}

// checkDatabase opens the library read-write and verifies its integrity
func checkDatabase(dbPath string) checkResult {
	if dbPath == "" {
		return checkResult{
			name:    "Database",
			warning: true,
			message: "no database path specified (use --db flag or config)",
		}
	}

	info, err := os.Stat(dbPath)
	if err != nil {
		if os.IsNotExist(err) {
			return checkResult{
				name:    "Database",
				message: fmt.Sprintf("%s (will be created on first use)", dbPath),
			}
		}
		return checkResult{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("cannot access %s: %v", dbPath, err),
		}
	}

	if !info.Mode().IsRegular() {
		return checkResult{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("%s is not a regular file", dbPath),
		}
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return checkResult{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("cannot open %s: %v", dbPath, err),
		}
	}
	defer db.Close()

	if err := db.CheckIntegrity(); err != nil {
		return checkResult{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("integrity check failed: %v", err),
		}
	}

	stats, err := db.GetStats()
	if err != nil {
		return checkResult{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("cannot read %s: %v", dbPath, err),
		}
	}

	return checkResult{
		name: "Database",
		message: fmt.Sprintf("%s (%s, %d songs, %d tags)",
			dbPath, humanize.Bytes(uint64(info.Size())), stats.Songs, stats.Tags),
	}
}

// checkFilesystem reports network mounts, which need the network pragmas
func checkFilesystem(dbPath string, forced bool) checkResult {
	info, err := util.DetectNetworkFilesystem(dbPath)
	if err != nil {
		return checkResult{
			name:    "Filesystem",
			warning: true,
			message: fmt.Sprintf("cannot determine filesystem: %v", err),
		}
	}

	if !info.IsNetwork {
		return checkResult{name: "Filesystem", message: "local"}
	}

	msg := fmt.Sprintf("network (%s at %s), network-optimized settings applied automatically", info.Protocol, info.MountPath)
	if forced {
		msg = fmt.Sprintf("network (%s at %s), network-optimized settings forced", info.Protocol, info.MountPath)
	}
	return checkResult{name: "Filesystem", message: msg}
}

// checkDiskSpace verifies room for the database to grow
func checkDiskSpace(dir string) checkResult {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(dir, &stat); err != nil {
		return checkResult{
			name:    "Disk space",
			warning: true,
			message: fmt.Sprintf("cannot determine disk space: %v", err),
		}
	}

	availBytes := stat.Bavail * uint64(stat.Bsize)

	// The library is small; warn only when the disk is nearly full
	if availBytes < 100*humanize.MByte {
		return checkResult{
			name:    "Disk space",
			warning: true,
			message: fmt.Sprintf("%s available (low space!)", humanize.Bytes(availBytes)),
		}
	}

	return checkResult{
		name:    "Disk space",
		message: fmt.Sprintf("%s available", humanize.Bytes(availBytes)),
	}
}

// checkLogDirectory verifies the event log directory is writable
func checkLogDirectory(path string) checkResult {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return checkResult{
				name:    "Event log directory",
				message: fmt.Sprintf("%s (will be created on first use)", path),
			}
		}
		return checkResult{
			name:    "Event log directory",
			error:   true,
			message: fmt.Sprintf("cannot access %s: %v", path, err),
		}
	}

	if !info.IsDir() {
		return checkResult{
			name:    "Event log directory",
			error:   true,
			message: fmt.Sprintf("%s is not a directory", path),
		}
	}

	f, err := os.CreateTemp(path, ".musiq_write_test")
	if err != nil {
		return checkResult{
			name:    "Event log directory",
			error:   true,
			message: fmt.Sprintf("cannot write to %s: %v", path, err),
		}
	}
	f.Close()
	os.Remove(f.Name())

	return checkResult{
		name:    "Event log directory",
		message: fmt.Sprintf("%s (writable)", path),
	}
}
