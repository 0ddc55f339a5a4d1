package main

import (
	"strings"

	"github.com/graevy/mag/internal/library"
	"github.com/graevy/mag/internal/report"
	"github.com/graevy/mag/internal/util"
	"github.com/spf13/viper"
)

// envKeyReplacer maps dashed keys to env names (log-dir -> MUSIQ_LOG_DIR)
var envKeyReplacer = strings.NewReplacer("-", "_")

// eventLevel picks the event log threshold. An explicit log-level wins,
// otherwise quiet and verbose shift it the way they shift the console.
func eventLevel() (report.EventLevel, error) {
	if s := viper.GetString("log-level"); s != "" {
		return report.ParseEventLevel(s)
	}
	switch {
	case viper.GetBool("quiet"):
		return report.LevelWarning, nil
	case viper.GetBool("verbose"):
		return report.LevelDebug, nil
	}
	return report.LevelInfo, nil
}

// openEventLogger opens the JSONL event log when a log directory is configured.
// Failure to create it is reported and logging continues without it.
func openEventLogger() *report.EventLogger {
	dir := util.GetLogDir()
	if dir == "" {
		return report.NullLogger()
	}

	level, err := eventLevel()
	if err != nil {
		util.WarnLog("Invalid event log level: %v", err)
		level = report.LevelInfo
	}

	logger, err := report.NewEventLogger(dir, level)
	if err != nil {
		util.WarnLog("Failed to create event logger: %v", err)
		return report.NullLogger()
	}
	util.DebugLog("Event log: %s (run %s)", logger.Path(), logger.RunID())
	return logger
}

// newLibrary builds a Library from the resolved configuration.
// The caller closes the returned logger.
func newLibrary() (*library.Library, *report.EventLogger) {
	logger := openEventLogger()
	dbPath := util.GetDBPath()
	lib := library.New(&library.Config{
		DBPath:           dbPath,
		NetworkOptimized: util.ResolveNetworkOptimized(dbPath, util.GetNetworkOptimized()),
		Logger:           logger,
	})
	return lib, logger
}
