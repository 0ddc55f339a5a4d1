package util

import (
	"fmt"

	"github.com/spf13/viper"
)

// DefaultDBPath is the library database used when no --db flag, MUSIQ_DB
// variable or config entry is present
const DefaultDBPath = "music.db"

// GetDBPath returns the configured database path
func GetDBPath() string {
	if p := viper.GetString("db"); p != "" {
		return p
	}
	return DefaultDBPath
}

// GetLogDir returns the directory for JSONL audit logs, or "" when disabled
func GetLogDir() string {
	return viper.GetString("log-dir")
}

// GetNetworkOptimized returns whether network-filesystem pragmas should be applied
func GetNetworkOptimized() bool {
	return viper.GetBool("network-optimized")
}

// ConfigureLogging applies verbose/quiet/no-color/log-level settings from viper
func ConfigureLogging() error {
	if lvl := viper.GetString("log-level"); lvl != "" {
		level, err := ParseLogLevel(lvl)
		if err != nil {
			return err
		}
		SetLogLevel(level)
	}
	if viper.GetBool("verbose") && viper.GetBool("quiet") {
		return fmt.Errorf("%w: --verbose and --quiet are mutually exclusive", ErrInvalidConfig)
	}
	SetVerbose(viper.GetBool("verbose"))
	SetQuiet(viper.GetBool("quiet"))
	SetColors(!viper.GetBool("no-color") && StderrIsTerminal())
	return nil
}
