package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/graevy/mag/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version is set at build time
	Version = "dev"

	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "musiq",
		Short: "musiq - tag songs with 0-9 values and build playlists from them",
		Long: `musiq keeps a local library of songs, each tagged with named integer
values from 0 to 9 (energy=7, mood=3, ...). Playlists are built by querying
the library with conditions such as "energy>=7" "mood<5"; every condition
must hold for a song to match.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return util.ConfigureLogging()
		},
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./musiq.yaml)")
	rootCmd.PersistentFlags().String("db", util.DefaultDBPath, "library database file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "quiet output (errors only)")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")
	rootCmd.PersistentFlags().String("log-dir", "", "directory for JSONL event logs (disabled when empty)")
	rootCmd.PersistentFlags().String("log-level", "", "console log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("network-optimized", false, "force network-filesystem SQLite tuning (auto-detected otherwise)")

	// Bind flags to viper
	for _, key := range []string{"db", "verbose", "quiet", "no-color", "log-dir", "log-level", "network-optimized"} {
		viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(key))
	}
}

func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "musiq"))
		}
		viper.SetConfigName("musiq")
		viper.SetConfigType("yaml")
	}

	// Read in environment variables that match
	viper.SetEnvPrefix("MUSIQ")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && !viper.GetBool("quiet") {
		util.DebugLog("Using config file: %s", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
