// Package main provides the entry point for the bbsync CLI, a word-level
// audio/text synchronization engine for read-along narration.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/francktshibala/bookbridge-sync/readaloud"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	debug      bool

	rootCmd = &cobra.Command{
		Use:   "bbsync",
		Short: "Word-level audio/text synchronization for read-along narration",
		Long: paragraph(
			fmt.Sprintf("\nEstimate, align and calibrate %s for narrated text.", keyword("word timing")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
	}
)

// loadEngineConfig resolves the effective engine configuration from the
// config file, environment overrides and defaults.
func loadEngineConfig() (readaloud.Config, error) {
	cfg, err := readaloud.LoadConfigFromViper()
	if err != nil {
		return readaloud.Config{}, fmt.Errorf("unable to load config: %w", err)
	}
	if debug {
		cfg.Debug = true
	}
	return cfg, nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "verbose logging")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	viper.SetDefault("provider", string(readaloud.ProviderCloudTTS))
	viper.SetDefault("speed", 1.0)
	viper.SetDefault("words_per_minute", 0)
	viper.SetDefault("base_offset", 0.30)
	viper.SetDefault("sentence_base_offset", 0.30)
	viper.SetDefault("pool_size", 3)
	viper.SetDefault("preload_ahead", 2)
	viper.SetDefault("crossfade", "300ms")
	viper.SetDefault("crossfade_curve", "exponential")
	viper.SetDefault("cache_enabled", true)
	viper.SetDefault("cache_limit", int64(1<<30))

	rootCmd.AddCommand(
		estimateCmd,
		alignCmd,
		playCmd,
		calibrateCmd,
		statusCmd,
		configCmd,
		manCmd,
	)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "bookbridge-sync")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "bookbridge-sync")}, dirs...)
	}

	if c := os.Getenv("BBSYNC_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("bbsync")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("bbsync")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "bbsync.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
