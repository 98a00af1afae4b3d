package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# voice provider: web-speech, cloud-tts, or premium-voice
provider: "cloud-tts"
# playback speed multiplier (0.5 to 2.0)
speed: 1.0
# base speech rate override in words per minute (0 = provider default)
words_per_minute: 0

# starting latency offset for word highlighting, in seconds
base_offset: 0.30
# starting latency offset for sentence auto-scroll, in seconds
sentence_base_offset: 0.30

# how many chunk audio buffers to keep decoded
pool_size: 3
# how many chunks ahead of the playing one to preload
preload_ahead: 2
# crossfade duration between chunks
crossfade: "300ms"
# crossfade gain curve: exponential or linear
crossfade_curve: "exponential"

# cache fetched chunk audio on disk
cache_enabled: true
# disk cache size limit in bytes
cache_limit: 1073741824

# verbose logging to the cache dir
debug: false
`

var configCmd = &cobra.Command{
	Use:     "config",
	Short:   "Edit the bbsync config file",
	Long:    paragraph(fmt.Sprintf("\n%s the bbsync config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("bbsync config\nbbsync config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("bbsync", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
