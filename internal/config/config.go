// Package config resolves the duplicate finder's tunables: the
// separator code point, the SQLite table/column names it reads from,
// which suffix-construction algorithm to use, and how often to log
// progress. These come from built-in defaults, an optional config
// file, and environment variables, via spf13/viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// DefaultSeparator is a Private Use Area code point (U+E000), chosen so
// it cannot appear in ordinary ingested text. This resolves the open
// question of which sentinel a document store's separator should be.
const DefaultSeparator = ""

// Config holds every resolved setting.
type Config struct {
	Separator        string `mapstructure:"separator"`
	Table            string `mapstructure:"table"`
	FilterColumn     string `mapstructure:"filter_column"`
	ContentColumn    string `mapstructure:"content_column"`
	Builder          string `mapstructure:"builder"`
	BatchLogInterval int    `mapstructure:"batch_log_interval"`
}

// Loader owns the viper instance backing a resolved Config, so that
// callers who want live config-file reloading can hand it to Watch
// after the initial Load.
type Loader struct {
	v *viper.Viper
}

// NewLoader builds a Loader with defaults set, DUPFIND_* environment
// variables enabled, and a config file search path of
// $XDG_CONFIG_HOME/dupfind (falling back to ~/.config/dupfind).
func NewLoader() *Loader {
	v := viper.New()
	v.SetDefault("separator", DefaultSeparator)
	v.SetDefault("table", "data_table")
	v.SetDefault("filter_column", "domains")
	v.SetDefault("content_column", "doc_content")
	v.SetDefault("builder", "doubling")
	v.SetDefault("batch_log_interval", 100)

	v.SetEnvPrefix("DUPFIND")
	v.AutomaticEnv()

	if dir, err := configDir(); err == nil {
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	return &Loader{v: v}
}

// Load reads the config file, if one is present, and returns the
// resolved Config. A missing config file is not an error; a malformed
// one is.
func (l *Loader) Load() (*Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("config: read config file: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}

// Watch arranges for onChange to be called with the freshly re-resolved
// Config every time the backing config file changes on disk. It is a
// no-op if Load never found a config file to watch.
func (l *Loader) Watch(onChange func(*Config)) {
	if l.v.ConfigFileUsed() == "" {
		return
	}
	l.v.OnConfigChange(func(_ fsnotify.Event) {
		var cfg Config
		if err := l.v.Unmarshal(&cfg); err == nil {
			onChange(&cfg)
		}
	})
	l.v.WatchConfig()
}

func configDir() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "dupfind"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "dupfind"), nil
}
