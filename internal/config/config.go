// Copyright (c) 2026 Passkeep Team
// Passkeep - desktop credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// Package config loads the Passkeep configuration from file, environment and
// command-line flags using viper. Precedence, highest first: flags, env vars
// (PASSKEEP_*), explicit --config file, user config dir, working directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config is the full application configuration.
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database" yaml:"database"`
	KDF       KDFConfig       `mapstructure:"kdf" yaml:"kdf"`
	Clipboard ClipboardConfig `mapstructure:"clipboard" yaml:"clipboard"`
	Reveal    RevealConfig    `mapstructure:"reveal" yaml:"reveal"`
	Groups    GroupsConfig    `mapstructure:"groups" yaml:"groups"`
	Debug     bool            `mapstructure:"debug" yaml:"debug"`
}

// DatabaseConfig selects the storage backend.
type DatabaseConfig struct {
	Type string `mapstructure:"type" yaml:"type"`
	DSN  string `mapstructure:"dsn" yaml:"dsn"`
}

// KDFConfig tunes the argon2id work factor. Higher values mean slower
// unlock and stronger resistance to offline guessing.
type KDFConfig struct {
	Time    uint32 `mapstructure:"time" yaml:"time"`
	Memory  uint32 `mapstructure:"memory" yaml:"memory"` // KiB
	Threads uint8  `mapstructure:"threads" yaml:"threads"`
}

// ClipboardConfig tunes the secret exposure window. Longer is more
// convenient, less secure.
type ClipboardConfig struct {
	Window time.Duration `mapstructure:"window" yaml:"window"`
}

// RevealConfig controls whether fresh sessions start with secret fields in
// clear.
type RevealConfig struct {
	Default bool `mapstructure:"default" yaml:"default"`
}

// GroupsConfig holds the configurable group invariants.
type GroupsConfig struct {
	UniqueNames bool `mapstructure:"unique_names" yaml:"unique_names"`
}

// Defaults returns the default configuration values as a viper defaults map.
func Defaults() map[string]any {
	return map[string]any{
		"database.type":       "sqlite",
		"database.dsn":        "./passkeep.db",
		"kdf.time":            3,
		"kdf.memory":          64 * 1024,
		"kdf.threads":         4,
		"clipboard.window":    10 * time.Second,
		"reveal.default":      false,
		"groups.unique_names": true,
		"debug":               false,
	}
}

// getConfigPath returns the full path for the configuration file.
func getConfigPath(system bool) (string, error) {
	var configDir string
	var err error

	if system {
		// System-wide configuration paths
		switch runtime.GOOS {
		case "windows":
			configDir = filepath.Join(os.Getenv("ProgramData"), "Passkeep")
		default: // Linux, macOS, etc.
			configDir = "/etc/passkeep"
		}
	} else {
		// User-specific configuration paths
		configDir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("could not get user config directory: %w", err)
		}
		configDir = filepath.Join(configDir, "passkeep")
	}

	return filepath.Join(configDir, "passkeep.yaml"), nil
}

// LoadConfig builds the configuration from defaults, config files, the
// environment and bound cobra flags, in ascending precedence.
func LoadConfig(cmd *cobra.Command, defaults map[string]any, configFilePath *string) (Config, error) {
	var c Config
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("passkeep")
	v.SetConfigType("yaml")

	// An explicit config file path from the --config flag has the highest
	// precedence for file-based configuration.
	if configFilePath != nil {
		v.SetConfigFile(*configFilePath)
	}

	if userConfigPath, err := getConfigPath(false); err == nil {
		v.AddConfigPath(filepath.Dir(userConfigPath))
	}
	if systemConfigPath, err := getConfigPath(true); err == nil {
		v.AddConfigPath(filepath.Dir(systemConfigPath))
	}
	v.AddConfigPath(".") // Look for passkeep.yaml in current dir

	if err := v.ReadInConfig(); err != nil {
		// It's okay if the file is not found, but other errors are fatal.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, err
		}
	}

	v.AutomaticEnv()
	v.AllowEmptyEnv(true)
	v.SetEnvPrefix("passkeep")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if cmd != nil {
		if err := v.BindPFlags(cmd.Flags()); err != nil {
			return c, err
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}

	return c, nil
}

// WriteConfigFile persists the configuration as YAML, creating the config
// directory if needed. Written 0600: the file may carry a DSN with
// credentials.
func WriteConfigFile(c *Config, system bool) error {
	path, err := getConfigPath(system)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("could not create config directory %s: %w", configDir, err)
	}

	return os.WriteFile(path, data, 0600)
}
