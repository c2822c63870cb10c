// Package config loads passvault settings. Precedence, lowest first:
// built-in defaults, passvault.yaml, PASSVAULT_* environment variables,
// command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "passvault"
	FileName  = "passvault"
	dirName   = ".passvault"
)

type Config struct {
	DataDir          string        `mapstructure:"data_dir"`
	LogLevel         string        `mapstructure:"log_level"`
	ClipboardTimeout time.Duration `mapstructure:"clipboard_timeout"`
	PasswordLength   int           `mapstructure:"password_length"`
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"data-dir":          "data_dir",
	"log-level":         "log_level",
	"clipboard-timeout": "clipboard_timeout",
	"length":            "password_length",
}

// DefaultDataDir is ~/.passvault.
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, dirName), nil
}

func Defaults() map[string]any {
	dir, err := DefaultDataDir()
	if err != nil {
		dir = dirName
	}
	return map[string]any{
		"data_dir":          dir,
		"log_level":         "warn",
		"clipboard_timeout": "30s",
		"password_length":   16,
	}
}

// Load resolves the configuration for cmd. configFile, when non-empty, must
// exist; otherwise passvault.yaml is looked up in the data directory and
// the working directory and may be absent.
func Load(cmd *cobra.Command, configFile string) (Config, error) {
	var c Config
	v := viper.New()

	defaults := Defaults()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cmd != nil {
		for name, key := range flagKeys {
			if f := cmd.Flags().Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return c, err
				}
			}
		}
	}

	if configFile != "" {
		if _, err := os.Stat(configFile); err != nil {
			return c, fmt.Errorf("config file: %w", err)
		}
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(expandHome(v.GetString("data_dir")))
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return c, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("parse config: %w", err)
	}
	c.DataDir = expandHome(c.DataDir)
	return c, c.Validate()
}

func (c Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("config: data_dir is empty")
	}
	if c.PasswordLength < 8 {
		return fmt.Errorf("config: password_length %d is below 8", c.PasswordLength)
	}
	if c.ClipboardTimeout < 0 {
		return fmt.Errorf("config: clipboard_timeout %s is negative", c.ClipboardTimeout)
	}
	return nil
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
