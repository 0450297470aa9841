// Copyright (c) 2026 Claudius Team
// Claudius - assistant configuration dashboard
// This source code is licensed under the MIT license found in the LICENSE file.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the on-disk and in-memory configuration of Claudius.
type Config struct {
	ClaudeDir       string        `mapstructure:"claude_dir" yaml:"claude_dir"`
	ProjectRoots    []string      `mapstructure:"project_roots" yaml:"project_roots"`
	MaxDepth        int           `mapstructure:"max_depth" yaml:"max_depth"`
	AssistantBinary string        `mapstructure:"assistant_binary" yaml:"assistant_binary"`
	Language        string        `mapstructure:"language" yaml:"language"`
	TokenBudget     int           `mapstructure:"token_budget" yaml:"token_budget"`
	ExactTokens     bool          `mapstructure:"exact_tokens" yaml:"exact_tokens"`
	Watch           bool          `mapstructure:"watch" yaml:"watch"`
	Verbose         bool          `mapstructure:"verbose" yaml:"verbose"`
	Cron            CronConfig    `mapstructure:"cron" yaml:"cron"`
	History         HistoryConfig `mapstructure:"history" yaml:"history"`
}

// CronConfig configures access to the OS scheduler.
type CronConfig struct {
	Binary string `mapstructure:"binary" yaml:"binary"`
}

// HistoryConfig configures the optional scan history database.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Type    string `mapstructure:"type" yaml:"type"`
	Dsn     string `mapstructure:"dsn" yaml:"dsn"`
}

// Defaults returns the default configuration values keyed the way viper
// expects them.
func Defaults() map[string]any {
	historyDSN := "claudius-history.db"
	if dir, err := os.UserConfigDir(); err == nil {
		historyDSN = filepath.Join(dir, "claudius", "history.db")
	}
	return map[string]any{
		"claude_dir":       "",
		"project_roots":    []string{},
		"max_depth":        4,
		"assistant_binary": "claude",
		"language":         "en",
		"token_budget":     10000,
		"exact_tokens":     false,
		"watch":            false,
		"verbose":          false,
		"cron.binary":      "crontab",
		"history.enabled":  true,
		"history.type":     "sqlite",
		"history.dsn":      historyDSN,
	}
}

// flagKeys maps CLI flag names onto configuration keys where they differ.
var flagKeys = map[string]string{
	"claude-dir":       "claude_dir",
	"project-root":     "project_roots",
	"max-depth":        "max_depth",
	"assistant-binary": "assistant_binary",
	"lang":             "language",
	"token-budget":     "token_budget",
	"exact-tokens":     "exact_tokens",
	"crontab":          "cron.binary",
	"history":          "history.enabled",
	"history-type":     "history.type",
	"history-dsn":      "history.dsn",
}

// GetConfigPath returns the full path for the configuration file.
func GetConfigPath(system bool) (string, error) {
	var configDir string
	var err error

	if system {
		switch runtime.GOOS {
		case "windows":
			configDir = filepath.Join(os.Getenv("ProgramData"), "Claudius")
		default: // Linux, macOS, etc.
			configDir = "/etc/claudius"
		}
	} else {
		configDir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("could not get user config directory: %w", err)
		}
		configDir = filepath.Join(configDir, "claudius")
	}

	return filepath.Join(configDir, "claudius.yaml"), nil
}

// LoadConfig layers defaults, the config file, a .env file, CLAUDIUS_*
// environment variables and the command's flags, and decodes the result
// into T.
func LoadConfig[T any](cmd *cobra.Command, defaults map[string]any, additionalConfigFilePath *string) (T, error) {
	var c T
	v := viper.New()

	// 1. Set defaults
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	// 2. Set up file search paths
	v.SetConfigName("claudius")
	v.SetConfigType("yaml")

	// 3. An explicit --config flag wins over the search paths.
	if additionalConfigFilePath != nil && *additionalConfigFilePath != "" {
		v.SetConfigFile(*additionalConfigFilePath)
	}

	// 4. Standard config locations
	if userConfigPath, err := GetConfigPath(false); err == nil {
		v.AddConfigPath(filepath.Dir(userConfigPath))
	}
	if systemConfigPath, err := GetConfigPath(true); err == nil {
		v.AddConfigPath(filepath.Dir(systemConfigPath))
	}
	v.AddConfigPath(".")

	// 5. Read in the primary config file.
	if err := v.ReadInConfig(); err != nil {
		// It's okay if the file is not found, but other errors are fatal.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return c, err
		}
	}

	// 6. A .env file in the working directory seeds the environment. Values
	// already present in the process environment win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return c, fmt.Errorf("could not read .env: %w", err)
	}

	// 7. Read from environment variables
	v.SetEnvPrefix("claudius")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 8. Flags
	if cmd != nil {
		var bindErr error
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			key, ok := flagKeys[f.Name]
			if !ok {
				key = f.Name
			}
			if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
				bindErr = err
			}
		})
		if bindErr != nil {
			return c, bindErr
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	return c, nil
}

// WriteConfigFile writes c as YAML to the user or system config path.
func WriteConfigFile[T any](c *T, system bool) error {
	path, err := GetConfigPath(system)
	if err != nil {
		return err
	}
	return WriteConfigFileTo(c, path)
}

// WriteConfigFileTo writes c as YAML to path, creating parent directories.
func WriteConfigFileTo[T any](c *T, path string) error {
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
