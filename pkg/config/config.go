// Package config loads gantta settings from ~/.config/gantta/config.yaml and
// GANTTA_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	xdgAppName = "gantta"
	configFile = "config.yaml"
	envPrefix  = "GANTTA"

	// APIKeyEnv names the environment variable holding the Gemini API key.
	APIKeyEnv = "GOOGLE_API_KEY"
)

type Config struct {
	TasksFile string       `mapstructure:"tasks_file" yaml:"tasks_file"`
	Calendar  string       `mapstructure:"calendar" yaml:"calendar"`
	Log       LogConfig    `mapstructure:"log" yaml:"log"`
	Assist    AssistConfig `mapstructure:"assist" yaml:"assist"`

	// APIKey is read from the environment only and never saved.
	APIKey string `mapstructure:"-" yaml:"-"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type AssistConfig struct {
	Model           string        `mapstructure:"model" yaml:"model"`
	MaxOutputTokens int64         `mapstructure:"max_output_tokens" yaml:"max_output_tokens"`
	Timeout         time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// Dir returns the per-user gantta directory, ~/.config/gantta.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName), nil
}

func GetConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("tasks_file", "gantt_tasks.json")
	v.SetDefault("calendar", "Gantt")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("assist.model", "gemini-1.5-flash")
	v.SetDefault("assist.max_output_tokens", 7500)
	v.SetDefault("assist.timeout", "0s")
}

// Load reads path, or the default config path when path is empty. A missing
// file is not an error; defaults and environment overrides still apply.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.Calendar == "" {
		cfg.Calendar = "Gantt"
	}
	cfg.APIKey = os.Getenv(APIKeyEnv)
	return &cfg, nil
}

// Save writes cfg to path, or the default config path when path is empty.
func Save(cfg *Config, path string) error {
	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
