// Package config loads and validates pagewatch configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "PAGEWATCH"

// Config represents the complete configuration schema for pagewatch.
//
// Configuration sources (in order of precedence):
//  1. Defaults
//  2. Configuration file (optional)
//  3. Environment variables (a .env file in the working directory is loaded first)
type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Storage   StorageConfig   `mapstructure:"storage" yaml:"storage"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" yaml:"scheduler"`
	Checks    ChecksConfig    `mapstructure:"checks" yaml:"checks"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
}

type ServerConfig struct {
	Addr         string        `mapstructure:"addr" yaml:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	JWT          JWTConfig     `mapstructure:"jwt" yaml:"jwt"`
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret" yaml:"secret"`
	TTL    time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

type StorageConfig struct {
	Driver          string        `mapstructure:"driver" yaml:"driver"` // sqlite, postgres
	DSN             string        `mapstructure:"dsn" yaml:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" yaml:"conn_max_lifetime"`
}

type SchedulerConfig struct {
	Interval    time.Duration `mapstructure:"interval" yaml:"interval"`
	WorkerCount int           `mapstructure:"worker_count" yaml:"worker_count"`
	QueueSize   int           `mapstructure:"queue_size" yaml:"queue_size"`
	BatchSize   int           `mapstructure:"batch_size" yaml:"batch_size"`
}

type ChecksConfig struct {
	HTTP HTTPCheckConfig `mapstructure:"http" yaml:"http"`
}

type HTTPCheckConfig struct {
	Timeout         time.Duration `mapstructure:"timeout" yaml:"timeout"`
	FollowRedirects bool          `mapstructure:"follow_redirects" yaml:"follow_redirects"`
	UserAgent       string        `mapstructure:"user_agent" yaml:"user_agent"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error, fatal, panic
	Pretty bool   `mapstructure:"pretty" yaml:"pretty"` // human-readable console output
}

// Load loads configuration from defaults, the optional configuration file,
// and environment variables, then validates the result.
//
// configFile may be empty, in which case config.yaml is searched for in the
// working directory and the per-user config directory.
//
// The function fails fast on:
//   - Invalid configuration file
//   - Invalid or missing required configuration values
func Load(configFile string) (*Config, error) {
	// Optional .env file; real environment variables win over it
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf(".env file error: %w", err)
	}

	v := viper.New()

	// Register default values
	setDefaults(v)

	// Environment variable support
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AllowEmptyEnv(false)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		// Cross-platform config directory
		if configDir := getConfigDir(); configDir != "" {
			v.AddConfigPath(configDir)
		}
	}

	// Read configuration file if present
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config file error: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	normalizeConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// String renders the configuration as YAML with secrets redacted.
func (c *Config) String() string {
	redacted := *c
	if redacted.Server.JWT.Secret != "" {
		redacted.Server.JWT.Secret = "********"
	}

	out, err := yaml.Marshal(&redacted)
	if err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return string(out)
}

// getConfigDir returns the appropriate config directory for the current OS
func getConfigDir() string {
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "pagewatch")
		}
		return ""
	}

	if home := os.Getenv("HOME"); home != "" {
		return filepath.Join(home, ".pagewatch")
	}
	return ""
}
