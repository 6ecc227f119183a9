// Package config loads prdreview settings from defaults, an optional YAML
// file, a .env file and PRDREVIEW_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// FileName is the config file looked up in the working directory and
	// the home directory.
	FileName  = ".prdreview.yaml"
	envPrefix = "PRDREVIEW"

	EnvProduction  = "production"
	EnvDevelopment = "development"
)

// Config is the full prdreview configuration.
type Config struct {
	Env    string       `mapstructure:"env" yaml:"env" validate:"oneof=production development"`
	API    APIConfig    `mapstructure:"api" yaml:"api"`
	Health HealthConfig `mapstructure:"health" yaml:"health"`
	Log    LogConfig    `mapstructure:"log" yaml:"log"`
	Server ServerConfig `mapstructure:"server" yaml:"server"`
	MCP    MCPConfig    `mapstructure:"mcp" yaml:"mcp"`

	// Source is the file the values were read from, empty when none.
	Source string `mapstructure:"-" yaml:"-"`
}

type APIConfig struct {
	BaseURL       string        `mapstructure:"base_url" yaml:"base_url" validate:"required,url"`
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gt=0"`
	HealthTimeout time.Duration `mapstructure:"health_timeout" yaml:"health_timeout" validate:"gt=0"`
}

type HealthConfig struct {
	Interval time.Duration `mapstructure:"interval" yaml:"interval" validate:"gt=0"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn warning error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=console json"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr" validate:"required"`
}

type MCPConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr" validate:"required"`
}

// Strict reports whether unknown tag values should fail loudly.
func (c Config) Strict() bool {
	return c.Env == EnvDevelopment
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Env: EnvProduction,
		API: APIConfig{
			BaseURL:       "http://127.0.0.1:8000",
			Timeout:       60 * time.Second,
			HealthTimeout: 5 * time.Second,
		},
		Health: HealthConfig{Interval: 15 * time.Second},
		Log:    LogConfig{Level: "info", Format: "console"},
		Server: ServerConfig{Addr: ":8089"},
		MCP:    MCPConfig{Addr: ":8090"},
	}
}

// Options control where Load looks.
type Options struct {
	// File is an explicit config path. A missing explicit file is an error.
	File string
	// SearchPaths are directories searched for FileName when File is empty.
	SearchPaths []string
	// DotEnv lists .env files to load first. Missing files are skipped.
	DotEnv []string
}

// DefaultOptions searches the working directory and the home directory and
// loads ./.env.
func DefaultOptions() Options {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, home)
	}
	return Options{SearchPaths: paths, DotEnv: []string{".env"}}
}

// Load resolves the configuration. Environment variables override the file,
// which overrides the defaults.
func Load(opts Options) (*Config, error) {
	for _, path := range opts.DotEnv {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", path, err)
			}
		}
	}

	v := viper.New()
	setDefaults(v, Defaults())

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetConfigType("yaml")
	if opts.File != "" {
		v.SetConfigFile(opts.File)
	} else {
		v.SetConfigName(strings.TrimSuffix(FileName, filepath.Ext(FileName)))
		for _, p := range opts.SearchPaths {
			v.AddConfigPath(p)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.File != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Source = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("env", d.Env)
	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.timeout", d.API.Timeout)
	v.SetDefault("api.health_timeout", d.API.HealthTimeout)
	v.SetDefault("health.interval", d.Health.Interval)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("mcp.addr", d.MCP.Addr)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Validate checks every field and reports the first problem by its key.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("%w: %s fails %q (got %v)", ErrInvalid, keyFor(fe.Namespace()), fe.Tag(), fe.Value())
	}
	return fmt.Errorf("%w: %v", ErrInvalid, err)
}

var keys = map[string]string{
	"Config.Env":               "env",
	"Config.API.BaseURL":       "api.base_url",
	"Config.API.Timeout":       "api.timeout",
	"Config.API.HealthTimeout": "api.health_timeout",
	"Config.Health.Interval":   "health.interval",
	"Config.Log.Level":         "log.level",
	"Config.Log.Format":        "log.format",
	"Config.Server.Addr":       "server.addr",
	"Config.MCP.Addr":          "mcp.addr",
}

func keyFor(namespace string) string {
	if k, ok := keys[namespace]; ok {
		return k
	}
	return namespace
}

// Save writes cfg as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config dir: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o600)
}

// Marshal renders cfg as YAML for display.
func Marshal(cfg *Config) (string, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(data), nil
}
