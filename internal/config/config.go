// Package config loads nbtemplates configuration from file, environment and flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/opencode-ai/nbtemplates/internal/templates"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. NBTEMPLATES_SERVER_PORT.
const EnvPrefix = "NBTEMPLATES"

// Config is the complete runtime configuration.
type Config struct {
	TemplateDirs     []string      `mapstructure:"template_dirs" yaml:"template_dirs" json:"template_dirs"`
	TutorialPath     string        `mapstructure:"tutorial_path" yaml:"tutorial_path" json:"tutorial_path"`
	IncludeDefault   bool          `mapstructure:"include_default" yaml:"include_default" json:"include_default"`
	IncludeCorePaths bool          `mapstructure:"include_core_paths" yaml:"include_core_paths" json:"include_core_paths"`
	Server           ServerConfig  `mapstructure:"server" yaml:"server" json:"server"`
	Auth             AuthConfig    `mapstructure:"auth" yaml:"auth" json:"auth"`
	Logging          LoggingConfig `mapstructure:"logging" yaml:"logging" json:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string          `mapstructure:"host" yaml:"host" json:"host"`
	Port            int             `mapstructure:"port" yaml:"port" json:"port"`
	BaseURL         string          `mapstructure:"base_url" yaml:"base_url" json:"base_url"`
	ShutdownTimeout time.Duration   `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
	RateLimit       RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit" json:"rate_limit"`
}

// RateLimitConfig configures per-route request limits.
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second" json:"requests_per_second"`
	Burst             int     `mapstructure:"burst" yaml:"burst" json:"burst"`
}

// AuthConfig configures identity resolution.
type AuthConfig struct {
	// JWTSecret verifies tokens issued by the hosting server. Empty treats
	// every request as anonymous.
	JWTSecret  string `mapstructure:"jwt_secret" yaml:"jwt_secret" json:"jwt_secret"`
	CookieName string `mapstructure:"cookie_name" yaml:"cookie_name" json:"cookie_name"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level" json:"level"`
	Format string `mapstructure:"format" yaml:"format" json:"format"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		TemplateDirs:     []string{},
		IncludeDefault:   true,
		IncludeCorePaths: true,
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8889,
			BaseURL:         "/",
			ShutdownTimeout: 10 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerSecond: 50,
				Burst:             100,
			},
		},
		Auth: AuthConfig{
			CookieName: "nbtemplates-token",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// SetDefaults registers DefaultConfig on v so env and flags can override
// individual keys.
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("template_dirs", d.TemplateDirs)
	v.SetDefault("tutorial_path", d.TutorialPath)
	v.SetDefault("include_default", d.IncludeDefault)
	v.SetDefault("include_core_paths", d.IncludeCorePaths)
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.base_url", d.Server.BaseURL)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.rate_limit.enabled", d.Server.RateLimit.Enabled)
	v.SetDefault("server.rate_limit.requests_per_second", d.Server.RateLimit.RequestsPerSecond)
	v.SetDefault("server.rate_limit.burst", d.Server.RateLimit.Burst)
	v.SetDefault("auth.jwt_secret", d.Auth.JWTSecret)
	v.SetDefault("auth.cookie_name", d.Auth.CookieName)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}

// DefaultConfigDir returns the directory searched for config.yaml.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "nbtemplates")
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, ".config", "nbtemplates")
	}
	return ""
}

// Load reads configuration into v and decodes it. An explicit cfgFile must
// exist; otherwise a missing config.yaml in the default directory is ignored.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if dir := DefaultConfigDir(); dir != "" {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	dirs := make([]string, 0, len(c.TemplateDirs))
	for _, dir := range c.TemplateDirs {
		if dir = strings.TrimSpace(dir); dir != "" {
			dirs = append(dirs, expandHome(dir))
		}
	}
	c.TemplateDirs = dirs
	c.TutorialPath = expandHome(strings.TrimSpace(c.TutorialPath))
	// Bundled templates are addressed as builtin/<key> and stay relative.
	if c.TutorialPath != "" && !strings.HasPrefix(c.TutorialPath, templates.BuiltinSource+"/") {
		if abs, err := filepath.Abs(c.TutorialPath); err == nil {
			c.TutorialPath = abs
		}
	}
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = "/"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.ShutdownTimeout < 0 {
		return errors.New("server.shutdown_timeout must not be negative")
	}
	if c.Server.RateLimit.RequestsPerSecond < 0 {
		return errors.New("server.rate_limit.requests_per_second must not be negative")
	}
	if c.Server.RateLimit.Burst < 0 {
		return errors.New("server.rate_limit.burst must not be negative")
	}
	if c.Server.RateLimit.Enabled && (c.Server.RateLimit.RequestsPerSecond == 0 || c.Server.RateLimit.Burst == 0) {
		return errors.New("server.rate_limit requires requests_per_second and burst when enabled")
	}
	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q must be console or json", c.Logging.Format)
	}
	return nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
