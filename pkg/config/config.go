// Package config loads editmine settings from a YAML file, a .env file and
// EDITMINE_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/editmine/pkg/classify"
	"github.com/Sumatoshi-tech/editmine/pkg/lang"
	"github.com/Sumatoshi-tech/editmine/pkg/safeconv"
)

// Sentinel validation errors.
var (
	ErrInvalidPort        = errors.New("invalid server port")
	ErrInvalidBatchSize   = errors.New("output batch size must be positive")
	ErrInvalidMaxTokens   = errors.New("max tokens must be positive")
	ErrInvalidCacheSize   = errors.New("revision cache size must be positive")
	ErrInvalidSampleRatio = errors.New("sample ratio must be within [0, 1]")
	ErrInvalidBodySize    = errors.New("invalid max body size")
	ErrEmptyPrefix        = errors.New("output prefix must not be empty")
	ErrInvalidWorkers     = errors.New("worker count must not be negative")
)

const (
	envPrefix = "EDITMINE"
	maxPort   = 65535
)

// Config holds every editmine setting.
type Config struct {
	Language     string          `mapstructure:"language"`
	RevisionDirs []string        `mapstructure:"revision_dirs"`
	Output       OutputConfig    `mapstructure:"output"`
	Limits       LimitsConfig    `mapstructure:"limits"`
	Mine         MineConfig      `mapstructure:"mine"`
	Cache        CacheConfig     `mapstructure:"cache"`
	Logging      LoggingConfig   `mapstructure:"logging"`
	Telemetry    TelemetryConfig `mapstructure:"telemetry"`
	Server       ServerConfig    `mapstructure:"server"`
}

// OutputConfig controls batched record output.
type OutputConfig struct {
	Dir       string `mapstructure:"dir"`
	Prefix    string `mapstructure:"prefix"`
	BatchSize int    `mapstructure:"batch_size"`
	Compress  bool   `mapstructure:"compress"`
}

// LimitsConfig bounds the work of one comparison.
type LimitsConfig struct {
	MaxTokens int `mapstructure:"max_tokens"`
}

// MineConfig selects what a corpus run attaches to each record.
type MineConfig struct {
	Classify bool   `mapstructure:"classify"`
	Abstract bool   `mapstructure:"abstract"`
	Mode     string `mapstructure:"mode"`
	// Workers is the number of concurrent comparisons; 0 uses GOMAXPROCS.
	Workers int `mapstructure:"workers"`
}

// CacheConfig sizes the revision directory cache.
type CacheConfig struct {
	RevisionEntries int `mapstructure:"revision_entries"`
}

// LoggingConfig holds slog settings.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPHeaders  string  `mapstructure:"otlp_headers"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
	Environment  string  `mapstructure:"environment"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	MaxBodySize  string        `mapstructure:"max_body_size"`
}

// Load reads configuration. An empty path searches editmine.yaml in the
// working directory, ./config and /etc/editmine; a missing file is not an
// error. A .env file in the working directory is loaded into the process
// environment first without overriding variables already set.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("editmine")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/editmine")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration Load produces without any file or
// environment override.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config

	// Defaults always decode.
	_ = v.Unmarshal(&cfg)

	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("language", DefaultLanguage)
	v.SetDefault("revision_dirs", []string{})

	v.SetDefault("output.dir", DefaultOutputDir)
	v.SetDefault("output.prefix", DefaultOutputPrefix)
	v.SetDefault("output.batch_size", DefaultBatchSize)
	v.SetDefault("output.compress", false)

	v.SetDefault("limits.max_tokens", DefaultMaxTokens)

	v.SetDefault("mine.classify", false)
	v.SetDefault("mine.abstract", false)
	v.SetDefault("mine.mode", DefaultMode)
	v.SetDefault("mine.workers", 0)

	v.SetDefault("cache.revision_entries", DefaultRevisionCacheEntries)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.json", false)

	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.otlp_headers", "")
	v.SetDefault("telemetry.otlp_insecure", false)
	v.SetDefault("telemetry.sample_ratio", 0.0)
	v.SetDefault("telemetry.environment", "")

	v.SetDefault("server.host", DefaultHost)
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.max_body_size", DefaultMaxBodySize)
}

// Validate checks every setting and returns the first violation.
func (c *Config) Validate() error {
	if _, err := c.ParsedLanguage(); err != nil {
		return err
	}

	if _, err := c.ParsedMode(); err != nil {
		return err
	}

	if _, err := c.BodyLimit(); err != nil {
		return err
	}

	switch {
	case c.Output.BatchSize <= 0:
		return fmt.Errorf("%w: %d", ErrInvalidBatchSize, c.Output.BatchSize)
	case strings.TrimSpace(c.Output.Prefix) == "":
		return ErrEmptyPrefix
	case c.Limits.MaxTokens <= 0:
		return fmt.Errorf("%w: %d", ErrInvalidMaxTokens, c.Limits.MaxTokens)
	case c.Mine.Workers < 0:
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, c.Mine.Workers)
	case c.Cache.RevisionEntries <= 0:
		return fmt.Errorf("%w: %d", ErrInvalidCacheSize, c.Cache.RevisionEntries)
	case c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1:
		return fmt.Errorf("%w: %g", ErrInvalidSampleRatio, c.Telemetry.SampleRatio)
	case c.Server.Port <= 0 || c.Server.Port > maxPort:
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Server.Port)
	}

	return nil
}

// ParsedLanguage resolves the configured language.
func (c *Config) ParsedLanguage() (lang.Language, error) {
	l, err := lang.ParseLanguage(c.Language)
	if err != nil {
		return 0, fmt.Errorf("language: %w", err)
	}

	return l, nil
}

// ParsedMode resolves the diff set used for record flags.
func (c *Config) ParsedMode() (classify.Mode, error) {
	m, err := classify.ParseMode(c.Mine.Mode)
	if err != nil {
		return 0, fmt.Errorf("mine.mode: %w", err)
	}

	return m, nil
}

// BodyLimit parses server.max_body_size, e.g. "1MiB".
func (c *Config) BodyLimit() (int64, error) {
	n, err := humanize.ParseBytes(c.Server.MaxBodySize)
	if err != nil || n == 0 || n > 1<<40 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidBodySize, c.Server.MaxBodySize)
	}

	return safeconv.SafeInt64(n), nil
}

// Addr returns host:port of the HTTP API.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
