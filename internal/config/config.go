// Package config resolves sermonrefs settings from defaults, a YAML file,
// the environment (including a .env file) and, last, command-line flags
// applied by the caller.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/FocuswithJustin/sermonrefs/core/errors"
	"github.com/FocuswithJustin/sermonrefs/core/merge"
	"github.com/FocuswithJustin/sermonrefs/internal/logging"
)

// EnvPrefix prefixes every environment variable the package reads.
const EnvPrefix = "SERMONREFS_"

// Config holds all runtime settings.
type Config struct {
	// Database is the SQLite file holding the verse store.
	Database string `yaml:"database"`

	// Translation is used when a request does not name one.
	Translation string `yaml:"translation"`

	// Port is the HTTP listen port for `serve`.
	Port int `yaml:"port"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// MergeOrder is "canonical", "lexical" or "preserve".
	MergeOrder string `yaml:"merge_order"`

	// AllowedOrigins restricts CORS; empty allows all.
	AllowedOrigins []string `yaml:"allowed_origins"`

	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig configures per-client request limiting.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"` // 0 disables limiting
	Burst             int `yaml:"burst"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Database:    "sermonrefs.db",
		Translation: "KJV",
		Port:        8080,
		LogLevel:    "info",
		LogFormat:   "json",
		MergeOrder:  "canonical",
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 120,
			Burst:             20,
		},
	}
}

// Load builds a Config from defaults, the YAML file at path (if path is
// not empty) and the environment. Variables from envFiles are loaded first
// without overriding ones already set; with no envFiles a .env in the
// working directory is used when present.
func Load(path string, envFiles ...string) (Config, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return Config{}, err
	}

	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		files = []string{".env"}
	}
	if err := godotenv.Load(files...); err != nil {
		return errors.NewIO("load env file", strings.Join(files, ","), err)
	}
	return nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.NewIO("read config", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return &errors.ParseError{Format: "yaml", Path: path, Message: err.Error(), Err: err}
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Database = getenv("DB", c.Database)
	c.Translation = getenv("TRANSLATION", c.Translation)
	c.LogLevel = getenv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getenv("LOG_FORMAT", c.LogFormat)
	c.MergeOrder = getenv("MERGE_ORDER", c.MergeOrder)

	if v := getenv("ALLOWED_ORIGINS", ""); v != "" {
		c.AllowedOrigins = splitList(v)
	}

	var err error
	if c.Port, err = getenvInt("PORT", c.Port); err != nil {
		return err
	}
	if c.RateLimit.RequestsPerMinute, err = getenvInt("RATE_LIMIT", c.RateLimit.RequestsPerMinute); err != nil {
		return err
	}
	if c.RateLimit.Burst, err = getenvInt("RATE_BURST", c.RateLimit.Burst); err != nil {
		return err
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Database) == "" {
		return errors.NewValidation("database", "must not be empty")
	}
	if strings.TrimSpace(c.Translation) == "" {
		return errors.NewValidation("translation", "must not be empty")
	}
	if c.Port < 1 || c.Port > 65535 {
		return &errors.ValidationError{Field: "port", Value: strconv.Itoa(c.Port), Message: "must be between 1 and 65535"}
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return &errors.ValidationError{Field: "log_level", Value: c.LogLevel, Message: err.Error()}
	}
	if _, err := logging.ParseFormat(c.LogFormat); err != nil {
		return &errors.ValidationError{Field: "log_format", Value: c.LogFormat, Message: err.Error()}
	}
	if _, err := merge.ParseOrder(c.MergeOrder); err != nil {
		return err
	}
	if c.RateLimit.RequestsPerMinute < 0 || c.RateLimit.Burst < 0 {
		return errors.NewValidation("rate_limit", "must not be negative")
	}
	return nil
}

// Order returns the parsed merge order. Call Validate first.
func (c Config) Order() merge.Order {
	o, _ := merge.ParseOrder(c.MergeOrder)
	return o
}

// InitLogging configures the global logger from LogLevel and LogFormat.
func (c Config) InitLogging() {
	level, _ := logging.ParseLevel(c.LogLevel)
	format, _ := logging.ParseFormat(c.LogFormat)
	logging.InitLogger(level, format)
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(EnvPrefix + key)); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	v := getenv(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		// No Err: the strconv cause would hide ErrInvalidInput from errors.Is.
		return fallback, &errors.ValidationError{Field: EnvPrefix + key, Value: v, Message: "must be an integer"}
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
