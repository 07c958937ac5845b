// Package config loads the gaphor CLI configuration file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Store kinds.
const (
	StoreNone   = "none"
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// DefaultPath is where the CLI looks for a config file when none is given.
const DefaultPath = "gaphor.yaml"

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the full CLI configuration.
type Config struct {
	LogLevel   string `yaml:"log_level" json:"log_level" mapstructure:"log_level"`
	LogFormat  string `yaml:"log_format" json:"log_format" mapstructure:"log_format"`
	StackLimit int    `yaml:"stack_limit" json:"stack_limit" mapstructure:"stack_limit"`

	Store  StoreConfig  `yaml:"store" json:"store" mapstructure:"store"`
	Backup BackupConfig `yaml:"backup" json:"backup" mapstructure:"backup"`
	HTTP   HTTPConfig   `yaml:"http" json:"http" mapstructure:"http"`
}

// StoreConfig selects where backups live.
type StoreConfig struct {
	Kind  string      `yaml:"kind" json:"kind" mapstructure:"kind"`
	Dir   string      `yaml:"dir" json:"dir" mapstructure:"dir"`
	Redis RedisConfig `yaml:"redis" json:"redis" mapstructure:"redis"`

	// Encryption at rest. Keys are base64 encoded 32 byte AES keys.
	EncryptionKey string   `yaml:"encryption_key" json:"encryption_key" mapstructure:"encryption_key"`
	FallbackKeys  []string `yaml:"fallback_keys" json:"fallback_keys" mapstructure:"fallback_keys"`
}

// RedisConfig configures the redis store and the distributed document lock.
type RedisConfig struct {
	Addr     string        `yaml:"addr" json:"addr" mapstructure:"addr"`
	Password string        `yaml:"password" json:"password" mapstructure:"password"`
	DB       int           `yaml:"db" json:"db" mapstructure:"db"`
	Prefix   string        `yaml:"prefix" json:"prefix" mapstructure:"prefix"`
	TTL      time.Duration `yaml:"ttl" json:"ttl" mapstructure:"ttl"`
	LockTTL  time.Duration `yaml:"lock_ttl" json:"lock_ttl" mapstructure:"lock_ttl"`
}

// BackupConfig controls the backup service of every opened document.
type BackupConfig struct {
	RestoreOnOpen bool `yaml:"restore_on_open" json:"restore_on_open" mapstructure:"restore_on_open"`
	OnClose       bool `yaml:"on_close" json:"on_close" mapstructure:"on_close"`
}

// HTTPConfig configures "gaphor serve".
type HTTPConfig struct {
	Addr            string        `yaml:"addr" json:"addr" mapstructure:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		Store: StoreConfig{
			Kind: StoreFile,
			Dir:  ".gaphor/backups",
			Redis: RedisConfig{
				Addr:    "localhost:6379",
				Prefix:  "gaphor:",
				LockTTL: 30 * time.Second,
			},
		},
		Backup: BackupConfig{
			RestoreOnOpen: true,
			OnClose:       true,
		},
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ShutdownTimeout: 5 * time.Second,
		},
	}
}

// Load reads a configuration file (YAML or JSON) over the defaults.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var raw map[string]any
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		err = json.Unmarshal(data, &raw)
	} else {
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}

	if err := decode(raw, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode merges raw onto cfg, so keys absent from the file keep their defaults.
func decode(raw map[string]any, cfg *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           cfg,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

// Validate checks enumerated values and limits.
func (c *Config) Validate() error {
	switch c.Store.Kind {
	case StoreNone, StoreMemory, StoreFile, StoreRedis:
	default:
		return fmt.Errorf("%w: unknown store kind %q", ErrInvalidConfig, c.Store.Kind)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.LogFormat)
	}
	if c.StackLimit < 0 {
		return fmt.Errorf("%w: stack_limit must not be negative", ErrInvalidConfig)
	}
	if c.Store.Kind == StoreFile && c.Store.Dir == "" {
		return fmt.Errorf("%w: file store needs a dir", ErrInvalidConfig)
	}
	if c.Store.EncryptionKey == "" && len(c.Store.FallbackKeys) > 0 {
		return fmt.Errorf("%w: fallback_keys need an encryption_key", ErrInvalidConfig)
	}
	if c.Store.Kind == StoreRedis && c.Store.Redis.Addr == "" {
		return fmt.Errorf("%w: redis store needs an addr", ErrInvalidConfig)
	}
	return nil
}
