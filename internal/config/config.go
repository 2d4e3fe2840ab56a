// Package config loads the charsheet service configuration.
package config

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/aretw0/charsheet/pkg/adapters/file"
	"github.com/aretw0/charsheet/pkg/adapters/memory"
	"github.com/aretw0/charsheet/pkg/adapters/redis"
	"github.com/aretw0/charsheet/pkg/persistence/middleware"
	"github.com/aretw0/charsheet/pkg/ports"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the top level of charsheet.yaml.
type Config struct {
	LogLevel string      `yaml:"log_level" json:"log_level"`
	Page     string      `yaml:"page" json:"page"`
	HTTP     HTTPConfig  `yaml:"http" json:"http"`
	Store    StoreConfig `yaml:"store" json:"store"`
}

// HTTPConfig configures the serve command.
type HTTPConfig struct {
	Port int `yaml:"port" json:"port"`
}

// StoreConfig selects and configures the document store.
type StoreConfig struct {
	Backend string      `yaml:"backend" json:"backend"`
	Dir     string      `yaml:"dir" json:"dir"`
	Redis   RedisConfig `yaml:"redis" json:"redis"`

	// EncryptionKey is a hex encoded 32 byte AES key. Empty disables encryption.
	EncryptionKey string `yaml:"encryption_key" json:"encryption_key"`
	// FallbackKeys decrypt records written before a key rotation.
	FallbackKeys []string `yaml:"fallback_keys" json:"fallback_keys"`
	// PII lists key patterns whose values are masked before saving.
	PII []string `yaml:"pii" json:"pii"`
}

// RedisConfig holds the redis connection settings.
// TTL accepts Go duration strings such as "24h" in YAML.
type RedisConfig struct {
	Addr     string        `yaml:"addr" json:"addr"`
	Password string        `yaml:"password" json:"password"`
	DB       int           `yaml:"db" json:"db"`
	Prefix   string        `yaml:"prefix" json:"prefix"`
	TTL      time.Duration `yaml:"ttl" json:"ttl"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		HTTP:     HTTPConfig{Port: 8080},
		Store: StoreConfig{
			Backend: BackendMemory,
			Redis:   RedisConfig{Addr: "localhost:6379"},
		},
	}
}

// Load reads a YAML or JSON file over the defaults.
// A missing file is not an error.
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

	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values Load cannot type-check.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "", BackendMemory, BackendFile, BackendRedis:
	default:
		return fmt.Errorf("%w: unknown store backend %q", ErrInvalidConfig, c.Store.Backend)
	}
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("%w: http port %d out of range", ErrInvalidConfig, c.HTTP.Port)
	}
	for _, p := range c.Store.PII {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("%w: pii pattern %q: %v", ErrInvalidConfig, p, err)
		}
	}
	if _, err := c.Store.keys(); err != nil {
		return err
	}
	return nil
}

func (s StoreConfig) keys() (middleware.EncryptionConfig, error) {
	var cfg middleware.EncryptionConfig
	if s.EncryptionKey == "" {
		return cfg, nil
	}
	active, err := decodeKey(s.EncryptionKey)
	if err != nil {
		return cfg, err
	}
	cfg.ActiveKey = active
	for _, k := range s.FallbackKeys {
		fb, err := decodeKey(k)
		if err != nil {
			return cfg, err
		}
		cfg.FallbackKeys = append(cfg.FallbackKeys, fb)
	}
	return cfg, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: encryption key is not hex: %v", ErrInvalidConfig, err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("%w: encryption key must be 32 bytes, got %d", ErrInvalidConfig, len(key))
	}
	return key, nil
}

// BuildStore opens the configured backend and wraps it with the PII and
// encryption middleware. Masking runs before sealing.
func (c *Config) BuildStore() (ports.DocumentStore, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var base ports.DocumentStore
	switch c.Store.Backend {
	case BackendFile:
		base = file.New(c.Store.Dir)
	case BackendRedis:
		var opts []redis.Option
		if c.Store.Redis.Prefix != "" {
			opts = append(opts, redis.WithPrefix(c.Store.Redis.Prefix))
		}
		if c.Store.Redis.TTL > 0 {
			opts = append(opts, redis.WithTTL(c.Store.Redis.TTL))
		}
		r := c.Store.Redis
		base = redis.New(r.Addr, r.Password, r.DB, opts...)
	default:
		base = memory.NewStore()
	}

	keys, _ := c.Store.keys()

	var mws []middleware.Middleware
	if len(c.Store.PII) > 0 {
		mws = append(mws, middleware.NewPIIMiddleware(c.Store.PII))
	}
	if keys.ActiveKey != nil {
		mws = append(mws, middleware.NewEncryptionMiddleware(keys))
	}
	return middleware.Chain(base, mws...), nil
}

// LoadPage reads the configured HTML page. An empty path yields "".
func (c *Config) LoadPage() (string, error) {
	if c.Page == "" {
		return "", nil
	}
	data, err := os.ReadFile(c.Page)
	if err != nil {
		return "", fmt.Errorf("failed to read page: %w", err)
	}
	return string(data), nil
}
