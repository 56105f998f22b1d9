// Package config loads the relstore CLI configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/relstore/internal/logging"
	"github.com/aretw0/relstore/pkg/schema"
)

// Backend names a ports.KV adapter.
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendFile     Backend = "file"
	BackendRedis    Backend = "redis"
	BackendSQLite   Backend = "sqlite"
	BackendDynamoDB Backend = "dynamodb"
)

// Backends lists the supported adapters.
func Backends() []Backend {
	return []Backend{BackendMemory, BackendFile, BackendRedis, BackendSQLite, BackendDynamoDB}
}

// Config holds configuration for the CLI and its servers.
type Config struct {
	// Backend selects the storage adapter.
	// Default: "file"
	Backend Backend `yaml:"backend"`

	// Namespace is the first segment of every storage key.
	// Default: "relstore"
	Namespace string `yaml:"namespace"`

	// Schema is the path of the YAML or JSON schema file.
	Schema string `yaml:"schema"`

	// LogLevel is one of debug, info, warn or error.
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// DefaultPolicy is "absent" or "falsy".
	// Default: "absent"
	DefaultPolicy string `yaml:"default_policy"`

	// IDVersion is the UUID version of new ids, 4 or 7.
	// Default: 4
	IDVersion int `yaml:"id_version"`

	File       FileConfig       `yaml:"file"`
	Redis      RedisConfig      `yaml:"redis"`
	SQLite     SQLiteConfig     `yaml:"sqlite"`
	DynamoDB   DynamoDBConfig   `yaml:"dynamodb"`
	Encryption EncryptionConfig `yaml:"encryption"`
	HTTP       HTTPConfig       `yaml:"http"`
}

type FileConfig struct {
	// Default: ".relstore/data"
	Path string `yaml:"path"`
}

type RedisConfig struct {
	// Default: "localhost:6379"
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
	// TTL expires table blobs after their last write. Zero keeps them forever.
	TTL time.Duration `yaml:"ttl"`
}

type SQLiteConfig struct {
	// Default: ".relstore/relstore.db"
	Path string `yaml:"path"`
	// Default: "relstore_kv"
	Table string `yaml:"table"`
}

type DynamoDBConfig struct {
	Region string `yaml:"region"`
	// Endpoint overrides the service URL, e.g. for DynamoDB Local.
	Endpoint string `yaml:"endpoint"`
	// Default: "relstore_kv"
	Table string `yaml:"table"`
}

// EncryptionConfig holds hex encoded AES-256 keys. Encryption is off when Key is empty.
type EncryptionConfig struct {
	Key            string   `yaml:"key"`
	FallbackKeys   []string `yaml:"fallback_keys"`
	AllowPlaintext bool     `yaml:"allow_plaintext"`
}

// Enabled reports whether blobs are encrypted.
func (e EncryptionConfig) Enabled() bool { return strings.TrimSpace(e.Key) != "" }

type HTTPConfig struct {
	// Default: ":8080"
	Addr string `yaml:"addr"`
}

// DefaultConfig returns settings for a local file backed store.
func DefaultConfig() Config {
	return Config{
		Backend:       BackendFile,
		Namespace:     "relstore",
		LogLevel:      "info",
		DefaultPolicy: "absent",
		IDVersion:     4,
		File:          FileConfig{Path: ".relstore/data"},
		Redis:         RedisConfig{Addr: "localhost:6379"},
		SQLite:        SQLiteConfig{Path: ".relstore/relstore.db", Table: "relstore_kv"},
		DynamoDB:      DynamoDBConfig{Table: "relstore_kv"},
		HTTP:          HTTPConfig{Addr: ":8080"},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate fills unset values with defaults, clamps numbers into range and rejects
// unknown enumerations.
func (c *Config) Validate() error {
	c.normalize()

	var errs []error
	if !c.Backend.valid() {
		errs = append(errs, fmt.Errorf("unknown backend %q", c.Backend))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if _, err := schema.ParseDefaultPolicy(c.DefaultPolicy); err != nil {
		errs = append(errs, err)
	}
	if strings.Contains(c.Namespace, schema.KeySeparator) {
		errs = append(errs, fmt.Errorf("namespace %q must not contain %q", c.Namespace, schema.KeySeparator))
	}
	return errors.Join(errs...)
}

func (c *Config) normalize() {
	def := DefaultConfig()

	c.Backend = Backend(strings.ToLower(strings.TrimSpace(string(c.Backend))))
	if c.Backend == "" {
		c.Backend = def.Backend
	}
	if c.Namespace == "" {
		c.Namespace = def.Namespace
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.DefaultPolicy == "" {
		c.DefaultPolicy = def.DefaultPolicy
	}
	if c.IDVersion != 7 {
		c.IDVersion = 4
	}
	if c.File.Path == "" {
		c.File.Path = def.File.Path
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = def.Redis.Addr
	}
	if c.Redis.DB < 0 {
		c.Redis.DB = 0
	}
	if c.Redis.DB > 15 {
		c.Redis.DB = 15
	}
	if c.Redis.TTL < 0 {
		c.Redis.TTL = 0
	}
	if c.SQLite.Path == "" {
		c.SQLite.Path = def.SQLite.Path
	}
	if c.SQLite.Table == "" {
		c.SQLite.Table = def.SQLite.Table
	}
	if c.DynamoDB.Table == "" {
		c.DynamoDB.Table = def.DynamoDB.Table
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = def.HTTP.Addr
	}
}

func (b Backend) valid() bool {
	for _, known := range Backends() {
		if b == known {
			return true
		}
	}
	return false
}
