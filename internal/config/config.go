// Package config provides configuration management for the Warden
// authentication server. Configuration can be loaded from YAML files
// and environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Session SessionConfig `mapstructure:"session"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Audit   AuditConfig   `mapstructure:"audit"`
	Export  ExportConfig  `mapstructure:"export"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// ServerConfig holds TCP server settings.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxLineBytes    int           `mapstructure:"max_line_bytes"`
}

// Addr returns the listen address in host:port format.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SessionConfig holds session lifecycle settings.
type SessionConfig struct {
	// Store selects the session backend: "memory" or "redis".
	Store string `mapstructure:"store"`

	// TTL is the lifetime of an issued session.
	TTL time.Duration `mapstructure:"ttl"`

	// SweepInterval is how often expired sessions are removed.
	SweepInterval time.Duration `mapstructure:"sweep_interval"`

	// ReconcileInterval is how often users with expired sessions are
	// flipped back to unauthenticated.
	ReconcileInterval time.Duration `mapstructure:"reconcile_interval"`
}

// RedisConfig holds Redis connection settings, used when the session
// store is "redis".
type RedisConfig struct {
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	PoolSize    int           `mapstructure:"pool_size"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

// Addr returns the Redis address in host:port format.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// AuditConfig holds audit trail settings.
type AuditConfig struct {
	// Enabled determines if audit events are recorded.
	Enabled bool `mapstructure:"enabled"`

	// Path is the audit log file.
	Path string `mapstructure:"path"`

	// BufferSize is the capacity of the async event queue.
	BufferSize int `mapstructure:"buffer_size"`

	// DropIfFull drops events instead of blocking command handling
	// when the queue is full.
	DropIfFull bool `mapstructure:"drop_if_full"`
}

// ExportConfig holds database export settings.
type ExportConfig struct {
	// Backend selects the export destination: "file" or "s3".
	Backend string `mapstructure:"backend"`

	// Path is the output file for the file backend.
	Path string `mapstructure:"path"`

	// EncryptionKey is the hex-encoded 32-byte key used for AES-256-GCM
	// encryption of credential hashes in exports.
	EncryptionKey string `mapstructure:"encryption_key"`

	S3 S3ExportConfig `mapstructure:"s3"`
}

// S3ExportConfig holds S3 export backend settings.
type S3ExportConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	KeyPrefix       string `mapstructure:"key_prefix"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	// Enabled determines if the ops HTTP server runs.
	Enabled bool `mapstructure:"enabled"`

	// Port is the port for the ops HTTP server.
	Port int `mapstructure:"port"`

	// Path is the URL path for the metrics endpoint.
	Path string `mapstructure:"path"`
}

// Load reads configuration from the specified file and environment variables.
// Environment variables take precedence over file values.
// Environment variables are prefixed with WARDEN_ and use _ as separator.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("WARDEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/warden")
	}

	// Config file is optional, environment variables can stand alone.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 4444)
	v.SetDefault("server.read_timeout", 5*time.Minute)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.max_line_bytes", 64*1024)

	// Session defaults
	v.SetDefault("session.store", "memory")
	v.SetDefault("session.ttl", 5*time.Minute)
	v.SetDefault("session.sweep_interval", time.Minute)
	v.SetDefault("session.reconcile_interval", time.Minute)

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", 5*time.Second)

	// Audit defaults
	v.SetDefault("audit.enabled", true)
	v.SetDefault("audit.path", "./data/audit.jsonl")
	v.SetDefault("audit.buffer_size", 1024)
	v.SetDefault("audit.drop_if_full", true)

	// Export defaults
	v.SetDefault("export.backend", "file")
	v.SetDefault("export.path", "./data/database.jsonl")
	v.SetDefault("export.encryption_key", "") // Must be provided
	v.SetDefault("export.s3.region", "us-east-1")
	v.SetDefault("export.s3.key_prefix", "exports/")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9091)
	v.SetDefault("metrics.path", "/metrics")
}

// Validate checks the configuration for required values and valid ranges.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	validStores := map[string]bool{"memory": true, "redis": true}
	if !validStores[c.Session.Store] {
		return fmt.Errorf("session.store must be 'memory' or 'redis'")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be positive")
	}
	if c.Session.Store == "redis" && c.Redis.Host == "" {
		return fmt.Errorf("redis.host is required for redis session store")
	}

	if c.Audit.Enabled && c.Audit.Path == "" {
		return fmt.Errorf("audit.path is required when audit is enabled")
	}

	validBackends := map[string]bool{"file": true, "s3": true}
	if !validBackends[c.Export.Backend] {
		return fmt.Errorf("export.backend must be 'file' or 's3'")
	}
	if c.Export.Backend == "file" && c.Export.Path == "" {
		return fmt.Errorf("export.path is required for file backend")
	}
	if c.Export.Backend == "s3" && c.Export.S3.Bucket == "" {
		return fmt.Errorf("export.s3.bucket is required for s3 backend")
	}
	if c.Export.EncryptionKey != "" && len(c.Export.EncryptionKey) != 64 {
		return fmt.Errorf("export.encryption_key must be 64 hex characters")
	}

	validLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be one of: trace, debug, info, warn, error, fatal, panic")
	}

	return nil
}

// MustLoad loads configuration or panics on error.
// Useful for main function initialization.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}
