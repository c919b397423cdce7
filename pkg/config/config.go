// Package config loads graphkit configuration from a YAML file and
// environment variables.
//
// Configuration is resolved in three layers, later layers winning:
//   - Built-in defaults (DefaultConfig)
//   - An optional YAML file
//   - GRAPHKIT_* environment variables
//
// Example Usage:
//
//	cfg, err := config.Load("./graphkit.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//		log.Fatalf("Invalid config: %v", err)
//	}
//
//	engine, err := storage.Open(cfg.StorageOptions(logger))
//
// Environment Variables:
//
// Storage:
//   - GRAPHKIT_ENGINE="memory", "badger" or "neo4j"
//   - GRAPHKIT_DATA_DIR="./data"
//   - GRAPHKIT_IN_MEMORY=false
//   - GRAPHKIT_SYNC_WRITES=false
//   - GRAPHKIT_LOW_MEMORY=false
//
// Neo4j:
//   - GRAPHKIT_NEO4J_URI="neo4j://localhost:7687"
//   - GRAPHKIT_NEO4J_USER="neo4j"
//   - GRAPHKIT_NEO4J_PASSWORD=""
//   - GRAPHKIT_NEO4J_DATABASE=""
//   - GRAPHKIT_NEO4J_TIMEOUT=30s
//
// Logging:
//   - GRAPHKIT_LOG_LEVEL="info"
//   - GRAPHKIT_LOG_FORMAT="console" or "json"
//   - GRAPHKIT_LOG_FILE="" (stderr when empty)
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/orneryd/graphkit/pkg/storage"
)

// Config holds all graphkit configuration.
//
// Configuration is organized into sections:
//   - Storage: which engine to open and its local settings
//   - Neo4j: connection settings for the neo4j engine
//   - Logging: level, encoding and optional rotated log file
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Neo4j   Neo4jConfig   `yaml:"neo4j"`
	Logging LoggingConfig `yaml:"logging"`
}

// StorageConfig selects the engine.
type StorageConfig struct {
	// Engine is "memory", "badger" or "neo4j"
	Engine string `yaml:"engine"`
	// DataDir for the badger engine
	DataDir string `yaml:"data_dir"`
	// InMemory runs badger without touching disk
	InMemory bool `yaml:"in_memory"`
	// SyncWrites fsyncs every badger write
	SyncWrites bool `yaml:"sync_writes"`
	// LowMemory shrinks badger's caches and tables
	LowMemory bool `yaml:"low_memory"`
}

// Neo4jConfig holds Neo4j connection settings.
type Neo4jConfig struct {
	URI      string        `yaml:"uri"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	Database string        `yaml:"database"`
	Timeout  time.Duration `yaml:"timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level (debug, info, warn, error)
	Level string `yaml:"level"`
	// Format (console, json)
	Format string `yaml:"format"`
	// File path; empty logs to stderr
	File string `yaml:"file"`
	// Rotation settings, used only when File is set
	MaxSizeMB  int  `yaml:"max_size_mb"`
	MaxBackups int  `yaml:"max_backups"`
	MaxAgeDays int  `yaml:"max_age_days"`
	Compress   bool `yaml:"compress"`
}

// DefaultConfig returns the configuration used when nothing is set: an
// in-memory engine and info-level console logging.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Engine:  storage.EngineMemory,
			DataDir: "./data",
		},
		Neo4j: Neo4jConfig{
			URI:      "neo4j://localhost:7687",
			Username: "neo4j",
			Timeout:  30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty), and the environment.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overrides c with any GRAPHKIT_* environment variables that are
// set. Unparseable numeric and duration values are ignored.
func (c *Config) ApplyEnv() {
	c.Storage.Engine = getEnv("GRAPHKIT_ENGINE", c.Storage.Engine)
	c.Storage.DataDir = getEnv("GRAPHKIT_DATA_DIR", c.Storage.DataDir)
	c.Storage.InMemory = getEnvBool("GRAPHKIT_IN_MEMORY", c.Storage.InMemory)
	c.Storage.SyncWrites = getEnvBool("GRAPHKIT_SYNC_WRITES", c.Storage.SyncWrites)
	c.Storage.LowMemory = getEnvBool("GRAPHKIT_LOW_MEMORY", c.Storage.LowMemory)

	c.Neo4j.URI = getEnv("GRAPHKIT_NEO4J_URI", c.Neo4j.URI)
	c.Neo4j.Username = getEnv("GRAPHKIT_NEO4J_USER", c.Neo4j.Username)
	c.Neo4j.Password = getEnv("GRAPHKIT_NEO4J_PASSWORD", c.Neo4j.Password)
	c.Neo4j.Database = getEnv("GRAPHKIT_NEO4J_DATABASE", c.Neo4j.Database)
	c.Neo4j.Timeout = getEnvDuration("GRAPHKIT_NEO4J_TIMEOUT", c.Neo4j.Timeout)

	c.Logging.Level = getEnv("GRAPHKIT_LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnv("GRAPHKIT_LOG_FORMAT", c.Logging.Format)
	c.Logging.File = getEnv("GRAPHKIT_LOG_FILE", c.Logging.File)
}

// Validate checks the configuration for invalid values.
//
// This method checks:
//   - Engine is a known kind; empty selects memory, as storage.Open does
//   - Badger has a data directory unless it runs in memory
//   - Neo4j has a URI and a positive timeout
//   - Log level and format are recognized
func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Storage.Engine)) {
	case "", storage.EngineMemory:
	case storage.EngineBadger:
		if !c.Storage.InMemory && c.Storage.DataDir == "" {
			return fmt.Errorf("badger engine requires a data directory or in-memory mode")
		}
	case storage.EngineNeo4j:
		if c.Neo4j.URI == "" {
			return fmt.Errorf("neo4j engine requires a uri")
		}
		if c.Neo4j.Timeout <= 0 {
			return fmt.Errorf("invalid neo4j timeout: %s", c.Neo4j.Timeout)
		}
	default:
		return fmt.Errorf("invalid storage engine: %q", c.Storage.Engine)
	}

	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid log level: %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log format: %q", c.Logging.Format)
	}
	return nil
}

// String returns a representation safe for logging. The Neo4j password is
// never included.
func (c *Config) String() string {
	switch strings.ToLower(strings.TrimSpace(c.Storage.Engine)) {
	case storage.EngineNeo4j:
		return fmt.Sprintf("Config{Engine: neo4j, URI: %s, User: %s, Database: %s, Log: %s/%s}",
			c.Neo4j.URI, c.Neo4j.Username, c.Neo4j.Database, c.Logging.Level, c.Logging.Format)
	case storage.EngineBadger:
		return fmt.Sprintf("Config{Engine: badger, DataDir: %s, InMemory: %v, Log: %s/%s}",
			c.Storage.DataDir, c.Storage.InMemory, c.Logging.Level, c.Logging.Format)
	}
	return fmt.Sprintf("Config{Engine: %s, Log: %s/%s}", c.Storage.Engine, c.Logging.Level, c.Logging.Format)
}

// StorageOptions maps the configuration onto storage.Options.
func (c *Config) StorageOptions(logger *zap.Logger) storage.Options {
	return storage.Options{
		Engine: c.Storage.Engine,
		Badger: storage.BadgerOptions{
			DataDir:    c.Storage.DataDir,
			InMemory:   c.Storage.InMemory,
			SyncWrites: c.Storage.SyncWrites,
			LowMemory:  c.Storage.LowMemory,
		},
		Neo4j: storage.Neo4jOptions{
			URI:      c.Neo4j.URI,
			Username: c.Neo4j.Username,
			Password: c.Neo4j.Password,
			Database: c.Neo4j.Database,
			Timeout:  c.Neo4j.Timeout,
		},
		Logger: logger,
	}
}

// Helper functions for environment variable parsing

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		// Try parsing as seconds
		if secs, err := strconv.Atoi(val); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultVal
}

// ExampleConfigYAML is a complete configuration file with every key set.
const ExampleConfigYAML = `# graphkit configuration
storage:
  engine: badger        # memory, badger or neo4j
  data_dir: ./data
  in_memory: false
  sync_writes: false
  low_memory: false

neo4j:
  uri: neo4j://localhost:7687
  username: neo4j
  password: secret
  database: ""
  timeout: 30s

logging:
  level: info           # debug, info, warn, error
  format: console       # console or json
  file: ""              # empty logs to stderr
  max_size_mb: 100
  max_backups: 3
  max_age_days: 28
  compress: false
`
