package configuration

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"dario.cat/mergo"
	"github.com/pkg/errors"

	"github.com/malonaz/sessionsync/internal/file"
)

// DefaultPath of the configuration file.
const DefaultPath = "~/.config/sessionsync/config.json"

var defaultConfig = Config{
	Database:        "~/.config/sessionsync/sessions.db",
	LegacyDirectory: "~/.config/sessionsync/legacy",
	CredentialsFile: "~/.config/sessionsync/credentials.json",
	MaxSessions:     50,
	RequestTimeout:  30,

	Logging: &LoggingConfig{
		Level:  "info",
		Format: "text",
	},
}

// Config holds configuration for the sessionsync tool.
type Config struct {
	// Path of the local session database.
	Database string `json:"database"`
	// Directory of the pre-database single conversation storage.
	LegacyDirectory string `json:"legacy_directory"`
	// Postgres connection string of the remote store. Empty disables it.
	PostgresDSN string `json:"postgres_dsn"`
	// File holding the signed-in identity.
	CredentialsFile string `json:"credentials_file"`
	// Number of sessions kept per store.
	MaxSessions int `json:"max_sessions"`
	// Timeout of a backend call, in seconds.
	RequestTimeout int `json:"request_timeout"`

	Logging *LoggingConfig `json:"logging"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// One of debug, info, warn, error.
	Level string `json:"level"`
	// One of text, json.
	Format string `json:"format"`
	// Log file. Empty logs to stderr.
	Path string `json:"path"`
}

// Timeout returns the request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// Parse a configuration file.
func Parse(path string) (*Config, error) {
	path, err := file.ExpandPath(path)
	if err != nil {
		return nil, errors.Wrap(err, "expanding path")
	}

	if err := initializeIfNotPresent(path); err != nil {
		return nil, errors.Wrap(err, "initializing configuration")
	}
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading file")
	}

	config := &Config{}
	if err = json.Unmarshal(bytes, config); err != nil {
		return nil, errors.Wrap(err, "unmarshaling into config")
	}
	if err := mergo.Merge(config, Default()); err != nil {
		return nil, errors.Wrap(err, "merging default config")
	}

	for _, p := range []*string{&config.Database, &config.LegacyDirectory, &config.CredentialsFile, &config.Logging.Path} {
		if *p == "" {
			continue
		}
		expanded, err := file.ExpandPath(*p)
		if err != nil {
			return nil, errors.Wrapf(err, "expanding path '%s'", *p)
		}
		*p = expanded
	}
	return config, nil
}

// Default returns a copy of the default configuration.
func Default() *Config {
	config := defaultConfig
	logging := *defaultConfig.Logging
	config.Logging = &logging
	return &config
}

// save a configuration file.
func (c *Config) save(path string) error {
	bytes, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshaling config")
	}

	if err := os.WriteFile(path, bytes, 0644); err != nil {
		return errors.Wrap(err, "writing file")
	}
	return nil
}

// initializeIfNotPresent initializes a config if it does not exist.
func initializeIfNotPresent(path string) error {
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}

	dir, _ := filepath.Split(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "creating folders")
	}

	if err := Default().save(path); err != nil {
		return errors.Wrap(err, "saving default config")
	}
	return nil
}
