package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Ingest   IngestConfig
	Classify ClassifyConfig
	Formats  FormatsConfig
	Archive  ArchiveConfig
	Log      LogConfig
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path       string
	Migrations string
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr           string
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes"`
}

// IngestConfig bounds a single statement import.
type IngestConfig struct {
	Timeout time.Duration
	MaxRows int `mapstructure:"max_rows"`
	Retries int
}

// ClassifyConfig points at an optional rule table.
type ClassifyConfig struct {
	RulesFile string `mapstructure:"rules_file"`
}

// FormatsConfig points at an optional file of custom statement formats.
type FormatsConfig struct {
	File string
}

// ArchiveConfig selects where raw uploads are kept. Bucket wins over Dir; both empty disables archiving.
type ArchiveConfig struct {
	Dir    string
	Bucket string
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level   string
	Console bool
}

// Load reads configuration from file and env. Env var overrides use prefix EXPENSETRACKER_.
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("toml")

	cfgPath := os.Getenv("EXPENSETRACKER_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "expensetracker"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("EXPENSETRACKER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		// a missing default config file is fine; an explicit one that fails to parse is not
		var notFound viper.ConfigFileNotFoundError
		if cfgPath != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "expensetracker", "expenses.db"))
	v.SetDefault("database.migrations", filepath.Join("internal", "database", "migrations"))
	v.SetDefault("server.addr", ":5000")
	v.SetDefault("server.max_upload_bytes", 10<<20)
	v.SetDefault("ingest.timeout", 30*time.Second)
	v.SetDefault("ingest.max_rows", 50000)
	v.SetDefault("ingest.retries", 3)
	v.SetDefault("classify.rules_file", "")
	v.SetDefault("formats.file", "")
	v.SetDefault("archive.dir", "")
	v.SetDefault("archive.bucket", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", true)
}

// Validate rejects settings the ingest pipeline cannot run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("config: database.path is required")
	}
	if c.Ingest.Timeout <= 0 {
		return fmt.Errorf("config: ingest.timeout must be positive, got %s", c.Ingest.Timeout)
	}
	if c.Ingest.MaxRows <= 0 {
		return fmt.Errorf("config: ingest.max_rows must be positive, got %d", c.Ingest.MaxRows)
	}
	if c.Ingest.Retries < 0 {
		return fmt.Errorf("config: ingest.retries must not be negative, got %d", c.Ingest.Retries)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("config: server.max_upload_bytes must be positive, got %d", c.Server.MaxUploadBytes)
	}
	return nil
}
