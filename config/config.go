package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ridoystarlord/schemalock/chain"
	"github.com/ridoystarlord/schemalock/lockfile"
	"github.com/ridoystarlord/schemalock/utils"
)

const DefaultFile = "schemalock.yaml"

type Config struct {
	SchemasDir    string        `yaml:"schemasDir"`
	LockFile      string        `yaml:"lockFile"`
	ChainFile     string        `yaml:"chainFile"`
	Driver        string        `yaml:"driver"`
	MigrationsDir string        `yaml:"migrationsDir"`
	Environment   string        `yaml:"environment"`
	StaleAfter    time.Duration `yaml:"staleAfter"`
	LogLevel      string        `yaml:"logLevel"`
	LogFormat     string        `yaml:"logFormat"`
}

func Default() *Config {
	return &Config{
		SchemasDir:    "schemas",
		LockFile:      lockfile.FileName,
		ChainFile:     chain.FileName,
		Driver:        "mysql",
		MigrationsDir: "database/migrations",
		Environment:   "production",
		StaleAfter:    lockfile.DefaultStaleAfter,
		LogLevel:      "info",
		LogFormat:     "text",
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (a missing file is not an error), then .env and SCHEMALOCK_* variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	utils.LoadEnv()
	cfg.SchemasDir = utils.Getenv("SCHEMALOCK_SCHEMAS_DIR", cfg.SchemasDir)
	cfg.LockFile = utils.Getenv("SCHEMALOCK_LOCK_FILE", cfg.LockFile)
	cfg.ChainFile = utils.Getenv("SCHEMALOCK_CHAIN_FILE", cfg.ChainFile)
	cfg.Driver = utils.Getenv("SCHEMALOCK_DRIVER", cfg.Driver)
	cfg.MigrationsDir = utils.Getenv("SCHEMALOCK_MIGRATIONS_DIR", cfg.MigrationsDir)
	cfg.Environment = utils.Getenv("SCHEMALOCK_ENVIRONMENT", cfg.Environment)
	cfg.LogLevel = utils.Getenv("SCHEMALOCK_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = utils.Getenv("SCHEMALOCK_LOG_FORMAT", cfg.LogFormat)
	if v := utils.Getenv("SCHEMALOCK_STALE_AFTER", ""); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("SCHEMALOCK_STALE_AFTER: %w", err)
		}
		cfg.StaleAfter = d
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.SchemasDir == "" {
		return errors.New("schemasDir must not be empty")
	}
	if c.LockFile == "" {
		return errors.New("lockFile must not be empty")
	}
	if c.ChainFile == "" {
		return errors.New("chainFile must not be empty")
	}
	if c.StaleAfter < 0 {
		return errors.New("staleAfter must not be negative")
	}
	return nil
}
