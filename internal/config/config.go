package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

type DBConfig struct {
	Connection  string `yaml:"connection"`
	Database    string `yaml:"database"`
	Collections struct {
		Articles string `yaml:"articles"`
	} `yaml:"collections"`
}

type LogicConfig struct {
	TimeoutSec int `yaml:"timeout_sec"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type JobConfig struct {
	DB    DBConfig    `yaml:"db"`
	Logic LogicConfig `yaml:"logic"`
	Log   LogConfig   `yaml:"log"`
}

func Default() *JobConfig {
	cfg := &JobConfig{}
	cfg.DB.Connection = "mongodb://localhost:27017"
	cfg.DB.Database = "scotland"
	cfg.DB.Collections.Articles = "articles"
	cfg.Logic.TimeoutSec = 60
	cfg.Log.Level = "info"
	cfg.Log.Format = "console"
	return cfg
}

// LoadConfig reads path over the defaults and applies environment overrides.
// A missing file is not an error: the target database is usually picked by
// MONGO_URI alone.
func LoadConfig(path string) (*JobConfig, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *JobConfig) ApplyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv("MONGO_URI")); v != "" {
		c.DB.Connection = v
	}
	if v := strings.TrimSpace(getenv("MONGO_DATABASE")); v != "" {
		c.DB.Database = v
	}
	if v := strings.TrimSpace(getenv("MONGO_COLLECTION")); v != "" {
		c.DB.Collections.Articles = v
	}
}

func (c *JobConfig) Validate() error {
	switch {
	case c.DB.Connection == "":
		return errors.New("db.connection is empty")
	case c.DB.Database == "":
		return errors.New("db.database is empty")
	case c.DB.Collections.Articles == "":
		return errors.New("db.collections.articles is empty")
	case c.Logic.TimeoutSec < 0:
		return fmt.Errorf("logic.timeout_sec must not be negative, got %d", c.Logic.TimeoutSec)
	}
	return nil
}

// Timeout is the per-operation deadline; zero means none.
func (c *JobConfig) Timeout() time.Duration {
	return time.Duration(c.Logic.TimeoutSec) * time.Second
}
