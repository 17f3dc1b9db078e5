package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/alexanderjulianmartinez/schema-track/internal/filter"
)

type Config struct {
	Source          SourceConfig  `yaml:"source"`
	History         HistoryConfig `yaml:"history"`
	Filters         filter.Config `yaml:"filters"`
	CaseInsensitive bool          `yaml:"caseInsensitive"`
}

// SourceConfig points at the live MySQL server used for snapshot
// seeding and drift verification. Optional: apply and replay work
// without a live connection.
type SourceConfig struct {
	Type string `yaml:"type"`
	DSN  string `yaml:"dsn"`
}

type HistoryConfig struct {
	Type               string   `yaml:"type"` // file, kafka, or memory
	Path               string   `yaml:"path"`
	Brokers            []string `yaml:"brokers"`
	Topic              string   `yaml:"topic"`
	StoreOnlyMonitored bool     `yaml:"storeOnlyMonitored"`
	SkipUnparseable    bool     `yaml:"skipUnparseable"`
}

func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is required")
	}

	_, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.History.Type {
	case "file":
		if c.History.Path == "" {
			return errors.New("history.path is required for file history")
		}
	case "kafka":
		if len(c.History.Brokers) == 0 {
			return errors.New("history.brokers is required for kafka history")
		}
		if c.History.Topic == "" {
			return errors.New("history.topic is required for kafka history")
		}
	case "memory":
	case "":
		return errors.New("history.type is required")
	default:
		return fmt.Errorf("history.type must be file, kafka, or memory, got %q", c.History.Type)
	}

	if c.Source.Type != "" {
		if c.Source.Type != "mysql" {
			return errors.New("source.type must be mysql")
		}
		if c.Source.DSN == "" {
			return errors.New("source.dsn is required")
		}
	}
	return nil
}
