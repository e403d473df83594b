// Package config loads and validates the corrflux configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/qchemtools/corrflux/internal/pathutil"
)

// Cluster holds the connection and layout settings for the remote machine.
type Cluster struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password,omitempty"`
	KeyFile  string `yaml:"key_file,omitempty"`

	// ColonyDir is the persistent artifact area, ScratchDir the per-job
	// working area on the cluster filesystem.
	ColonyDir  string `yaml:"colony_dir"`
	ScratchDir string `yaml:"scratch_dir"`
}

// Config is the full tool configuration.
type Config struct {
	Cluster Cluster `yaml:"cluster"`

	// Database is the path of the local calculation registry.
	Database string `yaml:"database"`

	// ResultsDir is the local directory results are collected into.
	ResultsDir string `yaml:"results_dir"`

	// Workers bounds batch concurrency; Stagger delays successive task
	// launches to avoid connection bursts against the login node.
	Workers int           `yaml:"workers"`
	Stagger time.Duration `yaml:"stagger"`
}

// Default returns the configuration defaults applied before file values.
func Default() *Config {
	return &Config{
		Cluster: Cluster{
			Port: 22,
		},
		Database:   "calculations.db",
		ResultsDir: "results",
		Workers:    4,
		Stagger:    5 * time.Second,
	}
}

// Load reads a YAML configuration file on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	// Key file and results dir may use ~ notation in the file.
	if cfg.Cluster.KeyFile, err = pathutil.ExpandUser(cfg.Cluster.KeyFile); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if cfg.ResultsDir, err = pathutil.ExpandUser(cfg.ResultsDir); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the settings a run cannot proceed without.
func (c *Config) Validate() error {
	if c.Cluster.Host == "" {
		return fmt.Errorf("cluster.host is required")
	}
	if c.Cluster.User == "" {
		return fmt.Errorf("cluster.user is required")
	}
	if c.Cluster.Password == "" && c.Cluster.KeyFile == "" {
		return fmt.Errorf("cluster.password or cluster.key_file is required")
	}
	if c.Cluster.ColonyDir == "" || c.Cluster.ScratchDir == "" {
		return fmt.Errorf("cluster.colony_dir and cluster.scratch_dir are required")
	}
	if c.Cluster.Port <= 0 || c.Cluster.Port > 65535 {
		return fmt.Errorf("cluster.port %d out of range", c.Cluster.Port)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	if c.Stagger < 0 {
		return fmt.Errorf("stagger must not be negative")
	}
	return nil
}

// DatabasePath resolves the registry path relative to the config file
// location when it is not absolute.
func (c *Config) DatabasePath(configPath string) string {
	if filepath.IsAbs(c.Database) || configPath == "" {
		return c.Database
	}
	return filepath.Join(filepath.Dir(configPath), c.Database)
}
