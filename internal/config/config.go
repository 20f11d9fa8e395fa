// Package config loads scorecard configuration from YAML with sensible
// defaults. SMTP credentials come from the environment (optionally a .env
// file loaded in cmd) so they never land in config files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// SMTPConfig holds the mail endpoint. Username/password are filled from the
// SMTP_USERNAME / SMTP_PASSWORD environment variables, not from YAML.
type SMTPConfig struct {
	// Host is the SMTP server hostname.
	Host string `yaml:"host"`

	// Port is the SMTP server port.
	Port int `yaml:"port"`

	// From is the sender address on outgoing reports.
	From string `yaml:"from"`

	Username string `yaml:"-"`
	Password string `yaml:"-"`
}

// DeliveryConfig tunes the dispatcher.
type DeliveryConfig struct {
	// Timeout bounds each recipient's delivery attempt.
	Timeout time.Duration `yaml:"timeout"`

	// MaxConcurrent bounds concurrent attempts (0 = one per recipient).
	MaxConcurrent int `yaml:"max_concurrent"`

	// AdminRecipients always receive the coach report for every
	// dispatched run.
	AdminRecipients []string `yaml:"admin_recipients"`
}

// WatchConfig tunes the inbox watcher mode.
type WatchConfig struct {
	// InboxDir is the directory watched for completed-run export files.
	InboxDir string `yaml:"inbox_dir"`

	// Pattern is the filename glob the watcher reacts to.
	Pattern string `yaml:"pattern"`

	// DebounceDelay coalesces rapid writes to the same file.
	DebounceDelay time.Duration `yaml:"debounce_delay"`
}

// Config represents scorecard configuration options.
type Config struct {
	// DBPath is the path to the assessment run database.
	DBPath string `yaml:"db_path"`

	// CatalogDir overlays catalogs over the built-in ones.
	CatalogDir string `yaml:"catalog_dir"`

	// LogLevel sets logging verbosity (trace, debug, info, warn, error).
	LogLevel string `yaml:"log_level"`

	// ClientTopN overrides how many top patterns the client report shows
	// (0 = per-catalog default).
	ClientTopN int `yaml:"client_top_n"`

	SMTP     SMTPConfig     `yaml:"smtp"`
	Delivery DeliveryConfig `yaml:"delivery"`
	Watch    WatchConfig    `yaml:"watch"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		DBPath:     ".scorecard/runs.db",
		CatalogDir: "",
		LogLevel:   "info",
		ClientTopN: 0,
		SMTP: SMTPConfig{
			Host: "localhost",
			Port: 587,
			From: "reports@brainworx.example",
		},
		Delivery: DeliveryConfig{
			Timeout:       30 * time.Second,
			MaxConcurrent: 4,
		},
		Watch: WatchConfig{
			InboxDir:      ".scorecard/inbox",
			Pattern:       "*.json",
			DebounceDelay: 500 * time.Millisecond,
		},
	}
}

// Load reads the config file at path over the defaults. A missing file is
// fine: defaults plus environment apply.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays environment variables: credentials always, endpoint
// fields only when set.
func (c *Config) applyEnv() {
	if v := os.Getenv("SMTP_HOST"); v != "" {
		c.SMTP.Host = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.SMTP.Port = port
		}
	}
	if v := os.Getenv("SMTP_FROM"); v != "" {
		c.SMTP.From = v
	}
	c.SMTP.Username = os.Getenv("SMTP_USERNAME")
	c.SMTP.Password = os.Getenv("SMTP_PASSWORD")
}

// Validate checks option sanity.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db_path must not be empty")
	}
	if c.SMTP.Port <= 0 || c.SMTP.Port > 65535 {
		return fmt.Errorf("smtp port %d out of range", c.SMTP.Port)
	}
	if c.Delivery.Timeout < 0 {
		return fmt.Errorf("delivery timeout must not be negative")
	}
	if c.ClientTopN < 0 {
		return fmt.Errorf("client_top_n must not be negative")
	}
	return nil
}
