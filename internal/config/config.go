// Package config loads the accrual engine's configuration from an
// optional YAML file, then layers environment variables on top, with a
// .env file (if present) pre-loaded into the environment for local dev.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the fully resolved process configuration.
type Config struct {
	Service  ServiceConfig  `yaml:"service"`
	Postgres PostgresConfig `yaml:"postgres"`
	Accrual  AccrualConfig  `yaml:"accrual"`
}

// ServiceConfig controls the HTTP listener.
type ServiceConfig struct {
	Name                string `yaml:"name"`
	HTTPAddr            string `yaml:"http_addr"`
	ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
	Environment         string `yaml:"environment"`
}

// PostgresConfig describes the connection pool to the store.
type PostgresConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Database       string `yaml:"database"`
	User           string `yaml:"user"`
	Password       string `yaml:"password"`
	SSLMode        string `yaml:"sslmode"`
	MaxOpenConns   int    `yaml:"max_open_conns"`
	MaxIdleConns   int    `yaml:"max_idle_conns"`
	ConnMaxLifeMin int    `yaml:"conn_max_lifetime_minutes"`
}

// AccrualConfig holds the few knobs the engine itself exposes beyond the
// fixed rates in domain.Split (those are not configurable; spec.md §4.1
// treats them as constants, not tunables).
type AccrualConfig struct {
	DefaultMaxLevels     int   `yaml:"default_max_levels"`
	DefaultLimitPerLevel int   `yaml:"default_limit_per_level"`
	DefaultBreakdownCap  int   `yaml:"default_breakdown_cap"`
	TreasuryUserID       int64 `yaml:"treasury_user_id"`
}

func defaults() Config {
	return Config{
		Service: ServiceConfig{
			Name:                "referral-accrual-engine",
			HTTPAddr:            ":8080",
			ReadTimeoutSeconds:  15,
			WriteTimeoutSeconds: 15,
			Environment:         "development",
		},
		Postgres: PostgresConfig{
			Host:           "localhost",
			Port:           5432,
			Database:       "referral_accrual",
			User:           "postgres",
			SSLMode:        "disable",
			MaxOpenConns:   20,
			MaxIdleConns:   5,
			ConnMaxLifeMin: 5,
		},
		Accrual: AccrualConfig{
			DefaultMaxLevels:     3,
			DefaultLimitPerLevel: 50,
			DefaultBreakdownCap:  50,
		},
	}
}

// Load builds a Config starting from built-in defaults, applying a YAML
// file at path if it exists, then overriding with environment variables.
// A .env file in the working directory, if present, is loaded into the
// process environment first so its values participate in the override
// pass (grounded in the gateway service's config.Load pattern).
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("SERVICE_NAME"); v != "" {
		cfg.Service.Name = v
	}
	if v := os.Getenv("HTTP_PORT"); v != "" {
		cfg.Service.HTTPAddr = ":" + v
	}
	if v := os.Getenv("ENVIRONMENT"); v != "" {
		cfg.Service.Environment = v
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		parsed, err := parseDatabaseURL(v, cfg.Postgres)
		if err != nil {
			return fmt.Errorf("invalid DATABASE_URL: %w", err)
		}
		cfg.Postgres = parsed
	}
	if v := os.Getenv("PGHOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("PGPORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PGPORT: %w", err)
		}
		cfg.Postgres.Port = port
	}
	if v := os.Getenv("PGDATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("PGUSER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("PGPASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("PGSSLMODE"); v != "" {
		cfg.Postgres.SSLMode = v
	}

	if v := os.Getenv("DEFAULT_MAX_LEVELS"); v != "" {
		levels, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid DEFAULT_MAX_LEVELS: %w", err)
		}
		cfg.Accrual.DefaultMaxLevels = levels
	}
	if v := os.Getenv("TREASURY_USER_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TREASURY_USER_ID: %w", err)
		}
		cfg.Accrual.TreasuryUserID = id
	}

	return nil
}

// parseDatabaseURL parses a postgres:// connection URL into the discrete
// PostgresConfig fields, preserving whatever the existing config already
// set for any piece the URL omits.
func parseDatabaseURL(raw string, base PostgresConfig) (PostgresConfig, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return PostgresConfig{}, err
	}

	cfg := base
	if host := u.Hostname(); host != "" {
		cfg.Host = host
	}
	if db := strings.TrimPrefix(u.Path, "/"); db != "" {
		cfg.Database = db
	}
	if u.User != nil {
		cfg.User = u.User.Username()
		if pw, ok := u.User.Password(); ok {
			cfg.Password = pw
		}
	}
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return PostgresConfig{}, fmt.Errorf("invalid port: %w", err)
		}
		cfg.Port = port
	}
	if mode := u.Query().Get("sslmode"); mode != "" {
		cfg.SSLMode = mode
	}
	return cfg, nil
}

// DSN renders the libpq connection string lib/pq expects.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		p.Host, p.Port, p.Database, p.User, p.Password, p.SSLMode,
	)
}

// RedactedDSN is DSN with the password masked, safe to put in logs.
func (p PostgresConfig) RedactedDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=*** sslmode=%s",
		p.Host, p.Port, p.Database, p.User, p.SSLMode,
	)
}

// ConnMaxLifetime returns the configured lifetime as a time.Duration.
func (p PostgresConfig) ConnMaxLifetime() time.Duration {
	return time.Duration(p.ConnMaxLifeMin) * time.Minute
}
