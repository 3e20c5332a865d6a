package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port string `yaml:"port" env:"SERVER_PORT"`
		Mode string `yaml:"mode" env:"SERVER_MODE"`
	} `yaml:"server"`

	Database struct {
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
	} `yaml:"database"`

	Session struct {
		Secret      string `yaml:"secret" env:"SESSION_SECRET"`
		CookieName  string `yaml:"cookie_name" env:"SESSION_COOKIE_NAME"`
		TTL         string `yaml:"ttl" env:"SESSION_TTL"`
		MaxLifetime string `yaml:"max_lifetime" env:"SESSION_MAX_LIFETIME"`
	} `yaml:"session"`

	SMTP struct {
		Host      string `yaml:"host" env:"SMTP_HOST"`
		Port      int    `yaml:"port" env:"SMTP_PORT"`
		Username  string `yaml:"username" env:"SMTP_USERNAME"`
		Password  string `yaml:"password" env:"SMTP_PASSWORD"`
		FromName  string `yaml:"from_name" env:"SMTP_FROM_NAME"`
		FromEmail string `yaml:"from_email" env:"SMTP_FROM_EMAIL"`
	} `yaml:"smtp"`

	OAuth struct {
		// ClientID is handed to the external identity provider integration;
		// token verification itself happens outside this service.
		ClientID string `yaml:"client_id" env:"OAUTH_CLIENT_ID"`
	} `yaml:"oauth"`

	Auth struct {
		// LegacyRegister re-enables the deprecated direct-registration
		// endpoint. Off by default; the endpoint answers 410 Gone.
		LegacyRegister bool `yaml:"legacy_register" env:"LEGACY_REGISTER"`
	} `yaml:"auth"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`
}

// LoadConfig loads configuration from an optional yaml file and environment
// variables, in that order.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := processStructFields(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "5050"
	config.Server.Mode = "development"

	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "speexify"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 5
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"

	config.Session.CookieName = "speexify_sid"
	config.Session.TTL = "24h"
	config.Session.MaxLifetime = "168h"

	config.SMTP.FromName = "Speexify"
	config.SMTP.FromEmail = "no-reply@speexify.com"
	config.SMTP.Port = 587

	config.Logging.Level = "info"
	config.Logging.Format = "json"
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if config.Session.Secret == "" {
		return fmt.Errorf("session secret is required")
	}
	if _, err := time.ParseDuration(config.Session.TTL); err != nil {
		return fmt.Errorf("invalid session TTL format: %w", err)
	}
	if _, err := time.ParseDuration(config.Session.MaxLifetime); err != nil {
		return fmt.Errorf("invalid session max lifetime format: %w", err)
	}
	return nil
}

// SessionTTL returns the parsed sliding session TTL.
func (c *Config) SessionTTL() time.Duration {
	d, _ := time.ParseDuration(c.Session.TTL)
	return d
}

// SessionMaxLifetime returns the parsed absolute session lifetime cap.
func (c *Config) SessionMaxLifetime() time.Duration {
	d, _ := time.ParseDuration(c.Session.MaxLifetime)
	return d
}

// GetPostgresConnectionString returns the postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}
