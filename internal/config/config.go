package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config structure represents the application configuration
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

	JWT struct {
		Secret                string `yaml:"secret" env:"JWT_SECRET"`
		AccessTokenExpiration string `yaml:"access_token_expiration" env:"JWT_ACCESS_TOKEN_EXPIRATION"`
		Issuer                string `yaml:"issuer" env:"JWT_ISSUER"`
	} `yaml:"jwt"`

	Voucher struct {
		// ReservationTTL bounds how long a verification holds a voucher
		// exclusively. Uniform across all vouchers in a deployment.
		ReservationTTL string `yaml:"reservation_ttl" env:"VOUCHER_RESERVATION_TTL"`
		// SweepInterval is how often the background sweep reclaims stale
		// reservations.
		SweepInterval string `yaml:"sweep_interval" env:"VOUCHER_SWEEP_INTERVAL"`
		OrgCode       string `yaml:"org_code" env:"VOUCHER_ORG_CODE"`
		NumberLength  int    `yaml:"number_length" env:"VOUCHER_NUMBER_LENGTH"`
		PINLength     int    `yaml:"pin_length" env:"VOUCHER_PIN_LENGTH"`
	} `yaml:"voucher"`

	Admin struct {
		// Seed credentials for the first staff account. Ignored once any
		// admin row exists.
		Username string `yaml:"username" env:"ADMIN_USERNAME"`
		Password string `yaml:"password" env:"ADMIN_PASSWORD"`
		FullName string `yaml:"full_name" env:"ADMIN_FULL_NAME"`
	} `yaml:"admin"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`
}

// LoadConfig loads configuration from a file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	// Config file is optional; env vars can carry everything
	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// Override with environment variables
	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	// Server defaults
	config.Server.Port = "8080"
	config.Server.Mode = "development"

	// Database defaults
	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "cschool"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 5
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"

	// JWT defaults
	config.JWT.AccessTokenExpiration = "1h"
	config.JWT.Issuer = "cschool.app"

	// Voucher defaults
	config.Voucher.ReservationTTL = "15m"
	config.Voucher.SweepInterval = "5m"
	config.Voucher.OrgCode = "SCH"
	config.Voucher.NumberLength = 10
	config.Voucher.PINLength = 6

	// Admin seed defaults
	config.Admin.Username = "admin"
	config.Admin.FullName = "System Administrator"

	// Logging defaults
	config.Logging.Level = "info"
	config.Logging.Format = "json"
}

// loadFromEnv overrides configuration with environment variables
func loadFromEnv(config *Config) error {
	return processStructFields(config)
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if _, err := time.ParseDuration(config.JWT.AccessTokenExpiration); err != nil {
		return fmt.Errorf("invalid JWT access token expiration format: %w", err)
	}

	if _, err := time.ParseDuration(config.Voucher.ReservationTTL); err != nil {
		return fmt.Errorf("invalid voucher reservation TTL format: %w", err)
	}

	if _, err := time.ParseDuration(config.Voucher.SweepInterval); err != nil {
		return fmt.Errorf("invalid voucher sweep interval format: %w", err)
	}

	if config.Voucher.OrgCode == "" {
		return fmt.Errorf("voucher org code is required")
	}

	if config.Voucher.NumberLength < 6 || config.Voucher.PINLength < 4 {
		return fmt.Errorf("voucher number/PIN lengths are too short")
	}

	return nil
}

// GetPostgresConnectionString builds the pgx connection string
func (c *Config) GetPostgresConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

// ReservationTTL returns the parsed reservation TTL.
func (c *Config) ReservationTTL() time.Duration {
	d, err := time.ParseDuration(c.Voucher.ReservationTTL)
	if err != nil {
		return 15 * time.Minute
	}
	return d
}

// SweepInterval returns the parsed sweep interval.
func (c *Config) SweepInterval() time.Duration {
	d, err := time.ParseDuration(c.Voucher.SweepInterval)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}
