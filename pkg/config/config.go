// Package config loads the service configuration with precedence
// ENV > file > defaults.
package config

import (
	"fmt"
	"time"
)

// Config is the full service configuration.
type Config struct {
	Service  ServiceConfig  `mapstructure:"service"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Email    EmailConfig    `mapstructure:"email"`
	Uploads  UploadsConfig  `mapstructure:"uploads"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServiceConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

type HTTPConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type DatabaseConfig struct {
	URL              string        `mapstructure:"url"`
	Name             string        `mapstructure:"name"`
	ConnectTimeout   time.Duration `mapstructure:"connect_timeout"`
	OperationTimeout time.Duration `mapstructure:"operation_timeout"`
}

type CacheConfig struct {
	URL              string        `mapstructure:"url"`
	MaxConns         int           `mapstructure:"max_conns"`
	OperationTimeout time.Duration `mapstructure:"operation_timeout"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
	// FrontendURL is the base for the links embedded in verification
	// and password reset mail.
	FrontendURL string `mapstructure:"frontend_url"`
}

type EmailConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	From      string `mapstructure:"from"`
	EnableTLS bool   `mapstructure:"enable_tls"`
}

type UploadsConfig struct {
	// ImageDir is the directory where record image files live.
	ImageDir string `mapstructure:"image_dir"`
	// MaxImageSize caps one uploaded file, in bytes.
	MaxImageSize int64 `mapstructure:"max_image_size"`
	// MaxImages caps the files accepted per upload request.
	MaxImages int `mapstructure:"max_images"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Service: ServiceConfig{
			Name:        "merchantry",
			Environment: "development",
		},
		HTTP: HTTPConfig{
			Port:         8080,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			URL:              "mongodb://localhost:27017",
			Name:             "merchantry",
			ConnectTimeout:   5 * time.Second,
			OperationTimeout: 5 * time.Second,
		},
		Cache: CacheConfig{
			URL:              "redis://localhost:6379/0",
			MaxConns:         10,
			OperationTimeout: 3 * time.Second,
		},
		Auth: AuthConfig{
			Issuer:      "merchantry",
			FrontendURL: "http://localhost:3000",
		},
		Email: EmailConfig{
			Port: 587,
		},
		Uploads: UploadsConfig{
			ImageDir:     "uploads/images",
			MaxImageSize: 1 << 20,
			MaxImages:    10,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks the invariants the service cannot start without.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535")
	}
	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Cache.URL == "" {
		return fmt.Errorf("cache.url is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if c.Uploads.ImageDir == "" {
		return fmt.Errorf("uploads.image_dir is required")
	}
	if c.Uploads.MaxImageSize <= 0 {
		return fmt.Errorf("uploads.max_image_size must be positive")
	}
	if c.Uploads.MaxImages <= 0 {
		return fmt.Errorf("uploads.max_images must be positive")
	}
	return nil
}
