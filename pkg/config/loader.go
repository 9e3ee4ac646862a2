package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Loader defines the interface for loading configuration
type Loader interface {
	Load() (*Config, error)
}

// ViperLoader implements Loader using Viper.
type ViperLoader struct {
	configFile string
	envPrefix  string
}

// NewViperLoader creates a loader. configFile may be empty; envPrefix
// is the environment variable prefix, e.g. "MERCHANTRY".
func NewViperLoader(configFile, envPrefix string) *ViperLoader {
	return &ViperLoader{
		configFile: configFile,
		envPrefix:  envPrefix,
	}
}

// Load loads configuration with precedence: ENV > file > defaults.
func (l *ViperLoader) Load() (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	l.setDefaults(v, defaults)

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", l.configFile, err)
		}
	}

	v.SetEnvPrefix(l.envPrefix)
	l.bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (l *ViperLoader) setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("service.name", d.Service.Name)
	v.SetDefault("service.environment", d.Service.Environment)

	v.SetDefault("http.port", d.HTTP.Port)
	v.SetDefault("http.read_timeout", d.HTTP.ReadTimeout)
	v.SetDefault("http.write_timeout", d.HTTP.WriteTimeout)
	v.SetDefault("http.idle_timeout", d.HTTP.IdleTimeout)

	v.SetDefault("database.url", d.Database.URL)
	v.SetDefault("database.name", d.Database.Name)
	v.SetDefault("database.connect_timeout", d.Database.ConnectTimeout)
	v.SetDefault("database.operation_timeout", d.Database.OperationTimeout)

	v.SetDefault("cache.url", d.Cache.URL)
	v.SetDefault("cache.max_conns", d.Cache.MaxConns)
	v.SetDefault("cache.operation_timeout", d.Cache.OperationTimeout)

	v.SetDefault("auth.issuer", d.Auth.Issuer)
	v.SetDefault("auth.frontend_url", d.Auth.FrontendURL)

	v.SetDefault("email.port", d.Email.Port)

	v.SetDefault("uploads.image_dir", d.Uploads.ImageDir)
	v.SetDefault("uploads.max_image_size", d.Uploads.MaxImageSize)
	v.SetDefault("uploads.max_images", d.Uploads.MaxImages)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// bindEnvVars explicitly binds environment variables for nested keys.
func (l *ViperLoader) bindEnvVars(v *viper.Viper) {
	v.BindEnv("service.name", l.prefixedEnv("SERVICE_NAME"))
	v.BindEnv("service.environment", l.prefixedEnv("SERVICE_ENVIRONMENT"), l.prefixedEnv("ENVIRONMENT"))

	v.BindEnv("http.port", l.prefixedEnv("HTTP_PORT"))
	v.BindEnv("http.read_timeout", l.prefixedEnv("HTTP_READ_TIMEOUT"))
	v.BindEnv("http.write_timeout", l.prefixedEnv("HTTP_WRITE_TIMEOUT"))
	v.BindEnv("http.idle_timeout", l.prefixedEnv("HTTP_IDLE_TIMEOUT"))

	v.BindEnv("database.url", l.prefixedEnv("DATABASE_URL"))
	v.BindEnv("database.name", l.prefixedEnv("DATABASE_NAME"))
	v.BindEnv("database.connect_timeout", l.prefixedEnv("DATABASE_CONNECT_TIMEOUT"))
	v.BindEnv("database.operation_timeout", l.prefixedEnv("DATABASE_OPERATION_TIMEOUT"))

	v.BindEnv("cache.url", l.prefixedEnv("CACHE_URL"))
	v.BindEnv("cache.max_conns", l.prefixedEnv("CACHE_MAX_CONNS"))
	v.BindEnv("cache.operation_timeout", l.prefixedEnv("CACHE_OPERATION_TIMEOUT"))

	v.BindEnv("auth.jwt_secret", l.prefixedEnv("AUTH_JWT_SECRET"))
	v.BindEnv("auth.issuer", l.prefixedEnv("AUTH_ISSUER"))
	v.BindEnv("auth.frontend_url", l.prefixedEnv("AUTH_FRONTEND_URL"))

	v.BindEnv("email.host", l.prefixedEnv("EMAIL_HOST"))
	v.BindEnv("email.port", l.prefixedEnv("EMAIL_PORT"))
	v.BindEnv("email.username", l.prefixedEnv("EMAIL_USERNAME"))
	v.BindEnv("email.password", l.prefixedEnv("EMAIL_PASSWORD"))
	v.BindEnv("email.from", l.prefixedEnv("EMAIL_FROM"))
	v.BindEnv("email.enable_tls", l.prefixedEnv("EMAIL_ENABLE_TLS"))

	v.BindEnv("uploads.image_dir", l.prefixedEnv("UPLOADS_IMAGE_DIR"))
	v.BindEnv("uploads.max_image_size", l.prefixedEnv("UPLOADS_MAX_IMAGE_SIZE"))
	v.BindEnv("uploads.max_images", l.prefixedEnv("UPLOADS_MAX_IMAGES"))

	v.BindEnv("log.level", l.prefixedEnv("LOG_LEVEL"))
	v.BindEnv("log.format", l.prefixedEnv("LOG_FORMAT"))
}

func (l *ViperLoader) prefixedEnv(name string) string {
	if l.envPrefix == "" {
		return name
	}
	return l.envPrefix + "_" + name
}
