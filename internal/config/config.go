package config

import (
	"errors"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
)

var (
	// ErrMissingDatabaseURL is returned when no connection string is configured.
	ErrMissingDatabaseURL = errors.New("config: DATABASE_URL is not set")
	// ErrInvalidGinMode is returned for a GIN_MODE gin would refuse.
	ErrInvalidGinMode = errors.New("config: GIN_MODE must be debug, release or test")
)

// Config holds the application configuration.
type Config struct {
	DatabaseURL        string   `mapstructure:"DATABASE_URL"`
	ServerAddr         string   `mapstructure:"SERVER_ADDR"`
	GinMode            string   `mapstructure:"GIN_MODE"`
	DBLogLevel         string   `mapstructure:"DB_LOG_LEVEL"`
	AutoMigrate        bool     `mapstructure:"AUTO_MIGRATE"`
	CORSAllowedOrigins []string `mapstructure:"CORS_ALLOWED_ORIGINS"`
}

// Load reads the configuration from a .env file found in one of paths and
// from environment variables. Environment variables take precedence.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetConfigName(".env")
	v.SetConfigType("env")

	v.SetDefault("SERVER_ADDR", ":8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("DB_LOG_LEVEL", "warn")
	v.SetDefault("AUTO_MIGRATE", true)
	v.SetDefault("CORS_ALLOWED_ORIGINS", []string{"*"})

	if err := v.BindEnv("DATABASE_URL"); err != nil {
		return nil, fmt.Errorf("config: bind DATABASE_URL: %w", err)
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read .env: %w", err)
		}
		log.Println("Warning: .env file not found, loading from environment variables")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unable to decode into struct: %w", err)
	}
	// Older deployments still name it after SQLAlchemy, in the environment or in .env.
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = v.GetString("SQLALCHEMY_DATABASE_URI")
	}
	if cfg.DatabaseURL == "" {
		return nil, ErrMissingDatabaseURL
	}
	switch cfg.GinMode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
	default:
		return nil, fmt.Errorf("%w, got %q", ErrInvalidGinMode, cfg.GinMode)
	}
	return &cfg, nil
}
