package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/philly/arch-blog/reader/internal/adapters/remote"
	"github.com/philly/arch-blog/reader/internal/platform/logger"
	"github.com/philly/arch-blog/reader/internal/platform/validator"
)

// Config keys. Environment variables use the same names; CLI flags are
// bound onto them.
const (
	KeyAPIURL           = "API_URL"
	KeyEnvironment      = "ENVIRONMENT"
	KeyLogLevel         = "LOG_LEVEL"
	KeyHTTPTimeout      = "HTTP_TIMEOUT"
	KeyRateLimitRPS     = "RATE_LIMIT_RPS"
	KeyCacheGCTime      = "CACHE_GC_TIME"
	KeyCacheMaxRetained = "CACHE_MAX_RETAINED"
	KeyMetricsAddress   = "METRICS_ADDRESS"
)

type Config struct {
	APIURL           string        `mapstructure:"API_URL"`
	Environment      string        `mapstructure:"ENVIRONMENT"`
	LogLevel         string        `mapstructure:"LOG_LEVEL"`
	HTTPTimeout      time.Duration `mapstructure:"HTTP_TIMEOUT"`   // 0 disables the client timeout
	RateLimitRPS     float64       `mapstructure:"RATE_LIMIT_RPS"` // 0 disables throttling
	CacheGCTime      time.Duration `mapstructure:"CACHE_GC_TIME"`
	CacheMaxRetained int           `mapstructure:"CACHE_MAX_RETAINED"`
	MetricsAddress   string        `mapstructure:"METRICS_ADDRESS"` // empty disables the metrics endpoint
}

// NewViper returns a viper instance with every default set. Callers bind
// flags onto it before LoadConfig.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyAPIURL, remote.DefaultBaseURL)
	v.SetDefault(KeyEnvironment, "development")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyHTTPTimeout, "0s")
	v.SetDefault(KeyRateLimitRPS, 0)
	v.SetDefault(KeyCacheGCTime, "5m")
	v.SetDefault(KeyCacheMaxRetained, 128)
	v.SetDefault(KeyMetricsAddress, "")
	return v
}

func LoadConfig(bootstrapLogger *logger.BootstrapLogger, v *viper.Viper) (Config, error) {
	ctx := context.Background()

	// A missing .env is fine; the environment alone is enough
	if err := godotenv.Load(); err != nil {
		bootstrapLogger.Debug(ctx, "no .env file found, using environment variables only")
	} else {
		bootstrapLogger.Debug(ctx, "loaded .env file")
	}

	if v == nil {
		v = NewViper()
	}
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		bootstrapLogger.Error(ctx, "failed to unmarshal configuration", "error", err)
		return Config{}, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	bootstrapLogger.Debug(ctx, "configuration loaded",
		"api_url", config.APIURL,
		"environment", config.Environment,
		"log_level", config.LogLevel,
		"metrics_address", config.MetricsAddress,
	)

	if err := config.Validate(); err != nil {
		bootstrapLogger.Error(ctx, "configuration validation failed", "error", err)
		return Config{}, err
	}
	return config, nil
}

// Validate checks values viper cannot type-check.
func (c Config) Validate() error {
	if err := validator.ValidateURL(KeyAPIURL, c.APIURL); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("%s must not be negative", KeyHTTPTimeout)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("%s must not be negative", KeyRateLimitRPS)
	}
	if c.CacheGCTime < 0 {
		return fmt.Errorf("%s must not be negative", KeyCacheGCTime)
	}
	if c.CacheMaxRetained < 0 {
		return fmt.Errorf("%s must not be negative", KeyCacheMaxRetained)
	}
	return nil
}
