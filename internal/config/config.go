package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config interface {
	EnvConfig
	CorsConfig
	OAuthConfig
	SessionConfig
	LoggingConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetBaseURL() string
	GetAPIURL() string
	GetRequestTimeout() time.Duration
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type LoggingConfig interface {
	GetLogLevel() string
	GetLogFormat() string
}

// AppConfig is the full configuration. Tests build it directly.
type AppConfig struct {
	EnvVars
	Cors
	OAuth
	Session
	Logging
}

// New loads .env files (if present) and parses the environment into a Config.
func New() (Config, error) {
	// Missing .env files are not an error
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	var c AppConfig
	if err := env.Parse(&c); err != nil {
		return nil, fmt.Errorf("[config New] parse env: %w", err)
	}
	return c, nil
}

type Logging struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"console"`
}

var _ LoggingConfig = Logging{}

func (l Logging) GetLogLevel() string {
	return l.Level
}

func (l Logging) GetLogFormat() string {
	return l.Format
}
