package config

import (
	"fmt"
	"strings"
	"time"
)

type EnvVars struct {
	Port           string        `env:"PORT" envDefault:"3000"`
	AppName        string        `env:"APP_NAME" envDefault:"Account Dashboard"`
	Env            string        `env:"ENV" envDefault:"DEV"`
	BaseURL        string        `env:"BASE_URL" envDefault:"http://localhost:3000"`
	APIURL         string        `env:"API_URL" envDefault:"http://localhost:8080"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	if strings.HasPrefix(e.Port, ":") {
		return e.Port
	}
	return fmt.Sprintf(":%s", e.Port)
}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetEnv() string {
	return e.Env
}

// GetBaseURL returns the public origin of the dashboard (e.g., "https://app.example.com").
// OAuth completion messages are only accepted from this origin.
func (e EnvVars) GetBaseURL() string {
	return strings.TrimSuffix(e.BaseURL, "/")
}

// GetAPIURL returns the identity backend base URL
func (e EnvVars) GetAPIURL() string {
	return strings.TrimSuffix(e.APIURL, "/")
}

func (e EnvVars) GetRequestTimeout() time.Duration {
	return e.RequestTimeout
}
