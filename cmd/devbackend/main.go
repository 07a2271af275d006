// Command devbackend serves the in-memory identity backend for local
// development of the dashboard.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/jrsteele09/go-account-dashboard/internal/backendfake"
	"github.com/jrsteele09/go-account-dashboard/internal/logger"
	"github.com/rs/zerolog/log"
)

type devConfig struct {
	Port               string        `env:"DEV_BACKEND_PORT" envDefault:"8080"`
	DashboardURL       string        `env:"BASE_URL" envDefault:"http://localhost:3000"`
	Secret             string        `env:"DEV_BACKEND_SECRET"`
	AccessTokenExpiry  time.Duration `env:"DEV_ACCESS_TOKEN_EXPIRY" envDefault:"15m"`
	RefreshTokenExpiry time.Duration `env:"DEV_REFRESH_TOKEN_EXPIRY" envDefault:"168h"`
	SeedEmail          string        `env:"DEV_SEED_EMAIL" envDefault:"demo@example.com"`
	SeedPassword       string        `env:"DEV_SEED_PASSWORD" envDefault:"Demo1234"`
	LogLevel           string        `env:"LOG_LEVEL" envDefault:"debug"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Dev backend failed")
	}
}

func run() error {
	_ = godotenv.Load(".env")

	var c devConfig
	if err := env.Parse(&c); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	logger.Init(c.LogLevel, "console")

	backend, err := backendfake.New(backendfake.Config{
		DashboardURL:       c.DashboardURL,
		Secret:             c.Secret,
		AccessTokenExpiry:  c.AccessTokenExpiry,
		RefreshTokenExpiry: c.RefreshTokenExpiry,
	})
	if err != nil {
		return err
	}
	if _, err := backend.AddUser(c.SeedEmail, c.SeedPassword, "Demo User"); err != nil {
		return err
	}

	srv := &http.Server{Addr: ":" + c.Port, Handler: backend, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.Info().Str("addr", srv.Addr).Str("user", c.SeedEmail).Msg("Dev backend listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Err(err).Msg("Dev backend stopped")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
