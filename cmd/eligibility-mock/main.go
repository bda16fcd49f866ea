// Command eligibility-mock runs the CPF validation authority on its own, for
// exercising strict eligibility against a separate process.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	eligibilityhandler "votacao/internal/eligibility/handler"
	"votacao/internal/platform/httpserver"
	"votacao/internal/platform/logger"
)

type config struct {
	Addr     string `env:"MOCK_ADDR" envDefault:":8090"`
	Strict   bool   `env:"ELIGIBILITY_MOCK_STRICT" envDefault:"false"`
	Env      string `env:"GO_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

func main() {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		slog.Error("parse env", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Env, cfg.LogLevel)

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	eligibilityhandler.NewAuthority(cfg.Strict, log).Register(r)
	srv := httpserver.New(cfg.Addr, r)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("starting eligibility mock", "addr", cfg.Addr, "strict", cfg.Strict)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
