// Package main is the entry point for the Atlas accounts server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/prn-tf/atlas-accounts/internal/avatar"
	"github.com/prn-tf/atlas-accounts/internal/config"
	"github.com/prn-tf/atlas-accounts/internal/handler"
	"github.com/prn-tf/atlas-accounts/internal/mail"
	"github.com/prn-tf/atlas-accounts/internal/repository/factory"
	"github.com/prn-tf/atlas-accounts/internal/service"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(*configPath)

	logger := newLogger(cfg.Logging)
	log.Logger = logger

	logger.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Msg("starting Atlas accounts server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Persistence
	repos, err := factory.New(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := repos.Health.Close(closeCtx); err != nil {
			logger.Error().Err(err).Msg("failed to close database")
		}
	}()

	// Notifications (fire-and-forget)
	var notifier mail.Notifier = mail.NopNotifier{}
	var dispatcher *mail.Dispatcher
	if cfg.Mail.Enabled {
		dispatcher = mail.NewDispatcher(mail.NewLogMailer(logger), cfg.Mail.QueueSize, logger)
		defer dispatcher.Close()
		notifier = dispatcher
	}

	// Services
	accounts := service.NewAccountService(repos.Accounts, notifier, logger)
	sessions := service.NewSessionService(repos.Accounts, []byte(cfg.Auth.TokenSecret), logger)

	// HTTP surface
	var metrics *handler.Metrics
	if cfg.Metrics.Enabled {
		metrics = handler.NewMetrics()
	}

	accountHandler := handler.NewAccountHandler(handler.AccountHandlerConfig{
		Accounts:       accounts,
		Sessions:       sessions,
		Avatars:        avatar.NewProcessor(cfg.Avatar.Size),
		MaxUploadBytes: cfg.Avatar.MaxUploadBytes,
		Logger:         logger,
	})

	router := handler.NewRouter(handler.RouterConfig{
		Accounts: accountHandler,
		Sessions: sessions,
		Metrics:  metrics,
		Logger:   logger,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	var metricsServer *http.Server
	if metrics != nil {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, metrics.Handler())
		metricsServer = &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Metrics.Port),
			Handler: mux,
		}
		go func() {
			logger.Info().Str("addr", metricsServer.Addr).Msg("metrics server listening")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("metrics server failed")
			}
		}()
	}

	<-ctx.Done()
	logger.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("metrics server shutdown failed")
		}
	}
}

// newLogger builds the process logger from configuration.
func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	zerolog.TimeFieldFormat = cfg.TimeFormat

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out = os.Stdout
	if cfg.Output == "stderr" {
		out = os.Stderr
	}

	if cfg.Format == "console" {
		return zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).
			Level(level).With().Timestamp().Logger()
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

