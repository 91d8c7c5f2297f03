package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eventdesk/data/repository"

	"github.com/rs/zerolog"
)

type application struct {
	Config config
	Log    zerolog.Logger
	Repo   repository.DBRepo
	Tokens *tokenMaker
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log := newLogger(config{Env: "development", LogLevel: "info"})
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	var app = &application{
		Config: cfg,
		Log:    newLogger(cfg),
		Tokens: newTokenMaker(cfg.JWTSecret, cfg.JWTTTL),
	}

	db, err := app.ConnectToDB()
	if err != nil {
		app.Log.Fatal().Err(err).Msg("failed to connect to db")
	}
	defer db.Close()

	app.Repo = repository.NewSqlRepo(db, &app.Log)

	if err = app.Repo.RunMigrations("eventdesk"); err != nil {
		app.Log.Fatal().Err(err).Msg("migration failed")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           app.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       time.Minute,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		app.Log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- err
		}
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-signalChan:
		app.Log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-serverErrChan:
		app.Log.Error().Err(err).Msg("server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.Log.Error().Err(err).Msg("error shutting down server")
	}
}

// newLogger builds the process logger: human-readable console output in
// development, JSON lines otherwise.
func newLogger(cfg config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.isDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Logger()
}
