package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func setupLogging() {
	if getEnv("LOG_FORMAT", "json") == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	level, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if level > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
}

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}
	setupLogging()

	config, err := loadConfig(getEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	services, err := setupServices(ctx, config)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up services")
	}
	defer services.Close()

	server := setupServer(config, services)

	log.Info().
		Str("instance", services.instance).
		Str("store", config.Store.Driver).
		Str("addr", server.Addr).
		Msg("starting draft server")

	var wg sync.WaitGroup
	run := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Str("component", name).Msg("component stopped")
			}
		}()
	}

	run("clock", services.Clock.Run)
	if services.Listener != nil {
		run("outbox_listener", services.Listener.Start)
	}
	if services.Consumer != nil {
		run("outbox_consumer", services.Consumer.Start)
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	services.Hub.Close()
	wg.Wait()

	log.Info().Msg("draft server stopped")
}
