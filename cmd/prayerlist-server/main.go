package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/existflow/prayerlist/internal/config"
	"github.com/existflow/prayerlist/internal/logger"
	"github.com/existflow/prayerlist/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	lg, err := logger.New(logger.Config{
		Level:    logger.ParseLevel(cfg.LogLevel),
		FilePath: os.Getenv("PRAYERLIST_SERVER_LOG_FILE"),
		Console:  true,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer lg.Close()

	srv, err := server.New(server.Options{
		Secret: []byte(os.Getenv("PRAYERLIST_TOKEN_SECRET")),
		Logger: lg,
	})
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- srv.Start(cfg.ServerAddr) }()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			lg.Error("Server failed", logger.Err(err))
			os.Exit(1)
		}
	case <-ctx.Done():
		lg.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			lg.Error("Shutdown failed", logger.Err(err))
		}
	}
}
