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

	"golang.org/x/sync/errgroup"

	"github.com/pauljones0/reddit-rotator/internal/config"
	"github.com/pauljones0/reddit-rotator/internal/display"
	"github.com/pauljones0/reddit-rotator/internal/notifier"
	"github.com/pauljones0/reddit-rotator/internal/processor"
	"github.com/pauljones0/reddit-rotator/internal/reddit"
	"github.com/pauljones0/reddit-rotator/internal/server"
)

func main() {
	slog.Info("Starting Reddit rotator...")
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Critical error loading configuration", "error", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(cfg); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped.")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	web, err := server.New(cfg.RotateInterval)
	if err != nil {
		return err
	}

	// The web surface is in-memory; slow network surfaces go behind Async so
	// the scheduler loop never waits on them.
	surfaces := display.Fanout{web}
	var workers []*display.Async
	if cfg.DiscordWebhookURL != "" {
		discord := display.NewAsync("discord", notifier.New(cfg.DiscordWebhookURL))
		workers = append(workers, discord)
		surfaces = append(surfaces, discord)
	}
	if cfg.ConsoleDisplay {
		console := display.NewAsync("console", display.NewConsole(os.Stdout))
		workers = append(workers, console)
		surfaces = append(surfaces, console)
	}

	fetcher := reddit.New(cfg.BaseURL, cfg.UserAgent, cfg.FetchTimeout, cfg.RequestsPerMinute)
	sched := processor.New(cfg, fetcher, surfaces)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      web.Handler(sched),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sched.Run(gctx)
	})
	for _, w := range workers {
		w := w
		g.Go(func() error {
			return w.Run(gctx)
		})
	}
	g.Go(func() error {
		slog.Info("Listening on port", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown error", "error", err)
		}
		return nil
	})

	return g.Wait()
}
