package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/efreitasn/makeamarket/internal/config"
	"github.com/efreitasn/makeamarket/internal/console"
	"github.com/efreitasn/makeamarket/internal/engine"
	"github.com/efreitasn/makeamarket/internal/handler"
	"github.com/efreitasn/makeamarket/internal/service"
	"github.com/efreitasn/makeamarket/internal/store"
)

func main() {
	serve := flag.Bool("serve", false, "Serve the HTTP API instead of playing on the terminal")
	healthcheck := flag.Bool("healthcheck", false, "Run health check against running server")
	flag.Parse()

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Handle -healthcheck flag: HTTP GET to localhost:PORT/healthz, exit 0/1.
	if *healthcheck {
		resp, err := http.Get(fmt.Sprintf("http://localhost:%d/healthz", cfg.Server.Port))
		if err != nil || resp.StatusCode != http.StatusOK {
			os.Exit(1)
		}
		os.Exit(0)
	}

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *serve {
		err = runServer(ctx, cfg, logger)
	} else {
		err = runConsole(ctx, cfg, logger)
	}
	if err != nil {
		logger.Error("exiting", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

// runConsole plays one game on stdin/stdout.
func runConsole(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	strategy, err := engine.StrategyByName(cfg.Game.Strategy)
	if err != nil {
		return err
	}
	values := cfg.Game.Values()
	game, err := engine.NewGame(engine.Config{
		Opponents: cfg.Game.Opponents,
		Rounds:    cfg.Game.Rounds,
		Values:    values,
		Strategy:  strategy,
	}, engine.NewDealer(values, engine.NewRand(cfg.Game.Seed)))
	if err != nil {
		return err
	}

	c := console.New(os.Stdin, os.Stdout, console.Options{
		HardMode: cfg.Game.HardMode,
		Pace:     cfg.Game.Pace,
	})
	s, err := c.Play(ctx, game)
	if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
		logger.Info("game abandoned", zap.Int("rounds_played", game.RoundsPlayed()))
		return nil
	}
	if err != nil {
		return err
	}
	logger.Debug("game finished", zap.Int64("fair_value", s.FairValue), zap.Int64("pnl", s.PnL))
	return nil
}

// runServer serves the HTTP API until ctx is cancelled, then shuts down
// gracefully.
func runServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	hub := handler.NewHub(cfg.Server.CORSOrigins, logger)
	defer hub.Close()

	gameSvc, err := service.NewGameService(
		store.NewSessionStore[*service.Session](),
		store.NewLeaderboard(),
		service.Settings{
			Opponents:       cfg.Game.Opponents,
			Rounds:          cfg.Game.Rounds,
			Values:          cfg.Game.Values(),
			StrategyName:    cfg.Game.Strategy,
			HardMode:        cfg.Game.HardMode,
			Seed:            cfg.Game.Seed,
			LeaderboardSize: cfg.Server.LeaderboardSize,

			SettledRetention: cfg.Server.SettledRetention,
			ReapInterval:     cfg.Server.ReapInterval,
		},
		hub,
		logger,
	)
	if err != nil {
		return err
	}

	gameSvc.StartReaper(ctx)

	router := handler.NewRouter(gameSvc, hub, cfg.Server.CORSOrigins, logger)

	// Configure HTTP server.
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	logger.Info("server stopped")
	return nil
}
