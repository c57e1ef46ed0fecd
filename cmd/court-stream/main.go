package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Garsondee/Court-Sense/internal/config"
	"github.com/Garsondee/Court-Sense/internal/game"
	"github.com/Garsondee/Court-Sense/internal/logging"
	"github.com/Garsondee/Court-Sense/internal/stream"
)

func main() {
	cfgPath := flag.String("config", "", "YAML config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	sim := game.NewSim(cfg.SimOptions(game.WithLogger(logger.Named("sim")))...)
	hub := stream.NewHub(logger.Named("hub"))
	runner := stream.NewRunner(sim, hub, cfg.Stream.Interval, logger.Named("runner"))
	srv := &http.Server{
		Addr:              cfg.Stream.Addr,
		Handler:           stream.NewRouter(runner, hub),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return runner.Run(ctx)
	})
	g.Go(func() error {
		logger.Info("court stream listening", zap.String("addr", srv.Addr), zap.String("session", runner.Session()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("court stream stopped", zap.Error(err))
		os.Exit(1)
	}
}
