package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/draft-room/internal/catalog"
	"github.com/DoyleJ11/draft-room/internal/config"
	"github.com/DoyleJ11/draft-room/internal/engine"
	"github.com/DoyleJ11/draft-room/internal/httpapi"
	"github.com/DoyleJ11/draft-room/internal/hub"
	"github.com/DoyleJ11/draft-room/internal/ws"
	"github.com/DoyleJ11/draft-room/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() (err error) {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	store, err := openStore(cfg.Storage)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, store.Close()) }()
	log.Info("storage ready", zap.String("driver", cfg.Storage.Driver))

	items, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return err
	}
	eng := engine.New(items, nil)
	if cfg.RandomSeed != 0 {
		eng = engine.NewSeeded(items, cfg.RandomSeed)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h := hub.New(ctx, hub.Options{
		Engine:        eng,
		Store:         store,
		Logger:        log,
		ChatLimit:     cfg.ChatLimit,
		SweepInterval: cfg.SweepInterval,
		IdleTTL:       cfg.RoomIdleTTL,
	})

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: httpapi.SetupRoutes(httpapi.Deps{
			Hub:   h,
			Store: store,
			WS: ws.Config{
				AllowedOrigins: cfg.AllowedOrigins,
				RateLimit:      cfg.ClientRateLimit,
				RateBurst:      cfg.ClientRateBurst,
			},
			Logger: log,
		}),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.Addr), zap.Int("catalog_items", len(items)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return multierr.Combine(
			srv.Shutdown(shutdownCtx),
			h.Shutdown(shutdownCtx),
		)
	})
	return g.Wait()
}
