package main

import (
	"context"
	"log" // standard log only for fatal errors before the logger is set up
	"os"
	"os/signal"
	"syscall"

	"cryptoTickStream/config"
	"cryptoTickStream/internal/adapters/logger"
	"cryptoTickStream/internal/adapters/sqlite"
	"cryptoTickStream/internal/adapters/wsconn"
	"cryptoTickStream/internal/ports"
	"cryptoTickStream/internal/stream"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	// 2. Initialize Logger
	appLogger := logger.New(cfg.LogLevel)
	ctx := context.Background()
	appLogger.Info(ctx, "logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Initialize Candle Cache (optional)
	var candles ports.CandleRepository
	if cfg.DBPath != "" {
		repo, err := sqlite.NewRepository(sqlite.Config{DBPath: cfg.DBPath, Logger: appLogger})
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize candle cache: %v", err)
		}
		defer func() {
			if err := repo.Close(); err != nil {
				appLogger.Error(ctx, err, "error closing candle cache")
			}
		}()
		candles = repo
	}

	// 4. Initialize Transport Factory
	conns, err := wsconn.NewFactory(wsconn.Config{
		URL:          cfg.WSURL,
		Logger:       appLogger,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize websocket transport: %v", err)
	}

	// 5. Initialize Streaming Service
	svc, err := stream.NewService(stream.Config{
		Pair:              cfg.Pair,
		Logger:            appLogger,
		Conns:             conns,
		Candles:           candles,
		HeartbeatInterval: cfg.HeartbeatInterval,
		ReconnectDelay:    cfg.ReconnectDelay,
		HistoryStart:      cfg.HistoryStart,
		HistorySize:       cfg.HistorySize,
		EventBuffer:       cfg.EventBufferSize,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize streaming service: %v", err)
	}

	// Warm snapshot from the cache before the feed delivers a fresh one.
	if cached, err := svc.CachedHistory(ctx); err != nil {
		appLogger.Warn(ctx, "failed to load cached history", map[string]interface{}{"error": err.Error()})
	} else if len(cached) > 0 {
		appLogger.Info(ctx, "loaded cached history snapshot", map[string]interface{}{
			"pair": cfg.Pair.String(), "candles": len(cached),
		})
	}

	// 6. Consume the output streams. These subscribers stand in for the UI
	// collaborators (price label, chart series, connectivity banner).
	ticks := svc.Ticks()
	history := svc.History()
	status := svc.Status()
	errsSub := svc.Errors()
	defer ticks.Cancel()
	defer history.Cancel()
	defer status.Cancel()
	defer errsSub.Cancel()

	go func() {
		for {
			select {
			case price, ok := <-ticks.Events():
				if !ok {
					return
				}
				appLogger.Info(ctx, "tick", map[string]interface{}{
					"pair": cfg.Pair.String(), "price": price,
				})
			case batch, ok := <-history.Events():
				if !ok {
					return
				}
				appLogger.Info(ctx, "history batch", map[string]interface{}{
					"pair": cfg.Pair.String(), "candles": len(batch),
				})
			case connected, ok := <-status.Events():
				if !ok {
					return
				}
				appLogger.Info(ctx, "connection status changed", map[string]interface{}{
					"connected": connected,
				})
			case err, ok := <-errsSub.Events():
				if !ok {
					return
				}
				appLogger.Error(ctx, err, "stream error")
			}
		}
	}()

	// 7. Connect and run until a shutdown signal arrives.
	svc.Connect(ctx)
	appLogger.Info(ctx, "streaming service started", map[string]interface{}{
		"pair": cfg.Pair.String(), "url": cfg.WSURL,
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	appLogger.Info(ctx, "received shutdown signal", map[string]interface{}{"signal": sig.String()})

	svc.Close()
	appLogger.Info(ctx, "streaming service stopped")
}
