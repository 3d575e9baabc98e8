package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"certledger/config"
	"certledger/core"
	"certledger/core/events"
	"certledger/core/settlement"
	"certledger/core/state"
	"certledger/observability/logging"
	"certledger/rpc"
	"certledger/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger := logging.Setup("certledgerd", cfg.Environment)

	adminKey, err := cfg.AdminKeyWords()
	if err != nil {
		logger.Error("invalid admin key", slog.Any("error", err))
		os.Exit(1)
	}
	multisig, err := cfg.MultisigBytes()
	if err != nil {
		logger.Error("invalid multisig address", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("failed to open database", slog.String("dataDir", cfg.DataDir), slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	recorder := events.NewRecorder()
	engine := core.NewEngine(
		state.NewManager(db),
		recorder,
		settlement.NewQueue(),
		core.Params{
			SecondsPerTick:  cfg.SecondsPerTick,
			AdminKey:        adminKey,
			MultisigAddress: multisig,
		},
	)

	server := rpc.NewServer(engine, recorder, logger)
	limiter := rpc.NewRateLimiter(cfg.RateLimitPerMin, cfg.RateLimitBurst, logger)
	httpServer := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           server.Router(limiter),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("rpc listening", slog.String("address", cfg.ListenAddress))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("rpc server stopped", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", slog.Any("error", err))
	}
}
