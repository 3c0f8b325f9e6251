package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"mediahub/internal/config"
	"mediahub/internal/devserver"
	"mediahub/pkg/logger"
)

func main() {
	configPath := flag.String("config", os.Getenv("MEDIAHUB_CONFIG"), "path to the config file")
	addr := flag.String("addr", "", "listen address, overrides dev_server.addr")
	seed := flag.Bool("seed", true, "seed counters for the configured feed")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg.Logging)

	if *addr != "" {
		cfg.DevServer.Addr = *addr
	}

	if len(cfg.DevServer.Users) == 0 {
		logger.Warnf("No dev_server.users configured, every login will fail")
	}

	srv, err := devserver.New(cfg.DevServer, devserver.WithLogger(logger.Component("devserver")))
	if err != nil {
		logger.Fatalf("Failed to create dev server: %v", err)
	}

	if *seed {
		keys, err := cfg.FeedKeys()
		if err != nil {
			logger.Fatalf("Invalid feed: %v", err)
		}
		for i, k := range keys {
			n := i + 1
			srv.Interactions().Seed(k, 10*n, 3*n, n, 100*n)
		}
		logger.Infof("Seeded %d feed items", len(keys))
	}

	logger.WithFields(logger.Fields{
		"addr":  cfg.DevServer.Addr,
		"users": len(cfg.DevServer.Users),
	}).Info("Dev server starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		logger.Errorf("Dev server stopped: %v", err)
		os.Exit(1)
	}
	logger.Info("Dev server stopped")
}
