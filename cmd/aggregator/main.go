// Copyright 2025 James Ross
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jamesross/log-aggregator/internal/config"
	"github.com/jamesross/log-aggregator/internal/obs"
	"github.com/jamesross/log-aggregator/internal/supervisor"
)

var version = "dev"

func main() {
	var role string
	var configPath string
	var showVersion bool

	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	fs.StringVar(&role, "role", "all", "Role to run: api|worker|all")
	fs.StringVar(&configPath, "config", "config/config.yaml", "Path to YAML config")
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	_ = fs.Parse(os.Args[1:])

	if showVersion {
		fmt.Println(version)
		return
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := obs.NewLogger(cfg.Observability.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	var r supervisor.Role
	switch role {
	case "api":
		r = supervisor.RoleAPI
	case "worker":
		r = supervisor.RoleWorker
	case "all":
		r = supervisor.RoleAll
	default:
		logger.Fatal("unknown role", obs.String("role", role))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := supervisor.Start(ctx, cfg, logger, r)
	if err != nil {
		logger.Fatal("startup failed", obs.Err(err))
	}
	logger.Info("aggregator started", obs.String("role", role))

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("signal received, shutting down", obs.String("signal", sig.String()))
	cancel()

	shutdownDone := make(chan struct{})
	go func() {
		app.Shutdown(context.Background())
		close(shutdownDone)
	}()

	select {
	case <-shutdownDone:
	case sig2 := <-sigCh:
		logger.Warn("second signal received, exiting immediately", obs.String("signal", sig2.String()))
		os.Exit(1)
	case <-time.After(10 * time.Second):
		logger.Warn("shutdown timed out, exiting")
		os.Exit(1)
	}
}
