package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mama165/sdk-go/logs"

	"github.com/Tyrowin/campuschat/internal/server"
)

// Exit codes reported to the service manager.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Campus chat server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run owns every resource so deferred cleanup executes before exit.
func run() (int, error) {
	cfg, err := server.LoadConfig()
	if err != nil {
		return exitConfig, err
	}

	logger := logs.GetLoggerFromString(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := server.OpenStore(ctx, cfg, logger)
	if err != nil {
		return exitRuntime, fmt.Errorf("session store: %w", err)
	}
	defer func() {
		logger.Info("Closing session store...", "backend", cfg.SessionStore)
		_ = store.Close()
	}()

	srv, err := server.New(cfg, store, logger)
	if err != nil {
		return exitConfig, err
	}
	srv.Start()

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		if err != nil {
			return exitRuntime, fmt.Errorf("http server error: %w", err)
		}
		return exitOK, nil
	}

	if err := srv.Shutdown(); err != nil {
		logger.Warn("Shutdown incomplete", "error", err)
	}
	logger.Info("Server stopped cleanly")
	return exitOK, nil
}
