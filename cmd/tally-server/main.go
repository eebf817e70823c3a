// Package main provides the HTTP API server for Talus Tally.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/PipeManMusic/Talus-Tally-sub000/internal/blueprint"
	"github.com/PipeManMusic/Talus-Tally-sub000/internal/config"
	projectfile "github.com/PipeManMusic/Talus-Tally-sub000/internal/project"
	"github.com/PipeManMusic/Talus-Tally-sub000/internal/server"
	"github.com/PipeManMusic/Talus-Tally-sub000/internal/session"
)

const version = "0.1.0"

func main() {
	blueprintPath := flag.String("blueprint", "", "blueprint file to preload a session from (requires -project)")
	projectPath := flag.String("project", "", "project file to preload a session from (requires -blueprint)")
	flag.Parse()

	// Load configuration
	cfg := config.Load()

	// Setup logger (dual output: stderr text + file JSON)
	logger, cleanup := config.SetupLogger(cfg)
	defer cleanup()

	logger.Info("tally-server starting",
		"version", version,
		"port", cfg.ServerPort,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	sessions := session.NewStore(logger)

	// Optionally preload one session from local files.
	if *blueprintPath != "" || *projectPath != "" {
		if *blueprintPath == "" || *projectPath == "" {
			logger.Error("-blueprint and -project must be given together")
			os.Exit(1)
		}
		bp, err := blueprint.Load(*blueprintPath)
		if err != nil {
			logger.Error("failed to load blueprint", "error", err)
			os.Exit(1)
		}
		p, err := projectfile.Load(*projectPath)
		if err != nil {
			logger.Error("failed to load project", "error", err)
			os.Exit(1)
		}
		sess := sessions.Create(p, bp)
		logger.Info("preloaded session", "session_id", sess.ID, "project", p.Name)
	}

	srv := server.New(":"+cfg.ServerPort, sessions, logger)
	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
