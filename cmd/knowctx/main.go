package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/devctx/knowctx/internal/mcp"
	"github.com/devctx/knowctx/internal/storage"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("knowctx MCP Server\n")
		fmt.Printf("Version: %s\n", version)
		fmt.Printf("Build Time: %s\n", buildTime)
		fmt.Printf("Build Mode: %s (%s)\n", storage.BuildMode, storage.DriverName)
		return
	}

	// stdout carries the MCP protocol; everything else goes to stderr
	log.SetOutput(os.Stderr)
	log.Printf("knowctx v%s starting (driver: %s)", version, storage.DriverName)

	if err := run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("Server stopped")
}

func run() error {
	server, err := mcp.NewServer(os.Getenv("KNOWCTX_DB_PATH"))
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		log.Println("MCP server ready, listening on stdio...")
		errChan <- server.Serve(ctx)
	}()

	select {
	case sig := <-sigChan:
		log.Printf("Received %v, shutting down", sig)
		cancel()
		return nil
	case err := <-errChan:
		return err
	}
}
