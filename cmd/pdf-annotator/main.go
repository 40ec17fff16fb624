package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/a3tai/mcp-pdf-annotator/internal/annotation"
	"github.com/a3tai/mcp-pdf-annotator/internal/config"
	"github.com/a3tai/mcp-pdf-annotator/internal/export"
	"github.com/a3tai/mcp-pdf-annotator/internal/mcp"
	"github.com/a3tai/mcp-pdf-annotator/internal/storage"
	"github.com/a3tai/mcp-pdf-annotator/internal/viewer"
	"github.com/spf13/afero"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// setupLogging configures logging based on the server mode
func setupLogging(cfg *config.Config) {
	if cfg.IsStdioMode() {
		// stdout carries the MCP protocol in stdio mode
		log.SetOutput(os.Stderr)
		if !cfg.IsDebug() {
			log.SetOutput(os.NewFile(0, os.DevNull))
		}
	} else {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}
}

// openState opens the persisted settings. An unreadable state file is logged
// and replaced by an in-memory store so the viewer still starts.
func openState(fs afero.Fs, cfg *config.Config) annotation.KeyValueStore {
	kv, err := storage.NewFileStore(fs, cfg.StateFile)
	if err != nil {
		log.Printf("Settings will not be persisted: %v", err)
		return storage.NewMemoryStore()
	}
	return kv
}

// buildServer wires the viewer core, exporter and MCP transport
func buildServer(ctx context.Context, cfg *config.Config, fs afero.Fs) (*mcp.Server, error) {
	alerts := viewer.NewAlertLog(cfg.IsDebug())

	controller, err := viewer.NewController(ctx, viewer.Options{
		KV:          openState(fs, cfg),
		Scheduler:   viewer.NewDelayScheduler(cfg.ApplyDelay),
		Notifier:    alerts,
		CustomColor: cfg.CustomColor,
		Debug:       cfg.IsDebug(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create viewer: %w", err)
	}

	return mcp.NewServer(cfg, mcp.Dependencies{
		Controller: controller,
		Exporter:   export.NewExporter(fs, cfg.OutputDirectory),
		Alerts:     alerts,
		DocumentFS: fs,
	})
}

// runServerMode handles server mode execution with signal handling
func runServerMode(ctx context.Context, cancel context.CancelFunc, server *mcp.Server) {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.Run(ctx)
	}()

	select {
	case sig := <-signalCh:
		log.Printf("Received signal: %s", sig)
		log.Println("Initiating graceful shutdown...")
		cancel()

		if err := <-serverErrCh; err != nil {
			log.Printf("Server shutdown with error: %v", err)
			os.Exit(1)
		}

	case err := <-serverErrCh:
		if err != nil {
			log.Printf("Server error: %v", err)
			os.Exit(1)
		}
	}

	log.Println("Server stopped successfully")
}

// runStdioMode handles stdio mode execution
func runStdioMode(ctx context.Context, _ context.CancelFunc, server *mcp.Server) {
	// the parent process controls our lifecycle; exit when stdin closes
	if err := server.Run(ctx); err != nil {
		if os.Getenv("DEBUG") != "" {
			log.Printf("Server error: %v", err)
		}
		os.Exit(1)
	}
}

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion()
			return
		}
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	setupLogging(cfg)

	if version != "dev" {
		cfg.Version = version
	}

	if cfg.IsDebug() && cfg.IsServerMode() {
		log.Printf("Starting with configuration: %s", cfg.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server, err := buildServer(ctx, cfg, afero.NewOsFs())
	if err != nil {
		log.Fatalf("Failed to create MCP server: %v", err)
	}
	defer server.Close()

	if cfg.IsServerMode() {
		runServerMode(ctx, cancel, server)
	} else {
		runStdioMode(ctx, cancel, server)
	}
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("MCP PDF Annotator\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
