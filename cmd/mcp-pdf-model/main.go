package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/a3tai/mcp-pdf-model/internal/config"
	"github.com/a3tai/mcp-pdf-model/internal/logging"
	"github.com/a3tai/mcp-pdf-model/internal/mcp"
	"github.com/a3tai/mcp-pdf-model/internal/pdf"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// setupLogging configures logging based on the server mode and installs
// the process-wide leveled logger
func setupLogging(cfg *config.Config) *logging.Logger {
	if cfg.IsStdioMode() {
		// stdout carries the MCP protocol in stdio mode
		log.SetOutput(os.Stderr)
		if !cfg.IsDebug() {
			log.SetOutput(io.Discard)
		}
	} else {
		log.SetOutput(os.Stdout)
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logging.InfoLevel
	}
	logger := logging.New(nil, level)
	logging.SetDefault(logger)
	return logger
}

// newSession creates the document session described by cfg
func newSession(cfg *config.Config, logger *logging.Logger) (*pdf.Session, error) {
	return pdf.NewSession(pdf.SessionConfig{
		MaxFileSize:  cfg.MaxFileSize,
		Directory:    cfg.PDFDirectory,
		Codec:        cfg.Codec,
		StripControl: cfg.StripControl,
		ImageDir:     cfg.ImageDirectory,
		LayoutParams: cfg.LayoutParams(),
		Logger:       logger,
	})
}

// runServerMode handles server mode execution with signal handling
func runServerMode(ctx context.Context, cancel context.CancelFunc, server *mcp.Server, logger *logging.Logger) {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.Run(ctx)
	}()

	select {
	case sig := <-signalCh:
		logger.Infof("Received signal: %s", sig)
		logger.Infof("Initiating graceful shutdown...")
		cancel()

		if err := <-serverErrCh; err != nil {
			logger.Errorf("Server shutdown with error: %v", err)
			os.Exit(1)
		}

	case err := <-serverErrCh:
		if err != nil {
			logger.Errorf("Server error: %v", err)
			os.Exit(1)
		}
	}

	logger.Infof("Server stopped successfully")
}

// runStdioMode handles stdio mode execution. The parent process controls
// the lifecycle; the server stops when stdin is closed or on SIGINT/SIGTERM.
func runStdioMode(ctx context.Context, cancel context.CancelFunc, server *mcp.Server, logger *logging.Logger) {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signalCh
		cancel()
	}()

	if err := server.Run(ctx); err != nil {
		logger.Errorf("Server error: %v", err)
		os.Exit(1)
	}
}

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion(os.Stdout)
			return
		}
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := setupLogging(cfg)

	if version != "dev" {
		cfg.Version = version
	}

	if cfg.IsDebug() && cfg.IsServerMode() {
		logger.Debugf("Starting with configuration: %s", cfg.String())
	}

	session, err := newSession(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to create PDF session: %v", err)
	}

	server, err := mcp.NewServer(cfg, session)
	if err != nil {
		log.Fatalf("Failed to create MCP server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.IsServerMode() {
		runServerMode(ctx, cancel, server, logger)
	} else {
		runStdioMode(ctx, cancel, server, logger)
	}
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "MCP PDF Model\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
