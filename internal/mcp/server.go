package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/mcp-pdf-model/internal/config"
	"github.com/a3tai/mcp-pdf-model/internal/logging"
	"github.com/a3tai/mcp-pdf-model/internal/pdf"
)

const shutdownTimeout = 5 * time.Second

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	session   *pdf.Session
	mcpServer *server.MCPServer
	logger    *logging.Logger
}

// NewServer creates a new MCP server instance serving the session
func NewServer(cfg *config.Config, session *pdf.Session) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if session == nil {
		return nil, fmt.Errorf("session cannot be nil")
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // the tool set is fixed
		server.WithRecovery(),
	)

	s := &Server{
		config:    cfg,
		session:   session,
		mcpServer: mcpServer,
		logger:    logging.Default(),
	}

	s.registerTools()

	return s, nil
}

// Run starts the MCP server in the configured mode and blocks until ctx is
// cancelled or the transport stops
func (s *Server) Run(ctx context.Context) error {
	defer func() {
		if err := s.session.CloseAll(); err != nil {
			s.logger.Warnf("failed to close documents: %v", err)
		}
	}()

	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	}
	return s.runStdioMode(ctx)
}

// runStdioMode serves MCP over standard input and output
func (s *Server) runStdioMode(ctx context.Context) error {
	s.logger.Debugf("Starting PDF MCP server in stdio mode")
	s.logger.Debugf("PDF directory: %s", s.config.PDFDirectory)
	return s.serveStdio(ctx, os.Stdin, os.Stdout)
}

func (s *Server) serveStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(s.logger.StdLogger())

	if err := stdio.Listen(ctx, in, out); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode serves MCP over streamable HTTP on the configured address
func (s *Server) runServerMode(ctx context.Context) error {
	httpServer := server.NewStreamableHTTPServer(s.mcpServer)
	addr := s.config.Address()
	s.logger.Infof("Starting PDF MCP server on http://%s/mcp", addr)
	s.logger.Infof("PDF directory: %s", s.config.PDFDirectory)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve http: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down http server: %w", err)
		}
		s.logger.Infof("PDF MCP server stopped")
		return nil
	}
}
