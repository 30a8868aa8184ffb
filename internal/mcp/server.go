package mcp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/tipgen/internal/config"
	"github.com/nvandessel/tipgen/internal/logging"
	"github.com/nvandessel/tipgen/internal/ratelimit"
	"github.com/nvandessel/tipgen/internal/store"
)

// Server wraps the MCP SDK server and exposes dataset generation tools.
type Server struct {
	server       *sdk.Server
	store        store.Catalog
	generator    config.GeneratorConfig
	dataDir      string
	workDir      string
	logger       *slog.Logger
	runLog       *logging.RunLogger
	audit        *AuditLogger
	toolLimiters ratelimit.ToolLimiters
}

// Config holds server configuration.
type Config struct {
	Name      string                 // Server name (e.g., "tipgen")
	Version   string                 // Server version
	DataDir   string                 // Catalog, audit and run log location
	WorkDir   string                 // Second directory output files may be written to
	Generator config.GeneratorConfig // Base distribution parameters for tipgen_generate
	Logger    *slog.Logger           // Operational log; discarded when nil
	RunLog    *logging.RunLogger     // Per-run JSONL log; may be nil
}

// NewServer opens the dataset catalog under cfg.DataDir and registers the
// tipgen tools.
func NewServer(cfg *Config) (*Server, error) {
	if err := cfg.Generator.Validate(); err != nil {
		return nil, err
	}

	catalog, err := store.Open(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset catalog: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &sdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, req *sdk.InitializedRequest) {
			logger.Debug("mcp client initialized")
		},
	})

	s := &Server{
		server:       mcpServer,
		store:        catalog,
		generator:    cfg.Generator.Clone(),
		dataDir:      cfg.DataDir,
		workDir:      cfg.WorkDir,
		logger:       logger,
		runLog:       cfg.RunLog,
		audit:        NewAuditLogger(cfg.DataDir),
		toolLimiters: ratelimit.NewToolLimiters(),
	}

	s.registerTools()
	return s, nil
}

// Run serves over stdio until the client disconnects, the context is
// cancelled, or the process receives an interrupt.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			s.logger.Info("shutting down mcp server")
			cancel()
		case <-ctx.Done():
		}
	}()

	err := s.server.Run(ctx, &sdk.StdioTransport{})

	if cerr := s.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// Close releases the catalog and audit log.
func (s *Server) Close() error {
	if err := s.audit.Close(); err != nil {
		s.logger.Warn("closing audit log", "error", err)
	}
	return s.store.Close()
}
