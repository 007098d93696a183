// Package server provides a factory for creating the MCP server.
package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/txn2/mcp-athena/pkg/athena"
	"github.com/txn2/mcp-athena/pkg/catalog"
	"github.com/txn2/mcp-athena/pkg/config"
	"github.com/txn2/mcp-athena/pkg/health"
	"github.com/txn2/mcp-athena/pkg/middleware"
	"github.com/txn2/mcp-athena/pkg/query"
	"github.com/txn2/mcp-athena/pkg/tools"
)

// Version is set at build time.
var Version = "dev"

// Server bundles the MCP server with its supporting components.
type Server struct {
	MCP     *mcp.Server
	Toolkit *tools.Toolkit
	Health  *health.Checker
}

// New wires the engine client, query service, catalog adapter, and toolkit
// into an MCP server. The configuration is immutable from here on.
func New(ctx context.Context, cfg *config.Config) (*Server, error) {
	engine, err := athena.New(ctx, athena.Config{Region: cfg.Athena.Region})
	if err != nil {
		return nil, fmt.Errorf("creating athena client: %w", err)
	}
	return newWithEngine(cfg, engine), nil
}

// newWithEngine builds the server over an engine facade. Split out so tests
// can substitute a fake engine.
func newWithEngine(cfg *config.Config, engine athena.API) *Server {
	controller := query.NewController(engine, cfg.Athena.Poll)
	assembler := query.NewAssembler(engine)
	runner := query.NewService(controller, assembler, slog.Default())
	adapter := catalog.New(engine)

	toolkit := tools.New(cfg.Server.Name, tools.Config{
		Catalog:        cfg.Athena.Catalog,
		Database:       cfg.Athena.Database,
		Workgroup:      cfg.Athena.Workgroup,
		OutputLocation: cfg.Athena.OutputLocation,
		MaxResults:     cfg.Athena.MaxResults,
		MaxWaitSeconds: cfg.Athena.MaxWaitSeconds,
	}, runner, adapter)

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Server.Name,
		Version: cfg.Server.Version,
	}, nil)
	mcpServer.AddReceivingMiddleware(middleware.ToolLogging(slog.Default()))
	toolkit.RegisterTools(mcpServer)

	checker := health.NewChecker(func(ctx context.Context) error {
		_, err := adapter.ListDatabases(ctx, cfg.Athena.Catalog)
		return err
	})

	return &Server{
		MCP:     mcpServer,
		Toolkit: toolkit,
		Health:  checker,
	}
}
