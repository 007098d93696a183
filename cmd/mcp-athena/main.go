// Package main provides the entry point for the mcp-athena server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	mcpserver "github.com/txn2/mcp-athena/internal/server"
	"github.com/txn2/mcp-athena/pkg/config"
)

// httpShutdownTimeout bounds graceful HTTP shutdown on signal.
const httpShutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type serverOptions struct {
	configPath  string
	transport   string
	address     string
	showVersion bool
}

func parseFlags() serverOptions {
	opts := serverOptions{}
	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file (environment variables are used when omitted)")
	flag.StringVar(&opts.transport, "transport", "", "Transport type: stdio, http (overrides config)")
	flag.StringVar(&opts.address, "address", "", "Server address for HTTP transport (overrides config)")
	flag.BoolVar(&opts.showVersion, "version", false, "Show version and exit")
	flag.Parse()
	return opts
}

func setupSignalHandler() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
	return ctx
}

func loadConfig(opts serverOptions) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.Load(opts.configPath)
	} else {
		cfg, err = config.FromEnv()
	}
	if err != nil {
		return nil, err
	}

	if opts.transport != "" {
		cfg.Server.Transport = opts.transport
	}
	if opts.address != "" {
		cfg.Server.Address = opts.address
	}
	if cfg.Server.Version == "" {
		cfg.Server.Version = mcpserver.Version
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogging(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	// Logs go to stderr; stdout belongs to the stdio transport.
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}

func run() error {
	opts := parseFlags()

	if opts.showVersion {
		fmt.Printf("mcp-athena version %s\n", mcpserver.Version)
		return nil
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	setupLogging(cfg.Server.LogLevel)

	ctx := setupSignalHandler()

	srv, err := mcpserver.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer func() { _ = srv.Toolkit.Close() }()

	slog.Info("starting mcp-athena",
		"version", cfg.Server.Version,
		"transport", cfg.Server.Transport,
		"catalog", cfg.Athena.Catalog,
		"workgroup", cfg.Athena.Workgroup)

	switch cfg.Server.Transport {
	case "stdio":
		return runStdio(ctx, srv)
	case "http":
		return runHTTP(ctx, srv, cfg.Server.Address)
	default:
		return fmt.Errorf("unknown transport: %s", cfg.Server.Transport)
	}
}

func runStdio(ctx context.Context, srv *mcpserver.Server) error {
	if err := srv.MCP.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio transport: %w", err)
	}
	return nil
}

func runHTTP(ctx context.Context, srv *mcpserver.Server, address string) error {
	mux := http.NewServeMux()
	mux.Handle("/mcp", mcp.NewStreamableHTTPHandler(
		func(*http.Request) *mcp.Server { return srv.MCP }, nil))
	mux.HandleFunc("/healthz", srv.Health.LivenessHandler())
	mux.HandleFunc("/readyz", srv.Health.ReadinessHandler())

	httpServer := &http.Server{
		Addr:              address,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down http server: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http transport: %w", err)
	}
}
