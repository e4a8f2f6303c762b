package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/calwhisper/calwhisper/internal/config"
	"github.com/calwhisper/calwhisper/internal/instrumentation"
	"github.com/calwhisper/calwhisper/internal/logging"
	"github.com/calwhisper/calwhisper/internal/resources"
	"github.com/calwhisper/calwhisper/internal/server"
	"github.com/calwhisper/calwhisper/internal/tools/calendar_tools"
)

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

func newServeCmd() *cobra.Command {
	var (
		debugMode      bool
		transport      string
		httpAddr       string
		metricsEnabled bool
		metricsAddr    string
		configFile     string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server exposing the calendar
assistant tools.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport on /mcp
  - sse: Server-sent events transport on /sse and /message

Configuration comes from environment variables or calwhisper.yaml:
  GOOGLE_CLIENT_EMAIL   Service account email (required)
  GOOGLE_PRIVATE_KEY    Service account private key, PEM (required)
  GOOGLE_CALENDAR_ID    Calendar to manage (required)
  AI_ACCOUNT_ID         Workers AI account ID (required)
  AI_API_TOKEN          Workers AI API token (required)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			metricsConfig := MetricsConfig{
				Enabled: metricsEnabled,
				Addr:    metricsAddr,
			}
			return runServe(transport, debugMode, httpAddr, configFile, metricsConfig)
		},
	}

	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport type: stdio, streamable-http, or sse")
	cmd.Flags().StringVar(&httpAddr, "http-addr", ":8080", "HTTP server address (for HTTP transports)")
	cmd.Flags().BoolVar(&metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port (HTTP transports only)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9090", "Metrics server address. Can also use METRICS_ADDR env var.")
	cmd.Flags().StringVar(&configFile, "config", "", "Path to a config file (default: calwhisper.yaml in . or /etc/calwhisper/)")

	return cmd
}

func runServe(transport string, debugMode bool, httpAddr, configFile string, metricsConfig MetricsConfig) error {
	// Graceful shutdown on SIGINT/SIGTERM.
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// The stdio transport owns stdout, so all logging goes to stderr.
	slogger := logging.Setup(os.Stderr, debugMode)
	logger := logging.NewSlogAdapter(slogger)

	cfg, err := config.LoadFile(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if metricsConfig.Addr == "" || metricsConfig.Addr == server.DefaultMetricsAddr {
		if addr := os.Getenv("METRICS_ADDR"); addr != "" {
			metricsConfig.Addr = addr
		}
	}

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	if err := instrConfig.Validate(); err != nil {
		return fmt.Errorf("invalid instrumentation configuration: %w", err)
	}

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			logger.Error("instrumentation shutdown failed", logging.KeyError, err.Error())
		}
	}()

	var metricsServer *server.MetricsServer
	if transport != server.TransportStdio && metricsConfig.Enabled && provider.Enabled() {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:     metricsConfig.Addr,
			Provider: provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}

		go func() {
			if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server failed", logging.KeyError, err.Error())
			}
		}()
		logger.Info("metrics server listening", "addr", metricsServer.Addr())
	}

	serverContext, err := server.NewServerContext(shutdownCtx, *cfg,
		server.WithLogger(logger),
		server.WithMetrics(provider.Metrics()),
	)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if metricsServer != nil {
			drainCtx, drainCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer drainCancel()
			if err := metricsServer.Shutdown(drainCtx); err != nil {
				logger.Error("metrics server shutdown failed", logging.KeyError, err.Error())
			}
		}
		if err := serverContext.Shutdown(); err != nil {
			logger.Error("server context shutdown failed", logging.KeyError, err.Error())
		}
	}()

	mcpSrv := mcpserver.NewMCPServer("calwhisper", version,
		mcpserver.WithToolCapabilities(true),
	)

	if err := registerAllTools(mcpSrv, serverContext); err != nil {
		return err
	}

	switch transport {
	case server.TransportStdio:
		return runStdioServer(mcpSrv)
	case server.TransportStreamableHTTP, server.TransportSSE:
		return runHTTPServer(shutdownCtx, mcpSrv, serverContext, provider, transport, httpAddr, logger)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http, sse)", transport)
	}
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, provider *instrumentation.Provider, transport, addr string, logger logging.Logger) error {
	health := server.NewHealthChecker(sc)

	httpServer, err := server.NewHTTPServer(server.HTTPServerConfig{
		Addr:      addr,
		Transport: transport,
		MCPServer: mcpSrv,
		Health:    health,
		Metrics:   provider.Metrics(),
	})
	if err != nil {
		return err
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		logger.Info("MCP server listening", "addr", addr, "transport", transport)
		if err := httpServer.Start(); err != nil && err != http.ErrServerClosed {
			serverDone <- err
		}
	}()

	select {
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("server stopped with error: %w", err)
		}
		return nil
	case <-ctx.Done():
		health.SetReady(false)
		drainCtx, drainCancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer drainCancel()
		if err := httpServer.Shutdown(drainCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	}
}

// registerAllTools registers all MCP tools and resources on the server.
func registerAllTools(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext) error {
	if err := calendar_tools.RegisterCalendarTools(mcpSrv, sc); err != nil {
		return fmt.Errorf("failed to register Calendar tools: %w", err)
	}
	if err := resources.RegisterCalendarResources(mcpSrv, sc); err != nil {
		return fmt.Errorf("failed to register Calendar resources: %w", err)
	}
	return nil
}
