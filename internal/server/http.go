package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/calwhisper/calwhisper/internal/instrumentation"
)

// Transport types for the MCP server.
const (
	TransportStdio          = "stdio"
	TransportStreamableHTTP = "streamable-http"
	TransportSSE            = "sse"
)

// HTTPServerConfig holds the settings for the MCP HTTP transport.
type HTTPServerConfig struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// Transport is "streamable-http" or "sse".
	Transport string

	// MCPServer is the tool-bearing MCP server to expose.
	MCPServer *mcpserver.MCPServer

	// Health registers probe endpoints when set.
	Health *HealthChecker

	// Metrics records per-request metrics when set.
	Metrics *instrumentation.Metrics
}

// HTTPServer exposes the MCP server over HTTP alongside health endpoints.
type HTTPServer struct {
	config     HTTPServerConfig
	httpServer *http.Server
}

// NewHTTPServer validates the transport and builds the server.
func NewHTTPServer(config HTTPServerConfig) (*HTTPServer, error) {
	if config.MCPServer == nil {
		return nil, fmt.Errorf("MCP server is required")
	}
	switch config.Transport {
	case TransportStreamableHTTP, TransportSSE:
	default:
		return nil, fmt.Errorf("unsupported transport: %s", config.Transport)
	}
	return &HTTPServer{config: config}, nil
}

// Start blocks serving HTTP until Shutdown or a listener error.
func (s *HTTPServer) Start() error {
	mux := http.NewServeMux()

	switch s.config.Transport {
	case TransportSSE:
		sseServer := mcpserver.NewSSEServer(s.config.MCPServer,
			mcpserver.WithSSEEndpoint("/sse"),
			mcpserver.WithMessageEndpoint("/message"),
		)
		mux.Handle("/sse", sseServer)
		mux.Handle("/message", sseServer)

	case TransportStreamableHTTP:
		streamableServer := mcpserver.NewStreamableHTTPServer(s.config.MCPServer,
			mcpserver.WithEndpointPath("/mcp"),
		)
		mux.Handle("/mcp", streamableServer)
	}

	if s.config.Health != nil {
		s.config.Health.RegisterHealthEndpoints(mux)
	}

	s.httpServer = &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.requestMetrics(mux),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains the HTTP server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// requestMetrics wraps a handler to record request counts and latency.
func (s *HTTPServer) requestMetrics(next http.Handler) http.Handler {
	if s.config.Metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		s.config.Metrics.RecordHTTPRequest(r.Context(), r.Method, r.URL.Path, recorder.status, time.Since(start))
	})
}

// statusRecorder captures the response status for metrics. Only WriteHeader
// is intercepted; streaming responses that use Flush pass through.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
