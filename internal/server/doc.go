// Package server wires the MCP server's dependencies and exposes them over
// stdio or HTTP transports, with health probes and a dedicated metrics
// listener.
package server
