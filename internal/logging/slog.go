package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
)

// Common log attribute keys for consistent naming across the codebase.
const (
	KeyTool      = "tool"
	KeyOperation = "operation"
	KeyModel     = "model"
	KeyCalendar  = "calendar"
	KeyStatus    = "status"
	KeyDuration  = "duration"
	KeyError     = "error"
)

// Status values for consistent logging.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Setup configures the default slog logger. The MCP stdio transport owns
// stdout, so logs always go to the writer passed in (normally stderr).
func Setup(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// WithTool returns a logger with the tool attribute set.
func WithTool(logger *slog.Logger, tool string) *slog.Logger {
	return logger.With(slog.String(KeyTool, tool))
}

// WithOperation returns a logger with the operation attribute set.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String(KeyOperation, operation))
}

// Tool returns a slog attribute for the tool name.
func Tool(tool string) slog.Attr {
	return slog.String(KeyTool, tool)
}

// Operation returns a slog attribute for the operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Model returns a slog attribute for a text-generation model identifier.
func Model(model string) slog.Attr {
	return slog.String(KeyModel, model)
}

// Status returns a slog attribute for the status.
func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// Err returns a slog attribute for an error. If err is nil it returns an
// empty Group attribute that slog omits from output, so Err(maybeNilErr) is
// always safe to pass.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// AnonymizeCalendarID returns a hashed representation of a calendar ID for
// logging. Calendar IDs are email addresses, so this keeps PII out of logs
// while still allowing correlation of entries.
func AnonymizeCalendarID(id string) string {
	if id == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(id))
	return "cal:" + hex.EncodeToString(hash[:8])
}

// Calendar returns a slog attribute with the anonymized calendar ID.
func Calendar(id string) slog.Attr {
	return slog.String(KeyCalendar, AnonymizeCalendarID(id))
}
