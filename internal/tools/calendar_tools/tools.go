package calendar_tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/calwhisper/calwhisper/internal/calendar"
	"github.com/calwhisper/calwhisper/internal/logging"
	"github.com/calwhisper/calwhisper/internal/server"
)

// toolFunc is the inner handler shape. A returned error becomes a marked
// error message in the tool result; the MCP-level error stays nil so clients
// always get renderable text.
type toolFunc func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// RegisterCalendarTools registers all calendar tools with the MCP server.
func RegisterCalendarTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if err := RegisterQueryTools(s, sc); err != nil {
		return fmt.Errorf("failed to register query tools: %w", err)
	}
	if err := RegisterEventTools(s, sc); err != nil {
		return fmt.Errorf("failed to register event tools: %w", err)
	}
	return nil
}

// instrument wraps a handler with metrics, logging, and error rendering.
func instrument(sc *server.ServerContext, toolName, action string, h toolFunc) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		result, err := h(ctx, request)

		status := logging.StatusSuccess
		if err != nil {
			status = logging.StatusError
			result = errorResult(action, err)
			sc.Logger().Error("tool failed",
				logging.KeyTool, toolName,
				logging.KeyError, err.Error(),
			)
		}

		duration := time.Since(start)
		sc.Metrics().RecordToolInvocation(ctx, toolName, status, duration)
		sc.Logger().Info("tool invocation",
			logging.KeyTool, toolName,
			logging.KeyStatus, status,
			logging.KeyDuration, duration.String(),
		)

		return result, nil
	}
}

// errorResult renders a failure as user-facing text with the error marker.
func errorResult(action string, err error) *mcp.CallToolResult {
	return mcp.NewToolResultText(fmt.Sprintf("❌ Error %s: %v", action, err))
}

func requiredString(args map[string]interface{}, key string) (string, error) {
	val, ok := args[key].(string)
	if !ok || val == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return val, nil
}

func optionalString(args map[string]interface{}, key string) string {
	val, _ := args[key].(string)
	return val
}

// lookupWindow computes the search window for title matching. With an
// explicit date the window covers that whole day; otherwise it spans from the
// most recent Sunday through the Saturday of the following week.
func lookupWindow(date string, now time.Time, loc *time.Location) (time.Time, time.Time, error) {
	if date != "" {
		day, err := time.ParseInLocation("2006-01-02", date, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
		}
		return day, endOfDay(day), nil
	}

	now = now.In(loc)
	weekStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc).
		AddDate(0, 0, -int(now.Weekday()))
	weekEnd := endOfDay(weekStart.AddDate(0, 0, 13))
	return weekStart, weekEnd, nil
}

func endOfDay(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, 999_000_000, day.Location())
}

// findMatch returns the first event whose name contains the query,
// case-insensitively. The boolean reports whether a match was found.
func findMatch(events []calendar.EventRecord, query string) (calendar.EventRecord, bool) {
	needle := strings.ToLower(query)
	for _, ev := range events {
		if strings.Contains(strings.ToLower(ev.Name), needle) {
			return ev, true
		}
	}
	return calendar.EventRecord{}, false
}

// noMatchResult is the normal (non-error) result when no event matched.
func noMatchResult(query, date string) *mcp.CallToolResult {
	text := fmt.Sprintf("❌ No event found matching %q", query)
	if date != "" {
		text += fmt.Sprintf(" on %s", date)
	}
	return mcp.NewToolResultText(text)
}
