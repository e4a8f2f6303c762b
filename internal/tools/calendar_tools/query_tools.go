package calendar_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/calwhisper/calwhisper/internal/assistant"
	"github.com/calwhisper/calwhisper/internal/logging"
	"github.com/calwhisper/calwhisper/internal/server"
)

// RegisterQueryTools registers the natural-language query tool.
func RegisterQueryTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	queryTool := mcp.NewTool("query_google_calendar",
		mcp.WithDescription("Query Google Calendar events and shape data"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query for calendar events on a certain date"),
		),
	)

	s.AddTool(queryTool, instrument(sc, "query_google_calendar", "querying calendar",
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleQueryCalendar(ctx, request, sc)
		}))

	return nil
}

func handleQueryCalendar(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	query, err := requiredString(args, "query")
	if err != nil {
		return nil, err
	}

	window, err := sc.Resolver().ResolveDateRange(ctx, query)
	if err != nil {
		return nil, err
	}
	sc.Logger().Debug("resolved query window",
		"start", window.Start.String(), "end", window.End.String())

	cal := sc.Calendar()
	calendarID := sc.Config().Google.CalendarID

	// Keeps the configured calendar on the service account's list; harmless
	// when already subscribed.
	if err := cal.Subscribe(ctx, calendarID); err != nil {
		return nil, err
	}

	calendars, err := cal.ListCalendars(ctx)
	if err != nil {
		return nil, err
	}
	if len(calendars) == 0 {
		return nil, assistant.ErrNoAccessibleCalendars
	}
	sc.Logger().Debug("subscribed calendars", "count", len(calendars))

	events, err := cal.ListEvents(ctx, calendars[0].ID, window.Start, window.End,
		sc.Config().Server.MaxQueryResults, sc.Location())
	if err != nil {
		return nil, err
	}
	sc.Logger().Info("query matched events",
		logging.KeyCalendar, logging.AnonymizeCalendarID(calendars[0].ID),
		"count", len(events),
	)

	summary := sc.Narrator().Summarize(ctx, query, events, window)
	return mcp.NewToolResultText(summary), nil
}
