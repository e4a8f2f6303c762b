package calendar_tools

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/calwhisper/calwhisper/internal/calendar"
	"github.com/calwhisper/calwhisper/internal/server"
)

// RegisterEventTools registers the create, remove, and update tools.
func RegisterEventTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	createTool := mcp.NewTool("create_calendar_event",
		mcp.WithDescription("Create a new calendar event"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Name/title of the event"),
		),
		mcp.WithString("date",
			mcp.Required(),
			mcp.Description("Date of the event in YYYY-MM-DD format"),
		),
		mcp.WithString("time",
			mcp.Required(),
			mcp.Description("Time of the event in HH:MM format (24-hour)"),
		),
		mcp.WithString("location",
			mcp.Description("Location of the event (optional)"),
		),
	)
	s.AddTool(createTool, instrument(sc, "create_calendar_event", "creating calendar event",
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateEvent(ctx, request, sc)
		}))

	removeTool := mcp.NewTool("remove_calendar_event",
		mcp.WithDescription("Remove a calendar event by event name/summary and optional date. Deletes the first match."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Event name or summary to search for (required)"),
		),
		mcp.WithString("date",
			mcp.Description("Date of the event in YYYY-MM-DD format (optional)"),
		),
	)
	s.AddTool(removeTool, instrument(sc, "remove_calendar_event", "removing calendar event",
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleRemoveEvent(ctx, request, sc)
		}))

	updateTool := mcp.NewTool("update_calendar_event",
		mcp.WithDescription("Update an existing calendar event by event name/summary and optional date. You can change the title, date, time, or location. Only updates provided fields."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Event name or summary to search for (required)"),
		),
		mcp.WithString("date",
			mcp.Description("Date of the event in YYYY-MM-DD format (optional)"),
		),
		mcp.WithString("newTitle",
			mcp.Description("New title for the event (optional)"),
		),
		mcp.WithString("newDate",
			mcp.Description("New date in YYYY-MM-DD format (optional)"),
		),
		mcp.WithString("newTime",
			mcp.Description("New time in HH:MM format (24-hour, optional)"),
		),
		mcp.WithString("newLocation",
			mcp.Description("New location for the event (optional)"),
		),
	)
	s.AddTool(updateTool, instrument(sc, "update_calendar_event", "updating calendar event",
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleUpdateEvent(ctx, request, sc)
		}))

	return nil
}

func handleCreateEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	name, err := requiredString(args, "name")
	if err != nil {
		return nil, err
	}
	date, err := requiredString(args, "date")
	if err != nil {
		return nil, err
	}
	rawTime, err := requiredString(args, "time")
	if err != nil {
		return nil, err
	}
	location := optionalString(args, "location")

	clock, err := sc.Resolver().ResolveTime(ctx, rawTime)
	if err != nil {
		return nil, err
	}
	if !clock.Valid() {
		return nil, fmt.Errorf("resolved time %s is out of range", clock)
	}

	loc := sc.Location()
	day, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}

	start := time.Date(day.Year(), day.Month(), day.Day(), clock.Hour, clock.Minute, 0, 0, loc)
	draft := calendar.EventDraft{
		Summary:  name,
		Location: location,
		Start:    start,
		End:      start.Add(sc.Config().Server.EventDuration),
		TimeZone: sc.Config().Server.Timezone,
	}

	if _, err := sc.Calendar().InsertEvent(ctx, sc.Config().Google.CalendarID, draft, loc); err != nil {
		return nil, err
	}

	text := fmt.Sprintf("✅ Created event %q on %s at %s", name, date, rawTime)
	if location != "" {
		text += fmt.Sprintf(" at %s", location)
	}
	return mcp.NewToolResultText(text), nil
}

func handleRemoveEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	query, err := requiredString(args, "query")
	if err != nil {
		return nil, err
	}
	date := optionalString(args, "date")

	match, found, err := lookupEvent(ctx, sc, query, date)
	if err != nil {
		return nil, err
	}
	if !found {
		return noMatchResult(query, date), nil
	}

	if err := sc.Calendar().DeleteEvent(ctx, sc.Config().Google.CalendarID, match.ID); err != nil {
		return nil, err
	}

	text := fmt.Sprintf("✅ Deleted event: %q", match.Name)
	if match.Start != nil {
		text += fmt.Sprintf(" at %s", match.Start.In(sc.Location()).Format(time.RFC3339))
	}
	return mcp.NewToolResultText(text), nil
}

func handleUpdateEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	query, err := requiredString(args, "query")
	if err != nil {
		return nil, err
	}
	date := optionalString(args, "date")
	newTitle := optionalString(args, "newTitle")
	newDate := optionalString(args, "newDate")
	newTime := optionalString(args, "newTime")
	newLocation := optionalString(args, "newLocation")

	match, found, err := lookupEvent(ctx, sc, query, date)
	if err != nil {
		return nil, err
	}
	if !found {
		return noMatchResult(query, date), nil
	}

	patch := calendar.EventPatch{
		Summary:  newTitle,
		Location: newLocation,
	}

	if newDate != "" || newTime != "" {
		start, err := rescheduledStart(match, newDate, newTime, sc.Location())
		if err != nil {
			return nil, err
		}
		end := start.Add(sc.Config().Server.EventDuration)
		patch.Start = &start
		patch.End = &end
		patch.TimeZone = match.TimeZone
		if patch.TimeZone == "" {
			patch.TimeZone = sc.Config().Server.Timezone
		}
	}

	if _, err := sc.Calendar().PatchEvent(ctx, sc.Config().Google.CalendarID, match.ID, patch, sc.Location()); err != nil {
		return nil, err
	}

	text := fmt.Sprintf("✅ Updated event: %q", match.Name)
	if newTitle != "" {
		text += fmt.Sprintf(" to %q", newTitle)
	}
	if newDate != "" || newTime != "" {
		text += " with new date/time"
	}
	if newLocation != "" {
		text += fmt.Sprintf(" at %s", newLocation)
	}
	return mcp.NewToolResultText(text), nil
}

// lookupEvent lists events inside the lookup window and returns the first
// title match.
func lookupEvent(ctx context.Context, sc *server.ServerContext, query, date string) (calendar.EventRecord, bool, error) {
	loc := sc.Location()
	timeMin, timeMax, err := lookupWindow(date, time.Now(), loc)
	if err != nil {
		return calendar.EventRecord{}, false, err
	}

	events, err := sc.Calendar().ListEvents(ctx, sc.Config().Google.CalendarID, timeMin, timeMax,
		sc.Config().Server.MaxLookupResults, loc)
	if err != nil {
		return calendar.EventRecord{}, false, err
	}

	match, found := findMatch(events, query)
	return match, found, nil
}

// rescheduledStart computes the new start instant for an update. Pieces not
// supplied are taken from the event's existing start; an event with no start
// falls back to the epoch date and midnight.
func rescheduledStart(match calendar.EventRecord, newDate, newTime string, loc *time.Location) (time.Time, error) {
	dateStr := newDate
	if dateStr == "" {
		if match.Start != nil {
			dateStr = match.Start.In(loc).Format("2006-01-02")
		} else {
			dateStr = "1970-01-01"
		}
	}
	day, err := time.ParseInLocation("2006-01-02", dateStr, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", dateStr, err)
	}

	hour, minute := 0, 0
	if newTime != "" {
		if _, err := fmt.Sscanf(newTime, "%d:%d", &hour, &minute); err != nil {
			return time.Time{}, fmt.Errorf("invalid time %q: %w", newTime, err)
		}
	} else if match.Start != nil {
		existing := match.Start.In(loc)
		hour, minute = existing.Hour(), existing.Minute()
	}

	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc), nil
}
