package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/calwhisper/calwhisper/internal/server"
)

// RegisterCalendarResources registers read-only resources that describe
// the calendars and scheduling defaults the server operates on.
func RegisterCalendarResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	calendarsResource := mcp.NewResource(
		"calendar://calendars",
		"Accessible Calendars",
		mcp.WithResourceDescription("Calendars visible to the service account"),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(calendarsResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleCalendarList(ctx, request, sc)
	})

	settingsResource := mcp.NewResource(
		"calendar://settings",
		"Scheduling Settings",
		mcp.WithResourceDescription("Timezone, target calendar and scheduling defaults"),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(settingsResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleSchedulingSettings(ctx, request, sc)
	})

	return nil
}

// handleCalendarList returns the calendars the service account can see.
func handleCalendarList(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	calendars, err := sc.Calendar().ListCalendars(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}

	entries := make([]map[string]interface{}, 0, len(calendars))
	for _, c := range calendars {
		entries = append(entries, map[string]interface{}{
			"id":       c.ID,
			"summary":  c.Summary,
			"timeZone": c.TimeZone,
			"primary":  c.Primary,
		})
	}

	jsonData, err := json.MarshalIndent(map[string]interface{}{
		"calendars": entries,
		"count":     len(entries),
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal calendar list: %w", err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}

// handleSchedulingSettings reports the non-secret parts of the server
// configuration so clients can see how requests will be interpreted.
func handleSchedulingSettings(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	cfg := sc.Config()

	settingsData := map[string]interface{}{
		"calendarId":       cfg.Google.CalendarID,
		"timezone":         cfg.Server.Timezone,
		"maxQueryResults":  cfg.Server.MaxQueryResults,
		"maxLookupResults": cfg.Server.MaxLookupResults,
		"eventDuration":    cfg.Server.EventDuration.String(),
		"resolverModel":    cfg.AI.ResolverModel,
		"narratorModel":    cfg.AI.NarratorModel,
		"narrationTimeout": cfg.AI.NarrationTimeout.String(),
	}

	jsonData, err := json.MarshalIndent(settingsData, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal settings: %w", err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}
