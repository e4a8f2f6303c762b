package resources

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calwhisper/calwhisper/internal/calendar"
	"github.com/calwhisper/calwhisper/internal/config"
	"github.com/calwhisper/calwhisper/internal/server"
)

type fakeCalendar struct {
	calendars []calendar.CalendarInfo
	err       error
}

func (f *fakeCalendar) ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time, maxResults int64, loc *time.Location) ([]calendar.EventRecord, error) {
	return nil, nil
}

func (f *fakeCalendar) InsertEvent(ctx context.Context, calendarID string, draft calendar.EventDraft, loc *time.Location) (calendar.EventRecord, error) {
	return calendar.EventRecord{}, nil
}

func (f *fakeCalendar) PatchEvent(ctx context.Context, calendarID, eventID string, patch calendar.EventPatch, loc *time.Location) (calendar.EventRecord, error) {
	return calendar.EventRecord{}, nil
}

func (f *fakeCalendar) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	return nil
}

func (f *fakeCalendar) ListCalendars(ctx context.Context) ([]calendar.CalendarInfo, error) {
	return f.calendars, f.err
}

func (f *fakeCalendar) Subscribe(ctx context.Context, calendarID string) error {
	return nil
}

func newTestContext(t *testing.T) *server.ServerContext {
	t.Helper()

	cfg := config.Config{
		Google: config.Google{
			ClientEmail: "svc@test.iam.gserviceaccount.com",
			PrivateKey:  "test-key",
			CalendarID:  "team@example.com",
		},
		AI: config.AI{
			AccountID:        "acct",
			APIToken:         "token",
			ResolverModel:    config.DefaultResolverModel,
			NarratorModel:    config.DefaultNarratorModel,
			NarrationTimeout: config.DefaultNarrationTimeout,
		},
		Server: config.Server{
			Timezone:         "America/Los_Angeles",
			MaxQueryResults:  50,
			MaxLookupResults: 100,
			EventDuration:    config.DefaultEventDuration,
		},
	}

	sc, err := server.NewServerContext(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func readRequest(uri string) mcp.ReadResourceRequest {
	req := mcp.ReadResourceRequest{}
	req.Params.URI = uri
	return req
}

func TestRegisterCalendarResources(t *testing.T) {
	sc := newTestContext(t)
	mcpSrv := mcpserver.NewMCPServer("test", "0.0.0")

	err := RegisterCalendarResources(mcpSrv, sc)
	assert.NoError(t, err)
}

func TestHandleCalendarList(t *testing.T) {
	sc := newTestContext(t)
	sc.SetCalendar(&fakeCalendar{
		calendars: []calendar.CalendarInfo{
			{ID: "team@example.com", Summary: "Team", TimeZone: "America/Los_Angeles", Primary: true},
			{ID: "ops@example.com", Summary: "Ops", TimeZone: "UTC"},
		},
	})

	contents, err := handleCalendarList(context.Background(), readRequest("calendar://calendars"), sc)
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text, ok := contents[0].(*mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, "calendar://calendars", text.URI)
	assert.Equal(t, "application/json", text.MIMEType)

	var payload struct {
		Calendars []map[string]interface{} `json:"calendars"`
		Count     int                      `json:"count"`
	}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &payload))
	assert.Equal(t, 2, payload.Count)
	assert.Equal(t, "team@example.com", payload.Calendars[0]["id"])
	assert.Equal(t, true, payload.Calendars[0]["primary"])
}

func TestHandleCalendarListError(t *testing.T) {
	sc := newTestContext(t)
	sc.SetCalendar(&fakeCalendar{err: assert.AnError})

	_, err := handleCalendarList(context.Background(), readRequest("calendar://calendars"), sc)
	assert.ErrorContains(t, err, "failed to list calendars")
}

func TestHandleSchedulingSettings(t *testing.T) {
	sc := newTestContext(t)

	contents, err := handleSchedulingSettings(context.Background(), readRequest("calendar://settings"), sc)
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text, ok := contents[0].(*mcp.TextResourceContents)
	require.True(t, ok)

	var settings map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &settings))
	assert.Equal(t, "team@example.com", settings["calendarId"])
	assert.Equal(t, "America/Los_Angeles", settings["timezone"])
	assert.Equal(t, "1h0m0s", settings["eventDuration"])
	assert.NotContains(t, settings, "privateKey")
	assert.NotContains(t, settings, "apiToken")
}
