package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calwhisper/calwhisper/internal/ai"
)

type fakeGenerator struct {
	response    string
	err         error
	delay       time.Duration
	gotModel    string
	gotMessages []ai.Message
}

func (f *fakeGenerator) Run(ctx context.Context, model string, messages []ai.Message) (string, error) {
	f.gotModel = model
	f.gotMessages = messages
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.response, f.err
}

func testLocation(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)
	return loc
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestResolveDateRange(t *testing.T) {
	loc := testLocation(t)
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, loc) // a Wednesday

	tests := []struct {
		name       string
		response   string
		err        error
		wantStart  time.Time
		wantErr    bool
		wantReason string
	}{
		{
			name:      "valid range",
			response:  `{"startDate": "2026-03-05T00:00:00Z", "endDate": "2026-03-07T23:59:59Z"}`,
			wantStart: time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		},
		{
			name:       "model call fails",
			err:        errors.New("boom"),
			wantErr:    true,
			wantReason: "model call failed",
		},
		{
			name:       "not JSON",
			response:   "sorry, I cannot help with that",
			wantErr:    true,
			wantReason: "not valid JSON",
		},
		{
			name:       "missing endDate",
			response:   `{"startDate": "2026-03-05T00:00:00Z"}`,
			wantErr:    true,
			wantReason: "missing startDate or endDate",
		},
		{
			name:       "unparsable timestamp",
			response:   `{"startDate": "tomorrow", "endDate": "2026-03-07T23:59:59Z"}`,
			wantErr:    true,
			wantReason: "invalid startDate",
		},
		{
			name:       "inverted range",
			response:   `{"startDate": "2026-03-07T00:00:00Z", "endDate": "2026-03-05T00:00:00Z"}`,
			wantErr:    true,
			wantReason: "end date precedes start date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{response: tt.response, err: tt.err}
			r := NewResolver(gen, "test-model", loc, WithResolverClock(fixedClock(now)))

			got, err := r.ResolveDateRange(context.Background(), "events this week")
			if tt.wantErr {
				require.Error(t, err)
				var resErr *ResolutionError
				require.ErrorAs(t, err, &resErr)
				assert.Equal(t, "date range", resErr.Op)
				assert.Contains(t, resErr.Reason, tt.wantReason)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Start.Equal(tt.wantStart))
			assert.Equal(t, loc, got.Start.Location())
		})
	}
}

func TestResolveDateRangePromptAnchoring(t *testing.T) {
	loc := testLocation(t)
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, loc)
	gen := &fakeGenerator{response: `{"startDate": "2026-03-05T00:00:00Z", "endDate": "2026-03-05T23:59:59Z"}`}
	r := NewResolver(gen, "test-model", loc, WithResolverClock(fixedClock(now)))

	_, err := r.ResolveDateRange(context.Background(), "tomorrow")
	require.NoError(t, err)

	require.Len(t, gen.gotMessages, 2)
	assert.Equal(t, "system", gen.gotMessages[0].Role)
	prompt := gen.gotMessages[1].Content
	assert.Contains(t, prompt, "Wednesday")
	assert.Contains(t, prompt, now.Format(time.RFC3339))
	assert.Contains(t, prompt, `"tomorrow"`)
	assert.Equal(t, "test-model", gen.gotModel)
}

func TestResolveTime(t *testing.T) {
	loc := testLocation(t)

	tests := []struct {
		name       string
		response   string
		err        error
		want       ClockTime
		wantErr    bool
		wantReason string
	}{
		{
			name:     "clean JSON",
			response: `{"time": "14:30"}`,
			want:     ClockTime{Hour: 14, Minute: 30},
		},
		{
			name:     "JSON buried in chatter",
			response: `Sure! Here is the result: {"time": "09:05"} hope that helps`,
			want:     ClockTime{Hour: 9, Minute: 5},
		},
		{
			name:       "no braces at all",
			response:   "fourteen thirty",
			wantErr:    true,
			wantReason: "no JSON object",
		},
		{
			name:       "missing time field",
			response:   `{"hour": "14"}`,
			wantErr:    true,
			wantReason: "missing time field",
		},
		{
			name:       "malformed clock value",
			response:   `{"time": "2pm"}`,
			wantErr:    true,
			wantReason: "malformed clock time",
		},
		{
			name:       "model call fails",
			err:        errors.New("boom"),
			wantErr:    true,
			wantReason: "model call failed",
		},
		{
			// out-of-range values parse here; callers check Valid()
			name:     "out of range passes through",
			response: `{"time": "25:61"}`,
			want:     ClockTime{Hour: 25, Minute: 61},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{response: tt.response, err: tt.err}
			r := NewResolver(gen, "test-model", loc)

			got, err := r.ResolveTime(context.Background(), "2:30 in the afternoon")
			if tt.wantErr {
				require.Error(t, err)
				var resErr *ResolutionError
				require.ErrorAs(t, err, &resErr)
				assert.Equal(t, "time", resErr.Op)
				assert.Contains(t, resErr.Reason, tt.wantReason)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClockTimeValid(t *testing.T) {
	assert.True(t, ClockTime{Hour: 0, Minute: 0}.Valid())
	assert.True(t, ClockTime{Hour: 23, Minute: 59}.Valid())
	assert.False(t, ClockTime{Hour: 24, Minute: 0}.Valid())
	assert.False(t, ClockTime{Hour: 12, Minute: 60}.Valid())
	assert.False(t, ClockTime{Hour: -1, Minute: 0}.Valid())
}

func TestResolutionErrorUnwrap(t *testing.T) {
	cause := errors.New("cause")
	err := resolutionErr("time", "model call failed", cause)
	assert.ErrorIs(t, err, cause)
	assert.True(t, strings.Contains(err.Error(), "could not resolve time"))
}
