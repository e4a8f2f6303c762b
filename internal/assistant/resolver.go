package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/calwhisper/calwhisper/internal/ai"
	"github.com/calwhisper/calwhisper/internal/logging"
)

// Generator runs a chat completion against a named model.
type Generator interface {
	Run(ctx context.Context, model string, messages []ai.Message) (string, error)
}

// jsonObjectPattern grabs the first brace-delimited span on a line, which is
// enough for models that wrap their JSON in chatter.
var jsonObjectPattern = regexp.MustCompile(`\{.*\}`)

const (
	dateRangeSystemPrompt = "You are a helpful assistant that determines date ranges for calendar queries. Return only valid JSON with ISO date strings."
	clockTimeSystemPrompt = "You are a time format converter. Return ONLY valid JSON with time in HH:MM format and nothing else. No explanations or other text."
)

// Resolver turns free-form user input into structured dates and times by
// prompting a model and parsing its reply.
type Resolver struct {
	gen    Generator
	model  string
	loc    *time.Location
	now    func() time.Time
	logger logging.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithResolverClock overrides the time source, for tests.
func WithResolverClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// WithResolverLogger sets the logger.
func WithResolverLogger(l logging.Logger) ResolverOption {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewResolver builds a resolver that prompts the given model and interprets
// results in the given location.
func NewResolver(gen Generator, model string, loc *time.Location, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		gen:    gen,
		model:  model,
		loc:    loc,
		now:    time.Now,
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveDateRange asks the model for the search window implied by a query.
// The prompt is anchored to the current date and weekday so relative phrases
// like "next week" resolve deterministically.
func (r *Resolver) ResolveDateRange(ctx context.Context, query string) (DateRange, error) {
	now := r.now().In(r.loc)
	prompt := fmt.Sprintf(`Given the query %q, todays date is %s, and it is a %s determine the start and end dates to search for calendar events.
Return ONLY a JSON object with two ISO date strings: startDate and endDate.
Example: {"startDate": "2024-03-15T00:00:00Z", "endDate": "2024-03-17T23:59:59Z"}
Today's date is %s and with dates at the start and end of a day pacific
DO NOT INCLUDE ANY OTHER TEXT BESIDES VALID JSON`,
		query, now.Format(time.RFC3339), now.Weekday(), now.Format(time.RFC3339))

	raw, err := r.gen.Run(ctx, r.model, []ai.Message{
		{Role: "system", Content: dateRangeSystemPrompt},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return DateRange{}, resolutionErr("date range", "model call failed", err)
	}
	r.logger.Debug("date range response", "model", r.model, "response", raw)

	var payload struct {
		StartDate string `json:"startDate"`
		EndDate   string `json:"endDate"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return DateRange{}, resolutionErr("date range", "response is not valid JSON", err)
	}
	if payload.StartDate == "" || payload.EndDate == "" {
		return DateRange{}, resolutionErr("date range", "response is missing startDate or endDate", nil)
	}

	start, err := time.Parse(time.RFC3339, payload.StartDate)
	if err != nil {
		return DateRange{}, resolutionErr("date range", fmt.Sprintf("invalid startDate %q", payload.StartDate), err)
	}
	end, err := time.Parse(time.RFC3339, payload.EndDate)
	if err != nil {
		return DateRange{}, resolutionErr("date range", fmt.Sprintf("invalid endDate %q", payload.EndDate), err)
	}
	if end.Before(start) {
		return DateRange{}, resolutionErr("date range", "end date precedes start date", nil)
	}

	return DateRange{Start: start.In(r.loc), End: end.In(r.loc)}, nil
}

// ResolveTime normalizes a free-form time expression to 24-hour HH:MM. The
// model's reply may bury the JSON in extra text, so the first brace-delimited
// span is extracted before parsing. Range validation is the caller's concern.
func (r *Resolver) ResolveTime(ctx context.Context, input string) (ClockTime, error) {
	prompt := fmt.Sprintf(`Convert the time %q to 24-hour format (HH:MM).
IMPORTANT: Return ONLY a JSON object with a single field "time" in HH:MM format.
Example: {"time": "14:30"}
DO NOT include any explanation or thinking process.
DO NOT include any other text besides the JSON object.`, input)

	raw, err := r.gen.Run(ctx, r.model, []ai.Message{
		{Role: "system", Content: clockTimeSystemPrompt},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return ClockTime{}, resolutionErr("time", "model call failed", err)
	}
	r.logger.Debug("time response", "model", r.model, "response", raw)

	span := jsonObjectPattern.FindString(raw)
	if span == "" {
		return ClockTime{}, resolutionErr("time", "no JSON object in response", nil)
	}

	var payload struct {
		Time string `json:"time"`
	}
	if err := json.Unmarshal([]byte(span), &payload); err != nil {
		return ClockTime{}, resolutionErr("time", "response is not valid JSON", err)
	}
	if payload.Time == "" {
		return ClockTime{}, resolutionErr("time", "response is missing time field", nil)
	}

	parts := strings.Split(payload.Time, ":")
	if len(parts) != 2 {
		return ClockTime{}, resolutionErr("time", fmt.Sprintf("malformed clock time %q", payload.Time), nil)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return ClockTime{}, resolutionErr("time", fmt.Sprintf("malformed clock time %q", payload.Time), err)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return ClockTime{}, resolutionErr("time", fmt.Sprintf("malformed clock time %q", payload.Time), err)
	}

	return ClockTime{Hour: hour, Minute: minute}, nil
}
