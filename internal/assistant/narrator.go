package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/calwhisper/calwhisper/internal/ai"
	"github.com/calwhisper/calwhisper/internal/calendar"
	"github.com/calwhisper/calwhisper/internal/logging"
)

const narratorSystemPrompt = "You are a helpful calendar assistant that provides clear, concise summaries of calendar events. Focus on making the information easily digestible and highlighting the most relevant details. Keep responses brief and under 100 words."

const (
	rangeDateLayout = "1/2/2006"
	eventTimeLayout = "1/2/2006, 3:04 PM"
)

// Narrator turns a list of events into conversational prose. The model gets a
// bounded amount of time to answer; past that, a deterministic plain-text
// listing is returned instead, so Summarize never fails.
type Narrator struct {
	gen     Generator
	model   string
	timeout time.Duration
	loc     *time.Location
	now     func() time.Time
	logger  logging.Logger
}

// NarratorOption configures a Narrator.
type NarratorOption func(*Narrator)

// WithNarratorClock overrides the time source, for tests.
func WithNarratorClock(now func() time.Time) NarratorOption {
	return func(n *Narrator) {
		if now != nil {
			n.now = now
		}
	}
}

// WithNarratorLogger sets the logger.
func WithNarratorLogger(l logging.Logger) NarratorOption {
	return func(n *Narrator) {
		if l != nil {
			n.logger = l
		}
	}
}

// NewNarrator builds a narrator using the given model and timeout.
func NewNarrator(gen Generator, model string, timeout time.Duration, loc *time.Location, opts ...NarratorOption) *Narrator {
	n := &Narrator{
		gen:     gen,
		model:   model,
		timeout: timeout,
		loc:     loc,
		now:     time.Now,
		logger:  logging.Nop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Summarize narrates the events found for a query. It races the model against
// the narration timeout; whichever side loses is discarded. The late model
// reply, if any, is thrown away rather than cancelled so a slow model cannot
// delay the response.
func (n *Narrator) Summarize(ctx context.Context, query string, events []calendar.EventRecord, window DateRange) string {
	eventsContext := EventsContext(events, n.loc)
	prompt := n.buildPrompt(query, eventsContext, window)

	type result struct {
		text string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		text, err := n.gen.Run(ctx, n.model, []ai.Message{
			{Role: "system", Content: narratorSystemPrompt},
			{Role: "user", Content: prompt},
		})
		ch <- result{text: text, err: err}
	}()

	select {
	case res := <-ch:
		if res.err == nil {
			return res.text
		}
		n.logger.Warn("narration failed, using plain listing",
			"model", n.model, "error", res.err)
	case <-time.After(n.timeout):
		n.logger.Warn("narration timed out, using plain listing",
			"model", n.model, "timeout", n.timeout)
	case <-ctx.Done():
		n.logger.Warn("narration cancelled, using plain listing",
			"model", n.model, "error", ctx.Err())
	}

	return n.fallback(len(events), eventsContext, window)
}

func (n *Narrator) buildPrompt(query, eventsContext string, window DateRange) string {
	return fmt.Sprintf(`I searched the calendar for %q and found these events between %s and %s:
%s

Please provide a natural language summary of these events. Focus on:
1. The most important or upcoming events prioritizing the time period of the query
2. Any patterns or clusters of events
3. Highlight any events with specific locations or many attendees
4. Mention the total number of events found
5. Do not mention events unless relevant to the query
6. Today's date is %s

Format the response in a friendly, conversational way. Keep the response concise and under 200 words.`,
		query,
		window.Start.In(n.loc).Format(rangeDateLayout),
		window.End.In(n.loc).Format(rangeDateLayout),
		eventsContext,
		n.now().In(n.loc).Format("Mon Jan 02 2006"))
}

// fallback is the deterministic listing used when narration is unavailable.
// Its output depends only on the inputs, never on timing.
func (n *Narrator) fallback(count int, eventsContext string, window DateRange) string {
	return fmt.Sprintf("Found %d events between %s and %s:\n%s",
		count,
		window.Start.In(n.loc).Format(rangeDateLayout),
		window.End.In(n.loc).Format(rangeDateLayout),
		eventsContext)
}

// EventsContext renders events as plain-text blocks, one per event. The same
// rendering feeds both the narration prompt and the fallback listing.
func EventsContext(events []calendar.EventRecord, loc *time.Location) string {
	blocks := make([]string, 0, len(events))
	for _, ev := range events {
		location := ev.Location
		if location == "" {
			location = "No location specified"
		}

		duration := ""
		if mins, ok := ev.DurationMinutes(); ok {
			duration = fmt.Sprintf("%d mins", mins)
		}

		attendees := "No attendees"
		if len(ev.AttendeeEmails) > 0 {
			attendees = strings.Join(ev.AttendeeEmails, ", ")
		}

		blocks = append(blocks, fmt.Sprintf("Event: %s\nTime: %s - %s\nLocation: %s\nDuration: %s\nAttendees: %s",
			ev.Name,
			formatEventTime(ev.Start, loc),
			formatEventTime(ev.End, loc),
			location,
			duration,
			attendees))
	}
	return strings.Join(blocks, "\n\n")
}

func formatEventTime(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	return t.In(loc).Format(eventTimeLayout)
}
