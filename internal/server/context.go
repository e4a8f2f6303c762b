package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/calwhisper/calwhisper/internal/ai"
	"github.com/calwhisper/calwhisper/internal/assistant"
	"github.com/calwhisper/calwhisper/internal/calendar"
	"github.com/calwhisper/calwhisper/internal/config"
	"github.com/calwhisper/calwhisper/internal/instrumentation"
	"github.com/calwhisper/calwhisper/internal/logging"
)

// CalendarAPI is the calendar surface the tool handlers depend on.
type CalendarAPI interface {
	ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time, maxResults int64, loc *time.Location) ([]calendar.EventRecord, error)
	InsertEvent(ctx context.Context, calendarID string, draft calendar.EventDraft, loc *time.Location) (calendar.EventRecord, error)
	PatchEvent(ctx context.Context, calendarID, eventID string, patch calendar.EventPatch, loc *time.Location) (calendar.EventRecord, error)
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
	ListCalendars(ctx context.Context) ([]calendar.CalendarInfo, error)
	Subscribe(ctx context.Context, calendarID string) error
}

// DateTimeResolver extracts structured dates and times from free-form input.
type DateTimeResolver interface {
	ResolveDateRange(ctx context.Context, query string) (assistant.DateRange, error)
	ResolveTime(ctx context.Context, input string) (assistant.ClockTime, error)
}

// Summarizer narrates event lists. It never fails; on any model problem it
// returns a plain listing instead.
type Summarizer interface {
	Summarize(ctx context.Context, query string, events []calendar.EventRecord, window assistant.DateRange) string
}

// ServerContext holds the wired dependencies for the MCP server.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	cfg      config.Config
	location *time.Location

	calendarAPI CalendarAPI
	resolver    DateTimeResolver
	narrator    Summarizer

	metrics *instrumentation.Metrics
	logger  logging.Logger

	mu       sync.RWMutex
	shutdown bool
}

// ContextOption configures a ServerContext.
type ContextOption func(*ServerContext)

// WithMetrics attaches a metrics recorder.
func WithMetrics(m *instrumentation.Metrics) ContextOption {
	return func(sc *ServerContext) {
		if m != nil {
			sc.metrics = m
		}
	}
}

// WithLogger sets the logger for the server and its clients.
func WithLogger(l logging.Logger) ContextOption {
	return func(sc *ServerContext) {
		if l != nil {
			sc.logger = l
		}
	}
}

// NewServerContext wires the AI client, calendar client, resolver, and
// narrator from configuration.
func NewServerContext(ctx context.Context, cfg config.Config, opts ...ContextOption) (*ServerContext, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	location, err := time.LoadLocation(cfg.Server.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Server.Timezone, err)
	}

	shutdownCtx, cancel := context.WithCancel(ctx)

	sc := &ServerContext{
		ctx:      shutdownCtx,
		cancel:   cancel,
		cfg:      cfg,
		location: location,
		metrics:  &instrumentation.Metrics{},
		logger:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(sc)
	}

	aiClient, err := ai.New(ai.Config{
		AccountID: cfg.AI.AccountID,
		APIToken:  cfg.AI.APIToken,
		BaseURL:   cfg.AI.BaseURL,
	}, ai.WithLogger(sc.logger), ai.WithMetrics(sc.metrics))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create AI client: %w", err)
	}

	calClient, err := calendar.New(shutdownCtx, cfg.Google.ClientEmail, cfg.Google.PrivateKey,
		calendar.WithLogger(sc.logger), calendar.WithMetrics(sc.metrics))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create calendar client: %w", err)
	}

	sc.calendarAPI = calClient
	sc.resolver = assistant.NewResolver(aiClient, cfg.AI.ResolverModel, location,
		assistant.WithResolverLogger(sc.logger))
	sc.narrator = assistant.NewNarrator(aiClient, cfg.AI.NarratorModel, cfg.AI.NarrationTimeout, location,
		assistant.WithNarratorLogger(sc.logger))

	return sc, nil
}

// Context returns the server's shutdown-aware context.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Config returns the server configuration.
func (sc *ServerContext) Config() config.Config {
	return sc.cfg
}

// Location returns the canonical timezone for date interpretation.
func (sc *ServerContext) Location() *time.Location {
	return sc.location
}

// Calendar returns the calendar API client.
func (sc *ServerContext) Calendar() CalendarAPI {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.calendarAPI
}

// Resolver returns the date/time resolver.
func (sc *ServerContext) Resolver() DateTimeResolver {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.resolver
}

// Narrator returns the event summarizer.
func (sc *ServerContext) Narrator() Summarizer {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.narrator
}

// Metrics returns the metrics recorder. Never nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// Logger returns the logger. Never nil.
func (sc *ServerContext) Logger() logging.Logger {
	return sc.logger
}

// SetCalendar replaces the calendar client. Used by tests.
func (sc *ServerContext) SetCalendar(api CalendarAPI) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.calendarAPI = api
}

// SetResolver replaces the resolver. Used by tests.
func (sc *ServerContext) SetResolver(r DateTimeResolver) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.resolver = r
}

// SetNarrator replaces the summarizer. Used by tests.
func (sc *ServerContext) SetNarrator(n Summarizer) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.narrator = n
}

// IsShutdown reports whether Shutdown has been called.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown cancels the server context. Safe to call more than once.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
