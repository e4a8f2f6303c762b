package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Default model identifiers. The resolver model only needs to emit small JSON
// objects; the narrator model writes prose summaries.
const (
	DefaultResolverModel = "@cf/meta/llama-4-scout-17b-16e-instruct"
	DefaultNarratorModel = "@cf/deepseek-ai/deepseek-r1-distill-qwen-32b"
)

// Behavior defaults.
const (
	DefaultNarrationTimeout = 10 * time.Second
	DefaultEventDuration    = time.Hour
)

// Config holds all service configuration. It is loaded once at startup and
// injected into each component at construction time; no component reads
// environment variables on its own.
type Config struct {
	Google Google
	AI     AI
	Server Server
}

// Google holds service-account credentials and the target calendar.
type Google struct {
	// ClientEmail is the service account email address.
	ClientEmail string

	// PrivateKey is the service account private key in PEM form. Escaped
	// newlines and missing PEM armor are tolerated and repaired.
	PrivateKey string

	// CalendarID is the calendar to manage (typically the owner's email).
	CalendarID string
}

// AI holds configuration for the Workers AI text-generation service.
type AI struct {
	AccountID string
	APIToken  string

	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL string

	// ResolverModel answers the date-range and time-normalization prompts.
	ResolverModel string

	// NarratorModel writes the event summaries.
	NarratorModel string

	// NarrationTimeout bounds the wait for the narration call before
	// falling back to the deterministic event listing.
	NarrationTimeout time.Duration
}

// Server holds transport-independent behavior knobs.
type Server struct {
	// Timezone is the canonical zone for interpreting dates and
	// formatting event times.
	Timezone string

	// MaxQueryResults caps the number of events fetched per query.
	MaxQueryResults int64

	// MaxLookupResults caps the number of events scanned when matching an
	// event by title for update/remove.
	MaxLookupResults int64

	// EventDuration is the duration assigned to created events and to any
	// rescheduled start time.
	EventDuration time.Duration
}

// Load reads configuration using Viper. Values come from environment
// variables (GOOGLE_CLIENT_EMAIL, GOOGLE_PRIVATE_KEY, GOOGLE_CALENDAR_ID,
// AI_ACCOUNT_ID, AI_API_TOKEN, ...) or an optional calwhisper.yaml searched in
// the working directory and /etc/calwhisper/.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file path. An empty path falls
// back to the default search locations.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("calwhisper")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/calwhisper/")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if path != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file is fine; env vars and defaults apply.
	}

	cfg := &Config{
		Google: Google{
			ClientEmail: v.GetString("google.client_email"),
			PrivateKey:  v.GetString("google.private_key"),
			CalendarID:  v.GetString("google.calendar_id"),
		},
		AI: AI{
			AccountID:        v.GetString("ai.account_id"),
			APIToken:         v.GetString("ai.api_token"),
			BaseURL:          v.GetString("ai.base_url"),
			ResolverModel:    v.GetString("ai.resolver_model"),
			NarratorModel:    v.GetString("ai.narrator_model"),
			NarrationTimeout: v.GetDuration("ai.narration_timeout"),
		},
		Server: Server{
			Timezone:         v.GetString("server.timezone"),
			MaxQueryResults:  v.GetInt64("server.max_query_results"),
			MaxLookupResults: v.GetInt64("server.max_lookup_results"),
			EventDuration:    v.GetDuration("server.event_duration"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ai.base_url", "https://api.cloudflare.com/client/v4")
	v.SetDefault("ai.resolver_model", DefaultResolverModel)
	v.SetDefault("ai.narrator_model", DefaultNarratorModel)
	v.SetDefault("ai.narration_timeout", DefaultNarrationTimeout)

	v.SetDefault("server.timezone", "America/Los_Angeles")
	v.SetDefault("server.max_query_results", 50)
	v.SetDefault("server.max_lookup_results", 100)
	v.SetDefault("server.event_duration", DefaultEventDuration)
}

// Validate checks that all required fields are present and the numeric knobs
// are sane.
func (c *Config) Validate() error {
	if c.Google.ClientEmail == "" {
		return fmt.Errorf("google.client_email (GOOGLE_CLIENT_EMAIL) is required")
	}
	if c.Google.PrivateKey == "" {
		return fmt.Errorf("google.private_key (GOOGLE_PRIVATE_KEY) is required")
	}
	if c.Google.CalendarID == "" {
		return fmt.Errorf("google.calendar_id (GOOGLE_CALENDAR_ID) is required")
	}
	if c.AI.AccountID == "" {
		return fmt.Errorf("ai.account_id (AI_ACCOUNT_ID) is required")
	}
	if c.AI.APIToken == "" {
		return fmt.Errorf("ai.api_token (AI_API_TOKEN) is required")
	}
	if c.AI.NarrationTimeout <= 0 {
		return fmt.Errorf("ai.narration_timeout must be positive, got %s", c.AI.NarrationTimeout)
	}
	if c.Server.MaxQueryResults <= 0 {
		return fmt.Errorf("server.max_query_results must be positive, got %d", c.Server.MaxQueryResults)
	}
	if c.Server.MaxLookupResults <= 0 {
		return fmt.Errorf("server.max_lookup_results must be positive, got %d", c.Server.MaxLookupResults)
	}
	if c.Server.EventDuration <= 0 {
		return fmt.Errorf("server.event_duration must be positive, got %s", c.Server.EventDuration)
	}
	return nil
}
