package cmd

import (
	"context"
	"testing"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calwhisper/calwhisper/internal/config"
	"github.com/calwhisper/calwhisper/internal/server"
)

func TestServeCommandFlagDefaults(t *testing.T) {
	cmd := newServeCmd()

	tests := []struct {
		flag     string
		expected string
	}{
		{flag: "transport", expected: "stdio"},
		{flag: "http-addr", expected: ":8080"},
		{flag: "metrics-enabled", expected: "true"},
		{flag: "metrics-addr", expected: ":9090"},
		{flag: "debug", expected: "false"},
		{flag: "config", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			f := cmd.Flags().Lookup(tt.flag)
			require.NotNil(t, f, "flag %q should be registered", tt.flag)
			assert.Equal(t, tt.expected, f.DefValue)
		})
	}
}

func TestRegisterAllTools(t *testing.T) {
	cfg := config.Config{
		Google: config.Google{
			ClientEmail: "svc@test.iam.gserviceaccount.com",
			PrivateKey:  "test-key",
			CalendarID:  "primary",
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
	defer func() {
		_ = sc.Shutdown()
	}()

	mcpSrv := mcpserver.NewMCPServer("calwhisper-test", "0.0.0",
		mcpserver.WithToolCapabilities(true))

	err = registerAllTools(mcpSrv, sc)
	assert.NoError(t, err)
}
