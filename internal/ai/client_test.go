package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "missing account",
			cfg:     Config{APIToken: "tok"},
			wantErr: true,
		},
		{
			name:    "missing token",
			cfg:     Config{AccountID: "acct"},
			wantErr: true,
		},
		{
			name: "defaults filled",
			cfg:  Config{AccountID: "acct", APIToken: "tok"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, DefaultBaseURL, tt.cfg.BaseURL)
			assert.NotNil(t, tt.cfg.HTTPClient)
		})
	}
}

func TestDecodeResult(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "object with response field",
			raw:  `{"response": "hello there"}`,
			want: "hello there",
		},
		{
			name: "bare string",
			raw:  `"just text"`,
			want: "just text",
		},
		{
			name: "unknown object falls back to raw serialization",
			raw:  `{"output": "something else"}`,
			want: `{"output": "something else"}`,
		},
		{
			name: "empty",
			raw:  ``,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decodeResult(json.RawMessage(tt.raw))
			assert.Equal(t, tt.want, got)
		})
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New(Config{
		AccountID: "acct-1",
		APIToken:  "tok-1",
		BaseURL:   srv.URL,
	})
	require.NoError(t, err)
	return client
}

func TestRun(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/accounts/acct-1/ai/run/@cf/test/model", r.URL.Path)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))

		var req runRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"result":  map[string]string{"response": "model says hi"},
		})
	})

	got, err := client.Run(context.Background(), "@cf/test/model", []Message{
		{Role: "system", Content: "be helpful"},
		{Role: "user", Content: "hi"},
	})
	require.NoError(t, err)
	assert.Equal(t, "model says hi", got)
}

func TestRunBareStringResult(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"result":  "plain output",
		})
	})

	got, err := client.Run(context.Background(), "m", []Message{{Role: "user", Content: "q"}})
	require.NoError(t, err)
	assert.Equal(t, "plain output", got)
}

func TestRunAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"errors":  []map[string]any{{"code": 10000, "message": "rate limited"}},
		})
	})

	_, err := client.Run(context.Background(), "m", []Message{{Role: "user", Content: "q"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestRunEnvelopeFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"errors":  []map[string]any{{"code": 7000, "message": "model unavailable"}},
		})
	})

	_, err := client.Run(context.Background(), "m", []Message{{Role: "user", Content: "q"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model unavailable")
}

func TestRunContextCancelled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "result": "late"})
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Run(ctx, "m", []Message{{Role: "user", Content: "q"}})
	assert.Error(t, err)
}
