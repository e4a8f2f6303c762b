package ai

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DefaultBaseURL is the Cloudflare API root. Model invocations live under
// /accounts/{account_id}/ai/run/{model}.
const DefaultBaseURL = "https://api.cloudflare.com/client/v4"

// DefaultTimeout bounds a single model invocation at the HTTP layer. Callers
// that need a tighter budget race the call themselves.
const DefaultTimeout = 60 * time.Second

// Config holds Workers AI client configuration.
type Config struct {
	AccountID  string
	APIToken   string
	BaseURL    string
	HTTPClient *http.Client
}

// Validate validates the configuration and fills in defaults.
func (c *Config) Validate() error {
	if c.AccountID == "" {
		return fmt.Errorf("ai: AccountID is required")
	}
	if c.APIToken == "" {
		return fmt.Errorf("ai: APIToken is required")
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: DefaultTimeout}
	}
	return nil
}

// Message is a single chat message in a model invocation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// runRequest is the wire format for a model invocation.
type runRequest struct {
	Messages []Message `json:"messages"`
}

// runResponse is the API envelope around a model invocation.
//
// The result field shifts shape depending on the model: chat models return an
// object with a "response" field, others return a bare JSON string. It is
// kept raw here and discriminated by decodeResult.
type runResponse struct {
	Result  json.RawMessage `json:"result"`
	Success bool            `json:"success"`
	Errors  []apiError      `json:"errors"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// decodeResult resolves the two observed result shapes into plain text:
// a bare JSON string, or an object carrying a "response" field. Anything
// else is returned serialized as-is so the caller still gets usable text.
func decodeResult(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var obj struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Response != "" {
		return obj.Response
	}

	return string(raw)
}
