package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestErr(t *testing.T) {
	t.Run("nil error produces empty group", func(t *testing.T) {
		attr := Err(nil)
		if attr.Value.Kind() != slog.KindGroup {
			t.Errorf("expected group kind for nil error, got %v", attr.Value.Kind())
		}
		if len(attr.Value.Group()) != 0 {
			t.Errorf("expected empty group for nil error")
		}
	})

	t.Run("non-nil error produces error attribute", func(t *testing.T) {
		attr := Err(errTest)
		if attr.Key != KeyError {
			t.Errorf("expected key %q, got %q", KeyError, attr.Key)
		}
		if attr.Value.String() != "boom" {
			t.Errorf("expected value %q, got %q", "boom", attr.Value.String())
		}
	})
}

type testErr string

func (e testErr) Error() string { return string(e) }

var errTest = testErr("boom")

func TestAnonymizeCalendarID(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "regular email", input: "someone@example.com"},
		{name: "primary", input: "primary"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AnonymizeCalendarID(tt.input)
			if !strings.HasPrefix(got, "cal:") {
				t.Errorf("expected cal: prefix, got %q", got)
			}
			if strings.Contains(got, tt.input) {
				t.Errorf("anonymized value %q leaks input %q", got, tt.input)
			}
			// Hashing must be deterministic for correlation.
			if again := AnonymizeCalendarID(tt.input); again != got {
				t.Errorf("expected deterministic output, got %q then %q", got, again)
			}
		})
	}

	if got := AnonymizeCalendarID(""); got != "" {
		t.Errorf("expected empty output for empty input, got %q", got)
	}
}

func TestSetup(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup(&buf, false)

	logger.Debug("hidden")
	logger.Info("shown", Tool("query_google_calendar"))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug message logged at info level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "query_google_calendar") {
		t.Errorf("expected info message with tool attribute, got %q", out)
	}

	buf.Reset()
	logger = Setup(&buf, true)
	logger.Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("debug message missing in debug mode: %q", buf.String())
	}
}
