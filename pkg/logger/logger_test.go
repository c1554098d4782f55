package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestContextFieldsPropagate(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "test", Output: &buf})

	ctx := logg.WithJourneyID(context.Background(), "j-123")
	ctx = logg.WithStepID(ctx, "s-456")
	logg.Info(ctx, "step.updated")

	out := buf.String()
	for _, want := range []string{`"journey_id":"j-123"`, `"step_id":"s-456"`, `"service":"test"`, "step.updated"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got %s", want, out)
		}
	}
}

func TestParseLevel(t *testing.T) {
	if got := ParseLevel("warn"); got != zerolog.WarnLevel {
		t.Fatalf("expected warn level, got %v", got)
	}
	if got := ParseLevel(""); got != zerolog.InfoLevel {
		t.Fatalf("expected info fallback, got %v", got)
	}
	if got := ParseLevel("nonsense"); got != zerolog.InfoLevel {
		t.Fatalf("expected info fallback for junk, got %v", got)
	}
}
