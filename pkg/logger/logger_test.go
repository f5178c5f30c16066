package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func TestErrorCarriesContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "api", Level: ParseLevel("debug"), Output: buf})

	ctx := log.WithRequestID(context.Background(), "req-123")
	ctx = log.WithField(ctx, "listing_id", "abc")

	log.Error(ctx, "finalize failed", errors.New("boom"))

	for _, want := range []string{"\"request_id\"", "\"listing_id\""} {
		if !bytes.Contains(buf.Bytes(), []byte(want)) {
			t.Fatalf("expected %s in entry: %s", want, buf.String())
		}
	}
}

func TestWithFieldsMergesIntoEntries(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "api", Level: ParseLevel("debug"), Output: buf})

	ctx := log.WithFields(context.Background(), map[string]any{
		"env":  "test",
		"addr": ":8080",
	})
	log.Info(ctx, "starting")

	if !bytes.Contains(buf.Bytes(), []byte("\"env\":\"test\"")) {
		t.Fatalf("expected env field in entry: %s", buf.String())
	}
}

func TestParseLevelFallsBack(t *testing.T) {
	if lvl := ParseLevel(""); lvl != zerolog.InfoLevel {
		t.Fatalf("expected info for empty level, got %v", lvl)
	}
	if lvl := ParseLevel("invalid"); lvl != zerolog.InfoLevel {
		t.Fatalf("expected info for invalid level, got %v", lvl)
	}
	if lvl := ParseLevel("warn"); lvl != zerolog.WarnLevel {
		t.Fatalf("expected warn level, got %v", lvl)
	}
}
