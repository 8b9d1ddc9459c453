package logring

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestAddEvictsOldestPastCapacity(t *testing.T) {
	r := New(2)
	r.Add("a")
	r.Add("b")
	r.Add("c")
	if got, want := strings.Join(r.lines, ","), "b,c"; got != want {
		t.Fatalf("lines = %q, want %q", got, want)
	}
}

func TestFlushClearsAfterEmitting(t *testing.T) {
	var buf strings.Builder
	log := zerolog.New(&buf).Level(zerolog.TraceLevel)

	r := New(8)
	r.Add("Start")
	r.Add("Recv")
	r.Flush(log)

	if len(r.lines) != 0 {
		t.Fatalf("expected ring cleared after Flush, got %v", r.lines)
	}
	if !strings.Contains(buf.String(), "Start | Recv") {
		t.Fatalf("flushed log missing joined trace: %s", buf.String())
	}
}

func TestFlushNoopWhenEmpty(t *testing.T) {
	var buf strings.Builder
	log := zerolog.New(&buf).Level(zerolog.TraceLevel)

	r := New(8)
	r.Flush(log)

	if buf.Len() != 0 {
		t.Fatalf("expected no output for an empty ring, got %s", buf.String())
	}
}
