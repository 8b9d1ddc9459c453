// Package logring batches per-request trace events and flushes them as
// a single zerolog event at Done, mirroring Varnish's own per-request
// VSL buffer without inventing a new wire format.
package logring

import (
	"strings"

	"github.com/rs/zerolog"
)

// Ring accumulates short trace lines for one request.
type Ring struct {
	lines []string
	cap   int
}

// New creates a Ring that keeps at most cap lines, dropping the oldest.
func New(cap int) *Ring {
	return &Ring{cap: cap}
}

// Add appends a trace line, evicting the oldest if the ring is full.
func (r *Ring) Add(line string) {
	if r.cap > 0 && len(r.lines) >= r.cap {
		r.lines = r.lines[1:]
	}
	r.lines = append(r.lines, line)
}

// Reset clears the ring for reuse across requests on the same connection.
func (r *Ring) Reset() {
	r.lines = r.lines[:0]
}

// Flush emits the accumulated lines as one zerolog Trace event and
// clears the ring. If Trace is not enabled nothing is logged, but the
// ring is still cleared, so callers can call it unconditionally at Done.
func (r *Ring) Flush(log zerolog.Logger) {
	if len(r.lines) == 0 {
		return
	}
	log.Trace().Str("trace", strings.Join(r.lines, " | ")).Msg("request trace")
	r.Reset()
}
