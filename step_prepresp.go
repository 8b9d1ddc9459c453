package varyproxy

import (
	"net/http"
	"strings"
)

// stepPrepResp chooses the response framing and any last transform
// (§4.9): LEN when the body length is known, GUNZIP when the stored
// Object is gzipped but the client didn't ask for it, ESI_CHILD when
// ESILevel > 0. The ESI mode flag is never set here.
func (e *Engine) stepPrepResp(s *Session) Step {
	mode := RespMode{}

	obj := s.rc.Object
	busy := s.rc.Busy

	switch {
	case obj != nil:
		mode.Len = true
		if obj.Gzipped && !clientAcceptsGzip(s.Req) {
			mode.Gunzip = true
		}
	case busy != nil && busy.DoStream:
		mode.Chunked = true
	case !s.WantBody:
		// No framing needed: a bodiless response carries no entity.
	case s.Req.ProtoAtLeast(1, 1):
		mode.Chunked = true
	default:
		// HTTP/1.0 with no known length and no chunked support: the
		// only way to signal end-of-body is closing the connection.
		mode.EOF = true
		s.DoClose = "EOF mode"
	}

	if s.ESILevel > 0 {
		mode.ESIChild = true
	}

	s.rc.RespMode = mode

	// §4.9: deliver is the steady-state return; restart is only honored
	// while the restart budget isn't exhausted, past which this falls
	// through to delivery same as a plain deliver would.
	if s.Worker.Policy.Deliver(s) == HandlingRestart && s.Restarts < e.cfg.MaxRestarts {
		s.deref()
		s.Restarts++
		e.metrics.Restarts.Inc()
		return StepRecv
	}

	if busy != nil && busy.DoStream {
		return StepStreamBody
	}
	return StepDeliver
}

func clientAcceptsGzip(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept-Encoding"), "gzip")
}
