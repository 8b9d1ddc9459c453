package varyproxy

import (
	"net/http"
	"strings"
	"time"
)

// stepStart performs the §4.2 bookkeeping that in Varnish happens once
// a worker thread is handed a parsed request: stamp times, mint an
// xid, snapshot the pristine request for restart, derive the
// keep-alive/close decision from the Connection header, and handle
// Expect before any policy hook sees the request.
func (e *Engine) stepStart(s *Session) Step {
	s.TReq = time.Now()
	s.Xid = newXid()
	s.http0 = s.Req.Clone(s.Req.Context())
	s.resetRequestContext()
	s.wsSesMark = s.Worker.WS.Snapshot()
	e.metrics.ClientReq.Inc()
	s.Worker.Log = s.Worker.Log.With().
		Uint64("xid", s.Xid).
		Str("method", s.Req.Method).
		Str("url", s.Req.URL.String()).
		Logger()

	s.DoClose = connectionCloseReason(s.Req)

	if expect := s.Req.Header.Get("Expect"); expect != "" {
		if strings.EqualFold(expect, "100-continue") {
			// Best-effort: WriteHeader with an informational code sends
			// the 1xx ahead of whatever final status this request ends
			// up with, same as writing the status line by hand. Strip
			// the header before vcl_recv sees the request.
			s.W.WriteHeader(http.StatusContinue)
			s.Req.Header.Del("Expect")
		} else {
			s.ErrCode = http.StatusExpectationFailed
			s.ErrReason = "unsupported Expect value"
			return StepError
		}
	}

	return StepRecv
}

// connectionCloseReason reports why this request's connection should
// close after delivery, derived from the request's own Connection
// header (§4.2); "" means the connection may be kept alive.
func connectionCloseReason(r *http.Request) string {
	for _, v := range strings.Split(r.Header.Get("Connection"), ",") {
		if strings.EqualFold(strings.TrimSpace(v), "close") {
			return "Connection: close"
		}
	}
	return ""
}
