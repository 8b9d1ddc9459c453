package varyproxy

import "net/http"

// stepRecv runs vcl_recv's equivalent policy hook (§4.3): decide
// lookup/pass/pipe for the request and, if it will be looked up,
// compute its cache key.
func (e *Engine) stepRecv(s *Session) Step {
	s.Director = e.cfg.OriginURL.Host
	s.WantBody = s.Req.Method != http.MethodHead
	s.SendBody = false

	h := e.keyer.GetKeyPrefix(s.Req)
	handling := s.Worker.Policy.Recv(s)
	s.Handling = handling

	// A restart that has looped back here too many times is a runaway
	// policy, not a transient condition: give up regardless of what
	// this pass through Recv decided.
	if s.Restarts >= e.cfg.MaxRestarts {
		if s.ErrCode == 0 {
			s.ErrCode = http.StatusServiceUnavailable
		}
		s.ErrReason = "too many restarts"
		return StepError
	}

	// §4.4: a request headed anywhere but Pipe/Pass gets its
	// Accept-Encoding canonicalized to a single negotiated value before
	// it ever reaches a backend, so the origin always sees exactly one
	// encoding negotiation instead of whatever list the client sent.
	if e.cfg.GzipSupport && handling != HandlingPipe && handling != HandlingPass {
		normalizeAcceptEncoding(s.Req)
	}

	switch handling {
	case HandlingRestart:
		s.Restarts++
		e.metrics.Restarts.Inc()
		return StepRecv
	case HandlingPipe:
		s.Key = h
		return StepPipe
	case HandlingPass:
		s.Key = h
		return StepPass
	case HandlingLookup:
		hasher := newHasher()
		s.Worker.Policy.Hash(s, hasher)
		s.Digest = hasher.Sum()
		s.Key = h
		return StepLookup
	default:
		s.ErrCode = 500
		s.ErrReason = "unhandled Recv handling"
		return StepError
	}
}

// normalizeAcceptEncoding collapses whatever Accept-Encoding the client
// sent into the single value the backend needs to see (§4.4): gzip if
// the client can handle it, otherwise stripped entirely.
func normalizeAcceptEncoding(r *http.Request) {
	if clientAcceptsGzip(r) {
		r.Header.Set("Accept-Encoding", "gzip")
	} else {
		r.Header.Del("Accept-Encoding")
	}
}
