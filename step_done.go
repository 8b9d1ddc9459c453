package varyproxy

// stepDone tears down the Session (§4.12). Control then returns to
// ServeHTTP, where net/http's connection-level keep-alive loop plays
// the role Wait would have played.
func (e *Engine) stepDone(s *Session) Step {
	if s.Head != nil && s.rc.ObjCore != nil && s.rc.ObjCore.Busy() {
		// Left BUSY by an error path that never reached FetchBody's
		// Unbusy/hit-for-pass conversion: drop it so parked peers re-race
		// Lookup instead of waiting forever.
		e.cacheIndex.Drop(s.Key, s.Head)
	}
	s.deref()
	s.Worker.WS.Reset(s.wsSesMark)
	s.TEnd = s.TResp

	s.Worker.Log.Debug().
		Str("method", s.Req.Method).
		Str("url", s.Req.URL.String()).
		Str("sourceIp", sourceIP(s.Req)).
		Str("status", string(s.rc.cacheStatus.Status)).
		Str("fwd", string(s.rc.cacheStatus.FwdReason)).
		Bool("stored", s.rc.cacheStatus.Stored).
		Str("doclose", s.DoClose).
		Int("restarts", s.Restarts).
		Msg("session done")

	e.metrics.SessClosed.Inc()
	return StepDone
}
