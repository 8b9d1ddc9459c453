package varyproxy

import "net/http"

// stepError synthesizes a response for a fatal condition (§4.11). A
// policy that returns restart gets one more trip through Recv as long
// as MaxRestarts isn't exhausted; past that, the error is delivered
// as-is rather than looping forever.
func (e *Engine) stepError(s *Session) Step {
	if s.ErrCode == 0 {
		s.ErrCode = http.StatusInternalServerError
	}

	if s.Worker.Policy.Error(s) == HandlingRestart && s.Restarts < e.cfg.MaxRestarts {
		if s.Head != nil && s.rc.ObjCore != nil {
			e.cacheIndex.Drop(s.Key, s.Head)
		}
		s.Restarts++
		e.metrics.Restarts.Inc()
		return StepRecv
	}

	s.DoClose = "error"
	s.W.Header().Set("Connection", "close")
	http.Error(s.W, s.ErrReason, s.ErrCode)
	return StepDone
}
