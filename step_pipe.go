package varyproxy

import "fmt"

// stepPipe relays the request/response bidirectionally without any
// caching semantics (§4.6), for methods or content the policy has
// decided must bypass the proxy entirely.
func (e *Engine) stepPipe(s *Session) Step {
	if h := s.Worker.Policy.Pipe(s); h != HandlingPipe {
		// §4.6/§6: pipe is the only legal return from vcl_pipe. A
		// policy returning anything else is a programming error, not
		// a condition this state machine recovers from.
		panic(fmt.Sprintf("varyproxy: Policy.Pipe returned illegal Handling %v", h))
	}

	if err := e.backend.Pipe(s.W, s.Req, e.director); err != nil {
		s.Worker.Log.Error().Err(err).Msg("pipe failed")
		s.DoClose = "pipe_error"
	}
	return StepDone
}
