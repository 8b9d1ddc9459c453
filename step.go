package varyproxy

import (
	"fmt"
)

// run drives s through the dispatcher loop from its current Step until
// it reaches StepDone, per §4.1. Dispatch is a handler table keyed by
// Step, never dynamic lookup — the set of Steps is closed.
func (e *Engine) run(s *Session) {
	for {
		s.Worker.Ring.Add(s.Step.String())
		s.wsReqMark = s.Worker.WS.Snapshot()
		next, outcome := e.dispatch(s)
		s.Worker.WS.Reset(s.wsReqMark)
		if outcome == OutcomePark {
			// The busy-list wait this implies already happened
			// synchronously inside the handler (sync.Cond.Wait on the
			// goroutine-per-request model); there is nothing further to
			// suspend here, but the handler contract still names the
			// transition explicitly so a future pooled-Worker
			// implementation has a seam to hook real suspension into.
			continue
		}
		if s.Step == StepDone {
			break
		}
		s.Step = next
	}
	s.Worker.Ring.Flush(s.Worker.Log)
}

func (e *Engine) dispatch(s *Session) (Step, Outcome) {
	switch s.Step {
	case StepFirst, StepStart:
		return e.stepStart(s), OutcomeContinue
	case StepWait:
		// Unreachable from ServeHTTP: net/http has already read and
		// parsed the request by the time Engine sees it, realizing the
		// out-of-scope TCP acceptor/poller named in §1. Kept so the Step
		// enum and dispatcher table stay total.
		return StepRecv, OutcomeContinue
	case StepRecv:
		return e.stepRecv(s), OutcomeContinue
	case StepLookup:
		return e.stepLookup(s), OutcomeContinue
	case StepHit:
		return e.stepHit(s), OutcomeContinue
	case StepMiss:
		return e.stepMiss(s), OutcomeContinue
	case StepPass:
		return e.stepPass(s), OutcomeContinue
	case StepPipe:
		return e.stepPipe(s), OutcomeContinue
	case StepFetch:
		return e.stepFetch(s), OutcomeContinue
	case StepFetchBody:
		return e.stepFetchBody(s), OutcomeContinue
	case StepStreamBody:
		return e.stepStreamBody(s), OutcomeContinue
	case StepPrepResp:
		return e.stepPrepResp(s), OutcomeContinue
	case StepDeliver:
		return e.stepDeliver(s), OutcomeContinue
	case StepError:
		return e.stepError(s), OutcomeContinue
	case StepDone:
		return e.stepDone(s), OutcomeContinue
	default:
		panic(fmt.Sprintf("varyproxy: unhandled step %v", s.Step))
	}
}
