package varyproxy

import (
	"net/http"
	"time"

	"github.com/varyproxy/varyproxy/rfc9111"
	"github.com/varyproxy/varyproxy/rfc9211"
)

// stepHit runs vcl_hit's policy hook (§4.5), applying RFC 9111 §4
// reuse rules to the resolved Object before asking the policy whether
// to deliver it.
func (e *Engine) stepHit(s *Session) Step {
	obj := s.rc.Object
	stored := &http.Response{
		StatusCode: obj.Status,
		Header:     obj.Header.Clone(),
		Body:       http.NoBody,
		Request:    s.Req,
	}

	reusable, _, fwdReason := rfc9111.ConstructReusableResponse(s.Req, stored, obj.LastModified, time.Now())
	if reusable == nil || fwdReason != "" {
		s.deref()
		return StepMiss
	}

	cs := rfc9211.CacheStatus{}
	cs.Hit()
	s.rc.cacheStatus = cs
	s.rc.preparedResponse = reusable

	switch s.Worker.Policy.Hit(s) {
	case HandlingDeliver:
		return StepPrepResp
	case HandlingPass:
		s.deref()
		return StepPass
	case HandlingError:
		s.deref()
		return StepError
	case HandlingRestart:
		s.deref()
		s.Restarts++
		e.metrics.Restarts.Inc()
		return StepRecv
	default:
		return StepMiss
	}
}

func (e *Engine) stepMiss(s *Session) Step {
	switch s.Worker.Policy.Miss(s) {
	case HandlingFetch:
	case HandlingRestart:
		// Restart has no defined meaning from Miss: end the request with
		// a tagged error rather than looping back to Recv.
		s.ErrReason = "restart from miss is not supported"
		return StepError
	default:
		return StepPass
	}
	// §4.6 Miss: force method to GET regardless of what the client
	// sent, since a conditional or HEAD request must still fetch the
	// full representation to populate the cache.
	s.ForceGetMethod = true
	return StepFetch
}

func (e *Engine) stepPass(s *Session) Step {
	s.Worker.Policy.Pass(s)
	return StepFetch
}
