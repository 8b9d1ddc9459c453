package varyproxy

import (
	"net/http"
	"time"

	"github.com/varyproxy/varyproxy/internal/vfp"
	"github.com/varyproxy/varyproxy/rfc9111"
	"github.com/varyproxy/varyproxy/rfc9211"
)

// stepFetch performs the backend round trip and vcl_backend_fetch/
// vcl_backend_response policy hooks (§4.7), selecting the VFP chain
// the body will run through in FetchBody.
func (e *Engine) stepFetch(s *Session) Step {
	bereq := rfc9111.GetForwardRequest(s.Req)
	bereq.RequestURI = ""
	if s.ForceGetMethod {
		bereq.Method = http.MethodGet
		s.ForceGetMethod = false
	}
	e.director(bereq)

	beresp, fr, err := e.backend.FetchHeaders(bereq)
	if err != nil {
		s.Worker.Log.Error().Err(err).Msg("backend fetch failed")
		s.ErrCode = http.StatusServiceUnavailable
		s.ErrReason = "backend fetch failed"
		if s.rc.ObjCore != nil && s.Head != nil {
			e.cacheIndex.Drop(s.Key, s.Head)
		}
		_ = fr
		return StepError
	}

	// §4.8 steps 1-6: derive what the backend actually sent, what a
	// hook asked for, and clamp the asks against what's physically
	// possible before anything downstream acts on them.
	isGzip := beresp.Header.Get("Content-Encoding") == "gzip"
	isGunzip := beresp.Header.Get("Content-Encoding") == ""
	wantsESI := !s.DisableESI && isESICandidate(beresp)

	doGzip := false      // no hook in this engine asks for re-compression today
	doGunzip := wantsESI // ESI composition needs a decompressed body to parse

	if !e.cfg.GzipSupport {
		doGzip = false
		doGunzip = false
	}
	if !isGzip {
		// Nothing to gunzip if the backend didn't send gzip.
		doGunzip = false
	}
	if doGunzip {
		beresp.Header.Del("Content-Encoding")
	}
	if !isGunzip {
		// Already has an encoding (or isn't plain): don't stack gzip on it.
		doGzip = false
	}
	if doGzip {
		beresp.Header.Set("Content-Encoding", "gzip")
	}

	busy := &BusyObj{
		BeReq:    bereq,
		BeResp:   beresp,
		IsGzip:   isGzip,
		IsGunzip: isGunzip,
		DoGzip:   doGzip,
		DoGunzip: doGunzip,
		DoESI:    wantsESI,
		Entered:  time.Now(),
	}
	busy.VFP = selectVFP(busy)
	// §4.8 step 8: ESI composition and a bodiless request (HEAD) both
	// need the whole body decided before delivery, so neither streams.
	busy.DoStream = s.WantBody && !wantsESI &&
		(beresp.ContentLength < 0 || beresp.ContentLength > e.cfg.StreamThreshold)
	s.rc.Busy = busy

	handling := s.Worker.Policy.Fetch(s, beresp)
	s.Handling = handling

	switch handling {
	case HandlingHitForPass:
		if s.Head != nil && s.rc.ObjCore != nil {
			s.rc.ObjCore.Flags |= ObjFlagPass
			e.cacheIndex.Unbusy(s.Head, s.rc.ObjCore, nil)
		}
		e.metrics.CacheHitPass.Inc()
		cs := rfc9211.CacheStatus{}
		cs.Forward(rfc9211.FwdReasonRequest)
		s.rc.cacheStatus = cs
		s.rc.preparedResponse = beresp
		return StepPrepResp
	case HandlingError:
		s.ErrCode = http.StatusBadGateway
		s.ErrReason = "policy rejected backend response"
		return StepError
	case HandlingRestart:
		busy.BeResp.Body.Close()
		if s.rc.ObjCore != nil && s.Head != nil {
			e.cacheIndex.Drop(s.Key, s.Head)
		}
		s.rc.Busy = nil
		s.Restarts++
		e.metrics.Restarts.Inc()
		return StepRecv
	default:
		return StepFetchBody
	}
}

func isESICandidate(beresp *http.Response) bool {
	ct := beresp.Header.Get("Content-Type")
	return len(ct) >= 9 && ct[:9] == "text/html"
}

// selectVFP picks the body transform chain per §4.8 step 7: ESI
// supersedes every other transform because composition happens after
// decompression, test-gzip is the fallback integrity check for a body
// the proxy otherwise passes through untouched.
func selectVFP(busy *BusyObj) VFP {
	switch {
	case busy.DoESI && busy.DoGunzip:
		return vfp.NewChain(vfp.NewGunzip(), vfp.NewESI())
	case busy.DoESI:
		return vfp.NewESI()
	case busy.DoGunzip:
		return vfp.NewGunzip()
	case busy.DoGzip:
		return vfp.NewGzip()
	case busy.IsGzip:
		return vfp.NewTestGzip()
	default:
		return vfp.Identity{}
	}
}
