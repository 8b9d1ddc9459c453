package varyproxy

import (
	"io"
	"strconv"
	"time"

	"github.com/varyproxy/varyproxy/internal/vfp"
	"github.com/varyproxy/varyproxy/rfc9111"
)

// stepDeliver writes the prepared response to the client (§4.10),
// applying the GUNZIP transform decided in PrepResp when the stored
// Object is gzipped but the client cannot accept it.
func (e *Engine) stepDeliver(s *Session) Step {
	res := s.rc.preparedResponse
	if res == nil {
		s.ErrCode = 500
		s.ErrReason = "no prepared response"
		return StepError
	}

	copyHeader(s.W.Header(), res.Header)
	s.W.Header().Del("Content-Length")
	s.W.Header().Set("Cache-Status", s.rc.cacheStatus.String())
	if s.rc.RespMode.Gunzip {
		s.W.Header().Del("Content-Encoding")
	}
	if s.DoClose != "" {
		// §4.12: a non-nil doclose reason means close after delivery;
		// net/http honors this header by closing the connection once
		// the response is written instead of keeping it alive.
		s.W.Header().Set("Connection", "close")
	}

	body := e.deliverBody(s)
	if s.rc.RespMode.Len {
		s.W.Header().Set("Content-Length", strconv.Itoa(len(body)))
	}

	if s.rc.Object != nil {
		rfc9111.AddAgeHeader(res, s.rc.Object.LastModified, s.rc.Object.LastModified)
	}

	s.W.WriteHeader(res.StatusCode)
	if s.WantBody {
		if _, err := s.W.Write(body); err != nil {
			s.Worker.Log.Error().Err(err).Msg("could not write response body")
		}
	}

	s.TResp = time.Now()
	return StepDone
}

func (e *Engine) deliverBody(s *Session) []byte {
	obj := s.rc.Object
	if obj == nil {
		if s.rc.Busy != nil && s.rc.Busy.BeResp != nil && s.rc.Busy.BeResp.Body != nil {
			b, _ := io.ReadAll(s.rc.Busy.BeResp.Body)
			s.rc.Busy.BeResp.Body.Close()
			return b
		}
		return nil
	}
	if !s.rc.RespMode.Gunzip {
		return obj.Body
	}
	g := vfp.NewGunzip()
	g.Start()
	var out []byte
	if _, err := g.Step(&out, obj.Body); err != nil {
		s.Worker.Log.Error().Err(err).Msg("gunzip step failed")
		return obj.Body
	}
	out = out[:0]
	if err := g.End(&out); err != nil {
		s.Worker.Log.Error().Err(err).Msg("gunzip failed, serving compressed body")
		return obj.Body
	}
	return out
}
