package varyproxy

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/varyproxy/varyproxy/rfc9111"
)

// stepStreamBody is the streaming-delivery counterpart to FetchBody
// (§4.10): it overlaps fetch and delivery for a still-BUSY Object by
// reading the backend body and writing to the client in the same pass
// instead of buffering the whole body first. A tee keeps the original
// (still-encoded) bytes so the Object that lands in storage is the one
// a gzip-capable client can reuse later, even when this client is
// receiving an on-the-fly gunzipped copy.
func (e *Engine) stepStreamBody(s *Session) Step {
	busy := s.rc.Busy
	res := s.rc.preparedResponse

	copyHeader(s.W.Header(), res.Header)
	s.W.Header().Del("Content-Length")
	s.W.Header().Set("Cache-Status", s.rc.cacheStatus.String())

	doGunzipDeliver := busy.IsGzip && !clientAcceptsGzip(s.Req)
	s.rc.RespMode.Gunzip = doGunzipDeliver
	if doGunzipDeliver {
		s.W.Header().Del("Content-Encoding")
	}
	if s.DoClose != "" {
		// Any doclose reason already decided before headers go out (a
		// stream error discovered mid-body is too late for this, since
		// the header section is already written by then).
		s.W.Header().Set("Connection", "close")
	}

	s.W.WriteHeader(res.StatusCode)
	flusher, _ := s.W.(http.Flusher)

	var raw bytes.Buffer
	tee := io.TeeReader(busy.BeResp.Body, &raw)

	var src io.Reader = tee
	var gzr *gzip.Reader
	var streamErr error
	if doGunzipDeliver {
		gzr, streamErr = gzip.NewReader(tee)
		if streamErr == nil {
			src = gzr
		}
	}

	if streamErr == nil {
		if s.WantBody {
			buf := make([]byte, 32*1024)
			for {
				n, rerr := src.Read(buf)
				if n > 0 {
					if _, werr := s.W.Write(buf[:n]); werr != nil {
						streamErr = werr
						break
					}
					if flusher != nil {
						flusher.Flush()
					}
				}
				if rerr == io.EOF {
					break
				}
				if rerr != nil {
					streamErr = rerr
					break
				}
			}
		} else {
			// HEAD: still drain the backend body through tee so raw
			// carries the full bytes for storage.
			_, streamErr = io.Copy(io.Discard, tee)
		}
	}
	if gzr != nil {
		gzr.Close()
	}
	busy.BeResp.Body.Close()
	s.TResp = time.Now()

	if streamErr != nil {
		s.Worker.Log.Error().Err(streamErr).Msg("stream fetch failed")
		s.DoClose = "Stream error"
		if s.Head != nil {
			e.cacheIndex.Drop(s.Key, s.Head)
		}
		return StepDone
	}

	obj := &CachedObject{
		Header:       rfc9111.StorableHeader(busy.BeResp.Header),
		Status:       busy.BeResp.StatusCode,
		Xid:          s.Xid,
		LastModified: busy.Entered,
		Gzipped:      busy.IsGzip,
		Vary:         busy.BeResp.Header.Get("Vary"),
		Body:         raw.Bytes(),
	}
	s.rc.Object = obj

	noStore, err := rfc9111.MustNotStore(busy.BeResp)
	if err != nil {
		s.Worker.Log.Warn().Err(err).Msg("could not evaluate storability")
	}
	if !noStore && s.Head != nil {
		e.persistObject(s, obj)
	}
	if s.Head != nil {
		if noStore {
			e.cacheIndex.Drop(s.Key, s.Head)
		} else {
			if s.rc.ObjCore == nil {
				s.rc.ObjCore = &ObjCore{Key: s.Key}
			}
			e.cacheIndex.Unbusy(s.Head, s.rc.ObjCore, obj)
		}
	}

	return StepDone
}
