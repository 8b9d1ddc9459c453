package varyproxy

import (
	"net/http"
	"time"

	"github.com/varyproxy/varyproxy/internal/storage"
	"github.com/varyproxy/varyproxy/rfc9111"
	"github.com/varyproxy/varyproxy/rfc9211"
)

// stepFetchBody drains the backend body through the selected VFP chain
// to completion (§4.8), then stores the resulting Object and wakes any
// Sessions parked on the busy list.
func (e *Engine) stepFetchBody(s *Session) Step {
	busy := s.rc.Busy

	if busy.DoStream {
		// The body is left unread; StreamBody pulls it directly off
		// busy.BeResp so delivery can start before the fetch finishes.
		stored := &http.Response{
			StatusCode: busy.BeResp.StatusCode,
			Header:     busy.BeResp.Header,
			Body:       http.NoBody,
			Request:    s.Req,
		}
		cs := rfc9211.CacheStatus{}
		cs.Forward(rfc9211.FwdReasonMiss)
		s.rc.cacheStatus = cs
		s.rc.preparedResponse = stored
		return StepPrepResp
	}

	body, err := e.backend.FetchBody(busy.BeResp, busy.VFP)
	if err != nil {
		busy.BeResp.Body.Close()
		s.Worker.Log.Error().Err(err).Msg("fetch body failed")
		s.ErrCode = http.StatusServiceUnavailable
		s.ErrReason = "backend body read failed"
		if s.Head != nil {
			e.cacheIndex.Drop(s.Key, s.Head)
		}
		return StepError
	}

	obj := &CachedObject{
		Header:       rfc9111.StorableHeader(busy.BeResp.Header),
		Status:       busy.BeResp.StatusCode,
		Xid:          s.Xid,
		LastModified: busy.Entered,
		Gzipped:      busy.IsGzip && !busy.DoGunzip,
		Vary:         busy.BeResp.Header.Get("Vary"),
		Body:         body,
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
			// Never publish a no-store Object into the index: a later
			// Lookup must re-fetch, not resolve this one from memory.
			e.cacheIndex.Drop(s.Key, s.Head)
		} else {
			if s.rc.ObjCore == nil {
				s.rc.ObjCore = &ObjCore{Key: s.Key}
			}
			e.cacheIndex.Unbusy(s.Head, s.rc.ObjCore, obj)
		}
	}

	stored := &http.Response{
		StatusCode: obj.Status,
		Header:     obj.Header,
		Body:       http.NoBody,
		Request:    s.Req,
	}
	cs := rfc9211.CacheStatus{}
	cs.Forward(rfc9211.FwdReasonMiss)
	cs.Stored = !noStore
	s.rc.cacheStatus = cs
	s.rc.preparedResponse = stored

	if rfc9111.UnsafeRequest(s.Req) {
		// A redirect is likely pointing at the just-updated resource, so
		// resolve it before the client follows; any other unsafe method's
		// invalidation can happen after the response is already on its
		// way out.
		if isRedirect(obj.Status) {
			e.updater.updateIfNeeded(s.Req, busy.BeResp)
		} else {
			go e.updater.updateIfNeeded(s.Req, busy.BeResp)
		}
	}

	return StepPrepResp
}

func (e *Engine) persistObject(s *Session, obj *CachedObject) {
	keyPrefix := e.keyer.GetKeyPrefix(s.Req)
	key := e.keyer.AddVaryKeys(keyPrefix, s.Req, &http.Response{Header: obj.Header})
	exp := rfc9111.GetExpiration(&http.Response{Header: obj.Header, StatusCode: obj.Status})
	bts, err := responseToStoredBytes(obj, s.Req)
	if err != nil {
		s.Worker.Log.Error().Err(err).Msg("could not serialize object for storage")
		return
	}
	requestedAt, receivedAt := s.rc.Busy.Entered, time.Now()
	entry := storage.Entry{
		Key:         key,
		Expires:     exp,
		RequestedAt: requestedAt,
		ReceivedAt:  receivedAt,
		Bytes:       bts,
	}
	if err := e.storage.Put(entry); err != nil {
		s.Worker.Log.Error().Err(err).Msg("could not persist object")
	}
}
