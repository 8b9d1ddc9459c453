package varyproxy

import (
	"net/http"
	"time"

	"github.com/rs/xid"
	"github.com/varyproxy/varyproxy/rfc9211"
)

// Step identifies a node in the request state machine. The set is closed
// and enumerable; dispatch is a handler table, never dynamic lookup.
type Step int

const (
	StepFirst Step = iota
	StepStart
	StepWait
	StepRecv
	StepLookup
	StepHit
	StepMiss
	StepPass
	StepPipe
	StepFetch
	StepFetchBody
	StepStreamBody
	StepPrepResp
	StepDeliver
	StepError
	StepDone
)

func (s Step) String() string {
	switch s {
	case StepFirst:
		return "First"
	case StepStart:
		return "Start"
	case StepWait:
		return "Wait"
	case StepRecv:
		return "Recv"
	case StepLookup:
		return "Lookup"
	case StepHit:
		return "Hit"
	case StepMiss:
		return "Miss"
	case StepPass:
		return "Pass"
	case StepPipe:
		return "Pipe"
	case StepFetch:
		return "Fetch"
	case StepFetchBody:
		return "FetchBody"
	case StepStreamBody:
		return "StreamBody"
	case StepPrepResp:
		return "PrepResp"
	case StepDeliver:
		return "Deliver"
	case StepError:
		return "Error"
	case StepDone:
		return "Done"
	default:
		return "Unknown"
	}
}

// Handling is the return code a policy hook writes after running.
type Handling int

const (
	HandlingNone Handling = iota
	HandlingLookup
	HandlingPipe
	HandlingPass
	HandlingFetch
	HandlingDeliver
	HandlingHitForPass
	HandlingRestart
	HandlingError
)

// Outcome is what a Step handler returns to the dispatcher.
type Outcome int

const (
	OutcomeContinue Outcome = iota
	OutcomePark
)

// Session is the unit of scheduling: a client connection plus, while one
// is in flight, the active request's state. Exactly one Worker owns a
// Session at a time; a Step either completes synchronously or parks it.
type Session struct {
	// Connection-scoped. net/http owns the actual socket; the acceptor
	// and poller are out of scope per §1 and are realized here by
	// http.Server, so Session keeps only what the state machine needs
	// to observe about the connection.
	W          http.ResponseWriter
	RemoteAddr string
	TOpen      time.Time

	// Request-scoped.
	Step     Step
	Xid      uint64
	TReq     time.Time
	TResp    time.Time
	TEnd     time.Time
	Restarts int
	ESILevel int

	Req      *http.Request
	http0    *http.Request // pre-modification snapshot, for restart
	Director string

	WantBody       bool
	SendBody       bool
	HashAlwaysMiss bool
	HashIgnoreBusy bool
	DisableESI     bool
	ForceGetMethod bool
	DoClose        string
	Digest         [32]byte
	Handling       Handling
	ErrCode        int
	ErrReason      string

	// wsSesMark is the workspace high-water mark at session start; Done
	// rewinds to it. wsReqMark is retaken at the top of every Step and
	// rewound at the bottom, so nothing a Step allocates from Worker.WS
	// outlives that Step.
	wsSesMark int
	wsReqMark int

	rc     *RequestContext
	Worker *Worker
	Key    string
	Head   *ObjHead

	engine *Engine
}

// RequestContext replaces the procedural "worker scratchpad" with an
// explicit, Session-owned structure for the duration of one request.
// The Worker retains only its execution environment (policy, log, ws).
type RequestContext struct {
	Object  *CachedObject
	ObjCore *ObjCore
	Busy    *BusyObj

	RespMode RespMode

	// preparedResponse and cacheStatus are filled in by Hit/Fetch and
	// consumed by PrepResp/Deliver; they never outlive one request.
	preparedResponse *http.Response
	cacheStatus      rfc9211.CacheStatus
}

// RespMode is the framing+transform decision made in PrepResp (§4.9).
type RespMode struct {
	Len      bool
	Chunked  bool
	EOF      bool
	ESI      bool
	ESIChild bool
	Gunzip   bool
}

func newXid() uint64 {
	id := xid.New()
	var v uint64
	for _, b := range id.Bytes() {
		v = v<<8 | uint64(b)
	}
	return v
}

// deref releases the Session's held Object/ObjCore references; the
// BusyObj is left in place.
// Every path to Done must call this exactly once per acquisition.
func (s *Session) deref() {
	if s.rc == nil {
		return
	}
	if s.rc.Object != nil {
		s.engine.cacheIndex.Deref(s.rc.ObjCore, s.rc.Object)
		s.rc.Object = nil
	}
	s.rc.ObjCore = nil
}

func (s *Session) resetRequestContext() {
	s.rc = &RequestContext{}
}
