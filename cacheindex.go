package varyproxy

import (
	"net/http"
	"sync"
	"time"

	"github.com/varyproxy/varyproxy/internal/storage"
)

// ObjCore flags (§3 DATA MODEL).
const (
	ObjFlagBusy = 1 << iota
	ObjFlagPass
)

// CachedObject is the cached artifact. Immutable after Unbusy except for
// the LRU fields, which CacheIndex synchronizes.
type CachedObject struct {
	Header       http.Header
	Status       int
	Xid          uint64
	LastModified time.Time
	Gzipped      bool
	Vary         string
	Body         []byte

	mu       sync.Mutex
	LastUse  time.Time
	LastLRU  time.Time
	refcount int
}

// ObjCore is the index handle pointing at an Object, or a busy
// placeholder while one is being fetched.
type ObjCore struct {
	Flags int
	Key   string
	obj   *CachedObject
}

func (o *ObjCore) Busy() bool { return o.Flags&ObjFlagBusy != 0 }
func (o *ObjCore) Pass() bool { return o.Flags&ObjFlagPass != 0 }

// ObjHead is the busy-list coordination point for one (hash, vary) key:
// fetchers signal parked Sessions on Unbusy/Drop via this queue, modeled
// as a condition variable rather than a cross-thread channel, matching
// the single-threaded-per-Session scheduling model of §5.
type ObjHead struct {
	mu      sync.Mutex
	cond    *sync.Cond
	core    *ObjCore
	waiters int
}

func newObjHead() *ObjHead {
	h := &ObjHead{}
	h.cond = sync.NewCond(&h.mu)
	return h
}

// BusyObj is the mutable fetch-time state bound to one ObjCore while
// BUSY. Exclusively owned by the fetching Session.
type BusyObj struct {
	BeReq  *http.Request
	BeResp *http.Response

	IsGzip   bool
	IsGunzip bool
	DoGzip   bool
	DoGunzip bool
	DoESI    bool
	DoStream bool

	Entered time.Time
	TTL     time.Duration
	Grace   time.Duration
	Keep    time.Duration

	VFP VFP

	backendStatus int
}

// VFP is a body transform pipeline element: identity, gzip, gunzip,
// test-gzip, or ESI (§4.8, GLOSSARY).
type VFP interface {
	Start() error
	Step(dst *[]byte, src []byte) (int, error)
	End(dst *[]byte) error
}

// CacheIndex is the hash-table/cache-index collaborator (§6). Lookup may
// park the caller on an ObjHead's busy list; parking blocks the calling
// goroutine inside Lookup until the fetcher calls Unbusy or Drop.
type CacheIndex struct {
	mu      sync.Mutex
	heads   map[string]*ObjHead
	storage storage.Storage
}

func NewCacheIndex(s storage.Storage) *CacheIndex {
	return &CacheIndex{
		heads:   make(map[string]*ObjHead),
		storage: s,
	}
}

func (c *CacheIndex) headFor(key string) *ObjHead {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.heads[key]
	if !ok {
		h = newObjHead()
		c.heads[key] = h
	}
	return h
}

// Lookup probes the index for key. While another Session holds the key
// busy, the caller waits on objhead's busy list inside this call. The
// returned ObjCore is never nil: it is either a published core or a new
// busy placeholder that makes the caller the fetcher.
func (c *CacheIndex) Lookup(key string, hashIgnoreBusy bool) (core *ObjCore, head *ObjHead) {
	head = c.headFor(key)
	head.mu.Lock()
	defer head.mu.Unlock()

	for head.core != nil && head.core.Busy() && !hashIgnoreBusy {
		// Somebody else is fetching: park on the busy list. Loop rather
		// than waking once: Drop may have set head.core back to nil (the
		// fetcher failed) or Unbusy may have handed it to yet another
		// still-busy fetch by the time this goroutine is scheduled again.
		head.waiters++
		head.cond.Wait()
		head.waiters--
	}
	if head.core == nil {
		// Nobody has this key, or the previous fetcher dropped it:
		// insert a busy placeholder, caller becomes the new fetcher.
		head.core = &ObjCore{Flags: ObjFlagBusy, Key: key}
	}
	return head.core, head
}

// Unbusy publishes core's Object, making it visible to Lookup, and wakes
// every Session parked on head's busy list.
func (c *CacheIndex) Unbusy(head *ObjHead, core *ObjCore, obj *CachedObject) {
	head.mu.Lock()
	core.Flags &^= ObjFlagBusy
	core.obj = obj
	head.mu.Unlock()
	head.cond.Broadcast()
}

// Drop removes a busy core without ever publishing an Object (fetch
// error, pass cleanup) and wakes parked peers so they re-race Lookup.
func (c *CacheIndex) Drop(key string, head *ObjHead) {
	head.mu.Lock()
	head.core = nil
	head.mu.Unlock()
	head.cond.Broadcast()
	c.mu.Lock()
	delete(c.heads, key)
	c.mu.Unlock()
}

// Deref releases a reference to an Object. When the refcount reaches
// zero the Object is eligible for destruction; in this implementation
// storage eviction is driven by the expiry index, not refcounting, so
// Deref here only maintains accounting for test visibility.
func (c *CacheIndex) Deref(core *ObjCore, obj *CachedObject) {
	if obj == nil {
		return
	}
	obj.mu.Lock()
	obj.refcount--
	obj.mu.Unlock()
}

// Resolve returns the published CachedObject for a non-busy core.
func (c *CacheIndex) Resolve(core *ObjCore) *CachedObject {
	if core.obj != nil {
		core.obj.mu.Lock()
		core.obj.refcount++
		core.obj.mu.Unlock()
	}
	return core.obj
}

// Touch updates LRU bookkeeping for obj, no more often than lruTimeout.
func (c *CacheIndex) Touch(obj *CachedObject, lruTimeout time.Duration) {
	obj.mu.Lock()
	defer obj.mu.Unlock()
	now := time.Now()
	if now.Sub(obj.LastLRU) > lruTimeout {
		obj.LastLRU = now
	}
	obj.LastUse = now
}
