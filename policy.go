package varyproxy

import (
	"crypto/sha256"
	"net/http"

	"github.com/varyproxy/varyproxy/rfc9111"
)

// PolicyVM is the embedded policy language collaborator of §6. Each
// hook reads mutable session/bereq/beresp/obj state and returns a
// Handling code; the legal codes per hook are enumerated in §4. This
// package does not implement a policy language — it provides the
// default hook set every session runs unless a future policy compiler
// replaces it, grounded in RFC 9111 storage/reuse semantics rather than
// ad hoc rules.
type PolicyVM interface {
	Recv(s *Session) Handling
	Hash(s *Session, h interface{ Write([]byte) (int, error) })
	Pipe(s *Session) Handling
	Pass(s *Session) Handling
	Miss(s *Session) Handling
	Hit(s *Session) Handling
	Fetch(s *Session, beresp *http.Response) Handling
	Deliver(s *Session) Handling
	Error(s *Session) Handling
}

// DefaultPolicy implements PolicyVM using RFC 9111's storage and reuse
// rules directly, the same logic always-cache.go drove by hand before
// this engine existed.
type DefaultPolicy struct{}

func (DefaultPolicy) Recv(s *Session) Handling {
	if rfc9111.UnsafeRequest(s.Req) {
		return HandlingPass
	}
	switch s.Req.Method {
	case http.MethodGet, http.MethodHead:
		return HandlingLookup
	default:
		return HandlingPass
	}
}

func (DefaultPolicy) Hash(s *Session, h interface{ Write([]byte) (int, error) }) {
	h.Write([]byte(s.Req.Method))
	h.Write([]byte(s.Req.URL.RequestURI()))
}

func (DefaultPolicy) Pipe(s *Session) Handling {
	return HandlingPipe
}

func (DefaultPolicy) Pass(s *Session) Handling {
	return HandlingPass
}

func (DefaultPolicy) Miss(s *Session) Handling {
	return HandlingFetch
}

func (DefaultPolicy) Hit(s *Session) Handling {
	return HandlingDeliver
}

// Fetch decides hit_for_pass vs deliver using MustNotStore (§3): a
// response that the RFC forbids storing becomes a negative cache entry
// so subsequent requests skip straight to Pass instead of re-fetching
// headers through Miss every time.
func (DefaultPolicy) Fetch(s *Session, beresp *http.Response) Handling {
	noStore, err := rfc9111.MustNotStore(beresp)
	if err != nil || noStore {
		return HandlingHitForPass
	}
	return HandlingDeliver
}

func (DefaultPolicy) Deliver(s *Session) Handling {
	return HandlingDeliver
}

func (DefaultPolicy) Error(s *Session) Handling {
	return HandlingDeliver
}

func newHasher() *sha256Hasher {
	return &sha256Hasher{h: sha256.New()}
}

type sha256Hasher struct {
	h interface {
		Write([]byte) (int, error)
		Sum([]byte) []byte
	}
}

func (s *sha256Hasher) Write(p []byte) (int, error) { return s.h.Write(p) }
func (s *sha256Hasher) Sum() [32]byte {
	var out [32]byte
	copy(out[:], s.h.Sum(nil))
	return out
}
