package rfc9211

import (
	"fmt"
	"strings"
)

// §  2.2.  The fwd Parameter
// §
// §     The fwd parameter's value is a token that indicates that the cache
// §     did not satisfy the request using a stored response, and the reason
// §     why.

// FwdReason is the value of the Cache-Status "fwd" parameter (Section 2.2).
type FwdReason string

const (
	// FwdReasonMethod: the request method's semantics require forwarding.
	FwdReasonMethod FwdReason = "method"
	// FwdReasonUriMiss: the cache did not contain any response for the target URI.
	FwdReasonUriMiss FwdReason = "uri-miss"
	// FwdReasonVaryMiss: the cache contained a response for the target URI, but
	// it could not select a fresh response using the request's header fields
	// and the stored responses' Vary header fields.
	FwdReasonVaryMiss FwdReason = "vary-miss"
	// FwdReasonMiss: the cache did not contain any responses that could be
	// used to satisfy the request (not necessarily defined as uri-miss or
	// vary-miss).
	FwdReasonMiss FwdReason = "miss"
	// FwdReasonRequest: the cache was configured to not handle this request.
	FwdReasonRequest FwdReason = "request"
	// FwdReasonStale: the cache was able to select a response for the
	// request, but the selected response was stale.
	FwdReasonStale FwdReason = "stale"
	// FwdReasonPartial: the cache was able to select a partial response for
	// the request, but it did not contain all of the requested ranges.
	FwdReasonPartial FwdReason = "partial"
)

// CacheStatus represents a single "Cache-Status" response header field
// instance, as defined by RFC 9211. Zero value is a cache miss with no
// forward reason recorded yet; populate it with Hit or Forward.
type CacheStatus struct {
	// Hit records whether the cache satisfied the request from storage.
	Hit_ bool
	// FwdReason is set when the cache forwarded the request.
	FwdReason FwdReason
	// FwdStatus is the status code of the forwarded request's response, if any.
	FwdStatus int
	// TimeToLive is the response's remaining freshness lifetime, in seconds.
	// Negative values indicate a stale response served anyway.
	TimeToLive int
	// Stored records whether the forwarded response was stored.
	Stored bool
	// Collapsed records whether the request was collapsed with another.
	Collapsed bool
	// Key is the cache key used for the request, when exposed.
	Key string
	// Status is the label reported by the cache; used for logging only.
	Status Status
}

// Status is a free-form label for logging; it is not part of the wire format.
type Status string

const (
	StatusHit  Status = "hit"
	StatusFwd  Status = "fwd"
	StatusPass Status = "pass"
)

// Hit marks the status as a cache hit.
func (c *CacheStatus) Hit() {
	c.Hit_ = true
	c.Status = StatusHit
}

// Forward marks the status as forwarded to the origin, with the given reason.
func (c *CacheStatus) Forward(reason FwdReason) {
	c.Hit_ = false
	c.FwdReason = reason
	c.Status = StatusFwd
}

// String renders the Cache-Status field value per Section 2, using "Proxy"
// as the cache identifier.
func (c CacheStatus) String() string {
	var b strings.Builder
	b.WriteString("Proxy")
	if c.Hit_ {
		b.WriteString("; hit")
	} else if c.FwdReason != "" {
		fmt.Fprintf(&b, "; fwd=%s", c.FwdReason)
		if c.FwdStatus != 0 {
			fmt.Fprintf(&b, "; fwd-status=%d", c.FwdStatus)
		}
	}
	if c.TimeToLive != 0 || c.Hit_ {
		fmt.Fprintf(&b, "; ttl=%d", c.TimeToLive)
	}
	if c.Stored {
		b.WriteString("; stored")
	}
	if c.Collapsed {
		b.WriteString("; collapsed")
	}
	if c.Key != "" {
		fmt.Fprintf(&b, "; key=%q", c.Key)
	}
	return b.String()
}
