// Package backendio implements the BackendIO collaborator of §6: the
// backend connection pool and HTTP/1.1 fetch/pipe routines. It operates
// purely on net/http types so the engine package can depend on it
// without a back-reference.
package backendio

import (
	"io"
	"net/http"
	"net/http/httputil"

	"github.com/cenkalti/backoff/v5"
)

// FetchResult is what FetchHeaders returns: 0 ok, 1 retryable exhausted,
// matching §6's BackendIO.fetch_headers contract.
type FetchResult int

const (
	FetchOK FetchResult = iota
	FetchRetryableFailed
	FetchFatal
)

// BackendIO is the connection-pool-backed fetch/pipe implementation.
type BackendIO struct {
	Transport http.RoundTripper
}

func New(transport http.RoundTripper) *BackendIO {
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &BackendIO{Transport: transport}
}

// FetchHeaders performs the backend round trip, retrying exactly once
// on failure (§4.7: "recycled backend connections race with the
// server's idle timeout"). The retry is bounded by
// github.com/cenkalti/backoff/v5 rather than an unbounded loop.
func (b *BackendIO) FetchHeaders(bereq *http.Request) (*http.Response, FetchResult, error) {
	ctx := bereq.Context()
	res, err := backoff.Retry(ctx, func() (*http.Response, error) {
		return b.Transport.RoundTrip(bereq)
	}, backoff.WithMaxTries(2), backoff.WithBackOff(backoff.NewConstantBackOff(0)))
	if err != nil {
		return nil, FetchRetryableFailed, err
	}
	return res, FetchOK, nil
}

// FetchBody drains beresp's body through vfp to completion, blocking
// until EOF or error (§4.8 "Fetch execution").
func (b *BackendIO) FetchBody(beresp *http.Response, vfp interface {
	Start() error
	Step(dst *[]byte, src []byte) (int, error)
	End(dst *[]byte) error
}) ([]byte, error) {
	defer beresp.Body.Close()
	if err := vfp.Start(); err != nil {
		return nil, err
	}
	var out []byte
	buf := make([]byte, 32*1024)
	for {
		n, rerr := beresp.Body.Read(buf)
		if n > 0 {
			if _, serr := vfp.Step(&out, buf[:n]); serr != nil {
				return nil, serr
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return nil, rerr
		}
	}
	if err := vfp.End(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// Pipe relays a request bidirectionally to the backend without any
// caching semantics (§4.6 Pipe step), for methods or content the
// policy has decided must bypass the proxy entirely.
func (b *BackendIO) Pipe(w http.ResponseWriter, r *http.Request, targetDirector func(*http.Request)) error {
	rp := httputil.ReverseProxy{
		Director:  targetDirector,
		Transport: b.Transport,
		FlushInterval: -1,
	}
	rp.ServeHTTP(w, r)
	return nil
}

// CloseIdle releases idle backend connections held by the transport.
// No Step calls it; Fetch's restart path leaves connections pooled.
func (b *BackendIO) CloseIdle() {
	type idleCloser interface{ CloseIdleConnections() }
	if ic, ok := b.Transport.(idleCloser); ok {
		ic.CloseIdleConnections()
	}
}
