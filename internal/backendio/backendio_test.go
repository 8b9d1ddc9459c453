package backendio

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type failNTimesTransport struct {
	fails     int
	transport http.RoundTripper
}

func (f *failNTimesTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	if f.fails > 0 {
		f.fails--
		return nil, errors.New("simulated transient backend failure")
	}
	return f.transport.RoundTrip(r)
}

func TestFetchHeadersRetriesOnce(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer origin.Close()

	transport := &failNTimesTransport{fails: 1, transport: http.DefaultTransport}
	b := New(transport)

	req, _ := http.NewRequest(http.MethodGet, origin.URL, nil)
	res, result, err := b.FetchHeaders(req)
	if err != nil {
		t.Fatalf("FetchHeaders: %v", err)
	}
	if result != FetchOK {
		t.Fatalf("result = %v, want FetchOK", result)
	}
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)
	if string(body) != "ok" {
		t.Fatalf("body = %q", body)
	}
}

func TestFetchHeadersGivesUpAfterPersistentFailure(t *testing.T) {
	transport := &failNTimesTransport{fails: 5, transport: http.DefaultTransport}
	b := New(transport)

	req, _ := http.NewRequest(http.MethodGet, "http://example.invalid/", nil)
	_, result, err := b.FetchHeaders(req)
	if err == nil {
		t.Fatalf("expected an error after persistent backend failure")
	}
	if result != FetchRetryableFailed {
		t.Fatalf("result = %v, want FetchRetryableFailed", result)
	}
}

func TestFetchBodyDrainsThroughVFP(t *testing.T) {
	b := New(http.DefaultTransport)
	res := &http.Response{Body: io.NopCloser(strings.NewReader("hello world"))}

	out, err := b.FetchBody(res, identityVFP{})
	if err != nil {
		t.Fatalf("FetchBody: %v", err)
	}
	if string(out) != "hello world" {
		t.Fatalf("out = %q", out)
	}
}

type identityVFP struct{}

func (identityVFP) Start() error { return nil }
func (identityVFP) Step(dst *[]byte, src []byte) (int, error) {
	*dst = append(*dst, src...)
	return len(src), nil
}
func (identityVFP) End(dst *[]byte) error { return nil }
