package accounting

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistersAndCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.CacheHit.Inc()
	c.CacheHit.Inc()
	c.CacheMiss.Inc()

	if got := testutil.ToFloat64(c.CacheHit); got != 2 {
		t.Fatalf("CacheHit = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.CacheMiss); got != 1 {
		t.Fatalf("CacheMiss = %v, want 1", got)
	}

	if count := testutil.CollectAndCount(reg); count == 0 {
		t.Fatalf("expected registered metrics to be collectible")
	}
}
