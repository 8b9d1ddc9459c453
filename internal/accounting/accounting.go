// Package accounting exposes the §4/§9 counters (sess_closed,
// sess_linger, sess_herd, sess_readahead, cache_hit, cache_miss,
// cache_hitpass, client_req) as Prometheus metrics.
package accounting

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Counters holds the registered metrics for one Engine instance.
type Counters struct {
	SessClosed    prometheus.Counter
	SessLinger    prometheus.Counter
	SessHerd      prometheus.Counter
	SessReadahead prometheus.Counter
	CacheHit      prometheus.Counter
	CacheMiss     prometheus.Counter
	CacheHitPass  prometheus.Counter
	ClientReq     prometheus.Counter
	Restarts      prometheus.Counter
}

// New registers the counters against reg and returns them.
func New(reg prometheus.Registerer) *Counters {
	c := &Counters{
		SessClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "varyproxy_sess_closed_total",
			Help: "Sessions closed at Done.",
		}),
		SessLinger: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "varyproxy_sess_linger_total",
			Help: "Sessions that parked on Wait via session_linger.",
		}),
		SessHerd: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "varyproxy_sess_herd_total",
			Help: "Sessions parked on the connection waiter at Done.",
		}),
		SessReadahead: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "varyproxy_sess_readahead_total",
			Help: "Sessions that found unread bytes still pending at Done.",
		}),
		CacheHit: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "varyproxy_cache_hit_total",
			Help: "Lookup results that resolved to a usable Object.",
		}),
		CacheMiss: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "varyproxy_cache_miss_total",
			Help: "Lookup results that inserted a new busy ObjCore.",
		}),
		CacheHitPass: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "varyproxy_cache_hitpass_total",
			Help: "Lookup results that resolved to a PASS ObjCore.",
		}),
		ClientReq: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "varyproxy_client_req_total",
			Help: "Requests that reached Start.",
		}),
		Restarts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "varyproxy_restarts_total",
			Help: "Policy-initiated restarts back to Recv.",
		}),
	}
	for _, m := range []prometheus.Collector{
		c.SessClosed, c.SessLinger, c.SessHerd, c.SessReadahead,
		c.CacheHit, c.CacheMiss, c.CacheHitPass, c.ClientReq, c.Restarts,
	} {
		reg.MustRegister(m)
	}
	return c
}
