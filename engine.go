package varyproxy

import (
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/varyproxy/varyproxy/cache"
	"github.com/varyproxy/varyproxy/internal/accounting"
	"github.com/varyproxy/varyproxy/internal/backendio"
	"github.com/varyproxy/varyproxy/internal/storage"
	cachekey "github.com/varyproxy/varyproxy/pkg/cache-key"
	responsetransformer "github.com/varyproxy/varyproxy/pkg/response-transformer"
)

// Config configures an Engine, following the shape of always-cache's
// Config (always-cache.go) but naming the knobs of this state engine.
// SessionLinger, ShortlivedTTL and WthreadStatsRate are accepted and
// defaulted but no Step reads them.
type Config struct {
	Cache      cache.CacheProvider
	OriginURL  url.URL
	OriginHost string
	Transport  http.RoundTripper
	Logger     *zerolog.Logger
	Registerer prometheus.Registerer

	MaxRestarts      int
	SessionLinger    time.Duration
	LRUTimeout       time.Duration
	GzipSupport      bool
	ShortlivedTTL    time.Duration
	WthreadStatsRate uint64
	DisableUpdates   bool
	ResponseRules    responsetransformer.Rules

	// StreamThreshold is the backend Content-Length above which
	// FetchBody hands the body off to StreamBody instead of buffering
	// it whole (§4.8 step 8 / §4.10). A negative backend
	// Content-Length (chunked/unknown framing) always streams.
	StreamThreshold int64
}

func (c *Config) setDefaults() {
	if c.MaxRestarts == 0 {
		c.MaxRestarts = 4
	}
	if c.LRUTimeout == 0 {
		c.LRUTimeout = 2 * time.Second
	}
	if c.ShortlivedTTL == 0 {
		c.ShortlivedTTL = 10 * time.Second
	}
	if c.StreamThreshold == 0 {
		c.StreamThreshold = 1 << 20
	}
	if c.WthreadStatsRate == 0 {
		c.WthreadStatsRate = 1000
	}
	if c.Registerer == nil {
		c.Registerer = prometheus.NewRegistry()
	}
}

// Engine owns the process-wide collaborators named in §6: the cache
// index, backend IO, and policy program. It implements http.Handler:
// every inbound request becomes one Session driven through the Step
// dispatcher.
type Engine struct {
	cfg        Config
	log        zerolog.Logger
	cacheIndex *CacheIndex
	storage    storage.Storage
	keyer      cachekey.CacheKeyer
	policy     PolicyVM
	backend    *backendio.BackendIO
	metrics    *accounting.Counters
	updater    *updater
}

func NewEngine(cfg Config) *Engine {
	cfg.setDefaults()

	var logger zerolog.Logger
	if cfg.Logger == nil {
		logger = zerolog.New(zerolog.NewConsoleWriter())
	} else {
		logger = *cfg.Logger
	}
	logger = logger.With().Str("origin", cfg.OriginURL.String()).Logger()

	st := storage.NewSQLiteStorage(cfg.Cache)

	e := &Engine{
		cfg:        cfg,
		log:        logger,
		cacheIndex: NewCacheIndex(st),
		storage:    st,
		keyer:      cachekey.NewCacheKeyer(cfg.OriginURL.String()),
		policy:     DefaultPolicy{},
		backend:    backendio.New(cfg.Transport),
		metrics:    accounting.New(cfg.Registerer),
	}
	updateTimeout := time.Duration(0)
	if !cfg.DisableUpdates {
		updateTimeout = time.Second
	}
	e.updater = e.newUpdater(cfg.ResponseRules, updateTimeout)
	if updateTimeout != 0 {
		go e.updater.Start()
	}
	return e
}

// director rewrites a forwarded request's target to the configured
// origin, the role always-cache.go's proxy() method played by hand.
func (e *Engine) director(req *http.Request) {
	req.URL.Scheme = e.cfg.OriginURL.Scheme
	req.URL.Host = e.cfg.OriginURL.Host
	if e.cfg.OriginHost != "" {
		req.Host = e.cfg.OriginHost
	}
}

// ServeHTTP drives one Session from First through Done. net/http has
// already done the job of the out-of-scope TCP acceptor/poller (§1) by
// the time this is called, so First/Start collapse into Session setup
// and Wait is not reachable from here — connection-level keep-alive and
// pipelining are net/http's responsibility, not this engine's.
func (e *Engine) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s := &Session{
		W:          w,
		RemoteAddr: r.RemoteAddr,
		TOpen:      time.Now(),
		Req:        r,
		Step:       StepFirst,
		engine:     e,
	}
	s.Worker = newWorker(e.log, e.policy)
	e.run(s)
}
