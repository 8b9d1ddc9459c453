package varyproxy

import (
	"net/http"
	"net/http/httputil"
	"time"

	"github.com/varyproxy/varyproxy/cache"
	cachekey "github.com/varyproxy/varyproxy/pkg/cache-key"
	cacheupdate "github.com/varyproxy/varyproxy/pkg/cache-update"
	responsetransformer "github.com/varyproxy/varyproxy/pkg/response-transformer"
	tee "github.com/varyproxy/varyproxy/pkg/response-writer-tee"
	"github.com/varyproxy/varyproxy/rfc9111"
)

// updater runs the background revalidation loop that keeps entries
// from ever serving stale: it walks the oldest-expiring keys and
// refetches them ahead of expiry, sidestepping the Session/Step engine
// entirely since there is no client request driving this traffic.
type updater struct {
	e       *Engine
	cache   cache.CacheProvider
	keyer   cachekey.CacheKeyer
	rp      httputil.ReverseProxy
	rules   responsetransformer.Rules
	timeout time.Duration
}

func (e *Engine) newUpdater(rules responsetransformer.Rules, timeout time.Duration) *updater {
	return &updater{
		e:     e,
		cache: e.cfg.Cache,
		keyer: e.keyer,
		rp: httputil.ReverseProxy{
			Director:       e.director,
			Transport:      e.backend.Transport,
			ModifyResponse: rules.Apply,
		},
		rules:   rules,
		timeout: timeout,
	}
}

// Start runs the update loop until ctx-free (the Engine owns the
// process lifetime; callers stop it by exiting the process).
func (u *updater) Start() {
	if u.timeout == 0 {
		return
	}
	u.e.log.Info().Msgf("starting cache update loop with timeout %s", u.timeout)
	for {
		key, expiry, err := u.cache.Oldest(u.keyer.MethodPrefix(http.MethodGet))
		if err != nil {
			u.e.log.Error().Err(err).Msg("could not get oldest entry")
			time.Sleep(u.timeout)
			continue
		}
		if key != "" && expiry.Sub(time.Now()) <= u.timeout {
			u.updateEntry(key)
		} else {
			time.Sleep(u.timeout)
		}
	}
}

func (u *updater) updateEntry(key string) {
	req, err := u.keyer.GetRequestFromKey(key)
	if err == cachekey.ErrorMethodNotSupported {
		return
	}
	if err != nil {
		u.e.log.Error().Err(err).Str("key", key).Msg("could not rebuild request from key")
		u.cache.Purge(key)
		return
	}

	cached, err := u.saveRequest(req, key)
	if !cached || err != nil {
		time.Sleep(time.Second)
		cached, err = u.saveRequest(req, key)
	}
	if err != nil {
		u.e.log.Error().Err(err).Str("key", key).Msg("could not update cache entry")
	}
	if err != nil || !cached {
		u.cache.Purge(key)
	}
}

func (u *updater) saveRequest(req *http.Request, key string) (bool, error) {
	rw := tee.NewResponseSaver(nil)
	u.rp.ServeHTTP(rw, req)
	return u.writeCache(rw, req)
}

func (u *updater) writeCache(rw *tee.ResponseSaver, r *http.Request) (bool, error) {
	res := &http.Response{Header: rw.Header(), StatusCode: rw.StatusCode(), Request: r}
	if noStore, err := rfc9111.MustNotStore(res); err != nil {
		return false, err
	} else if noStore {
		return false, nil
	}
	keyPrefix := u.keyer.GetKeyPrefix(r)
	key := u.keyer.AddVaryKeys(keyPrefix, r, &http.Response{Header: rw.Header()})
	ce := cache.CacheEntry{
		Key:         key,
		Expires:     rfc9111.GetExpiration(res),
		RequestedAt: rw.CreatedAt,
		ReceivedAt:  time.Now(),
		Bytes:       rw.Response(),
	}
	err := u.cache.PutCE(ce)
	return err == nil, err
}

// invalidateUris purges the given URIs after an unsafe request, used
// when background updates are disabled (timeout 0) (§4.4).
func (u *updater) invalidateUris(uris []string) {
	for _, uri := range uris {
		req, err := http.NewRequest(http.MethodGet, uri, nil)
		if err != nil {
			continue
		}
		u.cache.Purge(u.keyer.GetKeyPrefix(req))
	}
}

// revalidateUris refetches URIs that are already cached instead of
// purging them outright, used when background updates are enabled.
func (u *updater) revalidateUris(uris []string) {
	for _, uri := range uris {
		req, err := http.NewRequest(http.MethodGet, uri, nil)
		if err != nil {
			continue
		}
		key := u.keyer.GetKeyPrefix(req)
		if u.cache.Has(key) {
			u.saveRequest(req, key)
		}
	}
}

// updateIfNeeded reacts to an unsafe request's response (§4.4): purge
// or revalidate the URIs it invalidates, then act on any Cache-Update
// header it carries.
func (u *updater) updateIfNeeded(downReq *http.Request, upRes *http.Response) {
	if u.timeout == 0 {
		u.invalidateUris(rfc9111.GetInvalidateURIs(downReq, upRes))
	} else {
		u.revalidateUris(rfc9111.GetInvalidateURIs(downReq, upRes))
	}
	u.saveUpdates(cacheupdate.GetCacheUpdates(downReq, upRes))
}

func (u *updater) saveUpdates(updates []cacheupdate.CacheUpdate) {
	for _, update := range updates {
		path := update.Path
		run := func() {
			req, err := http.NewRequest(http.MethodGet, path, nil)
			if err != nil {
				return
			}
			u.saveRequest(req, u.keyer.GetKeyPrefix(req))
		}
		if update.Delay > 0 {
			go func(d time.Duration) { time.Sleep(d); run() }(update.Delay)
		} else {
			run()
		}
	}
}
