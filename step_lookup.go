package varyproxy

// stepLookup probes the cache index (§4.4). A freshly inserted or
// hash_ignore_busy-reentered busy ObjCore means this Session is the
// fetcher and proceeds to Miss; otherwise the resolved Object routes to
// Hit or, if it is a hit-for-pass placeholder, to Pass.
func (e *Engine) stepLookup(s *Session) Step {
	core, head := e.cacheIndex.Lookup(s.Key, s.HashIgnoreBusy)
	s.Head = head
	s.rc.ObjCore = core

	if core.Busy() {
		e.metrics.CacheMiss.Inc()
		return StepMiss
	}
	if core.Pass() {
		e.metrics.CacheHitPass.Inc()
		return StepPass
	}

	obj := e.cacheIndex.Resolve(core)
	if obj == nil {
		e.metrics.CacheMiss.Inc()
		return StepMiss
	}
	s.rc.Object = obj
	e.cacheIndex.Touch(obj, e.cfg.LRUTimeout)
	e.metrics.CacheHit.Inc()
	return StepHit
}
