package tzcache

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// registerMetrics wires four counters into prometheus.DefaultRegisterer,
// mirroring facebook-time's pattern of registering into the default
// registry and falling back to the already-registered collector when
// multiple Cache instances exist in one process (e.g. in tests).
func (c *Cache) registerMetrics() {
	c.hits = mustRegisterCounter(prometheus.CounterOpts{
		Name: "tzcore_cache_hits_total",
		Help: "Zone lookups served from a live weak-tier entry.",
	})
	c.misses = mustRegisterCounter(prometheus.CounterOpts{
		Name: "tzcore_cache_misses_total",
		Help: "Zone lookups that required building (or rebuilding) a zone.",
	})
	c.evictions = mustRegisterCounter(prometheus.CounterOpts{
		Name: "tzcore_cache_strong_evictions_total",
		Help: "Entries dropped from the strong FIFO tier due to capacity.",
	})
	c.reaps = mustRegisterCounter(prometheus.CounterOpts{
		Name: "tzcore_cache_weak_reaps_total",
		Help: "Weak-tier entries found collected (or swept) since no strong reference remained.",
	})
}

func mustRegisterCounter(opts prometheus.CounterOpts) prometheus.Counter {
	c := prometheus.NewCounter(opts)
	if err := prometheus.DefaultRegisterer.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector.(prometheus.Counter)
		}
		panic(err)
	}
	return c
}
