package cache

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	hitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "erp_cache_hits_total",
		Help: "Cached query responses served from the cache",
	})
	missesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "erp_cache_misses_total",
		Help: "Cacheable queries that had to run their handler",
	})
)

// Stats counts hits and misses for the periodic cache report.
type Stats struct {
	hits   atomic.Int64
	misses atomic.Int64
}

func (s *Stats) Hit() {
	s.hits.Add(1)
	hitsTotal.Inc()
}

func (s *Stats) Miss() {
	s.misses.Add(1)
	missesTotal.Inc()
}

func (s *Stats) Snapshot() (hits, misses int64) {
	return s.hits.Load(), s.misses.Load()
}

// HitRatio is 0 before any lookup.
func (s *Stats) HitRatio() float64 {
	hits, misses := s.Snapshot()
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses)
}
