package pipeline

import (
	"slices"
	"sync"
	"time"
)

type sample struct {
	at         time.Time
	durationMs int64
	pages      int
	failed     bool
}

// StatsSnapshot aggregates the conversions inside the rolling window.
// Latency figures cover successful conversions only.
type StatsSnapshot struct {
	Count  int `json:"count"`
	Failed int `json:"failed"`
	Pages  int `json:"pages"`

	MinMs int64   `json:"min_ms"`
	MaxMs int64   `json:"max_ms"`
	AvgMs float64 `json:"avg_ms"`
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`
	P99Ms float64 `json:"p99_ms"`

	MsPerPage float64 `json:"ms_per_page"`
}

// ConversionStats keeps recent conversion outcomes for /api/stats.
type ConversionStats struct {
	mu      sync.Mutex
	samples []sample
	window  time.Duration
}

func NewConversionStats(window time.Duration) *ConversionStats {
	if window <= 0 {
		window = time.Hour
	}
	return &ConversionStats{
		samples: make([]sample, 0, 256),
		window:  window,
	}
}

// Record adds one conversion outcome. Negative durations count as zero.
func (s *ConversionStats) Record(d time.Duration, pages int, err error) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	s.samples = append(s.samples, sample{
		at:         now,
		durationMs: max(d.Milliseconds(), 0),
		pages:      pages,
		failed:     err != nil,
	})
}

func (s *ConversionStats) Snapshot() StatsSnapshot {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	var snap StatsSnapshot
	var ok []int64
	var sum int64
	for _, sm := range s.samples {
		snap.Count++
		if sm.failed {
			snap.Failed++
			continue
		}
		snap.Pages += sm.pages
		ok = append(ok, sm.durationMs)
		sum += sm.durationMs
	}
	if len(ok) == 0 {
		return snap
	}
	slices.Sort(ok)

	snap.MinMs = ok[0]
	snap.MaxMs = ok[len(ok)-1]
	snap.AvgMs = float64(sum) / float64(len(ok))
	snap.P50Ms = percentile(ok, 50)
	snap.P95Ms = percentile(ok, 95)
	snap.P99Ms = percentile(ok, 99)
	if snap.Pages > 0 {
		snap.MsPerPage = float64(sum) / float64(snap.Pages)
	}
	return snap
}

func (s *ConversionStats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.window)
	s.samples = slices.DeleteFunc(s.samples, func(sm sample) bool {
		return sm.at.Before(cutoff)
	})
}

// percentile interpolates linearly between the closest ranks.
func percentile(sorted []int64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := float64(len(sorted)-1) * min(max(pct, 0), 100) / 100
	lower := int(idx)
	if lower+1 >= len(sorted) {
		return float64(sorted[lower])
	}
	lo, hi := float64(sorted[lower]), float64(sorted[lower+1])
	return lo + (hi-lo)*(idx-float64(lower))
}
