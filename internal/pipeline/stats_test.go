package pipeline

import (
	"errors"
	"testing"
	"time"
)

func TestConversionStatsSnapshotPercentiles(t *testing.T) {
	stats := NewConversionStats(time.Hour)
	for _, ms := range []int64{100, 200, 300, 400, 500} {
		stats.Record(time.Duration(ms)*time.Millisecond, 10, nil)
	}

	snap := stats.Snapshot()
	if snap.Count != 5 || snap.Failed != 0 {
		t.Fatalf("expected count=5 failed=0, got %d/%d", snap.Count, snap.Failed)
	}
	if snap.MinMs != 100 || snap.MaxMs != 500 {
		t.Fatalf("expected min=100 max=500, got %d/%d", snap.MinMs, snap.MaxMs)
	}
	if snap.AvgMs != 300 {
		t.Fatalf("expected avg=300, got %f", snap.AvgMs)
	}
	if snap.P50Ms != 300 {
		t.Fatalf("expected p50=300, got %f", snap.P50Ms)
	}
	if snap.P95Ms != 480 {
		t.Fatalf("expected p95=480, got %f", snap.P95Ms)
	}
	if snap.P99Ms != 496 {
		t.Fatalf("expected p99=496, got %f", snap.P99Ms)
	}
	if snap.Pages != 50 || snap.MsPerPage != 30 {
		t.Fatalf("expected 50 pages at 30ms/page, got %d at %f", snap.Pages, snap.MsPerPage)
	}
}

func TestConversionStatsFailuresExcludedFromLatency(t *testing.T) {
	stats := NewConversionStats(time.Hour)
	stats.Record(50*time.Millisecond, 3, nil)
	stats.Record(5*time.Second, 0, errors.New("no toc"))

	snap := stats.Snapshot()
	if snap.Count != 2 || snap.Failed != 1 {
		t.Fatalf("expected count=2 failed=1, got %d/%d", snap.Count, snap.Failed)
	}
	if snap.MaxMs != 50 {
		t.Fatalf("expected failed sample excluded from latency, got max=%d", snap.MaxMs)
	}
}

func TestConversionStatsPrunesExpiredSamples(t *testing.T) {
	stats := NewConversionStats(10 * time.Millisecond)
	stats.Record(100*time.Millisecond, 1, nil)
	time.Sleep(25 * time.Millisecond)

	snap := stats.Snapshot()
	if snap.Count != 0 {
		t.Fatalf("expected count=0 after prune, got %d", snap.Count)
	}

	stats.Record(200*time.Millisecond, 1, nil)
	snap = stats.Snapshot()
	if snap.Count != 1 {
		t.Fatalf("expected count=1 for fresh sample, got %d", snap.Count)
	}
	if snap.MinMs != 200 || snap.MaxMs != 200 {
		t.Fatalf("expected min=max=200, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
}

func TestConversionStatsRecordClampsNegativeDuration(t *testing.T) {
	stats := NewConversionStats(time.Hour)
	stats.Record(-10*time.Millisecond, 1, nil)
	snap := stats.Snapshot()
	if snap.Count != 1 {
		t.Fatalf("expected count=1, got %d", snap.Count)
	}
	if snap.MinMs != 0 || snap.MaxMs != 0 {
		t.Fatalf("expected clamped duration=0, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
}
