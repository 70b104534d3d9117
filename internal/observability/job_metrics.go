package observability

import (
	"sync/atomic"
	"time"
)

// JobMetrics is the in-process tally the worker health endpoint reports.
type JobMetrics struct {
	claimed      atomic.Uint64
	done         atomic.Uint64
	failed       atomic.Uint64
	retried      atomic.Uint64
	requeued     atomic.Uint64
	sweeps       atomic.Uint64
	sweepFailure atomic.Uint64

	durationCount atomic.Uint64
	durationTotal atomic.Int64
	durationMax   atomic.Int64
}

func NewJobMetrics() *JobMetrics {
	return &JobMetrics{}
}

func (m *JobMetrics) IncClaimed() { m.claimed.Add(1) }
func (m *JobMetrics) IncDone()    { m.done.Add(1) }
func (m *JobMetrics) IncFailed()  { m.failed.Add(1) }
func (m *JobMetrics) IncRetried() { m.retried.Add(1) }

func (m *JobMetrics) AddRequeued(n int64) {
	if n > 0 {
		m.requeued.Add(uint64(n))
	}
}

func (m *JobMetrics) IncSweep(ok bool) {
	m.sweeps.Add(1)
	if !ok {
		m.sweepFailure.Add(1)
	}
}

func (m *JobMetrics) ObserveDuration(d time.Duration) {
	ns := d.Nanoseconds()
	m.durationCount.Add(1)
	m.durationTotal.Add(ns)

	for {
		curr := m.durationMax.Load()
		if ns <= curr {
			return
		}
		if m.durationMax.CompareAndSwap(curr, ns) {
			return
		}
	}
}

type JobMetricsSnapshot struct {
	Claimed       uint64 `json:"claimed"`
	Done          uint64 `json:"done"`
	Failed        uint64 `json:"failed"`
	Retried       uint64 `json:"retried"`
	Requeued      uint64 `json:"requeued"`
	Sweeps        uint64 `json:"sweeps"`
	SweepFailures uint64 `json:"sweepFailures"`
	DurationCount uint64 `json:"durationCount"`
	AverageMillis int64  `json:"averageMs"`
	MaxMillis     int64  `json:"maxMs"`
}

func (m *JobMetrics) Snapshot() JobMetricsSnapshot {
	count := m.durationCount.Load()
	total := m.durationTotal.Load()

	var avg time.Duration
	if count > 0 {
		avg = time.Duration(total / int64(count))
	}

	return JobMetricsSnapshot{
		Claimed:       m.claimed.Load(),
		Done:          m.done.Load(),
		Failed:        m.failed.Load(),
		Retried:       m.retried.Load(),
		Requeued:      m.requeued.Load(),
		Sweeps:        m.sweeps.Load(),
		SweepFailures: m.sweepFailure.Load(),
		DurationCount: count,
		AverageMillis: avg.Milliseconds(),
		MaxMillis:     time.Duration(m.durationMax.Load()).Milliseconds(),
	}
}
