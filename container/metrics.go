package container

import "sync/atomic"

type MetricsSnapshot struct {
	Updates       int64
	Retries       int64
	SlicesStarted int64
	SlicesActive  int64
	SliceFailures int64
}

// Metrics counts container activity. Retries are compare-and-set conflicts
// resolved by re-running a transform; they are never surfaced as errors.
type Metrics struct {
	updates       atomic.Int64
	retries       atomic.Int64
	slicesStarted atomic.Int64
	slicesActive  atomic.Int64
	sliceFailures atomic.Int64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) RecordUpdate(delta int) {
	m.updates.Add(int64(delta))
}

func (m *Metrics) RecordRetry(delta int) {
	m.retries.Add(int64(delta))
}

func (m *Metrics) RecordSliceStart() {
	m.slicesStarted.Add(1)
	m.slicesActive.Add(1)
}

func (m *Metrics) RecordSliceStop(failed bool) {
	m.slicesActive.Add(-1)
	if failed {
		m.sliceFailures.Add(1)
	}
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Updates:       m.updates.Load(),
		Retries:       m.retries.Load(),
		SlicesStarted: m.slicesStarted.Load(),
		SlicesActive:  m.slicesActive.Load(),
		SliceFailures: m.sliceFailures.Load(),
	}
}
