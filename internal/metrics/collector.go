// Package metrics provides in-memory latency statistics for backend calls.
package metrics

import (
	"math"
	"sync"
	"time"
)

// Operation names for the collector.
const (
	OpSession     = "session"
	OpSend        = "send"
	OpFetchLatest = "fetch_latest"
	OpFetchBefore = "fetch_before"
	OpFeedback    = "feedback"
	OpStatistics  = "statistics"
)

// OperationMetrics holds aggregated timings for a single operation type.
type OperationMetrics struct {
	Count    int64
	Failures int64
	Total    time.Duration
	Min      time.Duration
	Max      time.Duration
}

// OperationSnapshot provides computed stats from raw metrics.
type OperationSnapshot struct {
	Count    int64
	Failures int64
	TotalMs  int64
	AvgMs    float64
	MinMs    int64
	MaxMs    int64
}

// Snapshot is a point-in-time view over all operations.
type Snapshot struct {
	UptimeSeconds float64
	Session       *OperationSnapshot
	Send          *OperationSnapshot
	FetchLatest   *OperationSnapshot
	FetchBefore   *OperationSnapshot
	Feedback      *OperationSnapshot
	Statistics    *OperationSnapshot
}

// Collector aggregates in-memory latency statistics.
// All methods are thread-safe.
type Collector struct {
	mu        sync.RWMutex
	startTime time.Time
	ops       map[string]*OperationMetrics
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		ops:       make(map[string]*OperationMetrics),
	}
}

// getOrCreate returns existing metrics or creates new ones for an operation.
// Caller must hold write lock.
func (c *Collector) getOrCreate(op string) *OperationMetrics {
	m, ok := c.ops[op]
	if !ok {
		m = &OperationMetrics{Min: time.Duration(math.MaxInt64)}
		c.ops[op] = m
	}
	return m
}

// Record records one call of an operation, succeeded or not.
func (c *Collector) Record(op string, duration time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.getOrCreate(op)
	m.Count++
	m.Total += duration
	if err != nil {
		m.Failures++
	}

	if duration < m.Min {
		m.Min = duration
	}
	if duration > m.Max {
		m.Max = duration
	}
}

func snapshotOp(m *OperationMetrics) *OperationSnapshot {
	if m == nil || m.Count == 0 {
		return nil
	}
	return &OperationSnapshot{
		Count:    m.Count,
		Failures: m.Failures,
		TotalMs:  m.Total.Milliseconds(),
		AvgMs:    float64(m.Total.Milliseconds()) / float64(m.Count),
		MinMs:    m.Min.Milliseconds(),
		MaxMs:    m.Max.Milliseconds(),
	}
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Snapshot{
		UptimeSeconds: time.Since(c.startTime).Seconds(),
		Session:       snapshotOp(c.ops[OpSession]),
		Send:          snapshotOp(c.ops[OpSend]),
		FetchLatest:   snapshotOp(c.ops[OpFetchLatest]),
		FetchBefore:   snapshotOp(c.ops[OpFetchBefore]),
		Feedback:      snapshotOp(c.ops[OpFeedback]),
		Statistics:    snapshotOp(c.ops[OpStatistics]),
	}
}
