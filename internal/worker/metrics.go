package worker

import (
	"sync/atomic"
	"time"
)

// Metrics tracks coordinator statistics using atomic operations for thread-safety
type Metrics struct {
	Submitted       atomic.Int64
	Completed       atomic.Int64
	Failed          atomic.Int64
	Cancelled       atomic.Int64
	Faults          atomic.Int64
	Abandoned       atomic.Int64
	DroppedProgress atomic.Int64
	Running         atomic.Int32
	StartTime       time.Time
}

// NewMetrics creates a new Metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		StartTime: time.Now(),
	}
}

// recordTerminal counts a task reaching state s
func (m *Metrics) recordTerminal(s State) {
	switch s {
	case StateCompleted:
		m.Completed.Add(1)
	case StateFailed:
		m.Failed.Add(1)
	case StateCancelled:
		m.Cancelled.Add(1)
	}
}

// MetricsSnapshot represents a point-in-time snapshot of metrics
type MetricsSnapshot struct {
	Submitted       int64     `json:"submitted"`
	Completed       int64     `json:"completed"`
	Failed          int64     `json:"failed"`
	Cancelled       int64     `json:"cancelled"`
	Faults          int64     `json:"faults"`
	Abandoned       int64     `json:"abandoned"`
	DroppedProgress int64     `json:"dropped_progress"`
	Running         int32     `json:"running"`
	StartTime       time.Time `json:"start_time"`
	Uptime          string    `json:"uptime"`
}

// Snapshot returns a snapshot of current metrics
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Submitted:       m.Submitted.Load(),
		Completed:       m.Completed.Load(),
		Failed:          m.Failed.Load(),
		Cancelled:       m.Cancelled.Load(),
		Faults:          m.Faults.Load(),
		Abandoned:       m.Abandoned.Load(),
		DroppedProgress: m.DroppedProgress.Load(),
		Running:         m.Running.Load(),
		StartTime:       m.StartTime,
		Uptime:          time.Since(m.StartTime).String(),
	}
}

// Settled is the number of tasks that reached a terminal state
func (s MetricsSnapshot) Settled() int64 {
	return s.Completed + s.Failed + s.Cancelled
}
