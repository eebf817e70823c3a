// Package metrics provides in-memory runtime statistics collection.
package metrics

import (
	"math"
	"sync"
	"time"
)

// OperationMetrics holds aggregated metrics for a single operation type.
type OperationMetrics struct {
	Count     int64
	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration

	// Node metrics (only for full evaluation passes)
	TotalNodes int64
	MinNodes   int64
	MaxNodes   int64
}

// OperationSnapshot provides computed stats from raw metrics.
type OperationSnapshot struct {
	Count       int64   `json:"count"`
	TotalTimeMs int64   `json:"totalTimeMs"`
	AvgTimeMs   float64 `json:"avgTimeMs"`
	MinTimeMs   int64   `json:"minTimeMs"`
	MaxTimeMs   int64   `json:"maxTimeMs"`

	// Node stats (nil if not applicable)
	TotalNodes *int64   `json:"totalNodes,omitempty"`
	AvgNodes   *float64 `json:"avgNodes,omitempty"`
	MinNodes   *int64   `json:"minNodes,omitempty"`
	MaxNodes   *int64   `json:"maxNodes,omitempty"`
}

// Snapshot represents the full server statistics at a point in time.
type Snapshot struct {
	UptimeSeconds  float64            `json:"uptimeSeconds"`
	RankingPass    *OperationSnapshot `json:"rankingPass,omitempty"`
	NodeCalc       *OperationSnapshot `json:"nodeCalc,omitempty"`
	BlockingUpdate *OperationSnapshot `json:"blockingUpdate,omitempty"`
	DBQuery        *OperationSnapshot `json:"dbQuery,omitempty"`
}

// Operation names for the collector.
const (
	OpRankingPass    = "ranking_pass"
	OpNodeCalc       = "node_calc"
	OpBlockingUpdate = "blocking_update"
	OpDBQuery        = "db_query"
)

// Collector aggregates in-memory runtime statistics.
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
		m = &OperationMetrics{
			MinTime:  time.Duration(math.MaxInt64),
			MinNodes: math.MaxInt64,
		}
		c.ops[op] = m
	}
	return m
}

// RecordTiming records timing for an operation.
func (c *Collector) RecordTiming(op string, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.getOrCreate(op)
	m.Count++
	m.TotalTime += duration

	if duration < m.MinTime {
		m.MinTime = duration
	}
	if duration > m.MaxTime {
		m.MaxTime = duration
	}
}

// RecordPass records timing and node count for a full evaluation pass.
func (c *Collector) RecordPass(op string, duration time.Duration, nodes int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.getOrCreate(op)
	m.Count++
	m.TotalTime += duration

	if duration < m.MinTime {
		m.MinTime = duration
	}
	if duration > m.MaxTime {
		m.MaxTime = duration
	}

	m.TotalNodes += nodes
	if nodes < m.MinNodes {
		m.MinNodes = nodes
	}
	if nodes > m.MaxNodes {
		m.MaxNodes = nodes
	}
}

// snapshotOp creates a snapshot for an operation, returning nil if no data.
func snapshotOp(m *OperationMetrics, includeNodes bool) *OperationSnapshot {
	if m == nil || m.Count == 0 {
		return nil
	}

	snap := &OperationSnapshot{
		Count:       m.Count,
		TotalTimeMs: m.TotalTime.Milliseconds(),
		AvgTimeMs:   float64(m.TotalTime.Milliseconds()) / float64(m.Count),
		MinTimeMs:   m.MinTime.Milliseconds(),
		MaxTimeMs:   m.MaxTime.Milliseconds(),
	}

	if includeNodes && m.TotalNodes > 0 {
		total := m.TotalNodes
		avg := float64(m.TotalNodes) / float64(m.Count)
		minN := m.MinNodes
		maxN := m.MaxNodes

		// Reset sentinel values for display
		if minN == math.MaxInt64 {
			minN = 0
		}

		snap.TotalNodes = &total
		snap.AvgNodes = &avg
		snap.MinNodes = &minN
		snap.MaxNodes = &maxN
	}

	return snap
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Snapshot{
		UptimeSeconds:  time.Since(c.startTime).Seconds(),
		RankingPass:    snapshotOp(c.ops[OpRankingPass], true),
		NodeCalc:       snapshotOp(c.ops[OpNodeCalc], false),
		BlockingUpdate: snapshotOp(c.ops[OpBlockingUpdate], false),
		DBQuery:        snapshotOp(c.ops[OpDBQuery], false),
	}
}
