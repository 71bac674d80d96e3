package app

import (
	"sync"
	"time"
)

// OperationMetric is the externally visible latency summary for one operation.
type OperationMetric struct {
	Count         int   `json:"count"`
	Errors        int   `json:"errors"`
	AvgLatencyMs  int64 `json:"avg_latency_ms"`
	MaxLatencyMs  int64 `json:"max_latency_ms"`
	LastLatencyMs int64 `json:"last_latency_ms"`
}

type opMetric struct {
	Count   int
	Errors  int
	TotalNs int64
	MaxNs   int64
	LastNs  int64
}

// ServiceMetricsState tracks per-operation latency and categorized error
// counters for the diagnostics surface.
type ServiceMetricsState struct {
	mu            sync.RWMutex
	errorCounters map[string]int
	opMetrics     map[string]*opMetric
	lastUpdatedAt time.Time
}

func NewServiceMetricsState() *ServiceMetricsState {
	return &ServiceMetricsState{
		errorCounters: map[string]int{
			"ledger":  0,
			"gateway": 0,
			"storage": 0,
			"rpc":     0,
		},
		opMetrics: map[string]*opMetric{},
	}
}

func (m *ServiceMetricsState) Snapshot() (map[string]int, map[string]OperationMetric, time.Time) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counters := make(map[string]int, len(m.errorCounters))
	for k, v := range m.errorCounters {
		counters[k] = v
	}
	opStats := make(map[string]OperationMetric, len(m.opMetrics))
	for name, metric := range m.opMetrics {
		avg := int64(0)
		if metric.Count > 0 {
			avg = metric.TotalNs / int64(metric.Count) / int64(time.Millisecond)
		}
		opStats[name] = OperationMetric{
			Count:         metric.Count,
			Errors:        metric.Errors,
			AvgLatencyMs:  avg,
			MaxLatencyMs:  metric.MaxNs / int64(time.Millisecond),
			LastLatencyMs: metric.LastNs / int64(time.Millisecond),
		}
	}
	return counters, opStats, m.lastUpdatedAt
}

func (m *ServiceMetricsState) RecordError(category string) {
	m.mu.Lock()
	m.errorCounters[category] = m.errorCounters[category] + 1
	m.lastUpdatedAt = time.Now().UTC()
	m.mu.Unlock()
}

func (m *ServiceMetricsState) RecordOp(operation string, started time.Time) {
	latency := time.Since(started).Nanoseconds()
	m.mu.Lock()
	defer m.mu.Unlock()
	metric, ok := m.opMetrics[operation]
	if !ok {
		metric = &opMetric{}
		m.opMetrics[operation] = metric
	}
	metric.Count++
	metric.TotalNs += latency
	metric.LastNs = latency
	if latency > metric.MaxNs {
		metric.MaxNs = latency
	}
	m.lastUpdatedAt = time.Now().UTC()
}
