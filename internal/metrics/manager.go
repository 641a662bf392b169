// Package metrics keeps in-process counters, outcomes and timings for the
// relay. Nothing is exported or persisted; a summary is logged at shutdown.
package metrics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	. "github.com/KouCha61ue/MIndCore/internal/logging"
)

const maxSamples = 1000 // keep last 1000 samples for percentile calculations

// Manager records metrics keyed by "topic/function" paths.
// A nil *Manager is valid and records nothing.
type Manager struct {
	mu          sync.RWMutex
	timings     map[string]*TimingMetric
	counters    map[string]*CounterMetric
	successFail map[string]*SuccessFailMetric
	outcomes    map[string]*OutcomeMetric
}

// New creates an empty metrics manager.
func New() *Manager {
	return &Manager{
		timings:     make(map[string]*TimingMetric),
		counters:    make(map[string]*CounterMetric),
		successFail: make(map[string]*SuccessFailMetric),
		outcomes:    make(map[string]*OutcomeMetric),
	}
}

// buildPath creates a normalized path from topic and function
func buildPath(topic, function string) string {
	if function == "" {
		return topic
	}
	return fmt.Sprintf("%s/%s", topic, function)
}

// getOrCreate returns the metric at path, creating it with mk under the
// write lock when missing.
func getOrCreate[T any](m *Manager, table map[string]*T, path string, mk func() *T) *T {
	m.mu.RLock()
	metric, ok := table[path]
	m.mu.RUnlock()
	if ok {
		return metric
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if metric, ok = table[path]; !ok {
		metric = mk()
		table[path] = metric
	}
	return metric
}

// StartTimer returns a func that records the elapsed time when called.
func (m *Manager) StartTimer(topic, function string) func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		d := time.Since(start)
		m.RecordDuration(topic, function, d)
		return d
	}
}

// RecordDuration records a duration directly
func (m *Manager) RecordDuration(topic, function string, duration time.Duration) {
	if m == nil {
		return
	}
	metric := getOrCreate(m, m.timings, buildPath(topic, function), func() *TimingMetric {
		return &TimingMetric{samples: make([]time.Duration, 0, 16), Min: duration, Max: duration}
	})

	metric.mu.Lock()
	defer metric.mu.Unlock()

	metric.Count++
	metric.Total += duration
	metric.Last = duration
	if duration < metric.Min {
		metric.Min = duration
	}
	if duration > metric.Max {
		metric.Max = duration
	}
	if len(metric.samples) < maxSamples {
		metric.samples = append(metric.samples, duration)
	} else {
		metric.samples[metric.sampleIdx] = duration
		metric.sampleIdx = (metric.sampleIdx + 1) % maxSamples
	}
}

// IncrementCounter adds one to a counter
func (m *Manager) IncrementCounter(topic, function string) {
	m.AddCounter(topic, function, 1)
}

// AddCounter adds delta to a counter
func (m *Manager) AddCounter(topic, function string, delta int64) {
	if m == nil {
		return
	}
	metric := getOrCreate(m, m.counters, buildPath(topic, function), func() *CounterMetric {
		return &CounterMetric{}
	})
	metric.mu.Lock()
	metric.Value += delta
	metric.mu.Unlock()
}

// RecordSuccess records a successful operation
func (m *Manager) RecordSuccess(topic, function string) {
	if m == nil {
		return
	}
	metric := m.successFailMetric(buildPath(topic, function))
	metric.mu.Lock()
	metric.Success++
	metric.mu.Unlock()
}

// RecordFailure records a failed operation
func (m *Manager) RecordFailure(topic, function, reason string) {
	if m == nil {
		return
	}
	metric := m.successFailMetric(buildPath(topic, function))
	metric.mu.Lock()
	metric.Failures++
	if reason != "" {
		metric.FailureReasons[reason]++
	}
	metric.mu.Unlock()
}

func (m *Manager) successFailMetric(path string) *SuccessFailMetric {
	return getOrCreate(m, m.successFail, path, func() *SuccessFailMetric {
		return &SuccessFailMetric{FailureReasons: make(map[string]int64)}
	})
}

// RecordOutcome records a specific outcome
func (m *Manager) RecordOutcome(topic, function, outcome string) {
	if m == nil {
		return
	}
	metric := getOrCreate(m, m.outcomes, buildPath(topic, function), func() *OutcomeMetric {
		return &OutcomeMetric{Outcomes: make(map[string]int64)}
	})
	metric.mu.Lock()
	metric.Outcomes[outcome]++
	metric.Total++
	metric.mu.Unlock()
}

// Snapshot returns a snapshot of all metrics, keyed by path.
func (m *Manager) Snapshot() map[string]*Snapshot {
	snapshots := make(map[string]*Snapshot)
	if m == nil {
		return snapshots
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for path, metric := range m.timings {
		metric.mu.Lock()
		avg := float64(0)
		if metric.Count > 0 {
			avg = float64(metric.Total) / float64(metric.Count) / float64(time.Millisecond)
		}
		snapshots[path] = &Snapshot{Path: path, Type: TypeTiming, Data: TimingSnapshot{
			Count: metric.Count,
			AvgMs: avg,
			MinMs: float64(metric.Min) / float64(time.Millisecond),
			MaxMs: float64(metric.Max) / float64(time.Millisecond),
			P95Ms: calculatePercentile(metric.samples, 95),
		}}
		metric.mu.Unlock()
	}

	for path, metric := range m.counters {
		metric.mu.Lock()
		snapshots[path] = &Snapshot{Path: path, Type: TypeCounter, Data: CounterSnapshot{Value: metric.Value}}
		metric.mu.Unlock()
	}

	for path, metric := range m.successFail {
		metric.mu.Lock()
		total := metric.Success + metric.Failures
		rate := float64(0)
		if total > 0 {
			rate = float64(metric.Success) / float64(total) * 100
		}
		reasons := make(map[string]int64, len(metric.FailureReasons))
		for k, v := range metric.FailureReasons {
			reasons[k] = v
		}
		snapshots[path] = &Snapshot{Path: path, Type: TypeSuccessFail, Data: SuccessFailSnapshot{
			Success:        metric.Success,
			Failures:       metric.Failures,
			SuccessRate:    rate,
			FailureReasons: reasons,
		}}
		metric.mu.Unlock()
	}

	for path, metric := range m.outcomes {
		metric.mu.Lock()
		outcomes := make(map[string]int64, len(metric.Outcomes))
		for k, v := range metric.Outcomes {
			outcomes[k] = v
		}
		snapshots[path] = &Snapshot{Path: path, Type: TypeOutcome, Data: OutcomeSnapshot{Outcomes: outcomes, Total: metric.Total}}
		metric.mu.Unlock()
	}

	return snapshots
}

// Summary renders one line per metric, sorted by path.
func (m *Manager) Summary() []string {
	snaps := m.Snapshot()
	paths := make([]string, 0, len(snaps))
	for p := range snaps {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	lines := make([]string, 0, len(paths))
	for _, p := range paths {
		lines = append(lines, p+" "+formatData(snaps[p]))
	}
	return lines
}

// LogSummary writes Summary to the log at info level.
func (m *Manager) LogSummary() {
	lines := m.Summary()
	if len(lines) == 0 {
		return
	}
	L_info("metrics: summary", "metrics", len(lines))
	for _, line := range lines {
		L_info("metrics: " + line)
	}
}

func formatData(s *Snapshot) string {
	switch d := s.Data.(type) {
	case TimingSnapshot:
		return fmt.Sprintf("count=%d avg=%.1fms min=%.1fms max=%.1fms p95=%.1fms", d.Count, d.AvgMs, d.MinMs, d.MaxMs, d.P95Ms)
	case CounterSnapshot:
		return fmt.Sprintf("value=%d", d.Value)
	case SuccessFailSnapshot:
		return fmt.Sprintf("success=%d failures=%d rate=%.1f%%%s", d.Success, d.Failures, d.SuccessRate, formatCounts(" reasons=", d.FailureReasons))
	case OutcomeSnapshot:
		return fmt.Sprintf("total=%d%s", d.Total, formatCounts(" ", d.Outcomes))
	}
	return ""
}

func formatCounts(prefix string, counts map[string]int64) string {
	if len(counts) == 0 {
		return ""
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, counts[k]))
	}
	return prefix + strings.Join(parts, ",")
}

// calculatePercentile calculates the Nth percentile from samples
func calculatePercentile(samples []time.Duration, percentile int) float64 {
	if len(samples) == 0 {
		return 0
	}

	sorted := make([]time.Duration, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	idx := (len(sorted) * percentile) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}

	return float64(sorted[idx]) / float64(time.Millisecond)
}
