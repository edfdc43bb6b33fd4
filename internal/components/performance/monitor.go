package performance

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"k8s.io/utils/clock"
)

// Monitor records how long named operations take, e.g. projection passes
// and card renders.
type Monitor struct {
	clock   clock.PassiveClock
	metrics map[string]*Metric
	mutex   sync.RWMutex
}

// Metric aggregates durations of one operation
type Metric struct {
	Name        string
	Count       int64
	TotalTime   time.Duration
	MinTime     time.Duration
	MaxTime     time.Duration
	LastTime    time.Duration
	LastUpdated time.Time
	Samples     []time.Duration
	MaxSamples  int
}

// NewMonitor creates a monitor on the real clock
func NewMonitor() *Monitor {
	return NewMonitorWithClock(clock.RealClock{})
}

// NewMonitorWithClock creates a monitor that reads time from c
func NewMonitorWithClock(c clock.PassiveClock) *Monitor {
	return &Monitor{
		clock:   c,
		metrics: make(map[string]*Metric),
	}
}

// StartTimer starts timing an operation; call the result when it ends
func (m *Monitor) StartTimer(name string) func() {
	start := m.clock.Now()
	return func() {
		m.RecordDuration(name, m.clock.Since(start))
	}
}

// RecordDuration records a duration for a metric
func (m *Monitor) RecordDuration(name string, duration time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	metric, exists := m.metrics[name]
	if !exists {
		metric = &Metric{
			Name:       name,
			MinTime:    duration,
			MaxTime:    duration,
			MaxSamples: 64,
			Samples:    make([]time.Duration, 0, 64),
		}
		m.metrics[name] = metric
	}

	metric.Count++
	metric.TotalTime += duration
	metric.LastTime = duration
	metric.LastUpdated = m.clock.Now()
	metric.MinTime = min(metric.MinTime, duration)
	metric.MaxTime = max(metric.MaxTime, duration)

	if len(metric.Samples) >= metric.MaxSamples {
		metric.Samples = metric.Samples[1:]
	}
	metric.Samples = append(metric.Samples, duration)
}

// Metric returns a copy of the named metric, or nil
func (m *Monitor) Metric(name string) *Metric {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	metric, exists := m.metrics[name]
	if !exists {
		return nil
	}
	cp := *metric
	cp.Samples = append([]time.Duration(nil), metric.Samples...)
	return &cp
}

// Reset clears every metric
func (m *Monitor) Reset() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.metrics = make(map[string]*Metric)
}

// Summary renders one "name n=… avg=… max=…" entry per metric, sorted by name
func (m *Monitor) Summary() string {
	m.mutex.RLock()
	names := make([]string, 0, len(m.metrics))
	for name := range m.metrics {
		names = append(names, name)
	}
	m.mutex.RUnlock()
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		metric := m.Metric(name)
		if metric == nil {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s n=%d avg=%s max=%s",
			name, metric.Count, metric.RecentAverageTime(10).Round(time.Microsecond), metric.MaxTime.Round(time.Microsecond)))
	}
	return strings.Join(parts, " | ")
}

// AverageTime returns the average time for a metric
func (m *Metric) AverageTime() time.Duration {
	if m.Count == 0 {
		return 0
	}
	return m.TotalTime / time.Duration(m.Count)
}

// RecentAverageTime returns the average of the last sampleCount samples
func (m *Metric) RecentAverageTime(sampleCount int) time.Duration {
	if len(m.Samples) == 0 {
		return 0
	}
	start := max(len(m.Samples)-sampleCount, 0)

	var total time.Duration
	for _, s := range m.Samples[start:] {
		total += s
	}
	return total / time.Duration(len(m.Samples)-start)
}
