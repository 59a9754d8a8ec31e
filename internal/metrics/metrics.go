package metrics

import (
	"sort"
	"sync"
	"time"
)

type Metrics struct {
	mutex               sync.RWMutex
	probes              map[string]ProjectMetrics
	skipped             map[string]bool
	labelUpdates        int64
	labelUpdateFailures int64
	startTime           time.Time
	finishTime          time.Time
	success             bool
}

type ProjectMetrics struct {
	Healthy    bool          `json:"healthy"`
	Attempts   int           `json:"attempts"`
	StatusCode int           `json:"status_code"`
	Duration   time.Duration `json:"duration"`
}

type Snapshot struct {
	Projects            map[string]ProjectMetrics `json:"projects"`
	Skipped             []string                  `json:"skipped"`
	Healthy             int                       `json:"healthy"`
	Down                int                       `json:"down"`
	LabelUpdates        int64                     `json:"label_updates"`
	LabelUpdateFailures int64                     `json:"label_update_failures"`
	Elapsed             time.Duration             `json:"elapsed"`
	FinishedAt          time.Time                 `json:"finished_at"`
	Success             bool                      `json:"success"`
}

func NewMetrics() *Metrics {
	return &Metrics{
		probes:    make(map[string]ProjectMetrics),
		skipped:   make(map[string]bool),
		startTime: time.Now(),
	}
}

func (m *Metrics) RecordProbe(project string, healthy bool, attempts, statusCode int, duration time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.probes[project] = ProjectMetrics{
		Healthy:    healthy,
		Attempts:   attempts,
		StatusCode: statusCode,
		Duration:   duration,
	}
}

// RecordSkipped marks a project that could not be probed at all.
func (m *Metrics) RecordSkipped(project string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.skipped[project] = true
}

func (m *Metrics) RecordLabelUpdate(ok bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if ok {
		m.labelUpdates++
	} else {
		m.labelUpdateFailures++
	}
}

// Finish stamps the end of the run.
func (m *Metrics) Finish(success bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.finishTime = time.Now()
	m.success = success
}

func (m *Metrics) Snapshot() Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	end := m.finishTime
	if end.IsZero() {
		end = time.Now()
	}

	snap := Snapshot{
		Projects:            make(map[string]ProjectMetrics, len(m.probes)),
		LabelUpdates:        m.labelUpdates,
		LabelUpdateFailures: m.labelUpdateFailures,
		Elapsed:             end.Sub(m.startTime),
		FinishedAt:          m.finishTime,
		Success:             m.success,
	}

	for project, pm := range m.probes {
		snap.Projects[project] = pm
		if pm.Healthy {
			snap.Healthy++
		} else {
			snap.Down++
		}
	}

	for project := range m.skipped {
		snap.Skipped = append(snap.Skipped, project)
	}
	sort.Strings(snap.Skipped)

	return snap
}
