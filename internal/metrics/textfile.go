package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "deploy_tracker"

// WriteTextfile exports snap in the Prometheus text exposition format.
// The file is written atomically, so a collector never reads a partial run.
func WriteTextfile(path string, snap Snapshot) error {
	reg := prometheus.NewRegistry()

	projectUp := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "project_up",
			Help:      "Whether the project answered with a 2xx status (1) or not (0).",
		}, []string{"project"},
	)
	probeAttempts := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "probe_attempts",
			Help:      "Number of requests the last probe needed.",
		}, []string{"project"},
	)
	probeDuration := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "probe_duration_seconds",
			Help:      "Wall time of the last probe including retry pauses.",
		}, []string{"project"},
	)
	labelUpdates := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "label_updates",
		Help:      "Status labels written back during the last run.",
	})
	labelUpdateFailures := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "label_update_failures",
		Help:      "Status label writes that failed during the last run.",
	})
	lastRun := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time the last run finished.",
	})
	lastRunSuccess := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_success",
		Help:      "Whether the last run completed without a top-level error.",
	})

	reg.MustRegister(projectUp, probeAttempts, probeDuration, labelUpdates, labelUpdateFailures, lastRun, lastRunSuccess)

	for project, pm := range snap.Projects {
		projectUp.WithLabelValues(project).Set(boolToFloat(pm.Healthy))
		probeAttempts.WithLabelValues(project).Set(float64(pm.Attempts))
		probeDuration.WithLabelValues(project).Set(pm.Duration.Seconds())
	}
	labelUpdates.Set(float64(snap.LabelUpdates))
	labelUpdateFailures.Set(float64(snap.LabelUpdateFailures))
	if !snap.FinishedAt.IsZero() {
		lastRun.Set(float64(snap.FinishedAt.Unix()))
	}
	lastRunSuccess.Set(boolToFloat(snap.Success))

	return prometheus.WriteToTextfile(path, reg)
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
