// Package metrics records what happened during one tracker run.
//
// It keeps, per project:
//   - whether the probe found it healthy
//   - how many attempts the probe needed
//   - the last HTTP status code seen and the probe duration
//
// plus counters for skipped projects and status label writes. At the end of
// a run the snapshot can be exported as a Prometheus textfile so a
// node_exporter textfile collector can pick it up:
//
//	m := metrics.NewMetrics()
//	m.RecordProbe("api", true, 1, 200, 120*time.Millisecond)
//	m.Finish(true)
//
//	if err := metrics.WriteTextfile("/var/lib/node_exporter/deploy_tracker.prom", m.Snapshot()); err != nil {
//		// handle error
//	}
package metrics
