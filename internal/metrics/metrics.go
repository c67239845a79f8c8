// Package metrics holds process-wide counters for the ingestion pipeline
// and exposes them in the Prometheus text format.
package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"
)

var (
	ReadingsReceived  atomic.Int64
	ReadingsPersisted atomic.Int64
	PersistFailures   atomic.Int64
	QueueDrops        atomic.Int64
	AlarmsRaised      atomic.Int64
	AlertQueueDrops   atomic.Int64
	AlertsSent        atomic.Int64
	NotifyFailures    atomic.Int64
)

// HandleMetrics writes every counter as one line of plain text.
func HandleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	fmt.Fprintf(w, "bikeguard_readings_received_total %d\n", ReadingsReceived.Load())
	fmt.Fprintf(w, "bikeguard_readings_persisted_total %d\n", ReadingsPersisted.Load())
	fmt.Fprintf(w, "bikeguard_persist_failures_total %d\n", PersistFailures.Load())
	fmt.Fprintf(w, "bikeguard_queue_drops_total %d\n", QueueDrops.Load())
	fmt.Fprintf(w, "bikeguard_alarms_raised_total %d\n", AlarmsRaised.Load())
	fmt.Fprintf(w, "bikeguard_alert_queue_drops_total %d\n", AlertQueueDrops.Load())
	fmt.Fprintf(w, "bikeguard_alerts_sent_total %d\n", AlertsSent.Load())
	fmt.Fprintf(w, "bikeguard_notify_failures_total %d\n", NotifyFailures.Load())
}
