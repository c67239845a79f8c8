// Package pipeline runs the asynchronous side of ingestion: every
// acknowledged reading is evaluated, persisted and, when it raises an
// alarm, handed to the notifier. Work flows through bounded queues; a full
// queue drops the job instead of blocking the caller.
package pipeline

import (
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/BikeGuard/internal/metrics"
	"github.com/atinyakov/BikeGuard/internal/models"
)

// Job is one acknowledged device request together with the settings
// snapshot the device was answered with.
type Job struct {
	Telemetry  models.Telemetry
	Settings   models.Settings
	ReceivedAt time.Time
}

// Dispatcher owns the bounded queues between the ingestion endpoint, the
// evaluate/persist workers and the notify workers.
type Dispatcher struct {
	readings chan Job
	alerts   chan models.Reading
	log      *zap.Logger
}

// NewDispatcher creates a Dispatcher whose queues hold at most queueSize
// jobs and alertQueueSize alerts. Negative sizes are treated as zero.
func NewDispatcher(queueSize, alertQueueSize int, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		readings: make(chan Job, max(queueSize, 0)),
		alerts:   make(chan models.Reading, max(alertQueueSize, 0)),
		log:      log,
	}
}

// Dispatch enqueues job without blocking. It reports false when the queue
// is full and the job was dropped.
func (d *Dispatcher) Dispatch(job Job) bool {
	metrics.ReadingsReceived.Add(1)
	select {
	case d.readings <- job:
		return true
	default:
		metrics.QueueDrops.Add(1)
		d.log.Warn("reading queue full, dropping reading",
			zap.Int("capacity", cap(d.readings)),
		)
		return false
	}
}

func (d *Dispatcher) enqueueAlert(r models.Reading) bool {
	select {
	case d.alerts <- r:
		return true
	default:
		metrics.AlertQueueDrops.Add(1)
		d.log.Warn("alert queue full, dropping alert",
			zap.Int64("reading_id", r.ID),
			zap.Float64("magnitude", r.Magnitude),
		)
		return false
	}
}
