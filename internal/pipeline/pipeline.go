package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/atinyakov/BikeGuard/internal/alarm"
	"github.com/atinyakov/BikeGuard/internal/metrics"
	"github.com/atinyakov/BikeGuard/internal/models"
	"github.com/atinyakov/BikeGuard/internal/notify"
)

// NotifyTimeout bounds a single alert delivery.
const NotifyTimeout = 30 * time.Second

// ReadingStore persists evaluated readings.
type ReadingStore interface {
	Append(ctx context.Context, r models.Reading) (models.Reading, error)
}

// Pipeline drains a Dispatcher with two independent worker sets.
type Pipeline struct {
	d        *Dispatcher
	store    ReadingStore
	notifier notify.Notifier
	log      *zap.Logger

	workers      int
	alertWorkers int
}

// New builds a Pipeline. Worker counts below one are raised to one.
func New(d *Dispatcher, store ReadingStore, notifier notify.Notifier, workers, alertWorkers int, log *zap.Logger) *Pipeline {
	return &Pipeline{
		d:            d,
		store:        store,
		notifier:     notifier,
		log:          log,
		workers:      max(workers, 1),
		alertWorkers: max(alertWorkers, 1),
	}
}

// Run processes jobs until ctx is cancelled. Jobs already queued at that
// point are still processed, and the alerts they raise are still delivered,
// before Run returns. Run must be called at most once.
func (p *Pipeline) Run(ctx context.Context) error {
	work := context.WithoutCancel(ctx)

	var processors errgroup.Group
	for range p.workers {
		processors.Go(func() error {
			p.processLoop(ctx, work)
			return nil
		})
	}

	var notifiers errgroup.Group
	for range p.alertWorkers {
		notifiers.Go(func() error {
			for r := range p.d.alerts {
				p.deliver(work, r)
			}
			return nil
		})
	}

	_ = processors.Wait()
	// processors are the only senders on the alert queue
	close(p.d.alerts)
	return notifiers.Wait()
}

func (p *Pipeline) processLoop(ctx, work context.Context) {
	for {
		select {
		case job := <-p.d.readings:
			p.process(work, job)
		case <-ctx.Done():
			for {
				select {
				case job := <-p.d.readings:
					p.process(work, job)
				default:
					return
				}
			}
		}
	}
}

// process evaluates job against its own settings snapshot, stores the
// result and queues an alert if it raised one.
func (p *Pipeline) process(ctx context.Context, job Job) {
	v := alarm.VectorFrom(job.Telemetry)
	res := alarm.Evaluate(v, job.Settings.Mode, job.Settings.Threshold)

	reading := models.Reading{
		AccelX:       v.X,
		AccelY:       v.Y,
		AccelZ:       v.Z,
		Magnitude:    res.Magnitude,
		GPSLatitude:  job.Telemetry.GPSLatitude,
		GPSLongitude: job.Telemetry.GPSLongitude,
		Alarm:        res.Alarm,
		Mode:         job.Settings.Mode,
	}

	fields := []zap.Field{
		zap.String("mode", string(reading.Mode)),
		zap.Float64("magnitude", reading.Magnitude),
		zap.Float64("threshold", job.Settings.Threshold),
		zap.Bool("alarm", reading.Alarm),
	}
	if !job.ReceivedAt.IsZero() {
		fields = append(fields, zap.Duration("queued", time.Since(job.ReceivedAt)))
	}
	p.log.Info("reading evaluated", fields...)

	stored, err := p.store.Append(ctx, reading)
	if err != nil {
		// already logged by the store
		metrics.PersistFailures.Add(1)
		return
	}
	metrics.ReadingsPersisted.Add(1)

	if !stored.Alarm {
		return
	}
	metrics.AlarmsRaised.Add(1)
	p.d.enqueueAlert(stored)
}

func (p *Pipeline) deliver(ctx context.Context, r models.Reading) {
	ctx, cancel := context.WithTimeout(ctx, NotifyTimeout)
	defer cancel()

	if err := p.notifier.Notify(ctx, r); err != nil {
		metrics.NotifyFailures.Add(1)
		p.log.Error("failed to send alert",
			zap.Int64("reading_id", r.ID),
			zap.Float64("magnitude", r.Magnitude),
			zap.Error(err),
		)
		return
	}
	metrics.AlertsSent.Add(1)
}
