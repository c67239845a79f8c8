package notify

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/atinyakov/BikeGuard/internal/models"
)

// Multi fans an alert out to every notifier. All of them are attempted; the
// failures are joined.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, r models.Reading) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogNotifier only logs the alert. Used when no delivery channel is configured.
type LogNotifier struct {
	Log *zap.Logger
}

// Notify implements Notifier.
func (n LogNotifier) Notify(_ context.Context, r models.Reading) error {
	a := BuildAlert(r)
	n.Log.Warn("theft alert",
		zap.Int64("reading_id", a.ReadingID),
		zap.Float64("magnitude", a.Magnitude),
		zap.String("mode", string(a.Mode)),
		zap.String("location", a.Location),
	)
	return nil
}
