package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/BikeGuard/internal/models"
	"github.com/atinyakov/BikeGuard/internal/pipeline"
)

// SettingsReader returns the current settings.
type SettingsReader interface {
	Get(ctx context.Context) (models.Settings, error)
}

// JobDispatcher accepts work for the ingestion pipeline without blocking.
type JobDispatcher interface {
	Dispatch(job pipeline.Job) bool
}

// IngestResponse is the acknowledgement sent to the device.
type IngestResponse struct {
	Status    string      `json:"status"`
	Mode      models.Mode `json:"mode"`
	Threshold float64     `json:"threshold"`
}

// IngestHandler serves POST /esp32/data.
type IngestHandler struct {
	Settings SettingsReader
	Pipeline JobDispatcher
	Logger   *zap.Logger
}

// Data acknowledges a device reading immediately and hands it to the
// pipeline afterwards. The device always gets a 200 carrying the mode and
// threshold it was evaluated under, even for an unreadable body, which is
// treated as a reading with every field absent. A field of the wrong type
// is dropped on its own; the rest of the payload is kept.
func (h *IngestHandler) Data(w http.ResponseWriter, r *http.Request) {
	received := time.Now().UTC()

	t, err := decodeTelemetry(r.Body)
	if err != nil {
		h.Logger.Warn("unreadable device payload", zap.Error(err))
	}

	st, err := h.Settings.Get(r.Context())
	if err != nil {
		h.Logger.Error("failed to load settings, using defaults", zap.Error(err))
		st = models.DefaultSettings()
	}

	writeJSON(w, http.StatusOK, IngestResponse{Status: "ok", Mode: st.Mode, Threshold: st.Threshold})
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	h.Pipeline.Dispatch(pipeline.Job{Telemetry: t, Settings: st, ReceivedAt: received})
}

// decodeTelemetry returns whatever could be read from body. A field of the
// wrong type is left absent and the others are kept; a body that is not a
// JSON object yields an empty payload. Errors are returned for logging only.
func decodeTelemetry(body io.Reader) (models.Telemetry, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return models.Telemetry{}, err
	}
	if len(raw) == 0 {
		return models.Telemetry{}, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return models.Telemetry{}, err
	}

	var errs []error
	number := func(key string) *float64 {
		v, ok := fields[key]
		if !ok {
			return nil
		}
		var f *float64
		if err := json.Unmarshal(v, &f); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return nil
		}
		return f
	}

	t := models.Telemetry{
		GPSLatitude:  number("gps_latitude"),
		GPSLongitude: number("gps_longitude"),
		AccelX:       number("accel_x"),
		AccelY:       number("accel_y"),
		AccelZ:       number("accel_z"),
	}
	return t, errors.Join(errs...)
}
