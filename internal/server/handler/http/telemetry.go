package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/BikeGuard/internal/models"
)

// DashboardLimit is the number of readings returned by /api/data.
const DashboardLimit = 100

// TelemetryService reads stored readings.
type TelemetryService interface {
	Latest(ctx context.Context) (*models.Reading, error)
	Recent(ctx context.Context, limit int) ([]models.Reading, error)
}

// TelemetryHandler serves the dashboard's reading history.
type TelemetryHandler struct {
	TelemetryService TelemetryService
}

// Data handles GET /api/data: the newest readings, newest first.
func (h *TelemetryHandler) Data(w http.ResponseWriter, r *http.Request) {
	readings, err := h.TelemetryService.Recent(r.Context(), DashboardLimit)
	if err != nil {
		internalError(w)
		return
	}
	if readings == nil {
		readings = []models.Reading{}
	}
	writeJSON(w, http.StatusOK, readings)
}

// Latest handles GET /api/latest. With no readings yet it answers {}.
func (h *TelemetryHandler) Latest(w http.ResponseWriter, r *http.Request) {
	reading, err := h.TelemetryService.Latest(r.Context())
	if err != nil {
		internalError(w)
		return
	}
	if reading == nil {
		writeJSON(w, http.StatusOK, struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, reading)
}
