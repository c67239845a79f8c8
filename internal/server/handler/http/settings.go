package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/atinyakov/BikeGuard/internal/common"
	"github.com/atinyakov/BikeGuard/internal/models"
)

// SettingsService reads and changes the alarm settings.
type SettingsService interface {
	Get(ctx context.Context) (models.Settings, error)
	Update(ctx context.Context, patch models.SettingsPatch) (models.Settings, error)
}

// SettingsHandler serves /api/settings.
type SettingsHandler struct {
	SettingsService SettingsService
}

// Get handles GET /api/settings. It is public so the dashboard can show
// the mode before login.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	st, err := h.SettingsService.Get(r.Context())
	if err != nil {
		internalError(w)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Update handles POST /api/settings. Absent fields are left unchanged.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch models.SettingsPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request")
		return
	}

	st, err := h.SettingsService.Update(r.Context(), patch)
	if err != nil {
		if errors.Is(err, common.ErrInvalidSettings) {
			writeMessage(w, http.StatusBadRequest, "Invalid settings")
			return
		}
		internalError(w)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
