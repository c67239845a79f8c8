package http

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/atinyakov/BikeGuard/internal/models"
)

type fakeTelemetryService struct {
	readings  []models.Reading
	err       error
	lastLimit int
}

func (f *fakeTelemetryService) Latest(context.Context) (*models.Reading, error) {
	if f.err != nil || len(f.readings) == 0 {
		return nil, f.err
	}
	r := f.readings[0]
	return &r, nil
}

func (f *fakeTelemetryService) Recent(_ context.Context, limit int) ([]models.Reading, error) {
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.readings, nil
}

func TestTelemetryHandler_Data(t *testing.T) {
	svc := &fakeTelemetryService{readings: []models.Reading{{ID: 2, Magnitude: 1.5}, {ID: 1, Magnitude: 0.9}}}
	h := &TelemetryHandler{TelemetryService: svc}

	rec := httptest.NewRecorder()
	h.Data(rec, httptest.NewRequest(http.MethodGet, "/api/data", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.lastLimit != 100 {
		t.Errorf("expected limit 100, got %d", svc.lastLimit)
	}
	var got []models.Reading
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	if len(got) != 2 || got[0].ID != 2 {
		t.Errorf("unexpected readings %+v", got)
	}
}

func TestTelemetryHandler_DataEmpty(t *testing.T) {
	h := &TelemetryHandler{TelemetryService: &fakeTelemetryService{}}

	rec := httptest.NewRecorder()
	h.Data(rec, httptest.NewRequest(http.MethodGet, "/api/data", nil))

	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("expected [], got %s", body)
	}
}

func TestTelemetryHandler_Latest(t *testing.T) {
	lat, lon := 27.7, 85.3
	tests := []struct {
		name     string
		svc      *fakeTelemetryService
		wantCode int
		wantBody string
	}{
		{
			name:     "no readings",
			svc:      &fakeTelemetryService{},
			wantCode: http.StatusOK,
			wantBody: "{}",
		},
		{
			name: "newest reading",
			svc: &fakeTelemetryService{readings: []models.Reading{{
				ID: 9, AccelX: 2, Magnitude: 2, GPSLatitude: &lat, GPSLongitude: &lon, Alarm: true, Mode: models.ModeLock,
			}}},
			wantCode: http.StatusOK,
		},
		{
			name:     "store error",
			svc:      &fakeTelemetryService{err: errors.New("db down")},
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &TelemetryHandler{TelemetryService: tt.svc}
			rec := httptest.NewRecorder()
			h.Latest(rec, httptest.NewRequest(http.MethodGet, "/api/latest", nil))

			if rec.Code != tt.wantCode {
				t.Fatalf("expected status %d, got %d", tt.wantCode, rec.Code)
			}
			if tt.wantBody != "" {
				if body := strings.TrimSpace(rec.Body.String()); body != tt.wantBody {
					t.Errorf("expected %s, got %s", tt.wantBody, body)
				}
				return
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			var got map[string]any
			if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
				t.Fatalf("failed to decode JSON: %v", err)
			}
			for _, key := range []string{"id", "accel_x", "accel_y", "accel_z", "magnitude", "gps_latitude", "gps_longitude", "alarm", "mode", "timestamp"} {
				if _, ok := got[key]; !ok {
					t.Errorf("missing field %q in %v", key, got)
				}
			}
			if got["alarm"] != true || got["gps_latitude"] != 27.7 {
				t.Errorf("unexpected reading %v", got)
			}
		})
	}
}

func TestTelemetryHandler_HugeMagnitude(t *testing.T) {
	svc := &fakeTelemetryService{readings: []models.Reading{{ID: 3, AccelX: 1e200, Magnitude: 1e200, Alarm: true, Mode: models.ModeLock}}}
	h := &TelemetryHandler{TelemetryService: svc}

	for _, path := range []string{"/api/latest", "/api/data"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if path == "/api/latest" {
			h.Latest(rec, req)
		} else {
			h.Data(rec, req)
		}

		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"magnitude":1e+200`) {
			t.Errorf("%s: unexpected body %s", path, rec.Body.String())
		}
	}
}

func TestTelemetryHandler_UnencodableReading(t *testing.T) {
	svc := &fakeTelemetryService{readings: []models.Reading{{ID: 4, Magnitude: math.Inf(1)}}}
	h := &TelemetryHandler{TelemetryService: svc}

	rec := httptest.NewRecorder()
	h.Latest(rec, httptest.NewRequest(http.MethodGet, "/api/latest", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != `{"message":"internal error"}` {
		t.Errorf("unexpected body %s", body)
	}
}
