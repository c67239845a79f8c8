// Package models defines the core data structures for accounts, settings
// and telemetry readings.
package models

import "time"

// Mode is the operating state of the system.
type Mode string

const (
	// ModeSafe means monitoring only; no alarm is ever raised.
	ModeSafe Mode = "safe"
	// ModeLock means the alarm is armed.
	ModeLock Mode = "lock"
)

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	return m == ModeSafe || m == ModeLock
}

// DefaultThreshold is the magnitude threshold used until an operator changes it.
const DefaultThreshold = 1.3

// Account represents a dashboard user with credentials.
type Account struct {
	// ID is the unique identifier for the account.
	ID string
	// Username is the login name chosen by the user. Unique.
	Username string
	// Email is the contact address of the user. Unique.
	Email string
	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash []byte
	// CreatedAt is when the account was registered.
	CreatedAt time.Time
}

// Settings holds the single, process-wide alarm configuration.
type Settings struct {
	// Mode is the current operating mode.
	Mode Mode `json:"mode"`
	// Threshold is the magnitude above which a locked bike raises an alarm.
	Threshold float64 `json:"threshold"`
	// UpdatedAt is the time of the last change.
	UpdatedAt time.Time `json:"updatedAt"`
}

// DefaultSettings returns the settings used when none have been stored yet.
func DefaultSettings() Settings {
	return Settings{
		Mode:      ModeSafe,
		Threshold: DefaultThreshold,
		UpdatedAt: time.Now().UTC(),
	}
}

// SettingsPatch carries a partial settings update. Nil fields are left untouched.
type SettingsPatch struct {
	Mode      *Mode    `json:"mode,omitempty"`
	Threshold *float64 `json:"threshold,omitempty"`
}

// Reading is one evaluated and persisted telemetry sample.
type Reading struct {
	// ID is assigned by the store.
	ID int64 `json:"id"`
	// AccelX, AccelY and AccelZ are the acceleration components in g.
	AccelX float64 `json:"accel_x"`
	AccelY float64 `json:"accel_y"`
	AccelZ float64 `json:"accel_z"`
	// Magnitude is the Euclidean norm of the acceleration, rounded to 3 decimals.
	Magnitude float64 `json:"magnitude"`
	// GPSLatitude and GPSLongitude are nil when the device had no fix.
	GPSLatitude  *float64 `json:"gps_latitude"`
	GPSLongitude *float64 `json:"gps_longitude"`
	// Alarm is the result of the threshold evaluation.
	Alarm bool `json:"alarm"`
	// Mode is the mode the reading was evaluated under.
	Mode Mode `json:"mode"`
	// Timestamp is set when the reading is persisted.
	Timestamp time.Time `json:"timestamp"`
}

// HasLocation reports whether both GPS coordinates are present.
func (r Reading) HasLocation() bool {
	return r.GPSLatitude != nil && r.GPSLongitude != nil
}

// Telemetry is the payload posted by the device. Absent fields decode as nil.
type Telemetry struct {
	GPSLatitude  *float64 `json:"gps_latitude"`
	GPSLongitude *float64 `json:"gps_longitude"`
	AccelX       *float64 `json:"accel_x"`
	AccelY       *float64 `json:"accel_y"`
	AccelZ       *float64 `json:"accel_z"`
}
