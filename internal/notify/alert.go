// Package notify delivers theft alerts to the owner. Delivery is best effort:
// callers log and count a failure but never retry it.
package notify

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"time"

	"github.com/atinyakov/BikeGuard/internal/models"
)

// AlertSubject is the subject line of every alert.
const AlertSubject = "BIKE THEFT ALERT"

// Notifier delivers an alert for an alarmed reading.
type Notifier interface {
	Notify(ctx context.Context, r models.Reading) error
}

// Alert is the channel-independent content of a theft alert.
type Alert struct {
	Subject   string      `json:"subject"`
	ReadingID int64       `json:"reading_id"`
	Magnitude float64     `json:"magnitude"`
	Mode      models.Mode `json:"mode"`
	// Location is a map link, or "GPS not available" when the reading has no fix.
	Location    string    `json:"location"`
	HasLocation bool      `json:"has_location"`
	Timestamp   time.Time `json:"timestamp"`
}

// BuildAlert derives the alert content from r.
func BuildAlert(r models.Reading) Alert {
	a := Alert{
		Subject:   AlertSubject,
		ReadingID: r.ID,
		Magnitude: r.Magnitude,
		Mode:      r.Mode,
		Location:  "GPS not available",
		Timestamp: r.Timestamp,
	}
	if r.HasLocation() {
		a.HasLocation = true
		a.Location = fmt.Sprintf("https://www.google.com/maps?q=%s,%s",
			strconv.FormatFloat(*r.GPSLatitude, 'f', -1, 64),
			strconv.FormatFloat(*r.GPSLongitude, 'f', -1, 64),
		)
	}
	return a
}

// HTML renders the alert as the body of an email.
func (a Alert) HTML() string {
	loc := html.EscapeString(a.Location)
	if a.HasLocation {
		loc = fmt.Sprintf(`<a href="%s">View Location</a>`, loc)
	}
	return fmt.Sprintf(
		"<h2>Theft Detected</h2>\n"+
			"<p>Magnitude: <b>%sg</b></p>\n"+
			"<p>Mode: <b>%s</b></p>\n"+
			"<p>%s</p>\n",
		strconv.FormatFloat(a.Magnitude, 'f', -1, 64),
		html.EscapeString(string(a.Mode)),
		loc,
	)
}
