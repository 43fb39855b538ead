// Package activity defines the normalized workout record shared by all
// source adapters and the duplicate detection engine.
package activity

import (
	"fmt"
	"time"
)

// Activity is one recorded workout, normalized from a provider-specific
// schema by a source adapter. Records are constructed once per fetch and
// never mutated afterwards.
type Activity struct {
	// ID is the source-specific identifier. Kept as a string because
	// Strava uses numeric IDs while Stryd uses opaque strings.
	ID string `json:"id"`

	// Name is the display title of the workout.
	Name string `json:"name"`

	// StartDate is the start instant in the activity's own location.
	// Adapters must never hand the detector a zero time.
	StartDate time.Time `json:"start_date"`

	// ElapsedTime is the total elapsed duration in seconds.
	ElapsedTime int `json:"elapsed_time"`

	// Distance is the total distance in meters.
	Distance float64 `json:"distance"`

	// Type is the sport tag (e.g. "Run", "Ride"). Duplicate candidacy
	// requires an exact, case-sensitive match.
	Type string `json:"type"`

	// DeviceName is free text used for the device trust lookup.
	DeviceName string `json:"device_name"`

	// Sensor availability flags. Each average is nil when the provider
	// did not report one, which the scorer treats as "feature absent".
	HasHeartrate   bool `json:"has_heartrate"`
	HasPower       bool `json:"has_power"`
	HasCadence     bool `json:"has_cadence"`
	HasTemperature bool `json:"has_temperature"`
	HasMap         bool `json:"has_map"`

	AverageHeartrate *float64 `json:"average_heartrate,omitempty"`
	AveragePower     *float64 `json:"average_power,omitempty"`
	AverageCadence   *float64 `json:"average_cadence,omitempty"`

	AverageSpeed       float64 `json:"average_speed"`
	TotalElevationGain float64 `json:"total_elevation_gain"`

	// Social engagement counts from the provider (zero for providers
	// without a social layer).
	KudosCount   int `json:"kudos_count"`
	CommentCount int `json:"comment_count"`

	// Manual is true when the activity was typed in by hand rather than
	// recorded by a device.
	Manual bool `json:"manual"`

	// Source names the adapter that produced this record ("strava",
	// "stryd").
	Source string `json:"source,omitempty"`
}

// DateKey returns the calendar date of the start instant in the activity's
// own location, formatted as YYYY-MM-DD. The detector groups by this key,
// so activities never match across day boundaries.
func (a *Activity) DateKey() string {
	return a.StartDate.Format("2006-01-02")
}

// EndDate returns the instant the activity finished.
func (a *Activity) EndDate() time.Time {
	return a.StartDate.Add(time.Duration(a.ElapsedTime) * time.Second)
}

// Validate checks the invariants adapters are expected to guarantee.
// The detector skips records that fail validation instead of aborting
// the batch.
func (a *Activity) Validate() error {
	if a.StartDate.IsZero() {
		return fmt.Errorf("activity %s: start date is not set", a.ID)
	}
	if a.ElapsedTime < 0 {
		return fmt.Errorf("activity %s: elapsed time cannot be negative (got %d)", a.ID, a.ElapsedTime)
	}
	if a.Distance < 0 {
		return fmt.Errorf("activity %s: distance cannot be negative (got %.1f)", a.ID, a.Distance)
	}
	if a.TotalElevationGain < 0 {
		return fmt.Errorf("activity %s: elevation gain cannot be negative (got %.1f)", a.ID, a.TotalElevationGain)
	}
	if a.KudosCount < 0 || a.CommentCount < 0 {
		return fmt.Errorf("activity %s: social counts cannot be negative", a.ID)
	}
	if a.Type == "" {
		return fmt.Errorf("activity %s: type tag is required", a.ID)
	}
	return nil
}

// HasSocialEngagement reports whether anyone has interacted with the
// activity on the provider's platform.
func (a *Activity) HasSocialEngagement() bool {
	return a.KudosCount > 0 || a.CommentCount > 0
}
