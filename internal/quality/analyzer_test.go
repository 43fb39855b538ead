package quality

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jrowe/fitdedup/internal/activity"
)

func TestTrustLevel(t *testing.T) {
	tests := []struct {
		device string
		want   string
	}{
		{"Garmin Forerunner 955", "high"},
		{"Wahoo ELEMNT Bolt", "high"},
		{"Polar Vantage", "high"},
		{"Suunto 9", "high"},
		{"Fitbit Charge 5", "medium-high"},
		{"COROS Pace 3", "medium-high"},
		{"Apple Watch Ultra", "medium"},
		{"iPhone 15", "low"},
		{"Android Phone", "low"},
		{"Strava App", "very-low"},
		{"", "unknown"},
		{"Mystery Tracker", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.device, func(t *testing.T) {
			assert.Equal(t, tt.want, TrustLevel(tt.device))
		})
	}
}

func TestAvailableDataTypes(t *testing.T) {
	a := activity.Activity{
		StartDate:          time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
		Type:               "Run",
		Distance:           5000,
		TotalElevationGain: 120,
		HasHeartrate:       true,
		AverageHeartrate:   floatPtr(140),
		HasCadence:         true, // no average reported, must not count
	}

	got := AvailableDataTypes(&a)
	assert.Equal(t, []string{"heartrate", "gps", "elevation"}, got)
}

func TestSummarize(t *testing.T) {
	a := activity.Activity{
		StartDate:        time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
		Type:             "Run",
		Distance:         5000,
		DeviceName:       "Garmin Forerunner",
		HasHeartrate:     true,
		AverageHeartrate: floatPtr(140),
		HasMap:           true,
		KudosCount:       2,
	}

	s := Summarize(&a)
	// 10 hr + 8 map + 5 dist + 5 garmin + 2 social
	assert.Equal(t, 30, s.Score)
	assert.Equal(t, 3, s.DataTypeCount)
	assert.Equal(t, "high", s.DeviceTrustLevel)
	assert.True(t, s.HasSocialEngagement)
	assert.False(t, s.IsManual)
}

func TestCompare(t *testing.T) {
	start := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	rich := activity.Activity{
		StartDate:        start,
		Type:             "Run",
		Distance:         5000,
		DeviceName:       "Garmin Forerunner",
		HasHeartrate:     true,
		AverageHeartrate: floatPtr(140),
		HasMap:           true,
	}
	sparse := activity.Activity{
		StartDate:  start,
		Type:       "Run",
		Distance:   5000,
		DeviceName: "iPhone",
	}

	c := Compare(&rich, &sparse)
	assert.Equal(t, "activity1", c.Winner)
	assert.Equal(t, c.Activity1Score-c.Activity2Score, c.ScoreDifference)

	reversed := Compare(&sparse, &rich)
	assert.Equal(t, "activity2", reversed.Winner)

	tie := Compare(&sparse, &sparse)
	assert.Equal(t, "tie", tie.Winner)
	assert.Zero(t, tie.ScoreDifference)
}
