package quality

import (
	"strings"

	"github.com/jrowe/fitdedup/internal/activity"
)

// Summary describes how complete one activity's data is.
type Summary struct {
	Score               int      `json:"score"`
	AvailableDataTypes  []string `json:"available_data_types"`
	DataTypeCount       int      `json:"data_type_count"`
	DeviceTrustLevel    string   `json:"device_trust_level"`
	HasSocialEngagement bool     `json:"has_social_engagement"`
	IsManual            bool     `json:"is_manual"`
}

// Comparison holds the completeness scores of two activities side by side.
// Winner is "activity1", "activity2" or "tie".
type Comparison struct {
	Activity1Score  int    `json:"activity1_score"`
	Activity2Score  int    `json:"activity2_score"`
	Winner          string `json:"winner"`
	ScoreDifference int    `json:"score_difference"`
}

// Summarize builds the completeness summary for one activity using the
// CompletenessTrustTable point model.
func Summarize(a *activity.Activity) Summary {
	return Summary{
		Score:               Score(a, CompletenessTrustTable),
		AvailableDataTypes:  AvailableDataTypes(a),
		DataTypeCount:       len(AvailableDataTypes(a)),
		DeviceTrustLevel:    TrustLevel(a.DeviceName),
		HasSocialEngagement: a.HasSocialEngagement(),
		IsManual:            a.Manual,
	}
}

// Compare scores two activities with the completeness table and reports
// which carries more data.
func Compare(a, b *activity.Activity) Comparison {
	s1 := Score(a, CompletenessTrustTable)
	s2 := Score(b, CompletenessTrustTable)

	c := Comparison{
		Activity1Score:  s1,
		Activity2Score:  s2,
		ScoreDifference: abs(s1 - s2),
	}
	switch {
	case s1 > s2:
		c.Winner = "activity1"
	case s2 > s1:
		c.Winner = "activity2"
	default:
		c.Winner = "tie"
	}
	return c
}

// AvailableDataTypes lists the kinds of data the activity actually
// carries. A sensor flag without a reported average does not count.
func AvailableDataTypes(a *activity.Activity) []string {
	var types []string
	if a.HasHeartrate && a.AverageHeartrate != nil {
		types = append(types, "heartrate")
	}
	if a.HasPower && a.AveragePower != nil {
		types = append(types, "power")
	}
	if a.HasCadence && a.AverageCadence != nil {
		types = append(types, "cadence")
	}
	if a.HasTemperature {
		types = append(types, "temperature")
	}
	if a.Distance > 0 {
		types = append(types, "gps")
	}
	if a.TotalElevationGain > 0 {
		types = append(types, "elevation")
	}
	return types
}

// TrustLevel classifies a device name into a coarse trust bucket for
// display purposes.
func TrustLevel(deviceName string) string {
	lower := strings.ToLower(deviceName)

	switch {
	case containsAny(lower, "garmin", "wahoo", "polar", "suunto"):
		return "high"
	case containsAny(lower, "fitbit", "coros"):
		return "medium-high"
	case strings.Contains(lower, "apple watch"):
		return "medium"
	case containsAny(lower, "iphone", "android"):
		return "low"
	case strings.Contains(lower, "strava"):
		return "very-low"
	default:
		return "unknown"
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
