// Package quality scores how much trustworthy sensor and provenance data
// an activity carries. The duplicate detector uses the score to decide
// which copy of a workout to keep; the quality command uses it for
// standalone completeness reporting. Both call sites share the same point
// model so recommendations stay consistent with displayed scores.
package quality

import (
	"strings"

	"github.com/jrowe/fitdedup/internal/activity"
)

// TrustEntry maps a device-name keyword to bonus points.
type TrustEntry struct {
	Keyword string
	Points  int
}

// TrustTable is an ordered list of device keywords. Lookup walks the table
// in order and the first case-insensitive substring match wins, so more
// specific keywords must come before generic ones ("apple watch" before
// "iphone").
type TrustTable []TrustEntry

// Lookup returns the trust points for a device name, or 0 when no keyword
// matches.
func (t TrustTable) Lookup(deviceName string) int {
	lower := strings.ToLower(deviceName)
	for _, e := range t {
		if strings.Contains(lower, e.Keyword) {
			return e.Points
		}
	}
	return 0
}

// DuplicateTrustTable is the variant used when ranking the two sides of a
// duplicate pair. It knows about the Stryd pod but not about Fitbit or
// Coros. It intentionally diverges from CompletenessTrustTable; the two
// call sites keep their own tables.
var DuplicateTrustTable = TrustTable{
	{"garmin", 5},
	{"wahoo", 5},
	{"polar", 5},
	{"suunto", 5},
	{"stryd", 4},
	{"iphone", 2},
	{"android", 2},
	{"strava", 1},
}

// CompletenessTrustTable is the variant used by the standalone data
// completeness report.
var CompletenessTrustTable = TrustTable{
	{"garmin", 5},
	{"wahoo", 5},
	{"polar", 5},
	{"suunto", 5},
	{"fitbit", 4},
	{"coros", 4},
	{"apple watch", 3},
	{"iphone", 2},
	{"android", 2},
	{"strava", 1},
	{"unknown", 0},
}

// Score computes the additive quality score for one activity. It is a pure
// function of the record's fields: sensor data with a reported average
// earns points, device trust is looked up in the given table, social
// engagement adds a little, and manual entries are penalized. The result
// is floored at 0 and has no explicit maximum.
func Score(a *activity.Activity, table TrustTable) int {
	score := 0

	if a.HasHeartrate && a.AverageHeartrate != nil {
		score += 10
	}
	if a.HasPower && a.AveragePower != nil {
		score += 10
	}
	if a.HasCadence && a.AverageCadence != nil {
		score += 5
	}
	if a.HasTemperature {
		score += 3
	}

	// GPS data matters most when deciding between a foot pod and a watch
	// recording of the same run.
	if a.HasMap {
		score += 8
	}

	if a.Distance > 0 {
		score += 5
	}

	score += table.Lookup(a.DeviceName)

	if a.HasSocialEngagement() {
		score += 2
	}

	if a.Manual {
		score -= 10
	}

	if score < 0 {
		return 0
	}
	return score
}
