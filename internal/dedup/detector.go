package dedup

import (
	"fmt"
	"io"
	"log"
	"math"
	"sort"
	"time"

	"github.com/jrowe/fitdedup/internal/activity"
	"github.com/jrowe/fitdedup/internal/quality"
)

// Detector runs the duplicate detection pass. It is stateless between
// runs: given the same activity list and configuration the output is fully
// reproducible.
type Detector struct {
	cfg    Config
	logger *log.Logger
}

// NewDetector creates a detector with the given configuration. Diagnostics
// are discarded unless a logger is attached with SetLogger.
func NewDetector(cfg Config) *Detector {
	return &Detector{
		cfg:    cfg,
		logger: log.New(io.Discard, "", 0),
	}
}

// SetLogger attaches a diagnostics sink. Pass nil to silence the detector
// again.
func (d *Detector) SetLogger(logger *log.Logger) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	d.logger = logger
}

// FindDuplicates tests every same-day, same-type pair of activities and
// returns one Pair per confirmed duplicate, in evaluation order (day
// groups in date order, start-time order within a group). Records that
// violate the activity invariants are skipped. Pairs sharing an activity
// are reported independently; transitive chains are not reconciled.
func (d *Detector) FindDuplicates(activities []activity.Activity) []Pair {
	var duplicates []Pair

	byDate := d.groupByDate(activities)

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	for _, date := range dates {
		group := byDate[date]
		if len(group) < 2 {
			continue
		}

		d.logger.Printf("date %s: %d activities", date, len(group))

		sort.SliceStable(group, func(i, j int) bool {
			return group[i].StartDate.Before(group[j].StartDate)
		})

		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				a1, a2 := group[i], group[j]
				if d.arePotentialDuplicates(a1, a2) {
					duplicates = append(duplicates, d.buildPair(a1, a2))
				}
			}
		}
	}

	return duplicates
}

// groupByDate buckets activities by the calendar date of their start
// instant, dropping records that fail validation.
func (d *Detector) groupByDate(activities []activity.Activity) map[string][]*activity.Activity {
	groups := make(map[string][]*activity.Activity)
	for i := range activities {
		a := &activities[i]
		if err := a.Validate(); err != nil {
			d.logger.Printf("skipping malformed record: %v", err)
			continue
		}
		key := a.DateKey()
		groups[key] = append(groups[key], a)
	}
	return groups
}

// arePotentialDuplicates decides whether a pair is a confirmed duplicate.
// Each candidate shift must pass the start-time window, then the distance
// and duration tolerances, then the minimum overlap. The first shift that
// passes everything confirms the pair.
func (d *Detector) arePotentialDuplicates(a1, a2 *activity.Activity) bool {
	if a1.Type != a2.Type {
		d.logger.Printf("different activity types: %s vs %s", a1.Type, a2.Type)
		return false
	}

	for _, shift := range timeShifts {
		shiftedStart1 := a1.StartDate.Add(time.Duration(shift) * time.Second)
		timeDiff := math.Abs(shiftedStart1.Sub(a2.StartDate).Minutes())
		if timeDiff > d.cfg.TimeWindowMinutes {
			continue
		}
		d.logger.Printf("time check passed with %+dh shift: %.1f minutes difference", shift/3600, timeDiff)

		if !similarWithinTolerance(a1.Distance, a2.Distance, d.cfg.DistanceTolerancePercent) {
			d.logger.Printf("distance difference too large: %.1f vs %.1f", a1.Distance, a2.Distance)
			continue
		}
		if !similarWithinTolerance(float64(a1.ElapsedTime), float64(a2.ElapsedTime), d.cfg.DurationTolerancePercent) {
			d.logger.Printf("duration difference too large: %d vs %d", a1.ElapsedTime, a2.ElapsedTime)
			continue
		}

		overlap := OverlapPercent(a1, a2, shift)
		if overlap >= d.cfg.MinimumOverlapPercent {
			d.logger.Printf("overlap check passed with %+dh shift: %.1f%%", shift/3600, overlap)
			return true
		}
		d.logger.Printf("overlap too low with %+dh shift: %.1f%%", shift/3600, overlap)
	}

	return false
}

// similarWithinTolerance compares two non-negative magnitudes. Two zeros
// are equal, exactly one zero is unequal, and otherwise the relative
// difference (percent of the larger value) must stay within tolerance.
func similarWithinTolerance(v1, v2, tolerancePercent float64) bool {
	if v1 == 0 && v2 == 0 {
		return true
	}
	if v1 == 0 || v2 == 0 {
		return false
	}
	diffPercent := math.Abs(v1-v2) / math.Max(v1, v2) * 100
	return diffPercent <= tolerancePercent
}

// buildPair constructs the report for a confirmed duplicate. The overlap
// and time difference are taken from whichever shift yields the highest
// overlap, which can differ from the shift that first confirmed the match.
func (d *Detector) buildPair(a1, a2 *activity.Activity) Pair {
	bestOverlap := 0.0
	bestShift := 0
	for _, shift := range timeShifts {
		if overlap := OverlapPercent(a1, a2, shift); overlap > bestOverlap {
			bestOverlap = overlap
			bestShift = shift
		}
	}

	shiftedStart1 := a1.StartDate.Add(time.Duration(bestShift) * time.Second)
	timeDifference := shiftedStart1.Sub(a2.StartDate)
	if timeDifference < 0 {
		timeDifference = -timeDifference
	}

	quality1 := quality.Score(a1, quality.DuplicateTrustTable)
	quality2 := quality.Score(a2, quality.DuplicateTrustTable)

	gap := quality1 - quality2
	if gap < 0 {
		gap = -gap
	}
	isVerySimilar := gap <= 5

	var keep, del *activity.Activity
	var reason string
	switch {
	case quality1 > quality2:
		keep, del = a1, a2
		reason = fmt.Sprintf("Activity 1 has better data quality (score: %d vs %d)", quality1, quality2)
	case quality2 > quality1:
		keep, del = a2, a1
		reason = fmt.Sprintf("Activity 2 has better data quality (score: %d vs %d)", quality2, quality1)
	default:
		// Exact tie: keep the recording that started earlier under the
		// best shift.
		if !shiftedStart1.After(a2.StartDate) {
			keep, del = a1, a2
			reason = "Activity 1 was recorded earlier"
		} else {
			keep, del = a2, a1
			reason = "Activity 2 was recorded earlier"
		}
	}

	if bestShift != 0 {
		reason += fmt.Sprintf(" (detected with %+dh time shift)", bestShift/3600)
	}

	return Pair{
		Activity1:         a1,
		Activity2:         a2,
		OverlapPercentage: bestOverlap,
		TimeDifference:    timeDifference,
		RecommendedKeep:   keep,
		RecommendedDelete: del,
		Reason:            reason,
		IsVerySimilar:     isVerySimilar,
	}
}
