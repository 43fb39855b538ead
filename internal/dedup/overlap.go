package dedup

import (
	"time"

	"github.com/jrowe/fitdedup/internal/activity"
)

// timeShifts are the candidate offsets applied to the first activity's
// start when comparing a pair. The one-hour shifts compensate for devices
// that recorded across a daylight-saving boundary with different ideas of
// local time. Order is the priority order for the match decision.
var timeShifts = []int{0, 3600, -3600}

// OverlapPercent computes the temporal overlap between two activities
// after shifting a's start by shiftSeconds, expressed as a percentage of
// the shorter activity's duration in [0, 100].
//
// The interval test is closed on both ends, so two activities that merely
// touch still count as overlapping (with zero overlap duration). If either
// activity has zero duration the result is 0: a zero-length activity
// cannot meaningfully contain a comparison window.
func OverlapPercent(a, b *activity.Activity, shiftSeconds int) float64 {
	start1 := a.StartDate.Add(time.Duration(shiftSeconds) * time.Second)
	end1 := start1.Add(time.Duration(a.ElapsedTime) * time.Second)
	start2 := b.StartDate
	end2 := b.EndDate()

	if !intervalsOverlap(start1, end1, start2, end2) {
		return 0
	}

	overlapStart := maxTime(start1, start2)
	overlapEnd := minTime(end1, end2)
	overlapSeconds := overlapEnd.Sub(overlapStart).Seconds()

	minDuration := a.ElapsedTime
	if b.ElapsedTime < minDuration {
		minDuration = b.ElapsedTime
	}
	if minDuration == 0 {
		return 0
	}

	return overlapSeconds / float64(minDuration) * 100
}

// intervalsOverlap reports whether [start1, end1] and [start2, end2]
// intersect, treating both intervals as closed.
func intervalsOverlap(start1, end1, start2, end2 time.Time) bool {
	return !start1.After(end2) && !start2.After(end1)
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
