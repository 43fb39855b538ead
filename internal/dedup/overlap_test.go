package dedup

import (
	"math"
	"testing"
	"time"

	"github.com/jrowe/fitdedup/internal/activity"
)

func runAt(start time.Time, elapsedSeconds int) *activity.Activity {
	return &activity.Activity{
		StartDate:   start,
		ElapsedTime: elapsedSeconds,
		Type:        "Run",
	}
}

func TestOverlapPercent(t *testing.T) {
	base := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		a     *activity.Activity
		b     *activity.Activity
		shift int
		want  float64
	}{
		{
			name: "identical intervals overlap fully",
			a:    runAt(base, 1800),
			b:    runAt(base, 1800),
			want: 100,
		},
		{
			name: "offset start, percentage of the shorter duration",
			a:    runAt(base, 1800),
			b:    runAt(base.Add(2*time.Minute), 1790),
			// overlap is 1680s of the shorter 1790s activity
			want: 1680.0 / 1790.0 * 100,
		},
		{
			name: "disjoint intervals",
			a:    runAt(base, 600),
			b:    runAt(base.Add(time.Hour), 600),
			want: 0,
		},
		{
			name: "touching endpoints count as overlap with zero duration",
			a:    runAt(base, 600),
			b:    runAt(base.Add(10*time.Minute), 600),
			want: 0,
		},
		{
			name: "zero duration yields zero even at identical starts",
			a:    runAt(base, 0),
			b:    runAt(base, 1800),
			want: 0,
		},
		{
			name:  "positive shift lines up a DST-skewed pair",
			a:     runAt(base, 1800),
			b:     runAt(base.Add(time.Hour+time.Minute), 1800),
			shift: 3600,
			// shifted a covers 09:00-09:30, b covers 09:01-09:31
			want: 1740.0 / 1800.0 * 100,
		},
		{
			name:  "negative shift moves the window the other way",
			a:     runAt(base.Add(time.Hour), 1800),
			b:     runAt(base, 1800),
			shift: -3600,
			want:  100,
		},
		{
			name: "containment is capped at 100",
			a:    runAt(base, 3600),
			b:    runAt(base.Add(10*time.Minute), 600),
			want: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OverlapPercent(tt.a, tt.b, tt.shift)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("OverlapPercent() = %.6f, want %.6f", got, tt.want)
			}
		})
	}
}

func TestOverlapPercentStaysInRange(t *testing.T) {
	base := time.Date(2024, 6, 15, 6, 0, 0, 0, time.UTC)
	durations := []int{0, 1, 600, 1800, 86400}
	offsets := []time.Duration{0, time.Second, time.Minute, time.Hour, -time.Hour}

	for _, d1 := range durations {
		for _, d2 := range durations {
			for _, off := range offsets {
				for _, shift := range timeShifts {
					got := OverlapPercent(runAt(base, d1), runAt(base.Add(off), d2), shift)
					if got < 0 || got > 100 {
						t.Fatalf("OverlapPercent(d1=%d, d2=%d, off=%v, shift=%d) = %f, out of [0,100]",
							d1, d2, off, shift, got)
					}
				}
			}
		}
	}
}
