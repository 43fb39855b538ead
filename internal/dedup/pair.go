package dedup

import (
	"fmt"
	"time"

	"github.com/jrowe/fitdedup/internal/activity"
)

// Pair is one confirmed duplicate: two activities judged to represent the
// same workout, with a keep/delete recommendation. Pairs are built once
// per detection run and never mutated.
type Pair struct {
	// Activity1 and Activity2 are the compared records, in the order the
	// detector evaluated them (earlier start first).
	Activity1 *activity.Activity `json:"activity1"`
	Activity2 *activity.Activity `json:"activity2"`

	// OverlapPercentage is the best temporal overlap found across all
	// candidate time shifts, 0-100.
	OverlapPercentage float64 `json:"overlap_percentage"`

	// TimeDifference is the absolute start-time difference under the best
	// shift.
	TimeDifference time.Duration `json:"time_difference"`

	// RecommendedKeep and RecommendedDelete each reference exactly one of
	// the two activities.
	RecommendedKeep   *activity.Activity `json:"recommended_keep"`
	RecommendedDelete *activity.Activity `json:"recommended_delete"`

	// Reason explains the recommendation in plain language.
	Reason string `json:"reason"`

	// IsVerySimilar is true when the quality-score gap is small enough
	// that a human should confirm the decision instead of auto-applying
	// it.
	IsVerySimilar bool `json:"is_very_similar"`
}

// Validate checks the structural invariants of a pair.
func (p *Pair) Validate() error {
	if p.Activity1 == nil || p.Activity2 == nil {
		return fmt.Errorf("pair must reference two activities")
	}
	if p.OverlapPercentage < 0 || p.OverlapPercentage > 100 {
		return fmt.Errorf("overlap_percentage must be between 0 and 100 (got %.1f)", p.OverlapPercentage)
	}
	if p.TimeDifference < 0 {
		return fmt.Errorf("time_difference cannot be negative (got %v)", p.TimeDifference)
	}
	if p.RecommendedKeep == nil || p.RecommendedDelete == nil {
		return fmt.Errorf("pair must carry both a keep and a delete recommendation")
	}
	if p.RecommendedKeep == p.RecommendedDelete {
		return fmt.Errorf("keep and delete recommendations must differ")
	}
	keepIsMember := p.RecommendedKeep == p.Activity1 || p.RecommendedKeep == p.Activity2
	deleteIsMember := p.RecommendedDelete == p.Activity1 || p.RecommendedDelete == p.Activity2
	if !keepIsMember || !deleteIsMember {
		return fmt.Errorf("recommendations must reference the compared activities")
	}
	if p.Reason == "" {
		return fmt.Errorf("reason is required")
	}
	return nil
}
