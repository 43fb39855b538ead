// Package dedup finds duplicate activities recorded by multiple devices.
//
// # Overview
//
// When the same workout is recorded by, say, a watch and a foot pod and
// both uploads land in the same account, the result is two activities with
// nearly identical timing and distance. The detector finds those pairs and
// recommends which copy to keep based on data quality.
//
// # Algorithm
//
// Activities are grouped by the calendar date of their start instant, so a
// pair is only ever compared within one day. Inside a group every unordered
// pair is tested once, in start-time order:
//
//  1. Activity types must match exactly.
//  2. For each candidate time shift (0, +1h, -1h; the shifts compensate
//     for devices that disagree across a DST boundary) the pair must pass
//     the start-time window, the distance tolerance and the duration
//     tolerance, and then reach the minimum temporal overlap.
//  3. A confirmed pair is reported with the shift that yields the highest
//     overlap, a quality-score comparison, and a keep/delete
//     recommendation.
//
// Overlap is the share of the shorter activity's duration that coincides
// with the other activity, expressed 0-100.
//
// # Decision policy
//
// The higher quality score (see the quality package) wins. On an exact tie
// the earlier shifted start wins. When the score gap is five points or
// less the pair is flagged very similar, signalling that a human should
// confirm the decision instead of auto-applying it.
//
// Pairs sharing an activity (A~B and B~C) are reported independently; the
// detector does not reconcile transitive chains. That can produce
// conflicting recommendations across pairs and is a known limitation.
//
// # Failure semantics
//
// The detector never fails on sparse data: missing averages and zero
// distances or durations degrade to "less corroborating data" or "no
// match". Records violating the activity invariants are skipped, not
// fatal. An empty input yields an empty result.
package dedup
