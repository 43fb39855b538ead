package review

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/jrowe/fitdedup/internal/activity"
	"github.com/jrowe/fitdedup/internal/dedup"
	"github.com/jrowe/fitdedup/internal/quality"
)

// Marked is an activity the user selected for deletion, paired with the
// provider page where the deletion has to be carried out by hand.
type Marked struct {
	Activity *activity.Activity
	URL      string
}

// renderWelcome prints the banner shown before the first pair.
func renderWelcome(w io.Writer, total int) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Fprintf(w, "\n%s\n", cyan(fmt.Sprintf("Found %d potential duplicate pair(s)", total)))
	fmt.Fprintln(w, "For each pair, choose which activity to keep. Nothing is deleted")
	fmt.Fprintln(w, "automatically; marked activities are listed at the end with links.")
}

// renderPair prints one duplicate pair with both activities side by side
// and the recommendation underneath.
func renderPair(w io.Writer, index, total int, pair dedup.Pair) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	fmt.Fprintf(w, "\n%s\n", cyan(fmt.Sprintf("=== Duplicate %d of %d ===", index, total)))

	renderActivity(w, 1, pair.Activity1)
	renderActivity(w, 2, pair.Activity2)

	fmt.Fprintf(w, "  Overlap:         %.1f%%\n", pair.OverlapPercentage)
	fmt.Fprintf(w, "  Time difference: %s\n", formatTimeDifference(pair.TimeDifference))

	if pair.IsVerySimilar {
		fmt.Fprintf(w, "  %s\n", yellow("Quality scores are very close; review carefully."))
	}

	keepLabel := 1
	if pair.RecommendedKeep == pair.Activity2 {
		keepLabel = 2
	}
	fmt.Fprintf(w, "  Recommendation:  keep %s, delete %s\n",
		green(fmt.Sprintf("activity %d", keepLabel)),
		red(fmt.Sprintf("activity %d", 3-keepLabel)))
	fmt.Fprintf(w, "  Reason:          %s\n", pair.Reason)
}

// renderActivity prints one activity block with its completeness score.
func renderActivity(w io.Writer, label int, a *activity.Activity) {
	score := quality.Score(a, quality.DuplicateTrustTable)
	dataTypes := quality.AvailableDataTypes(a)
	types := "none"
	if len(dataTypes) > 0 {
		types = strings.Join(dataTypes, ", ")
	}

	fmt.Fprintf(w, "\n  Activity %d: %s [%s]\n", label, a.Name, a.Source)
	fmt.Fprintf(w, "    Start:    %s\n", a.StartDate.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "    Duration: %s\n", formatDuration(a.ElapsedTime))
	fmt.Fprintf(w, "    Distance: %.2f km\n", a.Distance/1000)
	fmt.Fprintf(w, "    Device:   %s\n", a.DeviceName)
	fmt.Fprintf(w, "    Data:     %s\n", types)
	fmt.Fprintf(w, "    Quality:  %d/100\n", score)
}

// renderSummary prints the final list of marked activities with the
// provider pages where they can be deleted.
func renderSummary(w io.Writer, marked []Marked) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()

	if len(marked) == 0 {
		fmt.Fprintf(w, "\n%s\n", cyan("No activities marked for deletion."))
		return
	}

	fmt.Fprintf(w, "\n%s\n", cyan(fmt.Sprintf("%d activity(ies) marked for deletion:", len(marked))))
	for _, m := range marked {
		fmt.Fprintf(w, "  - %s (%s)\n", m.Activity.Name, m.Activity.StartDate.Format("2006-01-02"))
		fmt.Fprintf(w, "    %s\n", m.URL)
	}
	fmt.Fprintln(w, "\nDelete them manually at the links above.")
}

// formatDuration renders whole seconds as 45m 30s or 1h 02m 03s.
func formatDuration(seconds int) string {
	d := time.Duration(seconds) * time.Second
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%dh %02dm %02ds", h, m, s)
	}
	return fmt.Sprintf("%dm %02ds", m, s)
}

// formatTimeDifference renders the gap between two start instants in the
// most natural unit.
func formatTimeDifference(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%d second(s)", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%d minute(s)", int(d.Minutes()))
	default:
		return fmt.Sprintf("%.1f hour(s)", d.Hours())
	}
}
