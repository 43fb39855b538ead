package review

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrowe/fitdedup/internal/activity"
	"github.com/jrowe/fitdedup/internal/dedup"
)

func testActivity(id, name, device string) *activity.Activity {
	return &activity.Activity{
		ID:          id,
		Name:        name,
		StartDate:   time.Date(2025, 6, 10, 7, 0, 0, 0, time.UTC),
		ElapsedTime: 1800,
		Distance:    5000,
		Type:        "Run",
		DeviceName:  device,
		Source:      "strava",
	}
}

func testPair(verySimilar bool) dedup.Pair {
	a1 := testActivity("1", "Morning Run", "Garmin Forerunner 945")
	a2 := testActivity("2", "Morning Run copy", "Strava iPhone App")
	return dedup.Pair{
		Activity1:         a1,
		Activity2:         a2,
		OverlapPercentage: 95,
		TimeDifference:    2 * time.Minute,
		RecommendedKeep:   a1,
		RecommendedDelete: a2,
		Reason:            "Activity 1 has better data quality (score: 20 vs 7)",
		IsVerySimilar:     verySimilar,
	}
}

// scriptedSession returns a session whose prompt plays back the given
// answers in order.
func scriptedSession(out io.Writer, answers ...string) *Session {
	s := NewSession(out, func(a *activity.Activity) string {
		return "https://example.com/" + a.ID
	})
	i := 0
	s.prompt = func(string) (string, error) {
		if i >= len(answers) {
			return "", io.EOF
		}
		answer := answers[i]
		i++
		return answer, nil
	}
	return s
}

func TestRunNoPairs(t *testing.T) {
	var out bytes.Buffer
	s := scriptedSession(&out)

	marked, err := s.Run(nil)
	require.NoError(t, err)
	assert.Empty(t, marked)
	assert.Contains(t, out.String(), "No duplicates found")
}

func TestRunAutoMarksClearWinner(t *testing.T) {
	var out bytes.Buffer
	s := scriptedSession(&out) // no answers: prompting would fail the test

	marked, err := s.Run([]dedup.Pair{testPair(false)})
	require.NoError(t, err)
	require.Len(t, marked, 1)
	assert.Equal(t, "2", marked[0].Activity.ID)
	assert.Equal(t, "https://example.com/2", marked[0].URL)
	assert.Contains(t, out.String(), "clear winner")
}

func TestRunPromptsVerySimilar(t *testing.T) {
	tests := []struct {
		name     string
		answer   string
		markedID string
	}{
		{"keep 1 deletes 2", "1", "2"},
		{"keep 2 deletes 1", "2", "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			s := scriptedSession(&out, tt.answer)

			marked, err := s.Run([]dedup.Pair{testPair(true)})
			require.NoError(t, err)
			require.Len(t, marked, 1)
			assert.Equal(t, tt.markedID, marked[0].Activity.ID)
		})
	}
}

func TestRunSkip(t *testing.T) {
	var out bytes.Buffer
	s := scriptedSession(&out, "s")

	marked, err := s.Run([]dedup.Pair{testPair(true)})
	require.NoError(t, err)
	assert.Empty(t, marked)
	assert.Contains(t, out.String(), "Skipped")
}

func TestRunQuitKeepsEarlierMarks(t *testing.T) {
	var out bytes.Buffer
	s := scriptedSession(&out, "1", "q")

	pairs := []dedup.Pair{testPair(true), testPair(true), testPair(true)}
	marked, err := s.Run(pairs)
	require.NoError(t, err)
	assert.Len(t, marked, 1, "quit stops reviewing but keeps prior marks")
	assert.Contains(t, out.String(), "marked for deletion")
}

func TestRunReAsksOnInvalidAnswer(t *testing.T) {
	var out bytes.Buffer
	s := scriptedSession(&out, "x", "3", "1")

	marked, err := s.Run([]dedup.Pair{testPair(true)})
	require.NoError(t, err)
	assert.Len(t, marked, 1)
	assert.Contains(t, out.String(), "Please answer 1, 2, s or q.")
}

func TestRunDryRunMarksEverything(t *testing.T) {
	var out bytes.Buffer
	s := scriptedSession(&out) // prompting would fail
	s.DryRun = true

	pairs := []dedup.Pair{testPair(true), testPair(false)}
	marked, err := s.Run(pairs)
	require.NoError(t, err)
	assert.Len(t, marked, 2)
	assert.Contains(t, out.String(), "[dry run]")
}

func TestRunEOFEndsSession(t *testing.T) {
	var out bytes.Buffer
	s := scriptedSession(&out) // prompt immediately returns EOF

	marked, err := s.Run([]dedup.Pair{testPair(true)})
	require.NoError(t, err)
	assert.Empty(t, marked)
	assert.Contains(t, out.String(), "No activities marked for deletion")
}

func TestRenderPairShowsScoresAndReason(t *testing.T) {
	var out bytes.Buffer
	renderPair(&out, 1, 2, testPair(true))

	text := out.String()
	assert.Contains(t, text, "Duplicate 1 of 2")
	assert.Contains(t, text, "/100")
	assert.Contains(t, text, "Overlap:         95.0%")
	assert.Contains(t, text, "2 minute(s)")
	assert.Contains(t, text, "better data quality")
	assert.Contains(t, text, "very close")
	assert.Contains(t, text, "keep")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "30m 00s", formatDuration(1800))
	assert.Equal(t, "1h 02m 03s", formatDuration(3723))
	assert.Equal(t, "0m 45s", formatDuration(45))
}

func TestFormatTimeDifference(t *testing.T) {
	assert.Equal(t, "30 second(s)", formatTimeDifference(30*time.Second))
	assert.Equal(t, "5 minute(s)", formatTimeDifference(5*time.Minute))
	assert.Equal(t, "1.5 hour(s)", formatTimeDifference(90*time.Minute))
}
