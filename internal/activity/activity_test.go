package activity

import (
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	base := func() Activity {
		return Activity{
			ID:        "123",
			Name:      "Morning Run",
			StartDate: time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
			Type:      "Run",
		}
	}

	tests := []struct {
		name        string
		mutate      func(*Activity)
		expectError bool
	}{
		{
			name:   "valid minimal activity",
			mutate: func(a *Activity) {},
		},
		{
			name:        "zero start date",
			mutate:      func(a *Activity) { a.StartDate = time.Time{} },
			expectError: true,
		},
		{
			name:        "negative elapsed time",
			mutate:      func(a *Activity) { a.ElapsedTime = -1 },
			expectError: true,
		},
		{
			name:        "negative distance",
			mutate:      func(a *Activity) { a.Distance = -0.5 },
			expectError: true,
		},
		{
			name:        "negative elevation gain",
			mutate:      func(a *Activity) { a.TotalElevationGain = -2 },
			expectError: true,
		},
		{
			name:        "negative kudos",
			mutate:      func(a *Activity) { a.KudosCount = -1 },
			expectError: true,
		},
		{
			name:        "missing type tag",
			mutate:      func(a *Activity) { a.Type = "" },
			expectError: true,
		},
		{
			name: "zero duration and distance are valid",
			mutate: func(a *Activity) {
				a.ElapsedTime = 0
				a.Distance = 0
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := base()
			tt.mutate(&a)
			err := a.Validate()
			if tt.expectError && err == nil {
				t.Errorf("Validate() = nil, want error")
			}
			if !tt.expectError && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestDateKeyUsesOwnLocation(t *testing.T) {
	// 23:30 in UTC+2 is 21:30 UTC; the key must follow the activity's
	// own wall clock, not UTC.
	loc := time.FixedZone("UTC+2", 2*3600)
	a := Activity{StartDate: time.Date(2024, 3, 31, 23, 30, 0, 0, loc)}
	if got := a.DateKey(); got != "2024-03-31" {
		t.Errorf("DateKey() = %q, want %q", got, "2024-03-31")
	}
}

func TestEndDate(t *testing.T) {
	start := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	a := Activity{StartDate: start, ElapsedTime: 1800}
	want := start.Add(30 * time.Minute)
	if got := a.EndDate(); !got.Equal(want) {
		t.Errorf("EndDate() = %v, want %v", got, want)
	}
}

func TestHasSocialEngagement(t *testing.T) {
	a := Activity{}
	if a.HasSocialEngagement() {
		t.Error("expected no social engagement for zero counts")
	}
	a.CommentCount = 1
	if !a.HasSocialEngagement() {
		t.Error("expected social engagement with one comment")
	}
}
