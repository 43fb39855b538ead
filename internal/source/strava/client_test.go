package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(serverURL string) *Client {
	c := NewClient("test-token")
	c.baseURL = serverURL
	c.limiter.SetLimit(1e9)
	return c
}

func listActivity(id int64) map[string]any {
	return map[string]any{
		"id":               id,
		"name":             fmt.Sprintf("Run %d", id),
		"start_date_local": "2025-06-10T07:00:00Z",
		"elapsed_time":     1800,
		"distance":         5000.0,
		"type":             "Run",
		"device_name":      "Garmin Forerunner 945",
		"has_heartrate":    true,
		"start_latlng":     []float64{47.6, -122.3},
	}
}

func TestActivitiesPagination(t *testing.T) {
	// Two full pages then a short one.
	pages := map[string]int{"1": perPage, "2": perPage, "3": 3}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/athlete/activities", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		page := r.URL.Query().Get("page")
		count := pages[page]
		batch := make([]map[string]any, count)
		for i := range batch {
			batch[i] = listActivity(int64(i + 1))
		}
		json.NewEncoder(w).Encode(batch)
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	activities, err := c.Activities(context.Background(), time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, activities, 2*perPage+3)
}

func TestActivitiesTimeRangeParams(t *testing.T) {
	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, strconv.FormatInt(from.Unix(), 10), r.URL.Query().Get("after"))
		assert.Equal(t, strconv.FormatInt(to.Unix(), 10), r.URL.Query().Get("before"))
		json.NewEncoder(w).Encode([]map[string]any{})
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	activities, err := c.Activities(context.Background(), from, to)
	require.NoError(t, err)
	assert.Empty(t, activities)
}

func TestActivitiesSkipsUnparseableRecords(t *testing.T) {
	bad := listActivity(2)
	bad["start_date_local"] = "not-a-date"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{listActivity(1), bad})
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	activities, err := c.Activities(context.Background(), time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, "1", activities[0].ID)
}

func TestGetRetriesServerErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode([]map[string]any{})
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	_, err := c.Activities(context.Background(), time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestGetStopsOnClientError(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	_, err := c.Activities(context.Background(), time.Time{}, time.Time{})
	require.Error(t, err)
	assert.Equal(t, 1, calls, "4xx responses are not retried")
	assert.Contains(t, err.Error(), "401")
}

func TestGetHonorsRateLimitReset(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			// Reset in the past forces the minimum one-second wait.
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Unix()-10, 10))
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode([]map[string]any{})
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	start := time.Now()
	_, err := c.Activities(context.Background(), time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.GreaterOrEqual(t, time.Since(start), time.Second)
}

func TestActivityDetailNormalization(t *testing.T) {
	temp := 18.5
	detail := listActivity(99)
	detail["average_temp"] = temp
	detail["start_latlng"] = []float64{}
	detail["map"] = map[string]any{"polyline": "abc123"}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/activities/99", r.URL.Path)
		json.NewEncoder(w).Encode(detail)
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	a, err := c.Activity(context.Background(), "99")
	require.NoError(t, err)
	assert.True(t, a.HasTemperature, "detail view reports temperature")
	assert.True(t, a.HasMap, "detail view accepts polyline as map evidence")
	assert.Equal(t, "strava", a.Source)
}

func TestNormalizeDefaults(t *testing.T) {
	raw := apiActivity{
		ID:             7,
		StartDateLocal: "2025-06-10T07:00:00Z",
		AverageTemp:    new(float64),
	}

	a, err := normalize(raw, false)
	require.NoError(t, err)
	assert.Equal(t, "Unknown", a.DeviceName)
	assert.Equal(t, "Unknown", a.Type)
	assert.False(t, a.HasTemperature, "list view never reports temperature")
	assert.False(t, a.HasMap, "no start coordinates means no map in list view")
}

func TestNormalizeManualActivityHasNoMap(t *testing.T) {
	raw := apiActivity{
		ID:             8,
		StartDateLocal: "2025-06-10T07:00:00Z",
		Manual:         true,
		StartLatLng:    []float64{47.6, -122.3},
		Map:            &apiMap{Polyline: "abc"},
	}

	a, err := normalize(raw, true)
	require.NoError(t, err)
	assert.True(t, a.Manual)
	assert.False(t, a.HasMap)
}

func TestRateLimitWait(t *testing.T) {
	assert.Equal(t, time.Minute, rateLimitWait(""))
	assert.Equal(t, time.Minute, rateLimitWait("soon"))
	assert.Equal(t, time.Second, rateLimitWait("0"))

	future := time.Now().Add(30 * time.Second).Unix()
	wait := rateLimitWait(strconv.FormatInt(future, 10))
	assert.InDelta(t, 30*time.Second, wait, float64(2*time.Second))
}
