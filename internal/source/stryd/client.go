// Package stryd fetches activities from the Stryd PowerCenter API.
//
// Stryd has no published API. The endpoints here are the ones the
// PowerCenter web app uses, and the response shape has changed between
// app releases, so the decoder probes several known layouts instead of
// binding to a single schema.
package stryd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/jrowe/fitdedup/internal/activity"
	"github.com/jrowe/fitdedup/internal/source"
)

const (
	defaultBaseURL = "https://www.stryd.com/b"
	maxRetries     = 3
)

// listKeys are the envelope keys observed to carry the activity list,
// tried in order before falling back to scanning every key.
var listKeys = []string{"activities", "runs", "workouts", "data", "calendar", "items"}

// durationKeys are the field names observed to carry the activity
// duration in seconds, tried in order.
var durationKeys = []string{"total_timer_time", "duration", "elapsed_time", "moving_time", "timer_time"}

// Client is an authenticated Stryd PowerCenter client. Authentication is
// lazy: the first request signs in with the stored credentials, and a 401
// triggers one re-authentication before the request fails.
type Client struct {
	email    string
	password string

	baseURL    string
	httpClient *http.Client

	token  string
	userID string

	limiter *rate.Limiter
	logger  *log.Logger
}

// NewClient creates a client that signs in with the given credentials on
// first use.
func NewClient(email, password string) *Client {
	return &Client{
		email:      email,
		password:   password,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
		logger:     log.New(io.Discard, "", 0),
	}
}

// SetLogger attaches a diagnostics sink.
func (c *Client) SetLogger(logger *log.Logger) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	c.logger = logger
}

// Name implements source.Source.
func (c *Client) Name() string { return "stryd" }

// ActivityURL implements source.Source.
func (c *Client) ActivityURL(id string) string {
	return "https://www.stryd.com/powercenter/activities/" + id
}

// signin exchanges the credentials for a session token and user ID.
func (c *Client) signin(ctx context.Context) error {
	body, err := json.Marshal(map[string]string{
		"email":    c.email,
		"password": c.password,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/email/signin", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("stryd signin: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stryd signin returned status %d", resp.StatusCode)
	}

	var payload struct {
		Token string          `json:"token"`
		ID    json.RawMessage `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("decoding signin response: %w", err)
	}
	if payload.Token == "" {
		return fmt.Errorf("stryd signin response missing token")
	}

	c.token = payload.Token
	c.userID = rawMessageString(payload.ID)
	if c.userID == "" {
		return fmt.Errorf("stryd signin response missing user id")
	}
	c.logger.Printf("stryd signin ok for user %s", c.userID)
	return nil
}

// Activities implements source.Source using the calendar endpoint.
func (c *Client) Activities(ctx context.Context, from, to time.Time) ([]activity.Activity, error) {
	if c.token == "" {
		if err := c.signin(ctx); err != nil {
			return nil, err
		}
	}

	endpoint := fmt.Sprintf("%s/api/v1/users/%s/calendar?from=%d&to=%d&include_deleted=false",
		c.baseURL, c.userID, from.Unix(), to.Unix())

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	records, err := extractRecords(body)
	if err != nil {
		return nil, err
	}

	activities := make([]activity.Activity, 0, len(records))
	for _, rec := range records {
		a, err := normalize(rec)
		if err != nil {
			c.logger.Printf("skipping stryd activity: %v", err)
			continue
		}
		activities = append(activities, a)
	}
	return activities, nil
}

// get performs one authenticated request, re-signing in once on a 401 and
// retrying rate limits and server errors with backoff.
func (c *Client) get(ctx context.Context, requestURL string) ([]byte, error) {
	reauthed := false
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return nil, err
		}
		// PowerCenter expects a colon after "Bearer", not the standard
		// bearer scheme.
		req.Header.Set("Authorization", "Bearer: "+c.token)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			c.logger.Printf("stryd request failed (attempt %d/%d): %v", attempt+1, maxRetries, err)
			if err := source.Sleep(ctx, source.Backoff(attempt)); err != nil {
				return nil, err
			}
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			body, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				return nil, fmt.Errorf("reading stryd response: %w", err)
			}
			return body, nil

		case resp.StatusCode == http.StatusUnauthorized && !reauthed:
			resp.Body.Close()
			c.logger.Printf("stryd token expired, re-authenticating")
			if err := c.signin(ctx); err != nil {
				return nil, err
			}
			reauthed = true
			attempt--

		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			resp.Body.Close()
			lastErr = fmt.Errorf("stryd API returned status %d", resp.StatusCode)
			c.logger.Printf("%v, backing off", lastErr)
			if err := source.Sleep(ctx, source.Backoff(attempt)); err != nil {
				return nil, err
			}

		default:
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			return nil, fmt.Errorf("stryd API returned status %d: %s", resp.StatusCode, body)
		}
	}
	return nil, fmt.Errorf("stryd request failed after %d attempts: %w", maxRetries, lastErr)
}

// extractRecords locates the activity list inside the calendar response.
// The response may be a bare array or an object wrapping the array under
// one of several keys.
func extractRecords(body []byte) ([]map[string]any, error) {
	var asList []map[string]any
	if err := json.Unmarshal(body, &asList); err == nil {
		return asList, nil
	}

	var asObject map[string]json.RawMessage
	if err := json.Unmarshal(body, &asObject); err != nil {
		return nil, fmt.Errorf("unrecognized stryd calendar response: %w", err)
	}

	for _, key := range listKeys {
		raw, ok := asObject[key]
		if !ok {
			continue
		}
		var records []map[string]any
		if err := json.Unmarshal(raw, &records); err == nil {
			return records, nil
		}
	}

	// Last resort: scan every key in sorted order for a list of objects.
	keys := make([]string, 0, len(asObject))
	for key := range asObject {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		var records []map[string]any
		if err := json.Unmarshal(asObject[key], &records); err == nil && len(records) > 0 {
			return records, nil
		}
	}

	return nil, fmt.Errorf("no activity list found in stryd calendar response")
}

// normalize converts one raw calendar record into the shared activity
// shape. Stryd reports no social engagement and never creates manual
// entries, so kudos, comments and the manual flag are always zero.
func normalize(rec map[string]any) (activity.Activity, error) {
	id := stringField(rec, "id")
	if id == "" {
		return activity.Activity{}, fmt.Errorf("record missing id")
	}

	ts, ok := floatField(rec, "timestamp")
	if !ok {
		return activity.Activity{}, fmt.Errorf("record %s missing timestamp", id)
	}
	startDate := time.Unix(int64(ts), 0)

	distance, _ := floatField(rec, "distance")
	avgSpeed, _ := floatField(rec, "average_speed")

	elapsed := 0
	for _, key := range durationKeys {
		if v, ok := floatField(rec, key); ok && v > 0 {
			elapsed = int(v)
			break
		}
	}
	if elapsed == 0 && distance > 0 && avgSpeed > 0 {
		elapsed = int(distance / avgSpeed)
	}

	name := stringField(rec, "name")
	if name == "" {
		name = stringField(rec, "description")
	}
	activityType := stringField(rec, "type")
	if activityType == "" {
		activityType = "Run"
	}
	deviceName := stringField(rec, "device_name")
	if deviceName == "" {
		deviceName = "Stryd"
	}

	avgHR, hasHR := floatField(rec, "average_heart_rate")
	avgPower, hasPower := floatField(rec, "average_power")
	avgCadence, hasCadence := floatField(rec, "average_cadence")
	elevation, _ := floatField(rec, "total_elevation_gain")
	_, hasTemp := floatField(rec, "average_temperature")

	a := activity.Activity{
		ID:                 id,
		Name:               name,
		StartDate:          startDate,
		ElapsedTime:        elapsed,
		Distance:           distance,
		Type:               activityType,
		DeviceName:         deviceName,
		HasHeartrate:       hasHR && avgHR > 0,
		HasPower:           hasPower && avgPower > 0,
		HasCadence:         hasCadence && avgCadence > 0,
		HasTemperature:     hasTemp,
		HasMap:             boolField(rec, "has_map") || distance > 0,
		AverageSpeed:       avgSpeed,
		TotalElevationGain: elevation,
		Source:             "stryd",
	}
	if a.HasHeartrate {
		a.AverageHeartrate = &avgHR
	}
	if a.HasPower {
		a.AveragePower = &avgPower
	}
	if a.HasCadence {
		a.AverageCadence = &avgCadence
	}
	return a, nil
}

// stringField reads a field that may be encoded as a string or a number.
func stringField(rec map[string]any, key string) string {
	switch v := rec[key].(type) {
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// floatField reads a numeric field that may be encoded as a number or a
// numeric string.
func floatField(rec map[string]any, key string) (float64, bool) {
	switch v := rec[key].(type) {
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func boolField(rec map[string]any, key string) bool {
	v, ok := rec[key].(bool)
	return ok && v
}

// rawMessageString decodes a JSON value that may be a string or a number
// into its string form.
func rawMessageString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
