// Package strava fetches activities from the Strava REST API and
// normalizes them into the shared activity shape.
package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/jrowe/fitdedup/internal/activity"
	"github.com/jrowe/fitdedup/internal/source"
)

const (
	defaultBaseURL = "https://www.strava.com/api/v3"
	perPage        = 30
	maxRetries     = 3
)

// Client is an authenticated Strava API client.
type Client struct {
	accessToken string
	baseURL     string
	httpClient  *http.Client

	// limiter keeps well under Strava's 100-requests-per-15-minutes
	// quota; pagination never needs to go faster than this.
	limiter *rate.Limiter

	logger *log.Logger
}

// NewClient creates a client using the given access token.
func NewClient(accessToken string) *Client {
	return &Client{
		accessToken: accessToken,
		baseURL:     defaultBaseURL,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		limiter:     rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
		logger:      log.New(io.Discard, "", 0),
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
func (c *Client) Name() string { return "strava" }

// ActivityURL implements source.Source.
func (c *Client) ActivityURL(id string) string {
	return "https://www.strava.com/activities/" + id
}

// apiActivity is the subset of the Strava activity schema the tool needs.
type apiActivity struct {
	ID                 int64      `json:"id"`
	Name               string     `json:"name"`
	StartDateLocal     string     `json:"start_date_local"`
	ElapsedTime        int        `json:"elapsed_time"`
	Distance           float64    `json:"distance"`
	Type               string     `json:"type"`
	DeviceName         string     `json:"device_name"`
	HasHeartrate       bool       `json:"has_heartrate"`
	DeviceWatts        bool       `json:"device_watts"`
	HasCadence         bool       `json:"has_cadence"`
	AverageTemp        *float64   `json:"average_temp"`
	StartLatLng        []float64  `json:"start_latlng"`
	Map                *apiMap    `json:"map"`
	AverageHeartrate   *float64   `json:"average_heartrate"`
	AverageWatts       *float64   `json:"average_watts"`
	AverageCadence     *float64   `json:"average_cadence"`
	AverageSpeed       float64    `json:"average_speed"`
	TotalElevationGain float64    `json:"total_elevation_gain"`
	KudosCount         int        `json:"kudos_count"`
	CommentCount       int        `json:"comment_count"`
	Manual             bool       `json:"manual"`
}

type apiMap struct {
	Polyline        string `json:"polyline"`
	SummaryPolyline string `json:"summary_polyline"`
}

// Activities fetches every activity in [from, to], paginating until the
// API returns a short page. Records that fail to normalize are skipped
// with a diagnostic rather than failing the whole fetch.
func (c *Client) Activities(ctx context.Context, from, to time.Time) ([]activity.Activity, error) {
	var activities []activity.Activity

	params := url.Values{}
	params.Set("per_page", strconv.Itoa(perPage))
	if !from.IsZero() {
		params.Set("after", strconv.FormatInt(from.Unix(), 10))
	}
	if !to.IsZero() {
		params.Set("before", strconv.FormatInt(to.Unix(), 10))
	}

	for page := 1; ; page++ {
		params.Set("page", strconv.Itoa(page))

		var batch []apiActivity
		if err := c.get(ctx, "/athlete/activities", params, &batch); err != nil {
			return nil, fmt.Errorf("fetching activities page %d: %w", page, err)
		}
		if len(batch) == 0 {
			break
		}

		for _, raw := range batch {
			a, err := normalize(raw, false)
			if err != nil {
				c.logger.Printf("skipping activity %d: %v", raw.ID, err)
				continue
			}
			activities = append(activities, a)
		}

		if len(batch) < perPage {
			break
		}
	}

	return activities, nil
}

// Activity fetches one activity with its detail fields (the list endpoint
// omits temperature and the full map).
func (c *Client) Activity(ctx context.Context, id string) (*activity.Activity, error) {
	var raw apiActivity
	if err := c.get(ctx, "/activities/"+url.PathEscape(id), nil, &raw); err != nil {
		return nil, fmt.Errorf("fetching activity %s: %w", id, err)
	}
	a, err := normalize(raw, true)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// get performs one API request with rate limiting and retries. A 429
// response is retried after the quota window resets when the API says
// when that is; other retryable failures back off exponentially.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, dest any) error {
	requestURL := c.baseURL + endpoint
	if len(params) > 0 {
		requestURL += "?" + params.Encode()
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.accessToken)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			c.logger.Printf("request failed (attempt %d/%d): %v", attempt+1, maxRetries, err)
			if err := source.Sleep(ctx, source.Backoff(attempt)); err != nil {
				return err
			}
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			wait := rateLimitWait(resp.Header.Get("X-RateLimit-Reset"))
			resp.Body.Close()
			c.logger.Printf("rate limit exceeded, waiting %v", wait)
			if err := source.Sleep(ctx, wait); err != nil {
				return err
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			lastErr = fmt.Errorf("API returned status %d: %s", resp.StatusCode, body)
			if resp.StatusCode >= 500 {
				if err := source.Sleep(ctx, source.Backoff(attempt)); err != nil {
					return err
				}
				continue
			}
			return lastErr
		}

		err = json.NewDecoder(resp.Body).Decode(dest)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil
	}

	return fmt.Errorf("request failed after %d attempts: %w", maxRetries, lastErr)
}

// normalize converts a raw API record into the shared activity shape.
// detail selects the richer parsing used for the single-activity endpoint.
func normalize(raw apiActivity, detail bool) (activity.Activity, error) {
	startDate, err := time.Parse(time.RFC3339, raw.StartDateLocal)
	if err != nil {
		return activity.Activity{}, fmt.Errorf("invalid start date %q: %w", raw.StartDateLocal, err)
	}

	deviceName := raw.DeviceName
	if deviceName == "" {
		deviceName = "Unknown"
	}
	activityType := raw.Type
	if activityType == "" {
		activityType = "Unknown"
	}

	hasMap := !raw.Manual && len(raw.StartLatLng) > 0
	if detail {
		hasMap = !raw.Manual && (len(raw.StartLatLng) > 0 || (raw.Map != nil && raw.Map.Polyline != ""))
	}

	// The list endpoint never reports temperature; only the detail view
	// carries average_temp.
	hasTemperature := detail && raw.AverageTemp != nil

	return activity.Activity{
		ID:                 strconv.FormatInt(raw.ID, 10),
		Name:               raw.Name,
		StartDate:          startDate,
		ElapsedTime:        raw.ElapsedTime,
		Distance:           raw.Distance,
		Type:               activityType,
		DeviceName:         deviceName,
		HasHeartrate:       raw.HasHeartrate,
		HasPower:           raw.DeviceWatts,
		HasCadence:         raw.HasCadence,
		HasTemperature:     hasTemperature,
		HasMap:             hasMap,
		AverageHeartrate:   raw.AverageHeartrate,
		AveragePower:       raw.AverageWatts,
		AverageCadence:     raw.AverageCadence,
		AverageSpeed:       raw.AverageSpeed,
		TotalElevationGain: raw.TotalElevationGain,
		KudosCount:         raw.KudosCount,
		CommentCount:       raw.CommentCount,
		Manual:             raw.Manual,
		Source:             "strava",
	}, nil
}

// rateLimitWait derives how long to wait from the X-RateLimit-Reset
// header, falling back to a minute when the header is absent or bogus.
func rateLimitWait(resetHeader string) time.Duration {
	reset, err := strconv.ParseInt(resetHeader, 10, 64)
	if err != nil {
		return time.Minute
	}
	wait := time.Until(time.Unix(reset, 0))
	if wait < time.Second {
		wait = time.Second
	}
	return wait
}
