package whoop

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/jose/sera/backend/pkg/config"
	"github.com/jose/sera/backend/pkg/httputil"
	"github.com/jose/sera/backend/pkg/logger"
)

// TokenSource supplies a bearer token for API calls.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// Client talks to the WHOOP developer v2 API.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	tokens     TokenSource
	limiter    *rate.Limiter
	baseURL    string
}

// NewClient creates a WHOOP API client.
func NewClient(cfg *config.Config, tokens TokenSource, log *logger.Logger) *Client {
	return &Client{
		httpClient: httputil.New(cfg, log),
		logger:     log,
		tokens:     tokens,
		limiter:    rate.NewLimiter(rate.Limit(cfg.Whoop.RateLimit), 1),
		baseURL:    cfg.Whoop.APIBase,
	}
}

// GetRecoveries fetches recovery records in the [start, end) window.
func (c *Client) GetRecoveries(ctx context.Context, start, end time.Time) ([]Recovery, error) {
	raws, err := c.getCollection(ctx, "/v2/recovery", start, end)
	if err != nil {
		return nil, err
	}

	records := make([]Recovery, 0, len(raws))
	for _, raw := range raws {
		var rec Recovery
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decode recovery record: %w", err)
		}
		rec.Raw = raw
		records = append(records, rec)
	}
	return records, nil
}

// GetSleeps fetches sleep activities in the [start, end) window.
func (c *Client) GetSleeps(ctx context.Context, start, end time.Time) ([]Sleep, error) {
	raws, err := c.getCollection(ctx, "/v2/activity/sleep", start, end)
	if err != nil {
		return nil, err
	}

	records := make([]Sleep, 0, len(raws))
	for _, raw := range raws {
		var rec Sleep
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decode sleep record: %w", err)
		}
		rec.Raw = raw
		records = append(records, rec)
	}
	return records, nil
}

// GetCycles fetches physiological cycles in the [start, end) window.
func (c *Client) GetCycles(ctx context.Context, start, end time.Time) ([]Cycle, error) {
	raws, err := c.getCollection(ctx, "/v2/cycle", start, end)
	if err != nil {
		return nil, err
	}

	records := make([]Cycle, 0, len(raws))
	for _, raw := range raws {
		var rec Cycle
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decode cycle record: %w", err)
		}
		rec.Raw = raw
		records = append(records, rec)
	}
	return records, nil
}

// GetWorkouts fetches workout activities in the [start, end) window.
func (c *Client) GetWorkouts(ctx context.Context, start, end time.Time) ([]Workout, error) {
	raws, err := c.getCollection(ctx, "/v2/activity/workout", start, end)
	if err != nil {
		return nil, err
	}

	records := make([]Workout, 0, len(raws))
	for _, raw := range raws {
		var rec Workout
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decode workout record: %w", err)
		}
		rec.Raw = raw
		records = append(records, rec)
	}
	return records, nil
}

// getCollection pages through a collection endpoint and returns the raw
// records. Every call honors the rate limiter.
func (c *Client) getCollection(ctx context.Context, path string, start, end time.Time) ([]json.RawMessage, error) {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve access token: %w", err)
	}

	headers := map[string]string{
		"Authorization": "Bearer " + token,
		"Accept":        "application/json",
	}

	var records []json.RawMessage
	nextToken := ""

	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		params := url.Values{}
		params.Set("start", start.UTC().Format(time.RFC3339))
		params.Set("end", end.UTC().Format(time.RFC3339))
		params.Set("limit", "25")
		if nextToken != "" {
			params.Set("nextToken", nextToken)
		}

		reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
		resp, err := c.httpClient.GetWithHeaders(ctx, reqURL, headers)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", path, err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s response: %w", path, err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("WHOOP API %s returned status %d: %s", path, resp.StatusCode, string(body))
		}

		var page collectionResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("decode %s response: %w", path, err)
		}
		records = append(records, page.Records...)

		if page.NextToken == nil || *page.NextToken == "" {
			break
		}
		nextToken = *page.NextToken
	}

	c.logger.WithFields(map[string]interface{}{
		"path":    path,
		"records": len(records),
	}).Debug("WHOOP collection fetched")

	return records, nil
}
