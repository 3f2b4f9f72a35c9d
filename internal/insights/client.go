package insights

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/idtoken"
)

// ErrUpstreamUnavailable wraps every failure talking to the ML service.
// Callers are expected to fall back to the local path.
var ErrUpstreamUnavailable = errors.New("insights upstream unavailable")

// ForecastPoint is one predicted day.
type ForecastPoint struct {
	Date             string  `json:"date"`
	PredictedBalance float64 `json:"predicted_balance"`
}

// Quest is a recommended activity.
type Quest struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// Client calls the forecasting and recommendation endpoints of the ML service.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient returns a client for baseURL using plain HTTP.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// NewIDTokenClient mints Google ID tokens for audience on every call, for
// service-to-service calls into Cloud Run. An empty audience means baseURL.
func NewIDTokenClient(ctx context.Context, baseURL, audience string, timeout time.Duration) (*Client, error) {
	if audience == "" {
		audience = strings.TrimRight(baseURL, "/")
	}
	httpClient, err := idtoken.NewClient(ctx, audience)
	if err != nil {
		return nil, fmt.Errorf("idtoken client: %w", err)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	httpClient.Timeout = timeout
	return &Client{httpClient: httpClient, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Forecast asks the ML service for the next week of wellness balance.
func (c *Client) Forecast(ctx context.Context, userID string) ([]ForecastPoint, error) {
	var out []ForecastPoint
	body := map[string]string{"user_id": userID}
	if err := c.post(ctx, "/forecast", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Recommendations asks the ML service for quests targeting the weakest gem.
func (c *Client) Recommendations(ctx context.Context, userID, weakestGem string) ([]Quest, error) {
	var out []Quest
	body := map[string]string{"user_id": userID, "weakest_gem": weakestGem}
	if err := c.post(ctx, "/recommendations", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: build %s request: %v", ErrUpstreamUnavailable, path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUpstreamUnavailable, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s status %d", ErrUpstreamUnavailable, path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", ErrUpstreamUnavailable, path, err)
	}
	return nil
}
