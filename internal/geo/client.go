package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/Wrivard/demenagementboreal-sub000/pkg/redis"
)

// MAPPING PROVIDER CLIENT (geocoding + driving distance)

var (
	// ErrNoCredential means the provider key is not configured; callers fall
	// back to manual distance entry.
	ErrNoCredential = errors.New("mapping credential not configured")
	// ErrUnresolvable means one of the addresses did not geocode.
	ErrUnresolvable = errors.New("address could not be resolved")
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api/distancematrix/json"

type Result struct {
	DistanceKm int    `json:"distance"`
	Duration   string `json:"duration"`
}

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	cache      *redis.Client
	logger     *zap.Logger
}

func NewClient(apiKey string, timeout time.Duration, cache *redis.Client, logger *zap.Logger) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		cache:  cache,
		logger: logger,
	}
}

func (c *Client) HasCredential() bool {
	return c.apiKey != ""
}

// APIKey returns the raw key for the browser handoff. Acceptable only
// because the key is referrer-restricted at the provider.
func (c *Client) APIKey() string {
	return c.apiKey
}

// Ready probes the provider until it answers or the retry window closes.
func (c *Client) Ready(ctx context.Context) error {
	if !c.HasCredential() {
		return ErrNoCredential
	}

	retryPolicy := backoff.NewExponentialBackOff()
	retryPolicy.MaxElapsedTime = 10 * time.Second
	retryPolicy.MaxInterval = 2 * time.Second

	return backoff.RetryNotify(
		func() error {
			_, err := c.Distance(ctx, "Montréal, QC", "Laval, QC")
			if errors.Is(err, ErrUnresolvable) || errors.Is(err, ErrNoCredential) {
				return backoff.Permanent(err)
			}
			return err
		},
		backoff.WithContext(retryPolicy, ctx),
		func(err error, duration time.Duration) {
			c.logger.Warn("Mapping provider not ready, retrying...",
				zap.Error(err),
				zap.Duration("next_attempt_in", duration))
		},
	)
}

// Distance resolves the driving distance between two free-text addresses.
// Results are cached so repeated edits of the same pair do not re-bill.
func (c *Client) Distance(ctx context.Context, origin, destination string) (Result, error) {
	if !c.HasCredential() {
		return Result{}, ErrNoCredential
	}

	cacheKey := distanceKey(origin, destination)
	if c.cache != nil {
		var cached Result
		if err := c.cache.GetJSON(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	query := url.Values{}
	query.Set("origins", origin)
	query.Set("destinations", destination)
	query.Set("units", "metric")
	query.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var body distanceMatrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Result{}, fmt.Errorf("decode response: %w", err)
	}

	result, err := body.toResult()
	if err != nil {
		return Result{}, err
	}

	if c.cache != nil {
		if err := c.cache.SaveJSON(ctx, cacheKey, result); err != nil {
			c.logger.Warn("Failed to cache distance result",
				zap.String("key", cacheKey),
				zap.Error(err))
		}
	}
	return result, nil
}

type distanceMatrixResponse struct {
	Status string `json:"status"`
	Rows   []struct {
		Elements []struct {
			Status   string `json:"status"`
			Distance struct {
				Value int    `json:"value"` // meters
				Text  string `json:"text"`
			} `json:"distance"`
			Duration struct {
				Text string `json:"text"`
			} `json:"duration"`
		} `json:"elements"`
	} `json:"rows"`
}

func (r distanceMatrixResponse) toResult() (Result, error) {
	switch r.Status {
	case "OK":
	case "REQUEST_DENIED", "OVER_QUERY_LIMIT":
		return Result{}, fmt.Errorf("%w: provider status %s", ErrNoCredential, r.Status)
	default:
		return Result{}, fmt.Errorf("provider status %s", r.Status)
	}

	if len(r.Rows) == 0 || len(r.Rows[0].Elements) == 0 {
		return Result{}, ErrUnresolvable
	}

	element := r.Rows[0].Elements[0]
	if element.Status != "OK" {
		return Result{}, fmt.Errorf("%w: element status %s", ErrUnresolvable, element.Status)
	}

	km := (element.Distance.Value + 500) / 1000 // round to nearest km
	return Result{DistanceKm: km, Duration: element.Duration.Text}, nil
}

func distanceKey(origin, destination string) string {
	return fmt.Sprintf("distance:%s|%s",
		strings.ToLower(strings.TrimSpace(origin)),
		strings.ToLower(strings.TrimSpace(destination)))
}
