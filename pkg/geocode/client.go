// Package geocode resolves street addresses to coordinates using the US
// Census Bureau geocoding API, which requires no API key. Sites given by
// address instead of latitude/longitude are resolved through it before
// analysis.
package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sunward-group/rooftop-cli/internal/resilience"
)

const (
	defaultBaseURL = "https://geocoding.geo.census.gov/geocoder/locations/onelineaddress"
	benchmark      = "Public_AR_Current"
)

// Result is a resolved coordinate pair for an address.
type Result struct {
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	MatchedAddress string  `json:"matched_address"`
	Matched        bool    `json:"matched"`
}

// Client resolves addresses to coordinates.
type Client interface {
	Geocode(ctx context.Context, address string) (*Result, error)
}

type censusClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      resilience.Policy
}

// Option configures the client.
type Option func(*censusClient)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(u string) Option {
	return func(c *censusClient) { c.baseURL = u }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *censusClient) { c.httpClient = hc }
}

// WithRateLimit sets the request rate in requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *censusClient) { c.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// NewClient creates a Census geocoding client.
func NewClient(opts ...Option) Client {
	c := &censusClient{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(2), 1),
		retry:      resilience.DefaultPolicy(),
	}
	c.retry.OnRetry = resilience.Logger("census", "geocode")
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type censusResponse struct {
	Result struct {
		AddressMatches []struct {
			Coordinates struct {
				X float64 `json:"x"` // longitude
				Y float64 `json:"y"` // latitude
			} `json:"coordinates"`
			MatchedAddress string `json:"matchedAddress"`
		} `json:"addressMatches"`
	} `json:"result"`
}

func (c *censusClient) Geocode(ctx context.Context, address string) (*Result, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, eris.New("geocode: empty address")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: rate limit")
	}

	body, err := resilience.Do(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
		return c.fetch(ctx, address)
	})
	if err != nil {
		return nil, err
	}

	var resp censusResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, eris.Wrap(err, "geocode: parse response")
	}

	if len(resp.Result.AddressMatches) == 0 {
		zap.L().Debug("geocode: no match", zap.String("address", address))
		return &Result{Matched: false}, nil
	}

	match := resp.Result.AddressMatches[0]
	return &Result{
		Latitude:       match.Coordinates.Y,
		Longitude:      match.Coordinates.X,
		MatchedAddress: match.MatchedAddress,
		Matched:        true,
	}, nil
}

func (c *censusClient) fetch(ctx context.Context, address string) ([]byte, error) {
	params := url.Values{
		"address":   {address},
		"benchmark": {benchmark},
		"format":    {"json"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: build request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("geocode: status %d", resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: read body")
	}
	return body, nil
}
