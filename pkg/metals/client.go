// Package metals fetches precious-metal spot prices from a metalpriceapi-style
// endpoint. The upstream quotes inverse rates (units of metal per 1 USD), so
// the client inverts them into USD per troy ounce.
package metals

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://api.metalpriceapi.com"

// Client fetches the latest gold and silver spot prices.
type Client interface {
	Fetch(ctx context.Context) (gold, silver float64, err error)
}

// latestResponse is the body of GET /v1/latest.
type latestResponse struct {
	Success bool               `json:"success"`
	Rates   map[string]float64 `json:"rates"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a spot price client. Per-request deadlines come from the
// caller's context; the underlying client timeout is a backstop only.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Fetch returns today's gold and silver prices in USD per troy ounce, rounded
// to whole dollars. Silver may be 0 when the upstream omits it; callers decide
// how to degrade.
func (c *httpClient) Fetch(ctx context.Context) (float64, float64, error) {
	if c.apiKey == "" {
		return 0, 0, eris.New("metals: api key not configured")
	}

	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("base", "USD")
	q.Set("currencies", "XAU,XAG")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/latest?"+q.Encode(), nil)
	if err != nil {
		return 0, 0, eris.Wrap(err, "metals: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, 0, eris.Wrap(err, "metals: send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, 0, eris.Wrap(err, "metals: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return 0, 0, eris.Errorf("metals: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var out latestResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return 0, 0, eris.Wrap(err, "metals: unmarshal response")
	}
	if !out.Success {
		return 0, 0, eris.New("metals: upstream reported failure")
	}

	gold := invert(out.Rates["USDXAU"])
	silver := invert(out.Rates["USDXAG"])
	if gold == 0 {
		return 0, 0, eris.New("metals: missing USDXAU rate")
	}

	return gold, silver, nil
}

// invert converts an inverse quote (metal per USD) into whole USD per ounce.
func invert(rate float64) float64 {
	if rate <= 0 {
		return 0
	}
	return math.Round(1 / rate)
}
