package pattern

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/optimode/leadscout/internal/fetch"
)

// DefaultHunterEndpoint is the hosted domain-search endpoint.
const DefaultHunterEndpoint = "https://api.hunter.io/v2/domain-search"

// HunterClient queries a Hunter-style domain-search API for the address
// pattern a company uses.
type HunterClient struct {
	Endpoint string
	APIKey   string
	Client   *http.Client
}

// NewHunterClient returns a client for the hosted endpoint.
func NewHunterClient(apiKey string) *HunterClient {
	return &HunterClient{
		Endpoint: DefaultHunterEndpoint,
		APIKey:   apiKey,
		Client:   &http.Client{Timeout: 15 * time.Second},
	}
}

type hunterResponse struct {
	Data struct {
		Pattern string `json:"pattern"`
		Emails  []struct {
			Value      string `json:"value"`
			Confidence int    `json:"confidence"`
		} `json:"emails"`
	} `json:"data"`
}

// DomainPattern implements API. A response without a pattern is reported
// as ErrNoPattern.
func (c *HunterClient) DomainPattern(ctx context.Context, domain string) (Info, error) {
	endpoint := c.Endpoint
	if endpoint == "" {
		endpoint = DefaultHunterEndpoint
	}
	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	q := url.Values{}
	q.Set("domain", domain)
	q.Set("api_key", c.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return Info{}, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return Info{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Info{}, err
	}
	if err := fetch.StatusError(resp.StatusCode, string(raw)); err != nil {
		return Info{}, err
	}

	var body hunterResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		return Info{}, fmt.Errorf("decoding domain-search response: %w", err)
	}
	if body.Data.Pattern == "" {
		return Info{}, ErrNoPattern
	}
	return Info{
		Template: body.Data.Pattern,
		Samples:  len(body.Data.Emails),
	}, nil
}
