// Package search discovers candidate contacts at a company by querying an
// external search surface and parsing the returned listings into
// Candidate records.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/optimode/leadscout/internal/fetch"
)

// Listing is one search result: best-effort display text plus an optional
// source URL. No richer schema is guaranteed.
type Listing struct {
	Text string
	URL  string
}

// Searcher is the external search collaborator. Each call issues a fresh
// query; implementations are not expected to paginate or resume.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]Listing, error)
}

// HTTPSearcher queries a JSON SERP-proxy endpoint of the form
// GET {endpoint}?q=...&num=...  returning {"results":[{"title","snippet","url"}]}.
type HTTPSearcher struct {
	Endpoint string
	APIKey   string // sent as X-Api-Key when set
	Client   *http.Client
}

type serpResponse struct {
	Results []struct {
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
		URL     string `json:"url"`
	} `json:"results"`
}

// Search implements Searcher over the SERP-proxy endpoint.
func (s *HTTPSearcher) Search(ctx context.Context, query string, limit int) ([]Listing, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	u, err := url.Parse(s.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("search endpoint: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	if limit > 0 {
		q.Set("num", strconv.Itoa(limit))
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	if s.APIKey != "" {
		req.Header.Set("X-Api-Key", s.APIKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if err := fetch.StatusError(resp.StatusCode, string(body)); err != nil {
		return nil, err
	}

	var parsed serpResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	listings := make([]Listing, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		text := r.Title
		if r.Snippet != "" {
			if text != "" {
				text += " - "
			}
			text += r.Snippet
		}
		listings = append(listings, Listing{Text: text, URL: r.URL})
	}
	return listings, nil
}
