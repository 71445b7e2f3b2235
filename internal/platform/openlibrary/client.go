// Package openlibrary looks up supplementary book metadata (cover,
// description, rating) on the Open Library API. Lookups are strictly
// best-effort: every failure degrades to an absent field, never to an
// error surfaced to the caller.
package openlibrary

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"path"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL   = "https://openlibrary.org"
	DefaultCoversURL = "https://covers.openlibrary.org/b"
)

// Enrichment holds the metadata found for a title. Nil fields mean the
// lookup found nothing for that field.
type Enrichment struct {
	CoverURL    *string
	Description *string
	Rating      *float64
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	coversURL  string
	userAgent  string
	limiter    *rate.Limiter
	maxRetries int

	mu   sync.Mutex
	memo map[string]workMeta
}

// NewClient creates an Open Library client. Empty baseURL/coversURL
// fall back to the public API endpoints.
func NewClient(baseURL, coversURL, userAgent string, rps float64, maxRetries int) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if coversURL == "" {
		coversURL = DefaultCoversURL
	}
	if rps <= 0 {
		rps = 1
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:    baseURL,
		coversURL:  coversURL,
		userAgent:  userAgent,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		maxRetries: maxRetries,
		memo:       make(map[string]workMeta),
	}
}

// Enrich looks up cover, description and rating for a title. Each step
// of the pipeline is independently best-effort; a failure or absence in
// one leaves that field nil without aborting the others.
func (c *Client) Enrich(ctx context.Context, title string) Enrichment {
	doc, err := c.searchBook(ctx, title)
	if err != nil {
		log.Printf("openlibrary: search %q failed: %v", title, err)
		return Enrichment{}
	}
	if doc == nil {
		return Enrichment{}
	}

	var e Enrichment
	if doc.Key != "" {
		meta := c.workMetadata(ctx, doc.Key)
		if meta.Description != "" {
			e.Description = &meta.Description
		}
		if meta.HasRating {
			rating := meta.Rating
			e.Rating = &rating
		}
	}

	// Two cover resolution paths, first success wins: a numeric cover
	// id on the search hit needs no further request; otherwise probe
	// the covers endpoint with the first edition key.
	if doc.CoverID != 0 {
		coverURL := fmt.Sprintf("%s/id/%d-M.jpg", c.coversURL, doc.CoverID)
		e.CoverURL = &coverURL
	} else if len(doc.EditionKeys) > 0 {
		if coverURL, ok := c.probeCover(ctx, doc.EditionKeys[0]); ok {
			e.CoverURL = &coverURL
		}
	}
	return e
}

// searchDoc matches the docs entries of search.json.
type searchDoc struct {
	Key         string   `json:"key"`
	Title       string   `json:"title"`
	CoverID     int      `json:"cover_i"`
	EditionKeys []string `json:"edition_key"`
}

type searchResponse struct {
	NumFound int         `json:"numFound"`
	Docs     []searchDoc `json:"docs"`
}

func (c *Client) searchBook(ctx context.Context, title string) (*searchDoc, error) {
	u := fmt.Sprintf("%s/search.json?q=%s&limit=1", c.baseURL, url.QueryEscape("title:"+title))

	var res searchResponse
	if err := c.get(ctx, u, &res); err != nil {
		return nil, err
	}
	if res.NumFound == 0 || len(res.Docs) == 0 {
		return nil, nil
	}
	return &res.Docs[0], nil
}

// workMeta is the per-work part of an enrichment (description and
// rating), memoized by work key.
type workMeta struct {
	Description string
	Rating      float64
	HasRating   bool
}

func (c *Client) workMetadata(ctx context.Context, workKey string) workMeta {
	c.mu.Lock()
	if meta, ok := c.memo[workKey]; ok {
		c.mu.Unlock()
		return meta
	}
	c.mu.Unlock()

	var meta workMeta
	meta.Description = c.fetchDescription(ctx, workKey)
	if rating, ok := c.fetchRating(ctx, workKey); ok {
		meta.Rating = rating
		meta.HasRating = true
	}

	c.mu.Lock()
	c.memo[workKey] = meta
	c.mu.Unlock()
	return meta
}

type editionsResponse struct {
	Entries []struct {
		Description any `json:"description"`
	} `json:"entries"`
}

// fetchDescription walks the work's editions and returns the first
// plain-text description. Descriptions come back either as a bare
// string or as a {type, value} object.
func (c *Client) fetchDescription(ctx context.Context, workKey string) string {
	u := fmt.Sprintf("%s%s/editions.json", c.baseURL, workKey)

	var res editionsResponse
	if err := c.get(ctx, u, &res); err != nil {
		log.Printf("openlibrary: editions lookup for %s failed: %v", workKey, err)
		return ""
	}

	for _, entry := range res.Entries {
		switch v := entry.Description.(type) {
		case string:
			if v != "" {
				return v
			}
		case map[string]any:
			if v["type"] == "/type/text" {
				if value, ok := v["value"].(string); ok && value != "" {
					return value
				}
			}
		}
	}
	return ""
}

type ratingsResponse struct {
	Summary struct {
		Average *float64 `json:"average"`
	} `json:"summary"`
}

func (c *Client) fetchRating(ctx context.Context, workKey string) (float64, bool) {
	workID := path.Base(workKey)
	u := fmt.Sprintf("%s/works/%s/ratings.json", c.baseURL, workID)

	var res ratingsResponse
	if err := c.get(ctx, u, &res); err != nil {
		log.Printf("openlibrary: ratings lookup for %s failed: %v", workKey, err)
		return 0, false
	}
	if res.Summary.Average == nil {
		return 0, false
	}
	return *res.Summary.Average, true
}

// probeCover checks whether a cover exists for an edition OLID and
// returns its URL when the covers endpoint answers 200.
func (c *Client) probeCover(ctx context.Context, editionKey string) (string, bool) {
	olid := path.Base(editionKey)
	if olid == "" || olid == "." {
		return "", false
	}
	coverURL := fmt.Sprintf("%s/OLID/%s-M.jpg", c.coversURL, olid)

	if err := c.limiter.Wait(ctx); err != nil {
		return "", false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, coverURL, nil)
	if err != nil {
		return "", false
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("openlibrary: cover probe for %s failed: %v", olid, err)
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", false
	}
	return coverURL, true
}

func (c *Client) get(ctx context.Context, url string, target any) error {
	var lastErr error
	for i := 0; i <= c.maxRetries; i++ {
		if i > 0 {
			// Backoff: 1s, 2s, 4s...
			backoff := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				lastErr = fmt.Errorf("unexpected status code: %d", resp.StatusCode)
				continue
			}
			return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}

		err = json.NewDecoder(resp.Body).Decode(target)
		resp.Body.Close()
		return err
	}
	return fmt.Errorf("after %d retries: %w", c.maxRetries, lastErr)
}
