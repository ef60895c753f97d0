package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/sony/gobreaker"

	"nordfeed/internal/resilience/circuitbreaker"
	"nordfeed/internal/resilience/retry"
)

const maxLookupBodySize = 1 * 1024 * 1024 // 1MB

// DefaultLookupBaseURL is the metadata lookup endpoint the bulletin scraper
// uses unless configured otherwise. The target page URL is appended
// query-escaped.
const DefaultLookupBaseURL = "https://og.248.no/api?url="

// PageMeta holds the OpenGraph properties the bulletin scraper needs. An
// absent property is the empty string.
type PageMeta struct {
	Title     string
	Published string
	Image     string
}

// MetaLookupClient queries a metadata lookup service that returns the
// OpenGraph properties of a page as a JSON array of property/content pairs.
type MetaLookupClient struct {
	client         *http.Client
	baseURL        string
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// NewMetaLookupClient creates a MetaLookupClient against the given base URL.
// An empty baseURL selects DefaultLookupBaseURL.
func NewMetaLookupClient(client *http.Client, baseURL string) *MetaLookupClient {
	if baseURL == "" {
		baseURL = DefaultLookupBaseURL
	}
	return &MetaLookupClient{
		client:         client,
		baseURL:        baseURL,
		circuitBreaker: circuitbreaker.New(circuitbreaker.MetaLookupConfig()),
		retryConfig:    retry.MetaLookupConfig(),
	}
}

// Lookup fetches the OpenGraph metadata of the target page URL.
func (c *MetaLookupClient) Lookup(ctx context.Context, target string) (PageMeta, error) {
	var meta PageMeta

	retryErr := retry.WithBackoff(ctx, c.retryConfig, func() error {
		cbResult, err := c.circuitBreaker.Execute(func() (interface{}, error) {
			return c.doLookup(ctx, target)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("metadata lookup circuit breaker open, request rejected",
					slog.String("service", "meta-lookup"),
					slog.String("target", target),
					slog.String("state", c.circuitBreaker.State().String()))
			}
			return err
		}
		meta = cbResult.(PageMeta)
		return nil
	})
	if retryErr != nil {
		return PageMeta{}, retryErr
	}

	return meta, nil
}

func (c *MetaLookupClient) doLookup(ctx context.Context, target string) (PageMeta, error) {
	lookupURL := c.baseURL + url.QueryEscape(target)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
	if err != nil {
		return PageMeta{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return PageMeta{}, fmt.Errorf("lookup request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return PageMeta{}, &retry.HTTPError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("unexpected status: %s", resp.Status),
		}
	}

	var properties []struct {
		Property string `json:"property"`
		Content  string `json:"content"`
	}
	body := io.LimitReader(resp.Body, maxLookupBodySize)
	if err := json.NewDecoder(body).Decode(&properties); err != nil {
		return PageMeta{}, fmt.Errorf("decode lookup response: %w", err)
	}

	var meta PageMeta
	for _, p := range properties {
		switch p.Property {
		case "og:title":
			meta.Title = p.Content
		case "article:published_time":
			meta.Published = p.Content
		case "og:image":
			meta.Image = p.Content
		}
	}
	return meta, nil
}
