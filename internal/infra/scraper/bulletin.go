package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"nordfeed/internal/domain/entity"
	"nordfeed/internal/resilience/circuitbreaker"
	"nordfeed/internal/resilience/retry"
	"nordfeed/internal/usecase/ingest"
)

const (
	maxIndexBodySize = 10 * 1024 * 1024 // 10MB

	// bulletinLinkSelector matches the anchor of each bulletin entry on the
	// index page.
	bulletinLinkSelector = ".bulletin-time a"

	// defaultLookupConcurrency bounds how many metadata lookups run at once
	// for a single index page.
	defaultLookupConcurrency = 4
)

// Bulletin ids are the last path segment of the entry URL and must carry the
// publisher's "1." prefix; anything else is not an article link.
var bulletinIDPattern = regexp.MustCompile(`^1\.`)

// BulletinScraper discovers bulletin entries on an HTML index page and
// enriches each one through a metadata lookup service. The result preserves
// the discovery order of the index page.
type BulletinScraper struct {
	client         *http.Client
	lookup         *MetaLookupClient
	normalizer     *ingest.Normalizer
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	limiter        *rate.Limiter
	concurrency    int
}

// NewBulletinScraper creates a BulletinScraper using the given HTTP client,
// lookup client, and normalizer. Lookups are rate limited and run with
// bounded concurrency.
func NewBulletinScraper(client *http.Client, lookup *MetaLookupClient, normalizer *ingest.Normalizer) *BulletinScraper {
	return &BulletinScraper{
		client:         client,
		lookup:         lookup,
		normalizer:     normalizer,
		circuitBreaker: circuitbreaker.New(circuitbreaker.PageScrapeConfig()),
		retryConfig:    retry.PageScrapeConfig(),
		limiter:        rate.NewLimiter(rate.Limit(8), defaultLookupConcurrency),
		concurrency:    defaultLookupConcurrency,
	}
}

type bulletinCandidate struct {
	id   string
	link string
}

// Fetch scrapes the index page at indexURL and returns the normalized
// articles for its bulletin entries, in discovery order. A failure to fetch
// the index fails the whole call; a failure to enrich or normalize a single
// entry drops only that entry.
func (b *BulletinScraper) Fetch(ctx context.Context, indexURL string) ([]*entity.Article, error) {
	var candidates []bulletinCandidate

	retryErr := retry.WithBackoff(ctx, b.retryConfig, func() error {
		cbResult, err := b.circuitBreaker.Execute(func() (interface{}, error) {
			return b.discover(ctx, indexURL)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("bulletin scrape circuit breaker open, request rejected",
					slog.String("service", "page-scrape"),
					slog.String("url", indexURL),
					slog.String("state", b.circuitBreaker.State().String()))
			}
			return err
		}
		candidates = cbResult.([]bulletinCandidate)
		return nil
	})
	if retryErr != nil {
		return nil, retryErr
	}

	return b.enrich(ctx, candidates)
}

// discover fetches the index page and extracts the bulletin candidates in
// document order. Links whose last path segment is not a bulletin id are
// skipped; relative hrefs are resolved against the index URL.
func (b *BulletinScraper) discover(ctx context.Context, indexURL string) ([]bulletinCandidate, error) {
	base, err := url.Parse(indexURL)
	if err != nil {
		return nil, fmt.Errorf("parse index URL: %w", err)
	}

	doc, err := b.fetchIndex(ctx, indexURL)
	if err != nil {
		return nil, err
	}

	candidates := make([]bulletinCandidate, 0, 32)
	seen := make(map[string]struct{})
	doc.Find(bulletinLinkSelector).Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		resolved := base.ResolveReference(ref)

		id := lastPathSegment(resolved.Path)
		if !bulletinIDPattern.MatchString(id) {
			return
		}
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		candidates = append(candidates, bulletinCandidate{id: id, link: resolved.String()})
	})

	return candidates, nil
}

// enrich looks up the metadata for every candidate with bounded concurrency
// and normalizes the results. Each worker writes to its own index of the
// result slice, so the output keeps discovery order regardless of lookup
// completion order.
func (b *BulletinScraper) enrich(ctx context.Context, candidates []bulletinCandidate) ([]*entity.Article, error) {
	results := make([]*entity.Article, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for i, cand := range candidates {
		i, cand := i, cand
		g.Go(func() error {
			if err := b.limiter.Wait(gctx); err != nil {
				return err
			}

			meta, err := b.lookup.Lookup(gctx, cand.link)
			if err != nil {
				// A dead lookup for one entry does not fail the page.
				slog.Warn("skipping bulletin entry, metadata lookup failed",
					slog.String("id", cand.id),
					slog.String("link", cand.link),
					slog.Any("error", err))
				return nil
			}

			art, err := b.normalizer.Normalize(ingest.RawItem{
				ID:        cand.id,
				Title:     meta.Title,
				Link:      cand.link,
				Published: meta.Published,
				Image:     meta.Image,
			})
			if err != nil {
				slog.Warn("dropping bulletin entry",
					slog.String("id", cand.id),
					slog.String("link", cand.link),
					slog.Any("error", err))
				return nil
			}

			results[i] = art
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	articles := make([]*entity.Article, 0, len(results))
	for _, art := range results {
		if art != nil {
			articles = append(articles, art)
		}
	}
	return articles, nil
}

// fetchIndex fetches and parses the HTML index page.
func (b *BulletinScraper) fetchIndex(ctx context.Context, indexURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, indexURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &retry.HTTPError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("unexpected status: %s", resp.Status),
		}
	}

	limitedReader := io.LimitReader(resp.Body, maxIndexBodySize)
	doc, err := goquery.NewDocumentFromReader(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}
	return doc, nil
}

func lastPathSegment(path string) string {
	trimmed := strings.TrimSuffix(path, "/")
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		return trimmed[idx+1:]
	}
	return trimmed
}
