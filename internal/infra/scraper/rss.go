// Package scraper provides the source adapters: syndication feed fetching
// with gofeed and bulletin page scraping with goquery. Both adapters apply
// retry and circuit breaker logic and hand their raw items to a normalizer.
package scraper

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mmcdole/gofeed"
	"github.com/sony/gobreaker"

	"nordfeed/internal/domain/entity"
	"nordfeed/internal/resilience/circuitbreaker"
	"nordfeed/internal/resilience/retry"
	"nordfeed/internal/usecase/ingest"
)

const userAgent = "NordFeedBot/1.0"

// RSSFetcher fetches a syndication feed and normalizes its items.
type RSSFetcher struct {
	client         *http.Client
	normalizer     *ingest.Normalizer
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// NewRSSFetcher creates an RSSFetcher with the given HTTP client and
// normalizer. Circuit breaker and retry logic are configured automatically.
func NewRSSFetcher(client *http.Client, normalizer *ingest.Normalizer) *RSSFetcher {
	return &RSSFetcher{
		client:         client,
		normalizer:     normalizer,
		circuitBreaker: circuitbreaker.New(circuitbreaker.FeedFetchConfig()),
		retryConfig:    retry.FeedFetchConfig(),
	}
}

// Fetch retrieves and parses the feed at feedURL. Items failing
// normalization are dropped individually; a transport or parse failure of
// the feed itself fails the whole fetch.
func (f *RSSFetcher) Fetch(ctx context.Context, feedURL string) ([]*entity.Article, error) {
	var articles []*entity.Article

	retryErr := retry.WithBackoff(ctx, f.retryConfig, func() error {
		cbResult, err := f.circuitBreaker.Execute(func() (interface{}, error) {
			return f.doFetch(ctx, feedURL)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("feed fetch circuit breaker open, request rejected",
					slog.String("service", "feed-fetch"),
					slog.String("url", feedURL),
					slog.String("state", f.circuitBreaker.State().String()))
			}
			return err
		}
		articles = cbResult.([]*entity.Article)
		return nil
	})
	if retryErr != nil {
		return nil, retryErr
	}

	return articles, nil
}

// doFetch performs the actual feed fetch without retry or circuit breaker.
func (f *RSSFetcher) doFetch(ctx context.Context, feedURL string) ([]*entity.Article, error) {
	fp := gofeed.NewParser()
	fp.UserAgent = userAgent
	fp.Client = f.client

	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, err
	}

	articles := make([]*entity.Article, 0, len(feed.Items))
	for _, it := range feed.Items {
		// The raw published string is kept verbatim; the normalizer owns
		// the timestamp grammar and rejects anything it cannot parse.
		art, err := f.normalizer.Normalize(ingest.RawItem{
			ID:        it.GUID,
			Title:     it.Title,
			Link:      it.Link,
			Published: it.Published,
			Image:     resolveItemImage(it),
		})
		if err != nil {
			slog.Warn("dropping feed item",
				slog.String("url", feedURL),
				slog.String("link", it.Link),
				slog.Any("error", err))
			continue
		}
		articles = append(articles, art)
	}

	return articles, nil
}
