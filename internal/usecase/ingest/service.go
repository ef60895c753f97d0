package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"nordfeed/internal/domain/entity"
	"nordfeed/internal/repository"
)

// SourceFetcher produces the normalized articles for one source URL.
// Implementations are stateless and re-entrant; the scheduler may invoke
// fetchers for different sources concurrently.
type SourceFetcher interface {
	Fetch(ctx context.Context, sourceURL string) ([]*entity.Article, error)
}

// HarvestStats contains the outcome of one source tick.
type HarvestStats struct {
	Source     string
	Fetched    int
	Inserted   int
	Duplicated int
	Duration   time.Duration
}

// Service orchestrates harvesting: it routes each source to its fetcher and
// feeds the returned articles into the deduplicating store. The store is the
// single source of truth for "already seen"; the service itself keeps no
// state between ticks.
type Service struct {
	Publications repository.PublicationRepository
	Articles     repository.ArticleRepository
	Fetchers     map[string]SourceFetcher
	Sources      []Source
}

// NewService creates an ingest Service with the given dependencies.
func NewService(
	publications repository.PublicationRepository,
	articles repository.ArticleRepository,
	fetchers map[string]SourceFetcher,
	sources []Source,
) Service {
	return Service{
		Publications: publications,
		Articles:     articles,
		Fetchers:     fetchers,
		Sources:      sources,
	}
}

// RegisterPublications registers every source's publication. Publications
// must exist before any article referencing them is inserted; this runs once
// at startup, before the scheduler starts. Re-registering an existing id is
// a no-op.
func (s *Service) RegisterPublications(ctx context.Context) error {
	for _, src := range s.Sources {
		pub := src.Publication
		if err := pub.Validate(); err != nil {
			return fmt.Errorf("seed publication %q: %w", pub.ID, err)
		}
		if err := s.Publications.Register(ctx, &pub); err != nil {
			return fmt.Errorf("register publication %q: %w", pub.ID, err)
		}
	}
	return nil
}

// HarvestSource runs one tick for a single source: fetch, then store each
// returned article with the idempotent insert. A fetch failure is the tick's
// failure and is returned to the caller; the next scheduled tick retries
// naturally. Duplicate articles count as success. A referential failure
// (unknown publication) or a storage failure aborts the tick and is
// surfaced.
func (s *Service) HarvestSource(ctx context.Context, src Source) (*HarvestStats, error) {
	start := time.Now()
	stats := &HarvestStats{Source: src.Publication.ID}

	fetcher, ok := s.Fetchers[src.Type]
	if !ok {
		return stats, fmt.Errorf("%w: %q", ErrUnknownSourceType, src.Type)
	}

	articles, err := fetcher.Fetch(ctx, src.URL)
	if err != nil {
		return stats, fmt.Errorf("source %q: %w: %w", src.Publication.ID, ErrSourceUnavailable, err)
	}
	stats.Fetched = len(articles)

	for _, art := range articles {
		art.PublicationID = src.Publication.ID
		inserted, err := s.Articles.Add(ctx, art, src.Publication.ID)
		if err != nil {
			return stats, fmt.Errorf("store article %q: %w", art.ID, err)
		}
		if inserted {
			stats.Inserted++
		} else {
			stats.Duplicated++
		}
	}

	stats.Duration = time.Since(start)
	slog.Info("source harvest completed",
		slog.String("source", src.Publication.ID),
		slog.Int("fetched", stats.Fetched),
		slog.Int("inserted", stats.Inserted),
		slog.Int("duplicated", stats.Duplicated),
		slog.Duration("duration", stats.Duration),
	)

	return stats, nil
}

// HarvestAll runs one tick for every source, skip-and-continue per source: a
// failing source is logged and does not prevent the remaining sources from
// being harvested. Returned stats cover the sources that produced them,
// including partially-filled stats from failed ticks.
func (s *Service) HarvestAll(ctx context.Context) []*HarvestStats {
	all := make([]*HarvestStats, 0, len(s.Sources))
	for _, src := range s.Sources {
		stats, err := s.HarvestSource(ctx, src)
		if err != nil {
			slog.Warn("source harvest failed",
				slog.String("source", src.Publication.ID),
				slog.String("url", src.URL),
				slog.Any("error", err))
		}
		all = append(all, stats)
	}
	return all
}
