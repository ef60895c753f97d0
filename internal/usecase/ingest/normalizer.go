package ingest

import (
	"fmt"
	"time"

	"nordfeed/internal/domain/entity"
)

// DisplayTimeLayout is the fixed pattern for the precomputed display time.
const DisplayTimeLayout = "2006-01-02 15:04:05"

// RawItem carries the source-specific fields a fetcher extracted for one
// candidate article, before normalization. Image is already resolved by the
// fetcher's fallback chain and may be empty.
type RawItem struct {
	// ID is the explicit source identity. When empty the item link is used,
	// which is the canonical identity for syndication items without a GUID.
	ID        string
	Title     string
	Link      string
	Published string
	Image     string
}

// Normalizer converts RawItems into canonical articles. Each source owns a
// Normalizer configured with that source's wire timestamp grammar; the
// display timezone is shared.
type Normalizer struct {
	layouts []string
	loc     *time.Location
}

// NewNormalizer creates a Normalizer accepting the given time layouts,
// rendering display strings in the named IANA timezone.
func NewNormalizer(layouts []string, timezone string) (*Normalizer, error) {
	if len(layouts) == 0 {
		return nil, fmt.Errorf("normalizer needs at least one time layout")
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	return &Normalizer{layouts: layouts, loc: loc}, nil
}

// Normalize validates the raw item and produces a canonical Article.
// Missing title, link, or published time, and unparseable timestamps all
// reject the item with a *entity.ValidationError; no partial article is ever
// produced. A missing timestamp is never defaulted to the current time.
func (n *Normalizer) Normalize(raw RawItem) (*entity.Article, error) {
	if raw.Title == "" {
		return nil, &entity.ValidationError{Field: "title", Message: "missing"}
	}
	if raw.Link == "" {
		return nil, &entity.ValidationError{Field: "link", Message: "missing"}
	}
	if raw.Published == "" {
		return nil, &entity.ValidationError{Field: "published", Message: "missing"}
	}

	publishedAt, err := n.parseTime(raw.Published)
	if err != nil {
		return nil, &entity.ValidationError{
			Field:   "published",
			Message: fmt.Sprintf("unparseable timestamp %q", raw.Published),
		}
	}

	id := raw.ID
	if id == "" {
		id = raw.Link
	}

	return &entity.Article{
		ID:                   id,
		Title:                raw.Title,
		Link:                 raw.Link,
		PublishedAt:          publishedAt.UTC(),
		FormattedPublishedAt: publishedAt.In(n.loc).Format(DisplayTimeLayout),
		Image:                raw.Image,
	}, nil
}

// Location returns the display timezone of this normalizer.
func (n *Normalizer) Location() *time.Location {
	return n.loc
}

func (n *Normalizer) parseTime(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range n.layouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
