// Package entity defines the core domain entities and validation logic for the
// application. It contains the fundamental business objects, Article and
// Publication, along with their validation rules and domain-specific errors.
package entity

import "time"

// Article represents one harvested news item in its canonical form.
// Articles are immutable once stored: the ingestion pipeline creates them,
// and there is no update or delete path.
type Article struct {
	// ID is globally unique per source item. For the syndication source it is
	// the feed GUID (falling back to the item link), for the scraped source it
	// is the last path segment of the item URL.
	ID            string
	PublicationID string
	Title         string
	Link          string
	// PublishedAt is the absolute publication instant in UTC.
	PublishedAt time.Time
	// FormattedPublishedAt is the display string derived from PublishedAt in
	// the configured local timezone, precomputed at ingestion time.
	FormattedPublishedAt string
	// Image is the resolved image URL, empty when no image could be found.
	Image string
}

// Validate checks that all required Article fields are present.
// An article missing any of them must never reach the store.
func (a *Article) Validate() error {
	if a.ID == "" {
		return &ValidationError{Field: "id", Message: "must not be empty"}
	}
	if a.Title == "" {
		return &ValidationError{Field: "title", Message: "must not be empty"}
	}
	if a.Link == "" {
		return &ValidationError{Field: "link", Message: "must not be empty"}
	}
	if a.PublishedAt.IsZero() {
		return &ValidationError{Field: "published_at", Message: "must not be zero"}
	}
	return nil
}
