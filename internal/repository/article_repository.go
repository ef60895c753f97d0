// Package repository defines the persistence interfaces the ingestion
// pipeline depends on. Concrete implementations live under
// internal/infra/adapter/persistence.
package repository

import (
	"context"

	"nordfeed/internal/domain/entity"
)

type ArticleRepository interface {
	// Add inserts the article if no article with the same id exists yet.
	// Returns (true, nil) when the article was inserted and (false, nil)
	// when an article with that id was already present; the duplicate case
	// is defined success, not an error. The check-then-insert is atomic per
	// article id, so concurrent ticks racing on the same id cannot produce
	// two rows. Returns entity.ErrPublicationNotFound when publicationID is
	// not registered.
	Add(ctx context.Context, article *entity.Article, publicationID string) (bool, error)

	// ExistsByID reports whether an article with the given id is stored.
	ExistsByID(ctx context.Context, id string) (bool, error)

	// ListByPublication returns all stored articles for the publication,
	// unordered. Date filtering and sorting are consumer concerns.
	ListByPublication(ctx context.Context, publicationID string) ([]*entity.Article, error)
}
