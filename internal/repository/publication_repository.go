package repository

import (
	"context"

	"nordfeed/internal/domain/entity"
)

type PublicationRepository interface {
	// Register inserts the publication if its id is not present yet.
	// Registering an existing id is a no-op, not an error.
	Register(ctx context.Context, publication *entity.Publication) error

	// Get returns the publication with the given id, or entity.ErrNotFound.
	Get(ctx context.Context, id string) (*entity.Publication, error)

	List(ctx context.Context) ([]*entity.Publication, error)
}
