package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"nordfeed/internal/domain/entity"
	"nordfeed/internal/repository"
)

type PublicationRepo struct {
	db *sql.DB
}

func NewPublicationRepo(db *sql.DB) repository.PublicationRepository {
	return &PublicationRepo{db: db}
}

// Register inserts the publication if its id is not already present.
// The seed publications are registered on every startup, so reinsertion
// must be a no-op.
func (repo *PublicationRepo) Register(ctx context.Context, pub *entity.Publication) error {
	const query = `
INSERT INTO publications (id, name, url)
VALUES ($1, $2, $3)
ON CONFLICT (id) DO NOTHING`
	if _, err := repo.db.ExecContext(ctx, query, pub.ID, pub.Name, pub.URL); err != nil {
		return fmt.Errorf("Register %q: %w", pub.ID, err)
	}
	return nil
}

func (repo *PublicationRepo) Get(ctx context.Context, id string) (*entity.Publication, error) {
	const query = `SELECT id, name, url FROM publications WHERE id = $1`
	var pub entity.Publication
	err := repo.db.QueryRowContext(ctx, query, id).Scan(&pub.ID, &pub.Name, &pub.URL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("Get %q: %w", id, entity.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("Get %q: %w", id, err)
	}
	return &pub, nil
}

func (repo *PublicationRepo) List(ctx context.Context) ([]*entity.Publication, error) {
	const query = `SELECT id, name, url FROM publications ORDER BY id`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer func() { _ = rows.Close() }()

	publications := make([]*entity.Publication, 0, 8)
	for rows.Next() {
		var pub entity.Publication
		if err := rows.Scan(&pub.ID, &pub.Name, &pub.URL); err != nil {
			return nil, fmt.Errorf("List: Scan: %w", err)
		}
		publications = append(publications, &pub)
	}
	return publications, rows.Err()
}
