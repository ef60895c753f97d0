package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"nordfeed/internal/domain/entity"
	"nordfeed/internal/repository"
)

// PostgreSQL error code for foreign key violations.
const foreignKeyViolation = "23503"

type ArticleRepo struct {
	db *sql.DB
}

func NewArticleRepo(db *sql.DB) repository.ArticleRepository {
	return &ArticleRepo{db: db}
}

// Add inserts the article, treating an existing id as a silent no-op. The
// check and the insert are a single statement, so concurrent ticks racing on
// the same id cannot both insert it.
func (repo *ArticleRepo) Add(ctx context.Context, article *entity.Article, publicationID string) (bool, error) {
	const query = `
INSERT INTO articles (id, publication_id, title, link, published_at, formatted_published_at, image)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO NOTHING`

	image := sql.NullString{String: article.Image, Valid: article.Image != ""}
	res, err := repo.db.ExecContext(ctx, query,
		article.ID, publicationID, article.Title, article.Link,
		article.PublishedAt, article.FormattedPublishedAt, image)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return false, fmt.Errorf("Add %q: %w", article.ID, entity.ErrPublicationNotFound)
		}
		return false, fmt.Errorf("Add %q: %w", article.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("Add %q: rows affected: %w", article.ID, err)
	}
	return affected > 0, nil
}

func (repo *ArticleRepo) ExistsByID(ctx context.Context, id string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM articles WHERE id = $1)`
	var exists bool
	if err := repo.db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("ExistsByID %q: %w", id, err)
	}
	return exists, nil
}

func (repo *ArticleRepo) ListByPublication(ctx context.Context, publicationID string) ([]*entity.Article, error) {
	const query = `
SELECT id, publication_id, title, link, published_at, formatted_published_at, image
FROM articles
WHERE publication_id = $1
ORDER BY published_at DESC`
	rows, err := repo.db.QueryContext(ctx, query, publicationID)
	if err != nil {
		return nil, fmt.Errorf("ListByPublication %q: %w", publicationID, err)
	}
	defer func() { _ = rows.Close() }()

	articles := make([]*entity.Article, 0, 64)
	for rows.Next() {
		var article entity.Article
		var image sql.NullString
		if err := rows.Scan(&article.ID, &article.PublicationID, &article.Title,
			&article.Link, &article.PublishedAt, &article.FormattedPublishedAt, &image); err != nil {
			return nil, fmt.Errorf("ListByPublication %q: Scan: %w", publicationID, err)
		}
		article.Image = image.String
		articles = append(articles, &article)
	}
	return articles, rows.Err()
}
