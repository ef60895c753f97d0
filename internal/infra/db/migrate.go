package db

import (
	"database/sql"
	"fmt"
)

// MigrateUp creates the harvester schema. Statements are idempotent so the
// worker can run them unconditionally at startup.
func MigrateUp(conn *sql.DB) error {
	if _, err := conn.Exec(`
CREATE TABLE IF NOT EXISTS publications (
    id   TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    url  TEXT NOT NULL
)`); err != nil {
		return fmt.Errorf("create publications: %w", err)
	}

	if _, err := conn.Exec(`
CREATE TABLE IF NOT EXISTS articles (
    id                     TEXT PRIMARY KEY,
    publication_id         TEXT NOT NULL REFERENCES publications(id),
    title                  TEXT NOT NULL,
    link                   TEXT NOT NULL,
    published_at           TIMESTAMPTZ NOT NULL,
    formatted_published_at TEXT NOT NULL,
    image                  TEXT,
    created_at             TIMESTAMPTZ NOT NULL DEFAULT now()
)`); err != nil {
		return fmt.Errorf("create articles: %w", err)
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_articles_publication_id ON articles(publication_id)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_published_at ON articles(published_at DESC)`,
	}
	for _, idx := range indexes {
		if _, err := conn.Exec(idx); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}

	return nil
}

// MigrateDown drops the harvester schema in dependency order. Use with
// caution: this deletes all stored articles and publications.
func MigrateDown(conn *sql.DB) error {
	statements := []string{
		`DROP INDEX IF EXISTS idx_articles_published_at`,
		`DROP INDEX IF EXISTS idx_articles_publication_id`,
		`DROP TABLE IF EXISTS articles`,
		`DROP TABLE IF EXISTS publications`,
	}
	for _, stmt := range statements {
		if _, err := conn.Exec(stmt); err != nil {
			return fmt.Errorf("drop schema: %w", err)
		}
	}
	return nil
}
