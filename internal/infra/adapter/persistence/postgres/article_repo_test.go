package postgres_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5/pgconn"

	"nordfeed/internal/domain/entity"
	pg "nordfeed/internal/infra/adapter/persistence/postgres"
)

func sampleArticle() *entity.Article {
	return &entity.Article{
		ID:                   "1.16688231",
		PublicationID:        "NRK",
		Title:                "Snowfall closes mountain passes",
		Link:                 "https://www.nrk.no/norge/1.16688231",
		PublishedAt:          time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		FormattedPublishedAt: "2024-01-01 13:00:00",
		Image:                "https://gfx.nrk.no/img.jpg",
	}
}

func artRows(articles ...*entity.Article) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "publication_id", "title", "link",
		"published_at", "formatted_published_at", "image",
	})
	for _, a := range articles {
		rows.AddRow(a.ID, a.PublicationID, a.Title, a.Link,
			a.PublishedAt, a.FormattedPublishedAt, a.Image)
	}
	return rows
}

func TestArticleRepo_Add_Inserts(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	a := sampleArticle()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO articles")).
		WithArgs(a.ID, "NRK", a.Title, a.Link, a.PublishedAt, a.FormattedPublishedAt, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := pg.NewArticleRepo(db)
	inserted, err := repo.Add(context.Background(), a, "NRK")
	if err != nil {
		t.Fatalf("Add err=%v", err)
	}
	if !inserted {
		t.Fatal("Add inserted=false, want true")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestArticleRepo_Add_DuplicateIsNoOp(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	a := sampleArticle()
	// ON CONFLICT DO NOTHING reports zero affected rows for an existing id.
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO articles")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := pg.NewArticleRepo(db)
	inserted, err := repo.Add(context.Background(), a, "NRK")
	if err != nil {
		t.Fatalf("Add err=%v", err)
	}
	if inserted {
		t.Fatal("Add inserted=true for duplicate, want false")
	}
}

func TestArticleRepo_Add_UnknownPublication(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO articles")).
		WillReturnError(&pgconn.PgError{Code: "23503"})

	repo := pg.NewArticleRepo(db)
	_, err := repo.Add(context.Background(), sampleArticle(), "GHOST")
	if !errors.Is(err, entity.ErrPublicationNotFound) {
		t.Fatalf("Add err=%v, want ErrPublicationNotFound", err)
	}
}

func TestArticleRepo_ExistsByID(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("1.16688231").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	repo := pg.NewArticleRepo(db)
	exists, err := repo.ExistsByID(context.Background(), "1.16688231")
	if err != nil || !exists {
		t.Fatalf("ExistsByID exists=%v err=%v", exists, err)
	}
}

func TestArticleRepo_ListByPublication(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	want := sampleArticle()
	mock.ExpectQuery("FROM articles").
		WithArgs("NRK").
		WillReturnRows(artRows(want))

	repo := pg.NewArticleRepo(db)
	got, err := repo.ListByPublication(context.Background(), "NRK")
	if err != nil {
		t.Fatalf("ListByPublication err=%v", err)
	}
	if len(got) != 1 {
		t.Fatalf("ListByPublication len=%d, want 1", len(got))
	}
	if diff := cmp.Diff(want, got[0]); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestArticleRepo_ListByPublication_NullImage(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	rows := sqlmock.NewRows([]string{
		"id", "publication_id", "title", "link",
		"published_at", "formatted_published_at", "image",
	}).AddRow("1.1", "NRK", "t", "https://x", time.Now(), "2024-01-01 00:00:00", nil)

	mock.ExpectQuery("FROM articles").
		WithArgs("NRK").
		WillReturnRows(rows)

	repo := pg.NewArticleRepo(db)
	got, err := repo.ListByPublication(context.Background(), "NRK")
	if err != nil || len(got) != 1 {
		t.Fatalf("ListByPublication err=%v len=%d", err, len(got))
	}
	if got[0].Image != "" {
		t.Fatalf("Image=%q, want empty for NULL column", got[0].Image)
	}
}
