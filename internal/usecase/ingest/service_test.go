package ingest

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nordfeed/internal/domain/entity"
)

type memoryPublicationRepo struct {
	publications map[string]*entity.Publication
}

func newMemoryPublicationRepo() *memoryPublicationRepo {
	return &memoryPublicationRepo{publications: make(map[string]*entity.Publication)}
}

func (r *memoryPublicationRepo) Register(_ context.Context, pub *entity.Publication) error {
	if _, ok := r.publications[pub.ID]; ok {
		return nil
	}
	clone := *pub
	r.publications[pub.ID] = &clone
	return nil
}

func (r *memoryPublicationRepo) Get(_ context.Context, id string) (*entity.Publication, error) {
	pub, ok := r.publications[id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return pub, nil
}

func (r *memoryPublicationRepo) List(_ context.Context) ([]*entity.Publication, error) {
	out := make([]*entity.Publication, 0, len(r.publications))
	for _, pub := range r.publications {
		out = append(out, pub)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memoryArticleRepo struct {
	publications *memoryPublicationRepo
	articles     map[string]*entity.Article
	addCalls     int
}

func newMemoryArticleRepo(pubs *memoryPublicationRepo) *memoryArticleRepo {
	return &memoryArticleRepo{publications: pubs, articles: make(map[string]*entity.Article)}
}

func (r *memoryArticleRepo) Add(_ context.Context, art *entity.Article, publicationID string) (bool, error) {
	r.addCalls++
	if _, ok := r.articles[art.ID]; ok {
		return false, nil
	}
	if _, ok := r.publications.publications[publicationID]; !ok {
		return false, entity.ErrPublicationNotFound
	}
	clone := *art
	r.articles[art.ID] = &clone
	return true, nil
}

func (r *memoryArticleRepo) ExistsByID(_ context.Context, id string) (bool, error) {
	_, ok := r.articles[id]
	return ok, nil
}

func (r *memoryArticleRepo) ListByPublication(_ context.Context, publicationID string) ([]*entity.Article, error) {
	out := make([]*entity.Article, 0)
	for _, art := range r.articles {
		if art.PublicationID == publicationID {
			out = append(out, art)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type stubFetcher struct {
	articles []*entity.Article
	err      error
	calls    int
}

func (f *stubFetcher) Fetch(_ context.Context, _ string) ([]*entity.Article, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.articles, nil
}

func testSource(id, typ string) Source {
	return Source{
		Publication: entity.Publication{ID: id, Name: id, URL: "https://" + id + ".test/"},
		URL:         "https://" + id + ".test/feed",
		Type:        typ,
	}
}

func testArticle(id string) *entity.Article {
	return &entity.Article{
		ID:                   id,
		Title:                "title " + id,
		Link:                 "https://example.test/" + id,
		PublishedAt:          time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		FormattedPublishedAt: "2024-01-01 13:00:00",
	}
}

func TestRegisterPublications(t *testing.T) {
	pubs := newMemoryPublicationRepo()
	svc := NewService(pubs, newMemoryArticleRepo(pubs), nil, SeedSources())

	require.NoError(t, svc.RegisterPublications(context.Background()))

	got, err := pubs.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "BBC", got[0].ID)
	assert.Equal(t, "NRK", got[1].ID)

	// Re-registering is a no-op.
	require.NoError(t, svc.RegisterPublications(context.Background()))
	got, err = pubs.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestHarvestSource_IdempotentIngestion(t *testing.T) {
	pubs := newMemoryPublicationRepo()
	arts := newMemoryArticleRepo(pubs)
	fetcher := &stubFetcher{articles: []*entity.Article{testArticle("a1"), testArticle("a2")}}
	src := testSource("NRK", SourceTypeBulletin)
	svc := NewService(pubs, arts, map[string]SourceFetcher{SourceTypeBulletin: fetcher}, []Source{src})

	ctx := context.Background()
	require.NoError(t, svc.RegisterPublications(ctx))

	stats, err := svc.HarvestSource(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Fetched)
	assert.Equal(t, 2, stats.Inserted)
	assert.Equal(t, 0, stats.Duplicated)

	// Second tick returns the same items; nothing new is stored.
	stats, err = svc.HarvestSource(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Inserted)
	assert.Equal(t, 2, stats.Duplicated)

	stored, err := arts.ListByPublication(ctx, "NRK")
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "NRK", stored[0].PublicationID)
}

func TestHarvestSource_FetchFailureAbortsTick(t *testing.T) {
	pubs := newMemoryPublicationRepo()
	arts := newMemoryArticleRepo(pubs)
	fetcher := &stubFetcher{err: errors.New("upstream gone")}
	src := testSource("BBC", SourceTypeFeed)
	svc := NewService(pubs, arts, map[string]SourceFetcher{SourceTypeFeed: fetcher}, []Source{src})

	_, err := svc.HarvestSource(context.Background(), src)
	require.ErrorIs(t, err, ErrSourceUnavailable)
	assert.Zero(t, arts.addCalls, "no article may be stored on a failed fetch")
}

func TestHarvestSource_UnknownSourceType(t *testing.T) {
	pubs := newMemoryPublicationRepo()
	svc := NewService(pubs, newMemoryArticleRepo(pubs), map[string]SourceFetcher{}, nil)

	_, err := svc.HarvestSource(context.Background(), testSource("NRK", "telegraph"))
	require.ErrorIs(t, err, ErrUnknownSourceType)
}

func TestHarvestSource_UnknownPublication(t *testing.T) {
	pubs := newMemoryPublicationRepo()
	arts := newMemoryArticleRepo(pubs)
	fetcher := &stubFetcher{articles: []*entity.Article{testArticle("a1")}}
	src := testSource("GHOST", SourceTypeFeed)
	svc := NewService(pubs, arts, map[string]SourceFetcher{SourceTypeFeed: fetcher}, []Source{src})

	// Publication never registered; the referential failure surfaces.
	_, err := svc.HarvestSource(context.Background(), src)
	require.ErrorIs(t, err, entity.ErrPublicationNotFound)
}

func TestHarvestAll_SkipAndContinue(t *testing.T) {
	pubs := newMemoryPublicationRepo()
	arts := newMemoryArticleRepo(pubs)
	broken := &stubFetcher{err: errors.New("timeout")}
	healthy := &stubFetcher{articles: []*entity.Article{testArticle("b1")}}
	sources := []Source{testSource("NRK", SourceTypeBulletin), testSource("BBC", SourceTypeFeed)}
	svc := NewService(pubs, arts, map[string]SourceFetcher{
		SourceTypeBulletin: broken,
		SourceTypeFeed:     healthy,
	}, sources)

	ctx := context.Background()
	require.NoError(t, svc.RegisterPublications(ctx))

	all := svc.HarvestAll(ctx)
	require.Len(t, all, 2)
	assert.Equal(t, 1, healthy.calls, "healthy source must still be harvested after a failure")

	stored, err := arts.ListByPublication(ctx, "BBC")
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

var _ SourceFetcher = (*stubFetcher)(nil)
