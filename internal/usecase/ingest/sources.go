package ingest

import "nordfeed/internal/domain/entity"

// Source types route a source to its fetcher through a registry keyed by
// type, so adding a source of an existing type needs no new code.
const (
	// SourceTypeFeed marks a standards-compliant syndication feed.
	SourceTypeFeed = "feed"

	// SourceTypeBulletin marks an HTML index page whose items are scraped
	// and enriched through the metadata lookup service.
	SourceTypeBulletin = "bulletin"
)

// Source binds a publication to the URL it is harvested from and the fetch
// strategy used for it.
type Source struct {
	Publication entity.Publication
	URL         string
	Type        string
}

// SeedSources returns the fixed set of harvested sources. Publications are
// registered from this table at startup and never mutated afterwards.
func SeedSources() []Source {
	return []Source{
		{
			Publication: entity.Publication{ID: "NRK", Name: "NRK", URL: "https://www.nrk.no"},
			URL:         "https://www.nrk.no/nyheter",
			Type:        SourceTypeBulletin,
		},
		{
			Publication: entity.Publication{ID: "BBC", Name: "BBC News", URL: "https://www.bbc.co.uk/news"},
			URL:         "https://feeds.bbci.co.uk/news/world/rss.xml",
			Type:        SourceTypeFeed,
		},
	}
}
