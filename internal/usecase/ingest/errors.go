// Package ingest provides the harvesting use case: fetching raw items from
// heterogeneous news sources, normalizing them into canonical articles, and
// storing them idempotently. Per-item failures are recovered inside the
// adapters; whole-document failures abort only the current tick.
package ingest

import "errors"

// Sentinel errors for ingest operations.
var (
	// ErrSourceUnavailable indicates the primary document (feed or index
	// page) could not be fetched. The tick for that source is aborted; the
	// next scheduled tick retries naturally.
	ErrSourceUnavailable = errors.New("source document unavailable")

	// ErrUnknownSourceType indicates a source references a type no fetcher
	// is registered for. This is a wiring bug, not a runtime condition.
	ErrUnknownSourceType = errors.New("no fetcher registered for source type")
)
