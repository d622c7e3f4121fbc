package ingestion_engine

import "context"

// Ingestor turns an upload into a stored, extracted document.
type Ingestor interface {
	Ingest(ctx context.Context, ownerID int64, src Source) (*Ingested, error)
}

var _ Ingestor = (*DocumentIngestor)(nil)
