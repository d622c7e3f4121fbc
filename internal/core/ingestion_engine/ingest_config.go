package ingestion_engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/markdave123-py/Docshelf/internal/core"
	"github.com/markdave123-py/Docshelf/internal/core/extraction"
	"github.com/markdave123-py/Docshelf/internal/models"
)

// IngestConfig tunes ingestion.
//
// MaxBytes:      upper bound on an upload's size; 0 disables the check.
// ExtractTimeout: deadline for the model calls of one file; 0 means none.
type IngestConfig struct {
	MaxBytes       int64
	ExtractTimeout time.Duration
}

// Source is where an upload's bytes come from: InlineSource or DriveSource.
type Source interface {
	source()
}

// InlineSource carries bytes received directly in the request.
type InlineSource struct {
	Filename string
	Data     []byte
}

// DriveSource names a Google Drive file readable with AccessToken.
type DriveSource struct {
	FileID      string
	AccessToken string
}

func (InlineSource) source() {}
func (DriveSource) source()  {}

// Ingested is what a finished ingestion reports back.
type Ingested struct {
	Document models.Document
	Outcome  extraction.Outcome
	Tier     extraction.Tier
}

// Extractor pulls a title and text out of file bytes. It does not fail.
type Extractor interface {
	Extract(ctx context.Context, data []byte, filename string) extraction.Result
}

// DocumentIngestor stores an upload, extracts it and records it.
//
// db:      users and document rows.
// obj:     blob store for the raw bytes.
// remote:  fetcher for DriveSource; may be nil.
// extract: model-backed text and title extraction.
// now:     clock used for storage keys.
type DocumentIngestor struct {
	db      core.DbClient
	obj     core.ObjectClient
	remote  core.RemoteFetcher
	extract Extractor
	cfg     IngestConfig
	now     func() time.Time
	log     zerolog.Logger
}
