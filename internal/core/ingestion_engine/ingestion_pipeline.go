package ingestion_engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"github.com/markdave123-py/Docshelf/internal/core"
	"github.com/markdave123-py/Docshelf/internal/core/placement"
	"github.com/markdave123-py/Docshelf/internal/models"
)

// NewDocumentIngestor wires the ingestion pipeline. remote may be nil, in
// which case DriveSource uploads are rejected.
func NewDocumentIngestor(
	db core.DbClient,
	obj core.ObjectClient,
	remote core.RemoteFetcher,
	extract Extractor,
	cfg IngestConfig,
	log zerolog.Logger,
) *DocumentIngestor {
	return &DocumentIngestor{
		db: db, obj: obj, remote: remote, extract: extract, cfg: cfg,
		now: time.Now,
		log: log,
	}
}

// Ingest resolves src, stores the bytes, extracts them and records a document
// row. Once started it is not cut short by cancellation of ctx.
func (i *DocumentIngestor) Ingest(ctx context.Context, ownerID int64, src Source) (*Ingested, error) {
	ctx = context.WithoutCancel(ctx)

	name, data, err := i.resolve(ctx, src)
	if err != nil {
		return nil, err
	}
	if err := i.validate(ctx, ownerID, name, data); err != nil {
		return nil, err
	}

	key, err := placement.Key(ownerID, name, i.now())
	if err != nil {
		return nil, err
	}
	location, err := i.obj.Put(ctx, key, data, mimetype.Detect(data).String())
	if errors.Is(err, core.ErrObjectExists) {
		return nil, fmt.Errorf("%w: an identical upload was just stored, retry", core.ErrValidation)
	}
	if err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}
	log := i.log.With().Int64("user_id", ownerID).Str("file_path", location).Logger()
	log.Debug().Int("bytes", len(data)).Msg("upload stored")

	extractCtx := ctx
	if i.cfg.ExtractTimeout > 0 {
		var cancel context.CancelFunc
		extractCtx, cancel = context.WithTimeout(ctx, i.cfg.ExtractTimeout)
		defer cancel()
	}
	res := i.extract.Extract(extractCtx, data, name)

	doc := models.Document{
		UserID:        ownerID,
		Title:         res.Title,
		FilePath:      location,
		ExtractedText: res.Text,
	}
	if err := i.db.CreateDocument(ctx, &doc); err != nil {
		if derr := i.obj.Delete(ctx, location); derr != nil {
			log.Error().Err(derr).Msg("compensating delete failed; left for the sweeper")
		}
		return nil, fmt.Errorf("record document: %w", err)
	}

	log.Info().
		Int64("doc_id", doc.ID).
		Stringer("outcome", res.Outcome).
		Stringer("tier", res.Tier).
		Msg("document ingested")

	return &Ingested{Document: doc, Outcome: res.Outcome, Tier: res.Tier}, nil
}

func (i *DocumentIngestor) resolve(ctx context.Context, src Source) (string, []byte, error) {
	switch s := src.(type) {
	case InlineSource:
		return s.Filename, s.Data, nil
	case *InlineSource:
		return s.Filename, s.Data, nil
	case DriveSource:
		return i.fetch(ctx, s)
	case *DriveSource:
		return i.fetch(ctx, *s)
	case nil:
		return "", nil, fmt.Errorf("%w: no source", core.ErrValidation)
	default:
		return "", nil, fmt.Errorf("unsupported source %T", src)
	}
}

func (i *DocumentIngestor) fetch(ctx context.Context, s DriveSource) (string, []byte, error) {
	if i.remote == nil {
		return "", nil, errors.New("drive uploads are not configured")
	}
	f, err := i.remote.Fetch(ctx, s.FileID, s.AccessToken)
	if err != nil {
		return "", nil, err
	}
	return f.Name, f.Data, nil
}

// validate runs every check that must pass before anything is written.
func (i *DocumentIngestor) validate(ctx context.Context, ownerID int64, name string, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty file", core.ErrValidation)
	}
	if i.cfg.MaxBytes > 0 && int64(len(data)) > i.cfg.MaxBytes {
		return fmt.Errorf("%w: file exceeds %d bytes", core.ErrValidation, i.cfg.MaxBytes)
	}
	if _, err := placement.Validate(name); err != nil {
		return err
	}
	owner, err := i.db.GetUserByID(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("lookup owner: %w", err)
	}
	if owner == nil {
		return fmt.Errorf("%w: user %d does not exist", core.ErrValidation, ownerID)
	}
	return nil
}
