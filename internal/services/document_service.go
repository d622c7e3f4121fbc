package services

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/markdave123-py/Docshelf/internal/core"
	"github.com/markdave123-py/Docshelf/internal/models"
)

type DocumentService struct {
	db      core.DbClient
	storage core.ObjectClient
	log     zerolog.Logger
}

func NewDocumentService(db core.DbClient, storage core.ObjectClient, log zerolog.Logger) *DocumentService {
	return &DocumentService{db: db, storage: storage, log: log}
}

// Get returns ErrNotFound when no row has the id.
func (s *DocumentService) Get(ctx context.Context, id int64) (*models.Document, error) {
	doc, err := s.db.GetDocumentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: document not found", core.ErrNotFound)
	}
	return doc, nil
}

// ListByUser never returns a nil slice.
func (s *DocumentService) ListByUser(ctx context.Context, userID int64) ([]models.Document, error) {
	docs, err := s.db.ListDocumentsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []models.Document{}
	}
	return docs, nil
}

// Open returns the document row and a reader over its stored bytes.
func (s *DocumentService) Open(ctx context.Context, id int64) (*models.Document, io.ReadCloser, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.storage.Open(ctx, doc.FilePath)
	if err != nil {
		return nil, nil, err
	}
	return doc, rc, nil
}

// Delete removes the blob, then the row. A blob that is already gone does
// not stop the row from being removed, so a retried delete converges.
func (s *DocumentService) Delete(ctx context.Context, id int64) error {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.storage.Delete(ctx, doc.FilePath); err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	if err := s.db.DeleteDocument(ctx, id); err != nil {
		return err
	}
	s.log.Info().Int64("doc_id", id).Str("file_path", doc.FilePath).Msg("document deleted")
	return nil
}
