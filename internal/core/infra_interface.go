package core

import (
	"context"
	"io"
	"time"

	"github.com/markdave123-py/Docshelf/internal/models"
)

// DbClient defines all persistence operations the services need.
// It abstracts Postgres so higher layers never depend on a specific DB.
type DbClient interface {
	// CreateUser assigns user.ID. A taken username yields ErrUserExists.
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)

	// CreateDocument assigns doc.ID.
	CreateDocument(ctx context.Context, doc *models.Document) error
	GetDocumentByID(ctx context.Context, id int64) (*models.Document, error)
	ListDocumentsByUser(ctx context.Context, userID int64) ([]models.Document, error)
	// DeleteDocument returns ErrNotFound when no row was removed.
	DeleteDocument(ctx context.Context, id int64) error
	DocumentPathExists(ctx context.Context, filePath string) (bool, error)

	Close() error
}

// ObjectClient stores the raw bytes of ingested files. Locations returned by
// Put are opaque to callers and are what documents.file_path records.
type ObjectClient interface {
	// Put fails with ErrObjectExists rather than replace an object.
	Put(ctx context.Context, key string, data []byte, contentType string) (location string, err error)
	Open(ctx context.Context, location string) (io.ReadCloser, error)
	// Delete succeeds when the object is already gone.
	Delete(ctx context.Context, location string) error
	// Walk visits every stored object.
	Walk(ctx context.Context, fn func(location string, modified time.Time) error) error
}
