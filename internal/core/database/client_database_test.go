package db

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/markdave123-py/Docshelf/internal/core"
	"github.com/markdave123-py/Docshelf/internal/models"
)

func newMock(t *testing.T) (*DatabaseClient, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewWithDB(db), mock
}

func TestCreateUserAssignsID(t *testing.T) {
	c, mock := newMock(t)
	mock.ExpectQuery("INSERT INTO users").
		WithArgs("alice", "hash").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	u := &models.User{Username: "alice", PasswordHash: "hash"}
	if err := c.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.ID != 7 {
		t.Fatalf("ID = %d, want 7", u.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestCreateUserDuplicate(t *testing.T) {
	c, mock := newMock(t)
	mock.ExpectQuery("INSERT INTO users").
		WithArgs("alice", "hash").
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key"})

	err := c.CreateUser(context.Background(), &models.User{Username: "alice", PasswordHash: "hash"})
	if !errors.Is(err, core.ErrUserExists) {
		t.Fatalf("err = %v, want ErrUserExists", err)
	}
}

func TestGetUserByUsernameMissing(t *testing.T) {
	c, mock := newMock(t)
	mock.ExpectQuery("SELECT id, username, password_hash FROM users WHERE username").
		WithArgs("bob").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash"}))

	u, err := c.GetUserByUsername(context.Background(), "bob")
	if err != nil || u != nil {
		t.Fatalf("got %+v, %v; want nil, nil", u, err)
	}
}

func TestCreateAndListDocuments(t *testing.T) {
	c, mock := newMock(t)
	mock.ExpectQuery("INSERT INTO documents").
		WithArgs(int64(7), "Receipt", "/up/a.png", "Total 4.20").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	mock.ExpectQuery("FROM documents").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "title", "file_path", "extracted_text"}).
			AddRow(11, 7, "Receipt", "/up/a.png", "Total 4.20"))

	doc := &models.Document{UserID: 7, Title: "Receipt", FilePath: "/up/a.png", ExtractedText: "Total 4.20"}
	if err := c.CreateDocument(context.Background(), doc); err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	if doc.ID != 11 {
		t.Fatalf("ID = %d", doc.ID)
	}
	docs, err := c.ListDocumentsByUser(context.Background(), 7)
	if err != nil {
		t.Fatalf("ListDocumentsByUser: %v", err)
	}
	if len(docs) != 1 || docs[0].Title != "Receipt" {
		t.Fatalf("docs = %+v", docs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestListDocumentsEmptyIsNonNil(t *testing.T) {
	c, mock := newMock(t)
	mock.ExpectQuery("FROM documents").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "title", "file_path", "extracted_text"}))

	docs, err := c.ListDocumentsByUser(context.Background(), 3)
	if err != nil || docs == nil || len(docs) != 0 {
		t.Fatalf("got %#v, %v", docs, err)
	}
}

func TestDeleteDocumentNotFound(t *testing.T) {
	c, mock := newMock(t)
	mock.ExpectExec("DELETE FROM documents").
		WithArgs(int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := c.DeleteDocument(context.Background(), 99); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDocumentPathExists(t *testing.T) {
	c, mock := newMock(t)
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("/up/a.png").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := c.DocumentPathExists(context.Background(), "/up/a.png")
	if err != nil || !ok {
		t.Fatalf("got %v, %v", ok, err)
	}
}

func TestEnsureBootstrappedRunsScriptOnce(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery("information_schema.tables").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := EnsureBootstrapped(context.Background(), db); err != nil {
		t.Fatalf("first bootstrap: %v", err)
	}

	mock.ExpectQuery("information_schema.tables").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("FROM docshelf_meta").
		WithArgs(schemaVersion).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	if err := EnsureBootstrapped(context.Background(), db); err != nil {
		t.Fatalf("second bootstrap: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestWithSSLLeavesURLWithoutCert(t *testing.T) {
	got, err := withSSL("postgres://u@h/db", "")
	if err != nil || got != "postgres://u@h/db" {
		t.Fatalf("got %q, %v", got, err)
	}
	if _, err := withSSL("postgres://u@h/db", "/nonexistent/ca.pem"); err == nil {
		t.Fatal("expected error for missing cert")
	}
}
