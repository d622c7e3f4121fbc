package ingestion_engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/markdave123-py/Docshelf/internal/core"
	db "github.com/markdave123-py/Docshelf/internal/core/database"
	"github.com/markdave123-py/Docshelf/internal/core/extraction"
	objectclient "github.com/markdave123-py/Docshelf/internal/core/object-client"
	"github.com/markdave123-py/Docshelf/internal/models"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type fakeExtractor struct {
	calls int
	res   extraction.Result
}

func (f *fakeExtractor) Extract(context.Context, []byte, string) extraction.Result {
	f.calls++
	return f.res
}

type fakeRemote struct {
	file *core.RemoteFile
	err  error
}

func (f fakeRemote) Fetch(context.Context, string, string) (*core.RemoteFile, error) {
	return f.file, f.err
}

// failingDB rejects every insert.
type failingDB struct{ *db.MemoryClient }

func (failingDB) CreateDocument(context.Context, *models.Document) error {
	return errors.New("insert failed")
}

type fixture struct {
	db   *db.MemoryClient
	obj  *objectclient.LocalClient
	ext  *fakeExtractor
	ing  *DocumentIngestor
	user *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := db.NewMemoryClient()
	obj, err := objectclient.NewLocalClient(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	u := &models.User{Username: "alice", PasswordHash: "x"}
	if err := store.CreateUser(context.Background(), u); err != nil {
		t.Fatal(err)
	}
	ext := &fakeExtractor{res: extraction.Result{
		Title: "Grocery Receipt", Text: "Milk 2.10",
		Outcome: extraction.OutcomeSuccess, Tier: extraction.TierStructured,
	}}
	ing := NewDocumentIngestor(store, obj, nil, ext, IngestConfig{}, zerolog.Nop())
	return &fixture{db: store, obj: obj, ext: ext, ing: ing, user: u}
}

func countFiles(t *testing.T, root string) int {
	t.Helper()
	n := 0
	_ = filepath.WalkDir(root, func(_ string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			n++
		}
		return nil
	})
	return n
}

func TestIngestInlineStoresAndRecords(t *testing.T) {
	f := newFixture(t)
	f.ing.now = func() time.Time { return time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC) }

	got, err := f.ing.Ingest(context.Background(), f.user.ID, InlineSource{Filename: "receipt.png", Data: pngBytes})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if got.Document.ID == 0 || got.Document.Title != "Grocery Receipt" || got.Document.ExtractedText != "Milk 2.10" {
		t.Fatalf("document = %+v", got.Document)
	}
	if got.Outcome != extraction.OutcomeSuccess || got.Tier != extraction.TierStructured {
		t.Fatalf("outcome/tier = %v/%v", got.Outcome, got.Tier)
	}

	want := filepath.Join(f.obj.Root(), "2024-03-10", "1_1710072000_receipt.png")
	if got.Document.FilePath != want {
		t.Fatalf("file_path = %q, want %q", got.Document.FilePath, want)
	}
	data, err := os.ReadFile(want)
	if err != nil || string(data) != string(pngBytes) {
		t.Fatalf("stored bytes = %q, %v", data, err)
	}
}

func TestIngestSameFileTwiceMakesTwoDocuments(t *testing.T) {
	f := newFixture(t)
	tick := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	f.ing.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}

	a, err := f.ing.Ingest(context.Background(), f.user.ID, InlineSource{Filename: "a.png", Data: pngBytes})
	if err != nil {
		t.Fatal(err)
	}
	b, err := f.ing.Ingest(context.Background(), f.user.ID, InlineSource{Filename: "a.png", Data: pngBytes})
	if err != nil {
		t.Fatal(err)
	}
	if a.Document.ID == b.Document.ID || a.Document.FilePath == b.Document.FilePath {
		t.Fatalf("expected distinct rows and paths: %+v %+v", a.Document, b.Document)
	}
	docs, _ := f.db.ListDocumentsByUser(context.Background(), f.user.ID)
	if len(docs) != 2 {
		t.Fatalf("rows = %d, want 2", len(docs))
	}
}

func TestIngestRejectsBeforeWriting(t *testing.T) {
	cases := []struct {
		name  string
		owner func(*fixture) int64
		src   Source
	}{
		{"disallowed extension", func(f *fixture) int64 { return f.user.ID }, InlineSource{Filename: "virus.exe", Data: []byte("MZ")}},
		{"empty bytes", func(f *fixture) int64 { return f.user.ID }, InlineSource{Filename: "a.png"}},
		{"unknown owner", func(*fixture) int64 { return 999 }, InlineSource{Filename: "a.png", Data: pngBytes}},
		{"no name", func(f *fixture) int64 { return f.user.ID }, InlineSource{Data: pngBytes}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.ing.Ingest(context.Background(), tc.owner(f), tc.src)
			if !errors.Is(err, core.ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
			if n := countFiles(t, f.obj.Root()); n != 0 {
				t.Fatalf("%d files written", n)
			}
			if f.ext.calls != 0 {
				t.Fatal("extractor called for a rejected upload")
			}
		})
	}
}

func TestIngestEnforcesMaxBytes(t *testing.T) {
	f := newFixture(t)
	f.ing.cfg.MaxBytes = 4
	_, err := f.ing.Ingest(context.Background(), f.user.ID, InlineSource{Filename: "a.png", Data: pngBytes})
	if !errors.Is(err, core.ErrValidation) {
		t.Fatalf("err = %v", err)
	}
}

func TestIngestDriveSource(t *testing.T) {
	f := newFixture(t)
	f.ing.remote = fakeRemote{file: &core.RemoteFile{Name: "scan.png", MIMEType: "image/png", Data: pngBytes}}

	got, err := f.ing.Ingest(context.Background(), f.user.ID, DriveSource{FileID: "id", AccessToken: "tok"})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if filepath.Ext(got.Document.FilePath) != ".png" {
		t.Fatalf("file_path = %q", got.Document.FilePath)
	}
}

func TestIngestDriveFailurePersistsNothing(t *testing.T) {
	f := newFixture(t)
	f.ing.remote = fakeRemote{err: core.ErrUpstreamFetch}

	_, err := f.ing.Ingest(context.Background(), f.user.ID, DriveSource{FileID: "id", AccessToken: "tok"})
	if !errors.Is(err, core.ErrUpstreamFetch) {
		t.Fatalf("err = %v", err)
	}
	if n := countFiles(t, f.obj.Root()); n != 0 {
		t.Fatalf("%d files written", n)
	}
	docs, _ := f.db.ListDocumentsByUser(context.Background(), f.user.ID)
	if len(docs) != 0 {
		t.Fatalf("rows = %d", len(docs))
	}
}

func TestIngestRemovesBlobWhenInsertFails(t *testing.T) {
	f := newFixture(t)
	f.ing.db = failingDB{f.db}

	if _, err := f.ing.Ingest(context.Background(), f.user.ID, InlineSource{Filename: "a.png", Data: pngBytes}); err == nil {
		t.Fatal("expected error")
	}
	if n := countFiles(t, f.obj.Root()); n != 0 {
		t.Fatalf("blob left behind: %d files", n)
	}
}

func TestIngestSurvivesCanceledContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.ing.Ingest(ctx, f.user.ID, InlineSource{Filename: "a.png", Data: pngBytes}); err != nil {
		t.Fatalf("Ingest with canceled parent: %v", err)
	}
}

func TestIngestSameSecondCollisionKeepsFirstFile(t *testing.T) {
	f := newFixture(t)
	f.ing.now = func() time.Time { return time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC) }

	first, err := f.ing.Ingest(context.Background(), f.user.ID, InlineSource{Filename: "a.png", Data: pngBytes})
	if err != nil {
		t.Fatal(err)
	}
	_, err = f.ing.Ingest(context.Background(), f.user.ID, InlineSource{Filename: "a.png", Data: []byte("\x89PNG other")})
	if !errors.Is(err, core.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	data, err := os.ReadFile(first.Document.FilePath)
	if err != nil || string(data) != string(pngBytes) {
		t.Fatalf("first file changed: %q, %v", data, err)
	}
}
