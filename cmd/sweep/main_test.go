package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSweepRefusesMemoryDatabase(t *testing.T) {
	root := t.TempDir()
	t.Setenv("DATABASE_URL", "memory")
	t.Setenv("STORAGE_BACKEND", "local")
	t.Setenv("UPLOAD_DIR", root)

	blob := filepath.Join(root, "2024-01-01", "1_1_receipt.png")
	if err := os.MkdirAll(filepath.Dir(blob), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(blob, []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(blob, old, old); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"--grace", "1h"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.ExecuteContext(context.Background())
	if !errors.Is(err, errMemoryDatabase) {
		t.Fatalf("err = %v, want errMemoryDatabase", err)
	}
	if _, err := os.Stat(blob); err != nil {
		t.Fatalf("stored upload removed: %v", err)
	}
}
