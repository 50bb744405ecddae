// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package quarantine

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pdiddy/officebatch/pkg/types"
)

func testExtensions() types.Extensions {
	var cfg types.Config
	cfg.ApplyDefaults()
	return cfg.AllowedExtensions
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestNewCreatesFolder(t *testing.T) {
	root := t.TempDir()
	d, err := New(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Path != filepath.Join(root, FolderName) {
		t.Errorf("path = %q, want %q", d.Path, filepath.Join(root, FolderName))
	}
	info, err := os.Stat(d.Path)
	if err != nil || !info.IsDir() {
		t.Errorf("quarantine folder not created: %v", err)
	}
}

func TestAddCopiesAndPreservesOriginal(t *testing.T) {
	root := t.TempDir()
	d, err := New(root)
	if err != nil {
		t.Fatal(err)
	}

	src := filepath.Join(root, "report.docx")
	writeFile(t, src, "broken doc")

	if err := d.Add(src); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(d.Path, "report.docx"))
	if err != nil || string(data) != "broken doc" {
		t.Errorf("quarantined content = %q, %v", data, err)
	}
	if _, err := os.Stat(src); err != nil {
		t.Error("original must stay in place")
	}
}

func TestAddCollisionGetsTimeSuffix(t *testing.T) {
	root := t.TempDir()
	d, err := New(root)
	if err != nil {
		t.Fatal(err)
	}
	d.now = func() time.Time {
		return time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	}

	first := filepath.Join(root, "a", "report.docx")
	second := filepath.Join(root, "b", "report.docx")
	writeFile(t, first, "first")
	writeFile(t, second, "second")

	if err := d.Add(first); err != nil {
		t.Fatal(err)
	}
	if err := d.Add(second); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(d.Path, "report_150926.docx"))
	if err != nil || string(data) != "second" {
		t.Errorf("collision copy = %q, %v; want second under time-suffixed name", data, err)
	}
	// The first copy keeps the plain name.
	if data, _ := os.ReadFile(filepath.Join(d.Path, "report.docx")); string(data) != "first" {
		t.Errorf("first copy = %q, want untouched", data)
	}
}

func TestRetryable(t *testing.T) {
	root := t.TempDir()
	d, err := New(root)
	if err != nil {
		t.Fatal(err)
	}

	writeFile(t, filepath.Join(d.Path, "b.docx"), "doc")
	writeFile(t, filepath.Join(d.Path, "a.xlsx"), "book")
	writeFile(t, filepath.Join(d.Path, "~$b.docx"), "lock")
	writeFile(t, filepath.Join(d.Path, "notes.txt"), "ignored")
	if err := os.MkdirAll(filepath.Join(d.Path, "subdir"), 0o755); err != nil {
		t.Fatal(err)
	}

	items, err := d.Retryable(testExtensions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if filepath.Base(items[0].Path) != "a.xlsx" || items[0].Category != types.CategoryExcel {
		t.Errorf("items[0] = %+v, want a.xlsx/excel", items[0])
	}
	if filepath.Base(items[1].Path) != "b.docx" || items[1].Category != types.CategoryWord {
		t.Errorf("items[1] = %+v, want b.docx/word", items[1])
	}
}

func TestRetryableMissingFolder(t *testing.T) {
	d := Dir{Path: filepath.Join(t.TempDir(), "nope")}
	items, err := d.Retryable(testExtensions())
	if err != nil || items != nil {
		t.Errorf("missing folder should yield nil, nil; got %v, %v", items, err)
	}
}
