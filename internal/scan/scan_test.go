// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scan

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

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

func basenames(items []types.WorkItem) []string {
	var names []string
	for _, it := range items {
		names = append(names, filepath.Base(it.Path))
	}
	return names
}

func TestScanSelectsAndClassifies(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "report.docx"), "word content")
	writeFile(t, filepath.Join(root, "sub", "prices.xlsx"), "excel content")
	writeFile(t, filepath.Join(root, "deck.pptx"), "slides")
	writeFile(t, filepath.Join(root, "scan.pdf"), "pdf")
	writeFile(t, filepath.Join(root, "notes.txt"), "ignored")

	items, err := Scan(root, testExtensions(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 4 {
		t.Fatalf("got %d items, want 4: %v", len(items), basenames(items))
	}

	byName := map[string]types.WorkItem{}
	for _, it := range items {
		byName[filepath.Base(it.Path)] = it
	}
	if byName["report.docx"].Category != types.CategoryWord {
		t.Errorf("report.docx category = %q, want word", byName["report.docx"].Category)
	}
	if byName["prices.xlsx"].Category != types.CategoryExcel {
		t.Errorf("prices.xlsx category = %q, want excel", byName["prices.xlsx"].Category)
	}
	if byName["deck.pptx"].Category != types.CategoryPresentation {
		t.Errorf("deck.pptx category = %q, want powerpoint", byName["deck.pptx"].Category)
	}
	if byName["scan.pdf"].Category != types.CategoryPDF {
		t.Errorf("scan.pdf category = %q, want pdf", byName["scan.pdf"].Category)
	}
	if byName["report.docx"].Size != int64(len("word content")) {
		t.Errorf("report.docx size = %d, want %d", byName["report.docx"].Size, len("word content"))
	}
	if byName["report.docx"].Ext != ".docx" {
		t.Errorf("report.docx ext = %q, want .docx", byName["report.docx"].Ext)
	}
}

func TestScanUppercaseExtension(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "REPORT.DOCX"), "x")

	items, err := Scan(root, testExtensions(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	if items[0].Ext != ".docx" {
		t.Errorf("ext = %q, want lowercase .docx", items[0].Ext)
	}
}

func TestScanSkipsLockFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "report.docx"), "x")
	writeFile(t, filepath.Join(root, "~$report.docx"), "lock")

	items, err := Scan(root, testExtensions(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || filepath.Base(items[0].Path) != "report.docx" {
		t.Errorf("got %v, want [report.docx]", basenames(items))
	}
}

func TestScanExcludedFolderNames(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "keep.docx"), "x")
	writeFile(t, filepath.Join(root, "temp", "dropped.docx"), "x")
	writeFile(t, filepath.Join(root, "sub", "Backup", "dropped.xlsx"), "x")

	items, err := Scan(root, testExtensions(), []string{"temp", "backup"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || filepath.Base(items[0].Path) != "keep.docx" {
		t.Errorf("got %v, want [keep.docx]: excluded names must match case-insensitively at any depth",
			basenames(items))
	}
}

func TestScanExcludedFolderPath(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "keep.docx"), "x")
	writeFile(t, filepath.Join(root, "b", "dropped.docx"), "x")

	items, err := Scan(root, testExtensions(), []string{filepath.Join(root, "b")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || filepath.Base(items[0].Path) != "keep.docx" {
		t.Errorf("got %v, want [keep.docx]", basenames(items))
	}
}

func TestScanSortedByPath(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "z.docx"), "x")
	writeFile(t, filepath.Join(root, "a.docx"), "x")
	writeFile(t, filepath.Join(root, "m", "b.docx"), "x")

	items, err := Scan(root, testExtensions(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sort.SliceIsSorted(items, func(i, j int) bool { return items[i].Path < items[j].Path }) {
		t.Errorf("items not sorted: %v", basenames(items))
	}
}

func TestScanMissingSource(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "nope"), testExtensions(), nil)
	if !errors.Is(err, ErrSourceNotFound) {
		t.Errorf("got %v, want ErrSourceNotFound", err)
	}
}
