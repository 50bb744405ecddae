// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package merge

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/officebatch/internal/quarantine"
	"github.com/pdiddy/officebatch/pkg/types"
)

const mb = int64(1024 * 1024)

// fakeMerger records merge calls and writes a marker output file.
type fakeMerger struct {
	calls   [][]string
	outputs []string
	failOn  string // fail any volume containing this path
}

func (f *fakeMerger) Merge(inputs []string, output string) error {
	f.calls = append(f.calls, inputs)
	f.outputs = append(f.outputs, output)
	for _, in := range inputs {
		if f.failOn != "" && in == f.failOn {
			return errors.New("malformed pdf: " + in)
		}
	}
	return os.WriteFile(output, []byte("merged"), 0o644)
}

func testEngine(t *testing.T, root string, maxBytes int64, out *bytes.Buffer) (*Engine, *fakeMerger) {
	t.Helper()
	m := &fakeMerger{}
	e := New(root, maxBytes, out)
	e.Merger = m
	e.now = func() time.Time {
		return time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	}
	return e, m
}

func writePDF(t *testing.T, root, name string, size int) string {
	t.Helper()
	path := filepath.Join(root, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, bytes.Repeat([]byte("x"), size), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPackVolumes(t *testing.T) {
	sizes := map[string]int64{}
	sizeFn := func(p string) (int64, error) {
		s, ok := sizes[p]
		if !ok {
			return 0, errors.New("unreadable")
		}
		return s, nil
	}

	tests := []struct {
		name  string
		files map[string]int64
		order []string
		max   int64
		want  [][]string
	}{
		{
			name:  "greedy split at cap",
			files: map[string]int64{"a": 50 * mb, "b": 40 * mb, "c": 10 * mb},
			order: []string{"a", "b", "c"},
			max:   80 * mb,
			want:  [][]string{{"a"}, {"b", "c"}},
		},
		{
			name:  "everything fits in one volume",
			files: map[string]int64{"a": 10 * mb, "b": 10 * mb},
			order: []string{"a", "b"},
			max:   80 * mb,
			want:  [][]string{{"a", "b"}},
		},
		{
			name:  "oversize file becomes singleton",
			files: map[string]int64{"a": 10 * mb, "big": 200 * mb, "b": 10 * mb},
			order: []string{"a", "big", "b"},
			max:   80 * mb,
			want:  [][]string{{"a"}, {"big"}, {"b"}},
		},
		{
			name:  "unreadable file dropped",
			files: map[string]int64{"a": 10 * mb},
			order: []string{"a", "ghost"},
			max:   80 * mb,
			want:  [][]string{{"a"}},
		},
		{
			name:  "exact fit stays together",
			files: map[string]int64{"a": 40 * mb, "b": 40 * mb},
			order: []string{"a", "b"},
			max:   80 * mb,
			want:  [][]string{{"a", "b"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sizes = tt.files
			got := packVolumes(tt.order, tt.max, sizeFn)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d volumes %v, want %d %v", len(got), got, len(tt.want), tt.want)
			}
			for i := range got {
				if strings.Join(got[i], ",") != strings.Join(tt.want[i], ",") {
					t.Errorf("volume %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestRunCategorySplit(t *testing.T) {
	root := t.TempDir()
	var out bytes.Buffer
	e, m := testEngine(t, root, 80*mb, &out)

	writePDF(t, root, "Word_a.pdf", 10)
	writePDF(t, root, "Word_b.pdf", 10)
	writePDF(t, root, "Excel_c.pdf", 10)
	writePDF(t, root, "Price_q.pdf", 10)

	n, err := e.Run(context.Background(), types.MergeCategorySplit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Fatalf("wrote %d volumes, want 3 (price, word, excel)", n)
	}

	names := make([]string, len(m.outputs))
	for i, o := range m.outputs {
		names[i] = filepath.Base(o)
	}
	want := []string{
		"Merged_Price_20260314_150926_1.pdf",
		"Merged_Word_20260314_150926_1.pdf",
		"Merged_Excel_20260314_150926_1.pdf",
	}
	for i, w := range want {
		if names[i] != w {
			t.Errorf("output %d = %q, want %q", i, names[i], w)
		}
	}
	// Word volume holds both word files, sorted.
	if len(m.calls[1]) != 2 {
		t.Errorf("word volume has %d inputs, want 2", len(m.calls[1]))
	}
}

func TestRunAllInOne(t *testing.T) {
	root := t.TempDir()
	var out bytes.Buffer
	e, m := testEngine(t, root, 80*mb, &out)

	writePDF(t, root, "Word_a.pdf", 10)
	writePDF(t, root, "PDF_b.pdf", 10)

	n, err := e.Run(context.Background(), types.MergeAllInOne)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Fatalf("wrote %d volumes, want 1", n)
	}
	if base := filepath.Base(m.outputs[0]); base != "Merged_All_20260314_150926.pdf" {
		t.Errorf("output = %q", base)
	}
	if len(m.calls[0]) != 2 {
		t.Errorf("combined volume has %d inputs, want 2", len(m.calls[0]))
	}
}

func TestRunSkipsQuarantineAndMergedFolders(t *testing.T) {
	root := t.TempDir()
	var out bytes.Buffer
	e, m := testEngine(t, root, 80*mb, &out)

	writePDF(t, root, "Word_a.pdf", 10)
	writePDF(t, root, filepath.Join(quarantine.FolderName, "Word_bad.pdf"), 10)
	writePDF(t, root, filepath.Join(OutputDirName, "Merged_Word_old_1.pdf"), 10)

	if _, err := e.Run(context.Background(), types.MergeAllInOne); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m.calls) != 1 || len(m.calls[0]) != 1 {
		t.Fatalf("calls = %v, want single input", m.calls)
	}
	if filepath.Base(m.calls[0][0]) != "Word_a.pdf" {
		t.Errorf("input = %q, want Word_a.pdf", m.calls[0][0])
	}
}

func TestRunVolumeFailureIsolation(t *testing.T) {
	root := t.TempDir()
	var out bytes.Buffer
	e, m := testEngine(t, root, 80*mb, &out)

	bad := writePDF(t, root, "Excel_bad.pdf", 10)
	writePDF(t, root, "Word_a.pdf", 10)
	m.failOn = bad

	n, err := e.Run(context.Background(), types.MergeCategorySplit)
	if err != nil {
		t.Fatalf("per-volume failure must not abort the run: %v", err)
	}
	if n != 1 {
		t.Errorf("wrote %d volumes, want 1 (word only)", n)
	}
	if !strings.Contains(out.String(), "volume 1 failed") {
		t.Errorf("output missing failure notice: %q", out.String())
	}
}

func TestRunAllInOneFailureIsolation(t *testing.T) {
	root := t.TempDir()
	var out bytes.Buffer
	e, m := testEngine(t, root, 80*mb, &out)

	bad := writePDF(t, root, "Word_bad.pdf", 10)
	writePDF(t, root, "Excel_a.pdf", 10)
	m.failOn = bad

	n, err := e.Run(context.Background(), types.MergeAllInOne)
	if err != nil {
		t.Fatalf("merge failure must not abort the run: %v", err)
	}
	if n != 0 {
		t.Errorf("wrote %d volumes, want 0", n)
	}
	if !strings.Contains(out.String(), "merge failed") {
		t.Errorf("output missing failure notice: %q", out.String())
	}
}

func TestRunNoArtifacts(t *testing.T) {
	root := t.TempDir()
	var out bytes.Buffer
	e, m := testEngine(t, root, 80*mb, &out)

	n, err := e.Run(context.Background(), types.MergeCategorySplit)
	if err != nil || n != 0 {
		t.Fatalf("empty target: n=%d, err=%v; want 0, nil", n, err)
	}
	if len(m.calls) != 0 {
		t.Errorf("merger called with no artifacts")
	}
	if !strings.Contains(out.String(), "no PDF artifacts") {
		t.Errorf("output = %q", out.String())
	}
}
