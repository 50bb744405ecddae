// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collect

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/officebatch/pkg/types"
)

func writeSource(t *testing.T, root, rel, content string) types.WorkItem {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return types.WorkItem{
		Path: path,
		Ext:  filepath.Ext(rel),
		Size: int64(len(content)),
	}
}

func TestDedupeGroupsIdenticalContent(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()

	items := []types.WorkItem{
		writeSource(t, src, "report.docx", "shared content"),
		writeSource(t, src, "sub/report_copy.docx", "shared content"),
		writeSource(t, src, "notes.xlsx", "unique content"),
	}

	res, err := Dedupe(context.Background(), items, src, dst)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Total)
	require.Len(t, res.Unique, 2)
	require.Len(t, res.Duplicates, 1)

	// Lexicographically smallest path is kept.
	var kept types.UniqueRecord
	for _, u := range res.Unique {
		if u.GroupID != "" {
			kept = u
		}
	}
	assert.Equal(t, "G1", kept.GroupID)
	assert.Equal(t, filepath.Join(src, "report.docx"), kept.Source)

	dup := res.Duplicates[0]
	assert.Equal(t, "G1", dup.GroupID)
	assert.Equal(t, filepath.Join(src, "sub", "report_copy.docx"), dup.Source)
	assert.Equal(t, kept.Source, dup.KeepSource)
	assert.Equal(t, kept.Dest, dup.KeepDest)
}

func TestDedupeRelativeSourceRoot(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	items := []types.WorkItem{
		writeSource(t, src, "a.docx", "content a"),
		writeSource(t, src, "sub/b.xlsx", "content b"),
	}

	// The scanner hands Dedupe absolute item paths even when the source
	// root is the raw relative flag value.
	t.Chdir(filepath.Dir(src))
	res, err := Dedupe(context.Background(), items, filepath.Base(src), dst)
	require.NoError(t, err)

	require.Len(t, res.Unique, 2)
	dests := map[string]bool{}
	for _, u := range res.Unique {
		dests[u.Dest] = true
	}
	assert.True(t, dests[filepath.Join(dst, "a.docx")])
	assert.True(t, dests[filepath.Join(dst, "sub", "b.xlsx")])
}

func TestDedupeSameSizeDifferentContent(t *testing.T) {
	src := t.TempDir()
	items := []types.WorkItem{
		writeSource(t, src, "a.docx", "contentA"),
		writeSource(t, src, "b.docx", "contentB"), // same size, different bytes
	}

	res, err := Dedupe(context.Background(), items, src, t.TempDir())
	require.NoError(t, err)
	assert.Len(t, res.Unique, 2)
	assert.Empty(t, res.Duplicates)
	for _, u := range res.Unique {
		assert.Empty(t, u.GroupID, "hash-distinct files must not get a group")
	}
}

func TestDedupeDeterministicGroupNumbering(t *testing.T) {
	src := t.TempDir()
	items := []types.WorkItem{
		writeSource(t, src, "x1.docx", "pair one content"),
		writeSource(t, src, "x2.docx", "pair one content"),
		writeSource(t, src, "y1.xlsx", "second duplicate pair, longer"),
		writeSource(t, src, "y2.xlsx", "second duplicate pair, longer"),
	}

	first, err := Dedupe(context.Background(), items, src, t.TempDir())
	require.NoError(t, err)

	// Reversed input order must produce identical grouping.
	reversed := []types.WorkItem{items[3], items[2], items[1], items[0]}
	second, err := Dedupe(context.Background(), reversed, src, t.TempDir())
	require.NoError(t, err)

	require.Len(t, first.Duplicates, 2)
	require.Len(t, second.Duplicates, 2)
	for i := range first.Duplicates {
		assert.Equal(t, first.Duplicates[i].GroupID, second.Duplicates[i].GroupID)
		assert.Equal(t, first.Duplicates[i].Source, second.Duplicates[i].Source)
	}
	// Smaller size group is numbered first.
	assert.Equal(t, "G1", first.Duplicates[0].GroupID)
	assert.Contains(t, first.Duplicates[0].Source, "x2.docx")
	assert.Equal(t, "G2", first.Duplicates[1].GroupID)
}

func TestCopyUniquePreservesRelativePaths(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	items := []types.WorkItem{
		writeSource(t, src, "a.docx", "content a"),
		writeSource(t, src, "nested/deep/b.xlsx", "content b"),
	}

	res, err := Dedupe(context.Background(), items, src, dst)
	require.NoError(t, err)

	var out bytes.Buffer
	CopyUnique(context.Background(), &res, &out)

	assert.Equal(t, 2, res.Copied)
	data, err := os.ReadFile(filepath.Join(dst, "nested", "deep", "b.xlsx"))
	require.NoError(t, err)
	assert.Equal(t, "content b", string(data))
}

func TestCopyUniqueIdempotent(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	items := []types.WorkItem{writeSource(t, src, "a.docx", "content")}

	res, err := Dedupe(context.Background(), items, src, dst)
	require.NoError(t, err)

	var out bytes.Buffer
	CopyUnique(context.Background(), &res, &out)
	require.Equal(t, 1, res.Copied)

	// Second pass finds the destination already present.
	res2, err := Dedupe(context.Background(), items, src, dst)
	require.NoError(t, err)
	CopyUnique(context.Background(), &res2, &out)
	assert.Equal(t, 1, res2.Copied)
	assert.True(t, res2.Unique[0].Copied)
}

func TestCopyUniqueReportsFailuresWithoutAborting(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	items := []types.WorkItem{
		writeSource(t, src, "gone.docx", "content"),
		writeSource(t, src, "ok.docx", "fine"),
	}

	res, err := Dedupe(context.Background(), items, src, dst)
	require.NoError(t, err)
	require.NoError(t, os.Remove(items[0].Path))

	var out bytes.Buffer
	CopyUnique(context.Background(), &res, &out)

	assert.Equal(t, 1, res.Copied)
	assert.Contains(t, out.String(), "copy failed")
	_, err = os.Stat(filepath.Join(dst, "ok.docx"))
	assert.NoError(t, err)
}

func TestDedupeCancellation(t *testing.T) {
	src := t.TempDir()
	items := []types.WorkItem{writeSource(t, src, "a.docx", "content")}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Dedupe(ctx, items, src, t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
}
