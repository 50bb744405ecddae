// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package collect deduplicates a file population and builds the index
// report input. Two files are duplicates iff they share both byte size and
// full-content hash; size-unique files are never hashed.
package collect

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/pdiddy/officebatch/pkg/types"
)

// Result holds the classified population and copy counters.
type Result struct {
	Unique     []types.UniqueRecord
	Duplicates []types.DuplicateRecord
	Total      int
	Copied     int
}

// Dedupe partitions items by size, then by content hash within multi-member
// size groups, and classifies every file as unique, kept, or duplicate.
//
// The kept representative of each duplicate group is the member with the
// lexicographically smallest source path. Traversal order varies across
// platforms and filesystems, so ordering by path keeps the keep selection
// (and group numbering) stable across runs.
func Dedupe(ctx context.Context, items []types.WorkItem, sourceRoot, targetRoot string) (Result, error) {
	res := Result{Total: len(items)}

	// Item paths arrive absolute from the scanner; the root may still be
	// the raw flag value, so normalize it before relativizing against it.
	root, err := filepath.Abs(sourceRoot)
	if err != nil {
		return res, fmt.Errorf("resolving source root %s: %w", sourceRoot, err)
	}

	bySize := make(map[int64][]types.WorkItem)
	for _, it := range items {
		bySize[it.Size] = append(bySize[it.Size], it)
	}

	sizes := make([]int64, 0, len(bySize))
	for size := range bySize {
		sizes = append(sizes, size)
	}
	sort.Slice(sizes, func(i, j int) bool { return sizes[i] < sizes[j] })

	groupID := 0
	for _, size := range sizes {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		group := bySize[size]
		if len(group) == 1 {
			rec, err := uniqueRecord(group[0], root, targetRoot, "")
			if err != nil {
				return res, err
			}
			res.Unique = append(res.Unique, rec)
			continue
		}

		byHash := make(map[string][]types.WorkItem)
		for _, it := range group {
			sum, err := hashFile(it.Path)
			if err != nil {
				// Unreadable files cannot be proven duplicates; treat
				// them as unique.
				rec, recErr := uniqueRecord(it, root, targetRoot, "")
				if recErr != nil {
					return res, recErr
				}
				res.Unique = append(res.Unique, rec)
				continue
			}
			byHash[sum] = append(byHash[sum], it)
		}

		hashes := make([]string, 0, len(byHash))
		for sum := range byHash {
			hashes = append(hashes, sum)
		}
		sort.Strings(hashes)

		for _, sum := range hashes {
			members := byHash[sum]
			sort.Slice(members, func(i, j int) bool { return members[i].Path < members[j].Path })

			if len(members) == 1 {
				rec, err := uniqueRecord(members[0], root, targetRoot, "")
				if err != nil {
					return res, err
				}
				res.Unique = append(res.Unique, rec)
				continue
			}

			groupID++
			id := fmt.Sprintf("G%d", groupID)
			keep, err := uniqueRecord(members[0], root, targetRoot, id)
			if err != nil {
				return res, err
			}
			res.Unique = append(res.Unique, keep)

			for _, dup := range members[1:] {
				res.Duplicates = append(res.Duplicates, types.DuplicateRecord{
					GroupID:    id,
					Source:     dup.Path,
					Ext:        dup.Ext,
					Size:       dup.Size,
					KeepSource: keep.Source,
					KeepDest:   keep.Dest,
				})
			}
		}
	}

	return res, nil
}

// CopyUnique copies every unique/kept file to its destination, preserving
// the source-relative path. Existing destinations are left alone, making
// repeated runs idempotent. Copy failures are reported on w and recorded on
// the record, never returned.
func CopyUnique(ctx context.Context, res *Result, w io.Writer) {
	for i := range res.Unique {
		if ctx.Err() != nil {
			return
		}
		rec := &res.Unique[i]
		if err := os.MkdirAll(filepath.Dir(rec.Dest), 0o755); err != nil {
			fmt.Fprintf(w, "copy failed: %s: %v\n", rec.Source, err)
			continue
		}
		if _, err := os.Stat(rec.Dest); err == nil {
			rec.Copied = true
			res.Copied++
			continue
		}
		if err := copyFile(rec.Source, rec.Dest); err != nil {
			fmt.Fprintf(w, "copy failed: %s: %v\n", rec.Source, err)
			continue
		}
		rec.Copied = true
		res.Copied++
	}
}

func uniqueRecord(it types.WorkItem, sourceRoot, targetRoot, groupID string) (types.UniqueRecord, error) {
	rel, err := filepath.Rel(sourceRoot, it.Path)
	if err != nil {
		return types.UniqueRecord{}, fmt.Errorf("relativizing %s: %w", it.Path, err)
	}
	return types.UniqueRecord{
		GroupID: groupID,
		Source:  it.Path,
		Dest:    filepath.Join(targetRoot, rel),
		Ext:     it.Ext,
		Size:    it.Size,
	}, nil
}

// hashFile streams the full file content through SHA-256.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}
