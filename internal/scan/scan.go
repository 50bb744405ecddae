// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scan walks a source tree and yields the ordered work list for the
// conversion and collect branches.
package scan

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdiddy/officebatch/pkg/types"
)

// ErrSourceNotFound reports a missing source root. Callers treat it as a
// reportable condition, not a fatal one: the batch proceeds with zero files.
var ErrSourceNotFound = errors.New("source folder does not exist")

// lockPrefix marks editor lock files (e.g. "~$report.docx"); they are
// always excluded.
const lockPrefix = "~$"

// excludeSet holds the two exclusion flavors: bare folder names matched
// case-insensitively anywhere in the tree, and explicit paths matched
// against the absolute directory path.
type excludeSet struct {
	names map[string]bool
	paths map[string]bool
}

func buildExcludes(entries []string) excludeSet {
	ex := excludeSet{
		names: make(map[string]bool),
		paths: make(map[string]bool),
	}
	for _, e := range entries {
		if e == "" {
			continue
		}
		if filepath.IsAbs(e) || strings.ContainsAny(e, `/\`) {
			if abs, err := filepath.Abs(e); err == nil {
				ex.paths[strings.ToLower(abs)] = true
			}
			continue
		}
		ex.names[strings.ToLower(e)] = true
	}
	return ex
}

func (ex excludeSet) match(dirPath, name string) bool {
	if ex.names[strings.ToLower(name)] {
		return true
	}
	if abs, err := filepath.Abs(dirPath); err == nil {
		return ex.paths[strings.ToLower(abs)]
	}
	return false
}

// Scan walks root and returns one WorkItem per file whose extension appears
// in exts, skipping excluded folders and lock files. The result is sorted by
// path so repeated runs process files in the same order.
func Scan(root string, exts types.Extensions, excluded []string) ([]types.WorkItem, error) {
	if _, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSourceNotFound
		}
		return nil, err
	}

	ex := buildExcludes(excluded)
	var items []types.WorkItem

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && ex.match(path, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		name := d.Name()
		if strings.HasPrefix(name, lockPrefix) {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(name))
		cat, ok := exts.CategoryOf(ext)
		if !ok {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			// File vanished mid-walk; skip it.
			return nil
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		items = append(items, types.WorkItem{
			Path:     abs,
			Ext:      ext,
			Category: cat,
			Size:     info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Path < items[j].Path })
	return items, nil
}
