// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package quarantine isolates inputs whose conversion failed or timed out.
// The quarantine folder persists across process restarts and seeds the
// optional retry pass.
package quarantine

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/officebatch/pkg/types"
)

// FolderName is the quarantine folder under the target root.
const FolderName = "_FAILED_FILES"

// collisionStamp disambiguates quarantined files sharing a name.
const collisionStamp = "150405"

// Dir is a quarantine folder.
type Dir struct {
	Path string

	now func() time.Time
}

// New returns a Dir under targetRoot, creating the folder.
func New(targetRoot string) (Dir, error) {
	d := Dir{Path: filepath.Join(targetRoot, FolderName), now: time.Now}
	if err := os.MkdirAll(d.Path, 0o755); err != nil {
		return Dir{}, fmt.Errorf("creating quarantine folder: %w", err)
	}
	return d, nil
}

// Add copies src into the quarantine folder, appending a time suffix when
// a file of that name is already quarantined. The original is left in place.
func (d Dir) Add(src string) error {
	name := filepath.Base(src)
	dst := filepath.Join(d.Path, name)
	if _, err := os.Stat(dst); err == nil {
		ext := filepath.Ext(name)
		stem := strings.TrimSuffix(name, ext)
		dst = filepath.Join(d.Path,
			fmt.Sprintf("%s_%s%s", stem, d.now().Format(collisionStamp), ext))
	}
	return copyFile(src, dst)
}

// Retryable lists quarantined files re-filtered by the allowed extensions,
// as WorkItems for a second supervised pass. Lock files are skipped the
// same way the scanner skips them.
func (d Dir) Retryable(exts types.Extensions) ([]types.WorkItem, error) {
	entries, err := os.ReadDir(d.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading quarantine folder: %w", err)
	}

	var items []types.WorkItem
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), "~$") {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		cat, ok := exts.CategoryOf(ext)
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		items = append(items, types.WorkItem{
			Path:     filepath.Join(d.Path, entry.Name()),
			Ext:      ext,
			Category: cat,
			Size:     info.Size(),
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Path < items[j].Path })
	return items, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("quarantining %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("quarantining %s: %w", src, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("quarantining %s: %w", src, err)
	}
	return out.Close()
}
