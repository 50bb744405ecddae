// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package target computes canonical destination paths and places finished
// artifacts, resolving same-name collisions.
package target

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/officebatch/pkg/types"
)

// conflictsDir holds backups of artifacts whose canonical path was taken by
// a different-size file.
const conflictsDir = "conflicts"

// conflictStamp is the time suffix appended to conflict backup names.
const conflictStamp = "20060102150405"

// Resolver names and places artifacts under one target root. Destination
// naming is a pure function of source path and category, so repeated runs
// are deterministic regardless of processing order.
type Resolver struct {
	Root string

	// now is swappable for tests.
	now func() time.Time
}

// NewResolver returns a Resolver rooted at root.
func NewResolver(root string) *Resolver {
	return &Resolver{Root: root, now: time.Now}
}

// Path returns the canonical destination for src:
// {prefix}{base}.pdf under the root. priority substitutes the priority
// prefix for the category prefix.
func (r *Resolver) Path(src string, cat types.Category, priority bool) string {
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	prefix := cat.Prefix()
	if priority {
		prefix = types.PriorityPrefix
	}
	return filepath.Join(r.Root, prefix+base+".pdf")
}

// Place moves the scratch artifact to dest according to the collision
// policy:
//
//   - dest absent: move into place (OutcomeSucceeded)
//   - dest present, same byte size: replace it (OutcomeOverwritten)
//   - dest present, different size: move into conflicts/ under a
//     time-suffixed name, leaving dest untouched (OutcomeConflictBacked)
func (r *Resolver) Place(scratch, dest string) (types.Outcome, error) {
	destInfo, err := os.Stat(dest)
	if err != nil {
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return types.Outcome{}, fmt.Errorf("creating target directory: %w", err)
		}
		if err := moveFile(scratch, dest); err != nil {
			return types.Outcome{}, err
		}
		return types.Outcome{Kind: types.OutcomeSucceeded, Path: dest}, nil
	}

	scratchInfo, err := os.Stat(scratch)
	if err != nil {
		return types.Outcome{}, fmt.Errorf("stat scratch artifact: %w", err)
	}

	if scratchInfo.Size() == destInfo.Size() {
		if err := os.Remove(dest); err != nil {
			return types.Outcome{}, fmt.Errorf("removing stale artifact: %w", err)
		}
		if err := moveFile(scratch, dest); err != nil {
			return types.Outcome{}, err
		}
		return types.Outcome{Kind: types.OutcomeOverwritten, Path: dest}, nil
	}

	backupDir := filepath.Join(filepath.Dir(dest), conflictsDir)
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return types.Outcome{}, fmt.Errorf("creating conflicts directory: %w", err)
	}
	base := strings.TrimSuffix(filepath.Base(dest), filepath.Ext(dest))
	backup := filepath.Join(backupDir,
		fmt.Sprintf("%s_%s.pdf", base, r.now().Format(conflictStamp)))
	if err := moveFile(scratch, backup); err != nil {
		return types.Outcome{}, err
	}
	return types.Outcome{Kind: types.OutcomeConflictBacked, Path: backup}, nil
}

// moveFile renames src onto dst, falling back to copy-and-delete when the
// two sit on different filesystems (the sandbox usually lives in the system
// temp directory).
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("moving artifact: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("moving artifact: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("moving artifact: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("moving artifact: %w", err)
	}
	return os.Remove(src)
}
