// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// UniqueRecord is one row of the unique-files index table: a size-unique or
// hash-unique file, or the kept representative of a duplicate group.
type UniqueRecord struct {
	// GroupID is "G1", "G2", ... for kept representatives and empty for
	// files with no duplicates.
	GroupID string

	// Source is the absolute source path.
	Source string

	// Dest is the copy destination under the target root, preserving the
	// source-relative path. Populated in both collect sub-modes; only
	// copy_and_index actually writes it.
	Dest string

	Ext  string
	Size int64

	// Copied reports whether the copy step placed (or found) the file at
	// Dest.
	Copied bool
}

// DuplicateRecord is one row of the duplicates index table. Every duplicate
// references its group's kept file.
type DuplicateRecord struct {
	GroupID string
	Source  string
	Ext     string
	Size    int64

	// KeepSource and KeepDest locate the kept representative this file
	// duplicates.
	KeepSource string
	KeepDest   string
}
