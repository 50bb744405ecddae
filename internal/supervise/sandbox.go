// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package supervise

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// originXattrs are the extended attributes browsers and mail clients stamp
// onto downloaded files. Office suites refuse or sandbox-restrict marked
// files, so working copies have them stripped before any engine call.
var originXattrs = []string{
	"user.xdg.origin.url",
	"user.xdg.referrer.url",
}

// stripOriginMarkers removes download-origin markers from the working copy,
// best effort. The original file is never touched.
func stripOriginMarkers(path string) {
	for _, attr := range originXattrs {
		_ = unix.Removexattr(path, attr)
	}
}

// copyFile copies src to dst, replacing dst.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("copying %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("copying %s: %w", src, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("copying %s: %w", src, err)
	}
	return out.Close()
}
