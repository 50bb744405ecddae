// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package supervise

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/officebatch/pkg/types"
)

// maxFailureSample bounds the failure list persisted in the manifest.
const maxFailureSample = 10

// Manifest is the per-run summary written next to the target root after a
// batch. It records what ran and how it went; the quarantine folder, not
// the manifest, seeds retry passes.
type Manifest struct {
	StartedAt  time.Time             `yaml:"started_at"`
	FinishedAt time.Time             `yaml:"finished_at"`
	Mode       types.RunMode         `yaml:"mode"`
	Engine     string                `yaml:"engine,omitempty"`
	Source     string                `yaml:"source"`
	Target     string                `yaml:"target"`
	Strategy   types.ContentStrategy `yaml:"strategy,omitempty"`
	Stats      types.BatchStats      `yaml:"stats"`
	Failures   []types.ErrorRecord   `yaml:"failures,omitempty"`
}

// WriteManifest writes m as run_{timestamp}.yaml under dir and returns the
// path. The failure list is truncated to a bounded sample.
func WriteManifest(dir string, m Manifest) (string, error) {
	if len(m.Failures) > maxFailureSample {
		m.Failures = m.Failures[:maxFailureSample]
	}
	data, err := yaml.Marshal(&m)
	if err != nil {
		return "", fmt.Errorf("encoding run manifest: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("run_%s.yaml", m.StartedAt.Format("20060102_150405")))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing run manifest: %w", err)
	}
	return path, nil
}
