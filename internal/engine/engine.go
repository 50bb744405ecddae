// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package engine adapts external office suites (LibreOffice, WPS) behind a
// common conversion interface. The engine is an untrusted, stateful external
// application: calls block, cannot be cancelled mid-flight, and may keep
// running after the caller gives up. Supervision lives in package supervise;
// this package only shapes the invocation.
package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pdiddy/officebatch/pkg/types"
)

// ErrBusy marks the transient "server busy" condition: another engine
// instance holds the application singleton. Callers retry it with a
// randomized backoff instead of the fixed one.
var ErrBusy = errors.New("engine busy")

// Engine converts one document into PDF form. Implementations are not safe
// for concurrent use: office suites keep one visible application instance
// per family, so callers must serialize conversions.
type Engine interface {
	// Family returns the engine family identifier.
	Family() types.EngineFamily

	// Available reports whether the family's binaries exist on PATH.
	Available() bool

	// Convert renders src as PDF at target. The produced file may appear
	// after Convert returns; callers poll for it separately.
	Convert(ctx context.Context, src, target string, kind types.Category) error

	// ProcessNames lists the OS process names belonging to this family,
	// for leftover-process cleanup.
	ProcessNames() []string
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, name string, args ...string) (stderr string, err error)
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stderr.String(), err
}

// family describes one office suite: the conversion binary per document
// kind and the process names to clean up. LibreOffice uses a single binary
// for every kind; WPS ships one per application.
type family struct {
	id        types.EngineFamily
	bins      map[types.Category]string
	quietArgs []string
	procNames []string
}

var libreoffice = family{
	id: types.EngineLibreOffice,
	bins: map[types.Category]string{
		types.CategoryWord:         "soffice",
		types.CategoryExcel:        "soffice",
		types.CategoryPresentation: "soffice",
	},
	quietArgs: []string{"--headless", "--invisible", "--norestore"},
	procNames: []string{"soffice", "soffice.bin"},
}

var wps = family{
	id: types.EngineWPS,
	bins: map[types.Category]string{
		types.CategoryWord:         "wps",
		types.CategoryExcel:        "et",
		types.CategoryPresentation: "wpp",
	},
	quietArgs: []string{"--headless", "--norestore"},
	procNames: []string{"wps", "et", "wpp", "wpscenter"},
}

// cliEngine implements Engine over a family's command-line interface.
type cliEngine struct {
	fam  family
	exec executor
}

func (e *cliEngine) Family() types.EngineFamily { return e.fam.id }

func (e *cliEngine) ProcessNames() []string { return e.fam.procNames }

func (e *cliEngine) Available() bool {
	seen := map[string]bool{}
	for _, bin := range e.fam.bins {
		if seen[bin] {
			continue
		}
		seen[bin] = true
		if _, err := e.exec.LookPath(bin); err != nil {
			return false
		}
	}
	return true
}

// Convert invokes the suite's headless PDF export. The suite writes
// {stem}.pdf into the output directory; when that differs from target the
// produced file is renamed into place.
func (e *cliEngine) Convert(ctx context.Context, src, target string, kind types.Category) error {
	bin, ok := e.fam.bins[kind]
	if !ok {
		return fmt.Errorf("engine %s cannot convert %s documents", e.fam.id, kind)
	}

	outDir := filepath.Dir(target)
	args := append([]string{}, e.fam.quietArgs...)
	args = append(args, "--convert-to", "pdf", "--outdir", outDir, src)

	stderr, err := e.exec.Run(ctx, bin, args...)
	if err != nil {
		return classify(stderr, err)
	}

	produced := producedPath(src, outDir)
	if produced != target {
		// Best effort: when the suite already wrote straight to target
		// there is nothing to rename, and a missing produced file is
		// caught by the artifact wait.
		_ = os.Rename(produced, target)
	}
	return nil
}

// producedPath is where the suite drops its output for src.
func producedPath(src, outDir string) string {
	stem := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	return filepath.Join(outDir, stem+".pdf")
}

// busyPatterns identify the application-singleton contention condition in
// suite stderr output.
var busyPatterns = []string{
	"is already running",
	"another instance",
	"could not establish connection",
	"busy",
}

// classify wraps err as ErrBusy when stderr shows singleton contention,
// otherwise returns a plain engine error carrying the stderr tail.
func classify(stderr string, err error) error {
	lower := strings.ToLower(stderr)
	for _, p := range busyPatterns {
		if strings.Contains(lower, p) {
			return fmt.Errorf("%w: %s", ErrBusy, firstLine(stderr))
		}
	}
	if msg := firstLine(stderr); msg != "" {
		return fmt.Errorf("engine call failed: %s: %w", msg, err)
	}
	return fmt.Errorf("engine call failed: %w", err)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}

var defaultExec executor = &osExecutor{}

// New returns the engine for the requested family, verifying availability.
// EngineAuto tries LibreOffice first, then WPS.
func New(fam types.EngineFamily) (Engine, error) {
	return newEngine(fam, defaultExec)
}

func newEngine(fam types.EngineFamily, exec executor) (Engine, error) {
	switch fam {
	case types.EngineLibreOffice:
		e := &cliEngine{fam: libreoffice, exec: exec}
		if !e.Available() {
			return nil, fmt.Errorf("libreoffice not found on PATH")
		}
		return e, nil
	case types.EngineWPS:
		e := &cliEngine{fam: wps, exec: exec}
		if !e.Available() {
			return nil, fmt.Errorf("wps office not found on PATH")
		}
		return e, nil
	case types.EngineAuto:
		for _, f := range []family{libreoffice, wps} {
			e := &cliEngine{fam: f, exec: exec}
			if e.Available() {
				return e, nil
			}
		}
		return nil, errors.New("no office engine available: neither libreoffice nor wps found")
	}
	return nil, fmt.Errorf("unknown engine family %q", fam)
}
