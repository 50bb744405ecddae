// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package proc lists and terminates leftover engine processes by name.
// Everything here is best effort: the engine outlives abandoned calls by
// design, and a failed kill must never abort the batch.
package proc

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/pdiddy/officebatch/pkg/types"
)

// executor abstracts command execution for testing.
type executor interface {
	Run(ctx context.Context, name string, args ...string) (stdout string, err error)
}

type osExecutor struct{}

func (o *osExecutor) Run(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	return string(out), err
}

var defaultExec executor = &osExecutor{}

// Cleaner terminates leftover engine processes according to the configured
// policy. A nil Cleaner (or PolicyKeep) never touches processes.
type Cleaner struct {
	policy types.ProcessPolicy
	names  []string
	exec   executor
}

// NewCleaner builds a Cleaner for the given process names and policy.
func NewCleaner(policy types.ProcessPolicy, names []string) *Cleaner {
	return &Cleaner{policy: policy, names: names, exec: defaultExec}
}

// KeepsProcesses reports whether the policy forbids killing.
func (c *Cleaner) KeepsProcesses() bool {
	return c == nil || c.policy == types.PolicyKeep
}

// Running returns "name (PID n)" entries for every tracked process found.
func (c *Cleaner) Running(ctx context.Context) []string {
	if c == nil {
		return nil
	}
	var found []string
	for _, name := range c.names {
		out, err := c.exec.Run(ctx, "pgrep", "-x", name)
		if err != nil {
			// pgrep exits nonzero when nothing matches.
			continue
		}
		for _, pid := range strings.Fields(out) {
			found = append(found, fmt.Sprintf("%s (PID %s)", name, pid))
		}
	}
	return found
}

// KillAll force-terminates every tracked process. No-op under PolicyKeep.
func (c *Cleaner) KillAll(ctx context.Context) {
	if c.KeepsProcesses() {
		return
	}
	for _, name := range c.names {
		_, _ = c.exec.Run(ctx, "pkill", "-9", "-x", name)
	}
}
