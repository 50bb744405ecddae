// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package supervise

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/pdiddy/officebatch/internal/engine"
	"github.com/pdiddy/officebatch/pkg/types"
)

// maxEngineRetries bounds retries of a single engine call, busy or not.
const maxEngineRetries = 3

// Backoff durations. Package vars so tests can shrink them.
var (
	fixedBackoff   = time.Second
	busyBackoffMin = 2 * time.Second
	busyBackoffMax = 5 * time.Second
)

// convertWithRetry calls the engine, retrying the transient busy condition
// with a randomized 2-5 s backoff and any other engine error with a fixed
// 1 s backoff, up to maxEngineRetries. The last error surfaces to the
// caller as terminal.
func (s *Supervisor) convertWithRetry(ctx context.Context, src, scratch string, kind types.Category) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = s.Engine.Convert(ctx, src, scratch, kind)
		if err == nil {
			return nil
		}
		if attempt >= maxEngineRetries {
			return err
		}
		if errors.Is(err, engine.ErrBusy) {
			time.Sleep(busyBackoff())
		} else {
			time.Sleep(fixedBackoff)
		}
	}
}

// busyBackoff returns a random duration in [busyBackoffMin, busyBackoffMax].
// Jitter spreads retries when the suite's singleton is contended.
func busyBackoff() time.Duration {
	span := busyBackoffMax - busyBackoffMin
	if span <= 0 {
		return busyBackoffMin
	}
	return busyBackoffMin + time.Duration(rand.Int63n(int64(span)+1))
}
