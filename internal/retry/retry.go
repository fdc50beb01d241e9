// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package retry implements the deferred-retry backoff schedule shared by
// the adapters and the catch-up engine: a handful of fixed delays tried
// in order before a caller falls through to its own recovery path.
package retry

import (
	"context"
	"time"
)

// DefaultBackoffs is the schedule a message that could not be resolved
// live is re-attempted under before falling through to advanced-search
// recovery.
var DefaultBackoffs = []time.Duration{
	20 * time.Second,
	1 * time.Minute,
	3 * time.Minute,
	5 * time.Minute,
}

// Do calls fn, and if it returns a non-nil error, retries it after each
// delay in backoffs in turn until fn succeeds, ctx is done, or the
// schedule is exhausted. It returns fn's last error.
func Do(ctx context.Context, backoffs []time.Duration, fn func() error) error {
	err := fn()
	if err == nil {
		return nil
	}

	for _, delay := range backoffs {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		err = fn()
		if err == nil {
			return nil
		}
	}
	return err
}
