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

package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDo_SucceedsOnFirstTry(t *testing.T) {
	calls := 0
	err := Do(context.Background(), []time.Duration{time.Hour}, func() error {
		calls++
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, calls, "must not sleep through the backoff schedule when fn succeeds immediately")
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	backoffs := []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond}
	err := Do(context.Background(), backoffs, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ExhaustsScheduleAndReturnsLastError(t *testing.T) {
	calls := 0
	backoffs := []time.Duration{time.Millisecond, time.Millisecond}
	wantErr := errors.New("still failing")
	err := Do(context.Background(), backoffs, func() error {
		calls++
		return wantErr
	})
	assert.Equal(t, wantErr, err)
	assert.Equal(t, 3, calls, "one initial attempt plus one retry per backoff entry")
}

func TestDo_ContextCancelledDuringBackoffStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	backoffs := []time.Duration{50 * time.Millisecond, time.Hour}

	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()

	err := Do(ctx, backoffs, func() error {
		calls++
		return errors.New("always fails")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls, "cancellation during the first backoff wait must prevent any further attempt")
}
