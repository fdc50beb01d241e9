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

package notify

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/eventstore"
	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// unreachableClient points at a loopback port nothing listens on, so every
// call fails fast with a connection-refused error — enough to exercise the
// publisher's fail-open error handling without a live Redis server.
func unreachableClient() *redis.Client {
	return redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond})
}

func TestPing_ReturnsErrorWhenRedisUnreachable(t *testing.T) {
	p := NewPublisher(unreachableClient(), "osem:event-changed", discardLogger())
	err := p.Ping(context.Background())
	assert.Error(t, err)
}

func TestAttach_PublishFailureDoesNotPanicOrBlockTheStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")
	store, err := eventstore.Open(path, time.Now, discardLogger())
	require.NoError(t, err)

	p := NewPublisher(unreachableClient(), "osem:event-changed", discardLogger())
	p.Attach(store)

	assert.NotPanics(t, func() {
		_, err := store.CreateFromMail(model.MailSnapshot{
			EntryID:      "1",
			Participants: model.NewStringSet("a@x.com"),
		}, "", nil)
		require.NoError(t, err)
	})
}
