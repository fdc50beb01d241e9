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

package catchup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DistLock coordinates catch-up across multiple engine replicas sharing
// one event store, using the same Redis SETNX pattern a dedup filter
// uses for activity-feed events: a short-lived tick lock so only one
// replica drains a given tick, and a longer-lived not-found suppression
// cache so replicas don't all re-search an entry-id every other replica
// has already confirmed absent.
type DistLock struct {
	rdb         *redis.Client
	tickTTL     time.Duration
	notFoundTTL time.Duration
}

// NewDistLock wraps rdb as a catch-up coordinator. A nil *DistLock
// (the zero value of the type, via (*DistLock)(nil)) is valid and
// disables coordination — every method treats it as "act as if alone".
func NewDistLock(rdb *redis.Client) *DistLock {
	return &DistLock{rdb: rdb, tickTTL: 2 * time.Minute, notFoundTTL: 24 * time.Hour}
}

// TryAcquireTick reports whether this replica should run the current
// drain tick. On a Redis error it fails open — a transient outage
// degrades to "every replica drains", not "no replica drains".
func (d *DistLock) TryAcquireTick(ctx context.Context) bool {
	if d == nil || d.rdb == nil {
		return true
	}
	ok, err := d.rdb.SetNX(ctx, "osem:catchup:tick-lock", 1, d.tickTTL).Result()
	if err != nil {
		return true
	}
	return ok
}

// IsNotFoundSuppressed reports whether entryID was recently confirmed
// absent by any replica.
func (d *DistLock) IsNotFoundSuppressed(ctx context.Context, entryID string) bool {
	if d == nil || d.rdb == nil {
		return false
	}
	n, err := d.rdb.Exists(ctx, notFoundKey(entryID)).Result()
	return err == nil && n > 0
}

// MarkNotFound records entryID as exhausted so other replicas skip it.
func (d *DistLock) MarkNotFound(ctx context.Context, entryID string) {
	if d == nil || d.rdb == nil {
		return
	}
	d.rdb.SetNX(ctx, notFoundKey(entryID), 1, d.notFoundTTL)
}

func notFoundKey(entryID string) string {
	return fmt.Sprintf("osem:catchup:notfound:%s", entryID)
}
