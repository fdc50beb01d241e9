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

// Package catchup recovers messages the live ingestion path missed: late
// delivery, indexing lag, mail delivered to an unmonitored folder, or
// historical backfill the first time an event is associated with a
// conversation.
package catchup

import (
	"time"

	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/retry"
)

// Config tunes the queue, scheduler, and search subsystems. DefaultConfig
// returns the production tuning.
type Config struct {
	TickInterval time.Duration
	InitialDelay time.Duration
	DrainPerTick int

	LookbackNormal     time.Duration
	LookbackFull       time.Duration
	LookbackExtension  time.Duration
	MaxSubjectTokens   int
	WildcardMaxTokens  int
	SyncPollInterval   time.Duration

	SearchDebounce     time.Duration
	SearchMaxRetries   int
	SearchRetryBackoff time.Duration

	DeferredBackoffs []time.Duration
}

// DefaultConfig returns the production tuning named throughout §4.4.
func DefaultConfig() Config {
	return Config{
		TickInterval: 15 * time.Minute,
		InitialDelay: 10 * time.Second,
		DrainPerTick: 20,

		LookbackNormal:    14 * 24 * time.Hour,
		LookbackFull:      3650 * 24 * time.Hour,
		LookbackExtension: 12 * time.Hour,
		MaxSubjectTokens:  5,
		WildcardMaxTokens: 3,
		SyncPollInterval:  30 * time.Second,

		SearchDebounce:     2 * time.Second,
		SearchMaxRetries:   10,
		SearchRetryBackoff: 5 * time.Second,

		DeferredBackoffs: retry.DefaultBackoffs,
	}
}
