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

// Package notify mirrors every event-store change onto a Redis pub/sub
// channel, so an external UI or service can observe EventChanged without
// embedding the engine. It is a side channel: nothing in the core reads
// it back, and a publish failure never affects the mutation that caused it.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/eventstore"
)

// changedEnvelope is the JSON payload published to the notify channel.
type changedEnvelope struct {
	EventID   string    `json:"event_id"`
	Reason    string    `json:"reason"`
	UpdatedAt time.Time `json:"updated_at"`
	Status    string    `json:"status"`
}

// Publisher mirrors eventstore.Change notifications onto a Redis pub/sub
// channel.
type Publisher struct {
	rdb     *redis.Client
	channel string
	logger  *slog.Logger
}

// NewPublisher creates a publisher targeting channel on rdb.
func NewPublisher(rdb *redis.Client, channel string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{rdb: rdb, channel: channel, logger: logger}
}

// Attach subscribes p to store's change notifications for the lifetime
// of the process; store.Subscribe never unregisters listeners, matching
// the store's own fire-and-forget notification contract.
func (p *Publisher) Attach(store *eventstore.Store) {
	store.Subscribe(func(change eventstore.Change) {
		p.publish(context.Background(), change)
	})
}

// publish serialises change and publishes it. Failures are logged, not
// propagated — the event store's mutation already committed regardless
// of whether this side channel delivers.
func (p *Publisher) publish(ctx context.Context, change eventstore.Change) {
	envelope := changedEnvelope{
		EventID:   change.Event.EventID,
		Reason:    string(change.Reason),
		UpdatedAt: change.Event.UpdatedAt,
		Status:    string(change.Event.Status),
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		p.logger.Warn("notify: marshal change envelope failed", "event_id", change.Event.EventID, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		p.logger.Warn("notify: redis publish failed", "channel", p.channel, "event_id", change.Event.EventID, "error", err)
		return
	}

	p.logger.Debug("notify: published event change", "channel", p.channel, "event_id", change.Event.EventID, "reason", envelope.Reason)
}

// Ping checks the Redis connection.
func (p *Publisher) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := p.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("notify: redis ping: %w", err)
	}
	return nil
}
