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

// Package ingestion is the thin, stateless facade the mail-source
// adapters and the catch-up engine both enter the event store through.
package ingestion

import (
	"context"
	"log/slog"
	"time"

	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/catchup"
	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/eventstore"
	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/metrics"
	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/model"
	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/osemerr"
)

// Facade is the public entry point over the event store and catch-up
// engine. It holds no state of its own.
type Facade struct {
	store   *eventstore.Store
	catchup *catchup.Engine
	logger  *slog.Logger
}

// New builds a Facade over store and catchup. Either may be used
// independently; catchup may be nil for callers that never trigger
// background discovery.
func New(store *eventstore.Store, engine *catchup.Engine, logger *slog.Logger) *Facade {
	if logger == nil {
		logger = slog.Default()
	}
	return &Facade{store: store, catchup: engine, logger: logger}
}

// TryAddMail is the live-mail entry point: a snapshot with an empty
// conversation_id is rejected outright (InvalidSnapshot); otherwise the
// matching engine is run and, on acceptance, the mail is upserted with
// allow_restore=false.
func (f *Facade) TryAddMail(snapshot model.MailSnapshot, preferredEventID string) (model.Event, error) {
	if snapshot.ConversationID == "" {
		return model.Event{}, osemerr.InvalidSnapshotf("mail snapshot missing conversation_id")
	}

	ev, candidate, err := f.store.TryAddMail(snapshot, preferredEventID)
	if err != nil {
		return model.Event{}, err
	}
	if candidate == nil {
		metrics.MailAccepted.WithLabelValues("dropped").Inc()
		f.logger.Info("mail dropped: no candidate cleared the acceptance threshold",
			"conversation_id", snapshot.ConversationID,
			"subject", snapshot.Subject,
		)
		return model.Event{}, nil
	}

	metrics.MailAccepted.WithLabelValues("accepted").Inc()
	metrics.MatchScore.Observe(candidate.Score)
	f.logger.Info("mail accepted into event",
		"event_id", ev.EventID,
		"score", candidate.Score,
		"reasons", candidate.Reasons,
		"preferred_applied", candidate.PreferredApplied,
	)
	return ev, nil
}

// AddMailToEvent bypasses matching and always appends snapshot to
// eventID, restoring a soft-deleted member if the snapshot matches one.
func (f *Facade) AddMailToEvent(eventID string, snapshot model.MailSnapshot) (model.Event, error) {
	return f.store.AddMailToEvent(eventID, snapshot)
}

// CreateEventFromMail allocates a new event from snapshot.
func (f *Facade) CreateEventFromMail(snapshot model.MailSnapshot, templateID string, knownParticipants []string) (model.Event, error) {
	return f.store.CreateFromMail(snapshot, templateID, knownParticipants)
}

// RemoveMail soft-deletes a member of eventID by entryID or messageID.
func (f *Facade) RemoveMail(eventID, entryID, messageID string) error {
	return f.store.RemoveMail(eventID, entryID, messageID)
}

// MarkMessageIDsNotFound records ids as searched-for-and-absent on
// eventID, suppressing future catch-up search attempts for them.
func (f *Facade) MarkMessageIDsNotFound(eventID string, ids []string) error {
	return f.store.MarkMessageIDsNotFound(eventID, ids)
}

// TriggerCatchup enqueues a catch-up request per conversation ID not
// already tracked, always preferring eventID when the queue rotates.
// When immediate is true, it blocks the calling goroutine until either
// the requests it enqueued drain or timeout elapses; the rest stay
// queued for the regular tick either way.
func (f *Facade) TriggerCatchup(ctx context.Context, eventID string, conversationIDs []string, immediate bool, timeout time.Duration, fullHistory bool) {
	if f.catchup == nil {
		return
	}
	enqueued := f.catchup.Enqueue(eventID, conversationIDs, fullHistory)
	if !immediate || len(enqueued) == 0 {
		return
	}

	deadlineCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	f.catchup.DrainNow(deadlineCtx, enqueued)
}
