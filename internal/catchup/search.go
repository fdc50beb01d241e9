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
	"strings"
	"sync"
	"time"

	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/adapter"
	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/metrics"
)

// searchItem is one entry-id the primary path failed to resolve, pending
// retry through the advanced-search secondary queue.
type searchItem struct {
	eventID        string
	entryID        string
	messageID      string
	conversationID string
	attempts       int
}

// searchQueue is the sync-aware secondary queue §4.4 describes: a
// debounce timer coalesces bursts of unresolved entry-ids into one
// advanced-search call, and unresolved ids are retried with backoff up
// to SearchMaxRetries times.
type searchQueue struct {
	engine *Engine

	mu    sync.Mutex
	items map[string]*searchItem

	timer       *time.Timer
	timerActive bool
}

func newSearchQueue(e *Engine) *searchQueue {
	return &searchQueue{engine: e, items: make(map[string]*searchItem)}
}

// enqueueEntry adds entryID to the pending-search queue and (re)starts
// the debounce timer, unless synchronisation is active, in which case
// the item waits for the next SyncEnd-triggered flush. messageID, when
// known, is carried along so an entry that's still unresolved once
// retries are exhausted can be reported to the store by message-id.
func (q *searchQueue) enqueueEntry(eventID, entryID, messageID, conversationID string) {
	if q.engine.dist.IsNotFoundSuppressed(context.Background(), entryID) {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if item, ok := q.items[entryID]; ok {
		item.conversationID = conversationID
		if messageID != "" {
			item.messageID = messageID
		}
	} else {
		q.items[entryID] = &searchItem{eventID: eventID, entryID: entryID, messageID: messageID, conversationID: conversationID}
	}

	if q.engine.paused() {
		return
	}
	q.scheduleLocked()
}

func (q *searchQueue) scheduleLocked() {
	if q.timerActive {
		if q.timer.Stop() {
			q.timer.Reset(q.engine.cfg.SearchDebounce)
			return
		}
	}
	q.timerActive = true
	q.timer = time.AfterFunc(q.engine.cfg.SearchDebounce, func() {
		q.runSearch(context.Background())
	})
}

// flush forces an immediate advanced-search pass, bypassing the
// debounce timer. Called on SyncEnd and by the 30s force-drain poll.
func (q *searchQueue) flush(ctx context.Context) {
	q.mu.Lock()
	if q.timerActive {
		q.timer.Stop()
		q.timerActive = false
	}
	empty := len(q.items) == 0
	q.mu.Unlock()
	if empty || q.engine.paused() {
		return
	}
	q.runSearch(ctx)
}

func (q *searchQueue) runForceDrain(ctx context.Context) {
	defer q.engine.wg.Done()

	ticker := time.NewTicker(q.engine.cfg.SyncPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-q.engine.stopCh:
			return
		case <-ticker.C:
			if !q.engine.paused() {
				q.flush(ctx)
			}
		}
	}
}

func (q *searchQueue) runSearch(ctx context.Context) {
	q.mu.Lock()
	q.timerActive = false
	pending := make([]*searchItem, 0, len(q.items))
	convIDs := make(map[string]struct{})
	for _, item := range q.items {
		pending = append(pending, item)
		if item.conversationID != "" {
			convIDs[item.conversationID] = struct{}{}
		}
	}
	q.mu.Unlock()

	if len(pending) == 0 {
		return
	}

	since := time.Now().UTC().Add(-60 * time.Minute)
	baseFilter := adapter.Filter{CreatedSince: since}

	matched := make(map[string]struct{})
	for id := range convIDs {
		f := baseFilter
		f.ConversationID = id
		handles, err := q.engine.source.Search(ctx, "mailbox", f)
		if err != nil {
			continue
		}
		for _, h := range handles {
			matched[strings.ToUpper(h.EntryID)] = struct{}{}
			eventID := q.findEventID(h.EntryID, pending)
			if eventID == "" {
				continue
			}
			q.engine.ingestHandles(ctx, eventID, make(map[string]struct{}), []adapter.Handle{h})
		}
	}

	genericHandles, err := q.engine.source.Search(ctx, "mailbox", baseFilter)
	if err == nil {
		for _, h := range genericHandles {
			matched[strings.ToUpper(h.EntryID)] = struct{}{}
		}
	}

	exhaustedMessageIDs := make(map[string][]string)

	q.mu.Lock()
	for _, item := range pending {
		if _, ok := matched[strings.ToUpper(item.entryID)]; ok {
			metrics.CatchupSearchRetries.WithLabelValues("resolved").Inc()
			delete(q.items, item.entryID)
			continue
		}
		item.attempts++
		if item.attempts >= q.engine.cfg.SearchMaxRetries {
			metrics.CatchupSearchRetries.WithLabelValues("exhausted").Inc()
			// The Redis suppression cache is a cross-replica optimisation
			// only; the persisted not_found_message_ids set below is the
			// record of record for this outcome.
			q.engine.dist.MarkNotFound(ctx, item.entryID)
			if item.messageID != "" {
				exhaustedMessageIDs[item.eventID] = append(exhaustedMessageIDs[item.eventID], item.messageID)
			}
			delete(q.items, item.entryID)
			continue
		}
	}
	if len(q.items) > 0 && !q.engine.paused() {
		q.timerActive = true
		q.timer = time.AfterFunc(q.engine.cfg.SearchRetryBackoff, func() {
			q.runSearch(context.Background())
		})
	}
	q.mu.Unlock()

	for eventID, ids := range exhaustedMessageIDs {
		if err := q.engine.store.MarkMessageIDsNotFound(eventID, ids); err != nil {
			q.engine.logger.Warn("catch-up: mark message ids not found failed", "event_id", eventID, "error", err)
		}
	}
}

func (q *searchQueue) findEventID(entryID string, pending []*searchItem) string {
	for _, item := range pending {
		if item.entryID == entryID {
			return item.eventID
		}
	}
	return ""
}
