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
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/adapter"
	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/eventstore"
	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/metrics"
)

// Auditor records catch-up run outcomes for operational visibility. The
// audit package satisfies this directly; it is an interface here so the
// engine doesn't require Postgres to be configured. The returned run id
// is opaque to the engine — it exists so an operator can cite a single
// run elsewhere (logs, a ticket) without knowing the ledger's schema.
type Auditor interface {
	RecordRun(ctx context.Context, eventID, conversationID string, candidatesFound int, notFoundIDs []string, completed bool, runErr error) (runID string, err error)
}

// Request is one queued (event, conversation) re-scan.
type Request struct {
	EventID        string
	ConversationID string
	FullHistory    bool
}

func (r Request) key() string {
	return r.EventID + "::" + r.ConversationID
}

// Engine is the bounded work queue, scheduler, and per-conversation
// re-scan loop.
type Engine struct {
	cfg    Config
	store  *eventstore.Store
	source adapter.Source
	logger *slog.Logger

	mu      sync.Mutex
	queue   []Request
	tracked map[string]struct{}

	syncCounter int32

	sem *semaphore.Weighted

	dist  *DistLock
	audit Auditor

	search *searchQueue

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// Option configures optional Engine behaviour.
type Option func(*Engine)

// WithDistLock enables cross-replica tick coordination and not-found
// suppression via d. Omitting this option leaves the engine coordinating
// only within its own process, which is correct for a single-replica
// deployment.
func WithDistLock(d *DistLock) Option {
	return func(e *Engine) { e.dist = d }
}

// WithAuditor records every catch-up run's outcome to a, keeping an
// operational history independent of the event store itself.
func WithAuditor(a Auditor) Option {
	return func(e *Engine) { e.audit = a }
}

// New builds a catch-up engine over store, fed by source.
func New(store *eventstore.Store, source adapter.Source, cfg Config, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		cfg:     cfg,
		store:   store,
		source:  source,
		logger:  logger,
		tracked: make(map[string]struct{}),
		sem:     semaphore.NewWeighted(1),
	}
	e.search = newSearchQueue(e)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start launches the periodic tick and the pending-search force-drain
// timer. Stop (or ctx cancellation) ends both.
func (e *Engine) Start(ctx context.Context) {
	e.stopCh = make(chan struct{})
	e.wg.Add(2)
	go e.runTicker(ctx)
	go e.search.runForceDrain(ctx)
}

// Stop ends the engine's background goroutines and waits for them to
// return.
func (e *Engine) Stop() {
	if e.stopCh != nil {
		close(e.stopCh)
	}
	e.wg.Wait()
}

func (e *Engine) runTicker(ctx context.Context) {
	defer e.wg.Done()

	timer := time.NewTimer(e.cfg.InitialDelay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.stopCh:
			return
		case <-timer.C:
			e.drainTick(ctx)
			timer.Reset(e.cfg.TickInterval)
		}
	}
}

// Enqueue adds a request per conversation ID not already tracked and
// returns the ones actually enqueued (already-tracked conversations are
// skipped, matching "dedup by event_id::conversation_id").
func (e *Engine) Enqueue(eventID string, conversationIDs []string, fullHistory bool) []Request {
	e.mu.Lock()
	defer e.mu.Unlock()

	var added []Request
	for _, convID := range conversationIDs {
		req := Request{EventID: eventID, ConversationID: convID, FullHistory: fullHistory}
		k := req.key()
		if _, ok := e.tracked[k]; ok {
			continue
		}
		e.tracked[k] = struct{}{}
		e.queue = append(e.queue, req)
		added = append(added, req)
	}
	return added
}

// dequeueUpTo pops at most n requests from the front of the queue,
// removing their tracked entries.
func (e *Engine) dequeueUpTo(n int) []Request {
	e.mu.Lock()
	defer e.mu.Unlock()

	if n > len(e.queue) {
		n = len(e.queue)
	}
	batch := e.queue[:n]
	e.queue = e.queue[n:]
	for _, r := range batch {
		delete(e.tracked, r.key())
	}
	return batch
}

func (e *Engine) paused() bool {
	return atomic.LoadInt32(&e.syncCounter) > 0
}

// SyncStart suspends catch-up processing while the mail source reports
// an active synchronisation pass.
func (e *Engine) SyncStart() {
	atomic.AddInt32(&e.syncCounter, 1)
}

// SyncEnd resumes processing once every active sync has ended, flushing
// the pending search queue.
func (e *Engine) SyncEnd() {
	if atomic.AddInt32(&e.syncCounter, -1) <= 0 {
		e.search.flush(context.Background())
	}
}

// drainTick processes up to DrainPerTick queued requests, serialised
// through the (1,1) semaphore so only one drain ever runs concurrently.
func (e *Engine) drainTick(ctx context.Context) {
	if e.paused() {
		return
	}
	if !e.dist.TryAcquireTick(ctx) {
		return
	}
	if !e.sem.TryAcquire(1) {
		return
	}
	defer e.sem.Release(1)

	batch := e.dequeueUpTo(e.cfg.DrainPerTick)
	for _, req := range batch {
		e.processRequest(ctx, req)
	}
	metrics.CatchupDrained.Add(float64(len(batch)))
	e.mu.Lock()
	metrics.CatchupQueueDepth.Set(float64(len(e.queue)))
	e.mu.Unlock()
}

// DrainNow attempts to process exactly requests within ctx's deadline,
// for the ingestion facade's trigger_catchup(immediate=true) path.
// Whatever doesn't finish before ctx is done stays on the regular queue
// (it was already enqueued by Enqueue).
func (e *Engine) DrainNow(ctx context.Context, requests []Request) {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return
	}
	defer e.sem.Release(1)

	for _, req := range requests {
		if ctx.Err() != nil {
			return
		}
		k := req.key()
		e.mu.Lock()
		_, stillQueued := e.tracked[k]
		if stillQueued {
			delete(e.tracked, k)
			e.removeFromQueueLocked(k)
		}
		e.mu.Unlock()
		if !stillQueued {
			continue
		}
		e.processRequest(ctx, req)
	}
}

func (e *Engine) removeFromQueueLocked(key string) {
	for i, r := range e.queue {
		if r.key() == key {
			e.queue = append(e.queue[:i], e.queue[i+1:]...)
			return
		}
	}
}
