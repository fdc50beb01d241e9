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

// Package eventstore is the sole owner of the persistent event
// collection: an in-memory map guarded by a single exclusive mutex,
// mirrored to one JSON document on disk. Every read returns deep-cloned
// copies so callers never hold a live reference into the store.
package eventstore

import (
	"log/slog"
	"sync"
	"time"

	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/matching"
	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/metrics"
	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/model"
	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/osemerr"
)

// ChangeReason tags why an EventChanged notification was emitted.
type ChangeReason string

const (
	ReasonCreated      ChangeReason = "Created"
	ReasonUpdated      ChangeReason = "Updated"
	ReasonImported     ChangeReason = "Imported"
	ReasonArchived     ChangeReason = "Archived"
	ReasonReopened     ChangeReason = "Reopened"
	ReasonDeleted      ChangeReason = "Deleted"
	ReasonMailAppended ChangeReason = "MailAppended"
	ReasonMailUpdated  ChangeReason = "MailUpdated"
	ReasonMailRemoved  ChangeReason = "MailRemoved"

	// reasonNone is returned by upsertMailIntoEvent when a snapshot
	// matched an existing, non-removed member and carried nothing new:
	// no field differed from what's already stored. Callers treat it as
	// a signal to skip touch/notify rather than emit it themselves.
	reasonNone ChangeReason = ""
)

// Change is the payload of an EventChanged notification.
type Change struct {
	Event  model.Event
	Reason ChangeReason
}

// Listener receives change notifications. The store calls listeners on
// the goroutine that invoked the mutating operation, after the mutation
// has committed and the store lock has been released — the Go analogue
// of "marshalled to the caller's sync context, or inline when none
// exists".
type Listener func(Change)

// Store is the in-memory, mutex-guarded event collection.
type Store struct {
	mu     sync.Mutex
	events map[string]model.Event

	path   string
	clock  func() time.Time
	logger *slog.Logger

	listenersMu sync.Mutex
	listeners   []Listener

	matchOpts matching.Options
}

// Option configures a Store at construction time.
type Option func(*Store)

// WithSecondarySignals enables the matching engine's secondary-signal
// diagnostics (disabled by default, per the production ruleset).
func WithSecondarySignals(enabled bool) Option {
	return func(s *Store) { s.matchOpts.SecondarySignals = enabled }
}

// Open loads (or initialises) the event store backed by the JSON document
// at path.
func Open(path string, clock func() time.Time, logger *slog.Logger, opts ...Option) (*Store, error) {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		events: make(map[string]model.Event),
		path:   path,
		clock:  clock,
		logger: logger,
	}
	for _, o := range opts {
		o(s)
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Subscribe registers l to receive every future change notification.
func (s *Store) Subscribe(l Listener) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, l)
}

func (s *Store) notify(c Change) {
	s.listenersMu.Lock()
	listeners := append([]Listener(nil), s.listeners...)
	s.listenersMu.Unlock()
	for _, l := range listeners {
		l(c)
	}
}

// ListAll returns a deep-cloned snapshot of every event.
func (s *Store) ListAll() []model.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Event, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, ev.Clone())
	}
	return out
}

// GetByID returns a deep-cloned copy of the named event, or ErrNotFound.
func (s *Store) GetByID(id string) (model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[id]
	if !ok {
		return model.Event{}, osemerr.NotFoundf("event %q", id)
	}
	return ev.Clone(), nil
}

func (s *Store) openEvents() []model.Event {
	out := make([]model.Event, 0, len(s.events))
	for _, ev := range s.events {
		if ev.Status == model.StatusOpen {
			out = append(out, ev.Clone())
		}
	}
	return out
}

// mutate runs fn holding the store lock, persists the resulting state,
// and returns fn's error (if any) without committing the persist on
// failure. The caller supplies the notification to emit on success,
// after the lock is released.
func (s *Store) mutate(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(); err != nil {
		return err
	}
	if err := s.persistLocked(); err != nil {
		return err
	}
	metrics.EventsOpen.Set(float64(len(s.openEvents())))
	return nil
}

func (s *Store) touch(ev *model.Event) {
	now := s.clock().UTC()
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = now
	}
	if now.Before(ev.UpdatedAt) {
		now = ev.UpdatedAt
	}
	ev.UpdatedAt = now
}

// Update replaces the stored record for ev.EventID, failing with
// ErrNotFound if absent.
func (s *Store) Update(ev model.Event) (model.Event, error) {
	var result model.Event
	err := s.mutate(func() error {
		if _, ok := s.events[ev.EventID]; !ok {
			return osemerr.NotFoundf("event %q", ev.EventID)
		}
		s.touch(&ev)
		s.events[ev.EventID] = ev.Clone()
		result = ev.Clone()
		return nil
	})
	if err != nil {
		return model.Event{}, err
	}
	s.notify(Change{Event: result, Reason: ReasonUpdated})
	return result, nil
}

// Import upserts ev verbatim (used by backup restore). It never fails
// with NotFound; only a persistence error is returned.
func (s *Store) Import(ev model.Event) (model.Event, error) {
	var result model.Event
	err := s.mutate(func() error {
		s.events[ev.EventID] = ev.Clone()
		result = ev.Clone()
		return nil
	})
	if err != nil {
		return model.Event{}, err
	}
	s.notify(Change{Event: result, Reason: ReasonImported})
	return result, nil
}

// Archive moves every currently-Open event in ids to Archived.
func (s *Store) Archive(ids []string) error {
	var changed []model.Event
	err := s.mutate(func() error {
		for _, id := range ids {
			ev, ok := s.events[id]
			if !ok || ev.Status != model.StatusOpen {
				continue
			}
			ev.Status = model.StatusArchived
			s.touch(&ev)
			s.events[id] = ev
			changed = append(changed, ev.Clone())
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, ev := range changed {
		s.notify(Change{Event: ev, Reason: ReasonArchived})
	}
	return nil
}

// Reopen moves an Archived event back to Open.
func (s *Store) Reopen(id string) (model.Event, error) {
	var result model.Event
	err := s.mutate(func() error {
		ev, ok := s.events[id]
		if !ok {
			return osemerr.NotFoundf("event %q", id)
		}
		ev.Status = model.StatusOpen
		s.touch(&ev)
		s.events[id] = ev
		result = ev.Clone()
		return nil
	})
	if err != nil {
		return model.Event{}, err
	}
	s.notify(Change{Event: result, Reason: ReasonReopened})
	return result, nil
}

// Delete permanently removes every event in ids.
func (s *Store) Delete(ids []string) error {
	var deleted []model.Event
	err := s.mutate(func() error {
		for _, id := range ids {
			ev, ok := s.events[id]
			if !ok {
				continue
			}
			delete(s.events, id)
			deleted = append(deleted, ev.Clone())
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, ev := range deleted {
		s.notify(Change{Event: ev, Reason: ReasonDeleted})
	}
	return nil
}

// MarkMessageIDsNotFound adds ids to the event's not_found_message_ids
// set. Idempotent on repeated identical inputs.
func (s *Store) MarkMessageIDsNotFound(eventID string, ids []string) error {
	var result model.Event
	changed := false
	err := s.mutate(func() error {
		ev, ok := s.events[eventID]
		if !ok {
			return osemerr.NotFoundf("event %q", eventID)
		}
		for _, id := range ids {
			if ev.NotFoundMessageIDs.Add(id) {
				changed = true
			}
		}
		if changed {
			s.touch(&ev)
			s.events[eventID] = ev
		}
		result = ev.Clone()
		return nil
	})
	if err != nil {
		return err
	}
	if changed {
		s.notify(Change{Event: result, Reason: ReasonUpdated})
	}
	return nil
}

func (s *Store) nextEventID() string {
	return generateEventID(s.clock())
}
