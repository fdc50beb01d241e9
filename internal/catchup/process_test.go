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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/adapter"
	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/model"
)

func seedEvent(t *testing.T, store interface {
	Import(model.Event) (model.Event, error)
}, ev model.Event) model.Event {
	t.Helper()
	got, err := store.Import(ev)
	require.NoError(t, err)
	return got
}

func TestProcessRequest_CompletenessSatisfiedSkipsFurtherSearch(t *testing.T) {
	source := newFakeSource()
	store := newTestStore(t)
	seedEvent(t, store, model.Event{
		EventID:         "EVT-1",
		RelatedSubjects: model.NewStringSet(),
		Participants:    model.NewStringSet("ops@x.com"),
		Emails: []model.Email{
			{EntryID: "1", ConversationID: "conv-1", ReceivedOn: time.Now().UTC()},
		},
	})
	source.enumerateSize = 1 // equals len(known), so the event is already complete

	auditor := &fakeAuditor{}
	e := New(store, source, DefaultConfig(), discardLogger(), WithAuditor(auditor))
	e.processRequest(context.Background(), Request{EventID: "EVT-1", ConversationID: "conv-1"})

	assert.Empty(t, source.restrictCalls, "completeness must short-circuit before any folder search")
	require.Len(t, auditor.calls, 1)
	assert.True(t, auditor.calls[0].completed)
	assert.Equal(t, 0, auditor.calls[0].candidatesFound)
}

func TestProcessRequest_EscalatesToRestrictedFoldersWhenEnumerationFindsNothingNew(t *testing.T) {
	source := newFakeSource()
	store := newTestStore(t)
	seedEvent(t, store, model.Event{
		EventID:         "EVT-1",
		Status:          model.StatusOpen,
		RelatedSubjects: model.NewStringSet("Server outage"),
		Participants:    model.NewStringSet("ops@x.com"),
		Emails: []model.Email{
			{EntryID: "1", ConversationID: "conv-1", ReceivedOn: time.Now().UTC()},
		},
	})
	source.enumerateSize = 5 // incomplete: 5 reported but only 1 known
	source.restrictHandles = map[string][]adapter.Handle{
		"Inbox": {{
			EntryID:        "2",
			ConversationID: "conv-1",
			Subject:        "RE: Server outage",
			Participants:   []string{"ops@x.com"},
			ReceivedOn:     time.Now().UTC(),
		}},
	}

	auditor := &fakeAuditor{}
	e := New(store, source, DefaultConfig(), discardLogger(), WithAuditor(auditor))
	e.processRequest(context.Background(), Request{EventID: "EVT-1", ConversationID: "conv-1"})

	assert.Contains(t, source.restrictCalls, "Inbox")
	assert.Contains(t, source.restrictCalls, "Sent")
	assert.Contains(t, source.restrictCalls, "Deleted")

	got, err := store.GetByID("EVT-1")
	require.NoError(t, err)
	assert.Len(t, got.Emails, 2, "the restricted-folder candidate must have been accepted into the event")

	require.Len(t, auditor.calls, 1)
	assert.Equal(t, 1, auditor.calls[0].candidatesFound)
}

func TestProcessRequest_FallsBackToSubjectTokensWhenFoldersYieldNothing(t *testing.T) {
	source := newFakeSource()
	store := newTestStore(t)
	seedEvent(t, store, model.Event{
		EventID:         "EVT-1",
		RelatedSubjects: model.NewStringSet("Server outage today"),
		Participants:    model.NewStringSet("ops@x.com"),
		Emails: []model.Email{
			{EntryID: "1", ConversationID: "conv-1", ReceivedOn: time.Now().UTC()},
		},
	})
	source.enumerateSize = 5
	// restrictHandles is empty for every folder: nothing comes back there,
	// forcing the subject-token fallback, which also queries "Inbox".

	e := New(store, source, DefaultConfig(), discardLogger())
	e.processRequest(context.Background(), Request{EventID: "EVT-1", ConversationID: "conv-1"})

	// Inbox is queried once by restrictedFolderCandidates and again, once
	// per subject token, by subjectTokenCandidates.
	inboxCalls := 0
	for _, f := range source.restrictCalls {
		if f == "Inbox" {
			inboxCalls++
		}
	}
	assert.Greater(t, inboxCalls, 1)
}

func TestProcessRequest_DeferredEntriesEnqueueToSearchQueue(t *testing.T) {
	source := newFakeSource()
	store := newTestStore(t)
	seedEvent(t, store, model.Event{
		EventID:         "EVT-1",
		RelatedSubjects: model.NewStringSet(),
		Participants:    model.NewStringSet("ops@x.com"),
		Emails: []model.Email{
			{EntryID: "1", ConversationID: "conv-1", ReceivedOn: time.Now().UTC()},
		},
	})
	source.enumerateSize = 5
	source.enumerateHandles = []adapter.Handle{{
		EntryID:        "2",
		ConversationID: "conv-1",
		Subject:        "No participant overlap at all",
		Participants:   []string{"nobody@elsewhere.com"},
		ReceivedOn:     time.Now().UTC(),
	}}

	e := New(store, source, DefaultConfig(), discardLogger())
	e.processRequest(context.Background(), Request{EventID: "EVT-1", ConversationID: "conv-1"})

	e.search.mu.Lock()
	_, queued := e.search.items["2"]
	e.search.mu.Unlock()
	assert.True(t, queued, "a candidate the matcher rejects must be deferred to the secondary search queue")
}

func TestIngestHandles_SkipsAlreadyKnownEntries(t *testing.T) {
	source := newFakeSource()
	store := newTestStore(t)
	seedEvent(t, store, model.Event{
		EventID:         "EVT-1",
		RelatedSubjects: model.NewStringSet(),
		Participants:    model.NewStringSet("ops@x.com"),
		Emails:          []model.Email{{EntryID: "1", ConversationID: "conv-1"}},
	})

	e := New(store, source, DefaultConfig(), discardLogger())
	known := map[string]struct{}{"1": {}}
	accepted, deferred := e.ingestHandles(context.Background(), "EVT-1", known, []adapter.Handle{
		{EntryID: "1", ConversationID: "conv-1"},
	})
	assert.Equal(t, 0, accepted)
	assert.Empty(t, deferred)
}

func TestLookbackSince_ExtendsBackFromEarliestKnownMail(t *testing.T) {
	e := New(newTestStore(t), newFakeSource(), DefaultConfig(), discardLogger())
	earliest := time.Now().UTC().Add(-20 * 24 * time.Hour) // older than LookbackNormal (14d)
	ev := model.Event{Emails: []model.Email{{ReceivedOn: earliest}}}

	since := e.lookbackSince(ev, false)
	assert.True(t, since.Before(earliest), "the window must extend before the earliest mail by LookbackExtension")
}

func TestLookbackSince_FullHistoryUsesLookbackFull(t *testing.T) {
	e := New(newTestStore(t), newFakeSource(), DefaultConfig(), discardLogger())
	since := e.lookbackSince(model.Event{}, true)
	assert.True(t, since.Before(time.Now().UTC().Add(-365*24*time.Hour)))
}

func TestSeedEntryID_SkipsRemovedMembers(t *testing.T) {
	ev := model.Event{Emails: []model.Email{
		{EntryID: "1", ConversationID: "conv-1", IsRemoved: true},
		{EntryID: "2", ConversationID: "conv-1"},
	}}
	assert.Equal(t, "2", seedEntryID(ev, "conv-1"))
}

func TestKnownEntryIDs_FiltersByConversation(t *testing.T) {
	ev := model.Event{Emails: []model.Email{
		{EntryID: "1", ConversationID: "conv-1"},
		{EntryID: "2", ConversationID: "conv-2"},
	}}
	known := knownEntryIDs(ev, "conv-1")
	assert.Len(t, known, 1)
	_, ok := known["1"]
	assert.True(t, ok)
}

func TestNonEmpty_DropsBlankTokens(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, nonEmpty([]string{"", "a", "", "b", ""}))
}
