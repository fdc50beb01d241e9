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

package ingestion

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/adapter"
	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/catchup"
	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/eventstore"
	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func newTestStore(t *testing.T) *eventstore.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.json")
	s, err := eventstore.Open(path, time.Now, discardLogger())
	require.NoError(t, err)
	return s
}

// emptySource is an adapter.Source that never returns anything, enough to
// back a catchup.Engine exercised only through TriggerCatchup's enqueue path.
type emptySource struct{}

func (emptySource) ResolveByID(context.Context, string, string) (*adapter.Handle, error) {
	return nil, nil
}
func (emptySource) EnumerateConversation(context.Context, string, string, time.Time) ([]adapter.Handle, int, error) {
	return nil, 0, nil
}
func (emptySource) RestrictFolder(context.Context, string, adapter.Filter) ([]adapter.Handle, error) {
	return nil, nil
}
func (emptySource) Search(context.Context, string, adapter.Filter) ([]adapter.Handle, error) {
	return nil, nil
}

func TestTryAddMail_RejectsSnapshotWithoutConversationID(t *testing.T) {
	f := New(newTestStore(t), nil, discardLogger())
	_, err := f.TryAddMail(model.MailSnapshot{EntryID: "1"}, "")
	assert.Error(t, err)
}

func TestTryAddMail_NoCandidateReturnsEmptyEventAndNoError(t *testing.T) {
	f := New(newTestStore(t), nil, discardLogger())
	ev, err := f.TryAddMail(model.MailSnapshot{
		EntryID:        "1",
		ConversationID: "conv-1",
		Participants:   model.NewStringSet("a@x.com"),
	}, "")
	require.NoError(t, err)
	assert.Equal(t, model.Event{}, ev)
}

func TestCreateEventFromMailThenTryAddMail_Accepts(t *testing.T) {
	f := New(newTestStore(t), nil, discardLogger())
	created, err := f.CreateEventFromMail(model.MailSnapshot{
		EntryID:        "1",
		ConversationID: "conv-1",
		Subject:        "Server outage",
		Participants:   model.NewStringSet("ops@x.com"),
	}, "", nil)
	require.NoError(t, err)

	got, err := f.TryAddMail(model.MailSnapshot{
		EntryID:        "2",
		ConversationID: "conv-1",
		Subject:        "RE: Server outage",
		Participants:   model.NewStringSet("ops@x.com"),
	}, "")
	require.NoError(t, err)
	assert.Equal(t, created.EventID, got.EventID)
	assert.Len(t, got.Emails, 2)
}

func TestAddMailToEvent_DelegatesToStore(t *testing.T) {
	f := New(newTestStore(t), nil, discardLogger())
	created, err := f.CreateEventFromMail(model.MailSnapshot{EntryID: "1", ConversationID: "conv-1", Participants: model.NewStringSet("a@x.com")}, "", nil)
	require.NoError(t, err)

	got, err := f.AddMailToEvent(created.EventID, model.MailSnapshot{EntryID: "2", ConversationID: "conv-1", Participants: model.NewStringSet("nobody@x.com")})
	require.NoError(t, err)
	assert.Len(t, got.Emails, 2)
}

func TestRemoveMail_DelegatesToStore(t *testing.T) {
	f := New(newTestStore(t), nil, discardLogger())
	created, err := f.CreateEventFromMail(model.MailSnapshot{EntryID: "1", ConversationID: "conv-1", Participants: model.NewStringSet("a@x.com")}, "", nil)
	require.NoError(t, err)

	assert.NoError(t, f.RemoveMail(created.EventID, "1", ""))
}

func TestMarkMessageIDsNotFound_DelegatesToStore(t *testing.T) {
	f := New(newTestStore(t), nil, discardLogger())
	created, err := f.CreateEventFromMail(model.MailSnapshot{EntryID: "1", ConversationID: "conv-1", Participants: model.NewStringSet("a@x.com")}, "", nil)
	require.NoError(t, err)

	assert.NoError(t, f.MarkMessageIDsNotFound(created.EventID, []string{"MSG-1"}))
}

func TestTriggerCatchup_NoOpWhenEngineIsNil(t *testing.T) {
	f := New(newTestStore(t), nil, discardLogger())
	assert.NotPanics(t, func() {
		f.TriggerCatchup(context.Background(), "EVT-1", []string{"conv-1"}, false, time.Second, false)
	})
}

func TestTriggerCatchup_EnqueuesAgainstTheEngine(t *testing.T) {
	store := newTestStore(t)
	engine := catchup.New(store, emptySource{}, catchup.DefaultConfig(), discardLogger())
	f := New(store, engine, discardLogger())

	f.TriggerCatchup(context.Background(), "EVT-1", []string{"conv-1", "conv-2"}, false, time.Second, false)

	added := engine.Enqueue("EVT-1", []string{"conv-1"}, false)
	assert.Empty(t, added, "conv-1 was already enqueued by TriggerCatchup")
}

func TestTriggerCatchup_ImmediateDrainsBeforeReturning(t *testing.T) {
	store := newTestStore(t)
	engine := catchup.New(store, emptySource{}, catchup.DefaultConfig(), discardLogger())
	f := New(store, engine, discardLogger())

	f.TriggerCatchup(context.Background(), "EVT-1", []string{"conv-1"}, true, time.Second, false)

	added := engine.Enqueue("EVT-1", []string{"conv-1"}, false)
	assert.Len(t, added, 1, "an immediate drain must finish processing and untrack the request, allowing re-enqueue")
}
