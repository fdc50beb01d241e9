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

package matching

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/model"
)

func openEvent(id, title string, participants ...string) model.Event {
	return model.Event{
		EventID:      id,
		Title:        title,
		Status:       model.StatusOpen,
		Participants: model.NewStringSet(participants...),
		UpdatedAt:    time.Now(),
	}
}

func TestSelectCandidate_NoOpenEvents(t *testing.T) {
	events := []model.Event{{EventID: "E1", Status: model.StatusArchived}}
	snapshot := model.MailSnapshot{Subject: "Server outage", Participants: model.NewStringSet("a@x.com")}
	assert.Nil(t, SelectCandidate(events, snapshot, "", Options{}))
}

func TestSelectCandidate_StandardSubjectMatchAccepted(t *testing.T) {
	ev := openEvent("E1", "Server outage", "ops@x.com")
	snapshot := model.MailSnapshot{Subject: "RE: Server outage", Participants: model.NewStringSet("ops@x.com")}

	c := SelectCandidate([]model.Event{ev}, snapshot, "", Options{})
	require.NotNil(t, c)
	assert.Equal(t, "E1", c.Event.EventID)
	assert.Contains(t, c.Reasons, "subject_participant_standard")
	assert.GreaterOrEqual(t, c.Score, float64(AcceptThreshold))
}

func TestSelectCandidate_NoParticipantOverlapRejected(t *testing.T) {
	ev := openEvent("E1", "Server outage", "ops@x.com")
	snapshot := model.MailSnapshot{Subject: "RE: Server outage", Participants: model.NewStringSet("someone-else@x.com")}

	assert.Nil(t, SelectCandidate([]model.Event{ev}, snapshot, "", Options{}))
}

func TestSelectCandidate_BelowThresholdRejected(t *testing.T) {
	ev := openEvent("E1", "Server outage", "ops@x.com")
	snapshot := model.MailSnapshot{Subject: "Completely unrelated subject", Participants: model.NewStringSet("ops@x.com")}

	assert.Nil(t, SelectCandidate([]model.Event{ev}, snapshot, "", Options{}))
}

func TestSelectCandidate_PreferredBiasBreaksTie(t *testing.T) {
	evA := openEvent("E1", "Server outage", "ops@x.com")
	evB := openEvent("E2", "Server outage", "ops@x.com")
	snapshot := model.MailSnapshot{Subject: "RE: Server outage", Participants: model.NewStringSet("ops@x.com")}

	c := SelectCandidate([]model.Event{evA, evB}, snapshot, "E2", Options{})
	require.NotNil(t, c)
	assert.Equal(t, "E2", c.Event.EventID)
	assert.True(t, c.PreferredApplied)
	assert.Contains(t, c.Reasons, "preferred_bias")
}

func TestSelectCandidate_PreferredBiasNeverAppliedToZeroScoreCandidate(t *testing.T) {
	ev := openEvent("E1", "Totally unrelated", "someone-else@x.com")
	snapshot := model.MailSnapshot{Subject: "Server outage", Participants: model.NewStringSet("ops@x.com")}

	assert.Nil(t, SelectCandidate([]model.Event{ev}, snapshot, "E1", Options{}))
}

func TestSelectCandidate_HistoricalSubjectMatch(t *testing.T) {
	ev := openEvent("E1", "Server outage", "ops@x.com")
	snapshot := model.MailSnapshot{
		Subject:            "Weekly status digest",
		Participants:       model.NewStringSet("ops@x.com"),
		HistoricalSubjects: []string{"Server outage"},
	}

	c := SelectCandidate([]model.Event{ev}, snapshot, "", Options{})
	require.NotNil(t, c)
	assert.Contains(t, c.Reasons, "historical_subject_match")
}

func TestSelectCandidate_TruncatedWithHistoricalConfirmation(t *testing.T) {
	ev := openEvent("E1", "Server outage affecting EU region", "ops@x.com")
	snapshot := model.MailSnapshot{
		Subject:            "Server ou",
		Participants:       model.NewStringSet("ops@x.com"),
		HistoricalSubjects: []string{"Server outage affecting EU region"},
	}

	c := SelectCandidate([]model.Event{ev}, snapshot, "", Options{})
	require.NotNil(t, c)
	assert.Contains(t, c.Reasons, "truncated_subject_historical_confirmation")
}

func TestSelectCandidate_SecondarySignalsAreDiagnosticOnly(t *testing.T) {
	ev := openEvent("E1", "Server outage", "ops@x.com")
	ev.ConversationIDs = []string{"conv-1"}
	snapshot := model.MailSnapshot{
		Subject:        "Completely unrelated subject",
		Participants:   model.NewStringSet("ops@x.com"),
		ConversationID: "conv-1",
	}

	// A conversation-id match alone, with SecondarySignals enabled, must
	// never push the score above the acceptance threshold.
	assert.Nil(t, SelectCandidate([]model.Event{ev}, snapshot, "", Options{SecondarySignals: true}))
}
