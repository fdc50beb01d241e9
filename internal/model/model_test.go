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

package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildAttachmentID(t *testing.T) {
	assert.Equal(t, "AAA:2:report.pdf", BuildAttachmentID("AAA", 2, "report.pdf"))
}

func TestEvent_FirstSubject(t *testing.T) {
	var empty Event
	assert.Equal(t, "", empty.FirstSubject())

	ev := Event{Emails: []Email{{Subject: "Re: outage"}, {Subject: "Re: outage again"}}}
	assert.Equal(t, "Re: outage", ev.FirstSubject())
}

func TestEvent_ActiveEmailCount(t *testing.T) {
	ev := Event{Emails: []Email{
		{EntryID: "1", IsRemoved: false},
		{EntryID: "2", IsRemoved: true},
		{EntryID: "3", IsRemoved: false},
	}}
	assert.Equal(t, 2, ev.ActiveEmailCount())
}

func TestEvent_CloneIsDeep(t *testing.T) {
	ev := Event{
		EventID:         "EVT-1",
		ConversationIDs: []string{"conv-1"},
		RelatedSubjects: NewStringSet("outage"),
		Emails: []Email{
			{EntryID: "1", Participants: NewStringSet("a@x.com"), ReceivedOn: time.Now()},
		},
	}

	clone := ev.Clone()
	clone.ConversationIDs[0] = "mutated"
	clone.RelatedSubjects.Add("changed")
	clone.Emails[0].Participants.Add("b@x.com")

	assert.Equal(t, "conv-1", ev.ConversationIDs[0], "clone mutation must not leak back into the original")
	assert.False(t, ev.RelatedSubjects.Contains("changed"))
	assert.False(t, ev.Emails[0].Participants.Contains("b@x.com"))
}

func TestEmail_CloneIsDeep(t *testing.T) {
	e := Email{EntryID: "1", Participants: NewStringSet("a@x.com")}
	c := e.Clone()
	c.Participants.Add("b@x.com")
	assert.False(t, e.Participants.Contains("b@x.com"))
}
