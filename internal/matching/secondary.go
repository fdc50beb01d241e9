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
	"fmt"

	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/model"
	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/textutil"
)

// scoreSecondarySignals records conversation-id, reference-message-id,
// thread-index, and body-fingerprint agreement as diagnostics only: the
// production ruleset (§9 of the originating design notes) leaves these
// signals out of the acceptance score even when SecondarySignals is
// enabled, since no production weighting for them was ever carried
// forward. They stay available as standalone predicates below for the
// catch-up engine's search phase.
func scoreSecondarySignals(c *Candidate, ev model.Event, snapshot model.MailSnapshot) {
	if ConversationMatches(ev, snapshot) {
		c.Details = append(c.Details, fmt.Sprintf("conversation-id match against event %s (non-scoring)", ev.EventID))
	}
	if ReferenceMatches(ev, snapshot) {
		c.Details = append(c.Details, fmt.Sprintf("reference-message-id match against event %s (non-scoring)", ev.EventID))
	}
	if ThreadIndexMatches(ev, snapshot) {
		c.Details = append(c.Details, fmt.Sprintf("thread-index-prefix match against event %s (non-scoring)", ev.EventID))
	}
	if FingerprintSimilar(ev, snapshot) {
		c.Details = append(c.Details, fmt.Sprintf("body-fingerprint similarity against event %s (non-scoring)", ev.EventID))
	}
}

// ConversationMatches reports whether snapshot's conversation-id is
// already tracked on ev.
func ConversationMatches(ev model.Event, snapshot model.MailSnapshot) bool {
	if snapshot.ConversationID == "" {
		return false
	}
	for _, id := range ev.ConversationIDs {
		if id == snapshot.ConversationID {
			return true
		}
	}
	return false
}

// ReferenceMatches reports whether any of snapshot's reference-message-ids
// names a message-id already present among ev's members.
func ReferenceMatches(ev model.Event, snapshot model.MailSnapshot) bool {
	if snapshot.ReferenceMessageIDs.Len() == 0 {
		return false
	}
	for _, m := range ev.Emails {
		if m.InternetMessageID == "" {
			continue
		}
		if snapshot.ReferenceMessageIDs.Contains(m.InternetMessageID) {
			return true
		}
	}
	return false
}

// ThreadIndexMatches reports whether snapshot's thread-index-prefix
// matches any member's, anchoring both to the same conversation root.
func ThreadIndexMatches(ev model.Event, snapshot model.MailSnapshot) bool {
	if snapshot.ThreadIndexPrefix == "" {
		return false
	}
	for _, m := range ev.Emails {
		if m.ThreadIndexPrefix != "" && m.ThreadIndexPrefix == snapshot.ThreadIndexPrefix {
			return true
		}
	}
	return false
}

// FingerprintSimilar reports whether snapshot's body fingerprint is
// similar (per textutil.FingerprintsSimilar) to any member's.
func FingerprintSimilar(ev model.Event, snapshot model.MailSnapshot) bool {
	if snapshot.BodyFingerprint == "" {
		return false
	}
	for _, m := range ev.Emails {
		if textutil.FingerprintsSimilar(m.BodyFingerprint, snapshot.BodyFingerprint) {
			return true
		}
	}
	return false
}
