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

package eventstore

import (
	"strings"
	"time"

	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/model"
	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/textutil"
)

// sameMailWindow bounds the received_on gap rule 3 of IsSameMail accepts.
const sameMailWindow = 30 * time.Second

// threadRootLen is the prefix length of a raw thread-index string that
// identifies its conversation root for IsSameMail's rule 4.
const threadRootLen = 44

// isSameMail implements the ordered identity rules an incoming snapshot
// is tested against an event's existing members under.
func isSameMail(existing model.Email, candidate model.MailSnapshot) bool {
	// Rule 1: non-empty entry_id equal, case-insensitive.
	if existing.EntryID != "" && candidate.EntryID != "" &&
		strings.EqualFold(existing.EntryID, candidate.EntryID) {
		return true
	}

	// Rule 2: non-empty normalised internet_message_id equal.
	em := textutil.NormalizeMessageID(existing.InternetMessageID)
	cm := textutil.NormalizeMessageID(candidate.InternetMessageID)
	if em != "" && cm != "" && em == cm {
		return true
	}

	// Rule 3: same non-empty conversation_id, both sides missing entry_id
	// and message_id, same sender, same subject, received within 30s.
	if existing.EntryID == "" && candidate.EntryID == "" &&
		em == "" && cm == "" &&
		existing.ConversationID != "" && existing.ConversationID == candidate.ConversationID &&
		strings.EqualFold(existing.Sender, candidate.Sender) &&
		strings.EqualFold(existing.Subject, candidate.Subject) {
		delta := existing.ReceivedOn.Sub(candidate.ReceivedOn)
		if delta < 0 {
			delta = -delta
		}
		if delta <= sameMailWindow {
			return true
		}
	}

	// Rule 4: same non-empty thread_root and body fingerprint similar.
	er, cr := threadRoot(existing.ThreadIndex), threadRoot(candidate.ThreadIndex)
	if er != "" && er == cr && textutil.FingerprintsSimilar(existing.BodyFingerprint, candidate.BodyFingerprint) {
		return true
	}

	return false
}

// findSameMail returns the index of the first member of emails that
// isSameMail-matches candidate, or -1.
func findSameMail(emails []model.Email, candidate model.MailSnapshot) int {
	for i, e := range emails {
		if isSameMail(e, candidate) {
			return i
		}
	}
	return -1
}

func threadRoot(threadIndex string) string {
	if len(threadIndex) > threadRootLen {
		return threadIndex[:threadRootLen]
	}
	return threadIndex
}
