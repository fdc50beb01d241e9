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

package adapter

import (
	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/model"
	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/textutil"
)

// SnapshotFromHandle maps an adapter Handle onto the immutable
// MailSnapshot the core classifies, applying every normalisation step a
// transport-specific adapter would otherwise have to repeat itself:
// participant normalisation, message-id normalisation, body
// fingerprinting, thread-index prefixing, and historical-subject mining.
func SnapshotFromHandle(h Handle) model.MailSnapshot {
	participants := model.NewStringSet(textutil.NormalizeParticipants(h.Participants)...)

	refs := model.NewStringSet()
	for _, id := range h.ReferenceIDs {
		refs.Add(textutil.NormalizeMessageID(id))
	}

	return model.MailSnapshot{
		EntryID:             h.EntryID,
		StoreID:             h.StoreID,
		ConversationID:      h.ConversationID,
		InternetMessageID:   textutil.NormalizeMessageID(h.InternetMessageID),
		Sender:              h.Sender,
		To:                  h.To,
		Subject:             h.Subject,
		Participants:        participants,
		BodyFingerprint:     textutil.BodyFingerprint(h.BodyText, h.BodyHTML),
		ThreadIndex:         h.ThreadIndex,
		ThreadIndexPrefix:   textutil.ThreadIndexPrefix(h.ThreadIndex),
		ReferenceMessageIDs: refs,
		ReceivedOn:          h.ReceivedOn,
		HistoricalSubjects:  textutil.ExtractHistoricalSubjects(h.BodyText),
		Attachments:         h.Attachments,
	}
}
