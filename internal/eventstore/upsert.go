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
	"errors"

	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/model"
	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/textutil"
)

// errRefusedSoftDeleted signals that a snapshot matched a soft-deleted
// member and allowRestore was false: the upsert must refuse entirely
// rather than touch any field.
var errRefusedSoftDeleted = errors.New("eventstore: matched member is soft-deleted")

// snapshotToEmail converts an adapter snapshot into a fresh member
// record.
func snapshotToEmail(snapshot model.MailSnapshot) model.Email {
	return model.Email{
		EntryID:             snapshot.EntryID,
		StoreID:             snapshot.StoreID,
		ConversationID:      snapshot.ConversationID,
		InternetMessageID:   textutil.NormalizeMessageID(snapshot.InternetMessageID),
		Sender:              snapshot.Sender,
		To:                  snapshot.To,
		Subject:             snapshot.Subject,
		Participants:        snapshot.Participants.Clone(),
		BodyFingerprint:     snapshot.BodyFingerprint,
		ThreadIndex:         snapshot.ThreadIndex,
		ThreadIndexPrefix:   snapshot.ThreadIndexPrefix,
		ReferenceMessageIDs: snapshot.ReferenceMessageIDs.Clone(),
		ReceivedOn:          snapshot.ReceivedOn,
	}
}

func attachmentsFor(snapshot model.MailSnapshot) []model.Attachment {
	out := make([]model.Attachment, len(snapshot.Attachments))
	copy(out, snapshot.Attachments)
	for i := range out {
		out[i].SourceMailEntryID = snapshot.EntryID
	}
	return out
}

func dropAttachmentsFor(attachments []model.Attachment, entryID string) []model.Attachment {
	out := attachments[:0:0]
	for _, a := range attachments {
		if a.SourceMailEntryID != entryID {
			out = append(out, a)
		}
	}
	return out
}

func addConversationID(ev *model.Event, id string) {
	if id == "" {
		return
	}
	for _, existing := range ev.ConversationIDs {
		if existing == id {
			return
		}
	}
	ev.ConversationIDs = append(ev.ConversationIDs, id)
}

func addSubjectAndHistory(ev *model.Event, subject string, historical []string) {
	if subject != "" {
		ev.RelatedSubjects.Add(textutil.NormalizeSubject(subject))
	}
	for _, h := range historical {
		if h != "" {
			ev.RelatedSubjects.Add(textutil.NormalizeSubject(h))
		}
	}
}

// upsertMailIntoEvent applies the §4.2 upsert rule to ev using snapshot,
// mutating ev in place. It returns the change reason to emit, or an
// error (errRefusedSoftDeleted when a tombstoned member refused a
// non-restoring upsert).
func upsertMailIntoEvent(ev *model.Event, snapshot model.MailSnapshot, allowRestore bool) (ChangeReason, error) {
	idx := findSameMail(ev.Emails, snapshot)

	if idx < 0 {
		member := snapshotToEmail(snapshot)
		member.IsNewOrUpdated = !ev.ProcessedMessageIDs.Contains(member.InternetMessageID)
		ev.Emails = append(ev.Emails, member)
		ev.Attachments = append(ev.Attachments, attachmentsFor(snapshot)...)
		addSubjectAndHistory(ev, snapshot.Subject, snapshot.HistoricalSubjects)
		ev.Participants = ev.Participants.Union(snapshot.Participants)
		addConversationID(ev, snapshot.ConversationID)
		return ReasonMailAppended, nil
	}

	existing := ev.Emails[idx]

	if existing.IsRemoved {
		if !allowRestore {
			return "", errRefusedSoftDeleted
		}
		existing.IsRemoved = false
		existing = mergeMemberFields(existing, snapshot)
		existing.IsNewOrUpdated = !ev.ProcessedMessageIDs.Contains(existing.InternetMessageID)
		ev.Emails[idx] = existing
		ev.Attachments = dropAttachmentsFor(ev.Attachments, existing.EntryID)
		ev.Attachments = append(ev.Attachments, attachmentsFor(snapshot)...)
		addSubjectAndHistory(ev, snapshot.Subject, snapshot.HistoricalSubjects)
		ev.Participants = ev.Participants.Union(snapshot.Participants)
		addConversationID(ev, snapshot.ConversationID)
		return ReasonMailUpdated, nil
	}

	priorEntryID := existing.EntryID
	merged, contentChanged := mergeMemberFieldsTracked(existing, snapshot)
	if contentChanged {
		merged.IsNewOrUpdated = !ev.ProcessedMessageIDs.Contains(merged.InternetMessageID)
	}
	ev.Emails[idx] = merged

	ev.Attachments = dropAttachmentsFor(ev.Attachments, priorEntryID)
	ev.Attachments = append(ev.Attachments, attachmentsFor(snapshot)...)

	addSubjectAndHistory(ev, snapshot.Subject, snapshot.HistoricalSubjects)
	ev.Participants = ev.Participants.Union(snapshot.Participants)
	addConversationID(ev, snapshot.ConversationID)

	metadataChanged := merged.To != existing.To || merged.EntryID != existing.EntryID ||
		merged.StoreID != existing.StoreID || merged.ConversationID != existing.ConversationID ||
		merged.ThreadIndex != existing.ThreadIndex || !merged.ReceivedOn.Equal(existing.ReceivedOn) ||
		merged.ReferenceMessageIDs.Len() != existing.ReferenceMessageIDs.Len()

	if !contentChanged && !metadataChanged {
		// Re-ingesting an identical snapshot: the member already
		// matched, nothing it carries is new. Report no-op so the
		// caller leaves updated_at and its change feed untouched.
		return reasonNone, nil
	}
	return ReasonMailUpdated, nil
}

// mergeMemberFields applies mergeMemberFieldsTracked and discards the
// change flag, for the restore path where the transition itself is
// already known to be a content change.
func mergeMemberFields(existing model.Email, snapshot model.MailSnapshot) model.Email {
	merged, _ := mergeMemberFieldsTracked(existing, snapshot)
	return merged
}

// mergeMemberFieldsTracked merges snapshot into existing and reports
// whether any content-changing field (sender, subject, body_fingerprint,
// participants) actually differed.
func mergeMemberFieldsTracked(existing model.Email, snapshot model.MailSnapshot) (model.Email, bool) {
	changed := false

	if snapshot.Sender != "" && snapshot.Sender != existing.Sender {
		existing.Sender = snapshot.Sender
		changed = true
	}
	if snapshot.Subject != "" && snapshot.Subject != existing.Subject {
		existing.Subject = snapshot.Subject
		changed = true
	}
	if snapshot.BodyFingerprint != "" && snapshot.BodyFingerprint != existing.BodyFingerprint {
		existing.BodyFingerprint = snapshot.BodyFingerprint
		changed = true
	}
	if snapshot.Participants.Len() > 0 {
		union := existing.Participants.Union(snapshot.Participants)
		if union.Len() != existing.Participants.Len() {
			changed = true
		}
		existing.Participants = union
	}

	if snapshot.To != "" && snapshot.To != existing.To {
		existing.To = snapshot.To
	}
	if snapshot.EntryID != "" && snapshot.EntryID != existing.EntryID {
		existing.EntryID = snapshot.EntryID
	}
	if snapshot.StoreID != "" && snapshot.StoreID != existing.StoreID {
		existing.StoreID = snapshot.StoreID
	}
	if snapshot.ConversationID != "" && snapshot.ConversationID != existing.ConversationID {
		existing.ConversationID = snapshot.ConversationID
	}
	if snapshot.ThreadIndex != "" && snapshot.ThreadIndex != existing.ThreadIndex {
		existing.ThreadIndex = snapshot.ThreadIndex
		existing.ThreadIndexPrefix = snapshot.ThreadIndexPrefix
	}
	if !snapshot.ReceivedOn.IsZero() {
		existing.ReceivedOn = snapshot.ReceivedOn
	}
	existing.ReferenceMessageIDs = existing.ReferenceMessageIDs.Union(snapshot.ReferenceMessageIDs)

	return existing, changed
}
