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

	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/matching"
	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/model"
	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/osemerr"
	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/textutil"
)

// CreateFromMail allocates a fresh event seeded from a single mail
// snapshot. templateID and knownParticipants are optional: templateID
// seeds template_id, knownParticipants seeds participants in addition to
// those observed on the mail itself.
func (s *Store) CreateFromMail(snapshot model.MailSnapshot, templateID string, knownParticipants []string) (model.Event, error) {
	var result model.Event
	err := s.mutate(func() error {
		now := s.clock().UTC()
		ev := model.Event{
			EventID:    s.nextEventID(),
			Title:      snapshot.Subject,
			TemplateID: templateID,
			Status:     model.StatusOpen,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		addConversationID(&ev, snapshot.ConversationID)
		addSubjectAndHistory(&ev, snapshot.Subject, snapshot.HistoricalSubjects)
		ev.Participants = model.NewStringSet(knownParticipants...)
		ev.Participants = ev.Participants.Union(snapshot.Participants)

		member := snapshotToEmail(snapshot)
		member.IsNewOrUpdated = true
		ev.Emails = []model.Email{member}
		ev.Attachments = attachmentsFor(snapshot)

		s.events[ev.EventID] = ev
		result = ev.Clone()
		return nil
	})
	if err != nil {
		return model.Event{}, err
	}
	s.notify(Change{Event: result, Reason: ReasonCreated})
	return result, nil
}

// TryAddMail is the hot path: it runs the matching engine against every
// Open event and, if a candidate clears the acceptance threshold,
// upserts snapshot into it with allow_restore=false. It returns the
// updated event, or (zero, nil) if no candidate was accepted.
func (s *Store) TryAddMail(snapshot model.MailSnapshot, preferredEventID string) (model.Event, *matching.Candidate, error) {
	var result model.Event
	var chosen *matching.Candidate
	var reason ChangeReason

	err := s.mutate(func() error {
		candidate := matching.SelectCandidate(s.openEvents(), snapshot, preferredEventID, s.matchOpts)
		if candidate == nil {
			return nil
		}
		chosen = candidate

		ev := s.events[candidate.Event.EventID]
		r, err := upsertMailIntoEvent(&ev, snapshot, false)
		if err != nil {
			// A soft-deleted member refused the upsert: the live mail is
			// silently dropped, matching the no-candidate outcome.
			chosen = nil
			return nil
		}
		if r != reasonNone {
			s.touch(&ev)
		}
		s.events[ev.EventID] = ev
		reason = r
		result = ev.Clone()
		return nil
	})
	if err != nil {
		return model.Event{}, nil, err
	}
	if chosen == nil {
		return model.Event{}, nil, nil
	}
	if reason != reasonNone {
		s.notify(Change{Event: result, Reason: reason})
	}
	return result, chosen, nil
}

// AddMailToEvent bypasses matching entirely: it always appends snapshot
// to the named event, and is allowed to restore a soft-deleted member.
func (s *Store) AddMailToEvent(eventID string, snapshot model.MailSnapshot) (model.Event, error) {
	var result model.Event
	var reason ChangeReason
	err := s.mutate(func() error {
		ev, ok := s.events[eventID]
		if !ok {
			return osemerr.NotFoundf("event %q", eventID)
		}
		r, err := upsertMailIntoEvent(&ev, snapshot, true)
		if err != nil {
			return err
		}
		if r != reasonNone {
			s.touch(&ev)
		}
		s.events[eventID] = ev
		reason = r
		result = ev.Clone()
		return nil
	})
	if err != nil {
		return model.Event{}, err
	}
	if reason != reasonNone {
		s.notify(Change{Event: result, Reason: reason})
	}
	return result, nil
}

// RemoveMail soft-deletes the member identified by entryID or messageID
// (whichever is non-empty; entryID takes precedence), strips its
// attachments, and drops its subject from related_subjects iff no other
// active member still uses it.
func (s *Store) RemoveMail(eventID, entryID, messageID string) error {
	var result model.Event
	var removedSubject string
	removed := false
	err := s.mutate(func() error {
		ev, ok := s.events[eventID]
		if !ok {
			return osemerr.NotFoundf("event %q", eventID)
		}

		idx := -1
		if entryID != "" {
			for i, m := range ev.Emails {
				if strings.EqualFold(m.EntryID, entryID) {
					idx = i
					break
				}
			}
		}
		if idx < 0 && messageID != "" {
			want := textutil.NormalizeMessageID(messageID)
			for i, m := range ev.Emails {
				if textutil.NormalizeMessageID(m.InternetMessageID) == want {
					idx = i
					break
				}
			}
		}
		if idx < 0 {
			return osemerr.NotFoundf("mail in event %q", eventID)
		}

		member := ev.Emails[idx]
		if member.IsRemoved {
			return nil
		}
		member.IsRemoved = true
		ev.Emails[idx] = member
		ev.Attachments = dropAttachmentsFor(ev.Attachments, member.EntryID)

		removedSubject = textutil.NormalizeSubject(member.Subject)
		if !subjectStillActive(ev.Emails, removedSubject) {
			ev.RelatedSubjects.Remove(removedSubject)
		}

		s.touch(&ev)
		s.events[eventID] = ev
		removed = true
		result = ev.Clone()
		return nil
	})
	if err != nil {
		return err
	}
	if removed {
		s.notify(Change{Event: result, Reason: ReasonMailRemoved})
	}
	return nil
}

func subjectStillActive(emails []model.Email, normalizedSubject string) bool {
	for _, m := range emails {
		if m.IsRemoved {
			continue
		}
		if textutil.NormalizeSubject(m.Subject) == normalizedSubject {
			return true
		}
	}
	return false
}
