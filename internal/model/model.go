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

// Package model defines the data structures shared across the event
// classification and ingestion engine.
package model

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of an Event.
type Status string

const (
	StatusOpen     Status = "open"
	StatusArchived Status = "archived"
)

// Attachment is a single file attached to a member mail.
type Attachment struct {
	ID                string `json:"id"` // entry_id:position:filename
	Filename          string `json:"filename"`
	Extension         string `json:"extension"`
	SizeBytes         int64  `json:"size_bytes"`
	SourceMailEntryID string `json:"source_mail_entry_id"`
}

// BuildAttachmentID derives the stable id of an attachment from its
// source mail, position within that mail, and filename.
func BuildAttachmentID(entryID string, position int, filename string) string {
	return fmt.Sprintf("%s:%d:%s", entryID, position, filename)
}

// DashboardItem is an opaque key/value pair populated by external
// extraction. The core never interprets its contents.
type DashboardItem struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Email is a mail message currently (or previously) associated with an
// Event.
type Email struct {
	EntryID             string    `json:"entry_id"`
	StoreID             string    `json:"store_id"`
	ConversationID      string    `json:"conversation_id"`
	InternetMessageID   string    `json:"internet_message_id"`
	Sender              string    `json:"sender"`
	To                  string    `json:"to"`
	Subject             string    `json:"subject"`
	Participants        StringSet `json:"participants"`
	BodyFingerprint     string    `json:"body_fingerprint"`
	ThreadIndex         string    `json:"thread_index"`
	ThreadIndexPrefix   string    `json:"thread_index_prefix"`
	ReferenceMessageIDs StringSet `json:"reference_message_ids"`
	ReceivedOn          time.Time `json:"received_on"`
	IsNewOrUpdated      bool      `json:"is_new_or_updated"`
	IsRemoved           bool      `json:"is_removed"`
}

// Clone returns a deep copy of e.
func (e Email) Clone() Email {
	c := e
	c.Participants = e.Participants.Clone()
	c.ReferenceMessageIDs = e.ReferenceMessageIDs.Clone()
	return c
}

// Event is the aggregate business object grouping related mails.
type Event struct {
	EventID              string          `json:"event_id"`
	Title                string          `json:"title"`
	TemplateID           string          `json:"template_id,omitempty"`
	Status               Status          `json:"status"`
	Priority             int             `json:"priority"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
	ConversationIDs      []string        `json:"conversation_ids"`
	RelatedSubjects      StringSet       `json:"related_subjects"`
	Participants         StringSet       `json:"participants"`
	NotFoundMessageIDs    StringSet      `json:"not_found_message_ids"`
	ProcessedMessageIDs   StringSet      `json:"processed_message_ids"`
	Emails               []Email         `json:"emails"`
	Attachments          []Attachment    `json:"attachments"`
	DashboardItems       []DashboardItem `json:"dashboard_items"`
	DisplayColumnSource  string          `json:"display_column_source,omitempty"`
	DisplayColumnCustom  string          `json:"display_column_custom,omitempty"`
	AdditionalFiles      []string        `json:"additional_files,omitempty"`
}

// Clone returns a deep copy of ev so callers never hold a live reference
// into the event store.
func (ev Event) Clone() Event {
	c := ev
	c.ConversationIDs = append([]string(nil), ev.ConversationIDs...)
	c.RelatedSubjects = ev.RelatedSubjects.Clone()
	c.Participants = ev.Participants.Clone()
	c.NotFoundMessageIDs = ev.NotFoundMessageIDs.Clone()
	c.ProcessedMessageIDs = ev.ProcessedMessageIDs.Clone()
	c.Emails = make([]Email, len(ev.Emails))
	for i, m := range ev.Emails {
		c.Emails[i] = m.Clone()
	}
	c.Attachments = append([]Attachment(nil), ev.Attachments...)
	c.DashboardItems = append([]DashboardItem(nil), ev.DashboardItems...)
	c.AdditionalFiles = append([]string(nil), ev.AdditionalFiles...)
	return c
}

// FirstSubject returns the subject of the first member mail, or "".
func (ev Event) FirstSubject() string {
	if len(ev.Emails) == 0 {
		return ""
	}
	return ev.Emails[0].Subject
}

// ActiveEmailCount returns the number of members that are not soft-deleted.
func (ev Event) ActiveEmailCount() int {
	n := 0
	for _, m := range ev.Emails {
		if !m.IsRemoved {
			n++
		}
	}
	return n
}

// MailSnapshot is the immutable value object the mail-source adapter
// hands in. It carries every datum the engine uses to classify a mail.
type MailSnapshot struct {
	EntryID             string
	StoreID             string
	ConversationID      string
	InternetMessageID   string
	Sender              string
	To                  string
	Subject             string
	Participants        StringSet
	BodyFingerprint     string
	ThreadIndex         string
	ThreadIndexPrefix   string
	ReferenceMessageIDs StringSet
	ReceivedOn          time.Time
	HistoricalSubjects  []string
	Attachments         []Attachment
}
