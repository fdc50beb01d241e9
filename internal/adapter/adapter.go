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

// Package adapter defines the capability set the engine requires of a
// mail source, independent of whether that source is Microsoft Graph,
// IMAP, or anything else a Source implementation fronts.
package adapter

import (
	"context"
	"time"

	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/model"
)

// Handle is the capability set a mail-source adapter exposes for one
// message: entry_id, store_id, conversation_id, message_id, thread
// index, subject, body, participants, attachments, and receipt time.
type Handle struct {
	EntryID           string
	StoreID           string
	ConversationID    string
	InternetMessageID string
	ThreadIndex       string
	Subject           string
	Sender            string
	To                string
	BodyText          string
	BodyHTML          string
	Participants      []string
	ReferenceIDs      []string
	Attachments       []model.Attachment
	ReceivedOn        time.Time
}

// Filter is a DASL-style predicate over the fields a Source's query
// methods accept: ReceivedTime, ConversationID, a phrase-matched
// subject (optionally trailing-wildcarded), and creation time.
type Filter struct {
	ConversationID   string
	ReceivedSince    time.Time
	CreatedSince     time.Time
	SubjectPhrase    string
	SubjectWildcard  bool
	IncludeSubfolder bool
}

// Source is the mail-source adapter the ingestion facade and catch-up
// engine consume. Implementations (graphadapter, imapadapter) translate
// this capability set onto their transport's native query language.
type Source interface {
	// ResolveByID fetches one message by its adapter-native identifiers.
	// A message that no longer exists returns (nil, nil).
	ResolveByID(ctx context.Context, entryID, storeID string) (*Handle, error)

	// EnumerateConversation walks a conversation from a seed message
	// forward, returning every handle the source has plus its own report
	// of the conversation's total size (so callers can detect
	// completeness without a further round trip).
	EnumerateConversation(ctx context.Context, seedEntryID, conversationID string, sinceUTC time.Time) ([]Handle, int, error)

	// RestrictFolder runs filter against one named folder (Inbox, Sent,
	// Deleted, ...), optionally including child folders.
	RestrictFolder(ctx context.Context, folder string, filter Filter) ([]Handle, error)

	// Search runs an advanced, cross-folder query; scope names the
	// adapter-defined search scope (e.g. "mailbox").
	Search(ctx context.Context, scope string, filter Filter) ([]Handle, error)
}
