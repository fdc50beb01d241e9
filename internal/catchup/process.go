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

package catchup

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/adapter"
	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/metrics"
	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/model"
	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/retry"
)

var tokenSplit = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// processRequest runs the full per-request algorithm of §4.4 step 3-6
// for one dequeued (event, conversation) request.
func (e *Engine) processRequest(ctx context.Context, req Request) {
	ev, err := e.store.GetByID(req.EventID)
	if err != nil {
		e.logger.Warn("catch-up: event vanished before processing", "event_id", req.EventID, "error", err)
		return
	}

	since := e.lookbackSince(ev, req.FullHistory)
	known := knownEntryIDs(ev, req.ConversationID)

	seed := seedEntryID(ev, req.ConversationID)
	var handles []adapter.Handle
	var reportedSize int
	err = retry.Do(ctx, e.cfg.DeferredBackoffs, func() error {
		var enumErr error
		handles, reportedSize, enumErr = e.source.EnumerateConversation(ctx, seed, req.ConversationID, since)
		return enumErr
	})
	if err != nil {
		e.logger.Warn("catch-up: conversation enumeration failed after retries", "event_id", req.EventID, "conversation_id", req.ConversationID, "error", err)
	}

	if reportedSize > 0 && reportedSize <= len(known) {
		e.logger.Info("catch-up: conversation completeness satisfied", "event_id", req.EventID, "conversation_id", req.ConversationID)
		if e.audit != nil {
			if _, auditErr := e.audit.RecordRun(ctx, req.EventID, req.ConversationID, 0, nil, true, err); auditErr != nil {
				e.logger.Warn("catch-up: audit record failed", "event_id", req.EventID, "error", auditErr)
			}
		}
		return
	}

	newCount, deferred := e.ingestHandles(ctx, req.EventID, known, handles)

	if newCount == 0 {
		restricted := e.restrictedFolderCandidates(ctx, req.ConversationID, since)
		var more []string
		newCount, more = e.ingestHandles(ctx, req.EventID, known, restricted)
		deferred = append(deferred, more...)
	}

	if newCount == 0 {
		subjectMatches := e.subjectTokenCandidates(ctx, ev, since)
		_, more := e.ingestHandles(ctx, req.EventID, known, subjectMatches)
		deferred = append(deferred, more...)
	}

	completed := reportedSize > 0 && reportedSize <= len(known)
	if e.audit != nil {
		if runID, auditErr := e.audit.RecordRun(ctx, req.EventID, req.ConversationID, newCount, deferred, completed, err); auditErr != nil {
			e.logger.Warn("catch-up: audit record failed", "event_id", req.EventID, "error", auditErr)
		} else {
			e.logger.Info("catch-up: audit run recorded", "event_id", req.EventID, "run_id", runID)
		}
	}

	e.logger.Info("catch-up: request processed", "event_id", req.EventID, "conversation_id", req.ConversationID, "candidates_seen", len(handles))
}

func (e *Engine) lookbackSince(ev model.Event, fullHistory bool) time.Time {
	window := e.cfg.LookbackNormal
	if fullHistory {
		window = e.cfg.LookbackFull
	}
	since := time.Now().UTC().Add(-window)

	if earliest := earliestReceivedOn(ev); !earliest.IsZero() {
		extended := earliest.Add(-e.cfg.LookbackExtension)
		if extended.Before(since) {
			since = extended
		}
	}
	return since
}

func earliestReceivedOn(ev model.Event) time.Time {
	var earliest time.Time
	for _, m := range ev.Emails {
		if earliest.IsZero() || m.ReceivedOn.Before(earliest) {
			earliest = m.ReceivedOn
		}
	}
	return earliest
}

func knownEntryIDs(ev model.Event, conversationID string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, m := range ev.Emails {
		if m.ConversationID == conversationID {
			out[strings.ToUpper(m.EntryID)] = struct{}{}
		}
	}
	return out
}

func seedEntryID(ev model.Event, conversationID string) string {
	for _, m := range ev.Emails {
		if m.ConversationID == conversationID && !m.IsRemoved {
			return m.EntryID
		}
	}
	return ""
}

// ingestHandles feeds every handle not already known through TryAddMail
// with the event preferred, and reports how many were newly accepted
// along with the entry ids deferred to the secondary search queue.
func (e *Engine) ingestHandles(ctx context.Context, eventID string, known map[string]struct{}, handles []adapter.Handle) (int, []string) {
	accepted := 0
	var deferred []string
	for _, h := range handles {
		if ctx.Err() != nil {
			return accepted, deferred
		}
		if _, ok := known[strings.ToUpper(h.EntryID)]; ok {
			continue
		}
		snapshot := adapter.SnapshotFromHandle(h)
		_, candidate, err := e.store.TryAddMail(snapshot, eventID)
		if err != nil {
			e.logger.Warn("catch-up: ingest failed", "event_id", eventID, "entry_id", h.EntryID, "error", err)
			continue
		}
		if candidate == nil {
			e.search.enqueueEntry(eventID, h.EntryID, h.InternetMessageID, h.ConversationID)
			deferred = append(deferred, h.EntryID)
			continue
		}
		known[strings.ToUpper(h.EntryID)] = struct{}{}
		accepted++
		metrics.CatchupCandidatesFound.Inc()
	}
	return accepted, deferred
}

func (e *Engine) restrictedFolderCandidates(ctx context.Context, conversationID string, since time.Time) []adapter.Handle {
	var out []adapter.Handle
	for _, folder := range []string{"Inbox", "Sent", "Deleted"} {
		filter := adapter.Filter{
			ConversationID:   conversationID,
			ReceivedSince:    since,
			IncludeSubfolder: folder == "Inbox",
		}
		handles, err := e.source.RestrictFolder(ctx, folder, filter)
		if err != nil {
			e.logger.Warn("catch-up: restricted folder query failed", "folder", folder, "error", err)
			continue
		}
		out = append(out, handles...)
	}
	return out
}

func (e *Engine) subjectTokenCandidates(ctx context.Context, ev model.Event, since time.Time) []adapter.Handle {
	var out []adapter.Handle
	for _, subject := range ev.RelatedSubjects.Values() {
		tokens := tokenSplit.Split(subject, -1)
		tokens = nonEmpty(tokens)
		if len(tokens) == 0 {
			continue
		}
		if len(tokens) > e.cfg.MaxSubjectTokens {
			tokens = tokens[:e.cfg.MaxSubjectTokens]
		}

		for i, tok := range tokens {
			wildcard := len(tokens) <= e.cfg.WildcardMaxTokens && i == len(tokens)-1
			filter := adapter.Filter{
				SubjectPhrase:   tok,
				SubjectWildcard: wildcard,
				ReceivedSince:   since,
			}
			handles, err := e.source.RestrictFolder(ctx, "Inbox", filter)
			if err != nil {
				continue
			}
			out = append(out, handles...)
		}
	}
	return out
}

func nonEmpty(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
