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

// Package matching implements the scored, multi-signal selection of at
// most one Open event for an incoming mail snapshot.
package matching

import (
	"fmt"
	"sort"

	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/model"
	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/textutil"
)

const (
	weightStandardMatch       = 70
	weightTruncatedHistorical = 70
	weightHistoricalSubject   = 70
	weightPreferredBias       = 40

	// AcceptThreshold is the minimum score a candidate must reach to be
	// accepted; anything lower causes the mail to be dropped.
	AcceptThreshold = 25

	scoreTieTolerance = 0.01
)

// Options tunes which signals the engine evaluates. SecondarySignals
// gates conversation-id, reference-message-id, thread-index, and
// body-fingerprint similarity, which the production ruleset keeps
// computed but excluded from the acceptance score; they remain available
// here for callers (the catch-up engine's search phase) that want them.
type Options struct {
	SecondarySignals bool
}

// Candidate is a scored event a snapshot could be accepted into.
type Candidate struct {
	Event            model.Event
	Score            float64
	Reasons          []string
	Details          []string
	PreferredApplied bool
}

// SelectCandidate evaluates every Open event in events against snapshot
// and returns the single best-scoring candidate whose score is at least
// AcceptThreshold, or nil if none qualifies.
func SelectCandidate(events []model.Event, snapshot model.MailSnapshot, preferredEventID string, opts Options) *Candidate {
	var candidates []Candidate
	for _, ev := range events {
		if ev.Status != model.StatusOpen {
			continue
		}
		c := score(ev, snapshot, opts)
		if preferredEventID != "" && ev.EventID == preferredEventID && c.Score > 0 {
			c.Score += weightPreferredBias
			c.PreferredApplied = true
			c.Reasons = append(c.Reasons, "preferred_bias")
		}
		candidates = append(candidates, c)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return rank(candidates[i], candidates[j])
	})

	if len(candidates) == 0 {
		return nil
	}
	best := candidates[0]
	if best.Score < AcceptThreshold {
		return nil
	}
	return &best
}

// rank reports whether a should sort before b under the disambiguation
// order: score descending (ties within scoreTieTolerance), then
// preferred_applied, then more distinct reasons, then most recently
// updated.
func rank(a, b Candidate) bool {
	if diff := a.Score - b.Score; diff > scoreTieTolerance || diff < -scoreTieTolerance {
		return a.Score > b.Score
	}
	if a.PreferredApplied != b.PreferredApplied {
		return a.PreferredApplied
	}
	if len(a.Reasons) != len(b.Reasons) {
		return len(a.Reasons) > len(b.Reasons)
	}
	return a.Event.UpdatedAt.After(b.Event.UpdatedAt)
}

func score(ev model.Event, snapshot model.MailSnapshot, opts Options) Candidate {
	c := Candidate{Event: ev}
	candidateSubjects := subjectCandidates(ev)
	participantsIntersect := snapshotParticipantsIntersect(ev, snapshot)

	if participantsIntersect && subjectOverlap(snapshot.Subject, candidateSubjects) {
		c.Score += weightStandardMatch
		c.Reasons = append(c.Reasons, "subject_participant_standard")
		c.Details = append(c.Details, fmt.Sprintf("standard subject match against event %s", ev.EventID))
	}

	if participantsIntersect && truncatedWithHistoricalConfirmation(snapshot, candidateSubjects) {
		c.Score += weightTruncatedHistorical
		c.Reasons = append(c.Reasons, "truncated_subject_historical_confirmation")
		c.Details = append(c.Details, fmt.Sprintf("truncated subject confirmed by historical subject against event %s", ev.EventID))
	}

	if participantsIntersect && historicalSubjectMatches(snapshot.HistoricalSubjects, candidateSubjects) {
		c.Score += weightHistoricalSubject
		c.Reasons = append(c.Reasons, "historical_subject_match")
		c.Details = append(c.Details, fmt.Sprintf("historical subject match against event %s", ev.EventID))
	}

	if opts.SecondarySignals {
		scoreSecondarySignals(&c, ev, snapshot)
	}

	return c
}

// subjectCandidates returns every subject string a snapshot's subject can
// be compared against within an event: the title, the first member's
// subject, and the related_subjects set.
func subjectCandidates(ev model.Event) []string {
	out := make([]string, 0, 2+ev.RelatedSubjects.Len())
	if ev.Title != "" {
		out = append(out, ev.Title)
	}
	if first := ev.FirstSubject(); first != "" {
		out = append(out, first)
	}
	out = append(out, ev.RelatedSubjects.Values()...)
	return out
}

func snapshotParticipantsIntersect(ev model.Event, snapshot model.MailSnapshot) bool {
	return ev.Participants.Intersects(snapshot.Participants)
}

// subjectOverlap reports whether subject equals, or is a ≥4-char prefix
// of, any of candidates.
func subjectOverlap(subject string, candidates []string) bool {
	for _, cand := range candidates {
		if textutil.NormalizeSubject(subject) == textutil.NormalizeSubject(cand) {
			return true
		}
		if textutil.TruncatedMatch(subject, cand) {
			return true
		}
	}
	return false
}

// truncatedWithHistoricalConfirmation reports whether the snapshot
// subject is a truncated prefix of a candidate subject, and at least one
// of the snapshot's historical subjects standard-matches the same
// candidate set.
func truncatedWithHistoricalConfirmation(snapshot model.MailSnapshot, candidates []string) bool {
	truncated := false
	for _, cand := range candidates {
		if textutil.TruncatedMatch(snapshot.Subject, cand) {
			truncated = true
			break
		}
	}
	if !truncated {
		return false
	}
	return historicalSubjectMatches(snapshot.HistoricalSubjects, candidates)
}

func historicalSubjectMatches(historical []string, candidates []string) bool {
	for _, h := range historical {
		for _, cand := range candidates {
			if textutil.StandardMatch(h, cand) {
				return true
			}
		}
	}
	return false
}
