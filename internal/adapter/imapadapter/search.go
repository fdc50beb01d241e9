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

package imapadapter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/adapter"
)

// bodySectionSpec is the single body-section fetch spec used for every
// fetch; FindBodySection matches by value, so the same spec must be
// used both when building FetchOptions and when reading the result back.
var bodySectionSpec = &imap.FetchItemBodySection{Peek: true}

func parseUID(entryID string) (imap.UID, error) {
	n, err := strconv.ParseUint(entryID, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid IMAP UID %q: %w", entryID, err)
	}
	return imap.UID(n), nil
}

func fetchByUID(client *imapclient.Client, folder string, uid imap.UID) ([]adapter.Handle, error) {
	uidSet := imap.UIDSetNum(uid)
	return fetchUIDSet(client, folder, uidSet)
}

func searchHeader(client *imapclient.Client, folder, header, value string, sinceUTC time.Time) ([]adapter.Handle, error) {
	if value == "" {
		return nil, nil
	}
	criteria := &imap.SearchCriteria{
		Header: []imap.SearchCriteriaHeaderField{{Key: header, Value: value}},
	}
	if !sinceUTC.IsZero() {
		criteria.Since = sinceUTC
	}
	return runSearch(client, folder, criteria)
}

// searchFilter maps the engine's DASL-ish filter onto IMAP SEARCH
// criteria: subject phrase (wildcarded or exact) and a received-since
// bound. IMAP SEARCH has no wildcard syntax of its own — SUBJECT
// already does a substring match, so the wildcard flag only controls
// whether we treat it as a single-token trailing match upstream.
func searchFilter(client *imapclient.Client, folder string, filter adapter.Filter) ([]adapter.Handle, error) {
	criteria := &imap.SearchCriteria{}
	if filter.SubjectPhrase != "" {
		criteria.Header = append(criteria.Header, imap.SearchCriteriaHeaderField{Key: "Subject", Value: filter.SubjectPhrase})
	}
	if !filter.ReceivedSince.IsZero() {
		criteria.Since = filter.ReceivedSince
	}
	if filter.ConversationID != "" {
		criteria.Header = append(criteria.Header, imap.SearchCriteriaHeaderField{Key: "References", Value: filter.ConversationID})
	}
	return runSearch(client, folder, criteria)
}

func runSearch(client *imapclient.Client, folder string, criteria *imap.SearchCriteria) ([]adapter.Handle, error) {
	searchData, err := client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("IMAP SEARCH in %s: %w", folder, err)
	}
	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}
	return fetchUIDSet(client, folder, imap.UIDSetNum(uids...))
}

func fetchUIDSet(client *imapclient.Client, folder string, uidSet imap.UIDSet) ([]adapter.Handle, error) {
	fetchOpts := &imap.FetchOptions{
		Envelope:    true,
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySectionSpec},
	}

	fetchCmd := client.Fetch(uidSet, fetchOpts)
	defer fetchCmd.Close()

	var handles []adapter.Handle
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}
		buf, err := msg.Collect()
		if err != nil {
			continue
		}
		handles = append(handles, handleFromBuffer(folder, buf))
	}
	if err := fetchCmd.Close(); err != nil {
		return handles, fmt.Errorf("fetch in %s: %w", folder, err)
	}
	return handles, nil
}

func dedupeHandles(in []adapter.Handle) []adapter.Handle {
	seen := make(map[string]struct{}, len(in))
	out := make([]adapter.Handle, 0, len(in))
	for _, h := range in {
		key := strings.ToUpper(h.EntryID)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, h)
	}
	return out
}
