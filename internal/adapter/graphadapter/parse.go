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

package graphadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/adapter"
	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/model"
)

// graphMessage mirrors the subset of the Graph API message resource
// this adapter selects.
type graphMessage struct {
	ID                string `json:"id"`
	ConversationID    string `json:"conversationId"`
	InternetMessageID string `json:"internetMessageId"`
	ConversationIndex string `json:"conversationIndex"`
	Subject           string `json:"subject"`
	From              struct {
		EmailAddress struct {
			Address string `json:"address"`
		} `json:"emailAddress"`
	} `json:"from"`
	ToRecipients []struct {
		EmailAddress struct {
			Address string `json:"address"`
		} `json:"emailAddress"`
	} `json:"toRecipients"`
	Body struct {
		ContentType string `json:"contentType"`
		Content     string `json:"content"`
	} `json:"body"`
	InternetMessageHeaders []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"internetMessageHeaders"`
	HasAttachments   bool      `json:"hasAttachments"`
	ReceivedDateTime time.Time `json:"receivedDateTime"`
	Attachments      []struct {
		Name        string `json:"name"`
		ContentType string `json:"contentType"`
		Size        int64  `json:"size"`
	} `json:"attachments"`
}

// graphMessagePage is the paged /messages response shape. Count carries
// the "@odata.count" conversation size Graph reports when $count=true.
type graphMessagePage struct {
	Value []graphMessage `json:"value"`
	Count int            `json:"@odata.count"`
}

func (m graphMessage) toHandle() adapter.Handle {
	to := make([]string, 0, len(m.ToRecipients))
	for _, r := range m.ToRecipients {
		if r.EmailAddress.Address != "" {
			to = append(to, r.EmailAddress.Address)
		}
	}

	participants := make([]string, 0, len(to)+1)
	if m.From.EmailAddress.Address != "" {
		participants = append(participants, m.From.EmailAddress.Address)
	}
	participants = append(participants, to...)

	var bodyText, bodyHTML string
	if strings.EqualFold(m.Body.ContentType, "html") {
		bodyHTML = m.Body.Content
	} else {
		bodyText = m.Body.Content
	}

	attachments := make([]model.Attachment, 0, len(m.Attachments))
	for i, a := range m.Attachments {
		attachments = append(attachments, model.Attachment{
			ID:                model.BuildAttachmentID(m.ID, i, a.Name),
			Filename:          a.Name,
			Extension:         strings.TrimPrefix(filepath.Ext(a.Name), "."),
			SizeBytes:         a.Size,
			SourceMailEntryID: m.ID,
		})
	}

	return adapter.Handle{
		EntryID:           m.ID,
		StoreID:           "",
		ConversationID:    m.ConversationID,
		InternetMessageID: m.InternetMessageID,
		ThreadIndex:       m.ConversationIndex,
		Subject:           m.Subject,
		Sender:            m.From.EmailAddress.Address,
		To:                strings.Join(to, "; "),
		BodyText:          bodyText,
		BodyHTML:          bodyHTML,
		Participants:      participants,
		ReferenceIDs:      m.referenceIDs(),
		Attachments:       attachments,
		ReceivedOn:        m.ReceivedDateTime,
	}
}

// referenceIDs pulls the References/In-Reply-To internet headers, which
// Graph exposes only through internetMessageHeaders, never as typed
// fields.
func (m graphMessage) referenceIDs() []string {
	var out []string
	for _, h := range m.InternetMessageHeaders {
		if strings.EqualFold(h.Name, "References") || strings.EqualFold(h.Name, "In-Reply-To") {
			out = append(out, strings.Fields(h.Value)...)
		}
	}
	return out
}

// getJSON issues a GET against endpoint and decodes a 200 response into
// out. A 404 is reported as (false, nil) — "no longer exists" is not a
// transport failure.
func (a *Adapter) getJSON(ctx context.Context, endpoint string, out any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Prefer", `outlook.body-content-type="text"`)
	req.Header.Set("ConsistencyLevel", "eventual")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("graph request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return false, fmt.Errorf("graph API returned HTTP %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("decode graph response: %w", err)
	}
	return true, nil
}
