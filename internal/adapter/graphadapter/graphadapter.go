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

// Package graphadapter implements adapter.Source against the Microsoft
// Graph API for a single mailbox, authenticated with OAuth2 client
// credentials.
package graphadapter

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/adapter"
	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/metrics"
	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/osemerr"
	"golang.org/x/oauth2/clientcredentials"
)

const defaultGraphBaseURL = "https://graph.microsoft.com/v1.0"

const messageSelect = "id,conversationId,internetMessageId,conversationIndex,subject,from,toRecipients,body,internetMessageHeaders,hasAttachments,receivedDateTime"

const attachmentExpand = "attachments($select=name,contentType,size)"

var _ adapter.Source = (*Adapter)(nil)

// Adapter fronts one mailbox on one tenant.
type Adapter struct {
	httpClient *http.Client
	baseURL    string
	mailbox    string
	logger     *slog.Logger
}

// New builds a Graph adapter for mailbox, using the client-credentials
// flow scoped to the tenant's default Graph permissions.
func New(tenantID, clientID, clientSecret, graphBaseURL, mailbox string, logger *slog.Logger) *Adapter {
	if graphBaseURL == "" {
		graphBaseURL = defaultGraphBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}

	ccCfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", tenantID),
		Scopes:       []string{"https://graph.microsoft.com/.default"},
	}

	return &Adapter{
		httpClient: ccCfg.Client(context.Background()),
		baseURL:    graphBaseURL,
		mailbox:    mailbox,
		logger:     logger,
	}
}

// ResolveByID fetches one message by its Graph message id. storeID is
// unused on Graph (a mailbox only ever has one store); it's accepted to
// satisfy adapter.Source.
func (a *Adapter) ResolveByID(ctx context.Context, entryID, storeID string) (*adapter.Handle, error) {
	endpoint := fmt.Sprintf("%s/users/%s/messages/%s?$select=%s&$expand=%s",
		a.baseURL, url.PathEscape(a.mailbox), url.PathEscape(entryID), messageSelect, url.QueryEscape(attachmentExpand))

	var msg graphMessage
	found, err := a.getJSON(ctx, endpoint, &msg)
	if err != nil {
		metrics.AdapterFailures.WithLabelValues("graph").Inc()
		return nil, osemerr.AdapterFailed("graph", err)
	}
	if !found {
		return nil, nil
	}
	h := msg.toHandle()
	return &h, nil
}

// EnumerateConversation lists every message in conversationID received
// since sinceUTC, along with Graph's own count of the conversation so
// callers can detect completeness without a further round trip.
func (a *Adapter) EnumerateConversation(ctx context.Context, seedEntryID, conversationID string, sinceUTC time.Time) ([]adapter.Handle, int, error) {
	filter := fmt.Sprintf("conversationId eq '%s' and receivedDateTime ge %s",
		escapeODataLiteral(conversationID), sinceUTC.UTC().Format(time.RFC3339))

	endpoint := fmt.Sprintf("%s/users/%s/messages?$select=%s&$expand=%s&$filter=%s&$count=true&$top=100",
		a.baseURL, url.PathEscape(a.mailbox), messageSelect, url.QueryEscape(attachmentExpand), url.QueryEscape(filter))

	var page graphMessagePage
	_, err := a.getJSON(ctx, endpoint, &page)
	if err != nil {
		metrics.AdapterFailures.WithLabelValues("graph").Inc()
		return nil, 0, osemerr.AdapterFailed("graph", err)
	}

	handles := make([]adapter.Handle, 0, len(page.Value))
	for _, m := range page.Value {
		handles = append(handles, m.toHandle())
	}
	return handles, page.Count, nil
}

// RestrictFolder runs filter against one named mail folder.
// filter.IncludeSubfolder is not honoured: child folders are not searched.
func (a *Adapter) RestrictFolder(ctx context.Context, folder string, filter adapter.Filter) ([]adapter.Handle, error) {
	odataFilter := buildODataFilter(filter)

	endpoint := fmt.Sprintf("%s/users/%s/mailFolders/%s/messages?$select=%s&$expand=%s&$top=100",
		a.baseURL, url.PathEscape(a.mailbox), url.PathEscape(folder), messageSelect, url.QueryEscape(attachmentExpand))
	if odataFilter != "" {
		endpoint += "&$filter=" + url.QueryEscape(odataFilter)
	}

	var page graphMessagePage
	_, err := a.getJSON(ctx, endpoint, &page)
	if err != nil {
		metrics.AdapterFailures.WithLabelValues("graph").Inc()
		return nil, osemerr.AdapterFailed("graph", err)
	}

	handles := make([]adapter.Handle, 0, len(page.Value))
	for _, m := range page.Value {
		handles = append(handles, m.toHandle())
	}
	return handles, nil
}

// Search runs Graph's $search against the mailbox. scope is accepted
// for interface symmetry with imapadapter; Graph only ever searches the
// whole mailbox per call.
func (a *Adapter) Search(ctx context.Context, scope string, filter adapter.Filter) ([]adapter.Handle, error) {
	var search string
	switch {
	case filter.SubjectPhrase != "":
		search = fmt.Sprintf(`"subject:%s"`, filter.SubjectPhrase)
	case filter.ConversationID != "":
		search = fmt.Sprintf(`"%s"`, filter.ConversationID)
	default:
		search = `""`
	}

	endpoint := fmt.Sprintf("%s/users/%s/messages?$select=%s&$expand=%s&$search=%s&$top=50",
		a.baseURL, url.PathEscape(a.mailbox), messageSelect, url.QueryEscape(attachmentExpand), url.QueryEscape(search))

	var page graphMessagePage
	_, err := a.getJSON(ctx, endpoint, &page)
	if err != nil {
		metrics.AdapterFailures.WithLabelValues("graph").Inc()
		return nil, osemerr.AdapterFailed("graph", err)
	}

	handles := make([]adapter.Handle, 0, len(page.Value))
	for _, m := range page.Value {
		if !filter.ReceivedSince.IsZero() && m.ReceivedDateTime.Before(filter.ReceivedSince) {
			continue
		}
		handles = append(handles, m.toHandle())
	}
	return handles, nil
}

func buildODataFilter(filter adapter.Filter) string {
	var clauses []string
	if filter.ConversationID != "" {
		clauses = append(clauses, fmt.Sprintf("conversationId eq '%s'", escapeODataLiteral(filter.ConversationID)))
	}
	if !filter.ReceivedSince.IsZero() {
		clauses = append(clauses, fmt.Sprintf("receivedDateTime ge %s", filter.ReceivedSince.UTC().Format(time.RFC3339)))
	}
	if !filter.CreatedSince.IsZero() {
		clauses = append(clauses, fmt.Sprintf("createdDateTime ge %s", filter.CreatedSince.UTC().Format(time.RFC3339)))
	}
	if filter.SubjectPhrase != "" {
		if filter.SubjectWildcard {
			clauses = append(clauses, fmt.Sprintf("startswith(subject,'%s')", escapeODataLiteral(filter.SubjectPhrase)))
		} else {
			clauses = append(clauses, fmt.Sprintf("contains(subject,'%s')", escapeODataLiteral(filter.SubjectPhrase)))
		}
	}

	out := ""
	for i, c := range clauses {
		if i > 0 {
			out += " and "
		}
		out += c
	}
	return out
}

func escapeODataLiteral(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			out = append(out, '\'', '\'')
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}
