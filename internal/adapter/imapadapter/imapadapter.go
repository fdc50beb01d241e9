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

// Package imapadapter implements adapter.Source against a generic IMAP
// mailbox. IMAP has no native conversation id, so this adapter treats
// the normalised root Message-ID of a thread as the conversation id the
// rest of the engine passes around, and maps the spec's DASL-ish filter
// predicates onto IMAP SEARCH criteria.
package imapadapter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/adapter"
	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/metrics"
	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/osemerr"
)

var _ adapter.Source = (*Adapter)(nil)

// Adapter fronts one IMAP account.
type Adapter struct {
	host     string
	port     int
	username string
	password string
	useTLS   bool
	logger   *slog.Logger
}

// New builds an IMAP adapter over host:port, authenticating as username.
func New(host string, port int, username, password string, useTLS bool, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{host: host, port: port, username: username, password: password, useTLS: useTLS, logger: logger}
}

// connect dials the server, authenticates, and returns the live client.
// Callers must Logout/Close it.
func (a *Adapter) connect() (*imapclient.Client, error) {
	addr := fmt.Sprintf("%s:%d", a.host, a.port)

	var client *imapclient.Client
	var err error
	if a.useTLS {
		client, err = imapclient.DialTLS(addr, nil)
	} else {
		client, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	if err := client.Login(a.username, a.password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, fmt.Errorf("login as %s: %w", a.username, err)
	}
	return client, nil
}

// ResolveByID fetches one message by its IMAP UID. storeID names the
// folder it lives in; an empty storeID defaults to INBOX.
func (a *Adapter) ResolveByID(ctx context.Context, entryID, storeID string) (*adapter.Handle, error) {
	client, err := a.connect()
	if err != nil {
		metrics.AdapterFailures.WithLabelValues("imap").Inc()
		return nil, osemerr.AdapterFailed("imap", err)
	}
	defer func() { _ = client.Logout().Wait() }()

	folder := storeID
	if folder == "" {
		folder = "INBOX"
	}
	if _, err := client.Select(folder, nil).Wait(); err != nil {
		metrics.AdapterFailures.WithLabelValues("imap").Inc()
		return nil, osemerr.AdapterFailed("imap", fmt.Errorf("select %s: %w", folder, err))
	}

	uid, err := parseUID(entryID)
	if err != nil {
		metrics.AdapterFailures.WithLabelValues("imap").Inc()
		return nil, osemerr.AdapterFailed("imap", err)
	}

	handles, err := fetchByUID(client, folder, uid)
	if err != nil {
		metrics.AdapterFailures.WithLabelValues("imap").Inc()
		return nil, osemerr.AdapterFailed("imap", err)
	}
	if len(handles) == 0 {
		return nil, nil
	}
	return &handles[0], nil
}

// EnumerateConversation searches INBOX and Sent for messages whose
// References or Message-Id header carries conversationID (this adapter's
// stand-in for a native conversation id), received since sinceUTC. IMAP
// has no conversation-size count, so the reported total is simply
// len(handles) after de-duplication.
func (a *Adapter) EnumerateConversation(ctx context.Context, seedEntryID, conversationID string, sinceUTC time.Time) ([]adapter.Handle, int, error) {
	client, err := a.connect()
	if err != nil {
		metrics.AdapterFailures.WithLabelValues("imap").Inc()
		return nil, 0, osemerr.AdapterFailed("imap", err)
	}
	defer func() { _ = client.Logout().Wait() }()

	var out []adapter.Handle
	for _, folder := range []string{"INBOX", "Sent"} {
		if _, err := client.Select(folder, nil).Wait(); err != nil {
			continue
		}
		handles, err := searchHeader(client, folder, "References", conversationID, sinceUTC)
		if err != nil {
			a.logger.Warn("imap: conversation search failed", "folder", folder, "error", err)
			continue
		}
		out = append(out, handles...)

		seedHandles, err := searchHeader(client, folder, "Message-Id", conversationID, sinceUTC)
		if err == nil {
			out = append(out, seedHandles...)
		}
	}
	deduped := dedupeHandles(out)
	return deduped, len(deduped), nil
}

// RestrictFolder runs filter against one named folder.
// filter.IncludeSubfolder is not honoured: child folders are not searched.
func (a *Adapter) RestrictFolder(ctx context.Context, folder string, filter adapter.Filter) ([]adapter.Handle, error) {
	client, err := a.connect()
	if err != nil {
		metrics.AdapterFailures.WithLabelValues("imap").Inc()
		return nil, osemerr.AdapterFailed("imap", err)
	}
	defer func() { _ = client.Logout().Wait() }()

	if _, err := client.Select(folder, nil).Wait(); err != nil {
		metrics.AdapterFailures.WithLabelValues("imap").Inc()
		return nil, osemerr.AdapterFailed("imap", fmt.Errorf("select %s: %w", folder, err))
	}

	handles, err := searchFilter(client, folder, filter)
	if err != nil {
		metrics.AdapterFailures.WithLabelValues("imap").Inc()
		return nil, osemerr.AdapterFailed("imap", err)
	}
	return handles, nil
}

// Search runs an IMAP HEADER search (Subject, References) across INBOX. scope is
// accepted for interface symmetry with graphadapter; this adapter only
// ever searches INBOX, the one folder every IMAP account guarantees.
func (a *Adapter) Search(ctx context.Context, scope string, filter adapter.Filter) ([]adapter.Handle, error) {
	return a.RestrictFolder(ctx, "INBOX", filter)
}
