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
	"sync"
	"time"

	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/adapter"
)

// fakeSource is a hand-rolled adapter.Source test double: each method
// reads from a fixed script and records the calls it received, so
// engine/process tests can assert on both inputs and outputs without a
// mocking framework.
type fakeSource struct {
	mu sync.Mutex

	enumerateHandles []adapter.Handle
	enumerateSize    int
	enumerateErr     error
	enumerateCalls   int

	restrictHandles map[string][]adapter.Handle
	restrictErr     error
	restrictCalls   []string

	searchHandles []adapter.Handle
	searchErr     error
	searchCalls   int
}

func newFakeSource() *fakeSource {
	return &fakeSource{restrictHandles: make(map[string][]adapter.Handle)}
}

func (f *fakeSource) ResolveByID(ctx context.Context, entryID, storeID string) (*adapter.Handle, error) {
	return nil, nil
}

func (f *fakeSource) EnumerateConversation(ctx context.Context, seedEntryID, conversationID string, sinceUTC time.Time) ([]adapter.Handle, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enumerateCalls++
	return f.enumerateHandles, f.enumerateSize, f.enumerateErr
}

func (f *fakeSource) RestrictFolder(ctx context.Context, folder string, filter adapter.Filter) ([]adapter.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.restrictCalls = append(f.restrictCalls, folder)
	if f.restrictErr != nil {
		return nil, f.restrictErr
	}
	return f.restrictHandles[folder], nil
}

func (f *fakeSource) Search(ctx context.Context, scope string, filter adapter.Filter) ([]adapter.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls++
	return f.searchHandles, f.searchErr
}

// fakeAuditor records every RecordRun call it receives.
type fakeAuditor struct {
	mu    sync.Mutex
	calls []auditCall
	runID string
	err   error
}

type auditCall struct {
	eventID         string
	conversationID  string
	candidatesFound int
	notFoundIDs     []string
	completed       bool
	runErr          error
}

func (f *fakeAuditor) RecordRun(ctx context.Context, eventID, conversationID string, candidatesFound int, notFoundIDs []string, completed bool, runErr error) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, auditCall{eventID, conversationID, candidatesFound, notFoundIDs, completed, runErr})
	if f.err != nil {
		return "", f.err
	}
	if f.runID == "" {
		return "run-1", nil
	}
	return f.runID, nil
}
