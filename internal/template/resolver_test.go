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

package template

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/prefstore"
)

func newResolver(t *testing.T) *Resolver {
	t.Helper()
	store, err := prefstore.Open(filepath.Join(t.TempDir(), "prefs.json"))
	require.NoError(t, err)
	return New(store)
}

func TestGetPreferred_ReturnsFirstParticipantWithARecordedPreference(t *testing.T) {
	r := newResolver(t)
	require.NoError(t, r.SetPreferred("eng@x.com", "tmpl-eng"))

	got := r.GetPreferred([]string{"ops@x.com", "eng@x.com"})
	assert.Equal(t, "tmpl-eng", got)
}

func TestGetPreferred_NoneRecordedReturnsEmpty(t *testing.T) {
	r := newResolver(t)
	assert.Equal(t, "", r.GetPreferred([]string{"ops@x.com"}))
}

func TestSetPreferred_NormalizesParticipantBeforeStoring(t *testing.T) {
	r := newResolver(t)
	require.NoError(t, r.SetPreferred("SMTP:Ops@X.com", "tmpl-1"))

	got := r.GetPreferred([]string{"ops@x.com"})
	assert.Equal(t, "tmpl-1", got)
}

func TestSetPreferred_BlankParticipantIsNoOp(t *testing.T) {
	r := newResolver(t)
	assert.NoError(t, r.SetPreferred("", "tmpl-1"))
}
