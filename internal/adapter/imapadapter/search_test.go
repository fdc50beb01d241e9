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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/adapter"
)

func TestParseUID_ValidDigitsParse(t *testing.T) {
	uid, err := parseUID("42")
	require.NoError(t, err)
	assert.EqualValues(t, 42, uid)
}

func TestParseUID_NonNumericIsError(t *testing.T) {
	_, err := parseUID("not-a-uid")
	assert.Error(t, err)
}

func TestDedupeHandles_DropsCaseInsensitiveDuplicateEntryIDs(t *testing.T) {
	in := []adapter.Handle{
		{EntryID: "42"},
		{EntryID: "42"},
		{EntryID: "43"},
	}
	out := dedupeHandles(in)
	assert.Len(t, out, 2)
}

func TestDedupeHandles_PreservesFirstOccurrenceOrder(t *testing.T) {
	in := []adapter.Handle{{EntryID: "2"}, {EntryID: "1"}, {EntryID: "2"}}
	out := dedupeHandles(in)
	assert.Equal(t, []string{"2", "1"}, []string{out[0].EntryID, out[1].EntryID})
}
