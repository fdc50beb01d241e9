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

package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"
)

func TestExtractHistoricalSubjects_SingleQuotedHeader(t *testing.T) {
	body := "Thanks,\nAlice\n\n> From: Bob\n> Subject: RE: Server outage\n> Sent: yesterday"
	got := ExtractHistoricalSubjects(body)
	assert.Equal(t, []string{"Server outage"}, got)
}

func TestExtractHistoricalSubjects_DedupesCaseInsensitively(t *testing.T) {
	body := "Subject: Server outage\n\nSubject: server outage"
	got := ExtractHistoricalSubjects(body)
	assert.Equal(t, []string{"Server outage"}, got)
}

func TestExtractHistoricalSubjects_FoldedContinuationLine(t *testing.T) {
	body := "Subject: Server outage\n   affecting the EU region\n\nBody text"
	got := ExtractHistoricalSubjects(body)
	assert.Equal(t, []string{"Server outage affecting the EU region"}, got)
}

func TestExtractHistoricalSubjects_LocalisedLabel(t *testing.T) {
	body := "主题: 服务器故障"
	got := ExtractHistoricalSubjects(body)
	assert.Equal(t, []string{"服务器故障"}, got)
}

func TestExtractHistoricalSubjects_MojibakeLabelFallsBackToWholeBodyRepair(t *testing.T) {
	clean := "主题: 服务器故障通知"

	// Simulate a gateway that transcoded this message through GBK without
	// declaring it: the UTF-8 bytes get decoded as GBK, garbling the label
	// itself so the pattern can't match the raw body at all.
	garbled, err := simplifiedchinese.GBK.NewDecoder().String(clean)
	require.NoError(t, err)
	require.Empty(t, historicalSubjectPattern.FindAllStringSubmatch(garbled, -1),
		"fixture must not already match the pattern, or this test proves nothing")

	got := ExtractHistoricalSubjects(garbled)
	assert.Equal(t, []string{"服务器故障通知"}, got)
}

func TestExtractHistoricalSubjects_NoHeadersPresent(t *testing.T) {
	assert.Empty(t, ExtractHistoricalSubjects("just a plain reply with no quoting"))
}
