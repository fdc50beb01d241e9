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
	"regexp"
	"strings"
)

// subjectHeaderLabels are the header labels, across the languages seen in
// quoted message headers, that introduce a historical subject line.
var subjectHeaderLabels = []string{
	"Subject", "主题", "主旨", "標題", "제목", "件名",
}

// historicalSubjectPattern matches a "Subject:"-style header line
// (anchored at line start, allowing for leading quote markers) and
// captures the value along with any immediately-following indented
// continuation lines, which RFC 5322 folding can split a long subject
// across.
var historicalSubjectPattern = buildHistoricalSubjectPattern()

func buildHistoricalSubjectPattern() *regexp.Regexp {
	escaped := make([]string, len(subjectHeaderLabels))
	for i, l := range subjectHeaderLabels {
		escaped[i] = regexp.QuoteMeta(l)
	}
	labels := strings.Join(escaped, "|")
	pattern := `(?m)^[\s>]*(?:` + labels + `)\s*[:：]\s*(.+(?:\n[ \t]+\S.*)*)$`
	return regexp.MustCompile(pattern)
}

// ExtractHistoricalSubjects scans a mail body for quoted headers from
// earlier messages in the same thread ("Subject:" and its localised
// equivalents) and returns the normalised subject line from each,
// skipping ones that reduce to empty. Historical headers are commonly
// pasted in by mail clients quoting prior messages inline rather than
// using a forwarded-message envelope, so this is the only way to recover
// them once the structured chain is lost.
func ExtractHistoricalSubjects(body string) []string {
	matches := historicalSubjectPattern.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		// The label itself ("Subject:", "主题:", ...) may be mojibake'd,
		// in which case the pattern never matches the raw body at all.
		// Repair the whole body under that hypothesis and retry once.
		repaired := RepairMojibake(body, func(candidate string) bool {
			return len(historicalSubjectPattern.FindAllStringSubmatch(candidate, -1)) > 0
		})
		matches = historicalSubjectPattern.FindAllStringSubmatch(repaired, -1)
	}

	out := make([]string, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))

	for _, m := range matches {
		raw := joinFoldedContinuation(m[1])
		subject := extractOne(raw)
		if subject == "" {
			continue
		}
		key := strings.ToUpper(subject)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, subject)
	}
	return out
}

// joinFoldedContinuation collapses a captured header value (which may
// span multiple folded lines) into a single line of text.
func joinFoldedContinuation(raw string) string {
	lines := strings.Split(raw, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return strings.Join(lines, " ")
}

func extractOne(raw string) string {
	s := NormalizeSubject(raw)
	if s != "" {
		return s
	}

	repaired := RepairMojibake(raw, func(candidate string) bool {
		return NormalizeSubject(candidate) != ""
	})
	return NormalizeSubject(repaired)
}
