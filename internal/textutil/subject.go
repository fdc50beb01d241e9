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

// Package textutil provides the pure normalisation and matching
// primitives the rest of the engine builds on: subject canonicalisation,
// body fingerprinting, participant normalisation, and mojibake repair.
package textutil

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// replyForwardPrefixes lists the reply/forward markers that
// NormalizeSubject strips repeatedly from the front of a subject line.
// Order does not matter — stripping repeats until no prefix matches.
var replyForwardPrefixes = []string{
	"RE:", "FW:", "FWD:",
	"转发:", "回复:", "回覆:", "轉寄:",
	"Aw:", "Sv:", "Vs:",
	"[External]", "[EXT]", "[Pre-Alert]",
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizeSubject canonicalises a mail subject: NFKC normalisation,
// whitespace collapse, and repeated stripping of reply/forward prefixes.
// If nothing was stripped, it attempts mojibake repair and retries once
// against the same prefix list.
//
// NormalizeSubject is idempotent: NormalizeSubject(NormalizeSubject(s)) ==
// NormalizeSubject(s).
func NormalizeSubject(subject string) string {
	s := canonicalize(subject)

	stripped := stripPrefixes(s)
	if stripped != s {
		return stripped
	}

	repaired := RepairMojibake(subject, func(candidate string) bool {
		c := canonicalize(candidate)
		return stripPrefixes(c) != c
	})
	if repaired != subject {
		return stripPrefixes(canonicalize(repaired))
	}

	return s
}

// canonicalize applies NFKC normalisation and whitespace collapse,
// trimming the result.
func canonicalize(s string) string {
	s = norm.NFKC.String(s)
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// stripPrefixes repeatedly removes a leading reply/forward marker (and any
// whitespace that follows it) until none match.
func stripPrefixes(s string) string {
	for {
		trimmed := strings.TrimSpace(s)
		matched := false
		for _, prefix := range replyForwardPrefixes {
			if len(trimmed) < len(prefix) {
				continue
			}
			if strings.EqualFold(trimmed[:len(prefix)], prefix) {
				trimmed = strings.TrimSpace(trimmed[len(prefix):])
				matched = true
				break
			}
		}
		if !matched {
			return trimmed
		}
		s = trimmed
	}
}

// StandardMatch reports whether a and b match under the "standard" subject
// rule: equal case-insensitively after normalisation, or a starts with b,
// case-insensitively.
func StandardMatch(a, b string) bool {
	na, nb := NormalizeSubject(a), NormalizeSubject(b)
	if strings.EqualFold(na, nb) {
		return true
	}
	return hasPrefixFold(na, nb)
}

// TruncatedMatch reports whether short is a truncated, header-observed
// form of long: short must be at least 4 characters and long must start
// with short, case-insensitively.
func TruncatedMatch(short, long string) bool {
	ns, nl := NormalizeSubject(short), NormalizeSubject(long)
	if len([]rune(ns)) < 4 {
		return false
	}
	return hasPrefixFold(nl, ns)
}

func hasPrefixFold(s, prefix string) bool {
	if len(prefix) > len(s) {
		return false
	}
	return strings.EqualFold(s[:len(prefix)], prefix)
}
