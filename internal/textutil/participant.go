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

import "strings"

// addressPrefixes are legacy addressing scheme prefixes stripped before a
// participant address is compared. Exchange stores some addresses in the
// legacy X.500-derived "EX:" form and some mail gateways add an explicit
// "SMTP:"/"MAILTO:" scheme prefix to an otherwise ordinary address.
var addressPrefixes = []string{"SMTP:", "MAILTO:", "EX:"}

// NormalizeParticipant trims a participant address, strips a leading
// addressing-scheme prefix, and upper-cases it for case-insensitive
// comparison and set membership.
func NormalizeParticipant(address string) string {
	address = strings.TrimSpace(address)
	upper := strings.ToUpper(address)
	for _, prefix := range addressPrefixes {
		if strings.HasPrefix(upper, prefix) {
			address = strings.TrimSpace(address[len(prefix):])
			upper = strings.ToUpper(address)
			break
		}
	}
	return upper
}

// NormalizeParticipants normalises every address in addresses, dropping
// empties, and returns the result with duplicates removed.
func NormalizeParticipants(addresses []string) []string {
	out := make([]string, 0, len(addresses))
	seen := make(map[string]struct{}, len(addresses))
	for _, a := range addresses {
		norm := NormalizeParticipant(a)
		if norm == "" {
			continue
		}
		if _, ok := seen[norm]; ok {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, norm)
	}
	return out
}
