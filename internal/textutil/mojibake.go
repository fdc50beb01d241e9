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
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
)

// legacyCodePages are the code pages a mojibake'd subject or historical
// header line is probed against, in the order they're tried. Mail
// gateways that transcode through one of these legacy encodings without
// declaring it are the usual cause of the garbled text RepairMojibake
// recovers from.
var legacyCodePages = []encoding.Encoding{
	simplifiedchinese.GBK,
	simplifiedchinese.GB18030,
	japanese.ShiftJIS,
	korean.EUCKR,
	traditionalchinese.Big5,
}

// RepairMojibake attempts to recover the original text of input under the
// hypothesis that it is UTF-8 text whose bytes were wrongly decoded under
// one of the legacy code pages. For each code page, it encodes input
// under that page and reads the resulting bytes as UTF-8; the first
// candidate for which validate returns true is returned. If no candidate
// validates, input is returned unchanged.
func RepairMojibake(input string, validate func(string) bool) string {
	if input == "" {
		return input
	}
	for _, cp := range legacyCodePages {
		encoded, err := cp.NewEncoder().String(input)
		if err != nil {
			continue
		}
		candidate := encoded
		if !isValidUTF8Candidate(candidate) {
			continue
		}
		if validate(candidate) {
			return candidate
		}
	}
	return input
}

// isValidUTF8Candidate guards against candidates that contain the UTF-8
// replacement rune, which indicates the encode step produced bytes that
// don't decode to a plausible string.
func isValidUTF8Candidate(s string) bool {
	for _, r := range s {
		if r == '�' {
			return false
		}
	}
	return true
}
