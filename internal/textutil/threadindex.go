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

import "encoding/base64"

// threadIndexPrefixBytes is the number of leading bytes of a decoded
// PR_CONVERSATION_INDEX value that identify the conversation root; every
// byte after this is per-reply child-block data.
const threadIndexPrefixBytes = 27

// ThreadIndexPrefix decodes a base64-encoded Exchange PR_CONVERSATION_INDEX
// value and returns a base64 re-encoding of just its leading
// conversation-root bytes, so two thread-index values that diverge only
// in their reply history compare equal. Malformed input returns "".
func ThreadIndexPrefix(threadIndex string) string {
	if threadIndex == "" {
		return ""
	}
	decoded, err := base64.StdEncoding.DecodeString(threadIndex)
	if err != nil {
		return ""
	}
	if len(decoded) > threadIndexPrefixBytes {
		decoded = decoded[:threadIndexPrefixBytes]
	}
	return base64.StdEncoding.EncodeToString(decoded)
}
