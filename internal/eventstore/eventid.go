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

package eventstore

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// generateEventID builds an event_id of the form
// EVT-YYYYMMDD-HHMMSS-<6 hex>.
func generateEventID(now time.Time) string {
	var buf [3]byte
	_, _ = rand.Read(buf[:])
	return fmt.Sprintf("EVT-%s-%s", now.UTC().Format("20060102-150405"), hex.EncodeToString(buf[:]))
}
