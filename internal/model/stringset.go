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

package model

import (
	"encoding/json"
	"sort"
	"strings"
)

// StringSet is a case-insensitive set of strings. The zero value is an
// empty set ready to use. Display casing of the first-inserted value is
// preserved; membership and equality are always case-insensitive.
type StringSet struct {
	m map[string]string // upper(key) -> display value
}

// NewStringSet builds a StringSet from the given values.
func NewStringSet(values ...string) StringSet {
	s := StringSet{}
	s.AddAll(values)
	return s
}

// Add inserts v into the set if non-empty after trimming. Returns true if
// the set changed.
func (s *StringSet) Add(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	if s.m == nil {
		s.m = make(map[string]string)
	}
	key := strings.ToUpper(v)
	if _, ok := s.m[key]; ok {
		return false
	}
	s.m[key] = v
	return true
}

// AddAll inserts every non-empty value in values.
func (s *StringSet) AddAll(values []string) {
	for _, v := range values {
		s.Add(v)
	}
}

// Remove deletes v from the set. Returns true if present.
func (s *StringSet) Remove(v string) bool {
	if s.m == nil {
		return false
	}
	key := strings.ToUpper(strings.TrimSpace(v))
	if _, ok := s.m[key]; !ok {
		return false
	}
	delete(s.m, key)
	return true
}

// Contains reports whether v is a member, case-insensitively.
func (s StringSet) Contains(v string) bool {
	if s.m == nil {
		return false
	}
	_, ok := s.m[strings.ToUpper(strings.TrimSpace(v))]
	return ok
}

// Intersects reports whether s and other share any member.
func (s StringSet) Intersects(other StringSet) bool {
	if len(s.m) == 0 || len(other.m) == 0 {
		return false
	}
	for k := range s.m {
		if _, ok := other.m[k]; ok {
			return true
		}
	}
	return false
}

// Len returns the number of members.
func (s StringSet) Len() int {
	return len(s.m)
}

// Values returns the display values in insertion-independent sorted order.
func (s StringSet) Values() []string {
	out := make([]string, 0, len(s.m))
	for _, v := range s.m {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy of s.
func (s StringSet) Clone() StringSet {
	c := StringSet{}
	if len(s.m) == 0 {
		return c
	}
	c.m = make(map[string]string, len(s.m))
	for k, v := range s.m {
		c.m[k] = v
	}
	return c
}

// Union returns a new set containing the members of both s and other.
func (s StringSet) Union(other StringSet) StringSet {
	c := s.Clone()
	for _, v := range other.Values() {
		c.Add(v)
	}
	return c
}

// MarshalJSON serialises the set as a sorted JSON array of display values.
func (s StringSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Values())
}

// UnmarshalJSON populates the set from a JSON array of strings.
func (s *StringSet) UnmarshalJSON(data []byte) error {
	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	*s = NewStringSet(values...)
	return nil
}
