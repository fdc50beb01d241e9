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

// Package template resolves a set of participants to a preferred event
// template, seeding the bias new events are created with. It is never
// consulted by the matching engine.
package template

import (
	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/prefstore"
	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/textutil"
)

// Resolver maps participant addresses to a preferred template_id,
// backed by a prefstore.Store.
type Resolver struct {
	store *prefstore.Store
}

// New wraps store as a template-preference resolver.
func New(store *prefstore.Store) *Resolver {
	return &Resolver{store: store}
}

// GetPreferred returns the first template_id bound to any of
// participants, in the order participants is given. Returns "" if none
// has a preference recorded.
func (r *Resolver) GetPreferred(participants []string) string {
	for _, p := range participants {
		key := textutil.NormalizeParticipant(p)
		if key == "" {
			continue
		}
		if templateID, ok := r.store.Get(key); ok {
			return templateID
		}
	}
	return ""
}

// SetPreferred records that participant should default to templateID.
func (r *Resolver) SetPreferred(participant, templateID string) error {
	key := textutil.NormalizeParticipant(participant)
	if key == "" {
		return nil
	}
	return r.store.Set(key, templateID)
}
