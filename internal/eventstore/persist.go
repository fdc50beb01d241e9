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
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/model"
	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/osemerr"
)

// load reads the JSON document at s.path into memory. A missing file is
// treated as an empty store; any other read or parse failure is
// surfaced as osemerr.ErrCorrupt.
func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return osemerr.Corruptf("reading event store %q: %v", s.path, err)
	}

	var events []model.Event
	if err := json.Unmarshal(data, &events); err != nil {
		return osemerr.Corruptf("parsing event store %q: %v", s.path, err)
	}

	for _, ev := range events {
		s.events[ev.EventID] = ev
	}
	return nil
}

// persistLocked writes the full event collection to disk. Must be called
// holding s.mu. It must not drop a mutation: the write goes to a
// temporary file in the same directory and is renamed into place, so a
// crash mid-write never corrupts the previous good copy.
func (s *Store) persistLocked() error {
	events := make([]model.Event, 0, len(s.events))
	for _, ev := range s.events {
		events = append(events, ev)
	}

	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		s.logger.Error("marshal event store failed", "error", err)
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.logger.Error("create event store directory failed", "dir", dir, "error", err)
		return err
	}

	tmp, err := os.CreateTemp(dir, ".event-store-*.tmp")
	if err != nil {
		s.logger.Error("create temp event store file failed", "error", err)
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		s.logger.Error("write event store failed", "error", err)
		return err
	}
	if err := tmp.Close(); err != nil {
		s.logger.Error("close temp event store file failed", "error", err)
		return err
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		s.logger.Error("rename event store into place failed", "error", err)
		return err
	}
	return nil
}
