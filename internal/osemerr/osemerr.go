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

// Package osemerr defines the typed error taxonomy shared across the
// event classification and ingestion engine, so callers can branch on
// failure kind with errors.Is/errors.As instead of matching strings.
package osemerr

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates a lookup (event, mail, preference) found nothing
// with the given identifier.
var ErrNotFound = errors.New("osem: not found")

// ErrInvalidSnapshot indicates a MailSnapshot handed to the ingestion
// facade was missing data the core requires (an empty conversation_id).
var ErrInvalidSnapshot = errors.New("osem: invalid mail snapshot")

// ErrCorrupt indicates persisted state failed to parse back into the
// in-memory model.
var ErrCorrupt = errors.New("osem: corrupt persisted state")

// AdapterFailedError wraps a failure from a specific mail-source adapter,
// preserving which adapter kind failed and the underlying cause.
type AdapterFailedError struct {
	Kind string
	Err  error
}

func (e *AdapterFailedError) Error() string {
	return fmt.Sprintf("osem: adapter %s failed: %v", e.Kind, e.Err)
}

func (e *AdapterFailedError) Unwrap() error {
	return e.Err
}

// AdapterFailed wraps err as an AdapterFailedError attributed to the
// named adapter kind (e.g. "graph", "imap").
func AdapterFailed(kind string, err error) error {
	if err == nil {
		return nil
	}
	return &AdapterFailedError{Kind: kind, Err: err}
}

// NotFoundf wraps ErrNotFound with a formatted message, preserving
// errors.Is(err, ErrNotFound).
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

// InvalidSnapshotf wraps ErrInvalidSnapshot with a formatted message.
func InvalidSnapshotf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrInvalidSnapshot)...)
}

// Corruptf wraps ErrCorrupt with a formatted message.
func Corruptf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrCorrupt)...)
}
