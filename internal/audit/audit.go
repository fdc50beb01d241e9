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

// Package audit is a Postgres-backed ledger of catch-up runs, kept for
// operational visibility independent of the JSON event store, which
// remains the sole source of truth for event state.
package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists catch-up run history to Postgres.
type Store struct {
	pool *pgxpool.Pool
}

// Open wraps pool as a catch-up audit ledger, ensuring its schema exists.
func Open(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	s := &Store{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure audit schema: %w", err)
	}
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS catchup_runs (
			id               BIGSERIAL PRIMARY KEY,
			run_id           UUID NOT NULL,
			event_id         TEXT NOT NULL,
			conversation_id  TEXT NOT NULL,
			candidates_found INT NOT NULL DEFAULT 0,
			not_found_ids    TEXT[] NOT NULL DEFAULT '{}',
			completed        BOOLEAN NOT NULL DEFAULT FALSE,
			error            TEXT DEFAULT '',
			ran_at           TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_catchup_runs_event ON catchup_runs(event_id);
		CREATE INDEX IF NOT EXISTS idx_catchup_runs_ran_at ON catchup_runs(ran_at);
	`)
	return err
}

// RecordRun inserts one completed catch-up run and returns its run id, a
// UUID independent of the row's serial primary key so operators can cite
// a run in logs or tickets before it's ever queried back. runErr, if
// non-nil, is stored as its message and does not prevent the insert.
func (s *Store) RecordRun(ctx context.Context, eventID, conversationID string, candidatesFound int, notFoundIDs []string, completed bool, runErr error) (string, error) {
	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
	}
	runID := uuid.New()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO catchup_runs (run_id, event_id, conversation_id, candidates_found, not_found_ids, completed, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, runID, eventID, conversationID, candidatesFound, notFoundIDs, completed, errMsg)
	return runID.String(), err
}

// RunRecord is one row read back from the ledger.
type RunRecord struct {
	ID              int64
	RunID           uuid.UUID
	EventID         string
	ConversationID  string
	CandidatesFound int
	NotFoundIDs     []string
	Completed       bool
	Error           string
}

// ListByEvent returns every recorded run for eventID, most recent first.
func (s *Store) ListByEvent(ctx context.Context, eventID string) ([]RunRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, run_id, event_id, conversation_id, candidates_found, not_found_ids, completed, error
		FROM catchup_runs
		WHERE event_id = $1
		ORDER BY ran_at DESC
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRuns(rows)
}

// Recent returns the most recent limit runs across every event.
func (s *Store) Recent(ctx context.Context, limit int) ([]RunRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, run_id, event_id, conversation_id, candidates_found, not_found_ids, completed, error
		FROM catchup_runs
		ORDER BY ran_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRuns(rows)
}

func collectRuns(rows pgx.Rows) ([]RunRecord, error) {
	var out []RunRecord
	for rows.Next() {
		var r RunRecord
		if err := rows.Scan(&r.ID, &r.RunID, &r.EventID, &r.ConversationID, &r.CandidatesFound, &r.NotFoundIDs, &r.Completed, &r.Error); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
