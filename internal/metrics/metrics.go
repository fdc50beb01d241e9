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

// Package metrics exposes the Prometheus collectors the event
// classification and ingestion engine reports on its /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MailAccepted counts try_add_mail outcomes by whether a candidate
	// cleared the acceptance threshold.
	MailAccepted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "osem_mail_accepted_total",
			Help: "Total mail snapshots processed by try_add_mail, by outcome",
		},
		[]string{"outcome"}, // "accepted" | "dropped"
	)

	// MatchScore records the winning candidate's score for every
	// accepted mail, bucketed around the acceptance threshold.
	MatchScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "osem_match_score",
			Help:    "Score of the winning match candidate for accepted mail",
			Buckets: []float64{25, 40, 55, 70, 85, 100, 110, 140},
		},
	)

	// EventsOpen reports the number of events currently in the "open"
	// status, sampled periodically from the event store.
	EventsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "osem_events_open",
			Help: "Number of events currently open",
		},
	)

	// CatchupQueueDepth reports the catch-up engine's pending request
	// count, sampled on every drain tick.
	CatchupQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "osem_catchup_queue_depth",
			Help: "Number of (event, conversation) requests queued for catch-up",
		},
	)

	// CatchupDrained counts requests processed per tick.
	CatchupDrained = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "osem_catchup_drained_total",
			Help: "Total catch-up requests drained from the queue",
		},
	)

	// CatchupCandidatesFound counts new mail accepted into an event by
	// the catch-up engine, separate from the live ingestion path.
	CatchupCandidatesFound = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "osem_catchup_candidates_found_total",
			Help: "Total mail accepted into an event via catch-up re-scan",
		},
	)

	// CatchupSearchRetries counts secondary-search retry attempts,
	// labelled by whether the retry resolved the entry or exhausted it.
	CatchupSearchRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "osem_catchup_search_retries_total",
			Help: "Secondary-search retry attempts for unresolved entry ids",
		},
		[]string{"outcome"}, // "resolved" | "exhausted"
	)

	// AdapterFailures counts errors surfaced from a mail-source adapter,
	// labelled by adapter kind.
	AdapterFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "osem_adapter_failures_total",
			Help: "Total adapter failures by adapter kind",
		},
		[]string{"kind"},
	)
)
