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

// OSEM — Event Classification and Ingestion Engine
//
// Entry point for the ingestion service. It:
//  1. Loads configuration from config.yaml
//  2. Opens the JSON event store
//  3. Builds one mail-source adapter, catch-up engine, and live poller
//     per configured mailbox
//  4. Connects to Redis (EventChanged fanout + distributed catch-up
//     coordination) and Postgres (catch-up audit ledger) when configured
//  5. Serves /health and /metrics
//  6. Handles graceful shutdown on SIGTERM/SIGINT
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/adapter"
	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/adapter/graphadapter"
	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/adapter/imapadapter"
	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/audit"
	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/catchup"
	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/config"
	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/eventstore"
	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/ingestion"
	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/notify"
	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/reqid"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("starting OSEM ingestion service")

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	slog.Info("configuration loaded", "adapters", len(cfg.Adapters))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := eventstore.Open(cfg.StorePath, time.Now, logger, eventstore.WithSecondarySignals(cfg.SecondarySignals))
	if err != nil {
		slog.Error("failed to open event store", "error", err)
		os.Exit(1)
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		rdb = redis.NewClient(opt)
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Error("failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		slog.Info("connected to Redis")
	}

	if rdb != nil {
		publisher := notify.NewPublisher(rdb, cfg.NotifyChannel, logger)
		publisher.Attach(store)
	}

	var auditStore *audit.Store
	var pgPool *pgxpool.Pool
	if cfg.AuditDSN != "" {
		pgPool, err = pgxpool.New(ctx, cfg.AuditDSN)
		if err != nil {
			slog.Error("failed to create Postgres pool", "error", err)
			os.Exit(1)
		}
		auditStore, err = audit.Open(ctx, pgPool)
		if err != nil {
			slog.Error("failed to open audit ledger", "error", err)
			os.Exit(1)
		}
		slog.Info("connected to Postgres audit ledger")
	}

	var dist *catchup.DistLock
	if rdb != nil {
		dist = catchup.NewDistLock(rdb)
	}

	engines := make([]*catchup.Engine, 0, len(cfg.Adapters))
	var wg sync.WaitGroup

	for _, ac := range cfg.Adapters {
		src, err := buildAdapter(ac, logger)
		if err != nil {
			slog.Error("failed to build mail-source adapter", "alias", ac.Alias, "error", err)
			os.Exit(1)
		}

		var opts []catchup.Option
		if dist != nil {
			opts = append(opts, catchup.WithDistLock(dist))
		}
		if auditStore != nil {
			opts = append(opts, catchup.WithAuditor(auditStore))
		}

		catchupCfg := catchup.DefaultConfig()
		catchupCfg.TickInterval = cfg.CatchupTickInterval
		catchupCfg.InitialDelay = cfg.CatchupInitialDelay
		catchupCfg.DrainPerTick = cfg.CatchupDrainPerTick
		engine := catchup.New(store, src, catchupCfg, logger, opts...)
		engine.Start(ctx)
		engines = append(engines, engine)

		facade := ingestion.New(store, engine, logger)

		wg.Add(1)
		go func(alias string, src adapter.Source, facade *ingestion.Facade) {
			defer wg.Done()
			runLivePoller(ctx, alias, src, facade, logger)
		}(ac.Alias, src, facade)

		slog.Info("mail source online", "alias", ac.Alias, "kind", ac.Kind)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if rdb != nil {
			if err := rdb.Ping(r.Context()).Err(); err != nil {
				slog.Warn("health check: redis unhealthy", "request_id", reqid.FromContext(r.Context()), "error", err)
				http.Error(w, "redis unhealthy", http.StatusServiceUnavailable)
				return
			}
		}
		if pgPool != nil {
			if err := pgPool.Ping(r.Context()); err != nil {
				slog.Warn("health check: postgres unhealthy", "request_id", reqid.FromContext(r.Context()), "error", err)
				http.Error(w, "postgres unhealthy", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      reqid.Middleware(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		sig := <-sigCh

		slog.Info("received shutdown signal", "signal", sig)
		cancel()

		for _, e := range engines {
			e.Stop()
		}
		wg.Wait()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}

		if rdb != nil {
			rdb.Close()
		}
		if pgPool != nil {
			pgPool.Close()
		}
	}()

	slog.Info("ingestion service listening", "addr", addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("ingestion service stopped")
}

// buildAdapter constructs the mail-source adapter named by ac.Kind.
func buildAdapter(ac config.AdapterConfig, logger *slog.Logger) (adapter.Source, error) {
	switch ac.Kind {
	case "graph":
		return graphadapter.New(ac.TenantID, ac.ClientID, ac.ClientSecret, ac.GraphBaseURL, ac.Mailbox, logger), nil
	case "imap":
		return imapadapter.New(ac.IMAPHost, ac.IMAPPort, ac.IMAPUsername, ac.IMAPPassword, ac.IMAPUseTLS, logger), nil
	default:
		return nil, fmt.Errorf("unknown adapter kind %q for %q", ac.Kind, ac.Alias)
	}
}

// runLivePoller feeds newly-received inbox mail through the facade's
// try_add_mail path. Unlike catch-up, which re-scans conversations
// already tied to an event, this is the front door: it notices mail as
// it arrives and hands it to the matching engine without creating a new
// event on its behalf — event creation stays an explicit, separate
// operation.
func runLivePoller(ctx context.Context, alias string, src adapter.Source, facade *ingestion.Facade, logger *slog.Logger) {
	const pollInterval = 2 * time.Minute
	since := time.Now().UTC().Add(-pollInterval)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().UTC()
			handles, err := src.RestrictFolder(ctx, "Inbox", adapter.Filter{ReceivedSince: since, IncludeSubfolder: true})
			if err != nil {
				logger.Warn("live poll failed", "adapter", alias, "error", err)
				continue
			}
			for _, h := range handles {
				snapshot := adapter.SnapshotFromHandle(h)
				if _, err := facade.TryAddMail(snapshot, ""); err != nil {
					logger.Warn("live poll: try_add_mail failed", "adapter", alias, "entry_id", h.EntryID, "error", err)
				}
			}
			since = cutoff
		}
	}
}
