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

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/adapter"
	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/adapter/graphadapter"
	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/adapter/imapadapter"
	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/catchup"
	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/config"
)

var catchupCmd = &cobra.Command{
	Use:   "catchup",
	Short: "Trigger a catch-up re-scan outside the regular tick",
}

var catchupTriggerCmd = &cobra.Command{
	Use:   "trigger",
	Short: "Re-scan a conversation and block until it drains or times out",
	RunE: func(cmd *cobra.Command, args []string) error {
		eventID, _ := cmd.Flags().GetString("event")
		conversationID, _ := cmd.Flags().GetString("conversation")
		aliasFlag, _ := cmd.Flags().GetString("adapter")
		fullHistory, _ := cmd.Flags().GetBool("full-history")
		timeout, _ := cmd.Flags().GetDuration("timeout")
		if eventID == "" || conversationID == "" {
			return fmt.Errorf("--event and --conversation are required")
		}

		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		if _, err := store.GetByID(eventID); err != nil {
			return err
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		ac, err := resolveAdapterConfig(cfg, aliasFlag)
		if err != nil {
			return err
		}

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
		src, err := buildAdapter(*ac, logger)
		if err != nil {
			return err
		}

		engine := catchup.New(store, src, catchup.DefaultConfig(), logger)
		enqueued := engine.Enqueue(eventID, []string{conversationID}, fullHistory)
		if len(enqueued) == 0 {
			fmt.Println("conversation already queued or tracked; nothing to do")
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		engine.DrainNow(ctx, enqueued)

		ev, err := store.GetByID(eventID)
		if err != nil {
			return err
		}
		fmt.Printf("catch-up drained for %s/%s: event now has %d email(s)\n", eventID, conversationID, len(ev.Emails))
		return nil
	},
}

func resolveAdapterConfig(cfg *config.Config, alias string) (*config.AdapterConfig, error) {
	if alias == "" {
		if len(cfg.Adapters) != 1 {
			return nil, fmt.Errorf("multiple adapters configured; pass --adapter to pick one")
		}
		return &cfg.Adapters[0], nil
	}
	for i := range cfg.Adapters {
		if cfg.Adapters[i].Alias == alias {
			return &cfg.Adapters[i], nil
		}
	}
	return nil, fmt.Errorf("no adapter named %q in configuration", alias)
}

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

func init() {
	catchupCmd.AddCommand(catchupTriggerCmd)

	catchupTriggerCmd.Flags().String("event", "", "event id to attach newly-found mail to")
	catchupTriggerCmd.Flags().String("conversation", "", "conversation id to re-scan")
	catchupTriggerCmd.Flags().String("adapter", "", "adapter alias to use (required when more than one is configured)")
	catchupTriggerCmd.Flags().Bool("full-history", false, "use the full-history lookback window instead of the normal one")
	catchupTriggerCmd.Flags().Duration("timeout", 30*time.Second, "how long to block waiting for the drain")
}
