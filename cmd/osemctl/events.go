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
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect and mutate events in the store",
}

var eventsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every event",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		events := store.ListAll()
		fmt.Printf("%-20s %-10s %-8s %s\n", "EVENT ID", "STATUS", "EMAILS", "TITLE")
		for _, ev := range events {
			fmt.Printf("%-20s %-10s %-8d %s\n", ev.EventID, ev.Status, len(ev.Emails), ev.Title)
		}
		return nil
	},
}

var eventsGetCmd = &cobra.Command{
	Use:   "get [event-id]",
	Short: "Dump one event as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		ev, err := store.GetByID(args[0])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(ev)
	},
}

var eventsDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Dump the entire store as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(store.ListAll())
	},
}

var eventsArchiveCmd = &cobra.Command{
	Use:   "archive [event-id...]",
	Short: "Archive one or more open events",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		if err := store.Archive(args); err != nil {
			return err
		}
		fmt.Printf("archived %d event(s)\n", len(args))
		return nil
	},
}

var eventsReopenCmd = &cobra.Command{
	Use:   "reopen [event-id]",
	Short: "Reopen an archived event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		ev, err := store.Reopen(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("reopened %s (status=%s)\n", ev.EventID, ev.Status)
		return nil
	},
}

var eventsDeleteCmd = &cobra.Command{
	Use:   "delete [event-id...]",
	Short: "Permanently delete one or more events",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		if !force {
			return fmt.Errorf("use --force to confirm event deletion")
		}
		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		if err := store.Delete(args); err != nil {
			return err
		}
		fmt.Printf("deleted %d event(s)\n", len(args))
		return nil
	},
}

func init() {
	eventsCmd.AddCommand(eventsListCmd)
	eventsCmd.AddCommand(eventsGetCmd)
	eventsCmd.AddCommand(eventsDumpCmd)
	eventsCmd.AddCommand(eventsArchiveCmd)
	eventsCmd.AddCommand(eventsReopenCmd)
	eventsCmd.AddCommand(eventsDeleteCmd)

	eventsDeleteCmd.Flags().BoolP("force", "f", false, "Force deletion without confirmation")
}
