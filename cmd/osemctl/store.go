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
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/config"
	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/eventstore"
)

// openStore opens the event store at the path named by --store, falling
// back to config.yaml / STORE_PATH when the flag is unset. Logging is
// suppressed below Warn so CLI output stays limited to what the command
// itself prints.
func openStore(cmd *cobra.Command) (*eventstore.Store, error) {
	path, _ := cmd.Flags().GetString("store")
	if path == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("resolve store path: %w (pass --store explicitly to skip config loading)", err)
		}
		path = cfg.StorePath
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	return eventstore.Open(path, time.Now, logger)
}
