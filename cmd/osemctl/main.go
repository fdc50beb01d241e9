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

// osemctl is the operator CLI for the event classification and
// ingestion engine: inspecting and mutating the event store directly,
// and triggering catch-up, without running the full service.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "osemctl",
	Short:   "Operator CLI for the event classification and ingestion engine",
	Version: "0.1.0",
}

func init() {
	rootCmd.PersistentFlags().String("store", "", "path to the event store JSON file (default: config.yaml / STORE_PATH)")
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(catchupCmd)
}
