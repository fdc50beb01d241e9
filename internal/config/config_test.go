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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	t.Setenv("CONFIG_PATH", path)
	return path
}

func TestLoad_MissingFileIsError(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_NoAdaptersConfiguredIsError(t *testing.T) {
	writeConfig(t, "adapters: []\n")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_GraphAdapterRequiresCredentials(t *testing.T) {
	writeConfig(t, `
adapters:
  - alias: primary
    kind: graph
    mailbox: ops@example.com
`)
	_, err := Load()
	assert.Error(t, err, "a graph adapter missing tenant/client credentials must be dropped, leaving zero adapters")
}

func TestLoad_ValidGraphAdapterPopulatesConfig(t *testing.T) {
	writeConfig(t, `
adapters:
  - alias: primary
    kind: graph
    mailbox: ops@example.com
    tenant_id: tenant-1
    client_id: client-1
    client_secret: secret-1
store:
  path: /data/events.json
catchup:
  tick_interval: 5m
  drain_per_tick: 7
`)
	cfg, err := Load()
	require.NoError(t, err)
	require.Len(t, cfg.Adapters, 1)
	assert.Equal(t, "graph", cfg.Adapters[0].Kind)
	assert.Equal(t, "primary", cfg.Adapters[0].Alias)
	assert.Equal(t, "/data/events.json", cfg.StorePath)
	assert.Equal(t, 5*time.Minute, cfg.CatchupTickInterval)
	assert.Equal(t, 7, cfg.CatchupDrainPerTick)
}

func TestLoad_IMAPAdapterDefaultsAliasToMailboxWhenUnset(t *testing.T) {
	writeConfig(t, `
adapters:
  - kind: imap
    mailbox: ops@example.com
    imap_host: imap.example.com
    imap_username: ops@example.com
`)
	cfg, err := Load()
	require.NoError(t, err)
	require.Len(t, cfg.Adapters, 1)
	assert.Equal(t, "ops@example.com", cfg.Adapters[0].Alias)
}

func TestLoad_UnknownAdapterKindIsDropped(t *testing.T) {
	writeConfig(t, `
adapters:
  - kind: smtp
    mailbox: ops@example.com
  - kind: imap
    mailbox: ops@example.com
    imap_host: imap.example.com
    imap_username: ops@example.com
`)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Len(t, cfg.Adapters, 1)
}

func TestLoad_EnvVarExpansionInYAML(t *testing.T) {
	t.Setenv("TEST_CLIENT_SECRET", "from-env")
	writeConfig(t, `
adapters:
  - kind: graph
    mailbox: ops@example.com
    tenant_id: tenant-1
    client_id: client-1
    client_secret: ${TEST_CLIENT_SECRET}
`)
	cfg, err := Load()
	require.NoError(t, err)
	require.Len(t, cfg.Adapters, 1)
	assert.Equal(t, "from-env", cfg.Adapters[0].ClientSecret)
}

func TestFirstNonEmpty_ReturnsFirstNonBlank(t *testing.T) {
	assert.Equal(t, "b", firstNonEmpty("", "  ", "b", "c"))
	assert.Equal(t, "", firstNonEmpty("", "  "))
}

func TestFirstNonZeroDuration_ReturnsFirstNonZero(t *testing.T) {
	assert.Equal(t, 2*time.Second, firstNonZeroDuration(0, 2*time.Second, 3*time.Second))
}

func TestParseDurationOrZero_InvalidReturnsZero(t *testing.T) {
	assert.Equal(t, time.Duration(0), parseDurationOrZero("not-a-duration"))
	assert.Equal(t, time.Second, parseDurationOrZero("1s"))
}

func TestEnvOrDefaultInt_FallsBackOnNonNumeric(t *testing.T) {
	t.Setenv("OSEM_TEST_INT", "not-a-number")
	assert.Equal(t, 42, envOrDefaultInt("OSEM_TEST_INT", 42))
}
