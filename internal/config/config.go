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

// Package config loads configuration from config.yaml and environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AdapterConfig holds the credentials and settings for one mail-source
// adapter instance.
type AdapterConfig struct {
	Alias    string `yaml:"alias"`
	Kind     string `yaml:"kind"` // "graph" or "imap"
	Mailbox  string `yaml:"mailbox"`

	// Graph (OAuth2 client-credentials)
	TenantID     string `yaml:"tenant_id"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	GraphBaseURL string `yaml:"graph_base_url"`

	// IMAP
	IMAPHost     string `yaml:"imap_host"`
	IMAPPort     int    `yaml:"imap_port"`
	IMAPUsername string `yaml:"imap_username"`
	IMAPPassword string `yaml:"imap_password"`
	IMAPUseTLS   bool   `yaml:"imap_use_tls"`
}

// Config holds all configuration for the event classification and
// ingestion engine.
type Config struct {
	Adapters []AdapterConfig

	// Event store / preference store
	StorePath       string
	TemplatePrefsPath string

	// Catch-up tuning
	CatchupTickInterval time.Duration
	CatchupInitialDelay time.Duration
	CatchupDrainPerTick int
	SecondarySignals    bool

	// Redis (EventChanged fanout + distributed dedup)
	RedisURL      string
	NotifyChannel string

	// Audit ledger (Postgres)
	AuditDSN string

	// Server (health check + metrics)
	Port int
}

// rawConfig mirrors the YAML structure for unmarshalling.
type rawConfig struct {
	Adapters []struct {
		Alias        string `yaml:"alias"`
		Kind         string `yaml:"kind"`
		Mailbox      string `yaml:"mailbox"`
		TenantID     string `yaml:"tenant_id"`
		ClientID     string `yaml:"client_id"`
		ClientSecret string `yaml:"client_secret"`
		GraphBaseURL string `yaml:"graph_base_url"`
		IMAPHost     string `yaml:"imap_host"`
		IMAPPort     int    `yaml:"imap_port"`
		IMAPUsername string `yaml:"imap_username"`
		IMAPPassword string `yaml:"imap_password"`
		IMAPUseTLS   bool   `yaml:"imap_use_tls"`
	} `yaml:"adapters"`
	Store struct {
		Path              string `yaml:"path"`
		TemplatePrefsPath string `yaml:"template_prefs_path"`
	} `yaml:"store"`
	Catchup struct {
		TickInterval     string `yaml:"tick_interval"`
		InitialDelay     string `yaml:"initial_delay"`
		DrainPerTick     int    `yaml:"drain_per_tick"`
		SecondarySignals bool   `yaml:"secondary_signals"`
	} `yaml:"catchup"`
	Redis struct {
		URL           string `yaml:"url"`
		NotifyChannel string `yaml:"notify_channel"`
	} `yaml:"redis"`
	Audit struct {
		DSN string `yaml:"dsn"`
	} `yaml:"audit"`
}

// Load reads configuration from config.yaml (with env var expansion) and
// environment variables for non-YAML settings.
func Load() (*Config, error) {
	configPath := envOrDefault("CONFIG_PATH", "/app/config/config.yaml")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", configPath, err)
	}

	// Expand ${VAR} references in the YAML
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config YAML: %w", err)
	}

	cfg := &Config{
		StorePath:           firstNonEmpty(raw.Store.Path, envOrDefault("STORE_PATH", "/app/data/OSEM/event-store.json")),
		TemplatePrefsPath:   firstNonEmpty(raw.Store.TemplatePrefsPath, envOrDefault("TEMPLATE_PREFS_PATH", "/app/data/OSEM/template_preferences.json")),
		CatchupTickInterval: firstNonZeroDuration(parseDurationOrZero(raw.Catchup.TickInterval), envOrDefaultDuration("CATCHUP_TICK_INTERVAL", 15*time.Minute)),
		CatchupInitialDelay: firstNonZeroDuration(parseDurationOrZero(raw.Catchup.InitialDelay), envOrDefaultDuration("CATCHUP_INITIAL_DELAY", 10*time.Second)),
		CatchupDrainPerTick: firstNonZeroInt(raw.Catchup.DrainPerTick, envOrDefaultInt("CATCHUP_DRAIN_PER_TICK", 20)),
		SecondarySignals:    raw.Catchup.SecondarySignals,
		RedisURL:            firstNonEmpty(raw.Redis.URL, envOrDefault("REDIS_URL", "")),
		NotifyChannel:       firstNonEmpty(raw.Redis.NotifyChannel, envOrDefault("NOTIFY_CHANNEL", "osem:event-changed")),
		AuditDSN:            firstNonEmpty(raw.Audit.DSN, envOrDefault("AUDIT_DSN", "")),
		Port:                envOrDefaultInt("PORT", 8080),
	}

	for _, a := range raw.Adapters {
		ac := AdapterConfig{
			Alias:        a.Alias,
			Kind:         a.Kind,
			Mailbox:      a.Mailbox,
			TenantID:     a.TenantID,
			ClientID:     a.ClientID,
			ClientSecret: a.ClientSecret,
			GraphBaseURL: firstNonEmpty(a.GraphBaseURL, "https://graph.microsoft.com/v1.0"),
			IMAPHost:     a.IMAPHost,
			IMAPPort:     a.IMAPPort,
			IMAPUsername: a.IMAPUsername,
			IMAPPassword: a.IMAPPassword,
			IMAPUseTLS:   a.IMAPUseTLS,
		}

		switch ac.Kind {
		case "graph":
			if ac.TenantID == "" || ac.ClientID == "" || ac.ClientSecret == "" {
				continue
			}
		case "imap":
			if ac.IMAPHost == "" || ac.IMAPUsername == "" {
				continue
			}
		default:
			continue
		}

		if ac.Alias == "" {
			ac.Alias = ac.Mailbox
		}

		cfg.Adapters = append(cfg.Adapters, ac)
	}

	if len(cfg.Adapters) == 0 {
		return nil, fmt.Errorf("no mail-source adapters configured — check config.yaml and environment variables")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envOrDefaultDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func firstNonZeroDuration(values ...time.Duration) time.Duration {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}

func firstNonZeroInt(values ...int) int {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}

func parseDurationOrZero(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
