package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, name := range []string{"PORT", "DATASTORE", "AUTH_MODE", "ML_SERVICE_URL", "ML_AUTH_MODE", "SIMULATED_LATENCY", "SOCIAL_INTERVAL", "SOCIAL_SIMULATOR", "RANDOM_SEED", "LOG_LEVEL"} {
		t.Setenv(name, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "5001" || cfg.DataStore != DataStoreMemory {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Insights.BaseURL != "http://localhost:5002" {
		t.Fatalf("unexpected ML url: %s", cfg.Insights.BaseURL)
	}
	if cfg.SocialInterval != 30*time.Second || cfg.SimulatedLatency != 0 {
		t.Fatalf("unexpected intervals: %+v", cfg)
	}
	if !cfg.SocialSimulator || cfg.RandomSeed != 0 || cfg.LogLevel != "info" {
		t.Fatalf("unexpected simulator settings: %+v", cfg)
	}
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown datastore":  {"DATASTORE": "postgres"},
		"firestore project":  {"DATASTORE": "firestore", "GCP_PROJECT_ID": ""},
		"gcs bucket":         {"DATASTORE": "gcs", "GAUNTLET_STORAGE_BUCKET": ""},
		"clerk without jwks": {"AUTH_MODE": "clerk", "CLERK_JWKS_URL": ""},
		"relative ml url":    {"ML_SERVICE_URL": "localhost:5002"},
		"unknown ml auth":    {"ML_AUTH_MODE": "basic"},
		"non-numeric port":   {"PORT": "http"},
		"unknown log level":  {"LOG_LEVEL": "loud"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s", name)
			}
		})
	}
}
