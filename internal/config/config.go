package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	sharedauth "github.com/focusnest/gauntlet-service/shared/auth"
	"github.com/focusnest/gauntlet-service/shared/envconfig"
)

// Config encapsulates the runtime configuration for the gauntlet service.
type Config struct {
	Port             string `validate:"required,numeric"`
	GCPProjectID     string
	LogLevel         string `validate:"oneof=debug info warn warning error"`
	DataStore        DataStore
	SQLitePath       string
	SimulatedLatency time.Duration
	SocialSimulator  bool
	SocialInterval   time.Duration
	// RandomSeed fixes the simulator and history noise; zero seeds from the clock.
	RandomSeed int
	Auth       AuthConfig
	Firestore  FirestoreConfig
	Storage    StorageConfig
	Insights   InsightsConfig
}

// DataStore enumerates supported persistence backends.
type DataStore string

const (
	// DataStoreMemory keeps the snapshot in-memory (useful for local development/testing).
	DataStoreMemory DataStore = "memory"
	// DataStoreSQLite keeps the snapshot in a local SQLite file.
	DataStoreSQLite DataStore = "sqlite"
	// DataStoreFirestore keeps the snapshot in a Firestore document.
	DataStoreFirestore DataStore = "firestore"
	// DataStoreGCS keeps the snapshot as a Cloud Storage object.
	DataStoreGCS DataStore = "gcs"
)

// AuthConfig stores authentication middleware setup.
type AuthConfig struct {
	Mode     sharedauth.Mode
	JWKSURL  string
	Audience string
	Issuer   string
}

// FirestoreConfig tailors Firestore client behavior.
type FirestoreConfig struct {
	EmulatorHost string
	Collection   string
}

// StorageConfig contains Cloud Storage settings.
type StorageConfig struct {
	Bucket string
	Prefix string
}

// InsightsMode selects how calls to the ML service are authenticated.
type InsightsMode string

const (
	InsightsAuthNone    InsightsMode = "none"
	InsightsAuthIDToken InsightsMode = "idtoken"
)

// InsightsConfig describes the upstream forecasting service.
type InsightsConfig struct {
	BaseURL  string
	AuthMode InsightsMode
	Audience string
	Timeout  time.Duration
}

// Load reads environment variables into Config with validation.
func Load() (Config, error) {
	cfg := Config{
		Port:             envconfig.Get("PORT", "5001"),
		GCPProjectID:     envconfig.Get("GCP_PROJECT_ID", ""),
		LogLevel:         strings.ToLower(envconfig.Get("LOG_LEVEL", "info")),
		DataStore:        DataStore(strings.ToLower(envconfig.Get("DATASTORE", string(DataStoreMemory)))),
		SQLitePath:       envconfig.Get("SQLITE_PATH", "./gauntlet.db"),
		SimulatedLatency: envconfig.GetDuration("SIMULATED_LATENCY", 0),
		SocialSimulator:  envconfig.GetBool("SOCIAL_SIMULATOR", true),
		SocialInterval:   envconfig.GetDuration("SOCIAL_INTERVAL", 30*time.Second),
		RandomSeed:       envconfig.GetInt("RANDOM_SEED", 0),
		Auth: AuthConfig{
			Mode:     sharedauth.Mode(strings.ToLower(envconfig.Get("AUTH_MODE", string(sharedauth.ModeNoop)))),
			JWKSURL:  envconfig.Get("CLERK_JWKS_URL", ""),
			Audience: envconfig.Get("CLERK_AUDIENCE", ""),
			Issuer:   envconfig.Get("CLERK_ISSUER", ""),
		},
		Firestore: FirestoreConfig{
			EmulatorHost: envconfig.Get("FIRESTORE_EMULATOR_HOST", ""),
			Collection:   envconfig.Get("FIRESTORE_COLLECTION", "gauntlet_state"),
		},
		Storage: StorageConfig{
			Bucket: envconfig.Get("GAUNTLET_STORAGE_BUCKET", ""),
			Prefix: envconfig.Get("GAUNTLET_STORAGE_PREFIX", "state"),
		},
		Insights: InsightsConfig{
			BaseURL:  strings.TrimRight(envconfig.Get("ML_SERVICE_URL", "http://localhost:5002"), "/"),
			AuthMode: InsightsMode(strings.ToLower(envconfig.Get("ML_AUTH_MODE", string(InsightsAuthNone)))),
			Audience: envconfig.Get("ML_AUDIENCE", ""),
			Timeout:  envconfig.GetDuration("ML_TIMEOUT", 10*time.Second),
		},
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func validate(cfg Config) error {
	if err := envconfig.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	switch cfg.DataStore {
	case DataStoreMemory:
		// no-op
	case DataStoreSQLite:
		if strings.TrimSpace(cfg.SQLitePath) == "" {
			return fmt.Errorf("SQLITE_PATH is required when DATASTORE=sqlite")
		}
	case DataStoreFirestore:
		if cfg.GCPProjectID == "" {
			return fmt.Errorf("gcp project id required when datastore=firestore")
		}
	case DataStoreGCS:
		if strings.TrimSpace(cfg.Storage.Bucket) == "" {
			return fmt.Errorf("GAUNTLET_STORAGE_BUCKET is required when DATASTORE=gcs")
		}
	default:
		return fmt.Errorf("unsupported datastore: %s", cfg.DataStore)
	}

	switch cfg.Auth.Mode {
	case sharedauth.ModeClerk:
		if cfg.Auth.JWKSURL == "" {
			return fmt.Errorf("CLERK_JWKS_URL is required when AUTH_MODE=clerk")
		}
	case sharedauth.ModeNoop:
		// no-op
	default:
		return fmt.Errorf("unsupported auth mode: %s", cfg.Auth.Mode)
	}

	if err := envconfig.ValidateVar(cfg.Insights.BaseURL, "required,url"); err != nil {
		return fmt.Errorf("ML_SERVICE_URL must be an absolute url: %w", err)
	}
	if u, err := url.Parse(cfg.Insights.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("ML_SERVICE_URL must use http or https")
	}

	switch cfg.Insights.AuthMode {
	case InsightsAuthNone:
		// no-op
	case InsightsAuthIDToken:
		// The audience defaults to the base URL, as Cloud Run expects.
	default:
		return fmt.Errorf("unsupported ML auth mode: %s", cfg.Insights.AuthMode)
	}

	if cfg.SimulatedLatency < 0 {
		return fmt.Errorf("SIMULATED_LATENCY must not be negative")
	}
	if cfg.SocialInterval < 0 {
		return fmt.Errorf("SOCIAL_INTERVAL must not be negative")
	}

	return nil
}
