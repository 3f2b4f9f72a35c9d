package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	"github.com/go-chi/chi/v5"

	"github.com/focusnest/gauntlet-service/internal/config"
	"github.com/focusnest/gauntlet-service/internal/gauntlet"
	"github.com/focusnest/gauntlet-service/internal/httpapi"
	"github.com/focusnest/gauntlet-service/internal/insights"
	"github.com/focusnest/gauntlet-service/internal/realtime"
	"github.com/focusnest/gauntlet-service/internal/store"
	sharedauth "github.com/focusnest/gauntlet-service/shared/auth"
	"github.com/focusnest/gauntlet-service/shared/logging"
	"github.com/focusnest/gauntlet-service/shared/pubsub"
	sharedserver "github.com/focusnest/gauntlet-service/shared/server"
)

const serviceName = "gauntlet-service"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Errorf("config error: %w", err))
	}

	logger := logging.NewLogger(serviceName, cfg.LogLevel)

	blobs, cleanup, err := newStore(ctx, cfg)
	if err != nil {
		panic(fmt.Errorf("store init error: %w", err))
	}
	defer cleanup()

	broker := pubsub.NewBroker()
	seed := int64(cfg.RandomSeed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	random := gauntlet.NewRandom(seed)

	svc, err := gauntlet.NewService(ctx, blobs, gauntlet.NewSystemClock(), gauntlet.NewUUIDGenerator(),
		gauntlet.WithPublisher(broker),
		gauntlet.WithLogger(logger),
		gauntlet.WithLatency(cfg.SimulatedLatency),
		gauntlet.WithRandom(random),
	)
	if err != nil {
		panic(fmt.Errorf("gauntlet service init error: %w", err))
	}

	upstream, err := newInsightsClient(ctx, cfg)
	if err != nil {
		panic(fmt.Errorf("insights client error: %w", err))
	}

	verifier, err := sharedauth.NewVerifier(sharedauth.Config{
		Mode:     cfg.Auth.Mode,
		JWKSURL:  cfg.Auth.JWKSURL,
		Audience: cfg.Auth.Audience,
		Issuer:   cfg.Auth.Issuer,
	})
	if err != nil {
		panic(fmt.Errorf("auth verifier error: %w", err))
	}

	hub := realtime.NewHub(logger)
	detach := hub.Attach(broker)
	defer detach()
	go hub.Run(ctx)

	if cfg.SocialSimulator && cfg.SocialInterval > 0 {
		go gauntlet.NewSocialSimulator(svc, random, cfg.SocialInterval, logger).Run(ctx)
	}

	router := sharedserver.NewRouter(sharedserver.RouterOptions{
		Service:   serviceName,
		DataStore: string(cfg.DataStore),
	}, func(r chi.Router) {
		r.Get("/ws", hub.ServeWS)

		r.Group(func(r chi.Router) {
			r = sharedserver.WithTimeout(r, 0)
			httpapi.RegisterInsightsRoutes(r, httpapi.InsightsDeps{
				Service:  svc,
				Upstream: upstream,
				Random:   random,
				Logger:   logger,
			})

			r.Group(func(r chi.Router) {
				r.Use(sharedauth.Middleware(verifier))
				httpapi.RegisterRoutes(r, svc, logger)
			})
		})
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	stopBackground := func(context.Context) error {
		cancel()
		return nil
	}
	if err := sharedserver.Run(ctx, srv, logger, stopBackground); err != nil && !errors.Is(err, http.ErrServerClosed) {
		panic(err)
	}
}

func newStore(ctx context.Context, cfg config.Config) (store.BlobStore, func(), error) {
	switch cfg.DataStore {
	case config.DataStoreFirestore:
		if cfg.Firestore.EmulatorHost != "" {
			if err := os.Setenv("FIRESTORE_EMULATOR_HOST", cfg.Firestore.EmulatorHost); err != nil {
				return nil, nil, fmt.Errorf("set FIRESTORE_EMULATOR_HOST: %w", err)
			}
		}

		client, err := firestore.NewClient(ctx, cfg.GCPProjectID)
		if err != nil {
			return nil, nil, fmt.Errorf("firestore client: %w", err)
		}
		blobs := store.NewFirestoreStore(client, cfg.Firestore.Collection)
		return blobs, func() { _ = blobs.Close() }, nil
	case config.DataStoreGCS:
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("storage client: %w", err)
		}
		blobs := store.NewGCSStore(client, cfg.Storage.Bucket, cfg.Storage.Prefix)
		return blobs, func() { _ = blobs.Close() }, nil
	case config.DataStoreSQLite:
		blobs, err := store.NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return blobs, func() { _ = blobs.Close() }, nil
	default:
		blobs := store.NewMemoryStore()
		return blobs, func() { _ = blobs.Close() }, nil
	}
}

func newInsightsClient(ctx context.Context, cfg config.Config) (*insights.Client, error) {
	if cfg.Insights.AuthMode == config.InsightsAuthIDToken {
		return insights.NewIDTokenClient(ctx, cfg.Insights.BaseURL, cfg.Insights.Audience, cfg.Insights.Timeout)
	}
	return insights.NewClient(cfg.Insights.BaseURL, cfg.Insights.Timeout), nil
}
