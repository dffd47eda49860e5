// Copyright 2025 The Podsudnost Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/mattn/go-isatty"
	"github.com/podsudnost/podsudnost/courts"
	"github.com/podsudnost/podsudnost/geocode"
	"github.com/podsudnost/podsudnost/resolver"
	"github.com/podsudnost/podsudnost/sudrf"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
)

// newGeocoder builds the configured geocoder, wrapped by the Redis cache
// when one is configured. It returns nil, without error, when the provider
// has no credentials: resolution then skips the geocoding stages.
func newGeocoder(ctx context.Context, cfg *Config) (geocode.Geocoder, io.Closer, error) {
	var g geocode.Geocoder

	switch cfg.Geocoder.Provider {
	case ProviderGoogle:
		key := cfg.Geocoder.GoogleKey
		if key == "" {
			log.Info().Msg("GOOGLE_MAPS_API_KEY is not set, retrieving it via ADC")

			var err error

			key, err = geocode.APIKeyFromADC(ctx, cfg.Geocoder.GoogleProject, "")
			if err != nil {
				log.Warn().Err(err).Msg("geocoding disabled")

				return nil, nil, nil
			}
		}

		g = geocode.NewGoogleMapsGeocoder(key, nil)
	default:
		if cfg.Geocoder.YandexKey == "" {
			log.Warn().Err(geocode.ErrMissingAPIKey).Msg("YANDEX_GEOCODER_API_KEY is not set, geocoding disabled")

			return nil, nil, nil
		}

		g = geocode.NewYandexGeocoder(cfg.Geocoder.YandexKey, nil)
	}

	if cfg.Redis.Addr == "" {
		return g, nil, nil
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{cfg.Redis.Addr},
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable, cache will fall through")
	}

	log.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.Redis.TTL).Msg("geocoder cache enabled")

	return geocode.NewCachingGeocoder(g, client, cfg.Redis.TTL), client, nil
}

func newRegistryClient(cfg *Config, requestsPerSecond float64) *sudrf.Client {
	rps := cfg.Registry.RequestsPerSecond
	if rps == 0 {
		rps = requestsPerSecond
	}

	return sudrf.NewClient(&sudrf.ClientOptions{
		BaseURL:           cfg.Registry.BaseURL,
		Region:            cfg.Registry.Region,
		Timeout:           cfg.Registry.Timeout,
		RequestsPerSecond: rps,
		Retries:           cfg.Registry.Retries,
	})
}

// openRepository opens the DuckDB court store.
func openRepository(path string) (*courts.Repository, *sql.DB, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	repo := courts.NewRepository(db)
	if err := repo.CreateSchema(); err != nil {
		return nil, nil, errors.Join(err, db.Close())
	}

	return repo, db, nil
}

// storedDataset builds the dataset from the courts seeded in the store.
func storedDataset(ctx context.Context, repo *courts.Repository) (*courts.Dataset, error) {
	records, err := repo.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	log.Info().Int("courts", len(records)).Msg("dataset loaded from the court store")

	return courts.NewDataset(records)
}

// service is the resolver with the resources it holds.
type service struct {
	resolver *resolver.Resolver
	closers  []io.Closer
}

func (s *service) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c.Close())
	}

	return errors.Join(errs...)
}

// newService wires the resolver from the configuration. When the dataset
// file cannot be loaded the courts seeded in the store are used instead;
// without either the resolver reports the dataset as unavailable.
func newService(ctx context.Context, cfg *Config) (*service, error) {
	s := &service{}

	dataset, err := courts.LoadFile(cfg.Dataset)
	if err != nil {
		log.Error().Err(err).Str("dataset", cfg.Dataset).Msg("court dataset not loaded")
	}

	options := &resolver.Options{NoPlaceholder: cfg.NoPlaceholder}

	if cfg.Database != "" {
		repo, db, err := openRepository(cfg.Database)
		if err != nil {
			return nil, err
		}

		s.closers = append(s.closers, db)

		if dataset == nil {
			if dataset, err = storedDataset(ctx, repo); err != nil {
				log.Error().Err(err).Str("database", cfg.Database).Msg("court store not loaded")
			}
		}

		if dataset != nil {
			options.Locator = repo

			log.Info().Str("database", cfg.Database).Msg("nearest-court lookups use the court store")
		}
	}

	g, closer, err := newGeocoder(ctx, cfg)
	if err != nil {
		return nil, errors.Join(err, s.Close())
	}

	if closer != nil {
		s.closers = append(s.closers, closer)
	}

	var geocoder resolver.Geocoder
	if g != nil {
		geocoder = g
	}

	s.resolver = resolver.New(dataset, geocoder, newRegistryClient(cfg, 0), options)

	return s, nil
}

// newProgress returns the callbacks of a progress bar on stderr, or nils
// when stderr is not a terminal.
func newProgress(description string) (total func(int), progress func(), finish func()) {
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		return nil, nil, func() {}
	}

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	total = func(n int) { bar.ChangeMax(n) }
	progress = func() { _ = bar.Add(1) }
	finish = func() { _ = bar.Finish() }

	return total, progress, finish
}
