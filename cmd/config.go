// Copyright 2025 The Podsudnost Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the configuration shared by every command.
type Config struct {
	// Dataset is the JSON file with the known courts
	Dataset string `yaml:"dataset"`

	// Database is an optional DuckDB file seeded with the dataset; when set
	// nearest-court lookups use its territories and spatial index
	Database string `yaml:"database"`

	// Listen address of the API
	Listen string `yaml:"listen"`

	// NoPlaceholder reports not found instead of synthesizing a court
	NoPlaceholder bool `yaml:"no_placeholder"`

	Geocoder GeocoderConfig `yaml:"geocoder"`
	Redis    RedisConfig    `yaml:"redis"`
	Registry RegistryConfig `yaml:"registry"`
}

type GeocoderConfig struct {
	// Provider is "yandex" or "google"
	Provider      string `yaml:"provider"`
	YandexKey     string `yaml:"yandex_key"`
	GoogleKey     string `yaml:"google_key"`
	GoogleProject string `yaml:"google_project"`
}

type RedisConfig struct {
	// Addr enables the geocoder cache when set
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type RegistryConfig struct {
	BaseURL           string        `yaml:"base_url"`
	Region            string        `yaml:"region"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Retries           int           `yaml:"retries"`
}

// Geocoder providers.
const (
	ProviderYandex = "yandex"
	ProviderGoogle = "google"
)

// DefaultConfig returns the configuration used when nothing else is given.
func DefaultConfig() *Config {
	return &Config{
		Dataset: "data/courts_rostov.json",
		Listen:  ":8000",
		Geocoder: GeocoderConfig{
			Provider: ProviderYandex,
		},
		Redis: RedisConfig{
			TTL: 30 * 24 * time.Hour,
		},
		Registry: RegistryConfig{
			Timeout: 30 * time.Second,
		},
	}
}

// LoadConfig reads the defaults, then the YAML file at path when not empty,
// then the environment.
func LoadConfig(path string, getenv func(string) string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	str := func(name string, dst *string) {
		if v := getenv(name); v != "" {
			*dst = v
		}
	}

	str("YANDEX_GEOCODER_API_KEY", &c.Geocoder.YandexKey)
	str("GOOGLE_MAPS_API_KEY", &c.Geocoder.GoogleKey)
	str("PODSUDNOST_DATASET", &c.Dataset)
	str("PODSUDNOST_DATABASE", &c.Database)
	str("PODSUDNOST_LISTEN", &c.Listen)
	str("PODSUDNOST_GEOCODER", &c.Geocoder.Provider)
	str("PODSUDNOST_GOOGLE_PROJECT", &c.Geocoder.GoogleProject)
	str("PODSUDNOST_REDIS_ADDR", &c.Redis.Addr)
	str("PODSUDNOST_REDIS_PASSWORD", &c.Redis.Password)
	str("PODSUDNOST_REGISTRY_URL", &c.Registry.BaseURL)

	if v := getenv("PODSUDNOST_NO_PLACEHOLDER"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("PODSUDNOST_NO_PLACEHOLDER: %w", err)
		}

		c.NoPlaceholder = b
	}

	return nil
}

// Validate checks the values that cannot be fixed by defaults.
func (c *Config) Validate() error {
	switch c.Geocoder.Provider {
	case ProviderYandex, ProviderGoogle:
	default:
		return fmt.Errorf("unknown geocoder provider %q", c.Geocoder.Provider)
	}

	if c.Registry.RequestsPerSecond < 0 {
		return errors.New("registry.requests_per_second must not be negative")
	}

	if c.Redis.TTL < 0 {
		return errors.New("redis.ttl must not be negative")
	}

	return nil
}
