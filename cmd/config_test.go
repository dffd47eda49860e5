// Copyright 2025 The Podsudnost Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("", env(nil))
	require.NoError(t, err)

	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("LoadConfig() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "podsudnost.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
dataset: /srv/courts.json
listen: ":9000"
geocoder:
  provider: google
  google_project: courts-prod
redis:
  addr: localhost:6379
  ttl: 12h
registry:
  timeout: 15s
  requests_per_second: 0.5
  retries: 2
`), 0o600))

	cfg, err := LoadConfig(path, env(map[string]string{
		"YANDEX_GEOCODER_API_KEY":   "ya-key",
		"GOOGLE_MAPS_API_KEY":       "g-key",
		"PODSUDNOST_LISTEN":         ":9100",
		"PODSUDNOST_NO_PLACEHOLDER": "true",
	}))
	require.NoError(t, err)

	want := &Config{
		Dataset:       "/srv/courts.json",
		Listen:        ":9100",
		NoPlaceholder: true,
		Geocoder: GeocoderConfig{
			Provider:      ProviderGoogle,
			YandexKey:     "ya-key",
			GoogleKey:     "g-key",
			GoogleProject: "courts-prod",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
			TTL:  12 * time.Hour,
		},
		Registry: RegistryConfig{
			Timeout:           15 * time.Second,
			RequestsPerSecond: 0.5,
			Retries:           2,
		},
	}

	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("LoadConfig() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("listen: [unterminated"), 0o600))

	provider := filepath.Join(dir, "provider.yaml")
	require.NoError(t, os.WriteFile(provider, []byte("geocoder:\n  provider: osm\n"), 0o600))

	tests := []struct {
		name string
		path string
		env  map[string]string
	}{
		{"missing file", filepath.Join(dir, "missing.yaml"), nil},
		{"malformed yaml", bad, nil},
		{"unknown provider", provider, nil},
		{"bad bool", "", map[string]string{"PODSUDNOST_NO_PLACEHOLDER": "maybe"}},
		{"unknown provider from env", "", map[string]string{"PODSUDNOST_GEOCODER": "nominatim"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(tt.path, env(tt.env))
			assert.Error(t, err)
		})
	}
}
