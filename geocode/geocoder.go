// Copyright 2025 The Podsudnost Authors
// SPDX-License-Identifier: Apache-2.0

// Package geocode turns free-text addresses into coordinates.
package geocode

import (
	"context"

	"github.com/podsudnost/podsudnost/spatial"
)

// Result represents a geocoding result from any provider.
type Result struct {
	Point       spatial.Point `json:"point"`
	Confidence  string        `json:"confidence"` // high, medium, low
	Provider    string        `json:"provider"`
	DisplayName string        `json:"display_name"`
}

// Geocoder interface for different geocoding providers.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*Result, error)
}
