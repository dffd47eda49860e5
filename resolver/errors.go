// Copyright 2025 The Podsudnost Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import "errors"

// Failures reported by Resolve. Upstream failures of the geocoder or the
// registry never show up here: the pipeline falls through to its next stage.
var (
	// ErrDatasetUnavailable means the court dataset could not be loaded.
	ErrDatasetUnavailable = errors.New("court dataset unavailable")

	// ErrNotFound means every stage came up empty and placeholders are
	// disabled.
	ErrNotFound = errors.New("no court found")

	// ErrInternal wraps unexpected faults, including recovered panics.
	ErrInternal = errors.New("internal error")

	// ErrCanceled means the caller went away mid-pipeline.
	ErrCanceled = errors.New("resolution canceled")

	// ErrInvalidQuery means the query violates its preconditions.
	ErrInvalidQuery = errors.New("invalid query")
)
