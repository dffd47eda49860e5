// Copyright 2025 The Podsudnost Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

// State is a step of the resolution pipeline.
type State int

// Pipeline states, in the order they are normally visited.
const (
	StateStart State = iota
	StateClassify
	StateGeoAttempt
	StateRegistryAttempt
	StateLocalFallback
	StateGeoRetry
	StatePlaceholder
	StateSuccess
	StateDatasetUnavailable
)

var stateNames = [...]string{
	StateStart:              "start",
	StateClassify:           "classify",
	StateGeoAttempt:         "geo",
	StateRegistryAttempt:    "registry",
	StateLocalFallback:      "local",
	StateGeoRetry:           "geo_retry",
	StatePlaceholder:        "placeholder",
	StateSuccess:            "success",
	StateDatasetUnavailable: "dataset_unavailable",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}

	return stateNames[s]
}

// Terminal reports whether the pipeline stops at s.
func (s State) Terminal() bool {
	return s == StateSuccess || s == StateDatasetUnavailable
}
