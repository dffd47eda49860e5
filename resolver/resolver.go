// Copyright 2025 The Podsudnost Authors
// SPDX-License-Identifier: Apache-2.0

// Package resolver decides which court has jurisdiction over a debt case.
//
// A query walks an explicit state machine: the debt amount picks the court
// category, then a geocoded nearest-court lookup, the sudrf registry and a
// scan of the dataset by district are tried in turn. When all of them come
// up empty a placeholder court named after the district is returned.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/podsudnost/podsudnost/courts"
	"github.com/podsudnost/podsudnost/geocode"
	"github.com/podsudnost/podsudnost/metrics"
	"github.com/podsudnost/podsudnost/spatial"
	"github.com/podsudnost/podsudnost/sudrf"
	"github.com/rs/zerolog/log"
)

// Geocoder turns an address into coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*geocode.Result, error)
}

// Registry searches the courts serving an address.
type Registry interface {
	Search(ctx context.Context, address string, category courts.Category) ([]sudrf.Candidate, error)
}

// Locator finds the court of a category serving a point. A nil record
// means no match. Both courts.Dataset and courts.Repository implement it.
type Locator interface {
	Locate(ctx context.Context, p spatial.Point, c courts.Category) (*courts.Record, error)
}

// Query is a jurisdiction question.
type Query struct {
	Address    string  `json:"address"`
	DebtAmount float64 `json:"debt_amount"`
	CaseType   string  `json:"case_type"`
}

func (q Query) validate() error {
	if strings.TrimSpace(q.Address) == "" {
		return fmt.Errorf("%w: empty address", ErrInvalidQuery)
	}

	if math.IsNaN(q.DebtAmount) || q.DebtAmount < 0 {
		return fmt.Errorf("%w: debt amount must be a non-negative number", ErrInvalidQuery)
	}

	return nil
}

// Result is the court answering a Query.
type Result struct {
	// Court is the normalized court record.
	Court courts.Record

	// Category is the target category of the query.
	Category courts.Category

	// Stage is the state that produced the court.
	Stage State

	// Synthesized is set when the court is not a dataset record.
	Synthesized bool
}

// Options configuration for Resolver.
type Options struct {
	// Catalog of districts, the Rostov one when nil
	Catalog *courts.Catalog

	// Locator used for nearest-court lookups, the dataset when nil
	Locator Locator

	// NoPlaceholder reports ErrNotFound instead of synthesizing a court
	// when every stage fails
	NoPlaceholder bool
}

// Resolver runs the resolution pipeline. It is safe for concurrent use.
type Resolver struct {
	dataset  *courts.Dataset
	catalog  *courts.Catalog
	locator  Locator
	geocoder Geocoder
	registry Registry
	options  Options
}

// New creates a Resolver. A nil dataset makes every resolution fail with
// ErrDatasetUnavailable. A nil geocoder or registry behaves as one that
// never finds anything.
func New(dataset *courts.Dataset, geocoder Geocoder, registry Registry, options *Options) *Resolver {
	r := &Resolver{
		dataset:  dataset,
		geocoder: geocoder,
		registry: registry,
	}

	if options != nil {
		r.options = *options
	}

	r.catalog = r.options.Catalog
	if r.catalog == nil {
		r.catalog = courts.RostovCatalog()
	}

	r.locator = r.options.Locator
	if r.locator == nil && dataset != nil {
		r.locator = dataset
	}

	return r
}

// Resolve finds the court with jurisdiction over q.
func (r *Resolver) Resolve(ctx context.Context, q Query) (res *Result, err error) {
	run := &run{r: r, q: q, state: StateStart}

	defer func() {
		if p := recover(); p != nil {
			log.Error().Interface("panic", p).Str("address", q.Address).
				Stringer("stage", run.state).Msg("resolution panicked")

			res, err = nil, fmt.Errorf("%w: %v", ErrInternal, p)
		}

		stage := run.state
		if run.result != nil {
			stage = run.result.Stage
		}

		observe(stage, err)
	}()

	for !run.state.Terminal() {
		if run.state > StateClassify {
			if err := canceled(ctx); err != nil {
				return nil, err
			}
		}

		next, err := run.step(ctx)
		if err != nil {
			return nil, err
		}

		run.state = next
	}

	if run.state == StateDatasetUnavailable {
		return nil, ErrDatasetUnavailable
	}

	return run.result, nil
}

func observe(s State, err error) {
	outcome := "success"

	switch {
	case err == nil:
	case errors.Is(err, ErrCanceled):
		outcome = "canceled"
	case errors.Is(err, ErrDatasetUnavailable):
		outcome = "unavailable"
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
	case errors.Is(err, ErrInvalidQuery):
		outcome = "invalid"
	default:
		outcome = "error"
	}

	metrics.ObserveResolution(s.String(), outcome)
}

// run holds the state of a single resolution.
type run struct {
	r *Resolver
	q Query

	state    State
	category courts.Category
	district courts.District

	// firstPoint is the outcome of the first geocode, lastPoint of the
	// latest one. Either may be nil.
	firstPoint *spatial.Point
	lastPoint  *spatial.Point

	result *Result
}

// step executes the current state and returns the next one.
func (x *run) step(ctx context.Context) (State, error) {
	switch x.state {
	case StateStart:
		if x.r.dataset == nil {
			return StateDatasetUnavailable, nil
		}

		if err := x.q.validate(); err != nil {
			return 0, err
		}

		return StateClassify, nil

	case StateClassify:
		x.category = courts.Classify(x.q.DebtAmount)
		log.Info().Str("address", x.q.Address).Float64("debt_amount", x.q.DebtAmount).
			Str("case_type", x.q.CaseType).Stringer("category", x.category).Msg("resolving court")

		return StateGeoAttempt, nil

	case StateGeoAttempt:
		rec, err := x.geoLookup(ctx)
		x.firstPoint = x.lastPoint

		if err != nil || rec != nil {
			return x.succeed(rec, false, err)
		}

		x.district = x.r.catalog.DistrictOf(x.q.Address)
		log.Debug().Stringer("district", x.district).Msg("address district")

		return StateRegistryAttempt, nil

	case StateRegistryAttempt:
		rec, synthesized, err := x.registryLookup(ctx)
		if err != nil || rec != nil {
			return x.succeed(rec, synthesized, err)
		}

		return StateLocalFallback, nil

	case StateLocalFallback:
		if rec, ok := x.r.dataset.FirstInDistrict(x.r.catalog, x.district, x.category); ok {
			log.Info().Str("court", rec.Name).Msg("court found by district")

			return x.succeed(rec, false, nil)
		}

		return StateGeoRetry, nil

	case StateGeoRetry:
		rec, err := x.geoLookup(ctx)
		if err != nil || rec != nil {
			return x.succeed(rec, false, err)
		}

		return StatePlaceholder, nil

	case StatePlaceholder:
		if x.r.options.NoPlaceholder {
			return 0, ErrNotFound
		}

		ev := log.Warn().Str("address", x.q.Address).Stringer("district", x.district)
		if x.district.IsUnknown() {
			ev = ev.Bool("unknown_district", true)
		}

		ev.Msg("no court found, using placeholder")

		return x.succeed(x.placeholder(), true, nil)

	default:
		return 0, fmt.Errorf("%w: unexpected state %s", ErrInternal, x.state)
	}
}

// succeed records rec as the result of the current state. A nil rec with a
// nil error is not expected here.
func (x *run) succeed(rec *courts.Record, synthesized bool, err error) (State, error) {
	if err != nil {
		return 0, err
	}

	if strings.TrimSpace(rec.Name) == "" {
		return 0, fmt.Errorf("%w: court without a name at stage %s", ErrInternal, x.state)
	}

	court := *rec.Clone()
	court.Name = strings.TrimSpace(court.Name)
	court.Polygon = ""

	if court.Category == "" {
		court.Category = x.category
	}

	x.result = &Result{
		Court:       court,
		Category:    x.category,
		Stage:       x.state,
		Synthesized: synthesized,
	}

	return StateSuccess, nil
}

// canceled turns a context failure into ErrCanceled.
func canceled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrCanceled, err)
	}

	return nil
}

// geoLookup geocodes the address and looks the nearest court up. Geocoder
// failures are absorbed; lastPoint keeps the outcome of the geocode.
func (x *run) geoLookup(ctx context.Context) (*courts.Record, error) {
	x.lastPoint = nil

	if x.r.geocoder == nil {
		return nil, nil
	}

	g, err := x.r.geocoder.Geocode(ctx, x.q.Address)
	if cerr := canceled(ctx); cerr != nil {
		return nil, cerr
	}

	if err != nil {
		log.Warn().Err(err).
			Str("address", x.q.Address).
			Bool("rate_limited", geocode.IsRateLimitError(err)).
			Bool("quota_exceeded", geocode.IsQuotaExceededError(err)).
			Msg("geocoding failed")

		return nil, nil
	}

	if g == nil {
		log.Warn().Str("address", x.q.Address).Msg("geocoder returned no result")

		return nil, nil
	}

	p := g.Point
	x.lastPoint = &p

	rec, err := x.r.locator.Locate(ctx, p, x.category)
	if cerr := canceled(ctx); cerr != nil {
		return nil, cerr
	}

	if err != nil {
		return nil, fmt.Errorf("%w: locating nearest court: %w", ErrInternal, err)
	}

	if rec != nil {
		log.Info().Str("court", rec.Name).Stringer("point", p).Msg("nearest court found")
	}

	return rec, nil
}

// registryLookup asks the registry and cross-references the first
// candidate of the address district and target category.
func (x *run) registryLookup(ctx context.Context) (*courts.Record, bool, error) {
	if x.r.registry == nil {
		return nil, false, nil
	}

	candidates, err := x.r.registry.Search(ctx, x.q.Address, x.category)
	if cerr := canceled(ctx); cerr != nil {
		return nil, false, cerr
	}

	if err != nil {
		log.Warn().Err(err).Str("address", x.q.Address).Msg("registry search failed")

		return nil, false, nil
	}

	selected := x.selectCandidate(candidates)
	if selected == nil {
		log.Info().Int("candidates", len(candidates)).Msg("no registry candidate matches")

		return nil, false, nil
	}

	if rec, ok := x.r.dataset.FindByName(selected.Name); ok {
		if rec.Website == "" {
			rec.Website = selected.Website
		}

		log.Info().Str("court", rec.Name).Msg("registry court found in dataset")

		return rec, false, nil
	}

	log.Info().Str("court", selected.Name).Msg("registry court not in dataset")

	var coords *spatial.Point
	if x.firstPoint != nil {
		p := *x.firstPoint
		coords = &p
	}

	return &courts.Record{
		Name:        selected.Name,
		Category:    x.category,
		Address:     x.q.Address,
		Website:     selected.Website,
		Coordinates: coords,
	}, true, nil
}

// selectCandidate returns the first candidate in the address district whose
// name marks the target category.
func (x *run) selectCandidate(candidates []sudrf.Candidate) *sudrf.Candidate {
	for i := range candidates {
		c := &candidates[i]

		d, ok := x.r.catalog.DistrictOfCourtName(c.Name)
		if !ok || !d.Equal(x.district) {
			continue
		}

		if courts.NameMatchesCategory(c.Name, x.category) {
			return c
		}
	}

	return nil
}

// placeholder names a court after the address district.
func (x *run) placeholder() *courts.Record {
	name := "Судебный участок " + x.district.Nominative + " район"
	if x.category == courts.DistrictCourt {
		name = x.district.Nominative + " районный суд"
	}

	return &courts.Record{
		Name:        name,
		Category:    x.category,
		Address:     x.q.Address,
		Coordinates: x.lastPoint,
	}
}
