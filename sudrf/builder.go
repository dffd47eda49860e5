// Copyright 2025 The Podsudnost Authors
// SPDX-License-Identifier: Apache-2.0

package sudrf

import (
	"context"
	"fmt"
	"strings"

	"github.com/podsudnost/podsudnost/courts"
	"github.com/podsudnost/podsudnost/geocode"
	"github.com/podsudnost/podsudnost/spatial"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// BuildOptions configuration for Builder.
type BuildOptions struct {
	// Max number of courts processed concurrently
	Workers int

	// Progress is called once per processed court
	Progress func()

	// Total is called with the number of courts about to be processed
	Total func(n int)
}

// Builder produces dataset records from the registry catalog, enriching
// them with the court sites and a geocoder.
type Builder struct {
	client   *Client
	geocoder geocode.Geocoder
	options  BuildOptions
}

// NewBuilder creates a Builder. A nil geocoder leaves records without
// coordinates.
func NewBuilder(client *Client, geocoder geocode.Geocoder, options *BuildOptions) *Builder {
	b := &Builder{client: client, geocoder: geocoder}
	if options != nil {
		b.options = *options
	}

	if b.options.Workers <= 0 {
		b.options.Workers = 1
	}

	return b
}

func (b *Builder) total(n int) {
	if b.options.Total != nil {
		b.options.Total(n)
	}
}

func (b *Builder) progress() {
	if b.options.Progress != nil {
		b.options.Progress()
	}
}

func (b *Builder) locate(ctx context.Context, address string) *spatial.Point {
	if b.geocoder == nil || address == "" {
		return nil
	}

	r, err := b.geocoder.Geocode(ctx, address)
	if err != nil {
		log.Warn().Err(err).Str("address", address).Msg("geocoding court address")

		return nil
	}

	return &r.Point
}

// BuildLocal lists the magistrate sections of the region and fetches the
// details of each one.
func (b *Builder) BuildLocal(ctx context.Context) ([]courts.Record, error) {
	entries, err := b.client.ListLocal(ctx)
	if err != nil {
		return nil, err
	}

	prefix := b.client.Region() + "MS"
	kept := entries[:0]

	for _, e := range entries {
		if !strings.HasPrefix(e.Code, prefix) {
			log.Info().Str("court", e.Name).Str("code", e.Code).Msg("skipping court outside the region")

			continue
		}

		kept = append(kept, e)
	}

	b.total(len(kept))

	records := make([]courts.Record, len(kept))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.options.Workers)

	for i, e := range kept {
		g.Go(func() error {
			r := courts.Record{
				Name:     e.Name,
				Category: courts.Local,
				Code:     e.Code,
				Website:  e.Website,
			}

			if e.Website != "" {
				details, err := b.client.CourtDetails(gctx, e.Website)
				if details != nil {
					r.Address = details.Address
					r.Phone = details.Phone
					r.Email = details.Email
					r.Territory = details.Territory
				}

				if err != nil {
					log.Warn().Err(err).Str("court", e.Name).Msg("fetching court details")
				}
			}

			r.Coordinates = b.locate(gctx, r.Address)
			records[i] = r

			b.progress()

			return gctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("building magistrate sections: %w", err)
	}

	return records, nil
}

// BuildDistrict lists the federal courts of the region, leaving out
// magistrates.
func (b *Builder) BuildDistrict(ctx context.Context) ([]courts.Record, error) {
	entries, err := b.client.ListDistrict(ctx)
	if err != nil {
		return nil, err
	}

	kept := entries[:0]

	for _, e := range entries {
		name := strings.ToLower(e.Name)
		if strings.Contains(name, "мировой") || strings.Contains(name, "участок") {
			continue
		}

		if !strings.HasPrefix(e.Code, b.client.Region()) {
			log.Info().Str("court", e.Name).Str("code", e.Code).Msg("skipping court outside the region")

			continue
		}

		kept = append(kept, e)
	}

	b.total(len(kept))

	records := make([]courts.Record, len(kept))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.options.Workers)

	for i, e := range kept {
		g.Go(func() error {
			category := courts.DistrictCourt
			if strings.Contains(strings.ToLower(e.Name), "областной") {
				category = courts.Regional
			}

			records[i] = courts.Record{
				Name:        e.Name,
				Category:    category,
				Code:        e.Code,
				Address:     e.Address,
				Phone:       e.Phone,
				Email:       e.Email,
				Website:     e.Website,
				Coordinates: b.locate(gctx, e.Address),
			}

			b.progress()

			return gctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("building federal courts: %w", err)
	}

	return records, nil
}

// MergeByName appends to existing the fresh records whose name is not
// there yet. Existing records are left untouched.
func MergeByName(existing, fresh []courts.Record) ([]courts.Record, int) {
	names := make(map[string]struct{}, len(existing))
	for _, r := range existing {
		names[r.Name] = struct{}{}
	}

	ret := append([]courts.Record(nil), existing...)
	added := 0

	for _, r := range fresh {
		if _, ok := names[r.Name]; ok {
			continue
		}

		names[r.Name] = struct{}{}
		ret = append(ret, r)
		added++
	}

	return ret, added
}
