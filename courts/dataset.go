// Copyright 2025 The Podsudnost Authors
// SPDX-License-Identifier: Apache-2.0

package courts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/podsudnost/podsudnost/spatial"
	"github.com/rs/zerolog/log"
)

// Errors returned while loading a dataset.
var (
	ErrEmptyDataset  = errors.New("courts: dataset is empty")
	ErrInvalidRecord = errors.New("courts: invalid record")
)

// Dataset is the immutable collection of known courts, in load order. It is
// safe for concurrent use because nothing mutates it after construction.
type Dataset struct {
	records  []Record
	byName   map[string]int
	polygons []spatial.Polygon
}

// NewDataset validates and normalizes records into a Dataset. Records keep
// their order: every "first match" lookup depends on it.
func NewDataset(records []Record) (*Dataset, error) {
	if len(records) == 0 {
		return nil, ErrEmptyDataset
	}

	d := &Dataset{
		records:  make([]Record, 0, len(records)),
		byName:   make(map[string]int, len(records)),
		polygons: make([]spatial.Polygon, 0, len(records)),
	}

	for i := range records {
		r := records[i].Clone()

		r.Name = strings.TrimSpace(r.Name)
		if r.Name == "" {
			return nil, fmt.Errorf("%w: record %d has no name", ErrInvalidRecord, i)
		}

		r.Category = Category(strings.ToLower(strings.TrimSpace(string(r.Category))))
		if r.Category == "" {
			r.Category = CategoryOfName(r.Name)
		}

		if r.HasCoordinates() {
			if err := r.Coordinates.Validate(); err != nil {
				log.Warn().Err(err).Str("court", r.Name).Msg("ignoring court coordinates")

				r.Coordinates = nil
			}
		}

		if !r.HasCoordinates() {
			log.Warn().Str("court", r.Name).Msg("court has no coordinates")
		}

		poly, err := spatial.ParsePolygon(r.Polygon)
		if err != nil {
			log.Warn().Err(err).Str("court", r.Name).Msg("ignoring court territory")

			r.Polygon = ""
		}

		// first occurrence wins for exact name lookups
		if _, ok := d.byName[r.Name]; !ok {
			d.byName[r.Name] = len(d.records)
		}

		d.records = append(d.records, *r)
		d.polygons = append(d.polygons, poly)
	}

	return d, nil
}

// ReadRecords decodes courts encoded either as a JSON array or as an object
// with a "courts" array, without validating them.
func ReadRecords(r io.Reader) ([]Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}

	var records []Record

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		var wrapper struct {
			Courts []Record `json:"courts"`
		}

		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil, fmt.Errorf("decoding dataset: %w", err)
		}

		records = wrapper.Courts
	} else if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decoding dataset: %w", err)
	}

	return records, nil
}

// WriteRecords encodes records as an indented JSON array.
func WriteRecords(w io.Writer, records []Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")

	if records == nil {
		records = []Record{}
	}

	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encoding dataset: %w", err)
	}

	return nil
}

// Load reads and validates a dataset. See ReadRecords for the accepted
// encodings.
func Load(r io.Reader) (*Dataset, error) {
	records, err := ReadRecords(r)
	if err != nil {
		return nil, err
	}

	return NewDataset(records)
}

// LoadFile loads the dataset stored at path.
func LoadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	d, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	log.Info().Str("path", path).Int("courts", d.Len()).Msg("dataset loaded")

	return d, nil
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return len(d.records)
}

// Records returns a copy of every record in load order.
func (d *Dataset) Records() []Record {
	ret := make([]Record, len(d.records))
	for i := range d.records {
		ret[i] = *d.records[i].Clone()
	}

	return ret
}

// Nearest returns the closest court of the category that has coordinates, and
// its distance in meters. On ties the first record in load order wins.
func (d *Dataset) Nearest(p spatial.Point, c Category) (*Record, float64, bool) {
	best, bestDist := -1, math.Inf(1)

	for i := range d.records {
		r := &d.records[i]
		if !r.HasCoordinates() || r.Category != c {
			continue
		}

		if dist := p.HaversineDistance(r.Coordinates); dist < bestDist {
			best, bestDist = i, dist
		}
	}

	if best < 0 {
		return nil, 0, false
	}

	return d.records[best].Clone(), bestDist, true
}

// Locate adapts Nearest to the lookup signature shared with Repository.
func (d *Dataset) Locate(_ context.Context, p spatial.Point, c Category) (*Record, error) {
	r, dist, ok := d.Nearest(p, c)
	if !ok {
		return nil, nil
	}

	log.Debug().Str("court", r.Name).Float64("distance_km", dist/1000).Msg("nearest court")

	return r, nil
}

// FindByName looks a court up by its exact name.
func (d *Dataset) FindByName(name string) (*Record, bool) {
	i, ok := d.byName[strings.TrimSpace(name)]
	if !ok {
		return nil, false
	}

	return d.records[i].Clone(), true
}

// FirstInDistrict returns the first court, in load order, whose name places it
// in the district and that serves the category.
func (d *Dataset) FirstInDistrict(catalog *Catalog, district District, c Category) (*Record, bool) {
	for i := range d.records {
		r := &d.records[i]

		rd, ok := catalog.DistrictOfCourtName(r.Name)
		if !ok || !rd.Equal(district) {
			continue
		}

		if r.MatchesCategory(c) {
			return r.Clone(), true
		}
	}

	return nil, false
}

// FindByBoundary returns the first court of the category whose territory
// polygon contains the point. Records without a polygon never match.
func (d *Dataset) FindByBoundary(_ context.Context, p spatial.Point, c Category) (*Record, error) {
	for i, poly := range d.polygons {
		if poly == nil || d.records[i].Category != c {
			continue
		}

		if poly.Contains(p) {
			return d.records[i].Clone(), nil
		}
	}

	return nil, nil
}
