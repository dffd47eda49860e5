// Copyright 2025 The Podsudnost Authors
// SPDX-License-Identifier: Apache-2.0

package courts

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/podsudnost/podsudnost/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestDataset(t *testing.T) *Dataset {
	t.Helper()

	d, err := LoadFile("testdata/courts.json")
	require.NoError(t, err)

	return d
}

func TestLoadFile(t *testing.T) {
	d := loadTestDataset(t)
	require.Equal(t, 5, d.Len())

	records := d.Records()

	expected := Record{
		Name:             "Судебный участок № 1 Азовского судебного района",
		Category:         Local,
		Code:             "61MS0001",
		Address:          "г. Азов, ул. Мира, 5",
		Phone:            "8 (86342) 4-00-01",
		Email:            "azov1@mirsud.ru",
		Website:          "https://azov1.ros.msudrf.ru",
		Coordinates:      &spatial.Point{Lat: 47.1121, Lng: 39.4232},
		ElectronicFiling: FilingYes,
	}
	if diff := cmp.Diff(expected, records[0]); diff != "" {
		t.Errorf("unexpected first record (-want +got):\n%s", diff)
	}

	// null coordinates are absent, unknown filing strings are unknown
	assert.Nil(t, records[1].Coordinates)
	assert.Equal(t, FilingUnknown, records[1].ElectronicFiling)

	// flat coordinates and explicit type
	assert.Equal(t, DistrictCourt, records[2].Category)
	assert.Equal(t, &spatial.Point{Lat: 47.1080, Lng: 39.4190}, records[2].Coordinates)
	assert.Equal(t, FilingNo, records[2].ElectronicFiling)

	// derived from the name
	assert.Equal(t, Local, records[3].Category)

	// explicit types are lowercased
	assert.Equal(t, Regional, records[4].Category)
}

func TestLoadWrappedObject(t *testing.T) {
	d, err := Load(strings.NewReader(`{"courts": [{"name": "Аксайский районный суд", "address": "г. Аксай"}]}`))
	require.NoError(t, err)
	require.Equal(t, 1, d.Len())
	assert.Equal(t, DistrictCourt, d.Records()[0].Category)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		input    string
		expected error
	}{
		{`[]`, ErrEmptyDataset},
		{`{"courts": []}`, ErrEmptyDataset},
		{`[{"address": "без имени"}]`, ErrInvalidRecord},
	}

	for _, test := range tests {
		_, err := Load(strings.NewReader(test.input))
		if !errors.Is(err, test.expected) {
			t.Errorf("%s: expected %v got %v", test.input, test.expected, err)
		}
	}

	_, err := Load(strings.NewReader(`not json`))
	assert.Error(t, err)

	_, err = LoadFile("testdata/missing.json")
	assert.Error(t, err)
}

func TestLoadDropsInvalidCoordinates(t *testing.T) {
	d, err := Load(strings.NewReader(`[
		{"name": "Азовский городской суд", "latitude": 147.1, "longitude": 39.4},
		{"name": "Аксайский районный суд", "latitude": 47.26, "longitude": 39.87}
	]`))
	require.NoError(t, err)

	records := d.Records()
	assert.Nil(t, records[0].Coordinates)
	assert.Equal(t, &spatial.Point{Lat: 47.26, Lng: 39.87}, records[1].Coordinates)
}

func TestLoadDropsInvalidPolygon(t *testing.T) {
	d, err := NewDataset([]Record{
		{Name: "Сальский районный суд", Category: DistrictCourt, Polygon: "POLYGON((1 2))"},
		{
			Name:     "Азовский районный суд",
			Category: DistrictCourt,
			Polygon:  "MULTIPOLYGON(((39 47, 40 47, 40 47.5, 39 47.5, 39 47)))",
		},
	})
	require.NoError(t, err)
	require.Equal(t, 2, d.Len())

	assert.Empty(t, d.Records()[0].Polygon)

	r, err := d.FindByBoundary(context.Background(), spatial.Point{Lat: 47.2, Lng: 39.5}, DistrictCourt)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "Азовский районный суд", r.Name)
}

func TestNearest(t *testing.T) {
	d := loadTestDataset(t)

	// Next to the Leninsky section in Rostov
	r, dist, ok := d.Nearest(spatial.Point{Lat: 47.2251, Lng: 39.7101}, Local)
	require.True(t, ok)
	assert.Equal(t, "Судебный участок № 3 Ленинского судебного района г. Ростова-на-Дону", r.Name)
	assert.Less(t, dist, 100.0)

	// Only one district court has coordinates
	r, _, ok = d.Nearest(spatial.Point{Lat: 47.2251, Lng: 39.7101}, DistrictCourt)
	require.True(t, ok)
	assert.Equal(t, "Азовский городской суд", r.Name)

	_, _, ok = d.Nearest(spatial.Point{Lat: 47.2251, Lng: 39.7101}, Category("арбитражный"))
	assert.False(t, ok)
}

func TestNearestTieKeepsLoadOrder(t *testing.T) {
	p := &spatial.Point{Lat: 47, Lng: 39}

	d, err := NewDataset([]Record{
		{Name: "Судебный участок А", Address: "a", Coordinates: p},
		{Name: "Судебный участок Б", Address: "b", Coordinates: p},
	})
	require.NoError(t, err)

	r, _, ok := d.Nearest(spatial.Point{Lat: 47.1, Lng: 39.1}, Local)
	require.True(t, ok)
	assert.Equal(t, "Судебный участок А", r.Name)
}

func TestRecordsAreImmutable(t *testing.T) {
	d := loadTestDataset(t)

	r, ok := d.FindByName("Судебный участок № 1 Азовского судебного района")
	require.True(t, ok)

	r.Name = "changed"
	r.Coordinates.Lat = 0

	again, ok := d.FindByName("Судебный участок № 1 Азовского судебного района")
	require.True(t, ok)
	assert.InDelta(t, 47.1121, again.Coordinates.Lat, 1e-9)

	_, ok = d.FindByName("Несуществующий суд")
	assert.False(t, ok)
}

func TestFirstInDistrict(t *testing.T) {
	d := loadTestDataset(t)
	catalog := RostovCatalog()
	azov := catalog.DistrictOf("Азовский район")

	r, ok := d.FirstInDistrict(catalog, azov, Local)
	require.True(t, ok)
	assert.Equal(t, "Судебный участок № 1 Азовского судебного района", r.Name)

	r, ok = d.FirstInDistrict(catalog, azov, DistrictCourt)
	require.True(t, ok)
	assert.Equal(t, "Азовский городской суд", r.Name)

	_, ok = d.FirstInDistrict(catalog, UnknownDistrict, Local)
	assert.False(t, ok)
}

func TestFindByBoundary(t *testing.T) {
	d := loadTestDataset(t)

	r, err := d.FindByBoundary(context.Background(), spatial.Point{Lat: 47.2, Lng: 39.5}, DistrictCourt)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "Азовский городской суд", r.Name)

	r, err = d.FindByBoundary(context.Background(), spatial.Point{Lat: 47.2, Lng: 39.5}, Local)
	require.NoError(t, err)
	assert.Nil(t, r)

	r, err = d.FindByBoundary(context.Background(), spatial.Point{Lat: 48, Lng: 39.5}, DistrictCourt)
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestWriteRecordsReadsBack(t *testing.T) {
	d := loadTestDataset(t)

	var buf bytes.Buffer
	require.NoError(t, WriteRecords(&buf, d.Records()))

	got, err := ReadRecords(&buf)
	require.NoError(t, err)

	if diff := cmp.Diff(d.Records(), got); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}
