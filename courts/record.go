// Copyright 2025 The Podsudnost Authors
// SPDX-License-Identifier: Apache-2.0

package courts

import (
	"encoding/json"
	"fmt"

	"github.com/podsudnost/podsudnost/spatial"
)

// ElectronicFiling tells whether a court accepts filings through its website.
type ElectronicFiling int

const (
	// FilingUnknown is the default when the website was never checked.
	FilingUnknown ElectronicFiling = iota
	// FilingYes means the court site links to its electronic reception.
	FilingYes
	// FilingNo means the court site was reached and has no such link.
	FilingNo
)

func (f ElectronicFiling) String() string {
	switch f {
	case FilingYes:
		return "да"
	case FilingNo:
		return "нет"
	default:
		return "неизвестно"
	}
}

// ParseElectronicFiling accepts the values written by the dataset builders.
// Anything unrecognised, such as "Не указана", is unknown.
func ParseElectronicFiling(s string) ElectronicFiling {
	switch NormalizeText(s) {
	case "да", "yes", "true":
		return FilingYes
	case "нет", "no", "false":
		return FilingNo
	default:
		return FilingUnknown
	}
}

// MarshalJSON implements json.Marshaler.
func (f ElectronicFiling) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *ElectronicFiling) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("electronic_filing: %w", err)
	}

	*f = ParseElectronicFiling(s)

	return nil
}

// Record is a single physical court.
type Record struct {
	Name             string           `json:"name"`
	Category         Category         `json:"type"`
	Code             string           `json:"code,omitempty"`
	Address          string           `json:"address"`
	Phone            string           `json:"phone,omitempty"`
	Email            string           `json:"email,omitempty"`
	Website          string           `json:"website,omitempty"`
	Coordinates      *spatial.Point   `json:"coordinates,omitempty"`
	ElectronicFiling ElectronicFiling `json:"electronic_filing"`
	Territory        string           `json:"territory,omitempty"`
	Polygon          string           `json:"polygon,omitempty"`
}

// The dataset files come in two shapes: coordinates nested as
// {"coordinates": {"lat", "lon"}} or flat "latitude"/"longitude" keys, and
// either may hold nulls when geocoding failed.
type recordJSON struct {
	Name             string            `json:"name"`
	Type             Category          `json:"type"`
	Code             string            `json:"code"`
	Address          string            `json:"address"`
	Phone            string            `json:"phone"`
	Email            string            `json:"email"`
	Website          string            `json:"website"`
	Coordinates      *nullableLatLon   `json:"coordinates"`
	Latitude         *float64          `json:"latitude"`
	Longitude        *float64          `json:"longitude"`
	ElectronicFiling *ElectronicFiling `json:"electronic_filing"`
	Territory        string            `json:"territory"`
	Polygon          string            `json:"polygon"`
}

type nullableLatLon struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw recordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = Record{
		Name:      raw.Name,
		Category:  raw.Type,
		Code:      raw.Code,
		Address:   raw.Address,
		Phone:     raw.Phone,
		Email:     raw.Email,
		Website:   raw.Website,
		Territory: raw.Territory,
		Polygon:   raw.Polygon,
	}

	if raw.ElectronicFiling != nil {
		r.ElectronicFiling = *raw.ElectronicFiling
	}

	switch {
	case raw.Coordinates != nil && raw.Coordinates.Lat != nil && raw.Coordinates.Lon != nil:
		r.Coordinates = &spatial.Point{Lat: *raw.Coordinates.Lat, Lng: *raw.Coordinates.Lon}
	case raw.Latitude != nil && raw.Longitude != nil:
		r.Coordinates = &spatial.Point{Lat: *raw.Latitude, Lng: *raw.Longitude}
	}

	return nil
}

// HasCoordinates reports whether the record can take part in geo lookups.
func (r *Record) HasCoordinates() bool {
	return r.Coordinates != nil
}

// MatchesCategory tells whether the record serves the category. Magistrate
// sections are recognised by name, district courts by their category.
func (r *Record) MatchesCategory(c Category) bool {
	switch c {
	case Local:
		return IsLocalName(r.Name)
	case DistrictCourt:
		return r.Category == DistrictCourt
	default:
		return r.Category == c
	}
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	c := *r
	if r.Coordinates != nil {
		p := *r.Coordinates
		c.Coordinates = &p
	}

	return &c
}
