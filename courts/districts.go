// Copyright 2025 The Podsudnost Authors
// SPDX-License-Identifier: Apache-2.0

package courts

import "strings"

// District is an administrative district of the region.
type District struct {
	// Nominative is the canonical form, e.g. "Азовский".
	Nominative string
	// Genitive is the form embedded in court names, e.g. "Азовского".
	Genitive string
}

// UnknownDistrict is returned when an address matches no known district.
var UnknownDistrict = District{Nominative: "Неизвестный", Genitive: "Неизвестного"}

// Equal compares districts by their nominative form, ignoring case.
func (d District) Equal(o District) bool {
	return NormalizeText(d.Nominative) == NormalizeText(o.Nominative)
}

// IsUnknown reports whether d is the UnknownDistrict sentinel.
func (d District) IsUnknown() bool {
	return d.Equal(UnknownDistrict)
}

func (d District) String() string {
	return d.Nominative
}

// rostovDistricts lists the districts of Rostov oblast followed by the city
// districts of Rostov-on-Don. Order matters: several names collide (e.g.
// Октябрьский is both a rural and a city district) and the first match wins.
var rostovDistricts = []District{
	{"Азовский", "Азовского"},
	{"Аксайский", "Аксайского"},
	{"Багаевский", "Багаевского"},
	{"Белокалитвинский", "Белокалитвинского"},
	{"Боковский", "Боковского"},
	{"Верхнедонской", "Верхнедонского"},
	{"Весёловский", "Весёловского"},
	{"Волгодонской", "Волгодонского"},
	{"Дубовский", "Дубовского"},
	{"Егорлыкский", "Егорлыкского"},
	{"Заветинский", "Заветинского"},
	{"Зерноградский", "Зерноградского"},
	{"Зимовниковский", "Зимовниковского"},
	{"Кагальницкий", "Кагальницкого"},
	{"Каменский", "Каменского"},
	{"Кашарский", "Кашарского"},
	{"Константиновский", "Константиновского"},
	{"Красносулинский", "Красносулинского"},
	{"Куйбышевский", "Куйбышевского"},
	{"Мартыновский", "Мартыновского"},
	{"Матвеево-Курганский", "Матвеево-Курганского"},
	{"Миллеровский", "Миллеровского"},
	{"Милютинский", "Милютинского"},
	{"Морозовский", "Морозовского"},
	{"Мясниковский", "Мясниковского"},
	{"Неклиновский", "Неклиновского"},
	{"Обливский", "Обливского"},
	{"Октябрьский", "Октябрьского"},
	{"Орловский", "Орловского"},
	{"Песчанокопский", "Песчанокопского"},
	{"Пролетарский", "Пролетарского"},
	{"Ремонтненский", "Ремонтненского"},
	{"Родионово-Несветайский", "Родионово-Несветайского"},
	{"Сальский", "Сальского"},
	{"Семикаракорский", "Семикаракорского"},
	{"Советский", "Советского"},
	{"Тарасовский", "Тарасовского"},
	{"Тацинский", "Тацинского"},
	{"Усть-Донецкий", "Усть-Донецкого"},
	{"Целинский", "Целинского"},
	{"Цимлянский", "Цимлянского"},
	{"Чертковский", "Чертковского"},
	{"Шолоховский", "Шолоховского"},
	{"Ворошиловский", "Ворошиловского"},
	{"Ленинский", "Ленинского"},
	{"Кировский", "Кировского"},
	{"Железнодорожный", "Железнодорожного"},
	{"Октябрьский", "Октябрьского"},
	{"Первомайский", "Первомайского"},
	{"Пролетарский", "Пролетарского"},
	{"Советский", "Советского"},
}

type catalogEntry struct {
	district   District
	nominative string
	genitive   string
}

// Catalog resolves district names inside free text. It scans its districts in
// declaration order and returns the first match.
type Catalog struct {
	entries []catalogEntry
}

// NewCatalog builds a catalog preserving the order of districts.
func NewCatalog(districts []District) *Catalog {
	c := &Catalog{entries: make([]catalogEntry, 0, len(districts))}
	for _, d := range districts {
		c.entries = append(c.entries, catalogEntry{
			district:   d,
			nominative: NormalizeText(d.Nominative),
			genitive:   NormalizeText(d.Genitive),
		})
	}

	return c
}

// RostovCatalog returns the catalog of Rostov oblast.
func RostovCatalog() *Catalog {
	return NewCatalog(rostovDistricts)
}

// DistrictOf returns the first district whose nominative form appears in the
// address, or UnknownDistrict.
func (c *Catalog) DistrictOf(address string) District {
	text := NormalizeText(address)
	for _, e := range c.entries {
		if strings.Contains(text, e.nominative) {
			return e.district
		}
	}

	return UnknownDistrict
}

// DistrictOfCourtName returns the first district whose nominative or genitive
// form appears in the court name.
func (c *Catalog) DistrictOfCourtName(name string) (District, bool) {
	text := NormalizeText(name)
	for _, e := range c.entries {
		if strings.Contains(text, e.nominative) || strings.Contains(text, e.genitive) {
			return e.district, true
		}
	}

	return District{}, false
}
