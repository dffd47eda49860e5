// Copyright 2025 The Podsudnost Authors
// SPDX-License-Identifier: Apache-2.0

package courts

import "strings"

// Lexical markers found in court names.
var (
	localMarker    = NormalizeText("Судебный участок")
	districtMarker = NormalizeText("районный суд")
)

// IsLocalName reports whether a court name designates a magistrate section.
func IsLocalName(name string) bool {
	return strings.Contains(NormalizeText(name), localMarker)
}

// IsDistrictCourtName reports whether a court name designates a district court.
func IsDistrictCourtName(name string) bool {
	return strings.Contains(NormalizeText(name), districtMarker)
}

// CategoryOfName infers the category of a court from its name alone.
func CategoryOfName(name string) Category {
	if IsLocalName(name) {
		return Local
	}

	return DistrictCourt
}

// NameMatchesCategory reports whether the name lexically marks a court of the
// given category. Registry results carry nothing but a name, so this is the
// only signal available for them.
func NameMatchesCategory(name string, c Category) bool {
	switch c {
	case Local:
		return IsLocalName(name)
	case DistrictCourt:
		return IsDistrictCourtName(name)
	default:
		return false
	}
}
