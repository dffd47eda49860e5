// Copyright 2025 The Podsudnost Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import "slices"

// CaseTypes lists the case types known to the service. Others are accepted
// as well; the case type does not take part in the resolution.
var CaseTypes = []string{
	"имущественный_спор",
	"расторжение_брака",
	"алименты",
	"раздел_имущества",
}

// IsKnownCaseType reports whether t is one of CaseTypes.
func IsKnownCaseType(t string) bool {
	return slices.Contains(CaseTypes, t)
}
