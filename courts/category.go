// Copyright 2025 The Podsudnost Authors
// SPDX-License-Identifier: Apache-2.0

package courts

// Category is the tier of a court. The values are the terms used by the
// dataset and the registry.
type Category string

const (
	// Local is the magistrate tier ("мировой"), for small claims.
	Local Category = "мировой"
	// DistrictCourt is the district court tier ("районный").
	DistrictCourt Category = "районный"
	// Regional is only produced by the dataset builders for the regional
	// court; it is never a resolution target.
	Regional Category = "областной"
)

// DebtThreshold is the largest debt amount, in rubles, handled by a Local court.
const DebtThreshold = 50000.0

// Classify returns the court category with jurisdiction over a debt.
func Classify(debtAmount float64) Category {
	if debtAmount <= DebtThreshold {
		return Local
	}

	return DistrictCourt
}

func (c Category) String() string {
	return string(c)
}
