package ratetable

import (
	"fmt"
)

// Role is the capacity in which an instructor is assigned to an education.
type Role string

const (
	RoleMain      Role = "main"
	RoleAssistant Role = "assistant"
)

// Category classifies the institution hosting an education.
type Category string

const (
	CategoryElementary Category = "ELEMENTARY"
	CategoryMiddle     Category = "MIDDLE"
	CategoryHigh       Category = "HIGH"
	CategorySpecial    Category = "SPECIAL"
	CategoryIsland     Category = "ISLAND"
	CategoryGeneral    Category = "GENERAL"
)

// AllRoles and AllCategories drive rate table completeness validation.
var AllRoles = []Role{RoleMain, RoleAssistant}
var AllCategories = []Category{CategoryElementary, CategoryMiddle, CategoryHigh, CategorySpecial, CategoryIsland, CategoryGeneral}

// DistanceTier prices a round-trip whose total distance falls in [MinKm, MaxKm).
// The last tier of a table has MaxKm == nil and is open-ended.
type DistanceTier struct {
	MinKm  float64  `koanf:"minkm"`
	MaxKm  *float64 `koanf:"maxkm"`
	Amount int64    `koanf:"amount"`
}

// ExtraAllowance is paid per session to an unassisted main instructor once the
// student count reaches the threshold.
type ExtraAllowance struct {
	StudentThreshold int   `koanf:"studentthreshold"`
	SessionRate      int64 `koanf:"sessionrate"`
}

// RateTable is the per-year pricing configuration. Immutable once loaded.
type RateTable struct {
	Year               int                         `koanf:"year"`
	DistanceTiers      []DistanceTier              `koanf:"distancetiers"`
	SessionRates       map[Role]map[Category]int64 `koanf:"sessionrates"`
	WeekendSessionRate int64                       `koanf:"weekendsessionrate"`
	ExtraAllowance     ExtraAllowance              `koanf:"extraallowance"`
}

// InvalidRateTableError marks a rate table that must not be used for a
// settlement pass. Configuration errors are fatal: partial settlement data is
// worse than none.
type InvalidRateTableError struct {
	Year   int
	Reason string
}

func (e *InvalidRateTableError) Error() string {
	return fmt.Sprintf("invalid rate table for year %d: %s", e.Year, e.Reason)
}

// Validate checks that the distance tiers cover [0, inf) without gaps or
// overlaps and that every (role, category) pair has a session rate.
func (rt RateTable) Validate() error {
	if len(rt.DistanceTiers) == 0 {
		return &InvalidRateTableError{rt.Year, "no distance tiers"}
	}
	if rt.DistanceTiers[0].MinKm != 0 {
		return &InvalidRateTableError{rt.Year, fmt.Sprintf("first distance tier starts at %.2f km, expected 0", rt.DistanceTiers[0].MinKm)}
	}
	for i, tier := range rt.DistanceTiers {
		last := i == len(rt.DistanceTiers)-1
		if last {
			if tier.MaxKm != nil {
				return &InvalidRateTableError{rt.Year, "last distance tier must be open-ended"}
			}
			continue
		}
		if tier.MaxKm == nil {
			return &InvalidRateTableError{rt.Year, fmt.Sprintf("distance tier %d is open-ended but not last", i)}
		}
		if *tier.MaxKm <= tier.MinKm {
			return &InvalidRateTableError{rt.Year, fmt.Sprintf("distance tier %d has maxKm %.2f <= minKm %.2f", i, *tier.MaxKm, tier.MinKm)}
		}
		if next := rt.DistanceTiers[i+1]; next.MinKm != *tier.MaxKm {
			return &InvalidRateTableError{rt.Year, fmt.Sprintf("distance tiers %d and %d are not contiguous (%.2f != %.2f)", i, i+1, *tier.MaxKm, next.MinKm)}
		}
	}
	for _, role := range AllRoles {
		rates, ok := rt.SessionRates[role]
		if !ok {
			return &InvalidRateTableError{rt.Year, fmt.Sprintf("missing session rates for role %q", role)}
		}
		for _, category := range AllCategories {
			if _, ok := rates[category]; !ok {
				return &InvalidRateTableError{rt.Year, fmt.Sprintf("missing session rate for role %q, category %q", role, category)}
			}
		}
	}
	if rt.WeekendSessionRate < 0 {
		return &InvalidRateTableError{rt.Year, "negative weekend session rate"}
	}
	if rt.ExtraAllowance.StudentThreshold <= 0 {
		return &InvalidRateTableError{rt.Year, "extra allowance student threshold must be positive"}
	}
	return nil
}

// TravelExpense returns the tier amount for the given round-trip distance.
// The table must have passed Validate; a distance no tier covers is still
// reported as a configuration error rather than silently priced at zero.
func (rt RateTable) TravelExpense(distanceKm float64) (int64, error) {
	if distanceKm < 0 {
		return 0, fmt.Errorf("negative distance: %.2f km", distanceKm)
	}
	for _, tier := range rt.DistanceTiers {
		if distanceKm < tier.MinKm {
			break
		}
		if tier.MaxKm == nil || distanceKm < *tier.MaxKm {
			return tier.Amount, nil
		}
	}
	return 0, &InvalidRateTableError{rt.Year, fmt.Sprintf("no distance tier covers %.2f km", distanceKm)}
}

// SessionRate returns the per-session rate for the given role and institution category.
func (rt RateTable) SessionRate(role Role, category Category) (int64, error) {
	rates, ok := rt.SessionRates[role]
	if !ok {
		return 0, &InvalidRateTableError{rt.Year, fmt.Sprintf("missing session rates for role %q", role)}
	}
	rate, ok := rates[category]
	if !ok {
		return 0, &InvalidRateTableError{rt.Year, fmt.Sprintf("missing session rate for role %q, category %q", role, category)}
	}
	return rate, nil
}
