package allowance

import (
	"github.com/jeongsan/jeongsan/pkg/assignment"
	"github.com/jeongsan/jeongsan/pkg/ratetable"
)

// Breakdown is the allowance of one education assignment. Extra is nil when
// the assignment does not qualify: its presence signals eligibility, distinct
// from a zero-value weekend allowance which is always present.
type Breakdown struct {
	Base    int64
	Weekend int64
	Extra   *int64
}

// Total returns base + weekend + (extra ?? 0).
func (b Breakdown) Total() int64 {
	total := b.Base + b.Weekend
	if b.Extra != nil {
		total += *b.Extra
	}
	return total
}

// Compute calculates the allowance components for one assignment from the
// given year's rate table.
//
// base    = totalSessions x sessionRate(role, institution category)
// weekend = weekend session count x weekend session rate
// extra   = totalSessions x extra session rate, only for an unassisted main
//           instructor whose class reaches the student threshold
func Compute(a assignment.Assignment, rt ratetable.RateTable) (Breakdown, error) {
	sessionRate, err := rt.SessionRate(a.Role, a.Institution.Category)
	if err != nil {
		return Breakdown{}, err
	}

	breakdown := Breakdown{
		Base:    int64(a.TotalSessions) * sessionRate,
		Weekend: int64(a.WeekendSessionCount()) * rt.WeekendSessionRate,
	}

	if a.Role == ratetable.RoleMain && a.StudentCount >= rt.ExtraAllowance.StudentThreshold && !a.HasAssistant {
		extra := int64(a.TotalSessions) * rt.ExtraAllowance.SessionRate
		breakdown.Extra = &extra
	}

	return breakdown, nil
}
