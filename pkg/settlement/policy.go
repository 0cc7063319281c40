package settlement

import (
	"fmt"

	"github.com/jeongsan/jeongsan/pkg/assignment"
)

// EligibilityMode decides which rows count toward official settlement totals.
// It is an orthogonal tag: switching modes retags rows but never changes a
// monetary value.
type EligibilityMode string

const (
	// ModeOnlyConfirmedEnded counts rows of confirmed or ended educations only.
	ModeOnlyConfirmedEnded EligibilityMode = "ONLY_CONFIRMED_ENDED"
	// ModeCountIfAssigned counts every row with an assigned instructor,
	// regardless of education status.
	ModeCountIfAssigned EligibilityMode = "COUNT_IF_ASSIGNED"
)

func ParseEligibilityMode(s string) (EligibilityMode, error) {
	switch EligibilityMode(s) {
	case ModeOnlyConfirmedEnded, ModeCountIfAssigned:
		return EligibilityMode(s), nil
	}
	return "", fmt.Errorf("unknown eligibility mode %q", s)
}

// IsEligible applies the active counting policy to one assignment.
func IsEligible(a assignment.Assignment, mode EligibilityMode) bool {
	switch mode {
	case ModeOnlyConfirmedEnded:
		return a.Status == assignment.StatusConfirmed || a.Status == assignment.StatusEnded
	case ModeCountIfAssigned:
		return a.Instructor.Id != ""
	}
	return false
}
