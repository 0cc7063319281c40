package travel

import (
	"time"

	"github.com/google/uuid"
)

// recordNamespace makes daily travel record ids a pure function of
// (instructorId, date), so recomputation reproduces the same ids and
// day-scoped overrides keep matching their record.
var recordNamespace = uuid.MustParse("8f2f6f9e-58a1-44c3-9d14-3b7c1a5e9b21")

// Stop is one institution visited during a day's itinerary.
type Stop struct {
	EducationId        string
	EducationName      string
	InstitutionName    string
	InstitutionAddress string
}

// Record is the single priced round-trip itinerary of one instructor on one
// calendar date, shared by every education visited that day. Records are
// superseded wholesale on recomputation; only override fields survive by key.
type Record struct {
	Id           uuid.UUID
	InstructorId string
	Date         time.Time
	// Stops are ordered by route visiting order.
	Stops           []Stop
	TotalDistanceKm float64
	TravelExpense   int64
	// NeedsDistance marks a day whose route lookup failed; the expense is not
	// a real zero and dependent settlement rows stay pending.
	NeedsDistance bool
	RouteMapUrl   string

	DistanceKmOverride    *float64
	TravelExpenseOverride *int64
	OverrideReason        string
	OverrideBy            string
	OverrideAt            *time.Time
}

// RecordId derives the deterministic id for an (instructor, date) pair.
func RecordId(instructorId string, date time.Time) uuid.UUID {
	return uuid.NewSHA1(recordNamespace, []byte(instructorId+"|"+date.Format("2006-01-02")))
}

// Shared reports whether more than one education was visited that day.
func (r Record) Shared() bool {
	return len(r.Stops) > 1
}

func (r Record) EffectiveDistanceKm() float64 {
	if r.DistanceKmOverride != nil {
		return *r.DistanceKmOverride
	}
	return r.TotalDistanceKm
}

func (r Record) EffectiveTravelExpense() int64 {
	if r.TravelExpenseOverride != nil {
		return *r.TravelExpenseOverride
	}
	return r.TravelExpense
}
