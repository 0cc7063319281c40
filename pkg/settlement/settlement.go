package settlement

import (
	"time"

	"github.com/google/uuid"
	"github.com/jeongsan/jeongsan/pkg/ratetable"
)

// rowNamespace makes settlement row ids a pure function of
// (educationId, instructorId, role): overrides stay attached to their row
// across recomputation passes.
var rowNamespace = uuid.MustParse("c47b5a02-7d19-4e86-b7a4-20f1d5c0a8e3")

// DistanceSource tells where a row's travel expense comes from.
type DistanceSource string

const (
	// SourceSingle means the row's travel was priced standalone
	// (home -> institution -> home on days without other visits).
	SourceSingle DistanceSource = "single"
	// SourceDaily means the row references a shared daily travel record.
	// Travel is paid once per day and attributed in full to each education of
	// that day for visibility, never divided.
	SourceDaily DistanceSource = "daily"
)

// Status marks whether a row's amounts are trustworthy.
type Status string

const (
	StatusComputed Status = "computed"
	// StatusPending marks a row whose travel amounts could not be resolved
	// (distance lookup failure or a missing daily record). Pending rows carry
	// an explicit reason instead of a wrong zero amount.
	StatusPending Status = "pending"
)

const (
	PendingReasonDistanceUnavailable = "distance unavailable"
	PendingReasonMissingDailyRecord  = "missing daily travel record"
)

// Row is the settlement of one education assignment. Computed values and
// override values live in separate fields: an override never destroys the
// computed value, so removing it reverts exactly.
type Row struct {
	Id             uuid.UUID
	EducationId    string
	EducationName  string
	InstructorId   string
	InstructorName string
	Role           ratetable.Role

	DistanceKm          float64
	DistanceSource      DistanceSource
	DailyTravelRecordId *uuid.UUID
	TravelExpense       int64

	AllowanceBase    int64
	AllowanceWeekend int64
	AllowanceExtra   *int64
	AllowanceTotal   int64

	TotalPay           int64
	IsCountingEligible bool
	Status             Status
	PendingReason      string

	DistanceKmOverride    *float64
	TravelExpenseOverride *int64
	AllowanceOverride     *int64
	OverrideReason        string
	OverrideBy            string
	OverrideAt            *time.Time
}

// RowId derives the deterministic id of an assignment's settlement row.
func RowId(educationId, instructorId string, role ratetable.Role) uuid.UUID {
	return uuid.NewSHA1(rowNamespace, []byte(educationId+"|"+instructorId+"|"+string(role)))
}

func (r Row) EffectiveTravelExpense() int64 {
	if r.TravelExpenseOverride != nil {
		return *r.TravelExpenseOverride
	}
	return r.TravelExpense
}

func (r Row) EffectiveDistanceKm() float64 {
	if r.DistanceKmOverride != nil {
		return *r.DistanceKmOverride
	}
	return r.DistanceKm
}

func (r Row) EffectiveAllowanceTotal() int64 {
	if r.AllowanceOverride != nil {
		return *r.AllowanceOverride
	}
	return r.AllowanceTotal
}
