package override

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Field names one overridable value. Overrides are stored per field so
// concurrent writes resolve last-write-wins at field granularity.
type Field string

const (
	FieldDistanceKm    Field = "distanceKm"
	FieldTravelExpense Field = "travelExpense"
	FieldAllowance     Field = "allowance"
)

// Entry is one audited correction to a single field.
type Entry struct {
	Field  Field
	Value  float64
	Reason string
	By     string
	At     time.Time
}

// RowOverride aggregates the field entries of one settlement row. Reason, By
// and At reflect the most recent entry.
type RowOverride struct {
	RowId         uuid.UUID
	DistanceKm    *float64
	TravelExpense *int64
	Allowance     *int64
	Reason        string
	By            string
	At            time.Time
}

// DayOverride aggregates the field entries of one daily travel record,
// affecting every settlement row that shares the day.
type DayOverride struct {
	InstructorId  string
	Date          time.Time
	DistanceKm    *float64
	TravelExpense *int64
	Reason        string
	By            string
	At            time.Time
}

// DayKey identifies a day-scoped override target.
type DayKey struct {
	InstructorId string
	Date         string
}

func NewDayKey(instructorId string, date time.Time) DayKey {
	return DayKey{InstructorId: instructorId, Date: date.Format("2006-01-02")}
}

// RowPatch carries the fields of a row-level override request. Nil fields are
// left untouched.
type RowPatch struct {
	DistanceKm    *float64
	TravelExpense *int64
	Allowance     *int64
}

func (p RowPatch) Empty() bool {
	return p.DistanceKm == nil && p.TravelExpense == nil && p.Allowance == nil
}

// TouchesTravel reports whether the patch changes travel fields, which are
// day-scoped for rows priced from a shared daily record.
func (p RowPatch) TouchesTravel() bool {
	return p.DistanceKm != nil || p.TravelExpense != nil
}

// DayPatch carries the fields of a day-level override request.
type DayPatch struct {
	DistanceKm    *float64
	TravelExpense *int64
}

func (p DayPatch) Empty() bool {
	return p.DistanceKm == nil && p.TravelExpense == nil
}

// ErrReasonRequired rejects overrides without an audit reason.
var ErrReasonRequired = errors.New("override reason is required")

// ErrRowNotFound rejects overrides against rows the engine has not produced.
var ErrRowNotFound = errors.New("settlement row not found")

// ScopeConflictError rejects a row-level override of travel fields on a row
// whose travel expense is sourced from a shared daily record. One trip has one
// price: the correction belongs on the daily record.
type ScopeConflictError struct {
	RowId uuid.UUID
}

func (e *ScopeConflictError) Error() string {
	return fmt.Sprintf("row %s sources its travel expense from a shared daily travel record; "+
		"override the daily record (day-level API) instead", e.RowId)
}

// StaleWriteError signals an optimistic-concurrency failure: the override
// changed since the caller last read it. The caller must refetch and retry.
type StaleWriteError struct {
	CurrentAt time.Time
}

func (e *StaleWriteError) Error() string {
	return fmt.Sprintf("override was modified at %s since it was read; refetch and retry", e.CurrentAt.Format(time.RFC3339))
}
