package settlement

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jeongsan/jeongsan/pkg/allowance"
	"github.com/jeongsan/jeongsan/pkg/assignment"
	"github.com/jeongsan/jeongsan/pkg/override"
	"github.com/jeongsan/jeongsan/pkg/ratetable"
	"github.com/jeongsan/jeongsan/pkg/travel"
	log "github.com/sirupsen/logrus"
)

// Assemble builds one settlement row per assignment from the aggregated travel
// records. Records must already carry their day-scoped overrides; row-scoped
// overrides are applied here. An invalid or missing rate table aborts the pass,
// while per-day travel gaps only mark the affected rows pending.
func Assemble(
	assignments []assignment.Assignment,
	records []travel.Record,
	tables ratetable.Provider,
	rowOverrides map[uuid.UUID]override.RowOverride,
	mode EligibilityMode,
) ([]Row, error) {
	byDay := make(map[string]travel.Record, len(records))
	for _, record := range records {
		byDay[dayKey(record.InstructorId, record.Date)] = record
	}

	rows := make([]Row, 0, len(assignments))
	for _, a := range assignments {
		table, err := tables.ForYear(a.PeriodStart.Year())
		if err != nil {
			return nil, err
		}
		breakdown, err := allowance.Compute(a, table)
		if err != nil {
			return nil, err
		}

		row := Row{
			Id:               RowId(a.EducationId, a.Instructor.Id, a.Role),
			EducationId:      a.EducationId,
			EducationName:    a.EducationName,
			InstructorId:     a.Instructor.Id,
			InstructorName:   a.Instructor.Name,
			Role:             a.Role,
			DistanceSource:   SourceSingle,
			AllowanceBase:    breakdown.Base,
			AllowanceWeekend: breakdown.Weekend,
			AllowanceExtra:   breakdown.Extra,
			AllowanceTotal:   breakdown.Total(),
		}

		// Travel is attributed in full per session day. On shared days every
		// sibling row reports the same daily amount; nothing is divided.
		for _, day := range a.SessionDays() {
			record, ok := byDay[dayKey(a.Instructor.Id, day)]
			if !ok {
				log.Errorf("no daily travel record for instructor %s on %s; settlement row %s stays pending",
					a.Instructor.Id, day.Format("2006-01-02"), row.Id)
				row.PendingReason = PendingReasonMissingDailyRecord
				continue
			}
			if record.NeedsDistance && record.TravelExpenseOverride == nil {
				if row.PendingReason == "" {
					row.PendingReason = PendingReasonDistanceUnavailable
				}
				continue
			}
			row.DistanceKm += record.EffectiveDistanceKm()
			row.TravelExpense += record.EffectiveTravelExpense()
			if record.Shared() {
				row.DistanceSource = SourceDaily
				if row.DailyTravelRecordId == nil {
					id := record.Id
					row.DailyTravelRecordId = &id
				}
			}
		}

		applyRowOverride(&row, rowOverrides)

		if row.PendingReason == PendingReasonDistanceUnavailable && row.TravelExpenseOverride != nil {
			row.PendingReason = ""
		}
		row.Status = StatusComputed
		if row.PendingReason != "" {
			row.Status = StatusPending
		}

		row.TotalPay = row.EffectiveTravelExpense() + row.EffectiveAllowanceTotal()
		row.IsCountingEligible = IsEligible(a, mode)
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].EducationId != rows[j].EducationId {
			return rows[i].EducationId < rows[j].EducationId
		}
		if rows[i].InstructorId != rows[j].InstructorId {
			return rows[i].InstructorId < rows[j].InstructorId
		}
		return rows[i].Role < rows[j].Role
	})
	return rows, nil
}

// applyRowOverride stamps a stored row override onto the freshly computed row.
// Travel fields are only honored on single-sourced rows; a row that turned
// daily-sourced since the override was written keeps the shared daily amount,
// so siblings never diverge.
func applyRowOverride(row *Row, overrides map[uuid.UUID]override.RowOverride) {
	ov, ok := overrides[row.Id]
	if !ok {
		return
	}
	applied := false
	if ov.Allowance != nil {
		row.AllowanceOverride = ov.Allowance
		applied = true
	}
	if row.DistanceSource == SourceSingle {
		if ov.DistanceKm != nil {
			row.DistanceKmOverride = ov.DistanceKm
			applied = true
		}
		if ov.TravelExpense != nil {
			row.TravelExpenseOverride = ov.TravelExpense
			applied = true
		}
	}
	if applied {
		row.OverrideReason = ov.Reason
		row.OverrideBy = ov.By
		at := ov.At
		row.OverrideAt = &at
	}
}

func dayKey(instructorId string, date time.Time) string {
	return instructorId + "|" + date.Format("2006-01-02")
}
