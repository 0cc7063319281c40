package settlement

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jeongsan/jeongsan/pkg/ratetable"
	log "github.com/sirupsen/logrus"
)

// Filter narrows a settlement row listing.
type Filter struct {
	InstructorId string
	EducationId  string
	EligibleOnly bool
}

type Repository interface {
	ReplaceAll(ctx context.Context, rows []Row) error
	GetAll(ctx context.Context, filter Filter) ([]Row, error)
	GetById(ctx context.Context, id uuid.UUID) (Row, bool, error)
}

type RepositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

const rowColumns = `id, education_id, education_name, instructor_id, instructor_name, role,
		distance_km, distance_source, daily_travel_record_id, travel_expense,
		allowance_base, allowance_weekend, allowance_extra, allowance_total,
		total_pay, is_counting_eligible, status, pending_reason,
		distance_km_override, travel_expense_override, allowance_override,
		override_reason, override_by, override_at`

// ReplaceAll swaps the settlement snapshot in one transaction, so readers never
// observe a half-recomputed table.
func (r *RepositoryImpl) ReplaceAll(ctx context.Context, rows []Row) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Errorf("Error starting transaction: %v", err)
		return fmt.Errorf("failed to replace settlement rows: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err = tx.ExecContext(ctx, "DELETE FROM settlement_row"); err != nil {
		log.Errorf("Error clearing settlement rows: %v", err)
		return fmt.Errorf("failed to replace settlement rows: %w", err)
	}

	for _, row := range rows {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO settlement_row (`+rowColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)`,
			row.Id, row.EducationId, row.EducationName, row.InstructorId, row.InstructorName, string(row.Role),
			row.DistanceKm, string(row.DistanceSource), row.DailyTravelRecordId, row.TravelExpense,
			row.AllowanceBase, row.AllowanceWeekend, row.AllowanceExtra, row.AllowanceTotal,
			row.TotalPay, row.IsCountingEligible, string(row.Status), row.PendingReason,
			row.DistanceKmOverride, row.TravelExpenseOverride, row.AllowanceOverride,
			nullableString(row.OverrideReason), nullableString(row.OverrideBy), row.OverrideAt,
		)
		if err != nil {
			log.Errorf("Error inserting settlement row %s: %v", row.Id, err)
			return fmt.Errorf("failed to replace settlement rows: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		log.Errorf("Error committing settlement rows: %v", err)
		return fmt.Errorf("failed to replace settlement rows: %w", err)
	}
	return nil
}

func (r *RepositoryImpl) GetAll(ctx context.Context, filter Filter) ([]Row, error) {
	query := "SELECT " + rowColumns + " FROM settlement_row"
	var conditions []string
	var args []interface{}
	if filter.InstructorId != "" {
		args = append(args, filter.InstructorId)
		conditions = append(conditions, fmt.Sprintf("instructor_id = $%d", len(args)))
	}
	if filter.EducationId != "" {
		args = append(args, filter.EducationId)
		conditions = append(conditions, fmt.Sprintf("education_id = $%d", len(args)))
	}
	if filter.EligibleOnly {
		conditions = append(conditions, "is_counting_eligible")
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY education_id, instructor_id, role"

	result, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Errorf("Error fetching settlement rows: %v", err)
		return nil, fmt.Errorf("failed to fetch settlement rows: %w", err)
	}
	defer result.Close()

	var rows []Row
	for result.Next() {
		row, err := scanRow(result)
		if err != nil {
			log.Errorf("Error reading settlement row: %v", err)
			return nil, fmt.Errorf("failed to fetch settlement rows: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, result.Err()
}

func (r *RepositoryImpl) GetById(ctx context.Context, id uuid.UUID) (Row, bool, error) {
	result, err := r.db.QueryContext(ctx,
		"SELECT "+rowColumns+" FROM settlement_row WHERE id = $1", id)
	if err != nil {
		log.Errorf("Error fetching settlement row %s: %v", id, err)
		return Row{}, false, fmt.Errorf("failed to fetch settlement row: %w", err)
	}
	defer result.Close()

	if !result.Next() {
		return Row{}, false, result.Err()
	}
	row, err := scanRow(result)
	if err != nil {
		log.Errorf("Error reading settlement row %s: %v", id, err)
		return Row{}, false, fmt.Errorf("failed to fetch settlement row: %w", err)
	}
	return row, true, nil
}

func scanRow(result *sql.Rows) (Row, error) {
	var row Row
	var role, source, status string
	var dailyRecordId uuid.NullUUID
	var pendingReason, overrideReason, overrideBy sql.NullString
	var overrideAt sql.NullTime
	err := result.Scan(
		&row.Id, &row.EducationId, &row.EducationName, &row.InstructorId, &row.InstructorName, &role,
		&row.DistanceKm, &source, &dailyRecordId, &row.TravelExpense,
		&row.AllowanceBase, &row.AllowanceWeekend, &row.AllowanceExtra, &row.AllowanceTotal,
		&row.TotalPay, &row.IsCountingEligible, &status, &pendingReason,
		&row.DistanceKmOverride, &row.TravelExpenseOverride, &row.AllowanceOverride,
		&overrideReason, &overrideBy, &overrideAt,
	)
	if err != nil {
		return Row{}, err
	}
	row.Role = ratetable.Role(role)
	row.DistanceSource = DistanceSource(source)
	row.Status = Status(status)
	if dailyRecordId.Valid {
		id := dailyRecordId.UUID
		row.DailyTravelRecordId = &id
	}
	row.PendingReason = pendingReason.String
	row.OverrideReason = overrideReason.String
	row.OverrideBy = overrideBy.String
	if overrideAt.Valid {
		at := overrideAt.Time
		row.OverrideAt = &at
	}
	return row, nil
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
