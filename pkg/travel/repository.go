package travel

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Filter narrows daily travel record listings.
type Filter struct {
	InstructorId string
	From         *time.Time
	To           *time.Time
}

type Repository interface {
	// ReplaceAll supersedes the previous pass's records with a fresh set.
	ReplaceAll(ctx context.Context, records []Record) error
	GetAll(ctx context.Context, filter Filter) ([]Record, error)
	GetByKey(ctx context.Context, instructorId string, date time.Time) (Record, bool, error)
}

type RepositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) ReplaceAll(ctx context.Context, records []Record) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		err := fmt.Errorf("could not begin transaction: %w", err)
		log.Error(err)
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM daily_travel_stop"); err != nil {
		err := fmt.Errorf("could not clear travel stops: %w", err)
		log.Error(err)
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM daily_travel_record"); err != nil {
		err := fmt.Errorf("could not clear travel records: %w", err)
		log.Error(err)
		return err
	}

	insertRecord := `INSERT INTO daily_travel_record
		(id, instructor_id, travel_date, total_distance_km, travel_expense, needs_distance, route_map_url,
		 distance_km_override, travel_expense_override, override_reason, override_by, override_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	insertStop := `INSERT INTO daily_travel_stop
		(record_id, position, education_id, education_name, institution_name, institution_address)
		VALUES ($1, $2, $3, $4, $5, $6)`

	for _, record := range records {
		_, err := tx.ExecContext(ctx, insertRecord,
			record.Id,
			record.InstructorId,
			record.Date.Format("2006-01-02"),
			record.TotalDistanceKm,
			record.TravelExpense,
			record.NeedsDistance,
			record.RouteMapUrl,
			record.DistanceKmOverride,
			record.TravelExpenseOverride,
			record.OverrideReason,
			record.OverrideBy,
			record.OverrideAt,
		)
		if err != nil {
			err := fmt.Errorf("could not insert travel record %s: %w", record.Id, err)
			log.Error(err)
			return err
		}
		for position, stop := range record.Stops {
			_, err := tx.ExecContext(ctx, insertStop,
				record.Id, position, stop.EducationId, stop.EducationName, stop.InstitutionName, stop.InstitutionAddress)
			if err != nil {
				err := fmt.Errorf("could not insert travel stop for record %s: %w", record.Id, err)
				log.Error(err)
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		err := fmt.Errorf("could not commit travel records: %w", err)
		log.Error(err)
		return err
	}
	return nil
}

func (r *RepositoryImpl) GetAll(ctx context.Context, filter Filter) ([]Record, error) {
	query := `SELECT id, instructor_id, travel_date, total_distance_km, travel_expense, needs_distance, route_map_url,
		distance_km_override, travel_expense_override, override_reason, override_by, override_at
		FROM daily_travel_record WHERE 1=1`
	args := make([]any, 0, 3)
	if filter.InstructorId != "" {
		args = append(args, filter.InstructorId)
		query += fmt.Sprintf(" AND instructor_id = $%d", len(args))
	}
	if filter.From != nil {
		args = append(args, filter.From.Format("2006-01-02"))
		query += fmt.Sprintf(" AND travel_date >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, filter.To.Format("2006-01-02"))
		query += fmt.Sprintf(" AND travel_date <= $%d", len(args))
	}
	query += " ORDER BY instructor_id, travel_date"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		err := fmt.Errorf("could not query travel records: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	records := make([]Record, 0, 20)
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		index[record.Id] = len(records)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over rows: %w", err)
		log.Error(err)
		return nil, err
	}

	if len(records) == 0 {
		return records, nil
	}

	stopRows, err := r.db.QueryContext(ctx, `SELECT record_id, education_id, education_name, institution_name, institution_address
		FROM daily_travel_stop ORDER BY record_id, position`)
	if err != nil {
		err := fmt.Errorf("could not query travel stops: %w", err)
		log.Error(err)
		return nil, err
	}
	defer stopRows.Close()

	for stopRows.Next() {
		var recordId uuid.UUID
		var stop Stop
		if err := stopRows.Scan(&recordId, &stop.EducationId, &stop.EducationName, &stop.InstitutionName, &stop.InstitutionAddress); err != nil {
			err := fmt.Errorf("could not scan travel stop: %w", err)
			log.Error(err)
			return nil, err
		}
		if idx, ok := index[recordId]; ok {
			records[idx].Stops = append(records[idx].Stops, stop)
		}
	}
	if err := stopRows.Err(); err != nil {
		err := fmt.Errorf("error iterating over rows: %w", err)
		log.Error(err)
		return nil, err
	}

	return records, nil
}

func (r *RepositoryImpl) GetByKey(ctx context.Context, instructorId string, date time.Time) (Record, bool, error) {
	records, err := r.GetAll(ctx, Filter{InstructorId: instructorId, From: &date, To: &date})
	if err != nil {
		return Record{}, false, err
	}
	if len(records) == 0 {
		return Record{}, false, nil
	}
	return records[0], true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var record Record
	var overrideReason, overrideBy sql.NullString
	var overrideAt sql.NullTime
	err := row.Scan(
		&record.Id,
		&record.InstructorId,
		&record.Date,
		&record.TotalDistanceKm,
		&record.TravelExpense,
		&record.NeedsDistance,
		&record.RouteMapUrl,
		&record.DistanceKmOverride,
		&record.TravelExpenseOverride,
		&overrideReason,
		&overrideBy,
		&overrideAt,
	)
	if err != nil {
		err := fmt.Errorf("could not scan travel record: %w", err)
		log.Error(err)
		return Record{}, err
	}
	record.OverrideReason = overrideReason.String
	record.OverrideBy = overrideBy.String
	if overrideAt.Valid {
		at := overrideAt.Time
		record.OverrideAt = &at
	}
	return record, nil
}
