package override

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Repository persists override entries in two keyed stores: by settlement row
// id and by (instructorId, date). Upserts apply last-write-wins per field with
// the entry timestamp as the tiebreak.
type Repository interface {
	UpsertRowEntries(ctx context.Context, rowId uuid.UUID, entries []Entry) error
	GetRowOverride(ctx context.Context, rowId uuid.UUID) (RowOverride, bool, error)
	GetAllRowOverrides(ctx context.Context) (map[uuid.UUID]RowOverride, error)
	DeleteRowOverride(ctx context.Context, rowId uuid.UUID) error

	UpsertDayEntries(ctx context.Context, instructorId string, date time.Time, entries []Entry) error
	GetDayOverride(ctx context.Context, instructorId string, date time.Time) (DayOverride, bool, error)
	GetAllDayOverrides(ctx context.Context) (map[DayKey]DayOverride, error)
	DeleteDayOverride(ctx context.Context, instructorId string, date time.Time) error
}

type RepositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) UpsertRowEntries(ctx context.Context, rowId uuid.UUID, entries []Entry) error {
	query := `INSERT INTO row_override (row_id, field, value, reason, author, override_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (row_id, field) DO UPDATE
		SET value = EXCLUDED.value, reason = EXCLUDED.reason, author = EXCLUDED.author, override_at = EXCLUDED.override_at
		WHERE row_override.override_at <= EXCLUDED.override_at`
	for _, entry := range entries {
		if _, err := r.db.ExecContext(ctx, query, rowId, string(entry.Field), entry.Value, entry.Reason, entry.By, entry.At); err != nil {
			err := fmt.Errorf("could not upsert row override: %w", err)
			log.Error(err)
			return err
		}
	}
	return nil
}

func (r *RepositoryImpl) GetRowOverride(ctx context.Context, rowId uuid.UUID) (RowOverride, bool, error) {
	query := `SELECT field, value, reason, author, override_at FROM row_override WHERE row_id = $1`
	rows, err := r.db.QueryContext(ctx, query, rowId)
	if err != nil {
		err := fmt.Errorf("could not query row overrides: %w", err)
		log.Error(err)
		return RowOverride{}, false, err
	}
	defer rows.Close()

	override := RowOverride{RowId: rowId}
	found := false
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return RowOverride{}, false, err
		}
		found = true
		applyRowEntry(&override, entry)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over rows: %w", err)
		log.Error(err)
		return RowOverride{}, false, err
	}
	return override, found, nil
}

func (r *RepositoryImpl) GetAllRowOverrides(ctx context.Context) (map[uuid.UUID]RowOverride, error) {
	query := `SELECT row_id, field, value, reason, author, override_at FROM row_override`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		err := fmt.Errorf("could not query row overrides: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	overrides := make(map[uuid.UUID]RowOverride)
	for rows.Next() {
		var rowId uuid.UUID
		var entry Entry
		var field string
		if err := rows.Scan(&rowId, &field, &entry.Value, &entry.Reason, &entry.By, &entry.At); err != nil {
			err := fmt.Errorf("could not scan row override: %w", err)
			log.Error(err)
			return nil, err
		}
		entry.Field = Field(field)
		override := overrides[rowId]
		override.RowId = rowId
		applyRowEntry(&override, entry)
		overrides[rowId] = override
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over rows: %w", err)
		log.Error(err)
		return nil, err
	}
	return overrides, nil
}

func (r *RepositoryImpl) DeleteRowOverride(ctx context.Context, rowId uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM row_override WHERE row_id = $1`, rowId); err != nil {
		err := fmt.Errorf("could not delete row override: %w", err)
		log.Error(err)
		return err
	}
	return nil
}

func (r *RepositoryImpl) UpsertDayEntries(ctx context.Context, instructorId string, date time.Time, entries []Entry) error {
	query := `INSERT INTO day_override (instructor_id, travel_date, field, value, reason, author, override_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (instructor_id, travel_date, field) DO UPDATE
		SET value = EXCLUDED.value, reason = EXCLUDED.reason, author = EXCLUDED.author, override_at = EXCLUDED.override_at
		WHERE day_override.override_at <= EXCLUDED.override_at`
	for _, entry := range entries {
		_, err := r.db.ExecContext(ctx, query,
			instructorId, date.Format("2006-01-02"), string(entry.Field), entry.Value, entry.Reason, entry.By, entry.At)
		if err != nil {
			err := fmt.Errorf("could not upsert day override: %w", err)
			log.Error(err)
			return err
		}
	}
	return nil
}

func (r *RepositoryImpl) GetDayOverride(ctx context.Context, instructorId string, date time.Time) (DayOverride, bool, error) {
	query := `SELECT field, value, reason, author, override_at FROM day_override WHERE instructor_id = $1 AND travel_date = $2`
	rows, err := r.db.QueryContext(ctx, query, instructorId, date.Format("2006-01-02"))
	if err != nil {
		err := fmt.Errorf("could not query day overrides: %w", err)
		log.Error(err)
		return DayOverride{}, false, err
	}
	defer rows.Close()

	override := DayOverride{InstructorId: instructorId, Date: date}
	found := false
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return DayOverride{}, false, err
		}
		found = true
		applyDayEntry(&override, entry)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over rows: %w", err)
		log.Error(err)
		return DayOverride{}, false, err
	}
	return override, found, nil
}

func (r *RepositoryImpl) GetAllDayOverrides(ctx context.Context) (map[DayKey]DayOverride, error) {
	query := `SELECT instructor_id, travel_date, field, value, reason, author, override_at FROM day_override`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		err := fmt.Errorf("could not query day overrides: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	overrides := make(map[DayKey]DayOverride)
	for rows.Next() {
		var instructorId string
		var date time.Time
		var entry Entry
		var field string
		if err := rows.Scan(&instructorId, &date, &field, &entry.Value, &entry.Reason, &entry.By, &entry.At); err != nil {
			err := fmt.Errorf("could not scan day override: %w", err)
			log.Error(err)
			return nil, err
		}
		entry.Field = Field(field)
		key := NewDayKey(instructorId, date)
		override := overrides[key]
		override.InstructorId = instructorId
		override.Date = date
		applyDayEntry(&override, entry)
		overrides[key] = override
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over rows: %w", err)
		log.Error(err)
		return nil, err
	}
	return overrides, nil
}

func (r *RepositoryImpl) DeleteDayOverride(ctx context.Context, instructorId string, date time.Time) error {
	query := `DELETE FROM day_override WHERE instructor_id = $1 AND travel_date = $2`
	if _, err := r.db.ExecContext(ctx, query, instructorId, date.Format("2006-01-02")); err != nil {
		err := fmt.Errorf("could not delete day override: %w", err)
		log.Error(err)
		return err
	}
	return nil
}

type entryScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row entryScanner) (Entry, error) {
	var entry Entry
	var field string
	if err := row.Scan(&field, &entry.Value, &entry.Reason, &entry.By, &entry.At); err != nil {
		err := fmt.Errorf("could not scan override entry: %w", err)
		log.Error(err)
		return Entry{}, err
	}
	entry.Field = Field(field)
	return entry, nil
}

func applyRowEntry(override *RowOverride, entry Entry) {
	switch entry.Field {
	case FieldDistanceKm:
		v := entry.Value
		override.DistanceKm = &v
	case FieldTravelExpense:
		v := int64(entry.Value)
		override.TravelExpense = &v
	case FieldAllowance:
		v := int64(entry.Value)
		override.Allowance = &v
	}
	if entry.At.After(override.At) {
		override.Reason = entry.Reason
		override.By = entry.By
		override.At = entry.At
	}
}

func applyDayEntry(override *DayOverride, entry Entry) {
	switch entry.Field {
	case FieldDistanceKm:
		v := entry.Value
		override.DistanceKm = &v
	case FieldTravelExpense:
		v := int64(entry.Value)
		override.TravelExpense = &v
	}
	if entry.At.After(override.At) {
		override.Reason = entry.Reason
		override.By = entry.By
		override.At = entry.At
	}
}
