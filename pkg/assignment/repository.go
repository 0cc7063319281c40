package assignment

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jeongsan/jeongsan/pkg/ratetable"
	log "github.com/sirupsen/logrus"
)

type Repository interface {
	// ReplaceAll swaps the stored snapshot for a fresh one from the scheduling system.
	ReplaceAll(ctx context.Context, assignments []Assignment) error
	GetAll(ctx context.Context) ([]Assignment, error)
}

type RepositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) ReplaceAll(ctx context.Context, assignments []Assignment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		err := fmt.Errorf("could not begin transaction: %w", err)
		log.Error(err)
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM assignment_session"); err != nil {
		err := fmt.Errorf("could not clear assignment sessions: %w", err)
		log.Error(err)
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM education_assignment"); err != nil {
		err := fmt.Errorf("could not clear assignments: %w", err)
		log.Error(err)
		return err
	}

	insertAssignment := `INSERT INTO education_assignment
		(id, education_id, education_name, institution_id, institution_name, institution_category, institution_address,
		 instructor_id, instructor_name, instructor_home_address, role, period_start, period_end,
		 total_sessions, student_count, has_assistant, education_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	insertSession := `INSERT INTO assignment_session (assignment_id, session_date, seq) VALUES ($1, $2, $3)`

	for _, a := range assignments {
		_, err := tx.ExecContext(ctx, insertAssignment,
			a.Id,
			a.EducationId,
			a.EducationName,
			a.Institution.Id,
			a.Institution.Name,
			string(a.Institution.Category),
			a.Institution.Address,
			a.Instructor.Id,
			a.Instructor.Name,
			a.Instructor.HomeAddress,
			string(a.Role),
			a.PeriodStart.Format("2006-01-02"),
			a.PeriodEnd.Format("2006-01-02"),
			a.TotalSessions,
			a.StudentCount,
			a.HasAssistant,
			string(a.Status),
		)
		if err != nil {
			err := fmt.Errorf("could not insert assignment %s: %w", a.Id, err)
			log.Error(err)
			return err
		}
		for i, d := range a.SessionDates {
			if _, err := tx.ExecContext(ctx, insertSession, a.Id, d.Format("2006-01-02"), i); err != nil {
				err := fmt.Errorf("could not insert session date for assignment %s: %w", a.Id, err)
				log.Error(err)
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		err := fmt.Errorf("could not commit assignment snapshot: %w", err)
		log.Error(err)
		return err
	}
	return nil
}

func (r *RepositoryImpl) GetAll(ctx context.Context) ([]Assignment, error) {
	query := `SELECT id, education_id, education_name, institution_id, institution_name, institution_category,
		institution_address, instructor_id, instructor_name, instructor_home_address, role,
		period_start, period_end, total_sessions, student_count, has_assistant, education_status
		FROM education_assignment ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		err := fmt.Errorf("could not query assignments: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	assignments := make([]Assignment, 0, 50)
	index := make(map[string]int)
	for rows.Next() {
		var a Assignment
		var category, role, status string
		if err := rows.Scan(
			&a.Id,
			&a.EducationId,
			&a.EducationName,
			&a.Institution.Id,
			&a.Institution.Name,
			&category,
			&a.Institution.Address,
			&a.Instructor.Id,
			&a.Instructor.Name,
			&a.Instructor.HomeAddress,
			&role,
			&a.PeriodStart,
			&a.PeriodEnd,
			&a.TotalSessions,
			&a.StudentCount,
			&a.HasAssistant,
			&status,
		); err != nil {
			err := fmt.Errorf("could not scan assignment: %w", err)
			log.Error(err)
			return nil, err
		}
		a.Institution.Category = ratetable.Category(category)
		a.Role = ratetable.Role(role)
		a.Status = Status(status)
		index[a.Id] = len(assignments)
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over rows: %w", err)
		log.Error(err)
		return nil, err
	}

	sessionRows, err := r.db.QueryContext(ctx, `SELECT assignment_id, session_date FROM assignment_session ORDER BY assignment_id, session_date, seq`)
	if err != nil {
		err := fmt.Errorf("could not query assignment sessions: %w", err)
		log.Error(err)
		return nil, err
	}
	defer sessionRows.Close()

	for sessionRows.Next() {
		var assignmentId string
		var date time.Time
		if err := sessionRows.Scan(&assignmentId, &date); err != nil {
			err := fmt.Errorf("could not scan session date: %w", err)
			log.Error(err)
			return nil, err
		}
		if idx, ok := index[assignmentId]; ok {
			assignments[idx].SessionDates = append(assignments[idx].SessionDates, date)
		}
	}
	if err := sessionRows.Err(); err != nil {
		err := fmt.Errorf("error iterating over rows: %w", err)
		log.Error(err)
		return nil, err
	}

	return assignments, nil
}
