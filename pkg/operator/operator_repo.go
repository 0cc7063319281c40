package operator

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

var ErrOperatorNotFound = errors.New("operator not found")

type Repo interface {
	Create(ctx context.Context, op Operator) (int, error)
	GetByUid(ctx context.Context, uid string) (Operator, error)
	GetAll(ctx context.Context) ([]Operator, error)
}

type RepoImpl struct {
	db *sql.DB
}

func NewRepo(db *sql.DB) *RepoImpl {
	return &RepoImpl{db: db}
}

func (r *RepoImpl) Create(ctx context.Context, op Operator) (int, error) {
	query := `INSERT INTO operator (uid, display_name) VALUES ($1, $2) RETURNING id`
	var id int
	err := r.db.QueryRowContext(ctx, query, op.Uid, op.DisplayName).Scan(&id)
	if err != nil {
		err := fmt.Errorf("could not create operator: %w", err)
		log.Error(err)
		return 0, err
	}
	return id, nil
}

func (r *RepoImpl) GetByUid(ctx context.Context, uid string) (Operator, error) {
	query := `SELECT id, uid, display_name FROM operator WHERE uid = $1`
	var op Operator
	err := r.db.QueryRowContext(ctx, query, uid).Scan(&op.Id, &op.Uid, &op.DisplayName)
	if errors.Is(err, sql.ErrNoRows) {
		return Operator{}, ErrOperatorNotFound
	} else if err != nil {
		err := fmt.Errorf("could not get operator: %w", err)
		log.Error(err)
		return Operator{}, err
	}
	return op, nil
}

func (r *RepoImpl) GetAll(ctx context.Context) ([]Operator, error) {
	query := `SELECT id, uid, display_name FROM operator ORDER BY display_name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		err := fmt.Errorf("could not query operators: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	operators := make([]Operator, 0, 10)
	for rows.Next() {
		var op Operator
		if err := rows.Scan(&op.Id, &op.Uid, &op.DisplayName); err != nil {
			err := fmt.Errorf("could not scan operator: %w", err)
			log.Error(err)
			return nil, err
		}
		operators = append(operators, op)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over rows: %w", err)
		log.Error(err)
		return nil, err
	}
	return operators, nil
}
