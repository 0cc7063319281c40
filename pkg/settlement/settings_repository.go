package settlement

import (
	"context"
	"database/sql"
	"fmt"

	log "github.com/sirupsen/logrus"
)

const eligibilityModeKey = "eligibility_mode"

// SettingsRepository persists engine settings that survive recomputation.
type SettingsRepository interface {
	GetMode(ctx context.Context) (EligibilityMode, bool, error)
	SetMode(ctx context.Context, mode EligibilityMode) error
}

type SettingsRepositoryImpl struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) *SettingsRepositoryImpl {
	return &SettingsRepositoryImpl{db: db}
}

func (r *SettingsRepositoryImpl) GetMode(ctx context.Context) (EligibilityMode, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		"SELECT value FROM engine_settings WHERE key = $1", eligibilityModeKey).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		log.Errorf("Error fetching eligibility mode: %v", err)
		return "", false, fmt.Errorf("failed to fetch eligibility mode: %w", err)
	}
	mode, err := ParseEligibilityMode(value)
	if err != nil {
		return "", false, fmt.Errorf("stored eligibility mode is invalid: %w", err)
	}
	return mode, true, nil
}

func (r *SettingsRepositoryImpl) SetMode(ctx context.Context, mode EligibilityMode) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO engine_settings (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		eligibilityModeKey, string(mode))
	if err != nil {
		log.Errorf("Error storing eligibility mode: %v", err)
		return fmt.Errorf("failed to store eligibility mode: %w", err)
	}
	return nil
}

type StubSettingsRepository struct {
	mode EligibilityMode
	set  bool
}

func NewStubSettingsRepository() *StubSettingsRepository {
	return &StubSettingsRepository{}
}

func (s *StubSettingsRepository) GetMode(ctx context.Context) (EligibilityMode, bool, error) {
	return s.mode, s.set, nil
}

func (s *StubSettingsRepository) SetMode(ctx context.Context, mode EligibilityMode) error {
	s.mode = mode
	s.set = true
	return nil
}
