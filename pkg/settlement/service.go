package settlement

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jeongsan/jeongsan/internal/event_bus"
	"github.com/jeongsan/jeongsan/pkg/assignment"
	"github.com/jeongsan/jeongsan/pkg/override"
	"github.com/jeongsan/jeongsan/pkg/ratetable"
	"github.com/jeongsan/jeongsan/pkg/travel"
	log "github.com/sirupsen/logrus"
)

// RateSource loads the rate table snapshot for one settlement pass.
type RateSource interface {
	Load() (ratetable.Tables, error)
}

type Service interface {
	Recompute(ctx context.Context) error
	GetRows(ctx context.Context, filter Filter) ([]Row, error)
	GetEligibilityMode(ctx context.Context) (EligibilityMode, error)
	SetEligibilityMode(ctx context.Context, mode EligibilityMode) error
	RowInfo(ctx context.Context, rowId uuid.UUID) (override.RowInfo, error)
}

// ServiceImpl is the settlement engine. Recompute rebuilds every daily travel
// record and settlement row from the current assignment snapshot; only
// overrides and settings survive a pass, everything else is derived.
type ServiceImpl struct {
	assignments assignment.Repository
	rates       RateSource
	aggregator  *travel.Aggregator
	overrides   override.Repository
	settings    SettingsRepository
	travelRepo  travel.Repository
	rowRepo     Repository
	bus         *event_bus.EventBus
	defaultMode EligibilityMode

	// Recompute passes are serialized; snapshot replacement is not safe to
	// interleave.
	mu sync.Mutex
}

func NewService(
	assignments assignment.Repository,
	rates RateSource,
	aggregator *travel.Aggregator,
	overrides override.Repository,
	settings SettingsRepository,
	travelRepo travel.Repository,
	rowRepo Repository,
	bus *event_bus.EventBus,
	defaultMode EligibilityMode,
) *ServiceImpl {
	return &ServiceImpl{
		assignments: assignments,
		rates:       rates,
		aggregator:  aggregator,
		overrides:   overrides,
		settings:    settings,
		travelRepo:  travelRepo,
		rowRepo:     rowRepo,
		bus:         bus,
		defaultMode: defaultMode,
	}
}

// Recompute runs one full settlement pass: load rates, aggregate travel,
// stamp surviving overrides and replace both snapshots. Running it twice on
// the same inputs yields identical results.
func (s *ServiceImpl) Recompute(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables, err := s.rates.Load()
	if err != nil {
		return fmt.Errorf("settlement pass aborted: %w", err)
	}
	assignments, err := s.assignments.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("settlement pass aborted: %w", err)
	}
	mode, err := s.currentMode(ctx)
	if err != nil {
		return fmt.Errorf("settlement pass aborted: %w", err)
	}

	records, err := s.aggregator.Aggregate(ctx, assignments, tables)
	if err != nil {
		return fmt.Errorf("settlement pass aborted: %w", err)
	}

	dayOverrides, err := s.overrides.GetAllDayOverrides(ctx)
	if err != nil {
		return fmt.Errorf("settlement pass aborted: %w", err)
	}
	stampDayOverrides(records, dayOverrides)

	rowOverrides, err := s.overrides.GetAllRowOverrides(ctx)
	if err != nil {
		return fmt.Errorf("settlement pass aborted: %w", err)
	}

	rows, err := Assemble(assignments, records, tables, rowOverrides, mode)
	if err != nil {
		return fmt.Errorf("settlement pass aborted: %w", err)
	}

	if err := s.travelRepo.ReplaceAll(ctx, records); err != nil {
		return fmt.Errorf("settlement pass aborted: %w", err)
	}
	if err := s.rowRepo.ReplaceAll(ctx, rows); err != nil {
		return fmt.Errorf("settlement pass aborted: %w", err)
	}

	log.Infof("settlement pass done: %d assignments, %d travel records, %d rows (mode %s)",
		len(assignments), len(records), len(rows), mode)
	return nil
}

func (s *ServiceImpl) GetRows(ctx context.Context, filter Filter) ([]Row, error) {
	return s.rowRepo.GetAll(ctx, filter)
}

func (s *ServiceImpl) GetEligibilityMode(ctx context.Context) (EligibilityMode, error) {
	return s.currentMode(ctx)
}

// SetEligibilityMode stores the counting policy and retags every row before
// returning. Monetary values are untouched by a mode switch.
func (s *ServiceImpl) SetEligibilityMode(ctx context.Context, mode EligibilityMode) error {
	if err := s.settings.SetMode(ctx, mode); err != nil {
		return err
	}
	event := event_bus.NewEvent(ctx, event_bus.EligibilityModeChangedEvent,
		event_bus.EligibilityModeChanged{Mode: string(mode)})
	if err := s.bus.Publish(event); err != nil {
		return fmt.Errorf("recomputation after mode change failed: %w", err)
	}
	return nil
}

// RowInfo backs the override scope check without an import cycle.
func (s *ServiceImpl) RowInfo(ctx context.Context, rowId uuid.UUID) (override.RowInfo, error) {
	row, found, err := s.rowRepo.GetById(ctx, rowId)
	if err != nil {
		return override.RowInfo{}, err
	}
	if !found {
		return override.RowInfo{}, nil
	}
	return override.RowInfo{
		Exists:       true,
		DailySourced: row.DistanceSource == SourceDaily,
		InstructorId: row.InstructorId,
	}, nil
}

func (s *ServiceImpl) currentMode(ctx context.Context) (EligibilityMode, error) {
	mode, set, err := s.settings.GetMode(ctx)
	if err != nil {
		return "", err
	}
	if !set {
		return s.defaultMode, nil
	}
	return mode, nil
}

func stampDayOverrides(records []travel.Record, overrides map[override.DayKey]override.DayOverride) {
	for i := range records {
		key := override.NewDayKey(records[i].InstructorId, records[i].Date)
		ov, ok := overrides[key]
		if !ok {
			continue
		}
		records[i].DistanceKmOverride = ov.DistanceKm
		records[i].TravelExpenseOverride = ov.TravelExpense
		records[i].OverrideReason = ov.Reason
		records[i].OverrideBy = ov.By
		at := ov.At
		records[i].OverrideAt = &at
	}
}
