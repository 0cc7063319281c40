package override

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jeongsan/jeongsan/internal/event_bus"
	"github.com/jeongsan/jeongsan/internal/utils"
	"github.com/jeongsan/jeongsan/pkg/operator"
	log "github.com/sirupsen/logrus"
)

// RowInfo is what the scope check needs to know about a settlement row.
type RowInfo struct {
	Exists       bool
	DailySourced bool
	InstructorId string
}

// RowInfoProvider is wired from the settlement engine; a function dependency
// keeps this package free of a settlement import.
type RowInfoProvider func(ctx context.Context, rowId uuid.UUID) (RowInfo, error)

type Service interface {
	SetRowOverride(ctx context.Context, rowId uuid.UUID, patch RowPatch, reason string, expectedAt *time.Time) error
	RemoveRowOverride(ctx context.Context, rowId uuid.UUID) error
	SetDayOverride(ctx context.Context, instructorId string, date time.Time, patch DayPatch, reason string, expectedAt *time.Time) error
	RemoveDayOverride(ctx context.Context, instructorId string, date time.Time) error

	GetAllRowOverrides(ctx context.Context) (map[uuid.UUID]RowOverride, error)
	GetAllDayOverrides(ctx context.Context) (map[DayKey]DayOverride, error)
}

type ServiceImpl struct {
	repo    Repository
	rowInfo RowInfoProvider
	clock   utils.Clock
	bus     *event_bus.EventBus
}

func NewService(repo Repository, rowInfo RowInfoProvider, clock utils.Clock, bus *event_bus.EventBus) *ServiceImpl {
	return &ServiceImpl{repo: repo, rowInfo: rowInfo, clock: clock, bus: bus}
}

// SetRowOverride records a row-scoped correction. Travel fields of a row that
// sources its expense from a shared daily record must be corrected day-level
// instead, so every sibling row keeps seeing one trip, one price.
func (s *ServiceImpl) SetRowOverride(ctx context.Context, rowId uuid.UUID, patch RowPatch, reason string, expectedAt *time.Time) error {
	if reason == "" {
		return ErrReasonRequired
	}
	if patch.Empty() {
		return fmt.Errorf("override patch is empty")
	}

	by, err := operator.CurrentUid(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current operator: %w", err)
	}

	info, err := s.rowInfo(ctx, rowId)
	if err != nil {
		return fmt.Errorf("failed to look up settlement row: %w", err)
	}
	if !info.Exists {
		return ErrRowNotFound
	}
	if info.DailySourced && patch.TouchesTravel() {
		return &ScopeConflictError{RowId: rowId}
	}

	if err := s.checkRowFreshness(ctx, rowId, expectedAt); err != nil {
		return err
	}

	now := s.clock.Now()
	entries := make([]Entry, 0, 3)
	if patch.DistanceKm != nil {
		entries = append(entries, Entry{Field: FieldDistanceKm, Value: *patch.DistanceKm, Reason: reason, By: by, At: now})
	}
	if patch.TravelExpense != nil {
		entries = append(entries, Entry{Field: FieldTravelExpense, Value: float64(*patch.TravelExpense), Reason: reason, By: by, At: now})
	}
	if patch.Allowance != nil {
		entries = append(entries, Entry{Field: FieldAllowance, Value: float64(*patch.Allowance), Reason: reason, By: by, At: now})
	}
	if err := s.repo.UpsertRowEntries(ctx, rowId, entries); err != nil {
		return err
	}
	log.Infof("row override set on %s by %s: %s", rowId, by, reason)

	return s.publishChange(ctx, event_bus.OverridesChanged{Scope: "row", RowID: rowId.String()})
}

// RemoveRowOverride clears a row's override; totals revert exactly to the last
// computed values. Removing a missing override is a no-op.
func (s *ServiceImpl) RemoveRowOverride(ctx context.Context, rowId uuid.UUID) error {
	_, found, err := s.repo.GetRowOverride(ctx, rowId)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	if err := s.repo.DeleteRowOverride(ctx, rowId); err != nil {
		return err
	}
	return s.publishChange(ctx, event_bus.OverridesChanged{Scope: "row", RowID: rowId.String(), Removed: true})
}

// SetDayOverride records a day-scoped correction on the daily travel record,
// propagating to every settlement row sharing that day.
func (s *ServiceImpl) SetDayOverride(ctx context.Context, instructorId string, date time.Time, patch DayPatch, reason string, expectedAt *time.Time) error {
	if reason == "" {
		return ErrReasonRequired
	}
	if patch.Empty() {
		return fmt.Errorf("override patch is empty")
	}

	by, err := operator.CurrentUid(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current operator: %w", err)
	}

	existing, found, err := s.repo.GetDayOverride(ctx, instructorId, date)
	if err != nil {
		return err
	}
	if expectedAt != nil && found && !existing.At.Equal(*expectedAt) {
		return &StaleWriteError{CurrentAt: existing.At}
	}

	now := s.clock.Now()
	entries := make([]Entry, 0, 2)
	if patch.DistanceKm != nil {
		entries = append(entries, Entry{Field: FieldDistanceKm, Value: *patch.DistanceKm, Reason: reason, By: by, At: now})
	}
	if patch.TravelExpense != nil {
		entries = append(entries, Entry{Field: FieldTravelExpense, Value: float64(*patch.TravelExpense), Reason: reason, By: by, At: now})
	}
	if err := s.repo.UpsertDayEntries(ctx, instructorId, date, entries); err != nil {
		return err
	}
	log.Infof("day override set on (%s, %s) by %s: %s", instructorId, date.Format("2006-01-02"), by, reason)

	return s.publishChange(ctx, event_bus.OverridesChanged{Scope: "day", InstructorID: instructorId, Date: date})
}

func (s *ServiceImpl) RemoveDayOverride(ctx context.Context, instructorId string, date time.Time) error {
	_, found, err := s.repo.GetDayOverride(ctx, instructorId, date)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	if err := s.repo.DeleteDayOverride(ctx, instructorId, date); err != nil {
		return err
	}
	return s.publishChange(ctx, event_bus.OverridesChanged{Scope: "day", InstructorID: instructorId, Date: date, Removed: true})
}

func (s *ServiceImpl) GetAllRowOverrides(ctx context.Context) (map[uuid.UUID]RowOverride, error) {
	return s.repo.GetAllRowOverrides(ctx)
}

func (s *ServiceImpl) GetAllDayOverrides(ctx context.Context) (map[DayKey]DayOverride, error) {
	return s.repo.GetAllDayOverrides(ctx)
}

func (s *ServiceImpl) checkRowFreshness(ctx context.Context, rowId uuid.UUID, expectedAt *time.Time) error {
	if expectedAt == nil {
		return nil
	}
	existing, found, err := s.repo.GetRowOverride(ctx, rowId)
	if err != nil {
		return err
	}
	if found && !existing.At.Equal(*expectedAt) {
		return &StaleWriteError{CurrentAt: existing.At}
	}
	return nil
}

func (s *ServiceImpl) publishChange(ctx context.Context, data event_bus.OverridesChanged) error {
	event := event_bus.NewEvent(ctx, event_bus.OverridesChangedEvent, data)
	if err := s.bus.Publish(event); err != nil {
		return fmt.Errorf("recomputation after override change failed: %w", err)
	}
	return nil
}
