package settlement

import (
	"context"
	"testing"
	"time"

	"github.com/jeongsan/jeongsan/internal/event_bus"
	"github.com/jeongsan/jeongsan/internal/utils"
	"github.com/jeongsan/jeongsan/pkg/assignment"
	"github.com/jeongsan/jeongsan/pkg/distance"
	"github.com/jeongsan/jeongsan/pkg/operator"
	"github.com/jeongsan/jeongsan/pkg/override"
	"github.com/jeongsan/jeongsan/pkg/ratetable"
	"github.com/jeongsan/jeongsan/pkg/travel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRates struct {
	tables ratetable.Tables
}

func (s stubRates) Load() (ratetable.Tables, error) {
	return s.tables, nil
}

func testTables(t *testing.T) ratetable.Tables {
	t.Helper()
	max20 := 20.0
	max50 := 50.0
	rates := map[ratetable.Role]map[ratetable.Category]int64{}
	for _, role := range ratetable.AllRoles {
		rates[role] = map[ratetable.Category]int64{}
		for _, category := range ratetable.AllCategories {
			rates[role][category] = 40000
		}
	}
	tables, err := ratetable.NewTables(ratetable.RateTable{
		Year: 2025,
		DistanceTiers: []ratetable.DistanceTier{
			{MinKm: 0, MaxKm: &max20, Amount: 10000},
			{MinKm: 20, MaxKm: &max50, Amount: 20000},
			{MinKm: 50, Amount: 35000},
		},
		SessionRates:       rates,
		WeekendSessionRate: 10000,
		ExtraAllowance:     ratetable.ExtraAllowance{StudentThreshold: 15, SessionRate: 5000},
	})
	require.NoError(t, err)
	return tables
}

func mkAssignment(educationId, instructorId string, role ratetable.Role, status assignment.Status, dates ...time.Time) assignment.Assignment {
	return assignment.Assignment{
		Id:            educationId + "-" + instructorId,
		EducationId:   educationId,
		EducationName: "Education " + educationId,
		Institution: assignment.Institution{
			Id:       "inst-" + educationId,
			Name:     "School " + educationId,
			Category: ratetable.CategoryElementary,
			Address:  "School Street " + educationId,
		},
		Instructor: assignment.Instructor{
			Id:          instructorId,
			Name:        "Instructor " + instructorId,
			HomeAddress: "Home of " + instructorId,
		},
		Role:          role,
		PeriodStart:   time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:     time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
		SessionDates:  dates,
		TotalSessions: len(dates),
		StudentCount:  10,
		Status:        status,
	}
}

type engineFixture struct {
	service     *ServiceImpl
	assignments *assignment.StubRepository
	travelRepo  *travel.StubRepository
	rowRepo     *StubRepository
	overrides   *override.StubRepository
	overrideSvc override.Service
	settings    *StubSettingsRepository
	provider    *distance.StubProvider
	bus         *event_bus.EventBus
	ctx         context.Context
}

func setupEngine(t *testing.T) *engineFixture {
	t.Helper()
	f := &engineFixture{
		assignments: assignment.NewStubRepository(),
		travelRepo:  travel.NewStubRepository(),
		rowRepo:     NewStubRepository(),
		overrides:   override.NewStubRepository(),
		settings:    NewStubSettingsRepository(),
		provider:    distance.NewStubProvider(),
		bus:         event_bus.NewEventBus(),
	}
	f.service = NewService(
		f.assignments,
		stubRates{testTables(t)},
		travel.NewAggregator(f.provider),
		f.overrides,
		f.settings,
		f.travelRepo,
		f.rowRepo,
		f.bus,
		ModeOnlyConfirmedEnded,
	)
	clock := &utils.MockClock{FixedNow: time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)}
	f.overrideSvc = override.NewService(f.overrides, f.service.RowInfo, clock, f.bus)
	f.bus.Subscribe(event_bus.OverridesChangedEvent, func(e event_bus.Event) error {
		return f.service.Recompute(e.Context())
	})
	f.bus.Subscribe(event_bus.EligibilityModeChangedEvent, func(e event_bus.Event) error {
		return f.service.Recompute(e.Context())
	})
	f.ctx = operator.WithOperator(context.Background(), operator.Operator{Id: 1, Uid: "admin-1"})
	return f
}

var (
	tuesday  = time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	saturday = time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)
)

// seedSharedDay loads two educations of instructor kim meeting on the same
// Tuesday; edu-A additionally has a solo Saturday session.
//
// The stub provider prices 10 km per leg, so the shared day (3 legs, 30 km)
// costs 20000 and the solo day (2 legs, 20 km) costs 20000.
func seedSharedDay(t *testing.T, f *engineFixture) {
	t.Helper()
	require.NoError(t, f.assignments.ReplaceAll(f.ctx, []assignment.Assignment{
		mkAssignment("edu-A", "kim", ratetable.RoleMain, assignment.StatusConfirmed, tuesday, saturday),
		mkAssignment("edu-B", "kim", ratetable.RoleMain, assignment.StatusDraft, tuesday),
	}))
	require.NoError(t, f.service.Recompute(f.ctx))
}

func rowByEducation(t *testing.T, rows []Row, educationId string) Row {
	t.Helper()
	for _, row := range rows {
		if row.EducationId == educationId {
			return row
		}
	}
	t.Fatalf("no settlement row for education %s", educationId)
	return Row{}
}

func TestService_Recompute_SharedDayAttribution(t *testing.T) {
	f := setupEngine(t)
	seedSharedDay(t, f)

	rows, err := f.service.GetRows(f.ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	rowA := rowByEducation(t, rows, "edu-A")
	rowB := rowByEducation(t, rows, "edu-B")

	// both rows share the Tuesday record and report its full amount
	assert.Equal(t, SourceDaily, rowA.DistanceSource)
	assert.Equal(t, SourceDaily, rowB.DistanceSource)
	require.NotNil(t, rowA.DailyTravelRecordId)
	require.NotNil(t, rowB.DailyTravelRecordId)
	assert.Equal(t, *rowA.DailyTravelRecordId, *rowB.DailyTravelRecordId)
	assert.Equal(t, travel.RecordId("kim", tuesday), *rowA.DailyTravelRecordId)
	assert.Equal(t, int64(20000), rowB.TravelExpense)

	// edu-A adds its solo Saturday trip on top of the shared day
	assert.Equal(t, int64(40000), rowA.TravelExpense)
	assert.Equal(t, 50.0, rowA.DistanceKm)

	// allowance: edu-A has 2 sessions, one on a weekend
	assert.Equal(t, int64(80000), rowA.AllowanceBase)
	assert.Equal(t, int64(10000), rowA.AllowanceWeekend)
	assert.Nil(t, rowA.AllowanceExtra)
	assert.Equal(t, int64(90000), rowA.AllowanceTotal)

	// invariants
	for _, row := range rows {
		assert.Equal(t, StatusComputed, row.Status)
		assert.Equal(t, row.EffectiveTravelExpense()+row.EffectiveAllowanceTotal(), row.TotalPay)
	}

	// the travel snapshot has one record per (instructor, day)
	records, err := f.travelRepo.GetAll(f.ctx, travel.Filter{})
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestService_Recompute_IsIdempotent(t *testing.T) {
	f := setupEngine(t)
	seedSharedDay(t, f)
	first, err := f.service.GetRows(f.ctx, Filter{})
	require.NoError(t, err)

	require.NoError(t, f.service.Recompute(f.ctx))

	second, err := f.service.GetRows(f.ctx, Filter{})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestService_Recompute_ExtraAllowance(t *testing.T) {
	f := setupEngine(t)
	a := mkAssignment("edu-A", "kim", ratetable.RoleMain, assignment.StatusConfirmed, tuesday)
	a.StudentCount = 20
	require.NoError(t, f.assignments.ReplaceAll(f.ctx, []assignment.Assignment{a}))

	require.NoError(t, f.service.Recompute(f.ctx))

	rows, err := f.service.GetRows(f.ctx, Filter{})
	require.NoError(t, err)
	row := rowByEducation(t, rows, "edu-A")
	require.NotNil(t, row.AllowanceExtra)
	assert.Equal(t, int64(5000), *row.AllowanceExtra)
	assert.Equal(t, int64(45000), row.AllowanceTotal)
}

func TestService_EligibilityMode(t *testing.T) {
	f := setupEngine(t)
	seedSharedDay(t, f)

	rows, err := f.service.GetRows(f.ctx, Filter{})
	require.NoError(t, err)
	assert.True(t, rowByEducation(t, rows, "edu-A").IsCountingEligible, "confirmed education counts")
	assert.False(t, rowByEducation(t, rows, "edu-B").IsCountingEligible, "draft education does not count")

	eligible, err := f.service.GetRows(f.ctx, Filter{EligibleOnly: true})
	require.NoError(t, err)
	require.Len(t, eligible, 1)

	// switching the mode retags rows without touching any amount
	require.NoError(t, f.service.SetEligibilityMode(f.ctx, ModeCountIfAssigned))

	retagged, err := f.service.GetRows(f.ctx, Filter{})
	require.NoError(t, err)
	for _, row := range retagged {
		assert.True(t, row.IsCountingEligible)
		before := rowByEducation(t, rows, row.EducationId)
		assert.Equal(t, before.TotalPay, row.TotalPay)
		assert.Equal(t, before.TravelExpense, row.TravelExpense)
		assert.Equal(t, before.AllowanceTotal, row.AllowanceTotal)
	}

	mode, err := f.service.GetEligibilityMode(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, ModeCountIfAssigned, mode)
}

func TestService_DayOverrideRoundTrip(t *testing.T) {
	f := setupEngine(t)
	seedSharedDay(t, f)
	before, err := f.service.GetRows(f.ctx, Filter{})
	require.NoError(t, err)

	// when the shared Tuesday is corrected day-level
	expense := int64(50000)
	err = f.overrideSvc.SetDayOverride(f.ctx, "kim", tuesday, override.DayPatch{TravelExpense: &expense}, "ferry detour", nil)
	require.NoError(t, err)

	// then both sibling rows pick up the corrected amount before the call returned
	rows, err := f.service.GetRows(f.ctx, Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(70000), rowByEducation(t, rows, "edu-A").EffectiveTravelExpense())
	assert.Equal(t, int64(50000), rowByEducation(t, rows, "edu-B").EffectiveTravelExpense())

	record, found, err := f.travelRepo.GetByKey(f.ctx, "kim", tuesday)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "ferry detour", record.OverrideReason)
	assert.Equal(t, "admin-1", record.OverrideBy)

	// and removing the override reverts rows exactly
	require.NoError(t, f.overrideSvc.RemoveDayOverride(f.ctx, "kim", tuesday))
	after, err := f.service.GetRows(f.ctx, Filter{})
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestService_RowOverrideScope(t *testing.T) {
	f := setupEngine(t)
	seedSharedDay(t, f)
	rows, err := f.service.GetRows(f.ctx, Filter{})
	require.NoError(t, err)
	rowB := rowByEducation(t, rows, "edu-B")

	// travel fields of a daily-sourced row must be corrected day-level
	expense := int64(9000)
	err = f.overrideSvc.SetRowOverride(f.ctx, rowB.Id, override.RowPatch{TravelExpense: &expense}, "typo", nil)
	var scopeConflict *override.ScopeConflictError
	require.ErrorAs(t, err, &scopeConflict)

	// allowance is row-scoped and goes through
	allowanceOverride := int64(99000)
	err = f.overrideSvc.SetRowOverride(f.ctx, rowB.Id, override.RowPatch{Allowance: &allowanceOverride}, "session recount", nil)
	require.NoError(t, err)

	rows, err = f.service.GetRows(f.ctx, Filter{})
	require.NoError(t, err)
	updated := rowByEducation(t, rows, "edu-B")
	require.NotNil(t, updated.AllowanceOverride)
	assert.Equal(t, int64(99000), *updated.AllowanceOverride)
	assert.Equal(t, int64(40000), updated.AllowanceTotal, "computed value survives under the override")
	assert.Equal(t, updated.EffectiveTravelExpense()+int64(99000), updated.TotalPay)
	assert.Equal(t, "session recount", updated.OverrideReason)
}

func TestService_Recompute_DistanceUnavailable(t *testing.T) {
	f := setupEngine(t)
	f.provider.FailUnknown = true
	require.NoError(t, f.assignments.ReplaceAll(f.ctx, []assignment.Assignment{
		mkAssignment("edu-A", "kim", ratetable.RoleMain, assignment.StatusConfirmed, tuesday),
	}))

	require.NoError(t, f.service.Recompute(f.ctx))

	rows, err := f.service.GetRows(f.ctx, Filter{})
	require.NoError(t, err)
	row := rowByEducation(t, rows, "edu-A")
	assert.Equal(t, StatusPending, row.Status)
	assert.Equal(t, PendingReasonDistanceUnavailable, row.PendingReason)
	assert.Equal(t, int64(0), row.TravelExpense)
	// allowance is unaffected by the travel failure
	assert.Equal(t, int64(40000), row.AllowanceTotal)

	// a day-level expense override resolves the pending state
	expense := int64(30000)
	require.NoError(t, f.overrideSvc.SetDayOverride(f.ctx, "kim", tuesday, override.DayPatch{TravelExpense: &expense}, "manual distance", nil))

	rows, err = f.service.GetRows(f.ctx, Filter{})
	require.NoError(t, err)
	row = rowByEducation(t, rows, "edu-A")
	assert.Equal(t, StatusComputed, row.Status)
	assert.Equal(t, int64(30000), row.EffectiveTravelExpense())
}

func TestAssemble_MissingDailyRecord(t *testing.T) {
	a := mkAssignment("edu-A", "kim", ratetable.RoleMain, assignment.StatusConfirmed, tuesday, saturday)
	onlyTuesday := []travel.Record{{
		Id:              travel.RecordId("kim", tuesday),
		InstructorId:    "kim",
		Date:            tuesday,
		Stops:           []travel.Stop{{EducationId: "edu-A"}},
		TotalDistanceKm: 12,
		TravelExpense:   10000,
	}}

	rows, err := Assemble([]assignment.Assignment{a}, onlyTuesday, testTables(t), nil, ModeOnlyConfirmedEnded)

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, StatusPending, rows[0].Status)
	assert.Equal(t, PendingReasonMissingDailyRecord, rows[0].PendingReason)
	// the resolved day still contributes
	assert.Equal(t, int64(10000), rows[0].TravelExpense)
}

func TestService_RowInfo(t *testing.T) {
	f := setupEngine(t)
	seedSharedDay(t, f)
	rows, err := f.service.GetRows(f.ctx, Filter{})
	require.NoError(t, err)

	info, err := f.service.RowInfo(f.ctx, rowByEducation(t, rows, "edu-B").Id)
	require.NoError(t, err)
	assert.True(t, info.Exists)
	assert.True(t, info.DailySourced)
	assert.Equal(t, "kim", info.InstructorId)

	missing, err := f.service.RowInfo(f.ctx, travel.RecordId("nobody", tuesday))
	require.NoError(t, err)
	assert.False(t, missing.Exists)
}
