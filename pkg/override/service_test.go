package override

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jeongsan/jeongsan/internal/event_bus"
	"github.com/jeongsan/jeongsan/internal/utils"
	"github.com/jeongsan/jeongsan/pkg/operator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	singleRowId = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	dailyRowId  = uuid.MustParse("22222222-2222-2222-2222-222222222222")
)

func stubRowInfo(ctx context.Context, rowId uuid.UUID) (RowInfo, error) {
	switch rowId {
	case singleRowId:
		return RowInfo{Exists: true, DailySourced: false, InstructorId: "kim"}, nil
	case dailyRowId:
		return RowInfo{Exists: true, DailySourced: true, InstructorId: "kim"}, nil
	}
	return RowInfo{}, nil
}

func setupServiceTest(t *testing.T) (*ServiceImpl, *StubRepository, *utils.MockClock, context.Context) {
	t.Helper()
	repo := NewStubRepository()
	clock := &utils.MockClock{FixedNow: time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)}
	service := NewService(repo, stubRowInfo, clock, event_bus.NewEventBus())
	ctx := operator.WithOperator(context.Background(), operator.Operator{Id: 1, Uid: "admin-1", DisplayName: "Admin"})
	return service, repo, clock, ctx
}

func ptr[T any](v T) *T {
	return &v
}

func TestService_SetRowOverride(t *testing.T) {
	t.Run("records value, reason, author and timestamp", func(t *testing.T) {
		service, repo, clock, ctx := setupServiceTest(t)

		err := service.SetRowOverride(ctx, singleRowId, RowPatch{TravelExpense: ptr(int64(15000))}, "toll road detour", nil)

		require.NoError(t, err)
		stored, found, err := repo.GetRowOverride(ctx, singleRowId)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, ptr(int64(15000)), stored.TravelExpense)
		assert.Equal(t, "toll road detour", stored.Reason)
		assert.Equal(t, "admin-1", stored.By)
		assert.Equal(t, clock.FixedNow, stored.At)
	})

	t.Run("requires a reason", func(t *testing.T) {
		service, _, _, ctx := setupServiceTest(t)

		err := service.SetRowOverride(ctx, singleRowId, RowPatch{Allowance: ptr(int64(1))}, "", nil)

		assert.ErrorIs(t, err, ErrReasonRequired)
	})

	t.Run("requires an operator in context", func(t *testing.T) {
		service, _, _, _ := setupServiceTest(t)

		err := service.SetRowOverride(context.Background(), singleRowId, RowPatch{Allowance: ptr(int64(1))}, "fix", nil)

		assert.ErrorIs(t, err, operator.ErrNoOperator)
	})

	t.Run("unknown row is rejected", func(t *testing.T) {
		service, _, _, ctx := setupServiceTest(t)

		err := service.SetRowOverride(ctx, uuid.New(), RowPatch{Allowance: ptr(int64(1))}, "fix", nil)

		assert.ErrorIs(t, err, ErrRowNotFound)
	})

	t.Run("travel fields of a daily-sourced row are scope-conflicted", func(t *testing.T) {
		service, _, _, ctx := setupServiceTest(t)

		err := service.SetRowOverride(ctx, dailyRowId, RowPatch{TravelExpense: ptr(int64(9000))}, "fix", nil)

		var scopeConflict *ScopeConflictError
		require.ErrorAs(t, err, &scopeConflict)
		assert.Equal(t, dailyRowId, scopeConflict.RowId)
	})

	t.Run("allowance of a daily-sourced row can still be overridden", func(t *testing.T) {
		service, repo, _, ctx := setupServiceTest(t)

		err := service.SetRowOverride(ctx, dailyRowId, RowPatch{Allowance: ptr(int64(90000))}, "session recount", nil)

		require.NoError(t, err)
		_, found, _ := repo.GetRowOverride(ctx, dailyRowId)
		assert.True(t, found)
	})

	t.Run("stale expected timestamp is rejected", func(t *testing.T) {
		service, _, clock, ctx := setupServiceTest(t)
		require.NoError(t, service.SetRowOverride(ctx, singleRowId, RowPatch{Allowance: ptr(int64(1000))}, "first", nil))

		clock.SetNow(clock.FixedNow.Add(time.Hour))
		staleRead := time.Date(2025, 6, 30, 9, 0, 0, 0, time.UTC)
		err := service.SetRowOverride(ctx, singleRowId, RowPatch{Allowance: ptr(int64(2000))}, "second", &staleRead)

		var stale *StaleWriteError
		require.ErrorAs(t, err, &stale)
		assert.Equal(t, time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC), stale.CurrentAt)
	})

	t.Run("matching expected timestamp wins", func(t *testing.T) {
		service, repo, clock, ctx := setupServiceTest(t)
		require.NoError(t, service.SetRowOverride(ctx, singleRowId, RowPatch{Allowance: ptr(int64(1000))}, "first", nil))
		firstAt := clock.FixedNow

		clock.SetNow(firstAt.Add(time.Hour))
		err := service.SetRowOverride(ctx, singleRowId, RowPatch{Allowance: ptr(int64(2000))}, "second", &firstAt)

		require.NoError(t, err)
		stored, _, _ := repo.GetRowOverride(ctx, singleRowId)
		assert.Equal(t, ptr(int64(2000)), stored.Allowance)
		assert.Equal(t, "second", stored.Reason)
	})

	t.Run("later write wins per field", func(t *testing.T) {
		service, repo, clock, ctx := setupServiceTest(t)
		require.NoError(t, service.SetRowOverride(ctx, singleRowId, RowPatch{DistanceKm: ptr(33.0)}, "distance fix", nil))

		clock.SetNow(clock.FixedNow.Add(time.Minute))
		require.NoError(t, service.SetRowOverride(ctx, singleRowId, RowPatch{TravelExpense: ptr(int64(18000))}, "expense fix", nil))

		stored, _, _ := repo.GetRowOverride(ctx, singleRowId)
		assert.Equal(t, ptr(33.0), stored.DistanceKm)
		assert.Equal(t, ptr(int64(18000)), stored.TravelExpense)
		assert.Equal(t, "expense fix", stored.Reason)
	})
}

func TestService_RemoveRowOverride(t *testing.T) {
	t.Run("removes an existing override", func(t *testing.T) {
		service, repo, _, ctx := setupServiceTest(t)
		require.NoError(t, service.SetRowOverride(ctx, singleRowId, RowPatch{Allowance: ptr(int64(1000))}, "fix", nil))

		err := service.RemoveRowOverride(ctx, singleRowId)

		require.NoError(t, err)
		_, found, _ := repo.GetRowOverride(ctx, singleRowId)
		assert.False(t, found)
	})

	t.Run("removing a missing override is a no-op", func(t *testing.T) {
		service, _, _, ctx := setupServiceTest(t)

		assert.NoError(t, service.RemoveRowOverride(ctx, singleRowId))
	})
}

func TestService_SetDayOverride(t *testing.T) {
	date := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

	t.Run("records a day-scoped correction", func(t *testing.T) {
		service, repo, clock, ctx := setupServiceTest(t)

		err := service.SetDayOverride(ctx, "kim", date, DayPatch{DistanceKm: ptr(55.0), TravelExpense: ptr(int64(35000))}, "ferry crossing", nil)

		require.NoError(t, err)
		stored, found, err := repo.GetDayOverride(ctx, "kim", date)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, ptr(55.0), stored.DistanceKm)
		assert.Equal(t, ptr(int64(35000)), stored.TravelExpense)
		assert.Equal(t, "ferry crossing", stored.Reason)
		assert.Equal(t, "admin-1", stored.By)
		assert.Equal(t, clock.FixedNow, stored.At)
	})

	t.Run("requires a reason", func(t *testing.T) {
		service, _, _, ctx := setupServiceTest(t)

		err := service.SetDayOverride(ctx, "kim", date, DayPatch{DistanceKm: ptr(55.0)}, "", nil)

		assert.ErrorIs(t, err, ErrReasonRequired)
	})

	t.Run("stale expected timestamp is rejected", func(t *testing.T) {
		service, _, clock, ctx := setupServiceTest(t)
		require.NoError(t, service.SetDayOverride(ctx, "kim", date, DayPatch{DistanceKm: ptr(55.0)}, "first", nil))

		clock.SetNow(clock.FixedNow.Add(time.Hour))
		staleRead := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
		err := service.SetDayOverride(ctx, "kim", date, DayPatch{DistanceKm: ptr(60.0)}, "second", &staleRead)

		var stale *StaleWriteError
		assert.ErrorAs(t, err, &stale)
	})

	t.Run("removing a missing day override is a no-op", func(t *testing.T) {
		service, _, _, ctx := setupServiceTest(t)

		assert.NoError(t, service.RemoveDayOverride(ctx, "kim", date))
	})
}
