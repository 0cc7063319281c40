package assignment

import (
	"context"
	"testing"
	"time"

	"github.com/jeongsan/jeongsan/internal/test_utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_ReplaceAllAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-backed repository test in short mode")
	}
	db := test_utils.SetupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	saturday := time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)
	weekday := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	doubleSession := validAssignment("a1")
	doubleSession.SessionDates = []time.Time{weekday, saturday, saturday}
	doubleSession.TotalSessions = 3
	other := validAssignment("a2")
	other.EducationId = "edu-2"
	other.Instructor = Instructor{Id: "lee", Name: "Lee", HomeAddress: "Home Street 2"}

	require.NoError(t, repo.ReplaceAll(ctx, []Assignment{doubleSession, other}))

	t.Run("keeps two sessions on the same day", func(t *testing.T) {
		got, err := repo.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, got, 2)

		a1 := got[0]
		require.Len(t, a1.SessionDates, 3)
		assert.True(t, a1.SessionDates[1].Equal(saturday))
		assert.True(t, a1.SessionDates[2].Equal(saturday))
		assert.Equal(t, 2, a1.WeekendSessionCount())
		days := a1.SessionDays()
		require.Len(t, days, 2)
		assert.True(t, days[0].Equal(weekday))
		assert.True(t, days[1].Equal(saturday))
	})

	t.Run("round-trips the snapshot fields", func(t *testing.T) {
		got, err := repo.GetAll(ctx)
		require.NoError(t, err)

		a2 := got[1]
		assert.Equal(t, "edu-2", a2.EducationId)
		assert.Equal(t, "lee", a2.Instructor.Id)
		assert.Equal(t, StatusConfirmed, a2.Status)
		assert.True(t, a2.PeriodStart.Equal(doubleSession.PeriodStart))
	})

	t.Run("a second ReplaceAll supersedes the previous snapshot", func(t *testing.T) {
		require.NoError(t, repo.ReplaceAll(ctx, []Assignment{other}))

		got, err := repo.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "a2", got[0].Id)
	})
}
