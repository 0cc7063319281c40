package allowance

import (
	"testing"
	"time"

	"github.com/jeongsan/jeongsan/pkg/assignment"
	"github.com/jeongsan/jeongsan/pkg/ratetable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRateTable() ratetable.RateTable {
	rates := map[ratetable.Role]map[ratetable.Category]int64{}
	for _, role := range ratetable.AllRoles {
		rates[role] = map[ratetable.Category]int64{}
		for _, category := range ratetable.AllCategories {
			rates[role][category] = 30000
		}
	}
	rates[ratetable.RoleMain][ratetable.CategoryElementary] = 40000
	rates[ratetable.RoleAssistant][ratetable.CategoryElementary] = 25000
	return ratetable.RateTable{
		Year:               2025,
		DistanceTiers:      []ratetable.DistanceTier{{MinKm: 0, Amount: 10000}},
		SessionRates:       rates,
		WeekendSessionRate: 10000,
		ExtraAllowance:     ratetable.ExtraAllowance{StudentThreshold: 15, SessionRate: 5000},
	}
}

// day returns a date with the given weekday in June 2025 (June 2 was a Monday).
func day(weekday time.Weekday) time.Time {
	return time.Date(2025, 6, 2+int(weekday-time.Monday), 0, 0, 0, 0, time.UTC)
}

func TestCompute(t *testing.T) {
	testCases := []struct {
		name        string
		assignment  assignment.Assignment
		wantBase    int64
		wantWeekend int64
		wantExtra   *int64
		wantTotal   int64
	}{
		{
			name: "main instructor with weekend sessions and a large unassisted class",
			assignment: assignment.Assignment{
				Role:        ratetable.RoleMain,
				Institution: assignment.Institution{Category: ratetable.CategoryElementary},
				SessionDates: []time.Time{
					day(time.Tuesday), day(time.Thursday),
					day(time.Saturday), day(time.Sunday),
				},
				TotalSessions: 4,
				StudentCount:  20,
				HasAssistant:  false,
			},
			wantBase:    160000,
			wantWeekend: 20000,
			wantExtra:   ptr(int64(20000)),
			wantTotal:   200000,
		},
		{
			name: "assistant never gets the extra allowance",
			assignment: assignment.Assignment{
				Role:          ratetable.RoleAssistant,
				Institution:   assignment.Institution{Category: ratetable.CategoryElementary},
				SessionDates:  []time.Time{day(time.Monday), day(time.Wednesday)},
				TotalSessions: 2,
				StudentCount:  30,
			},
			wantBase:    50000,
			wantWeekend: 0,
			wantExtra:   nil,
			wantTotal:   50000,
		},
		{
			name: "assistant presence disqualifies the extra allowance",
			assignment: assignment.Assignment{
				Role:          ratetable.RoleMain,
				Institution:   assignment.Institution{Category: ratetable.CategoryElementary},
				SessionDates:  []time.Time{day(time.Monday)},
				TotalSessions: 1,
				StudentCount:  20,
				HasAssistant:  true,
			},
			wantBase:    40000,
			wantWeekend: 0,
			wantExtra:   nil,
			wantTotal:   40000,
		},
		{
			name: "class below the threshold gets no extra allowance",
			assignment: assignment.Assignment{
				Role:          ratetable.RoleMain,
				Institution:   assignment.Institution{Category: ratetable.CategoryElementary},
				SessionDates:  []time.Time{day(time.Monday)},
				TotalSessions: 1,
				StudentCount:  14,
			},
			wantBase:    40000,
			wantWeekend: 0,
			wantExtra:   nil,
			wantTotal:   40000,
		},
		{
			name: "class exactly at the threshold qualifies",
			assignment: assignment.Assignment{
				Role:          ratetable.RoleMain,
				Institution:   assignment.Institution{Category: ratetable.CategoryElementary},
				SessionDates:  []time.Time{day(time.Monday)},
				TotalSessions: 1,
				StudentCount:  15,
			},
			wantBase:    40000,
			wantWeekend: 0,
			wantExtra:   ptr(int64(5000)),
			wantTotal:   45000,
		},
		{
			name: "two sessions on the same weekend day both count",
			assignment: assignment.Assignment{
				Role:        ratetable.RoleMain,
				Institution: assignment.Institution{Category: ratetable.CategoryElementary},
				SessionDates: []time.Time{
					day(time.Saturday), day(time.Saturday),
				},
				TotalSessions: 2,
				StudentCount:  5,
			},
			wantBase:    80000,
			wantWeekend: 20000,
			wantExtra:   nil,
			wantTotal:   100000,
		},
	}

	rt := testRateTable()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			breakdown, err := Compute(tc.assignment, rt)

			require.NoError(t, err)
			assert.Equal(t, tc.wantBase, breakdown.Base)
			assert.Equal(t, tc.wantWeekend, breakdown.Weekend)
			assert.Equal(t, tc.wantExtra, breakdown.Extra)
			assert.Equal(t, tc.wantTotal, breakdown.Total())
		})
	}
}

func TestCompute_UnknownCategory(t *testing.T) {
	rt := testRateTable()
	delete(rt.SessionRates[ratetable.RoleMain], ratetable.CategoryIsland)

	_, err := Compute(assignment.Assignment{
		Role:        ratetable.RoleMain,
		Institution: assignment.Institution{Category: ratetable.CategoryIsland},
	}, rt)

	var invalid *ratetable.InvalidRateTableError
	require.ErrorAs(t, err, &invalid)
}

func ptr[T any](v T) *T {
	return &v
}
