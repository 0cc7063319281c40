package ratetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTable(year int) RateTable {
	max20 := 20.0
	max50 := 50.0
	rates := map[Role]map[Category]int64{}
	for _, role := range AllRoles {
		rates[role] = map[Category]int64{}
		for _, category := range AllCategories {
			rates[role][category] = 40000
		}
	}
	return RateTable{
		Year: year,
		DistanceTiers: []DistanceTier{
			{MinKm: 0, MaxKm: &max20, Amount: 10000},
			{MinKm: 20, MaxKm: &max50, Amount: 20000},
			{MinKm: 50, MaxKm: nil, Amount: 35000},
		},
		SessionRates:       rates,
		WeekendSessionRate: 10000,
		ExtraAllowance:     ExtraAllowance{StudentThreshold: 15, SessionRate: 5000},
	}
}

func TestRateTable_Validate(t *testing.T) {
	max50 := 50.0
	max60 := 60.0

	testCases := []struct {
		name       string
		mutate     func(rt *RateTable)
		wantReason string
	}{
		{
			name:   "valid table passes",
			mutate: func(rt *RateTable) {},
		},
		{
			name: "first tier must start at zero",
			mutate: func(rt *RateTable) {
				rt.DistanceTiers[0].MinKm = 5
			},
			wantReason: "expected 0",
		},
		{
			name: "gap between tiers is rejected",
			mutate: func(rt *RateTable) {
				rt.DistanceTiers[1] = DistanceTier{MinKm: 30, MaxKm: &max50, Amount: 20000}
			},
			wantReason: "contiguous",
		},
		{
			name: "overlapping tiers are rejected",
			mutate: func(rt *RateTable) {
				rt.DistanceTiers[1] = DistanceTier{MinKm: 10, MaxKm: &max50, Amount: 20000}
			},
			wantReason: "contiguous",
		},
		{
			name: "last tier must be open-ended",
			mutate: func(rt *RateTable) {
				rt.DistanceTiers[2].MaxKm = &max60
			},
			wantReason: "open-ended",
		},
		{
			name: "closed tier in the middle must have a max",
			mutate: func(rt *RateTable) {
				rt.DistanceTiers[0].MaxKm = nil
			},
			wantReason: "",
		},
		{
			name: "missing role/category session rate is rejected",
			mutate: func(rt *RateTable) {
				delete(rt.SessionRates[RoleAssistant], CategoryIsland)
			},
			wantReason: "session rate",
		},
		{
			name: "no tiers at all",
			mutate: func(rt *RateTable) {
				rt.DistanceTiers = nil
			},
			wantReason: "no distance tiers",
		},
		{
			name: "extra allowance threshold must be positive",
			mutate: func(rt *RateTable) {
				rt.ExtraAllowance.StudentThreshold = 0
			},
			wantReason: "threshold",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rt := validTable(2025)
			tc.mutate(&rt)

			err := rt.Validate()

			if tc.name == "valid table passes" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var invalid *InvalidRateTableError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, 2025, invalid.Year)
			if tc.wantReason != "" {
				assert.Contains(t, invalid.Reason, tc.wantReason)
			}
		})
	}
}

func TestRateTable_TravelExpense(t *testing.T) {
	rt := validTable(2025)

	testCases := []struct {
		name string
		km   float64
		want int64
	}{
		{"zero distance falls in first tier", 0, 10000},
		{"just below first boundary", 19.99, 10000},
		{"boundary belongs to the next tier", 20, 20000},
		{"middle tier", 35.5, 20000},
		{"open-ended tier has no upper bound", 5000, 35000},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			amount, err := rt.TravelExpense(tc.km)

			require.NoError(t, err)
			assert.Equal(t, tc.want, amount)
		})
	}
}

func TestRateTable_SessionRate(t *testing.T) {
	rt := validTable(2025)
	rt.SessionRates[RoleMain][CategoryIsland] = 55000

	rate, err := rt.SessionRate(RoleMain, CategoryIsland)

	require.NoError(t, err)
	assert.Equal(t, int64(55000), rate)
}

func TestNewTables(t *testing.T) {
	t.Run("rejects duplicate years", func(t *testing.T) {
		_, err := NewTables(validTable(2025), validTable(2025))

		var invalid *InvalidRateTableError
		require.ErrorAs(t, err, &invalid)
		assert.Contains(t, invalid.Reason, "duplicate")
	})

	t.Run("missing year is an invalid table error", func(t *testing.T) {
		tables, err := NewTables(validTable(2025))
		require.NoError(t, err)

		_, err = tables.ForYear(2024)

		var invalid *InvalidRateTableError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, 2024, invalid.Year)
	})

	t.Run("returns the table of the requested year", func(t *testing.T) {
		tables, err := NewTables(validTable(2025), validTable(2026))
		require.NoError(t, err)

		rt, err := tables.ForYear(2026)

		require.NoError(t, err)
		assert.Equal(t, 2026, rt.Year)
	})
}
