package assignment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAssignment_SessionDays(t *testing.T) {
	morning := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	afternoon := time.Date(2025, 6, 10, 14, 0, 0, 0, time.UTC)
	later := time.Date(2025, 6, 12, 9, 0, 0, 0, time.UTC)
	earlier := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	a := Assignment{SessionDates: []time.Time{later, morning, afternoon, earlier}}

	days := a.SessionDays()

	assert.Equal(t, []time.Time{
		time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC),
	}, days)
}

func TestAssignment_SessionDays_Empty(t *testing.T) {
	assert.Empty(t, Assignment{}.SessionDays())
}

func TestAssignment_WeekendSessionCount(t *testing.T) {
	saturday := time.Date(2025, 6, 7, 10, 0, 0, 0, time.UTC)
	sunday := time.Date(2025, 6, 8, 10, 0, 0, 0, time.UTC)
	monday := time.Date(2025, 6, 9, 10, 0, 0, 0, time.UTC)

	a := Assignment{SessionDates: []time.Time{saturday, saturday, sunday, monday}}

	assert.Equal(t, 3, a.WeekendSessionCount())
}
