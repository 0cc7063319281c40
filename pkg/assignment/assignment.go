package assignment

import (
	"sort"
	"time"

	"github.com/jeongsan/jeongsan/pkg/ratetable"
)

// Status is the lifecycle state of an education, owned by the external
// scheduling system.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusConfirmed Status = "CONFIRMED"
	StatusEnded     Status = "ENDED"
	StatusCancelled Status = "CANCELLED"
)

type Institution struct {
	Id       string
	Name     string
	Category ratetable.Category
	Address  string
}

type Instructor struct {
	Id          string
	Name        string
	HomeAddress string
}

// Assignment is one instructor's engagement on one education in one role.
// It is an immutable snapshot per computation pass; the scheduling system owns
// its lifecycle.
type Assignment struct {
	Id            string
	EducationId   string
	EducationName string
	Institution   Institution
	Instructor    Instructor
	Role          ratetable.Role
	PeriodStart   time.Time
	PeriodEnd     time.Time
	// SessionDates may repeat a date: two sessions taught on the same day are
	// two entries.
	SessionDates  []time.Time
	TotalSessions int
	StudentCount  int
	HasAssistant  bool
	Status        Status
}

// SessionDays returns the distinct calendar dates of the assignment's
// sessions, ascending. Travel is priced per day, not per session.
func (a Assignment) SessionDays() []time.Time {
	seen := make(map[string]bool, len(a.SessionDates))
	days := make([]time.Time, 0, len(a.SessionDates))
	for _, d := range a.SessionDates {
		day := d.Truncate(24 * time.Hour)
		key := day.Format("2006-01-02")
		if seen[key] {
			continue
		}
		seen[key] = true
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// WeekendSessionCount counts sessions falling on Saturday or Sunday. Multiple
// sessions on the same weekend day each count.
func (a Assignment) WeekendSessionCount() int {
	count := 0
	for _, d := range a.SessionDates {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			count++
		}
	}
	return count
}
