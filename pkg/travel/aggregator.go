package travel

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jeongsan/jeongsan/pkg/assignment"
	"github.com/jeongsan/jeongsan/pkg/distance"
	"github.com/jeongsan/jeongsan/pkg/ratetable"
	log "github.com/sirupsen/logrus"
)

// Aggregator turns an assignment snapshot into one priced Record per
// (instructor, date) pair that has at least one session.
type Aggregator struct {
	provider distance.Provider
}

func NewAggregator(provider distance.Provider) *Aggregator {
	return &Aggregator{provider: provider}
}

type dayKey struct {
	instructorId string
	date         string
}

type dayGroup struct {
	instructorId string
	date         time.Time
	homeAddress  string
	stops        []Stop
	addresses    []string
}

// Aggregate groups sessions by instructor and date, resolves one route
// distance per group, and prices it through the distance tiers of the date's
// year. Groups are resolved in (instructor, date) order so provider calls and
// output are reproducible across passes. A failed distance lookup flags the
// record and isolates the failure to that day; an invalid rate table aborts
// the whole pass.
func (g *Aggregator) Aggregate(ctx context.Context, assignments []assignment.Assignment, tables ratetable.Provider) ([]Record, error) {
	groups := groupByDay(assignments)

	records := make([]Record, 0, len(groups))
	for _, group := range groups {
		record := Record{
			Id:           RecordId(group.instructorId, group.date),
			InstructorId: group.instructorId,
			Date:         group.date,
			Stops:        group.stops,
		}

		table, err := tables.ForYear(group.date.Year())
		if err != nil {
			return nil, err
		}

		route, err := g.provider.RouteDistance(ctx, group.addresses)
		var unavailable *distance.UnavailableError
		if errors.As(err, &unavailable) {
			log.Warnf("distance unavailable for instructor %s on %s: %v",
				group.instructorId, group.date.Format("2006-01-02"), err)
			record.NeedsDistance = true
			records = append(records, record)
			continue
		} else if err != nil {
			return nil, fmt.Errorf("route distance lookup failed: %w", err)
		}

		expense, err := table.TravelExpense(route.TotalDistanceKm)
		if err != nil {
			return nil, err
		}

		record.TotalDistanceKm = route.TotalDistanceKm
		record.TravelExpense = expense
		record.RouteMapUrl = route.MapImageUrl
		records = append(records, record)
	}
	return records, nil
}

func groupByDay(assignments []assignment.Assignment) []dayGroup {
	byKey := make(map[dayKey]*dayGroup)
	for _, a := range assignments {
		for _, day := range a.SessionDays() {
			key := dayKey{a.Instructor.Id, day.Format("2006-01-02")}
			group, ok := byKey[key]
			if !ok {
				group = &dayGroup{
					instructorId: a.Instructor.Id,
					date:         day,
					homeAddress:  a.Instructor.HomeAddress,
				}
				byKey[key] = group
			}
			group.stops = append(group.stops, Stop{
				EducationId:        a.EducationId,
				EducationName:      a.EducationName,
				InstitutionName:    a.Institution.Name,
				InstitutionAddress: a.Institution.Address,
			})
		}
	}

	groups := make([]dayGroup, 0, len(byKey))
	for _, group := range byKey {
		// No explicit session times are available in the feed, so the visiting
		// order falls back to the deterministic educationId tie-break.
		sort.Slice(group.stops, func(i, j int) bool {
			return group.stops[i].EducationId < group.stops[j].EducationId
		})
		group.addresses = make([]string, 0, len(group.stops)+2)
		group.addresses = append(group.addresses, group.homeAddress)
		for _, stop := range group.stops {
			group.addresses = append(group.addresses, stop.InstitutionAddress)
		}
		group.addresses = append(group.addresses, group.homeAddress)
		groups = append(groups, *group)
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].instructorId != groups[j].instructorId {
			return groups[i].instructorId < groups[j].instructorId
		}
		return groups[i].date.Before(groups[j].date)
	})
	return groups
}
