/*
calendar.go - Team calendar read-model

PURPOSE:
  Projects a team's leave requests onto the date grid of one month, for
  manager views. Pure projection: no side effects, no cache, re-derived
  from committed state on every call.

WHAT IS SHOWN:
  Pending and approved requests (both are visible in calendar views;
  rejected and cancelled are not). A half-day request still occupies its
  single calendar date. Holidays in the month are attached to their dates
  as display annotations; they do not affect request durations.
*/
package leave

import (
	"context"
	"sort"
	"time"
)

// =============================================================================
// CALENDAR ENTRIES
// =============================================================================

// CalendarEntry is one day of the month grid.
type CalendarEntry struct {
	Date     Date
	Holidays []Holiday
	Requests []LeaveRequest
}

// Aggregator builds team calendar views.
type Aggregator struct {
	requests  RequestStore
	employees EmployeeStore
	holidays  HolidayStore
}

func NewAggregator(requests RequestStore, employees EmployeeStore, holidays HolidayStore) *Aggregator {
	return &Aggregator{requests: requests, employees: employees, holidays: holidays}
}

// TeamCalendar returns one entry per day of (year, month) with the team's
// visible requests and the month's holidays attached. Requests within an
// entry are ordered by code for determinism.
func (a *Aggregator) TeamCalendar(ctx context.Context, teamID TeamID, year int, month time.Month) ([]CalendarEntry, error) {
	members, err := a.employees.ListTeamMembers(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, &NotFoundError{Kind: "team", ID: string(teamID)}
	}

	userIDs := make([]UserID, len(members))
	for i, m := range members {
		userIDs[i] = m.ID
	}

	from := StartOfMonth(year, month)
	to := EndOfMonth(year, month)

	reqs, err := a.requests.ListRequestsOverlapping(ctx, userIDs, from, to)
	if err != nil {
		return nil, err
	}

	visible := reqs[:0]
	for _, r := range reqs {
		if r.Status == StatusPending || r.Status == StatusApproved {
			visible = append(visible, r)
		}
	}

	hols, err := a.holidays.ListHolidays(ctx, year)
	if err != nil {
		return nil, err
	}
	holidaysByDate := make(map[Date][]Holiday)
	for _, h := range hols {
		if h.Date.Month() == month {
			holidaysByDate[h.Date] = append(holidaysByDate[h.Date], h)
		}
	}

	var entries []CalendarEntry
	for day := from; !day.After(to); day = day.AddDays(1) {
		entry := CalendarEntry{Date: day, Holidays: holidaysByDate[day]}
		for _, r := range visible {
			if r.Occupies(day) {
				entry.Requests = append(entry.Requests, r)
			}
		}
		sort.Slice(entry.Requests, func(i, j int) bool {
			return entry.Requests[i].Code < entry.Requests[j].Code
		})
		entries = append(entries, entry)
	}
	return entries, nil
}
