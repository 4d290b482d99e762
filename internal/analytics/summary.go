// Package analytics derives dashboard counters from a ticket set.
package analytics

import (
	"math"
	"time"

	"github.com/spec-kit/support-portal/internal/domain"
)

// Summary is the read-side aggregate shown on dashboards.
type Summary struct {
	Total              int                           `json:"total"`
	ByState            map[domain.TicketState]int    `json:"by_state"`
	Open               int                           `json:"open"`
	OpenByPriority     map[domain.TicketPriority]int `json:"open_by_priority"`
	AvgOpenHours       float64                       `json:"avg_open_hours"`
	AvgHighOpenHours   float64                       `json:"avg_high_open_hours"`
	AvgUrgentOpenHours float64                       `json:"avg_urgent_open_hours"`
	TotalHours         float64                       `json:"total_hours"`
	ResolvedOrClosed   int                           `json:"resolved_or_closed"`
	HighResolved       int                           `json:"high_resolved"`
	UrgentResolved     int                           `json:"urgent_resolved"`
	SolveRate          float64                       `json:"solve_rate"`
	TodayClosed        int                           `json:"today_closed"`
	WeeklyCloseRate    float64                       `json:"weekly_close_rate"`
	Overdue            int                           `json:"overdue"`
}

// IsOpen reports states counted as open work.
func IsOpen(state domain.TicketState) bool {
	switch state {
	case domain.TicketStateNew, domain.TicketStateAssigned, domain.TicketStateInProgress, domain.TicketStatePending:
		return true
	}
	return false
}

// Empty returns a summary with every counter present and zero.
func Empty() Summary {
	s := Summary{
		ByState:        make(map[domain.TicketState]int, len(domain.TicketStates)),
		OpenByPriority: make(map[domain.TicketPriority]int, len(domain.TicketPriorities)),
	}
	for _, state := range domain.TicketStates {
		s.ByState[state] = 0
	}
	for _, p := range domain.TicketPriorities {
		s.OpenByPriority[p] = 0
	}
	return s
}

type mean struct {
	sum   float64
	count int
}

func (m *mean) add(v float64) {
	m.sum += v
	m.count++
}

func (m mean) value() float64 {
	if m.count == 0 {
		return 0
	}
	return round(m.sum/float64(m.count), 1)
}

// Compute aggregates tickets as of now. It never divides by zero.
func Compute(tickets []domain.Ticket, now time.Time) Summary {
	s := Empty()
	s.Total = len(tickets)

	var openAge, highAge, urgentAge mean
	weekStart := now.Add(-7 * 24 * time.Hour)
	weekTotal, weekDone := 0, 0

	for i := range tickets {
		t := &tickets[i]
		s.ByState[t.State]++
		hours := t.HoursOpen(now)
		s.TotalHours += hours

		if IsOpen(t.State) {
			s.Open++
			s.OpenByPriority[t.Priority]++
			openAge.add(hours)
			switch t.Priority {
			case domain.TicketPriorityHigh:
				highAge.add(hours)
			case domain.TicketPriorityUrgent:
				urgentAge.add(hours)
			}
		}

		if t.State.Terminal() {
			s.ResolvedOrClosed++
			switch t.Priority {
			case domain.TicketPriorityHigh:
				s.HighResolved++
			case domain.TicketPriorityUrgent:
				s.UrgentResolved++
			}
			if sameDay(t.ResolvedDate, now) || sameDay(t.ClosedDate, now) {
				s.TodayClosed++
			}
		}

		if !t.CreatedAt.Before(weekStart) && !t.CreatedAt.After(now) {
			weekTotal++
			if t.State.Terminal() {
				weekDone++
			}
		}

		if t.IsOverdue(now) {
			s.Overdue++
		}
	}

	s.AvgOpenHours = openAge.value()
	s.AvgHighOpenHours = highAge.value()
	s.AvgUrgentOpenHours = urgentAge.value()
	s.TotalHours = round(s.TotalHours, 1)
	s.SolveRate = percent(s.ResolvedOrClosed, s.Total)
	s.WeeklyCloseRate = percent(weekDone, weekTotal)
	return s
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return round(float64(part)/float64(whole)*100, 2)
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

func sameDay(ts *time.Time, now time.Time) bool {
	if ts == nil {
		return false
	}
	local := ts.In(now.Location())
	y1, m1, d1 := local.Date()
	y2, m2, d2 := now.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
