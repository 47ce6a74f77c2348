// Package scheduling computes the follow-up appointment a client receives
// at check-in: at least the minimum offset out, on an open weekday, at the
// catalog slot closest to the client's usual time.
package scheduling

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lindseystead/foodbank-checkin-portfolio-sub001/internal/platform/calendar"
)

// ErrInvalidDate is returned when a manually requested date or time
// violates the spacing, weekday or holiday rules.
var ErrInvalidDate = errors.New("invalid date")

// Slot is a fixed time-of-day in the pickup catalog.
type Slot struct {
	Hour   int
	Minute int
}

// Minutes is the slot's offset from midnight.
func (s Slot) Minutes() int { return s.Hour*60 + s.Minute }

// String renders the slot in clock form, e.g. "9:30 AM".
func (s Slot) String() string {
	return time.Date(0, 1, 1, s.Hour, s.Minute, 0, 0, time.UTC).Format("3:04 PM")
}

// DefaultSlots is the service's fixed pickup-time catalog. The midpoint
// (10:00) doubles as the fallback when an origin record carries no usable
// time-of-day.
var DefaultSlots = []Slot{
	{Hour: 9, Minute: 0},
	{Hour: 9, Minute: 30},
	{Hour: 10, Minute: 0},
	{Hour: 10, Minute: 30},
	{Hour: 11, Minute: 0},
}

const (
	// DefaultMinOffsetDays is the recurring cadence: follow-ups are booked
	// no sooner than this many days out.
	DefaultMinOffsetDays = 21

	// maxAdvance bounds the day-by-day search past closures. Hitting it
	// means the calendar is malformed; the planner then ignores closures
	// rather than failing the check-in.
	maxAdvance = 10
)

// Plan is a resolved follow-up appointment.
type Plan struct {
	At     time.Time
	Date   string
	Time   string
	Ticket string
}

// Planner computes follow-up plans against a fixed local calendar.
type Planner struct {
	loc           *time.Location
	slots         []Slot
	minOffsetDays int
	logger        zerolog.Logger
}

// NewPlanner creates a Planner. Nil/zero arguments fall back to
// DefaultSlots and DefaultMinOffsetDays.
func NewPlanner(loc *time.Location, slots []Slot, minOffsetDays int, logger zerolog.Logger) *Planner {
	if loc == nil {
		loc = time.UTC
	}
	if len(slots) == 0 {
		slots = DefaultSlots
	}
	if minOffsetDays <= 0 {
		minOffsetDays = DefaultMinOffsetDays
	}
	return &Planner{loc: loc, slots: slots, minOffsetDays: minOffsetDays, logger: logger}
}

// Location returns the planner's service-local timezone.
func (p *Planner) Location() *time.Location { return p.loc }

// Next computes the follow-up for a check-in happening at now, for an
// origin appointment at origin. A zero origin is allowed and only affects
// the time-of-day fallback.
func (p *Planner) Next(now, origin time.Time) Plan {
	allowed := p.allowedWeekdays(origin)

	// Day arithmetic runs in the local calendar, not UTC, so a check-in
	// near midnight or a DST shift can't move the date by one.
	local := now.In(p.loc)
	cand := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, p.loc)
	cand = cand.AddDate(0, 0, p.minOffsetDays)

	advanced := 0
	for !allowed[cand.Weekday()] || calendar.IsClosed(cand) {
		if advanced >= maxAdvance {
			// Malformed calendar safety valve: settle for the next
			// allowed weekday and let staff sort out the closure.
			for !allowed[cand.Weekday()] {
				cand = cand.AddDate(0, 0, 1)
			}
			p.logger.Warn().
				Str("date", cand.Format("2006-01-02")).
				Int("advanced", advanced).
				Msg("follow-up search exceeded advance bound; ignoring closures")
			break
		}
		cand = cand.AddDate(0, 0, 1)
		advanced++
	}

	slot := p.nearestSlot(origin)
	at := time.Date(cand.Year(), cand.Month(), cand.Day(), slot.Hour, slot.Minute, 0, 0, p.loc)
	return Plan{
		At:     at,
		Date:   at.Format("2006-01-02"),
		Time:   at.Format("3:04 PM"),
		Ticket: NewTicket(),
	}
}

// ValidateManual checks an admin- or client-requested instant against the
// same spacing, weekday, holiday and catalog rules the automatic planner
// applies. origin carries the record's current schedule (for the Saturday
// rule); it may be zero.
func (p *Planner) ValidateManual(now, origin, candidate time.Time) error {
	local := now.In(p.loc)
	earliest := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, p.loc).
		AddDate(0, 0, p.minOffsetDays)
	c := candidate.In(p.loc)
	if c.Before(earliest) {
		return fmt.Errorf("%w: %s is sooner than the %d-day minimum (earliest %s)",
			ErrInvalidDate, c.Format("2006-01-02"), p.minOffsetDays, earliest.Format("2006-01-02"))
	}
	if !p.allowedWeekdays(origin)[c.Weekday()] {
		return fmt.Errorf("%w: %s falls on a %s", ErrInvalidDate, c.Format("2006-01-02"), c.Weekday())
	}
	if calendar.IsClosed(c) {
		return fmt.Errorf("%w: the service is closed on %s", ErrInvalidDate, c.Format("2006-01-02"))
	}
	if !p.inCatalog(c) {
		return fmt.Errorf("%w: %s is not an offered pickup time (%s)",
			ErrInvalidDate, c.Format("3:04 PM"), p.catalogText())
	}
	return nil
}

// allowedWeekdays is Mon-Fri, extended with Saturday when the origin
// appointment fell on one, preserving a client's established cadence.
func (p *Planner) allowedWeekdays(origin time.Time) map[time.Weekday]bool {
	allowed := map[time.Weekday]bool{
		time.Monday: true, time.Tuesday: true, time.Wednesday: true,
		time.Thursday: true, time.Friday: true,
	}
	if !origin.IsZero() && origin.In(p.loc).Weekday() == time.Saturday {
		allowed[time.Saturday] = true
	}
	return allowed
}

// nearestSlot picks the catalog slot with the minimum absolute minute
// distance to the origin's time-of-day. Ties go to the earlier catalog
// entry. A zero origin targets the catalog midpoint.
func (p *Planner) nearestSlot(origin time.Time) Slot {
	target := p.slots[len(p.slots)/2].Minutes()
	if !origin.IsZero() {
		local := origin.In(p.loc)
		target = local.Hour()*60 + local.Minute()
	}
	best := p.slots[0]
	bestDist := abs(best.Minutes() - target)
	for _, s := range p.slots[1:] {
		if d := abs(s.Minutes() - target); d < bestDist {
			best, bestDist = s, d
		}
	}
	return best
}

func (p *Planner) inCatalog(t time.Time) bool {
	for _, s := range p.slots {
		if t.Hour() == s.Hour && t.Minute() == s.Minute {
			return true
		}
	}
	return false
}

func (p *Planner) catalogText() string {
	names := make([]string, len(p.slots))
	for i, s := range p.slots {
		names[i] = s.String()
	}
	return strings.Join(names, ", ")
}

// NewTicket generates a short unique ticket number for the confirmation
// screen and printed slip.
func NewTicket() string {
	return "FB-" + strings.ToUpper(uuid.New().String()[:8])
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
