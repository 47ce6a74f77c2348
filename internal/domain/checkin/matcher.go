package checkin

import (
	"context"
	"time"

	"github.com/lindseystead/foodbank-checkin-portfolio-sub001/internal/domain/appointment"
)

// Matcher resolves arrival credentials to exactly one record. It has no
// side effects and is deterministic for a fixed store state and clock.
type Matcher struct {
	repo   appointment.RecordRepository
	loc    *time.Location
	window time.Duration

	// fallbackToEarliest keeps the legacy behavior of routing a client to
	// their earliest record when nothing is scheduled today. When false,
	// such arrivals fail with NotFound instead.
	fallbackToEarliest bool
}

// NewMatcher creates a Matcher. window is the ±distance from now used to
// prefer the nearest of several same-day records.
func NewMatcher(repo appointment.RecordRepository, loc *time.Location, window time.Duration, fallbackToEarliest bool) *Matcher {
	if loc == nil {
		loc = time.UTC
	}
	if window <= 0 {
		window = 30 * time.Minute
	}
	return &Matcher{repo: repo, loc: loc, window: window, fallbackToEarliest: fallbackToEarliest}
}

// Match selects the single record the arriving client should check in
// against, or fails with NotFound.
func (m *Matcher) Match(ctx context.Context, phoneRaw, lastName string, now time.Time) (*appointment.Record, error) {
	phone := appointment.NormalizePhone(phoneRaw)
	name := appointment.NormalizeName(lastName)

	found, err := m.repo.FindByCredentials(ctx, phone, name)
	if err != nil {
		return nil, Errorf(KindStoreUnavailable, "record store unavailable: %v", err)
	}

	var eligible []*appointment.Record
	for _, r := range found {
		if r.Status.Matchable() {
			eligible = append(eligible, r)
		}
	}

	switch len(eligible) {
	case 0:
		return nil, Errorf(KindNotFound, "no appointment found for that phone number and last name")
	case 1:
		return eligible[0], nil
	}

	// A client can hold several pending records (e.g. original plus an
	// auto-generated follow-up). Disambiguate by day, then by proximity.
	today := now.In(m.loc).Format(appointment.DateLayout)
	var todays []*appointment.Record
	for _, r := range eligible {
		if r.ScheduledAt.In(m.loc).Format(appointment.DateLayout) == today {
			todays = append(todays, r)
		}
	}

	if len(todays) == 0 {
		if !m.fallbackToEarliest {
			return nil, Errorf(KindNotFound, "no appointment scheduled for today under that phone number and last name")
		}
		return earliest(eligible), nil
	}

	if near := nearestWithin(todays, now, m.window); near != nil {
		return near, nil
	}
	// Nothing inside the window: still route to a record and let the
	// time-window validator accept or reject it explicitly.
	return earliest(todays), nil
}

// earliest returns the earliest-scheduled record. The input is sorted by
// the store, so the head is the answer.
func earliest(recs []*appointment.Record) *appointment.Record {
	best := recs[0]
	for _, r := range recs[1:] {
		if r.ScheduledAt.Before(best.ScheduledAt) {
			best = r
		}
	}
	return best
}

// nearestWithin picks the record with the smallest |scheduledAt − now|
// that is inside the window, ties going to the earlier instant. Returns
// nil when none qualify.
func nearestWithin(recs []*appointment.Record, now time.Time, window time.Duration) *appointment.Record {
	var best *appointment.Record
	var bestDist time.Duration
	for _, r := range recs {
		d := now.Sub(r.ScheduledAt)
		if d < 0 {
			d = -d
		}
		if d > window {
			continue
		}
		switch {
		case best == nil,
			d < bestDist,
			d == bestDist && r.ScheduledAt.Before(best.ScheduledAt):
			best, bestDist = r, d
		}
	}
	return best
}
