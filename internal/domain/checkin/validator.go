package checkin

import (
	"time"

	"github.com/lindseystead/foodbank-checkin-portfolio-sub001/internal/domain/appointment"
)

// DefaultTolerance is how far either side of the scheduled instant a
// check-in is accepted.
const DefaultTolerance = 30 * time.Minute

// Validator applies the arrival time-window rules. It is pure; the
// orchestrator mutates the store only after acceptance.
type Validator struct {
	Tolerance time.Duration
}

// NewValidator creates a Validator, defaulting the tolerance.
func NewValidator(tolerance time.Duration) Validator {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return Validator{Tolerance: tolerance}
}

// Validate accepts or rejects a check-in for the matched record at now.
// Rules are evaluated in order: terminal status, too early, too late.
func (v Validator) Validate(rec *appointment.Record, now time.Time) error {
	if rec.Status.Terminal() {
		return Errorf(KindAlreadyCheckedIn, "this appointment was already checked in")
	}
	sched := rec.ScheduledAt
	if now.Before(sched.Add(-v.Tolerance)) {
		return Errorf(KindTooEarly, "too early: your pickup is scheduled for %s; check-in opens %d minutes before",
			rec.ScheduledTime, int(v.Tolerance.Minutes()))
	}
	if now.After(sched.Add(v.Tolerance)) {
		late := int(now.Sub(sched).Minutes())
		return Errorf(KindTooLate, "too late: you are %d minutes past the %s pickup window",
			late, rec.ScheduledTime)
	}
	return nil
}
