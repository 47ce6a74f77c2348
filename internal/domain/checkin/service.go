package checkin

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lindseystead/foodbank-checkin-portfolio-sub001/internal/domain/appointment"
	"github.com/lindseystead/foodbank-checkin-portfolio-sub001/internal/platform/scheduling"
)

// Result is the outcome of a successful check-in.
type Result struct {
	RecordID      string    `json:"record_id"`
	Name          string    `json:"name"`
	ScheduledAt   time.Time `json:"scheduled_at"`
	ScheduledDate string    `json:"scheduled_date"`
	ScheduledTime string    `json:"scheduled_time"`
	Adults        int       `json:"adults"`
	Seniors       int       `json:"seniors"`
	Children      int       `json:"children"`

	// FollowUp is nil when follow-up generation failed; presentation must
	// then show "no follow-up scheduled yet" rather than fabricating one.
	FollowUp *FollowUp `json:"follow_up,omitempty"`
}

// FollowUp is the automatically booked next appointment.
type FollowUp struct {
	At     time.Time `json:"at"`
	Date   string    `json:"date"`
	Time   string    `json:"time"`
	Ticket string    `json:"ticket"`
}

// Service composes matcher, validator, store and planner into the
// end-to-end check-in transaction.
type Service struct {
	// mu serializes whole transactions so two near-simultaneous check-ins
	// for the same record cannot both pass validation.
	mu sync.Mutex

	repo      appointment.RecordRepository
	matcher   *Matcher
	validator Validator
	planner   *scheduling.Planner
	logger    zerolog.Logger

	now func() time.Time
}

// NewService wires the check-in orchestrator.
func NewService(repo appointment.RecordRepository, matcher *Matcher, validator Validator, planner *scheduling.Planner, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		matcher:   matcher,
		validator: validator,
		planner:   planner,
		logger:    logger,
		now:       time.Now,
	}
}

// SetClock overrides the service clock. Tests only.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// CheckIn runs match → validate → commit → follow-up for one arrival.
// Follow-up generation is best-effort: once the status transition has
// committed, its failure downgrades to a warning and the check-in still
// reports success.
func (s *Service) CheckIn(ctx context.Context, phoneRaw, lastName string) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	// Opportunistic expiry sweep; stale records must not match.
	if _, err := s.repo.Purge(ctx, now); err != nil {
		return nil, Errorf(KindStoreUnavailable, "record store unavailable: %v", err)
	}

	rec, err := s.matcher.Match(ctx, phoneRaw, lastName, now)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(rec, now); err != nil {
		return nil, err
	}

	// Primary transition: commit before anything else happens.
	rec.Status = appointment.StatusCollected
	rec.CheckInAt = &now
	rec.CompletedAt = &now
	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, Errorf(KindStoreUnavailable, "could not record check-in: %v", err)
	}

	res := &Result{
		RecordID:      rec.ID,
		Name:          rec.DisplayName(),
		ScheduledAt:   rec.ScheduledAt,
		ScheduledDate: rec.ScheduledDate,
		ScheduledTime: rec.ScheduledTime,
		Adults:        rec.Adults,
		Seniors:       rec.Seniors,
		Children:      rec.Children,
	}

	fu, err := s.generateFollowUp(ctx, rec, now)
	if err != nil {
		s.logger.Warn().Err(err).
			Str("record_id", rec.ID).
			Str("client_id", rec.ClientID).
			Msg("follow-up generation failed after committed check-in")
		return res, nil
	}
	res.FollowUp = fu
	return res, nil
}

// generateFollowUp mints the auto-generated follow-up record and mirrors
// the slot back onto the origin, so ticket rendering can read it without a
// second lookup.
func (s *Service) generateFollowUp(ctx context.Context, origin *appointment.Record, now time.Time) (*FollowUp, error) {
	plan := s.planner.Next(now, origin.ScheduledAt)

	follow := &appointment.Record{
		ClientID:        origin.ClientID,
		Status:          appointment.StatusPending,
		Source:          appointment.SourceAutoGenerated,
		GeneratedFromID: origin.ID,
		AutoGenerated:   true,
		FirstName:       origin.FirstName,
		LastName:        origin.LastName,
		Phone:           origin.Phone,
		PhoneDigits:     origin.PhoneDigits,
		Adults:          origin.Adults,
		Seniors:         origin.Seniors,
		Children:        origin.Children,
		Dietary:         origin.Dietary,
		TicketNumber:    plan.Ticket,
	}
	follow.SetScheduledAt(plan.At)
	if err := s.repo.Insert(ctx, follow); err != nil {
		return nil, err
	}

	origin.NextDate = plan.Date
	origin.NextTime = plan.Time
	at := plan.At
	origin.NextAt = &at
	origin.TicketNumber = plan.Ticket
	if err := s.repo.Update(ctx, origin); err != nil {
		return nil, err
	}

	return &FollowUp{At: plan.At, Date: plan.Date, Time: plan.Time, Ticket: plan.Ticket}, nil
}
