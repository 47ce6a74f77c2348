package appointment

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/lindseystead/foodbank-checkin-portfolio-sub001/internal/platform/scheduling"
)

// Service carries the admin-facing record operations: reads, manual
// entry, status edits, reschedules and CSV import/export.
type Service struct {
	repo    RecordRepository
	planner *scheduling.Planner
	loc     *time.Location

	now func() time.Time
}

// NewService wires the record service.
func NewService(repo RecordRepository, planner *scheduling.Planner, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, planner: planner, loc: loc, now: time.Now}
}

// SetClock overrides the service clock. Tests only.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// ListToday returns records scheduled on the current service-local date,
// sweeping expired records first.
func (s *Service) ListToday(ctx context.Context) ([]*Record, error) {
	now := s.now()
	if _, err := s.repo.Purge(ctx, now); err != nil {
		return nil, err
	}
	return s.repo.ListByDate(ctx, now.In(s.loc).Format(DateLayout))
}

// ListAll returns every live record, sweeping expired records first.
func (s *Service) ListAll(ctx context.Context) ([]*Record, error) {
	if _, err := s.repo.Purge(ctx, s.now()); err != nil {
		return nil, err
	}
	return s.repo.ListAll(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*Record, error) {
	return s.repo.GetByID(ctx, id)
}

// Create adds a manual admin entry. The record arrives with presentation
// date/time strings; the authoritative instant is composed here.
func (s *Service) Create(ctx context.Context, r *Record) error {
	if r.ClientID == "" {
		return fmt.Errorf("client_id is required")
	}
	if r.LastName == "" {
		return fmt.Errorf("last_name is required")
	}
	at, err := s.parseSlot(r.ScheduledDate, r.ScheduledTime)
	if err != nil {
		return err
	}
	r.SetScheduledAt(at)
	r.PhoneDigits = NormalizePhone(r.Phone)
	if r.Status == "" {
		r.Status = StatusPending
	}
	if !ValidStatuses[r.Status] {
		return fmt.Errorf("invalid status: %s", r.Status)
	}
	r.Source = SourceManual
	return s.repo.Insert(ctx, r)
}

// UpdateStatus applies an admin status edit.
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) (*Record, error) {
	if !ValidStatuses[status] {
		return nil, fmt.Errorf("invalid status: %s", status)
	}
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	rec.Status = status
	if status == StatusCollected || status == StatusShipped {
		now := s.now()
		rec.CompletedAt = &now
	}
	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// Reschedule moves an appointment to a new slot. The requested slot must
// pass the same minimum-offset, weekday and holiday checks as the
// automatic planner; the origin record is marked rescheduled and a fresh
// pending record takes its place.
func (s *Service) Reschedule(ctx context.Context, id, newDate, newTime string) (*Record, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	candidate, err := s.parseSlot(newDate, newTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", scheduling.ErrInvalidDate, err)
	}
	if err := s.planner.ValidateManual(s.now(), rec.ScheduledAt, candidate); err != nil {
		return nil, err
	}

	moved := &Record{
		ClientID:        rec.ClientID,
		Status:          StatusPending,
		Source:          SourceManual,
		GeneratedFromID: rec.ID,
		FirstName:       rec.FirstName,
		LastName:        rec.LastName,
		Phone:           rec.Phone,
		PhoneDigits:     rec.PhoneDigits,
		Adults:          rec.Adults,
		Seniors:         rec.Seniors,
		Children:        rec.Children,
		Dietary:         rec.Dietary,
	}
	moved.SetScheduledAt(candidate)
	if err := s.repo.Insert(ctx, moved); err != nil {
		return nil, err
	}

	rec.Status = StatusRescheduled
	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, err
	}
	return moved, nil
}

// ImportResult reports what a bulk import did.
type ImportResult struct {
	Total      int      `json:"total"`
	Added      int      `json:"added"`
	Duplicates int      `json:"duplicates"`
	CSVDate    string   `json:"csv_date"`
	TodayDate  string   `json:"today_date"`
	Warning    string   `json:"warning,omitempty"`
	Skipped    []string `json:"skipped,omitempty"`
}

// Import parses and commits a CSV document. Parsing happens outside the
// store lock; only the final commit holds it.
func (s *Service) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	recs, header, skipped, err := ParseImport(r, s.loc)
	if err != nil {
		return nil, err
	}

	added, duplicates, err := s.repo.BulkImport(ctx, recs, header)
	if err != nil {
		return nil, err
	}

	res := &ImportResult{
		Total:      len(recs),
		Added:      added,
		Duplicates: duplicates,
		TodayDate:  s.now().In(s.loc).Format(DateLayout),
		Skipped:    skipped,
	}
	if len(recs) > 0 {
		res.CSVDate = recs[0].ScheduledDate
	}
	if res.CSVDate != "" && res.CSVDate != res.TodayDate {
		res.Warning = fmt.Sprintf("imported rows are dated %s but today is %s; today's check-ins will not find them",
			res.CSVDate, res.TodayDate)
	}
	return res, nil
}

// Export writes the CSV projection of all csv-sourced records.
func (s *Service) Export(ctx context.Context, w io.Writer) error {
	recs, err := s.ListAll(ctx)
	if err != nil {
		return err
	}
	columns, err := s.repo.ImportColumns(ctx)
	if err != nil {
		return err
	}
	return WriteExport(w, columns, recs)
}

// DataVersion returns the store's change counter for polling clients.
func (s *Service) DataVersion(ctx context.Context) (uint64, error) {
	return s.repo.Version(ctx)
}

func (s *Service) parseSlot(date, clock string) (time.Time, error) {
	if date == "" || clock == "" {
		return time.Time{}, fmt.Errorf("scheduled date and time are required")
	}
	return time.ParseInLocation(DateLayout+" "+TimeLayout, date+" "+clock, s.loc)
}
