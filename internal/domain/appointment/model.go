package appointment

import (
	"strings"
	"time"
)

// Status is the lifecycle state of a record.
type Status string

const (
	StatusPending      Status = "pending"
	StatusCollected    Status = "collected"
	StatusShipped      Status = "shipped"
	StatusNotCollected Status = "not-collected"
	StatusRescheduled  Status = "rescheduled"
	StatusCancelled    Status = "cancelled"
)

// ValidStatuses enumerates every accepted status value.
var ValidStatuses = map[Status]bool{
	StatusPending: true, StatusCollected: true, StatusShipped: true,
	StatusNotCollected: true, StatusRescheduled: true, StatusCancelled: true,
}

// Matchable reports whether a record in this status is eligible for
// arrival matching. A missed window (not-collected) can still be rescued.
func (s Status) Matchable() bool {
	return s == StatusPending || s == StatusNotCollected
}

// Terminal reports whether the record has already been handed out and can
// never be matched again.
func (s Status) Terminal() bool {
	return s == StatusCollected || s == StatusShipped
}

// Source records how a record entered the store.
type Source string

const (
	SourceCSV           Source = "csv"
	SourceManual        Source = "manual"
	SourceAutoGenerated Source = "auto-generated"
)

// PickupLayout is the wire form of a scheduled pickup, e.g.
// "2025-10-01 @ 9:00 AM". Imported rows use it and exports reproduce it.
const PickupLayout = "2006-01-02 @ 3:04 PM"

// DateLayout and TimeLayout are the presentation derivatives of the
// scheduled instant.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "3:04 PM"
)

// Record is an appointment/check-in entry. ScheduledAt is the sole source
// of truth for comparisons; ScheduledDate and ScheduledTime are derived
// from it and must always agree.
type Record struct {
	ID       string `json:"id"`
	ClientID string `json:"client_id"`

	ScheduledDate string    `json:"scheduled_date"`
	ScheduledTime string    `json:"scheduled_time"`
	ScheduledAt   time.Time `json:"scheduled_at"`

	Status Status `json:"status"`

	Source          Source `json:"source"`
	GeneratedFromID string `json:"generated_from_id,omitempty"`
	AutoGenerated   bool   `json:"auto_generated"`

	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Phone       string `json:"phone"`
	PhoneDigits string `json:"phone_digits"`
	Adults      int    `json:"adults"`
	Seniors     int    `json:"seniors"`
	Children    int    `json:"children"`
	Dietary     string `json:"dietary,omitempty"`

	NextDate     string     `json:"next_date,omitempty"`
	NextTime     string     `json:"next_time,omitempty"`
	NextAt       *time.Time `json:"next_at,omitempty"`
	TicketNumber string     `json:"ticket_number,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	CheckInAt   *time.Time `json:"check_in_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// RawFields holds the original import row so exports can reproduce the
	// source columns verbatim. Empty for manual and auto-generated records.
	RawFields map[string]string `json:"-"`
}

// DisplayName is the name shown on tickets and the confirmation screen.
func (r *Record) DisplayName() string {
	return strings.TrimSpace(r.FirstName + " " + r.LastName)
}

// SetScheduledAt sets the authoritative instant and re-derives the
// presentation date and time strings from it.
func (r *Record) SetScheduledAt(t time.Time) {
	r.ScheduledAt = t
	r.ScheduledDate = t.Format(DateLayout)
	r.ScheduledTime = t.Format(TimeLayout)
}

// DedupKey is the identity used to collapse repeated imports:
// (clientId, scheduledDate).
func (r *Record) DedupKey() string {
	return r.ClientID + "|" + r.ScheduledDate
}

// SameImportContent reports whether two records carry identical imported
// fields. Used to distinguish a true duplicate row from an updated one.
func (r *Record) SameImportContent(o *Record) bool {
	return r.ClientID == o.ClientID &&
		r.ScheduledAt.Equal(o.ScheduledAt) &&
		r.FirstName == o.FirstName &&
		r.LastName == o.LastName &&
		r.PhoneDigits == o.PhoneDigits &&
		r.Adults == o.Adults &&
		r.Seniors == o.Seniors &&
		r.Children == o.Children &&
		r.Dietary == o.Dietary
}

// ParsePickup parses the import pickup format ("YYYY-MM-DD @ H:MM AM/PM")
// into an instant anchored in the service's local timezone.
func ParsePickup(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(PickupLayout, strings.TrimSpace(s), loc)
}

// FormatPickup renders an instant back into the import pickup format.
func FormatPickup(t time.Time) string {
	return t.Format(PickupLayout)
}

// NormalizePhone strips everything but digits from a raw phone string.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeName lower-cases and trims a name for matching.
func NormalizeName(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
