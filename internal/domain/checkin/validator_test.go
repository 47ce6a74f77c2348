package checkin

import (
	"testing"
	"time"

	"github.com/lindseystead/foodbank-checkin-portfolio-sub001/internal/domain/appointment"
)

func recordAt(hh, mm int, status appointment.Status) *appointment.Record {
	r := &appointment.Record{ClientID: "C1", LastName: "Silva", Status: status}
	r.SetScheduledAt(at(1, hh, mm))
	return r
}

func TestValidate_WindowEdges(t *testing.T) {
	v := NewValidator(30 * time.Minute)
	rec := recordAt(9, 0, appointment.StatusPending)

	cases := []struct {
		name string
		now  time.Time
		kind Kind
		ok   bool
	}{
		{"well before", at(1, 8, 0), KindTooEarly, false},
		{"one minute early", at(1, 8, 29), KindTooEarly, false},
		{"window opens", at(1, 8, 30), "", true},
		{"on time", at(1, 9, 0), "", true},
		{"inside window", at(1, 9, 25), "", true},
		{"window closes", at(1, 9, 30), "", true},
		{"one minute late", at(1, 9, 31), KindTooLate, false},
		{"an hour late", at(1, 10, 0), KindTooLate, false},
	}
	for _, tc := range cases {
		err := v.Validate(rec, tc.now)
		if tc.ok {
			if err != nil {
				t.Errorf("%s: expected acceptance, got %v", tc.name, err)
			}
			continue
		}
		kind, isBusiness := KindOf(err)
		if !isBusiness || kind != tc.kind {
			t.Errorf("%s: expected %s, got %v", tc.name, tc.kind, err)
		}
	}
}

func TestValidate_TerminalBeatsTiming(t *testing.T) {
	v := NewValidator(30 * time.Minute)

	// Even at a perfectly on-time arrival, a collected record rejects.
	for _, status := range []appointment.Status{appointment.StatusCollected, appointment.StatusShipped} {
		err := v.Validate(recordAt(9, 0, status), at(1, 9, 0))
		if kind, ok := KindOf(err); !ok || kind != KindAlreadyCheckedIn {
			t.Errorf("%s: expected already_checked_in, got %v", status, err)
		}
	}

	// And the terminal check runs before the timing checks.
	err := v.Validate(recordAt(9, 0, appointment.StatusCollected), at(1, 7, 0))
	if kind, _ := KindOf(err); kind != KindAlreadyCheckedIn {
		t.Errorf("expected already_checked_in to win over too_early, got %v", err)
	}
}

func TestValidate_NotCollectedUsesTiming(t *testing.T) {
	v := NewValidator(30 * time.Minute)

	// A missed-window record can be rescued inside a later window only if
	// the clock still allows it; otherwise it stays too late.
	err := v.Validate(recordAt(9, 0, appointment.StatusNotCollected), at(1, 9, 15))
	if err != nil {
		t.Errorf("expected in-window rescue, got %v", err)
	}
	err = v.Validate(recordAt(9, 0, appointment.StatusNotCollected), at(1, 12, 0))
	if kind, _ := KindOf(err); kind != KindTooLate {
		t.Errorf("expected too_late, got %v", err)
	}
}

func TestValidate_DefaultTolerance(t *testing.T) {
	v := NewValidator(0)
	if v.Tolerance != DefaultTolerance {
		t.Errorf("expected default tolerance, got %v", v.Tolerance)
	}
}

func TestValidate_CustomTolerance(t *testing.T) {
	v := NewValidator(10 * time.Minute)
	rec := recordAt(9, 0, appointment.StatusPending)

	if err := v.Validate(rec, at(1, 8, 51)); err != nil {
		t.Errorf("expected acceptance at 9 minutes early, got %v", err)
	}
	if err := v.Validate(rec, at(1, 8, 45)); err == nil {
		t.Error("expected rejection at 15 minutes early")
	}
}
