package appointment

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Common errors returned by the record store.
var (
	ErrRecordNotFound = errors.New("record not found")
	ErrMissingID      = errors.New("record id is required")
)

// DefaultRetention is how long a record is kept after creation.
const DefaultRetention = 24 * time.Hour

// RecordRepoMem is the in-memory record store. All mutations run under a
// single write lock and bump the data version, so polling clients can use
// Version as a cheap "did anything change" probe.
type RecordRepoMem struct {
	mu        sync.RWMutex
	records   map[string]*Record
	columns   []string
	version   uint64
	retention time.Duration
}

// NewRecordRepoMem creates an empty store with the given retention window.
// A zero retention falls back to DefaultRetention.
func NewRecordRepoMem(retention time.Duration) *RecordRepoMem {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &RecordRepoMem{
		records:   make(map[string]*Record),
		retention: retention,
	}
}

func (s *RecordRepoMem) Insert(_ context.Context, r *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertLocked(r)
	s.version++
	return nil
}

func (s *RecordRepoMem) insertLocked(r *Record) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	now := time.Now()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	cp := cloneRecord(r)
	s.records[cp.ID] = cp
}

func (s *RecordRepoMem) GetByID(_ context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return cloneRecord(r), nil
}

func (s *RecordRepoMem) Update(_ context.Context, r *Record) error {
	if r.ID == "" {
		return ErrMissingID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.records[r.ID]
	if !ok {
		return ErrRecordNotFound
	}
	r.CreatedAt = old.CreatedAt
	r.UpdatedAt = time.Now()
	s.records[r.ID] = cloneRecord(r)
	s.version++
	return nil
}

func (s *RecordRepoMem) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return ErrRecordNotFound
	}
	delete(s.records, id)
	s.version++
	return nil
}

func (s *RecordRepoMem) ListAll(_ context.Context) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, cloneRecord(r))
	}
	sortRecords(out)
	return out, nil
}

func (s *RecordRepoMem) ListByDate(_ context.Context, date string) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Record
	for _, r := range s.records {
		if r.ScheduledDate == date {
			out = append(out, cloneRecord(r))
		}
	}
	sortRecords(out)
	return out, nil
}

func (s *RecordRepoMem) FindByCredentials(_ context.Context, phoneDigits, lastName string) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Record
	for _, r := range s.records {
		if r.PhoneDigits == phoneDigits && NormalizeName(r.LastName) == lastName {
			out = append(out, cloneRecord(r))
		}
	}
	sortRecords(out)
	return out, nil
}

// BulkImport commits parsed candidates. Parsing happens before the call;
// only this final step holds the store lock.
func (s *RecordRepoMem) BulkImport(_ context.Context, recs []*Record, columns []string) (added, duplicates int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Dedup index over already-imported records.
	byKey := make(map[string]*Record)
	for _, r := range s.records {
		if r.Source == SourceCSV {
			byKey[r.DedupKey()] = r
		}
	}

	for _, cand := range recs {
		existing, ok := byKey[cand.DedupKey()]
		if ok && existing.SameImportContent(cand) {
			duplicates++
			continue
		}
		if ok {
			// Later import wins: overwrite in place, keep the identity.
			cand.ID = existing.ID
			cand.CreatedAt = existing.CreatedAt
			cand.Status = existing.Status
		}
		s.insertLocked(cand)
		byKey[cand.DedupKey()] = s.records[cand.ID]
		added++
	}

	if len(columns) > 0 {
		s.columns = append([]string(nil), columns...)
	}
	if added > 0 || len(columns) > 0 {
		s.version++
	}
	return added, duplicates, nil
}

func (s *RecordRepoMem) ImportColumns(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.columns...), nil
}

func (s *RecordRepoMem) Purge(_ context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-s.retention)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, r := range s.records {
		if r.CreatedAt.Before(cutoff) {
			delete(s.records, id)
			removed++
		}
	}
	if removed > 0 {
		s.version++
	}
	return removed, nil
}

func (s *RecordRepoMem) Version(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version, nil
}

func (s *RecordRepoMem) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]*Record)
	s.columns = nil
	s.version++
	return nil
}

func cloneRecord(r *Record) *Record {
	cp := *r
	if r.RawFields != nil {
		cp.RawFields = make(map[string]string, len(r.RawFields))
		for k, v := range r.RawFields {
			cp.RawFields[k] = v
		}
	}
	return &cp
}

// sortRecords orders by scheduled instant, then id for a stable tiebreak.
func sortRecords(recs []*Record) {
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].ScheduledAt.Equal(recs[j].ScheduledAt) {
			return recs[i].ScheduledAt.Before(recs[j].ScheduledAt)
		}
		return recs[i].ID < recs[j].ID
	})
}
