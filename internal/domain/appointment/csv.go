package appointment

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// headerSynonyms maps each canonical import field to the accepted header
// spellings, in priority order. Spellings are compared after
// normalizeHeader, so case, underscores and extra spaces don't matter.
var headerSynonyms = map[string][]string{
	"client_id":  {"client id", "clientid", "client number", "client #", "id"},
	"first_name": {"first name", "first", "given name"},
	"last_name":  {"last name", "last", "surname", "family name"},
	"name":       {"name", "full name", "client name"},
	"phone":      {"phone", "phone number", "telephone", "cell", "mobile"},
	"adults":     {"adults", "adult", "num adults", "# adults"},
	"seniors":    {"seniors", "senior", "num seniors", "# seniors"},
	"children":   {"children", "kids", "num children", "# children"},
	"dietary":    {"dietary", "dietary needs", "dietary restrictions", "special needs", "notes"},
	"pickup":     {"pickup date", "pickup", "pick up date", "appointment date", "appointment"},
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, "_", " ")
	h = strings.ReplaceAll(h, "-", " ")
	return strings.Join(strings.Fields(h), " ")
}

// resolveColumns maps raw header names to canonical field names. Unknown
// columns are kept unresolved; their values still ride along in RawFields
// so exports can reproduce them.
func resolveColumns(header []string) map[int]string {
	spellings := make(map[string]string)
	for field, names := range headerSynonyms {
		for _, n := range names {
			if _, taken := spellings[n]; !taken {
				spellings[n] = field
			}
		}
	}
	out := make(map[int]string)
	claimed := make(map[string]bool)
	for i, h := range header {
		field, ok := spellings[normalizeHeader(h)]
		if ok && !claimed[field] {
			out[i] = field
			claimed[field] = true
		}
	}
	return out
}

// RowToRecord normalizes one loosely-shaped CSV row into a canonical
// record, or fails with a validation error naming the problem.
func RowToRecord(header []string, row []string, loc *time.Location) (*Record, error) {
	cols := resolveColumns(header)
	fields := make(map[string]string)
	raw := make(map[string]string, len(header))
	for i, cell := range row {
		if i >= len(header) {
			break
		}
		raw[header[i]] = cell
		if field, ok := cols[i]; ok {
			fields[field] = strings.TrimSpace(cell)
		}
	}

	rec := &Record{
		ClientID:  fields["client_id"],
		FirstName: fields["first_name"],
		LastName:  fields["last_name"],
		Phone:     fields["phone"],
		Dietary:   fields["dietary"],
		Status:    StatusPending,
		Source:    SourceCSV,
		RawFields: raw,
	}

	// A single "name" column splits on the final space.
	if rec.FirstName == "" && rec.LastName == "" && fields["name"] != "" {
		parts := strings.Fields(fields["name"])
		if len(parts) == 1 {
			rec.LastName = parts[0]
		} else {
			rec.FirstName = strings.Join(parts[:len(parts)-1], " ")
			rec.LastName = parts[len(parts)-1]
		}
	}

	if rec.ClientID == "" {
		return nil, fmt.Errorf("row missing client id")
	}
	if rec.LastName == "" {
		return nil, fmt.Errorf("row for client %s missing last name", rec.ClientID)
	}
	if fields["pickup"] == "" {
		return nil, fmt.Errorf("row for client %s missing pickup date", rec.ClientID)
	}

	at, err := ParsePickup(fields["pickup"], loc)
	if err != nil {
		return nil, fmt.Errorf("row for client %s: bad pickup date %q: %w", rec.ClientID, fields["pickup"], err)
	}
	rec.SetScheduledAt(at)

	rec.PhoneDigits = NormalizePhone(rec.Phone)
	rec.Adults = parseCount(fields["adults"])
	rec.Seniors = parseCount(fields["seniors"])
	rec.Children = parseCount(fields["children"])
	return rec, nil
}

func parseCount(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// ParseImport reads a whole CSV document into candidate records. Rows that
// fail validation are skipped and reported; the good rows still import.
func ParseImport(r io.Reader, loc *time.Location) (recs []*Record, header []string, skipped []string, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err = cr.Read()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("read csv header: %w", err)
	}
	for {
		row, rerr := cr.Read()
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return nil, nil, nil, fmt.Errorf("read csv row: %w", rerr)
		}
		rec, verr := RowToRecord(header, row, loc)
		if verr != nil {
			skipped = append(skipped, verr.Error())
			continue
		}
		recs = append(recs, rec)
	}
	return recs, header, skipped, nil
}

// WriteExport projects csv-sourced records back out in their original
// column order, appending the current status and the follow-up slot
// ("NA" when the client missed their window and none was booked).
func WriteExport(w io.Writer, columns []string, recs []*Record) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(append(append([]string(nil), columns...), "Status", "Next Appointment")); err != nil {
		return err
	}
	for _, r := range recs {
		if r.Source != SourceCSV {
			continue
		}
		row := make([]string, 0, len(columns)+2)
		for _, col := range columns {
			row = append(row, r.RawFields[col])
		}
		next := "NA"
		if r.NextAt != nil {
			next = FormatPickup(*r.NextAt)
		}
		row = append(row, string(r.Status), next)
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	return cw.Error()
}
