package appointment

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func newTestHandler(t *testing.T) (*Handler, *RecordRepoMem) {
	t.Helper()
	svc, repo := newTestService(t)
	return NewHandler(svc), repo
}

func TestHandler_ListRecords(t *testing.T) {
	h, repo := newTestHandler(t)
	ctx := context.Background()

	repo.Insert(ctx, newTestRecord("C1", "Silva", time.Date(2025, time.October, 1, 9, 0, 0, 0, testLoc)))
	repo.Insert(ctx, newTestRecord("C2", "Brown", time.Date(2025, time.October, 22, 9, 0, 0, 0, testLoc)))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/records", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListRecords(c); err != nil {
		t.Fatalf("list: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Data  []*Record `json:"data"`
		Total int       `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// Default scope is today only.
	if resp.Total != 1 || len(resp.Data) != 1 {
		t.Fatalf("expected 1 today record, got total=%d", resp.Total)
	}

	// scope=all returns everything.
	req = httptest.NewRequest(http.MethodGet, "/records?scope=all", nil)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	if err := h.ListRecords(c); err != nil {
		t.Fatalf("list all: %v", err)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 2 {
		t.Fatalf("expected 2 records with scope=all, got %d", resp.Total)
	}
}

func TestHandler_GetRecord(t *testing.T) {
	h, repo := newTestHandler(t)
	ctx := context.Background()

	stored := newTestRecord("C1", "Silva", time.Date(2025, time.October, 1, 9, 0, 0, 0, testLoc))
	repo.Insert(ctx, stored)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(stored.ID)

	if err := h.GetRecord(c); err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	// Missing record maps to 404.
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("ghost")
	err := h.GetRecord(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}

func TestHandler_CreateRecord(t *testing.T) {
	h, _ := newTestHandler(t)

	body := `{"client_id":"C1","last_name":"Silva","phone":"604-555-0100","scheduled_date":"2025-10-01","scheduled_time":"9:30 AM"}`
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/records", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreateRecord(c); err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var got Record
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID == "" || got.Source != SourceManual {
		t.Errorf("unexpected record %+v", got)
	}

	// Validation failures map to 400.
	req = httptest.NewRequest(http.MethodPost, "/records", strings.NewReader(`{"last_name":"Silva"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c = e.NewContext(req, httptest.NewRecorder())
	err := h.CreateRecord(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_UpdateStatus(t *testing.T) {
	h, repo := newTestHandler(t)
	ctx := context.Background()

	stored := newTestRecord("C1", "Silva", time.Date(2025, time.October, 1, 9, 0, 0, 0, testLoc))
	repo.Insert(ctx, stored)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"status":"collected"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(stored.ID)

	if err := h.UpdateStatus(c); err != nil {
		t.Fatalf("update: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	got, _ := repo.GetByID(ctx, stored.ID)
	if got.Status != StatusCollected {
		t.Errorf("expected collected, got %s", got.Status)
	}
}

func TestHandler_Reschedule(t *testing.T) {
	h, repo := newTestHandler(t)
	ctx := context.Background()

	stored := newTestRecord("C1", "Silva", time.Date(2025, time.October, 1, 9, 0, 0, 0, testLoc))
	repo.Insert(ctx, stored)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"date":"2025-10-22","time":"9:00 AM"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(stored.ID)

	if err := h.Reschedule(c); err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	// An invalid slot comes back as a structured 422.
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"date":"2025-10-26","time":"9:00 AM"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(stored.ID)

	if err := h.Reschedule(c); err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	var resp struct {
		Error struct {
			Kind string `json:"kind"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error.Kind != "invalid_date" {
		t.Errorf("expected invalid_date kind, got %q", resp.Error.Kind)
	}
}

func TestHandler_ImportRawBody(t *testing.T) {
	h, _ := newTestHandler(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/import", strings.NewReader(sampleCSV))
	req.Header.Set(echo.HeaderContentType, "text/csv")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Import(c); err != nil {
		t.Fatalf("import: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var res ImportResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Added != 2 {
		t.Errorf("expected 2 added, got %d", res.Added)
	}
}

func TestHandler_ImportMultipart(t *testing.T) {
	h, _ := newTestHandler(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "records.csv")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	fw.Write([]byte(sampleCSV))
	mw.Close()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/import", &buf)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Import(c); err != nil {
		t.Fatalf("import: %v", err)
	}

	var res ImportResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Added != 2 {
		t.Errorf("expected 2 added, got %d", res.Added)
	}
}

func TestHandler_Export(t *testing.T) {
	h, _ := newTestHandler(t)

	// Seed through import so original columns are remembered.
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/import", strings.NewReader(sampleCSV))
	c := e.NewContext(req, httptest.NewRecorder())
	if err := h.Import(c); err != nil {
		t.Fatalf("import: %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/export", nil)
	rec := httptest.NewRecorder()
	c = e.NewContext(req, rec)

	if err := h.Export(c); err != nil {
		t.Fatalf("export: %v", err)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != "text/csv" {
		t.Errorf("expected text/csv, got %s", ct)
	}
	if cd := rec.Header().Get(echo.HeaderContentDisposition); !strings.Contains(cd, "records.csv") {
		t.Errorf("expected attachment disposition, got %s", cd)
	}
	if !strings.Contains(rec.Body.String(), "Next Appointment") {
		t.Error("expected export body with appended columns")
	}
}

func TestHandler_DataVersion(t *testing.T) {
	h, repo := newTestHandler(t)
	repo.Insert(context.Background(), newTestRecord("C1", "Silva", time.Date(2025, time.October, 1, 9, 0, 0, 0, testLoc)))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/version", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.DataVersion(c); err != nil {
		t.Fatalf("version: %v", err)
	}
	var resp map[string]uint64
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["version"] == 0 {
		t.Error("expected non-zero version after insert")
	}
}
