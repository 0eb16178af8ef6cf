package identity

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newTestHandler() (*Handler, *mockPatientRepo, *echo.Echo) {
	svc, repo := newTestService()
	h := NewHandler(svc, nil)
	e := echo.New()
	return h, repo, e
}

func TestHandler_RegisterPatient(t *testing.T) {
	h, repo, e := newTestHandler()

	body := `{"name":"Anita Rao","age":29,"gender":"Female","phone":"9000000001","allergies":["Sulfa"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/patients", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.RegisterPatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	var p Patient
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Name != "Anita Rao" || p.Condition != "General" {
		t.Errorf("unexpected patient: %+v", p)
	}
	if len(repo.patients) != 1 {
		t.Errorf("expected 1 stored patient, got %d", len(repo.patients))
	}
}

func TestHandler_RegisterPatient_BadRequest(t *testing.T) {
	h, _, e := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/patients", strings.NewReader(`{"age":0}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.RegisterPatient(c)
	if err == nil {
		t.Fatal("expected error for missing fields")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", httpErr.Code)
	}
}

func TestHandler_NewRegistrations(t *testing.T) {
	h, repo, e := newTestHandler()
	repo.patients = []*Patient{
		{ID: "1", Name: "Today", LastVisit: "2024-06-14"},
		{ID: "2", Name: "Earlier", LastVisit: "2024-06-01"},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients/registrations/today", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.NewRegistrations(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp struct {
		Count    int        `json:"count"`
		Patients []*Patient `json:"patients"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Count != 1 || resp.Patients[0].ID != "1" {
		t.Errorf("unexpected response: %+v", resp)
	}
}
