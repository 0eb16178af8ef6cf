package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/clinicdesk/clinicdesk/internal/platform/store"
)

func TestCollector_Handler(t *testing.T) {
	c := NewCollector("clinicdesk")
	c.ObserveRequest(http.MethodGet, "/api/v1/patients", http.StatusOK, 12*time.Millisecond)
	c.PatientRegistered()
	c.DocumentRendered("visit")
	c.ExportFinished("full", "stored")
	c.ShareFinished("skipped")
	c.ObserveStore("save", store.Patients, time.Millisecond, store.ErrVersionConflict)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	out := string(body)

	for _, want := range []string{
		`clinicdesk_http_requests_total{method="GET",path="/api/v1/patients",status="200"} 1`,
		`clinicdesk_clinic_patients_registered_total 1`,
		`clinicdesk_reports_documents_rendered_total{kind="visit"} 1`,
		`clinicdesk_reports_exports_total{kind="full",outcome="stored"} 1`,
		`clinicdesk_reports_shares_total{outcome="skipped"} 1`,
		`clinicdesk_store_version_conflicts_total{collection="patients"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected metrics output to contain %q", want)
		}
	}
}

func TestCollector_IndependentRegistries(t *testing.T) {
	// Two collectors with the same namespace must not collide.
	a := NewCollector("clinicdesk")
	b := NewCollector("clinicdesk")
	a.PatientRegistered()
	b.PatientRegistered()
}

func TestCollector_NilSafe(t *testing.T) {
	var c *Collector
	c.ObserveRequest(http.MethodGet, "/", 200, time.Second)
	c.ObserveStore("load", store.Reports, time.Second, nil)
	c.PatientRegistered()
	c.AppointmentScheduled()
	c.PrescriptionIssued()
	c.DocumentRendered("full")
	c.ExportFinished("full", "failed")
	c.ShareFinished("failed")
}
