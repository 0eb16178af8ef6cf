// Package records assembles a patient's full clinical record from the
// separately stored collections and derives list-view statistics.
package records

import (
	"github.com/clinicdesk/clinicdesk/internal/domain/billing"
	"github.com/clinicdesk/clinicdesk/internal/domain/diagnostics"
	"github.com/clinicdesk/clinicdesk/internal/domain/identity"
	"github.com/clinicdesk/clinicdesk/internal/domain/medication"
)

// Stats are the per-patient counters shown on list rows and reports.
// LastPrescription is the date of the last prescription in stored order.
type Stats struct {
	PrescriptionCount int     `json:"prescription_count"`
	ReportCount       int     `json:"report_count"`
	TotalBills        int     `json:"total_bills"`
	LastPrescription  *string `json:"last_prescription"`
}

// PatientRecord is a patient joined with every record filed against them.
type PatientRecord struct {
	Patient       *identity.Patient          `json:"patient"`
	Prescriptions []*medication.Prescription `json:"prescriptions"`
	Reports       []*diagnostics.Report      `json:"reports"`
	MedicineBills []*billing.MedicineBill    `json:"medicine_bills"`
	HospitalBills []*billing.HospitalBill    `json:"hospital_bills"`
	Stats         Stats                      `json:"stats"`
}

type ActivityStatus string

const (
	ActivityActive   ActivityStatus = "active"
	ActivityRecent   ActivityStatus = "recent"
	ActivityInactive ActivityStatus = "inactive"
)

// PatientSummary is one row of the patient list.
type PatientSummary struct {
	*identity.Patient
	Stats
	Activity ActivityStatus `json:"activity_status"`
}

func computeStats(rx []*medication.Prescription, reports []*diagnostics.Report, mb []*billing.MedicineBill, hb []*billing.HospitalBill) Stats {
	s := Stats{
		PrescriptionCount: len(rx),
		ReportCount:       len(reports),
		TotalBills:        len(mb) + len(hb),
	}
	if len(rx) > 0 {
		last := rx[len(rx)-1].Date
		s.LastPrescription = &last
	}
	return s
}
