// Package reportgen renders a patient's record as a self-contained HTML
// document for printing, download or sharing.
package reportgen

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"regexp"
	"strings"
	"time"

	"github.com/clinicdesk/clinicdesk/internal/domain/billing"
	"github.com/clinicdesk/clinicdesk/internal/domain/diagnostics"
	"github.com/clinicdesk/clinicdesk/internal/domain/identity"
	"github.com/clinicdesk/clinicdesk/internal/domain/medication"
	"github.com/clinicdesk/clinicdesk/internal/domain/records"
	"github.com/clinicdesk/clinicdesk/pkg/clinicdate"
)

// Section markers present in every rendered document that includes the
// section.
const (
	MarkerPatientInfo    = `id="patient-information"`
	MarkerMedicalHistory = `id="medical-history"`
	MarkerMedicalReports = `id="medical-reports"`
	MarkerBilling        = `id="billing-history"`
)

const notAvailable = "N/A"

//go:embed templates/patient.html.tmpl
var templateFS embed.FS

// Letterhead identifies the clinic on every document.
type Letterhead struct {
	Name  string
	Phone string
	Email string
}

// Generator renders patient documents. It holds only immutable
// configuration and a parsed template, so it is safe for concurrent use.
type Generator struct {
	clinic Letterhead
	now    clinicdate.Clock
	loc    *time.Location
	tmpl   *template.Template
}

func NewGenerator(clinic Letterhead, now clinicdate.Clock, loc *time.Location) *Generator {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	g := &Generator{clinic: clinic, now: now, loc: loc}
	g.tmpl = template.Must(template.New("patient.html.tmpl").Funcs(template.FuncMap{
		"inr":   FormatINR,
		"date":  func(s string) string { return formatDate(s, loc) },
		"lower": strings.ToLower,
		"join":  strings.Join,
		"deref": func(s *string) string { return *s },
	}).ParseFS(templateFS, "templates/patient.html.tmpl"))
	return g
}

type documentView struct {
	Clinic           Letterhead
	Generated        string
	KindTitle        string
	History          bool
	Patient          *identity.Patient
	BloodGroup       string
	EmergencyContact string
	RegistrationDate string
	Stats            records.Stats
	Prescriptions    []*medication.Prescription
	Reports          []*diagnostics.Report
	MedicineBills    []*billing.MedicineBill
	HospitalBills    []*billing.HospitalBill
	HasBills         bool
}

// Render produces the HTML document of the given kind. Output is identical
// for identical input apart from the "Generated on" date.
func (g *Generator) Render(rec *records.PatientRecord, kind Kind) (string, error) {
	if rec == nil || rec.Patient == nil {
		return "", errors.New("render: nil patient record")
	}
	switch kind {
	case KindFull, KindCurrent, KindVisit:
	default:
		return "", fmt.Errorf("render: %w: %q", ErrUnknownKind, kind)
	}

	p := rec.Patient
	v := documentView{
		Clinic:           g.clinic,
		Generated:        g.now().In(g.loc).Format(LongDate),
		KindTitle:        kind.Title(),
		History:          kind.includesHistory(),
		Patient:          p,
		BloodGroup:       orDefault(p.BloodGroup, notAvailable),
		EmergencyContact: orDefault(p.EmergencyContact, ""),
		RegistrationDate: notAvailable,
		Stats:            rec.Stats,
		Prescriptions:    rec.Prescriptions,
		Reports:          rec.Reports,
		MedicineBills:    rec.MedicineBills,
		HospitalBills:    rec.HospitalBills,
		HasBills:         len(rec.MedicineBills)+len(rec.HospitalBills) > 0,
	}
	if p.CreatedAt != nil && strings.TrimSpace(*p.CreatedAt) != "" {
		v.RegistrationDate = formatDate(*p.CreatedAt, g.loc)
	}

	var buf bytes.Buffer
	if err := g.tmpl.Execute(&buf, v); err != nil {
		return "", fmt.Errorf("render %s document: %w", kind, err)
	}
	return buf.String(), nil
}

var fileNameSeparators = regexp.MustCompile(`[\s/\\]+`)

// FileName is the suggested export name,
// patient_<name with whitespace runs as _>_<kind>_<YYYY-MM-DD>.html.
// Path separators in the name are treated like whitespace.
func (g *Generator) FileName(patientName string, kind Kind) string {
	name := fileNameSeparators.ReplaceAllString(patientName, "_")
	return fmt.Sprintf("patient_%s_%s_%s.html", name, kind, clinicdate.Today(g.now(), g.loc))
}

func orDefault(s *string, def string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return def
	}
	return *s
}
