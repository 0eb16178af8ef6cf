// Package sandbox generates a reproducible demo clinic: patients with their
// appointments, prescriptions, lab reports and bills. The same seed and
// reference date always produce the same data, which keeps demos and UI
// walkthroughs stable.
package sandbox

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicdesk/internal/domain/billing"
	"github.com/clinicdesk/clinicdesk/internal/domain/diagnostics"
	"github.com/clinicdesk/clinicdesk/internal/domain/identity"
	"github.com/clinicdesk/clinicdesk/internal/domain/medication"
	"github.com/clinicdesk/clinicdesk/internal/domain/scheduling"
	"github.com/clinicdesk/clinicdesk/internal/platform/apierr"
	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
	"github.com/clinicdesk/clinicdesk/internal/platform/store"
	"github.com/clinicdesk/clinicdesk/pkg/clinicdate"
)

// SeedConfig controls the volume of generated data.
type SeedConfig struct {
	PatientCount            int   `json:"patient_count"`
	AppointmentsPerPatient  int   `json:"appointments_per_patient"`
	PrescriptionsPerPatient int   `json:"prescriptions_per_patient"`
	ReportsPerPatient       int   `json:"reports_per_patient"`
	BillsPerPatient         int   `json:"bills_per_patient"`
	Seed                    int64 `json:"seed"`
}

func DefaultSeedConfig() SeedConfig {
	return SeedConfig{
		PatientCount:            12,
		AppointmentsPerPatient:  2,
		PrescriptionsPerPatient: 2,
		ReportsPerPatient:       1,
		BillsPerPatient:         1,
		Seed:                    42,
	}
}

// SeedResult counts what was written. A collection that already held data
// is reported in Skipped and left untouched.
type SeedResult struct {
	Patients      int      `json:"patients"`
	Appointments  int      `json:"appointments"`
	Prescriptions int      `json:"prescriptions"`
	Reports       int      `json:"reports"`
	MedicineBills int      `json:"medicine_bills"`
	HospitalBills int      `json:"hospital_bills"`
	Skipped       []string `json:"skipped,omitempty"`
}

var (
	firstNamesMale = []string{
		"Arjun", "Rahul", "Vikram", "Sanjay", "Anil", "Rohan", "Karthik",
		"Suresh", "Amit", "Ravi", "Deepak", "Manoj", "Nikhil", "Harish",
	}
	firstNamesFemale = []string{
		"Priya", "Meera", "Ananya", "Kavya", "Lakshmi", "Sneha", "Divya",
		"Pooja", "Asha", "Neha", "Radha", "Swati", "Nandini", "Isha",
	}
	lastNames = []string{
		"Sharma", "Iyer", "Rao", "Patel", "Reddy", "Nair", "Gupta",
		"Menon", "Kumar", "Das", "Joshi", "Pillai", "Verma", "Bose",
	}
	localities = []string{
		"12 MG Road, Bengaluru", "45 Anna Salai, Chennai", "7 Park Street, Kolkata",
		"88 Linking Road, Mumbai", "23 Banjara Hills, Hyderabad", "5 FC Road, Pune",
		"19 Civil Lines, Jaipur", "61 Sector 17, Chandigarh",
	}
	conditions = []string{
		"Hypertension", "Type 2 Diabetes", "Asthma", "Migraine", "Hypothyroidism",
		"Seasonal Allergies", "Lower Back Pain", "Gastritis", "General Checkup",
	}
	bloodGroups = []string{"A+", "A-", "B+", "B-", "O+", "O-", "AB+", "AB-"}
	allergens   = []string{"Penicillin", "Peanuts", "Dust", "Sulfa drugs", "Latex", "Shellfish"}
	doctors     = []string{"Dr. Kumar", "Dr. Mehta", "Dr. Fernandes", "Dr. Banerjee"}
	visitTypes  = []string{"Consultation", "Follow-up", "Lab Review", "Vaccination"}
	slots       = []string{"9:00 AM", "9:30 AM", "10:15 AM", "11:00 AM", "12:30 PM", "2:00 PM", "3:45 PM", "5:15 PM"}
	pharmacies  = []string{"Apollo Pharmacy", "MedPlus", "Wellness Forever"}

	medicines = []medication.Medication{
		{Name: "Metformin 500mg", Dosage: "1 tablet", Frequency: "Twice daily", Duration: "30 days"},
		{Name: "Amlodipine 5mg", Dosage: "1 tablet", Frequency: "Once daily", Duration: "30 days"},
		{Name: "Levothyroxine 50mcg", Dosage: "1 tablet", Frequency: "Once daily, before breakfast", Duration: "90 days"},
		{Name: "Montelukast 10mg", Dosage: "1 tablet", Frequency: "At bedtime", Duration: "14 days"},
		{Name: "Pantoprazole 40mg", Dosage: "1 tablet", Frequency: "Before breakfast", Duration: "14 days"},
		{Name: "Paracetamol 650mg", Dosage: "1 tablet", Frequency: "As needed", Duration: "5 days"},
		{Name: "Cetirizine 10mg", Dosage: "1 tablet", Frequency: "Once daily", Duration: "7 days"},
	}
	medicinePrices = map[string]float64{
		"Metformin 500mg": 3.5, "Amlodipine 5mg": 4.25, "Levothyroxine 50mcg": 2.8,
		"Montelukast 10mg": 12, "Pantoprazole 40mg": 8.5, "Paracetamol 650mg": 2,
		"Cetirizine 10mg": 1.75,
	}
	labTests = []string{
		"Complete Blood Count", "Lipid Profile", "HbA1c", "Thyroid Panel",
		"Chest X-Ray", "Liver Function Test", "Urine Routine",
	}
	hospitalServices = []billing.ServiceLine{
		{Type: "Room", Description: "General ward, per day", Amount: 2500},
		{Type: "Lab", Description: "Pathology panel", Amount: 1800},
		{Type: "Procedure", Description: "Nebulization", Amount: 450},
		{Type: "Imaging", Description: "Ultrasound abdomen", Amount: 2200},
		{Type: "Nursing", Description: "Nursing care", Amount: 900},
	}
)

// DataGenerator produces clinic entities from a seeded random source
// relative to a fixed reference day.
type DataGenerator struct {
	rng   *rand.Rand
	today time.Time
	seq   map[string]int
}

func NewDataGenerator(seed int64, today time.Time) *DataGenerator {
	y, m, d := today.Date()
	return &DataGenerator{
		rng:   rand.New(rand.NewSource(seed)),
		today: time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		seq:   make(map[string]int),
	}
}

func (g *DataGenerator) nextID(prefix string) string {
	g.seq[prefix]++
	return fmt.Sprintf("%s-%04d", prefix, g.seq[prefix])
}

func (g *DataGenerator) pick(pool []string) string {
	return pool[g.rng.Intn(len(pool))]
}

// day returns today shifted by offset days, as YYYY-MM-DD.
func (g *DataGenerator) day(offset int) string {
	return g.today.AddDate(0, 0, offset).Format(clinicdate.Layout)
}

func (g *DataGenerator) phone() string {
	return fmt.Sprintf("+91 9%04d %05d", g.rng.Intn(10000), g.rng.Intn(100000))
}

func strPtr(s string) *string { return &s }

func (g *DataGenerator) GeneratePatient() identity.Patient {
	gender, first := "Male", g.pick(firstNamesMale)
	if g.rng.Intn(2) == 0 {
		gender, first = "Female", g.pick(firstNamesFemale)
	}
	last := g.pick(lastNames)
	name := first + " " + last

	registered := -g.rng.Intn(365)
	if g.rng.Intn(6) == 0 {
		registered = 0
	}
	lastVisit := registered + g.rng.Intn(-registered+1)

	p := identity.Patient{
		ID:        g.nextID("pat"),
		Name:      name,
		Age:       18 + g.rng.Intn(65),
		Gender:    gender,
		Phone:     g.phone(),
		Email:     fmt.Sprintf("%s.%s@example.com", strings.ToLower(first), strings.ToLower(last)),
		Address:   g.pick(localities),
		Condition: g.pick(conditions),
		Allergies: []string{},
		LastVisit: g.day(lastVisit),
	}
	// Roughly one patient in five predates registration tracking.
	if g.rng.Intn(5) != 0 {
		p.CreatedAt = strPtr(g.day(registered))
	}
	if g.rng.Intn(4) != 0 {
		p.BloodGroup = strPtr(g.pick(bloodGroups))
	}
	if g.rng.Intn(3) != 0 {
		p.EmergencyContact = strPtr(fmt.Sprintf("%s %s (%s)", g.pick(firstNamesFemale), last, g.phone()))
	}
	for i, n := 0, g.rng.Intn(3); i < n; i++ {
		a := g.pick(allergens)
		if !slices.Contains(p.Allergies, a) {
			p.Allergies = append(p.Allergies, a)
		}
	}
	return p
}

// GenerateAppointment books p in a window around today. Past visits are
// completed or cancelled; today and later stay scheduled.
func (g *DataGenerator) GenerateAppointment(p *identity.Patient) scheduling.Appointment {
	offset := g.rng.Intn(11) - 5
	status := scheduling.StatusScheduled
	switch {
	case offset < 0 && g.rng.Intn(4) == 0:
		status = scheduling.StatusCancelled
	case offset < 0:
		status = scheduling.StatusCompleted
	}
	a := scheduling.Appointment{
		ID:          g.nextID("apt"),
		PatientID:   p.ID,
		PatientName: p.Name,
		DoctorName:  g.pick(doctors),
		Date:        g.day(offset),
		Time:        g.pick(slots),
		Type:        g.pick(visitTypes),
		Status:      status,
	}
	if g.rng.Intn(3) == 0 {
		a.Notes = strPtr("Bring previous reports")
	}
	return a
}

func (g *DataGenerator) GeneratePrescription(p *identity.Patient) medication.Prescription {
	offset := -g.rng.Intn(120)
	n := 1 + g.rng.Intn(3)
	meds := make([]medication.Medication, 0, n)
	for _, i := range g.rng.Perm(len(medicines))[:n] {
		meds = append(meds, medicines[i])
	}
	status := medication.StatusActive
	if offset < -60 {
		status = medication.StatusCompleted
	}
	return medication.Prescription{
		ID:          g.nextID("rx"),
		PatientID:   p.ID,
		PatientName: p.Name,
		Date:        g.day(offset),
		DoctorName:  g.pick(doctors),
		Medications: meds,
		Status:      status,
		Notes:       "Review after course completion",
	}
}

func (g *DataGenerator) GenerateReport(p *identity.Patient) diagnostics.Report {
	test := g.pick(labTests)
	statuses := []string{diagnostics.StatusPending, diagnostics.StatusReviewed, diagnostics.StatusReviewed, diagnostics.StatusArchived}
	return diagnostics.Report{
		ID:          g.nextID("rep"),
		PatientID:   p.ID,
		PatientName: p.Name,
		ReportType:  test,
		FileName:    fmt.Sprintf("%s_%s.pdf", p.ID, slug(test)),
		FileSize:    fmt.Sprintf("%.1f MB", 0.2+float64(g.rng.Intn(40))/10),
		UploadDate:  g.day(-g.rng.Intn(10)),
		UploadedBy:  "Front Desk",
		Status:      statuses[g.rng.Intn(len(statuses))],
	}
}

func (g *DataGenerator) billStatus() string {
	return []string{billing.StatusPaid, billing.StatusPaid, billing.StatusPending, billing.StatusOverdue}[g.rng.Intn(4)]
}

func (g *DataGenerator) GenerateMedicineBill(p *identity.Patient, rx *medication.Prescription) billing.MedicineBill {
	b := billing.MedicineBill{
		ID:           g.nextID("mb"),
		PatientID:    p.ID,
		PatientName:  p.Name,
		Date:         rx.Date,
		Status:       g.billStatus(),
		PharmacyName: g.pick(pharmacies),
	}
	for _, m := range rx.Medications {
		qty := 10 * (1 + g.rng.Intn(6))
		price := medicinePrices[m.Name]
		b.Medicines = append(b.Medicines, billing.MedicineLine{Name: m.Name, Quantity: qty, Price: price, Total: float64(qty) * price})
	}
	b.TotalAmount = b.LineTotal()
	return b
}

func (g *DataGenerator) GenerateHospitalBill(p *identity.Patient) billing.HospitalBill {
	admitted := -5 - g.rng.Intn(60)
	stay := 1 + g.rng.Intn(4)
	b := billing.HospitalBill{
		ID:            g.nextID("hb"),
		PatientID:     p.ID,
		PatientName:   p.Name,
		Date:          g.day(admitted + stay),
		Status:        g.billStatus(),
		DoctorFees:    float64(500 * (1 + g.rng.Intn(6))),
		AdmissionDate: strPtr(g.day(admitted)),
		DischargeDate: strPtr(g.day(admitted + stay)),
	}
	for _, i := range g.rng.Perm(len(hospitalServices))[:1+g.rng.Intn(3)] {
		b.Services = append(b.Services, hospitalServices[i])
	}
	b.TotalAmount = b.LineTotal()
	return b
}

// Dataset is one generated clinic.
type Dataset struct {
	Patients      []identity.Patient
	Appointments  []scheduling.Appointment
	Prescriptions []medication.Prescription
	Reports       []diagnostics.Report
	MedicineBills []billing.MedicineBill
	HospitalBills []billing.HospitalBill
}

// Generate builds a full dataset. Every third patient is booked for today so
// the dashboard has something to show.
func Generate(cfg SeedConfig, today time.Time) *Dataset {
	g := NewDataGenerator(cfg.Seed, today)
	ds := &Dataset{}
	for i := 0; i < cfg.PatientCount; i++ {
		p := g.GeneratePatient()
		ds.Patients = append(ds.Patients, p)
		pp := &ds.Patients[len(ds.Patients)-1]

		for j := 0; j < cfg.AppointmentsPerPatient; j++ {
			a := g.GenerateAppointment(pp)
			if j == 0 && i%3 == 0 {
				a.Date, a.Status = g.day(0), scheduling.StatusScheduled
			}
			ds.Appointments = append(ds.Appointments, a)
		}
		var lastRx *medication.Prescription
		for j := 0; j < cfg.PrescriptionsPerPatient; j++ {
			rx := g.GeneratePrescription(pp)
			ds.Prescriptions = append(ds.Prescriptions, rx)
			lastRx = &rx
		}
		for j := 0; j < cfg.ReportsPerPatient; j++ {
			ds.Reports = append(ds.Reports, g.GenerateReport(pp))
		}
		for j := 0; j < cfg.BillsPerPatient; j++ {
			if lastRx != nil {
				ds.MedicineBills = append(ds.MedicineBills, g.GenerateMedicineBill(pp, lastRx))
			}
			if g.rng.Intn(3) == 0 {
				ds.HospitalBills = append(ds.HospitalBills, g.GenerateHospitalBill(pp))
			}
		}
	}
	return ds
}

// Seeder writes a generated dataset into a store.
type Seeder struct {
	store  store.Store
	config SeedConfig
	now    clinicdate.Clock
	loc    *time.Location
	log    zerolog.Logger
}

func NewSeeder(s store.Store, cfg SeedConfig, now clinicdate.Clock, loc *time.Location, log zerolog.Logger) *Seeder {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Seeder{store: s, config: cfg, now: now, loc: loc, log: log}
}

// Seed fills each empty collection with demo data. Collections that already
// contain records are skipped, so seeding twice never duplicates anything.
func (s *Seeder) Seed(ctx context.Context) (*SeedResult, error) {
	today, err := clinicdate.Parse(clinicdate.Today(s.now(), s.loc), time.UTC)
	if err != nil {
		return nil, err
	}
	ds := Generate(s.config, today)
	res := &SeedResult{}

	steps := []struct {
		coll  store.Collection
		count *int
		size  int
		write func() (bool, error)
	}{
		{store.Patients, &res.Patients, len(ds.Patients), func() (bool, error) { return fillEmpty(ctx, s.store, store.Patients, ds.Patients) }},
		{store.Appointments, &res.Appointments, len(ds.Appointments), func() (bool, error) { return fillEmpty(ctx, s.store, store.Appointments, ds.Appointments) }},
		{store.Prescriptions, &res.Prescriptions, len(ds.Prescriptions), func() (bool, error) { return fillEmpty(ctx, s.store, store.Prescriptions, ds.Prescriptions) }},
		{store.Reports, &res.Reports, len(ds.Reports), func() (bool, error) { return fillEmpty(ctx, s.store, store.Reports, ds.Reports) }},
		{store.MedicineBills, &res.MedicineBills, len(ds.MedicineBills), func() (bool, error) { return fillEmpty(ctx, s.store, store.MedicineBills, ds.MedicineBills) }},
		{store.HospitalBills, &res.HospitalBills, len(ds.HospitalBills), func() (bool, error) { return fillEmpty(ctx, s.store, store.HospitalBills, ds.HospitalBills) }},
	}

	for _, st := range steps {
		wrote, err := st.write()
		if err != nil {
			return res, fmt.Errorf("seed %s: %w", st.coll, err)
		}
		if !wrote {
			res.Skipped = append(res.Skipped, string(st.coll))
			continue
		}
		*st.count = st.size
	}

	s.log.Info().
		Int("patients", res.Patients).
		Int("appointments", res.Appointments).
		Int("prescriptions", res.Prescriptions).
		Int("reports", res.Reports).
		Strs("skipped", res.Skipped).
		Msg("demo data seeded")
	return res, nil
}

// fillEmpty writes items only if c holds nothing. The write is conditional on
// the version that was read, so a concurrent registration wins over the seed.
func fillEmpty[T any](ctx context.Context, s store.Store, c store.Collection, items []T) (bool, error) {
	cur, version, err := store.Load[T](ctx, s, c)
	if err != nil {
		return false, err
	}
	if len(cur) > 0 {
		return false, nil
	}
	if _, err := store.Save(ctx, s, c, items, version); err != nil {
		return false, err
	}
	return true, nil
}

// SeedHandler exposes seeding to administrators in development deployments.
type SeedHandler struct {
	seeder *Seeder
}

func NewSeedHandler(s *Seeder) *SeedHandler {
	return &SeedHandler{seeder: s}
}

func (h *SeedHandler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/sandbox", auth.RequireRole(auth.RoleAdmin))
	g.POST("/seed", h.handleSeed)
}

func (h *SeedHandler) handleSeed(c echo.Context) error {
	res, err := h.seeder.Seed(c.Request().Context())
	if err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusOK, res)
}

func slug(s string) string {
	return strings.NewReplacer(" ", "_", "-", "_").Replace(strings.ToLower(s))
}
