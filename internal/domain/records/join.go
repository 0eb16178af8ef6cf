package records

import (
	"fmt"

	"github.com/clinicdesk/clinicdesk/internal/domain/billing"
	"github.com/clinicdesk/clinicdesk/internal/domain/diagnostics"
	"github.com/clinicdesk/clinicdesk/internal/domain/identity"
	"github.com/clinicdesk/clinicdesk/internal/domain/medication"
)

// JoinStrategy decides how prescriptions, reports and bills are attributed
// to a patient.
type JoinStrategy string

const (
	// JoinByName matches on exact patient name, including records that
	// also carry a patient id.
	JoinByName JoinStrategy = "name"
	// JoinByID matches records carrying a patient id by id and falls back to
	// exact name for records without one.
	JoinByID JoinStrategy = "id"
)

func ParseJoinStrategy(s string) (JoinStrategy, error) {
	switch JoinStrategy(s) {
	case "", JoinByName:
		return JoinByName, nil
	case JoinByID:
		return JoinByID, nil
	default:
		return "", fmt.Errorf("unknown join strategy %q (want name or id)", s)
	}
}

// index groups a collection by patient while keeping stored order, so the
// last element of a lookup is the last one written.
type index[T any] struct {
	items    []*T
	strategy JoinStrategy
	byID     map[string][]int
	byName   map[string][]int
}

func newIndex[T any](items []*T, strategy JoinStrategy, keys func(*T) (id, name string)) *index[T] {
	ix := &index[T]{
		items:    items,
		strategy: strategy,
		byID:     make(map[string][]int),
		byName:   make(map[string][]int),
	}
	for i, it := range items {
		id, name := keys(it)
		if strategy == JoinByID && id != "" {
			ix.byID[id] = append(ix.byID[id], i)
			continue
		}
		ix.byName[name] = append(ix.byName[name], i)
	}
	return ix
}

// For returns the items attributed to p in stored order. The result is
// never nil.
func (ix *index[T]) For(p *identity.Patient) []*T {
	var pos []int
	if ix.strategy == JoinByID {
		pos = mergeSorted(ix.byID[p.ID], ix.byName[p.Name])
	} else {
		pos = ix.byName[p.Name]
	}
	out := make([]*T, len(pos))
	for i, at := range pos {
		out[i] = ix.items[at]
	}
	return out
}

func mergeSorted(a, b []int) []int {
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 {
		return a
	}
	out := make([]int, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i] < b[j] {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}

// collections is one consistent read of every joined collection.
type collections struct {
	prescriptions *index[medication.Prescription]
	reports       *index[diagnostics.Report]
	medicineBills *index[billing.MedicineBill]
	hospitalBills *index[billing.HospitalBill]
}

func newCollections(strategy JoinStrategy, rx []*medication.Prescription, reports []*diagnostics.Report, mb []*billing.MedicineBill, hb []*billing.HospitalBill) *collections {
	return &collections{
		prescriptions: newIndex(rx, strategy, func(p *medication.Prescription) (string, string) { return p.PatientID, p.PatientName }),
		reports:       newIndex(reports, strategy, func(r *diagnostics.Report) (string, string) { return r.PatientID, r.PatientName }),
		medicineBills: newIndex(mb, strategy, func(b *billing.MedicineBill) (string, string) { return b.PatientID, b.PatientName }),
		hospitalBills: newIndex(hb, strategy, func(b *billing.HospitalBill) (string, string) { return b.PatientID, b.PatientName }),
	}
}

func (c *collections) recordFor(p *identity.Patient) *PatientRecord {
	rec := &PatientRecord{
		Patient:       p,
		Prescriptions: c.prescriptions.For(p),
		Reports:       c.reports.For(p),
		MedicineBills: c.medicineBills.For(p),
		HospitalBills: c.hospitalBills.For(p),
	}
	rec.Stats = computeStats(rec.Prescriptions, rec.Reports, rec.MedicineBills, rec.HospitalBills)
	return rec
}
