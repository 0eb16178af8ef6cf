package identity

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/platform/apierr"
	"github.com/clinicdesk/clinicdesk/internal/platform/store"
)

// -- Mock Repository --

type mockPatientRepo struct {
	patients []*Patient
	listErr  error
}

func newMockPatientRepo() *mockPatientRepo {
	return &mockPatientRepo{}
}

func (m *mockPatientRepo) List(_ context.Context) ([]*Patient, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.patients, nil
}

func (m *mockPatientRepo) GetByID(_ context.Context, id string) (*Patient, error) {
	for _, p := range m.patients {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, ErrPatientNotFound
}

func (m *mockPatientRepo) Create(_ context.Context, p *Patient) error {
	p.ID = uuid.New().String()
	m.patients = append(m.patients, p)
	return nil
}

var fixedNow = time.Date(2024, 6, 14, 9, 30, 0, 0, time.UTC)

func newTestService() (*Service, *mockPatientRepo) {
	repo := newMockPatientRepo()
	return NewService(repo, func() time.Time { return fixedNow }, time.UTC), repo
}

func strPtr(s string) *string { return &s }

func TestService_RegisterPatient(t *testing.T) {
	svc, repo := newTestService()
	p := &Patient{
		Name:       "  Priya Sharma ",
		Age:        34,
		Phone:      " 98765 12345 ",
		BloodGroup: strPtr("  "),
		Allergies:  []string{" Penicillin ", "", "Dust"},
	}
	if err := svc.RegisterPatient(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID == "" {
		t.Error("expected ID to be assigned")
	}
	if p.Name != "Priya Sharma" {
		t.Errorf("expected trimmed name, got %q", p.Name)
	}
	if p.Condition != "General" {
		t.Errorf("expected default condition General, got %q", p.Condition)
	}
	if p.Gender != "Male" {
		t.Errorf("expected default gender Male, got %q", p.Gender)
	}
	if p.LastVisit != "2024-06-14" {
		t.Errorf("expected last visit 2024-06-14, got %s", p.LastVisit)
	}
	if p.CreatedAt == nil || *p.CreatedAt != "2024-06-14" {
		t.Errorf("expected created_at 2024-06-14, got %v", p.CreatedAt)
	}
	if p.BloodGroup != nil {
		t.Errorf("expected blank blood group to be dropped, got %q", *p.BloodGroup)
	}
	if len(p.Allergies) != 2 || p.Allergies[0] != "Penicillin" || p.Allergies[1] != "Dust" {
		t.Errorf("unexpected allergies: %v", p.Allergies)
	}
	if p.Avatar != DefaultAvatar {
		t.Errorf("expected default avatar, got %s", p.Avatar)
	}
	if len(repo.patients) != 1 {
		t.Errorf("expected 1 stored patient, got %d", len(repo.patients))
	}
}

func TestService_RegisterPatient_Validation(t *testing.T) {
	tests := []struct {
		name    string
		patient Patient
		wantMsg string
	}{
		{"missing name", Patient{Name: "   ", Age: 30, Phone: "123"}, "patient name is required"},
		{"zero age", Patient{Name: "A", Age: 0, Phone: "123"}, "please enter a valid age"},
		{"negative age", Patient{Name: "A", Age: -4, Phone: "123"}, "please enter a valid age"},
		{"missing phone", Patient{Name: "A", Age: 30, Phone: " "}, "phone number is required"},
		{"bad gender", Patient{Name: "A", Age: 30, Phone: "1", Gender: "Unknown"}, "invalid gender: Unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestService()
			p := tt.patient
			err := svc.RegisterPatient(context.Background(), &p)
			if !apierr.IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("expected %q in %q", tt.wantMsg, err.Error())
			}
			if len(repo.patients) != 0 {
				t.Error("expected nothing stored")
			}
		})
	}
}

func TestService_NewRegistrations(t *testing.T) {
	svc, repo := newTestService()
	repo.patients = []*Patient{
		{ID: "1", Name: "Created today", CreatedAt: strPtr("2024-06-14"), LastVisit: "2024-01-01"},
		{ID: "2", Name: "Legacy visited today", LastVisit: "2024-06-14"},
		{ID: "3", Name: "Created earlier", CreatedAt: strPtr("2024-06-01"), LastVisit: "2024-06-14"},
		{ID: "4", Name: "Old", LastVisit: "2024-05-01"},
	}

	got, err := svc.NewRegistrations(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "2" {
		t.Errorf("unexpected registrations: %+v", got)
	}
}

func TestService_NewRegistrations_LoadError(t *testing.T) {
	svc, repo := newTestService()
	repo.listErr = errors.New("storage unavailable")
	if _, err := svc.NewRegistrations(context.Background()); err == nil {
		t.Error("expected load error")
	}
}

func TestService_GetPatient_NotFound(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.GetPatient(context.Background(), "missing")
	if !errors.Is(err, ErrPatientNotFound) || !errors.Is(err, apierr.ErrNotFound) {
		t.Errorf("expected ErrPatientNotFound, got %v", err)
	}
}

func TestParseAllergies(t *testing.T) {
	got := ParseAllergies("Peanuts, , Latex ,")
	if len(got) != 2 || got[0] != "Peanuts" || got[1] != "Latex" {
		t.Errorf("unexpected allergies: %v", got)
	}
	if got := ParseAllergies(""); len(got) != 0 {
		t.Errorf("expected empty list, got %v", got)
	}
}

func TestPatient_Matches(t *testing.T) {
	p := &Patient{Name: "John Smith", Phone: "+91 98765 43210", Email: "John.Smith@Example.com"}
	tests := []struct {
		query string
		want  bool
	}{
		{"john", true},
		{"SMITH", true},
		{"98765", true},
		{"example.com", true},
		{"   ", true},
		{"", true},
		{"jane", false},
	}
	for _, tt := range tests {
		if got := p.Matches(tt.query); got != tt.want {
			t.Errorf("Matches(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestPatient_RegistrationDate(t *testing.T) {
	p := &Patient{LastVisit: "2024-01-02"}
	if p.RegistrationDate() != "2024-01-02" {
		t.Errorf("expected fallback to last visit, got %s", p.RegistrationDate())
	}
	p.CreatedAt = strPtr("")
	if p.RegistrationDate() != "2024-01-02" {
		t.Errorf("expected empty created_at to fall back, got %s", p.RegistrationDate())
	}
	p.CreatedAt = strPtr("2023-12-31")
	if p.RegistrationDate() != "2023-12-31" {
		t.Errorf("expected created_at, got %s", p.RegistrationDate())
	}
}

func TestPatientRepoStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewPatientRepoStore(store.NewMemoryStore())

	p := &Patient{Name: "Ravi", Age: 40, Phone: "1"}
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := repo.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Ravi" {
		t.Errorf("expected Ravi, got %s", got.Name)
	}
	if _, err := repo.GetByID(ctx, "nope"); !errors.Is(err, ErrPatientNotFound) {
		t.Errorf("expected ErrPatientNotFound, got %v", err)
	}
	all, _ := repo.List(ctx)
	if len(all) != 1 {
		t.Errorf("expected 1 patient, got %d", len(all))
	}
}
