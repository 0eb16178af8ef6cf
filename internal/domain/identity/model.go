package identity

import "strings"

// Patient is a registered clinic patient.
type Patient struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Age              int      `json:"age"`
	Gender           string   `json:"gender"`
	Phone            string   `json:"phone"`
	Email            string   `json:"email"`
	Address          string   `json:"address"`
	Condition        string   `json:"condition"`
	BloodGroup       *string  `json:"blood_group,omitempty"`
	EmergencyContact *string  `json:"emergency_contact,omitempty"`
	Allergies        []string `json:"allergies"`
	LastVisit        string   `json:"last_visit"`
	CreatedAt        *string  `json:"created_at,omitempty"`
	Avatar           string   `json:"avatar"`
}

// RegistrationDate is the creation date, or the last visit for records
// created before creation dates were kept.
func (p *Patient) RegistrationDate() string {
	if p.CreatedAt != nil && *p.CreatedAt != "" {
		return *p.CreatedAt
	}
	return p.LastVisit
}

// Matches reports whether the patient matches a search query. Name and
// email compare case-insensitively; phone compares the raw query.
func (p *Patient) Matches(query string) bool {
	if strings.TrimSpace(query) == "" {
		return true
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(p.Name), q) ||
		strings.Contains(p.Phone, query) ||
		strings.Contains(strings.ToLower(p.Email), q)
}

func strVal(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
