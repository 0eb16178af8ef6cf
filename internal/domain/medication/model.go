package medication

// Prescription is a set of medications issued to a patient on one visit.
// PatientName is the legacy join key; PatientID is filled for prescriptions
// written against a registered patient id.
type Prescription struct {
	ID          string       `json:"id"`
	PatientID   string       `json:"patient_id,omitempty"`
	PatientName string       `json:"patient_name"`
	Date        string       `json:"date"`
	DoctorName  string       `json:"doctor_name"`
	Medications []Medication `json:"medications"`
	Status      string       `json:"status"`
	Notes       string       `json:"notes"`
}

type Medication struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
	Duration  string `json:"duration"`
}

const (
	StatusActive    = "Active"
	StatusCompleted = "Completed"
	StatusExpired   = "Expired"
)

var validPrescriptionStatuses = map[string]bool{
	StatusActive: true, StatusCompleted: true, StatusExpired: true,
}
