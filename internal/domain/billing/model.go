package billing

// MedicineBill is a pharmacy bill. TotalAmount is in rupees.
type MedicineBill struct {
	ID           string         `json:"id"`
	PatientID    string         `json:"patient_id,omitempty"`
	PatientName  string         `json:"patient_name"`
	Date         string         `json:"date"`
	TotalAmount  float64        `json:"total_amount"`
	Status       string         `json:"status"`
	PharmacyName string         `json:"pharmacy_name"`
	Medicines    []MedicineLine `json:"medicines"`
}

type MedicineLine struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
	Total    float64 `json:"total"`
}

// HospitalBill covers services rendered during a visit or an admission.
type HospitalBill struct {
	ID            string        `json:"id"`
	PatientID     string        `json:"patient_id,omitempty"`
	PatientName   string        `json:"patient_name"`
	Date          string        `json:"date"`
	TotalAmount   float64       `json:"total_amount"`
	Status        string        `json:"status"`
	Services      []ServiceLine `json:"services"`
	DoctorFees    float64       `json:"doctor_fees"`
	AdmissionDate *string       `json:"admission_date,omitempty"`
	DischargeDate *string       `json:"discharge_date,omitempty"`
}

type ServiceLine struct {
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

const (
	StatusPaid    = "Paid"
	StatusPending = "Pending"
	StatusOverdue = "Overdue"
)

var validBillStatuses = map[string]bool{
	StatusPaid: true, StatusPending: true, StatusOverdue: true,
}

// LineTotal sums the medicine lines. A line without a total contributes
// quantity * price.
func (b *MedicineBill) LineTotal() float64 {
	var sum float64
	for _, m := range b.Medicines {
		if m.Total > 0 {
			sum += m.Total
		} else {
			sum += float64(m.Quantity) * m.Price
		}
	}
	return sum
}

// LineTotal sums the service lines plus doctor fees.
func (b *HospitalBill) LineTotal() float64 {
	sum := b.DoctorFees
	for _, s := range b.Services {
		sum += s.Amount
	}
	return sum
}
