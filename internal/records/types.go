package records

import "time"

// PatientSummary is one row of a patient search.
type PatientSummary struct {
	ID          uint   `json:"id" validate:"required"`
	DisplayName string `json:"displayName" validate:"required"`
	Identifier  string `json:"identifier"`
	Phone       string `json:"phone,omitempty"`
}

// Patient is the demographic block shown on top of a history.
type Patient struct {
	ID          uint       `json:"id" validate:"required"`
	FirstName   string     `json:"firstName" validate:"required"`
	LastName    string     `json:"lastName"`
	Identifier  string     `json:"identifier"`
	Phone       string     `json:"phone,omitempty"`
	Email       string     `json:"email,omitempty"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
	BloodType   string     `json:"bloodType,omitempty"`
	Allergies   string     `json:"allergies,omitempty"`
}

// FullName joins first and last name.
func (p Patient) FullName() string {
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// OrderSummary is an order row inside a patient history.
type OrderSummary struct {
	ID         uint      `json:"id" validate:"required"`
	Number     string    `json:"number" validate:"required"`
	Date       time.Time `json:"date"`
	Status     string    `json:"status"`
	StudyCount int       `json:"studyCount"`
}

// ResultSummary is a result row inside a patient history.
type ResultSummary struct {
	ID     uint      `json:"id" validate:"required"`
	Study  string    `json:"study" validate:"required"`
	Date   time.Time `json:"date"`
	Status string    `json:"status,omitempty"`
}

// Counts are the totals displayed with a history.
type Counts struct {
	Orders  int `json:"orders"`
	Results int `json:"results"`
}

// PatientHistory aggregates everything shown for a selected patient.
type PatientHistory struct {
	Patient Patient         `json:"patient"`
	Orders  []OrderSummary  `json:"orders" validate:"dive"`
	Results []ResultSummary `json:"results" validate:"dive"`
	Counts  Counts          `json:"counts"`
}

// OrderLine is one ordered study.
type OrderLine struct {
	Study  string  `json:"study" validate:"required"`
	Price  float64 `json:"price" validate:"gte=0"`
	Status string  `json:"status"`
}

// OrderDetail is a lab order with its line items.
type OrderDetail struct {
	ID        uint        `json:"id" validate:"required"`
	PatientID uint        `json:"patientId"`
	Number    string      `json:"number" validate:"required"`
	Date      time.Time   `json:"date"`
	Status    string      `json:"status"`
	LineItems []OrderLine `json:"lineItems" validate:"dive"`
}

// Total sums the line prices.
func (o OrderDetail) Total() float64 {
	var total float64
	for _, l := range o.LineItems {
		total += l.Price
	}
	return total
}

// ResultValue is a single measured parameter.
type ResultValue struct {
	Parameter string   `json:"parameter" validate:"required"`
	Value     string   `json:"value"`
	Unit      string   `json:"unit,omitempty"`
	RefMin    *float64 `json:"refMin,omitempty"`
	RefMax    *float64 `json:"refMax,omitempty"`
	Flag      Flag     `json:"flag" validate:"required,oneof=normal high low"`
}

// HasReference reports whether both reference bounds are known.
func (v ResultValue) HasReference() bool {
	return v.RefMin != nil && v.RefMax != nil
}

// PatientRef identifies the patient a result belongs to.
type PatientRef struct {
	ID         uint   `json:"id" validate:"required"`
	Name       string `json:"name"`
	Identifier string `json:"identifier"`
}

// ResultDetail is a lab result with its ordered values.
type ResultDetail struct {
	ID               uint          `json:"id" validate:"required"`
	Study            string        `json:"study" validate:"required"`
	Code             string        `json:"code,omitempty"`
	Category         string        `json:"category,omitempty"`
	Date             time.Time     `json:"date"`
	ValidationStatus string        `json:"validationStatus,omitempty"`
	Interpretation   *string       `json:"interpretation,omitempty"`
	Patient          *PatientRef   `json:"patient,omitempty"`
	Values           []ResultValue `json:"values" validate:"dive"`
}
