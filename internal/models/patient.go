package models

import (
	"time"

	"clinical-lookup/internal/records"
)

// Patient is a person with lab orders and results.
type Patient struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	FirstName   string     `gorm:"size:100;not null;index" json:"firstName"`
	LastName    string     `gorm:"size:100;index" json:"lastName"`
	Identifier  string     `gorm:"size:30;uniqueIndex" json:"identifier"`
	Phone       string     `gorm:"size:30" json:"phone,omitempty"`
	Email       string     `gorm:"size:255" json:"email,omitempty"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
	BloodType   string     `gorm:"size:5" json:"bloodType,omitempty"`
	Allergies   string     `gorm:"type:text" json:"allergies,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// FullName joins first and last name.
func (p *Patient) FullName() string {
	return p.ToRecord().FullName()
}

// ToSummary maps the patient to a search row.
func (p *Patient) ToSummary() records.PatientSummary {
	return records.PatientSummary{
		ID:          p.ID,
		DisplayName: p.FullName(),
		Identifier:  p.Identifier,
		Phone:       p.Phone,
	}
}

// ToRecord maps the patient to the history header.
func (p *Patient) ToRecord() records.Patient {
	return records.Patient{
		ID:          p.ID,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		Identifier:  p.Identifier,
		Phone:       p.Phone,
		Email:       p.Email,
		DateOfBirth: p.DateOfBirth,
		BloodType:   p.BloodType,
		Allergies:   p.Allergies,
	}
}

// Study is a catalog entry that can be ordered.
type Study struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	Code     string  `gorm:"size:20;uniqueIndex;not null" json:"code"`
	Name     string  `gorm:"size:150;not null" json:"name"`
	Category string  `gorm:"size:100" json:"category"`
	Price    float64 `gorm:"not null" json:"price"`
	Active   bool    `gorm:"default:true" json:"active"`
}
