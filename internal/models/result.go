package models

import (
	"time"

	"clinical-lookup/internal/records"
)

// Result is a reported lab result.
type Result struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	PatientID        uint      `gorm:"not null;index" json:"patientId"`
	OrderID          *uint     `gorm:"index" json:"orderId,omitempty"`
	StudyID          uint      `gorm:"not null" json:"studyId"`
	ReportedAt       time.Time `gorm:"index" json:"reportedAt"`
	ValidationStatus string    `gorm:"size:20;default:'pending'" json:"validationStatus"`
	Interpretation   *string   `gorm:"type:text" json:"interpretation,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`

	Patient Patient       `gorm:"foreignKey:PatientID" json:"-"`
	Study   Study         `gorm:"foreignKey:StudyID" json:"-"`
	Values  []ResultValue `gorm:"foreignKey:ResultID" json:"values,omitempty"`
}

// ResultValue is one measured parameter of a result.
type ResultValue struct {
	ID        uint     `gorm:"primaryKey" json:"id"`
	ResultID  uint     `gorm:"not null;index" json:"resultId"`
	Position  int      `json:"position"`
	Parameter string   `gorm:"size:150;not null" json:"parameter"`
	Value     string   `gorm:"size:100" json:"value"`
	Unit      string   `gorm:"size:30" json:"unit"`
	RefMin    *float64 `json:"refMin,omitempty"`
	RefMax    *float64 `json:"refMax,omitempty"`
	Flag      string   `gorm:"size:10" json:"flag"`
}

// ToRecord maps a stored value, deriving the flag when none was recorded.
func (v *ResultValue) ToRecord() records.ResultValue {
	flag := records.Flag(v.Flag)
	if !flag.IsValid() {
		flag = records.DeriveFlag(v.Value, v.RefMin, v.RefMax)
	}
	return records.ResultValue{
		Parameter: v.Parameter,
		Value:     v.Value,
		Unit:      v.Unit,
		RefMin:    v.RefMin,
		RefMax:    v.RefMax,
		Flag:      flag,
	}
}

// ToSummary maps the result to a history row. Study must be preloaded.
func (r *Result) ToSummary() records.ResultSummary {
	return records.ResultSummary{
		ID:     r.ID,
		Study:  r.Study.Name,
		Date:   r.ReportedAt,
		Status: r.ValidationStatus,
	}
}

// ToDetail maps a result with preloaded patient, study and values.
func (r *Result) ToDetail() records.ResultDetail {
	values := make([]records.ResultValue, 0, len(r.Values))
	for i := range r.Values {
		values = append(values, r.Values[i].ToRecord())
	}
	detail := records.ResultDetail{
		ID:               r.ID,
		Study:            r.Study.Name,
		Code:             r.Study.Code,
		Category:         r.Study.Category,
		Date:             r.ReportedAt,
		ValidationStatus: r.ValidationStatus,
		Interpretation:   r.Interpretation,
		Values:           values,
	}
	if r.Patient.ID != 0 {
		detail.Patient = &records.PatientRef{
			ID:         r.Patient.ID,
			Name:       r.Patient.FullName(),
			Identifier: r.Patient.Identifier,
		}
	}
	return detail
}
