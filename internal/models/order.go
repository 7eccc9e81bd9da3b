package models

import (
	"time"

	"clinical-lookup/internal/records"
)

// OrderStatus is the lifecycle of a lab order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderInProgress OrderStatus = "in_progress"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
)

// Order is a lab order placed for a patient.
type Order struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	Number    string      `gorm:"size:30;uniqueIndex;not null" json:"number"`
	PatientID uint        `gorm:"not null;index" json:"patientId"`
	OrderedAt time.Time   `gorm:"index" json:"orderedAt"`
	Status    OrderStatus `gorm:"size:20;default:'pending'" json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`

	Patient Patient     `gorm:"foreignKey:PatientID" json:"-"`
	Lines   []OrderLine `gorm:"foreignKey:OrderID" json:"lines,omitempty"`
}

// OrderLine is one study on an order.
type OrderLine struct {
	ID       uint        `gorm:"primaryKey" json:"id"`
	OrderID  uint        `gorm:"not null;index" json:"orderId"`
	Position int         `json:"position"`
	StudyID  uint        `gorm:"not null" json:"studyId"`
	Price    float64     `json:"price"`
	Status   OrderStatus `gorm:"size:20;default:'pending'" json:"status"`

	Study Study `gorm:"foreignKey:StudyID" json:"-"`
}

// ToSummary maps the order to a history row. studyCount is passed in
// because history listings do not preload lines.
func (o *Order) ToSummary(studyCount int) records.OrderSummary {
	return records.OrderSummary{
		ID:         o.ID,
		Number:     o.Number,
		Date:       o.OrderedAt,
		Status:     string(o.Status),
		StudyCount: studyCount,
	}
}

// ToDetail maps an order with preloaded lines and studies.
func (o *Order) ToDetail() records.OrderDetail {
	lines := make([]records.OrderLine, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, records.OrderLine{
			Study:  l.Study.Name,
			Price:  l.Price,
			Status: string(l.Status),
		})
	}
	return records.OrderDetail{
		ID:        o.ID,
		PatientID: o.PatientID,
		Number:    o.Number,
		Date:      o.OrderedAt,
		Status:    string(o.Status),
		LineItems: lines,
	}
}
