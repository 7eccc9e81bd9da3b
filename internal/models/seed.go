package models

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func ref(f float64) *float64 { return &f }

// Seed inserts a small demo data set. Rows that already exist are left
// untouched, so it is safe to run repeatedly.
func Seed(ctx context.Context, db *gorm.DB, adminEmail, adminPassword string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		admin := User{Email: adminEmail, FirstName: "Lab", LastName: "Admin", Role: RoleAdmin, Active: true}
		if err := admin.SetPassword(adminPassword); err != nil {
			return fmt.Errorf("hashing admin password: %w", err)
		}
		if err := tx.Where(User{Email: adminEmail}).FirstOrCreate(&admin).Error; err != nil {
			return fmt.Errorf("seeding admin: %w", err)
		}

		dob := time.Date(1984, 3, 12, 0, 0, 0, 0, time.UTC)
		patients := []Patient{
			{ID: 7, FirstName: "Maria", LastName: "Lopez", Identifier: "001-1234567-8", Phone: "809-555-0107", DateOfBirth: &dob, BloodType: "O+", Allergies: "Penicillin"},
			{ID: 8, FirstName: "Mario", LastName: "Reyes", Identifier: "001-7654321-0", Phone: "809-555-0108"},
			{ID: 9, FirstName: "Jonas", LastName: "Martinez", Identifier: "402-0000001-5"},
		}
		studies := []Study{
			{ID: 1, Code: "HEM", Name: "Hemograma completo", Category: "Hematologia", Price: 650, Active: true},
			{ID: 2, Code: "GLU", Name: "Glucosa en ayunas", Category: "Quimica", Price: 300, Active: true},
			{ID: 3, Code: "LIP", Name: "Perfil lipidico", Category: "Quimica", Price: 1200, Active: true},
		}
		orders := []Order{
			{ID: 101, Number: "ORD-2024-0101", PatientID: 7, OrderedAt: time.Date(2024, 5, 2, 8, 30, 0, 0, time.UTC), Status: OrderCompleted},
			{ID: 102, Number: "ORD-2024-0102", PatientID: 7, OrderedAt: time.Date(2024, 6, 14, 9, 0, 0, 0, time.UTC), Status: OrderInProgress},
		}
		lines := []OrderLine{
			{ID: 1, OrderID: 101, Position: 1, StudyID: 1, Price: 650, Status: OrderCompleted},
			{ID: 2, OrderID: 101, Position: 2, StudyID: 2, Price: 300, Status: OrderCompleted},
			{ID: 3, OrderID: 102, Position: 1, StudyID: 3, Price: 1200, Status: OrderPending},
		}
		interp := "Leve anemia microcitica; correlacionar con ferritina."
		orderID := uint(101)
		results := []Result{
			{ID: 501, PatientID: 7, OrderID: &orderID, StudyID: 1, ReportedAt: time.Date(2024, 5, 3, 14, 0, 0, 0, time.UTC), ValidationStatus: "validated", Interpretation: &interp},
		}
		values := []ResultValue{
			{ID: 1, ResultID: 501, Position: 1, Parameter: "Hemoglobina", Value: "10.9", Unit: "g/dL", RefMin: ref(12), RefMax: ref(15.5)},
			{ID: 2, ResultID: 501, Position: 2, Parameter: "Leucocitos", Value: "7.2", Unit: "10^3/uL", RefMin: ref(4.5), RefMax: ref(11)},
			{ID: 3, ResultID: 501, Position: 3, Parameter: "Plaquetas", Value: "460", Unit: "10^3/uL", RefMin: ref(150), RefMax: ref(450)},
			{ID: 4, ResultID: 501, Position: 4, Parameter: "Observaciones", Value: "Anisocitosis leve"},
		}

		for _, rows := range []any{&patients, &studies, &orders, &lines, &results, &values} {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(rows).Error; err != nil {
				return fmt.Errorf("seeding %T: %w", rows, err)
			}
		}
		return nil
	})
}
