package models

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrNotFound is returned by the store when a row does not exist.
var ErrNotFound = errors.New("record not found")

// SearchLimit caps the number of patients a search returns.
const SearchLimit = 20

// RecordStore is the read side the records API is served from.
type RecordStore interface {
	SearchPatients(ctx context.Context, query string, limit int) ([]Patient, error)
	FindPatient(ctx context.Context, id uint) (*Patient, error)
	ListOrders(ctx context.Context, patientID uint) ([]Order, map[uint]int, error)
	ListResults(ctx context.Context, patientID uint) ([]Result, error)
	FindOrder(ctx context.Context, id uint) (*Order, error)
	FindResult(ctx context.Context, id uint) (*Result, error)
	FindUserByEmail(ctx context.Context, email string) (*User, error)
}

// GormStore implements RecordStore on gorm.
type GormStore struct {
	DB *gorm.DB
}

// NewGormStore creates a new GormStore.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) SearchPatients(ctx context.Context, query string, limit int) ([]Patient, error) {
	pattern := "%" + escapeLike(strings.ToLower(strings.TrimSpace(query))) + "%"
	var patients []Patient
	err := s.DB.WithContext(ctx).
		Where("LOWER(first_name) LIKE ?", pattern).
		Or("LOWER(last_name) LIKE ?", pattern).
		Or("LOWER(CONCAT(first_name, ' ', last_name)) LIKE ?", pattern).
		Or("LOWER(identifier) LIKE ?", pattern).
		Order("last_name, first_name").
		Limit(limit).
		Find(&patients).Error
	return patients, err
}

func (s *GormStore) FindPatient(ctx context.Context, id uint) (*Patient, error) {
	var p Patient
	if err := s.DB.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// ListOrders returns the patient's orders newest first, plus the number of
// lines on each order keyed by order id.
func (s *GormStore) ListOrders(ctx context.Context, patientID uint) ([]Order, map[uint]int, error) {
	var orders []Order
	if err := s.DB.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("ordered_at desc, id desc").
		Find(&orders).Error; err != nil {
		return nil, nil, err
	}

	counts := make(map[uint]int, len(orders))
	if len(orders) == 0 {
		return orders, counts, nil
	}
	ids := make([]uint, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	var rows []struct {
		OrderID uint
		Total   int
	}
	if err := s.DB.WithContext(ctx).Model(&OrderLine{}).
		Select("order_id, COUNT(*) AS total").
		Where("order_id IN ?", ids).
		Group("order_id").
		Scan(&rows).Error; err != nil {
		return nil, nil, err
	}
	for _, r := range rows {
		counts[r.OrderID] = r.Total
	}
	return orders, counts, nil
}

func (s *GormStore) ListResults(ctx context.Context, patientID uint) ([]Result, error) {
	var results []Result
	err := s.DB.WithContext(ctx).
		Preload("Study").
		Where("patient_id = ?", patientID).
		Order("reported_at desc, id desc").
		Find(&results).Error
	return results, err
}

func (s *GormStore) FindOrder(ctx context.Context, id uint) (*Order, error) {
	var o Order
	err := s.DB.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position, id") }).
		Preload("Lines.Study").
		First(&o, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (s *GormStore) FindResult(ctx context.Context, id uint) (*Result, error) {
	var r Result
	err := s.DB.WithContext(ctx).
		Preload("Patient").
		Preload("Study").
		Preload("Values", func(db *gorm.DB) *gorm.DB { return db.Order("position, id") }).
		First(&r, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

func (s *GormStore) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
