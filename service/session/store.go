package session

import (
	"context"
	"errors"
	"time"

	"github.com/schedulepro/server/cmd/models"
	"gorm.io/gorm"
)

// storeTimeout bounds every store round trip. A timeout surfaces as a
// PersistenceError like any other store failure.
const storeTimeout = 5 * time.Second

// Store is the document-store contract the scheduler and lifecycle manager
// depend on. Each record is written whole or by a single field; no
// multi-record transactions are needed.
type Store interface {
	Create(ctx context.Context, record *models.SessionRecord) error
	ByID(ctx context.Context, id string) (*models.SessionRecord, error)
	ByBookingKey(ctx context.Context, key string) (*models.SessionRecord, error)
	ByPatient(ctx context.Context, patientID uint) ([]models.SessionRecord, error)
	SetStatus(ctx context.Context, id string, status string) error
}

type gormStore struct {
	db *gorm.DB
}

// NewStore returns the postgres-backed session store.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Create(ctx context.Context, record *models.SessionRecord) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	return s.db.WithContext(ctx).Create(record).Error
}

func (s *gormStore) ByID(ctx context.Context, id string) (*models.SessionRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	var record models.SessionRecord
	if err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (s *gormStore) ByBookingKey(ctx context.Context, key string) (*models.SessionRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	var record models.SessionRecord
	if err := s.db.WithContext(ctx).First(&record, "booking_key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (s *gormStore) ByPatient(ctx context.Context, patientID uint) ([]models.SessionRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	var records []models.SessionRecord
	err := s.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("scheduled_date ASC, created_at ASC").
		Find(&records).Error
	return records, err
}

func (s *gormStore) SetStatus(ctx context.Context, id string, status string) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	result := s.db.WithContext(ctx).
		Model(&models.SessionRecord{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}
