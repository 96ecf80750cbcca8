package repository

import (
	"context"

	"hospital-management-server/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LabStore persists lab requests and their tests.
type LabStore interface {
	WithinTx(ctx context.Context, fn func(tx LabStore) error) error
	// Create inserts the request together with req.Tests.
	Create(ctx context.Context, req *models.LabRequest) error
	FindByCode(ctx context.Context, code string) (*models.LabRequest, error)
	// FindByCodeForUpdate locks the request row for the rest of the transaction.
	FindByCodeForUpdate(ctx context.Context, code string) (*models.LabRequest, error)
	List(ctx context.Context, filter LabRequestFilter) ([]models.LabRequest, error)
	// Save writes the request row only, never its tests.
	Save(ctx context.Context, req *models.LabRequest) error
	SaveTest(ctx context.Context, test *models.LabRequestTest) error
}

// LabRequestFilter narrows List. Zero fields are ignored.
type LabRequestFilter struct {
	DoctorUserID  string
	PatientUserID string
	Status        models.LabRequestStatus
}

// LabRepository is the gorm implementation of LabStore.
type LabRepository struct {
	db *gorm.DB
}

// NewLabRepository creates a new LabRepository.
func NewLabRepository(db *gorm.DB) *LabRepository {
	return &LabRepository{db: db}
}

func (r *LabRepository) conn(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

func (r *LabRepository) WithinTx(ctx context.Context, fn func(tx LabStore) error) error {
	return r.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&LabRepository{db: tx})
	})
}

func (r *LabRepository) Create(ctx context.Context, req *models.LabRequest) error {
	return translate(r.conn(ctx).Create(req).Error)
}

func orderedTests(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}

func (r *LabRepository) FindByCode(ctx context.Context, code string) (*models.LabRequest, error) {
	var req models.LabRequest
	if err := r.conn(ctx).Preload("Tests", orderedTests).Where("code = ?", code).First(&req).Error; err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

func (r *LabRepository) FindByCodeForUpdate(ctx context.Context, code string) (*models.LabRequest, error) {
	var req models.LabRequest
	if err := r.conn(ctx).Clauses(lockForUpdate).Where("code = ?", code).First(&req).Error; err != nil {
		return nil, translate(err)
	}
	if err := r.conn(ctx).Where("lab_request_id = ?", req.ID).Order("id ASC").Find(&req.Tests).Error; err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

func (r *LabRepository) List(ctx context.Context, filter LabRequestFilter) ([]models.LabRequest, error) {
	q := r.conn(ctx).Preload("Tests", orderedTests)
	if filter.DoctorUserID != "" {
		q = q.Where("doctor_user_id = ?", filter.DoctorUserID)
	}
	if filter.PatientUserID != "" {
		q = q.Where("patient_user_id = ?", filter.PatientUserID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var reqs []models.LabRequest
	if err := q.Order("created_at DESC").Find(&reqs).Error; err != nil {
		return nil, translate(err)
	}
	return reqs, nil
}

func (r *LabRepository) Save(ctx context.Context, req *models.LabRequest) error {
	return translate(r.conn(ctx).Omit(clause.Associations).Save(req).Error)
}

func (r *LabRepository) SaveTest(ctx context.Context, test *models.LabRequestTest) error {
	return translate(r.conn(ctx).Save(test).Error)
}
