package repository

import (
	"context"

	"hospital-management-server/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DoctorStore is the doctor directory.
type DoctorStore interface {
	FindByID(ctx context.Context, id uint) (*models.Doctor, error)
	FindByUserID(ctx context.Context, userID string) (*models.Doctor, error)
	List(ctx context.Context, specializationID uint) ([]models.Doctor, error)
	Create(ctx context.Context, doctor *models.Doctor) error
	Save(ctx context.Context, doctor *models.Doctor) error
	// UsersWithoutProfile returns doctor-role accounts that have no Doctor row.
	UsersWithoutProfile(ctx context.Context) ([]models.User, error)

	ListSpecializations(ctx context.Context) ([]models.Specialization, error)
	FindSpecialization(ctx context.Context, id uint) (*models.Specialization, error)
	CreateSpecialization(ctx context.Context, spec *models.Specialization) error
}

// DoctorRepository is the gorm implementation of DoctorStore.
type DoctorRepository struct {
	db *gorm.DB
}

// NewDoctorRepository creates a new DoctorRepository.
func NewDoctorRepository(db *gorm.DB) *DoctorRepository {
	return &DoctorRepository{db: db}
}

func (r *DoctorRepository) conn(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

func (r *DoctorRepository) FindByID(ctx context.Context, id uint) (*models.Doctor, error) {
	var doctor models.Doctor
	if err := r.conn(ctx).Preload("Specialization").First(&doctor, id).Error; err != nil {
		return nil, translate(err)
	}
	return &doctor, nil
}

func (r *DoctorRepository) FindByUserID(ctx context.Context, userID string) (*models.Doctor, error) {
	var doctor models.Doctor
	if err := r.conn(ctx).Preload("Specialization").Where("user_id = ?", userID).First(&doctor).Error; err != nil {
		return nil, translate(err)
	}
	return &doctor, nil
}

func (r *DoctorRepository) List(ctx context.Context, specializationID uint) ([]models.Doctor, error) {
	q := r.conn(ctx).Preload("Specialization").Order("display_name ASC")
	if specializationID != 0 {
		q = q.Where("specialization_id = ?", specializationID)
	}
	var doctors []models.Doctor
	if err := q.Find(&doctors).Error; err != nil {
		return nil, translate(err)
	}
	return doctors, nil
}

func (r *DoctorRepository) Create(ctx context.Context, doctor *models.Doctor) error {
	return translate(r.conn(ctx).Omit(clause.Associations).Create(doctor).Error)
}

func (r *DoctorRepository) Save(ctx context.Context, doctor *models.Doctor) error {
	return translate(r.conn(ctx).Omit(clause.Associations).Save(doctor).Error)
}

func (r *DoctorRepository) UsersWithoutProfile(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.conn(ctx).
		Where("role = ?", models.RoleDoctor).
		Where("id NOT IN (?)", r.conn(ctx).Model(&models.Doctor{}).Select("user_id")).
		Find(&users).Error
	if err != nil {
		return nil, translate(err)
	}
	return users, nil
}

func (r *DoctorRepository) ListSpecializations(ctx context.Context) ([]models.Specialization, error) {
	var specs []models.Specialization
	if err := r.conn(ctx).Order("name ASC").Find(&specs).Error; err != nil {
		return nil, translate(err)
	}
	return specs, nil
}

func (r *DoctorRepository) FindSpecialization(ctx context.Context, id uint) (*models.Specialization, error) {
	var spec models.Specialization
	if err := r.conn(ctx).First(&spec, id).Error; err != nil {
		return nil, translate(err)
	}
	return &spec, nil
}

func (r *DoctorRepository) CreateSpecialization(ctx context.Context, spec *models.Specialization) error {
	return translate(r.conn(ctx).Create(spec).Error)
}
