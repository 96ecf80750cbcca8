package repository

import (
	"context"
	"time"

	"hospital-management-server/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AppointmentStore persists appointments.
type AppointmentStore interface {
	// WithinTx runs fn against a store bound to a single transaction.
	WithinTx(ctx context.Context, fn func(tx AppointmentStore) error) error
	FindByID(ctx context.Context, id uint) (*models.Appointment, error)
	FindByIDForUpdate(ctx context.Context, id uint) (*models.Appointment, error)
	// LockDoctor row-locks the doctor until the transaction ends, so queue
	// assignment for that doctor runs one booking at a time. ErrNotFound if
	// the doctor is gone.
	LockDoctor(ctx context.Context, doctorID uint) error
	// SlotTaken reports whether a non-cancelled booking holds the slot.
	SlotTaken(ctx context.Context, doctorID uint, date time.Time, timeSlot string) (bool, error)
	// MaxQueueNumber returns the highest queue number of the doctor's day
	// across all statuses, 0 if there is none.
	MaxQueueNumber(ctx context.Context, doctorID uint, date time.Time) (int, error)
	Create(ctx context.Context, appt *models.Appointment) error
	Save(ctx context.Context, appt *models.Appointment) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filter AppointmentFilter) ([]models.Appointment, error)
}

// AppointmentFilter narrows List. Zero fields are ignored.
type AppointmentFilter struct {
	Status   models.AppointmentStatus
	DoctorID uint
	UserID   string
	Date     *time.Time
	Limit    int
}

var lockForUpdate = clause.Locking{Strength: "UPDATE"}

// AppointmentRepository is the gorm implementation of AppointmentStore.
type AppointmentRepository struct {
	db *gorm.DB
}

// NewAppointmentRepository creates a new AppointmentRepository.
func NewAppointmentRepository(db *gorm.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

func (r *AppointmentRepository) conn(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

func (r *AppointmentRepository) WithinTx(ctx context.Context, fn func(tx AppointmentStore) error) error {
	return r.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&AppointmentRepository{db: tx})
	})
}

func (r *AppointmentRepository) FindByID(ctx context.Context, id uint) (*models.Appointment, error) {
	var appt models.Appointment
	if err := r.conn(ctx).Preload("Doctor.Specialization").First(&appt, id).Error; err != nil {
		return nil, translate(err)
	}
	return &appt, nil
}

func (r *AppointmentRepository) FindByIDForUpdate(ctx context.Context, id uint) (*models.Appointment, error) {
	var appt models.Appointment
	if err := r.conn(ctx).Clauses(lockForUpdate).First(&appt, id).Error; err != nil {
		return nil, translate(err)
	}
	return &appt, nil
}

func (r *AppointmentRepository) LockDoctor(ctx context.Context, doctorID uint) error {
	var ids []uint
	err := r.conn(ctx).Model(&models.Doctor{}).
		Clauses(lockForUpdate).
		Where("id = ?", doctorID).
		Limit(1).
		Pluck("id", &ids).Error
	if err != nil {
		return translate(err)
	}
	if len(ids) == 0 {
		return ErrNotFound
	}
	return nil
}

// SlotTaken locks matching rows rather than counting them: PostgreSQL
// rejects FOR UPDATE on aggregates.
func (r *AppointmentRepository) SlotTaken(ctx context.Context, doctorID uint, date time.Time, timeSlot string) (bool, error) {
	var ids []uint
	err := r.conn(ctx).Model(&models.Appointment{}).
		Clauses(lockForUpdate).
		Where("doctor_id = ? AND date = ? AND time_slot = ? AND status <> ?",
			doctorID, models.NormalizeDate(date).Format(models.DateLayout), timeSlot, models.AppointmentCancelled).
		Limit(1).
		Pluck("id", &ids).Error
	if err != nil {
		return false, translate(err)
	}
	return len(ids) > 0, nil
}

func (r *AppointmentRepository) MaxQueueNumber(ctx context.Context, doctorID uint, date time.Time) (int, error) {
	var numbers []int
	err := r.conn(ctx).Model(&models.Appointment{}).
		Clauses(lockForUpdate).
		Where("doctor_id = ? AND date = ?", doctorID, models.NormalizeDate(date).Format(models.DateLayout)).
		Order("queue_number DESC").
		Limit(1).
		Pluck("queue_number", &numbers).Error
	if err != nil {
		return 0, translate(err)
	}
	if len(numbers) == 0 {
		return 0, nil
	}
	return numbers[0], nil
}

func (r *AppointmentRepository) Create(ctx context.Context, appt *models.Appointment) error {
	return translate(r.conn(ctx).Omit(clause.Associations).Create(appt).Error)
}

func (r *AppointmentRepository) Save(ctx context.Context, appt *models.Appointment) error {
	return translate(r.conn(ctx).Omit(clause.Associations).Save(appt).Error)
}

func (r *AppointmentRepository) Delete(ctx context.Context, id uint) error {
	res := r.conn(ctx).Delete(&models.Appointment{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AppointmentRepository) List(ctx context.Context, filter AppointmentFilter) ([]models.Appointment, error) {
	q := r.conn(ctx).Preload("Doctor.Specialization")
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.DoctorID != 0 {
		q = q.Where("doctor_id = ?", filter.DoctorID)
	}
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.Date != nil {
		q = q.Where("date = ?", models.NormalizeDate(*filter.Date).Format(models.DateLayout))
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var appts []models.Appointment
	if err := q.Order("date DESC").Order("time_slot ASC").Find(&appts).Error; err != nil {
		return nil, translate(err)
	}
	return appts, nil
}
