package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hospital-management-server/internal/apperr"
	"hospital-management-server/internal/metrics"
	"hospital-management-server/internal/models"
	"hospital-management-server/internal/repository"

	"github.com/sirupsen/logrus"
)

// AppointmentService books doctors' daily slots and keeps the per-day queue.
type AppointmentService struct {
	appointments repository.AppointmentStore
	doctors      repository.DoctorStore
	users        repository.UserStore
	log          logrus.FieldLogger
}

// NewAppointmentService creates a new AppointmentService.
func NewAppointmentService(appointments repository.AppointmentStore, doctors repository.DoctorStore, users repository.UserStore, log logrus.FieldLogger) *AppointmentService {
	return &AppointmentService{
		appointments: appointments,
		doctors:      doctors,
		users:        users,
		log:          log.WithField("component", "appointments"),
	}
}

// CreateAppointmentInput is a booking request. UserID, Reason and Status
// are optional; Status defaults to UPCOMING.
type CreateAppointmentInput struct {
	DoctorID        uint
	UserID          *string
	PatientName     string
	ContactNumber   string
	AppointmentType string
	Reason          *string
	Date            time.Time
	TimeSlot        string
	Status          models.AppointmentStatus
}

// AppointmentQuery filters List. Zero fields are ignored.
type AppointmentQuery struct {
	Status   models.AppointmentStatus
	DoctorID uint
	Date     *time.Time
	Limit    int
}

// AppointmentPatch is an admin field update; nil fields are left alone.
type AppointmentPatch struct {
	DoctorID        *uint
	UserID          *string
	PatientName     *string
	ContactNumber   *string
	AppointmentType *string
	Reason          *string
	Date            *time.Time
	TimeSlot        *string
	QueueNumber     *int
	Status          *models.AppointmentStatus
}

const (
	msgSlotBooked = "slot already booked"
	msgQueueTaken = "queue number already assigned, please retry"
)

// Create books a slot inside one transaction that holds the doctor row lock.
// The unique indexes remain the final arbiter.
func (s *AppointmentService) Create(ctx context.Context, in CreateAppointmentInput) (*models.Appointment, error) {
	if err := s.requireDoctor(ctx, in.DoctorID); err != nil {
		return nil, err
	}
	userID := optionalString(in.UserID)
	if userID != nil {
		if err := s.requireUser(ctx, *userID); err != nil {
			return nil, err
		}
	}

	status := in.Status
	if status == "" {
		status = models.AppointmentUpcoming
	}
	if !status.Valid() {
		return nil, apperr.Validation("invalid appointment status %q", status)
	}

	appt := &models.Appointment{
		DoctorID:        in.DoctorID,
		UserID:          userID,
		PatientName:     strings.TrimSpace(in.PatientName),
		ContactNumber:   strings.TrimSpace(in.ContactNumber),
		AppointmentType: strings.TrimSpace(in.AppointmentType),
		Reason:          optionalString(in.Reason),
		Date:            models.NormalizeDate(in.Date),
		TimeSlot:        strings.TrimSpace(in.TimeSlot),
		Status:          status,
	}

	err := s.appointments.WithinTx(ctx, func(tx repository.AppointmentStore) error {
		// Concurrent bookings for one doctor serialize here, including on an
		// empty day where MaxQueueNumber has no rows to lock.
		if err := tx.LockDoctor(ctx, appt.DoctorID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperr.NotFound("doctor %d not found", appt.DoctorID)
			}
			return fmt.Errorf("lock doctor: %w", err)
		}

		taken, err := tx.SlotTaken(ctx, appt.DoctorID, appt.Date, appt.TimeSlot)
		if err != nil {
			return fmt.Errorf("check slot: %w", err)
		}
		if taken {
			return apperr.Conflict(msgSlotBooked)
		}

		last, err := tx.MaxQueueNumber(ctx, appt.DoctorID, appt.Date)
		if err != nil {
			return fmt.Errorf("read queue: %w", err)
		}
		appt.QueueNumber = last + 1

		if err := tx.Create(ctx, appt); err != nil {
			if index, dup := repository.DuplicateIndex(err); dup {
				if index == models.IndexAppointmentQueue {
					return apperr.Conflict(msgQueueTaken).Wrap(err)
				}
				return apperr.Conflict(msgSlotBooked).Wrap(err)
			}
			return fmt.Errorf("create appointment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.AppointmentBooked(string(appt.Status))
	s.log.WithFields(logrus.Fields{
		"appointment_id": appt.ID,
		"doctor_id":      appt.DoctorID,
		"date":           appt.Date.Format(models.DateLayout),
		"time_slot":      appt.TimeSlot,
		"queue_number":   appt.QueueNumber,
	}).Info("appointment booked")

	return s.FindOne(ctx, appt.ID)
}

// List returns appointments ordered by date descending, then time slot.
func (s *AppointmentService) List(ctx context.Context, q AppointmentQuery) ([]models.Appointment, error) {
	if q.Status != "" && !q.Status.Valid() {
		return nil, apperr.Validation("invalid appointment status %q", q.Status)
	}
	appts, err := s.appointments.List(ctx, repository.AppointmentFilter{
		Status:   q.Status,
		DoctorID: q.DoctorID,
		Date:     q.Date,
		Limit:    q.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appts, nil
}

// FindOne returns a single appointment with its doctor.
func (s *AppointmentService) FindOne(ctx context.Context, id uint) (*models.Appointment, error) {
	appt, err := s.appointments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("appointment %d not found", id)
		}
		return nil, fmt.Errorf("find appointment: %w", err)
	}
	return appt, nil
}

// ListMine returns the caller's own bookings.
func (s *AppointmentService) ListMine(ctx context.Context, userID string, status models.AppointmentStatus) ([]models.Appointment, error) {
	if status != "" && !status.Valid() {
		return nil, apperr.Validation("invalid appointment status %q", status)
	}
	appts, err := s.appointments.List(ctx, repository.AppointmentFilter{UserID: userID, Status: status})
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appts, nil
}

// CancelMine cancels one of the caller's upcoming bookings. Another
// patient's appointment is reported exactly like a missing one.
func (s *AppointmentService) CancelMine(ctx context.Context, id uint, userID string) (*models.Appointment, error) {
	err := s.appointments.WithinTx(ctx, func(tx repository.AppointmentStore) error {
		appt, err := tx.FindByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperr.NotFound("appointment %d not found", id)
			}
			return fmt.Errorf("find appointment: %w", err)
		}
		if appt.UserID == nil || *appt.UserID != userID {
			return apperr.NotFound("appointment %d not found", id)
		}
		if appt.Status != models.AppointmentUpcoming {
			return apperr.Validation("only UPCOMING appointments can be cancelled (current status %s)", appt.Status)
		}

		appt.Status = models.AppointmentCancelled
		if err := tx.Save(ctx, appt); err != nil {
			return fmt.Errorf("cancel appointment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.AppointmentCancelled()
	s.log.WithField("appointment_id", id).Info("appointment cancelled by patient")
	return s.FindOne(ctx, id)
}

// Update applies an admin patch. Status is not guarded here: admins may
// move an appointment to any status, including back from CANCELLED.
func (s *AppointmentService) Update(ctx context.Context, id uint, patch AppointmentPatch) (*models.Appointment, error) {
	if patch.DoctorID != nil {
		if err := s.requireDoctor(ctx, *patch.DoctorID); err != nil {
			return nil, err
		}
	}
	if patch.UserID != nil && strings.TrimSpace(*patch.UserID) != "" {
		if err := s.requireUser(ctx, strings.TrimSpace(*patch.UserID)); err != nil {
			return nil, err
		}
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, apperr.Validation("invalid appointment status %q", *patch.Status)
	}
	if patch.QueueNumber != nil && *patch.QueueNumber < 1 {
		return nil, apperr.Validation("queue number must be positive")
	}

	err := s.appointments.WithinTx(ctx, func(tx repository.AppointmentStore) error {
		appt, err := tx.FindByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperr.NotFound("appointment %d not found", id)
			}
			return fmt.Errorf("find appointment: %w", err)
		}

		applyAppointmentPatch(appt, patch)

		if err := tx.Save(ctx, appt); err != nil {
			if repository.IsDuplicateKey(err) {
				return apperr.Conflict("update collides with an existing booking").Wrap(err)
			}
			return fmt.Errorf("update appointment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithField("appointment_id", id).Info("appointment updated by admin")
	return s.FindOne(ctx, id)
}

func applyAppointmentPatch(appt *models.Appointment, patch AppointmentPatch) {
	if patch.DoctorID != nil {
		appt.DoctorID = *patch.DoctorID
	}
	if patch.UserID != nil {
		appt.UserID = optionalString(patch.UserID)
	}
	if patch.PatientName != nil {
		appt.PatientName = strings.TrimSpace(*patch.PatientName)
	}
	if patch.ContactNumber != nil {
		appt.ContactNumber = strings.TrimSpace(*patch.ContactNumber)
	}
	if patch.AppointmentType != nil {
		appt.AppointmentType = strings.TrimSpace(*patch.AppointmentType)
	}
	if patch.Reason != nil {
		appt.Reason = optionalString(patch.Reason)
	}
	if patch.Date != nil {
		appt.Date = models.NormalizeDate(*patch.Date)
	}
	if patch.TimeSlot != nil {
		appt.TimeSlot = strings.TrimSpace(*patch.TimeSlot)
	}
	if patch.QueueNumber != nil {
		appt.QueueNumber = *patch.QueueNumber
	}
	if patch.Status != nil {
		appt.Status = *patch.Status
	}
}

// Remove hard-deletes an appointment.
func (s *AppointmentService) Remove(ctx context.Context, id uint) error {
	if err := s.appointments.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("appointment %d not found", id)
		}
		return fmt.Errorf("delete appointment: %w", err)
	}
	s.log.WithField("appointment_id", id).Info("appointment removed")
	return nil
}

func (s *AppointmentService) requireDoctor(ctx context.Context, id uint) error {
	if _, err := s.doctors.FindByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("doctor %d not found", id)
		}
		return fmt.Errorf("find doctor: %w", err)
	}
	return nil
}

func (s *AppointmentService) requireUser(ctx context.Context, id string) error {
	ok, err := s.users.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}
	if !ok {
		return apperr.NotFound("user %s not found", id)
	}
	return nil
}

// optionalString trims s and maps blank values to nil.
func optionalString(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
