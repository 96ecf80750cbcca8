package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"hospital-management-server/internal/apperr"
	"hospital-management-server/internal/models"
	"hospital-management-server/internal/repository"

	"github.com/sirupsen/logrus"
)

// DoctorService owns the doctor directory and its specializations.
type DoctorService struct {
	doctors repository.DoctorStore
	log     logrus.FieldLogger
}

// NewDoctorService creates a new DoctorService.
func NewDoctorService(doctors repository.DoctorStore, log logrus.FieldLogger) *DoctorService {
	return &DoctorService{
		doctors: doctors,
		log:     log.WithField("component", "doctors"),
	}
}

// DoctorProfilePatch updates directory fields; nil fields are left alone.
type DoctorProfilePatch struct {
	DisplayName      *string
	SpecializationID *uint
	Bio              *string
	ConsultationFee  *float64
}

// List returns bookable doctors, optionally of one specialization.
func (s *DoctorService) List(ctx context.Context, specializationID uint) ([]models.Doctor, error) {
	if _, err := s.ReconcileProfiles(ctx); err != nil {
		return nil, err
	}
	doctors, err := s.doctors.List(ctx, specializationID)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	return doctors, nil
}

// Get returns a doctor by directory id.
func (s *DoctorService) Get(ctx context.Context, id uint) (*models.Doctor, error) {
	doctor, err := s.doctors.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("doctor %d not found", id)
		}
		return nil, fmt.Errorf("find doctor: %w", err)
	}
	return doctor, nil
}

// GetByUserID returns the directory entry of a doctor account.
func (s *DoctorService) GetByUserID(ctx context.Context, userID string) (*models.Doctor, error) {
	doctor, err := s.doctors.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("no doctor profile for user %s", userID)
		}
		return nil, fmt.Errorf("find doctor: %w", err)
	}
	return doctor, nil
}

// UpdateProfile edits a directory entry. Only admins and the doctor the
// entry belongs to may edit it.
func (s *DoctorService) UpdateProfile(ctx context.Context, id uint, editorUserID string, isAdmin bool, patch DoctorProfilePatch) (*models.Doctor, error) {
	doctor, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && doctor.UserID != editorUserID {
		return nil, apperr.Forbidden("cannot edit another doctor's profile")
	}

	if patch.DisplayName != nil {
		name := strings.TrimSpace(*patch.DisplayName)
		if name == "" {
			return nil, apperr.Validation("display name cannot be empty")
		}
		doctor.DisplayName = name
	}
	if patch.SpecializationID != nil {
		if *patch.SpecializationID == 0 {
			doctor.SpecializationID = nil
		} else {
			if _, err := s.doctors.FindSpecialization(ctx, *patch.SpecializationID); err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return nil, apperr.NotFound("specialization %d not found", *patch.SpecializationID)
				}
				return nil, fmt.Errorf("find specialization: %w", err)
			}
			specID := *patch.SpecializationID
			doctor.SpecializationID = &specID
		}
		doctor.Specialization = nil
	}
	if patch.Bio != nil {
		doctor.Bio = strings.TrimSpace(*patch.Bio)
	}
	if patch.ConsultationFee != nil {
		if *patch.ConsultationFee < 0 {
			return nil, apperr.Validation("consultation fee cannot be negative")
		}
		doctor.ConsultationFee = *patch.ConsultationFee
	}

	if err := s.doctors.Save(ctx, doctor); err != nil {
		return nil, fmt.Errorf("update doctor: %w", err)
	}
	s.log.WithField("doctor_id", id).Info("doctor profile updated")
	return s.Get(ctx, id)
}

// EnsureProfile creates the directory entry of a doctor account if it is
// missing. Concurrent creation by another request is not an error.
func (s *DoctorService) EnsureProfile(ctx context.Context, user *models.User) error {
	_, err := s.doctors.FindByUserID(ctx, user.ID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("find doctor: %w", err)
	}

	doctor := &models.Doctor{UserID: user.ID, DisplayName: models.DisplayNameFor(user)}
	if err := s.doctors.Create(ctx, doctor); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil
		}
		return fmt.Errorf("create doctor profile: %w", err)
	}
	s.log.WithFields(logrus.Fields{"doctor_id": doctor.ID, "user_id": user.ID}).Info("doctor profile created")
	return nil
}

// ReconcileProfiles creates a directory entry for every doctor account
// that lacks one and returns how many were created.
func (s *DoctorService) ReconcileProfiles(ctx context.Context) (int, error) {
	users, err := s.doctors.UsersWithoutProfile(ctx)
	if err != nil {
		return 0, fmt.Errorf("find doctors without profile: %w", err)
	}
	created := 0
	for i := range users {
		if err := s.EnsureProfile(ctx, &users[i]); err != nil {
			return created, err
		}
		created++
	}
	if created > 0 {
		s.log.WithField("created", created).Info("doctor profiles reconciled")
	}
	return created, nil
}

func (s *DoctorService) ListSpecializations(ctx context.Context) ([]models.Specialization, error) {
	specs, err := s.doctors.ListSpecializations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list specializations: %w", err)
	}
	return specs, nil
}

// CreateSpecialization adds a specialization; names are unique.
func (s *DoctorService) CreateSpecialization(ctx context.Context, name, description string) (*models.Specialization, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("specialization name is required")
	}
	spec := &models.Specialization{Name: name, Description: strings.TrimSpace(description)}
	if err := s.doctors.CreateSpecialization(ctx, spec); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, apperr.Conflict("specialization %q already exists", name).Wrap(err)
		}
		return nil, fmt.Errorf("create specialization: %w", err)
	}
	return spec, nil
}
