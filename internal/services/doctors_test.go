package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"hospital-management-server/internal/apperr"
	"hospital-management-server/internal/models"
	"hospital-management-server/internal/repository"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newDoctorService(t *testing.T) (*DoctorService, *mockDoctorStore) {
	t.Helper()
	log, _ := test.NewNullLogger()
	store := &mockDoctorStore{}
	return NewDoctorService(store, log), store
}

func TestDoctorReconcileProfiles(t *testing.T) {
	svc, store := newDoctorService(t)
	ctx := context.Background()

	greg := models.User{BaseModel: models.BaseModel{ID: "u-1"}, FirstName: "Greg", LastName: "House", Email: "greg@example.com", Role: models.RoleDoctor}
	nameless := models.User{BaseModel: models.BaseModel{ID: "u-2"}, Email: "anon@example.com", Role: models.RoleDoctor}

	store.On("UsersWithoutProfile", ctx).Return([]models.User{greg, nameless}, nil).Once()
	store.On("FindByUserID", ctx, "u-1").Return(nil, repository.ErrNotFound).Once()
	store.On("FindByUserID", ctx, "u-2").Return(nil, repository.ErrNotFound).Once()
	store.On("Create", ctx, mock.MatchedBy(func(d *models.Doctor) bool {
		return d.UserID == "u-1" && d.DisplayName == "Dr. Greg House"
	})).Return(nil).Once()
	// Another process created this one first.
	store.On("Create", ctx, mock.MatchedBy(func(d *models.Doctor) bool {
		return d.UserID == "u-2" && d.DisplayName == "Dr. anon@example.com"
	})).Return(fmt.Errorf("%w: user_id", repository.ErrDuplicateKey)).Once()

	created, err := svc.ReconcileProfiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, created)
	store.AssertExpectations(t)
}

func TestDoctorEnsureProfile_ExistingProfileIsKept(t *testing.T) {
	svc, store := newDoctorService(t)
	ctx := context.Background()
	user := &models.User{BaseModel: models.BaseModel{ID: "u-1"}, Role: models.RoleDoctor}

	store.On("FindByUserID", ctx, "u-1").Return(&models.Doctor{ID: 7, UserID: "u-1"}, nil).Once()

	require.NoError(t, svc.EnsureProfile(ctx, user))
	store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDoctorList_ReconcilesFirst(t *testing.T) {
	svc, store := newDoctorService(t)
	ctx := context.Background()

	store.On("UsersWithoutProfile", ctx).Return(nil, nil).Once()
	store.On("List", ctx, uint(3)).Return([]models.Doctor{drHouse}, nil).Once()

	doctors, err := svc.List(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, doctors, 1)
	store.AssertExpectations(t)
}

func TestDoctorList_ReconcileFailure(t *testing.T) {
	svc, store := newDoctorService(t)
	ctx := context.Background()
	boom := errors.New("db down")

	store.On("UsersWithoutProfile", ctx).Return(nil, boom).Once()

	_, err := svc.List(ctx, 0)
	assert.ErrorIs(t, err, boom)
	store.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestDoctorUpdateProfile(t *testing.T) {
	ctx := context.Background()
	fee := 150.0

	t.Run("other doctor is forbidden", func(t *testing.T) {
		svc, store := newDoctorService(t)
		store.On("FindByID", ctx, uint(1)).Return(&models.Doctor{ID: 1, UserID: "doctor-user-1"}, nil)

		_, err := svc.UpdateProfile(ctx, 1, "doctor-user-2", false, DoctorProfilePatch{ConsultationFee: &fee})
		assert.True(t, apperr.Is(err, apperr.KindForbidden))
		store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("owner updates fee and specialization", func(t *testing.T) {
		svc, store := newDoctorService(t)
		doctor := &models.Doctor{ID: 1, UserID: "doctor-user-1", DisplayName: "Dr. House"}
		specID := uint(3)
		store.On("FindByID", ctx, uint(1)).Return(doctor, nil)
		store.On("FindSpecialization", ctx, specID).Return(&models.Specialization{ID: specID, Name: "Neurology"}, nil).Once()
		store.On("Save", ctx, doctor).Return(nil).Once()

		got, err := svc.UpdateProfile(ctx, 1, "doctor-user-1", false, DoctorProfilePatch{
			ConsultationFee:  &fee,
			SpecializationID: &specID,
			Bio:              strPtr("  Diagnostics  "),
		})
		require.NoError(t, err)
		assert.Equal(t, 150.0, got.ConsultationFee)
		require.NotNil(t, got.SpecializationID)
		assert.Equal(t, specID, *got.SpecializationID)
		assert.Equal(t, "Diagnostics", got.Bio)
		store.AssertExpectations(t)
	})

	t.Run("admin clears specialization", func(t *testing.T) {
		svc, store := newDoctorService(t)
		specID := uint(3)
		doctor := &models.Doctor{ID: 1, UserID: "doctor-user-1", SpecializationID: &specID}
		store.On("FindByID", ctx, uint(1)).Return(doctor, nil)
		store.On("Save", ctx, doctor).Return(nil).Once()

		none := uint(0)
		got, err := svc.UpdateProfile(ctx, 1, "admin-1", true, DoctorProfilePatch{SpecializationID: &none})
		require.NoError(t, err)
		assert.Nil(t, got.SpecializationID)
	})

	t.Run("invalid patches", func(t *testing.T) {
		svc, store := newDoctorService(t)
		store.On("FindByID", ctx, uint(1)).Return(&models.Doctor{ID: 1, UserID: "doctor-user-1"}, nil)
		store.On("FindSpecialization", ctx, uint(9)).Return(nil, repository.ErrNotFound)

		negative := -1.0
		_, err := svc.UpdateProfile(ctx, 1, "doctor-user-1", false, DoctorProfilePatch{ConsultationFee: &negative})
		assert.True(t, apperr.Is(err, apperr.KindValidation))

		_, err = svc.UpdateProfile(ctx, 1, "doctor-user-1", false, DoctorProfilePatch{DisplayName: strPtr(" ")})
		assert.True(t, apperr.Is(err, apperr.KindValidation))

		unknown := uint(9)
		_, err = svc.UpdateProfile(ctx, 1, "doctor-user-1", false, DoctorProfilePatch{SpecializationID: &unknown})
		assert.True(t, apperr.Is(err, apperr.KindNotFound))

		store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("missing doctor", func(t *testing.T) {
		svc, store := newDoctorService(t)
		store.On("FindByID", ctx, uint(404)).Return(nil, repository.ErrNotFound)

		_, err := svc.UpdateProfile(ctx, 404, "admin-1", true, DoctorProfilePatch{})
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
	})
}

func TestDoctorCreateSpecialization(t *testing.T) {
	svc, store := newDoctorService(t)
	ctx := context.Background()

	_, err := svc.CreateSpecialization(ctx, "   ", "")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	store.On("CreateSpecialization", ctx, mock.MatchedBy(func(s *models.Specialization) bool {
		return s.Name == "Cardiology"
	})).Return(fmt.Errorf("%w: name", repository.ErrDuplicateKey)).Once()
	_, err = svc.CreateSpecialization(ctx, " Cardiology ", "")
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	store.On("CreateSpecialization", ctx, mock.MatchedBy(func(s *models.Specialization) bool {
		return s.Name == "Oncology"
	})).Return(nil).Once()
	spec, err := svc.CreateSpecialization(ctx, "Oncology", "  cancer care ")
	require.NoError(t, err)
	assert.Equal(t, "cancer care", spec.Description)
}
