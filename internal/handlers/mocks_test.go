package handlers

import (
	"context"

	"hospital-management-server/internal/models"
	"hospital-management-server/internal/services"

	"github.com/stretchr/testify/mock"
)

type mockScheduler struct{ mock.Mock }

func (m *mockScheduler) Create(ctx context.Context, in services.CreateAppointmentInput) (*models.Appointment, error) {
	args := m.Called(ctx, in)
	a, _ := args.Get(0).(*models.Appointment)
	return a, args.Error(1)
}

func (m *mockScheduler) List(ctx context.Context, q services.AppointmentQuery) ([]models.Appointment, error) {
	args := m.Called(ctx, q)
	a, _ := args.Get(0).([]models.Appointment)
	return a, args.Error(1)
}

func (m *mockScheduler) FindOne(ctx context.Context, id uint) (*models.Appointment, error) {
	args := m.Called(ctx, id)
	a, _ := args.Get(0).(*models.Appointment)
	return a, args.Error(1)
}

func (m *mockScheduler) ListMine(ctx context.Context, userID string, status models.AppointmentStatus) ([]models.Appointment, error) {
	args := m.Called(ctx, userID, status)
	a, _ := args.Get(0).([]models.Appointment)
	return a, args.Error(1)
}

func (m *mockScheduler) CancelMine(ctx context.Context, id uint, userID string) (*models.Appointment, error) {
	args := m.Called(ctx, id, userID)
	a, _ := args.Get(0).(*models.Appointment)
	return a, args.Error(1)
}

func (m *mockScheduler) Update(ctx context.Context, id uint, patch services.AppointmentPatch) (*models.Appointment, error) {
	args := m.Called(ctx, id, patch)
	a, _ := args.Get(0).(*models.Appointment)
	return a, args.Error(1)
}

func (m *mockScheduler) Remove(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

type mockLab struct{ mock.Mock }

func (m *mockLab) CreateRequest(ctx context.Context, in services.CreateLabRequestInput) (*models.LabRequest, error) {
	args := m.Called(ctx, in)
	r, _ := args.Get(0).(*models.LabRequest)
	return r, args.Error(1)
}

func (m *mockLab) ListDoctorRequests(ctx context.Context, doctorUserID string, status models.LabRequestStatus) ([]models.LabRequest, error) {
	args := m.Called(ctx, doctorUserID, status)
	r, _ := args.Get(0).([]models.LabRequest)
	return r, args.Error(1)
}

func (m *mockLab) GetDoctorRequestByCode(ctx context.Context, doctorUserID, code string) (*models.LabRequest, error) {
	args := m.Called(ctx, doctorUserID, code)
	r, _ := args.Get(0).(*models.LabRequest)
	return r, args.Error(1)
}

func (m *mockLab) ListQueue(ctx context.Context, status models.LabRequestStatus) ([]models.LabRequest, error) {
	args := m.Called(ctx, status)
	r, _ := args.Get(0).([]models.LabRequest)
	return r, args.Error(1)
}

func (m *mockLab) GetQueueItem(ctx context.Context, code string) (*models.LabRequest, error) {
	args := m.Called(ctx, code)
	r, _ := args.Get(0).(*models.LabRequest)
	return r, args.Error(1)
}

func (m *mockLab) MarkSampleCollected(ctx context.Context, code, technicianUserID, technicianName string) (*models.LabRequest, error) {
	args := m.Called(ctx, code, technicianUserID, technicianName)
	r, _ := args.Get(0).(*models.LabRequest)
	return r, args.Error(1)
}

func (m *mockLab) CompleteRequest(ctx context.Context, code string, in services.CompleteLabRequestInput) (*models.LabRequest, error) {
	args := m.Called(ctx, code, in)
	r, _ := args.Get(0).(*models.LabRequest)
	return r, args.Error(1)
}

func (m *mockLab) ListMyReports(ctx context.Context, patientUserID string) ([]models.LabRequest, error) {
	args := m.Called(ctx, patientUserID)
	r, _ := args.Get(0).([]models.LabRequest)
	return r, args.Error(1)
}

func (m *mockLab) GetMyReportByCode(ctx context.Context, patientUserID, code string) (*models.LabRequest, error) {
	args := m.Called(ctx, patientUserID, code)
	r, _ := args.Get(0).(*models.LabRequest)
	return r, args.Error(1)
}

type mockDirectory struct{ mock.Mock }

func (m *mockDirectory) List(ctx context.Context, specializationID uint) ([]models.Doctor, error) {
	args := m.Called(ctx, specializationID)
	d, _ := args.Get(0).([]models.Doctor)
	return d, args.Error(1)
}

func (m *mockDirectory) Get(ctx context.Context, id uint) (*models.Doctor, error) {
	args := m.Called(ctx, id)
	d, _ := args.Get(0).(*models.Doctor)
	return d, args.Error(1)
}

func (m *mockDirectory) GetByUserID(ctx context.Context, userID string) (*models.Doctor, error) {
	args := m.Called(ctx, userID)
	d, _ := args.Get(0).(*models.Doctor)
	return d, args.Error(1)
}

func (m *mockDirectory) UpdateProfile(ctx context.Context, id uint, editorUserID string, isAdmin bool, patch services.DoctorProfilePatch) (*models.Doctor, error) {
	args := m.Called(ctx, id, editorUserID, isAdmin, patch)
	d, _ := args.Get(0).(*models.Doctor)
	return d, args.Error(1)
}

func (m *mockDirectory) ListSpecializations(ctx context.Context) ([]models.Specialization, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).([]models.Specialization)
	return s, args.Error(1)
}

func (m *mockDirectory) CreateSpecialization(ctx context.Context, name, description string) (*models.Specialization, error) {
	args := m.Called(ctx, name, description)
	s, _ := args.Get(0).(*models.Specialization)
	return s, args.Error(1)
}

type mockAccounts struct{ mock.Mock }

func (m *mockAccounts) Register(ctx context.Context, in services.RegisterInput) (*models.User, error) {
	args := m.Called(ctx, in)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockAccounts) Login(ctx context.Context, email, password string) (*services.Session, error) {
	args := m.Called(ctx, email, password)
	s, _ := args.Get(0).(*services.Session)
	return s, args.Error(1)
}

func (m *mockAccounts) Refresh(ctx context.Context, token string) (*services.Session, error) {
	args := m.Called(ctx, token)
	s, _ := args.Get(0).(*services.Session)
	return s, args.Error(1)
}

func (m *mockAccounts) Logout(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *mockAccounts) GetUser(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockAccounts) ListUsers(ctx context.Context, role models.Role) ([]models.User, error) {
	args := m.Called(ctx, role)
	u, _ := args.Get(0).([]models.User)
	return u, args.Error(1)
}

func (m *mockAccounts) CreateUser(ctx context.Context, in services.CreateUserInput) (*models.User, error) {
	args := m.Called(ctx, in)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockAccounts) UpdateUser(ctx context.Context, id string, patch services.UserPatch) (*models.User, error) {
	args := m.Called(ctx, id, patch)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockAccounts) DeleteUser(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockAccounts) UpdateProfile(ctx context.Context, id string, patch services.ProfilePatch) (*models.User, error) {
	args := m.Called(ctx, id, patch)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}
