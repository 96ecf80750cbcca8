package handlers

import (
	"context"

	"hospital-management-server/internal/models"
	"hospital-management-server/internal/services"
)

// AppointmentScheduler is implemented by services.AppointmentService.
type AppointmentScheduler interface {
	Create(ctx context.Context, in services.CreateAppointmentInput) (*models.Appointment, error)
	List(ctx context.Context, q services.AppointmentQuery) ([]models.Appointment, error)
	FindOne(ctx context.Context, id uint) (*models.Appointment, error)
	ListMine(ctx context.Context, userID string, status models.AppointmentStatus) ([]models.Appointment, error)
	CancelMine(ctx context.Context, id uint, userID string) (*models.Appointment, error)
	Update(ctx context.Context, id uint, patch services.AppointmentPatch) (*models.Appointment, error)
	Remove(ctx context.Context, id uint) error
}

// LabWorkflow is implemented by services.LabService.
type LabWorkflow interface {
	CreateRequest(ctx context.Context, in services.CreateLabRequestInput) (*models.LabRequest, error)
	ListDoctorRequests(ctx context.Context, doctorUserID string, status models.LabRequestStatus) ([]models.LabRequest, error)
	GetDoctorRequestByCode(ctx context.Context, doctorUserID, code string) (*models.LabRequest, error)
	ListQueue(ctx context.Context, status models.LabRequestStatus) ([]models.LabRequest, error)
	GetQueueItem(ctx context.Context, code string) (*models.LabRequest, error)
	MarkSampleCollected(ctx context.Context, code, technicianUserID, technicianName string) (*models.LabRequest, error)
	CompleteRequest(ctx context.Context, code string, in services.CompleteLabRequestInput) (*models.LabRequest, error)
	ListMyReports(ctx context.Context, patientUserID string) ([]models.LabRequest, error)
	GetMyReportByCode(ctx context.Context, patientUserID, code string) (*models.LabRequest, error)
}

// DoctorDirectory is implemented by services.DoctorService.
type DoctorDirectory interface {
	List(ctx context.Context, specializationID uint) ([]models.Doctor, error)
	Get(ctx context.Context, id uint) (*models.Doctor, error)
	GetByUserID(ctx context.Context, userID string) (*models.Doctor, error)
	UpdateProfile(ctx context.Context, id uint, editorUserID string, isAdmin bool, patch services.DoctorProfilePatch) (*models.Doctor, error)
	ListSpecializations(ctx context.Context) ([]models.Specialization, error)
	CreateSpecialization(ctx context.Context, name, description string) (*models.Specialization, error)
}

// AccountManager is implemented by services.AccountService.
type AccountManager interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.Session, error)
	Refresh(ctx context.Context, token string) (*services.Session, error)
	Logout(ctx context.Context, token string) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context, role models.Role) ([]models.User, error)
	CreateUser(ctx context.Context, in services.CreateUserInput) (*models.User, error)
	UpdateUser(ctx context.Context, id string, patch services.UserPatch) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error
	UpdateProfile(ctx context.Context, id string, patch services.ProfilePatch) (*models.User, error)
}
