package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"hospital-management-server/internal/apperr"
	"hospital-management-server/internal/metrics"
	"hospital-management-server/internal/models"
	"hospital-management-server/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// labCodeAttempts bounds code generation; a collision on the last attempt
// is returned to the caller.
const labCodeAttempts = 3

// LabService runs the PENDING -> SAMPLE_COLLECTED -> COMPLETED workflow.
type LabService struct {
	labs         repository.LabStore
	appointments repository.AppointmentStore
	users        repository.UserStore
	log          logrus.FieldLogger

	now       func() time.Time
	newSuffix func() string
}

// NewLabService creates a new LabService.
func NewLabService(labs repository.LabStore, appointments repository.AppointmentStore, users repository.UserStore, log logrus.FieldLogger) *LabService {
	return &LabService{
		labs:         labs,
		appointments: appointments,
		users:        users,
		log:          log.WithField("component", "lab"),
		now:          time.Now,
		newSuffix:    randomCodeSuffix,
	}
}

// randomCodeSuffix takes six hex digits of a random UUID.
func randomCodeSuffix() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:6]
}

// CreateLabRequestInput is a doctor's order.
type CreateLabRequestInput struct {
	DoctorUserID  string
	PatientName   string
	PatientUserID *string
	AppointmentID *uint
	Tests         []string
}

// LabResultInput is the result entered for one requested test.
type LabResultInput struct {
	TestName string
	Value    string
	Remarks  string
}

// CompleteLabRequestInput carries the technician and every test result.
type CompleteLabRequestInput struct {
	TechnicianUserID string
	TechnicianName   string
	Results          []LabResultInput
}

// NormalizeTestNames trims names, drops blanks and removes exact duplicates,
// keeping first-seen order.
func NormalizeTestNames(tests []string) []string {
	seen := make(map[string]struct{}, len(tests))
	out := make([]string, 0, len(tests))
	for _, t := range tests {
		name := strings.TrimSpace(t)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

func (s *LabService) newCode() string {
	return fmt.Sprintf("LR-%s-%s", s.now().Format("20060102"), s.newSuffix())
}

// CreateRequest validates the order and stores it with its tests under a
// freshly generated code.
func (s *LabService) CreateRequest(ctx context.Context, in CreateLabRequestInput) (*models.LabRequest, error) {
	tests := NormalizeTestNames(in.Tests)
	if len(tests) == 0 {
		return nil, apperr.Validation("at least one test is required")
	}
	patientName := strings.TrimSpace(in.PatientName)
	if patientName == "" {
		return nil, apperr.Validation("patient name is required")
	}

	patientUserID := optionalString(in.PatientUserID)
	if patientUserID != nil {
		ok, err := s.users.Exists(ctx, *patientUserID)
		if err != nil {
			return nil, fmt.Errorf("find patient: %w", err)
		}
		if !ok {
			return nil, apperr.NotFound("patient account %s not found", *patientUserID)
		}
	}

	if in.AppointmentID != nil {
		appt, err := s.appointments.FindByID(ctx, *in.AppointmentID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperr.NotFound("appointment %d not found", *in.AppointmentID)
			}
			return nil, fmt.Errorf("find appointment: %w", err)
		}
		if appt.Doctor == nil || appt.Doctor.UserID != in.DoctorUserID {
			return nil, apperr.Forbidden("cannot create lab requests for other doctors' appointments")
		}
	}

	for attempt := 1; attempt <= labCodeAttempts; attempt++ {
		req := &models.LabRequest{
			Code:          s.newCode(),
			DoctorUserID:  in.DoctorUserID,
			PatientUserID: patientUserID,
			AppointmentID: in.AppointmentID,
			PatientName:   patientName,
			Status:        models.LabPending,
			Tests:         make([]models.LabRequestTest, 0, len(tests)),
		}
		for _, name := range tests {
			req.Tests = append(req.Tests, models.LabRequestTest{TestName: name})
		}

		err := s.labs.WithinTx(ctx, func(tx repository.LabStore) error {
			return tx.Create(ctx, req)
		})
		if err == nil {
			metrics.LabTransition(string(models.LabPending))
			s.log.WithFields(logrus.Fields{
				"code":      req.Code,
				"doctor_id": req.DoctorUserID,
				"tests":     len(tests),
			}).Info("lab request created")
			return s.GetQueueItem(ctx, req.Code)
		}
		if !isCodeCollision(err) {
			return nil, fmt.Errorf("create lab request: %w", err)
		}
		s.log.WithFields(logrus.Fields{"code": req.Code, "attempt": attempt}).Warn("lab request code collision")
	}

	return nil, apperr.Conflict("could not allocate a unique lab request code, please retry")
}

// isCodeCollision reports whether err is a duplicate on the code index.
// Duplicates the driver does not attribute to an index count as collisions.
func isCodeCollision(err error) bool {
	index, dup := repository.DuplicateIndex(err)
	return dup && (index == "" || index == models.IndexLabRequestCode)
}

// ListDoctorRequests returns the doctor's own requests, newest first.
func (s *LabService) ListDoctorRequests(ctx context.Context, doctorUserID string, status models.LabRequestStatus) ([]models.LabRequest, error) {
	if status != "" && !status.Valid() {
		return nil, apperr.Validation("invalid lab request status %q", status)
	}
	reqs, err := s.labs.List(ctx, repository.LabRequestFilter{DoctorUserID: doctorUserID, Status: status})
	if err != nil {
		return nil, fmt.Errorf("list lab requests: %w", err)
	}
	sortByCreatedDesc(reqs)
	return reqs, nil
}

// GetDoctorRequestByCode returns a request owned by the doctor.
func (s *LabService) GetDoctorRequestByCode(ctx context.Context, doctorUserID, code string) (*models.LabRequest, error) {
	req, err := s.GetQueueItem(ctx, code)
	if err != nil {
		return nil, err
	}
	if req.DoctorUserID != doctorUserID {
		return nil, apperr.Forbidden("lab request %s belongs to another doctor", code)
	}
	return req, nil
}

// ListQueue is the lab staff worklist: pending first, then collected, then
// completed, newest first within each status.
func (s *LabService) ListQueue(ctx context.Context, status models.LabRequestStatus) ([]models.LabRequest, error) {
	if status != "" && !status.Valid() {
		return nil, apperr.Validation("invalid lab request status %q", status)
	}
	reqs, err := s.labs.List(ctx, repository.LabRequestFilter{Status: status})
	if err != nil {
		return nil, fmt.Errorf("list lab queue: %w", err)
	}
	SortQueue(reqs)
	return reqs, nil
}

// SortQueue orders requests by status priority, then createdAt descending.
func SortQueue(reqs []models.LabRequest) {
	sort.SliceStable(reqs, func(i, j int) bool {
		pi, pj := reqs[i].Status.Priority(), reqs[j].Status.Priority()
		if pi != pj {
			return pi < pj
		}
		return reqs[i].CreatedAt.After(reqs[j].CreatedAt)
	})
}

func sortByCreatedDesc(reqs []models.LabRequest) {
	sort.SliceStable(reqs, func(i, j int) bool {
		return reqs[i].CreatedAt.After(reqs[j].CreatedAt)
	})
}

// GetQueueItem returns any request by code.
func (s *LabService) GetQueueItem(ctx context.Context, code string) (*models.LabRequest, error) {
	req, err := s.labs.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("lab request %s not found", code)
		}
		return nil, fmt.Errorf("find lab request: %w", err)
	}
	return req, nil
}

// MarkSampleCollected moves a PENDING request to SAMPLE_COLLECTED.
func (s *LabService) MarkSampleCollected(ctx context.Context, code, technicianUserID, technicianName string) (*models.LabRequest, error) {
	err := s.labs.WithinTx(ctx, func(tx repository.LabStore) error {
		req, err := s.lockRequest(ctx, tx, code)
		if err != nil {
			return err
		}
		if req.Status != models.LabPending {
			return apperr.Validation("lab request %s must be %s to collect a sample (current status %s)",
				code, models.LabPending, req.Status)
		}

		now := s.now()
		req.Status = models.LabSampleCollected
		req.SampleCollectedAt = &now
		req.TechnicianUserID = &technicianUserID
		if name := strings.TrimSpace(technicianName); name != "" {
			req.TechnicianName = &name
		}
		if err := tx.Save(ctx, req); err != nil {
			return fmt.Errorf("mark sample collected: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.LabTransition(string(models.LabSampleCollected))
	s.log.WithFields(logrus.Fields{"code": code, "technician_id": technicianUserID}).Info("lab sample collected")
	return s.GetQueueItem(ctx, code)
}

// CompleteRequest records every test result and moves a SAMPLE_COLLECTED
// request to COMPLETED in one transaction.
func (s *LabService) CompleteRequest(ctx context.Context, code string, in CompleteLabRequestInput) (*models.LabRequest, error) {
	err := s.labs.WithinTx(ctx, func(tx repository.LabStore) error {
		req, err := s.lockRequest(ctx, tx, code)
		if err != nil {
			return err
		}
		if req.Status != models.LabSampleCollected {
			return apperr.Validation("lab request %s must be %s to complete (current status %s)",
				code, models.LabSampleCollected, req.Status)
		}
		technicianName := strings.TrimSpace(in.TechnicianName)
		if technicianName == "" {
			return apperr.Validation("technician name is required")
		}

		byName := make(map[string]LabResultInput, len(in.Results))
		for _, r := range in.Results {
			byName[strings.TrimSpace(r.TestName)] = r
		}
		for _, t := range req.Tests {
			r, ok := byName[t.TestName]
			if !ok || (strings.TrimSpace(r.Value) == "" && strings.TrimSpace(r.Remarks) == "") {
				return apperr.Validation("result missing for test %q", t.TestName)
			}
		}

		for i := range req.Tests {
			t := &req.Tests[i]
			r := byName[t.TestName]
			t.ResultValue = optionalString(&r.Value)
			t.ResultRemarks = optionalString(&r.Remarks)
			if err := tx.SaveTest(ctx, t); err != nil {
				return fmt.Errorf("save result for %s: %w", t.TestName, err)
			}
		}

		now := s.now()
		req.Status = models.LabCompleted
		req.CompletedAt = &now
		req.TechnicianUserID = &in.TechnicianUserID
		req.TechnicianName = &technicianName
		if err := tx.Save(ctx, req); err != nil {
			return fmt.Errorf("complete lab request: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.LabTransition(string(models.LabCompleted))
	s.log.WithFields(logrus.Fields{"code": code, "technician_id": in.TechnicianUserID}).Info("lab request completed")
	return s.GetQueueItem(ctx, code)
}

func (s *LabService) lockRequest(ctx context.Context, tx repository.LabStore, code string) (*models.LabRequest, error) {
	req, err := tx.FindByCodeForUpdate(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("lab request %s not found", code)
		}
		return nil, fmt.Errorf("find lab request: %w", err)
	}
	return req, nil
}

// ListMyReports returns the patient's completed requests, most recently
// completed first.
func (s *LabService) ListMyReports(ctx context.Context, patientUserID string) ([]models.LabRequest, error) {
	reqs, err := s.labs.List(ctx, repository.LabRequestFilter{PatientUserID: patientUserID, Status: models.LabCompleted})
	if err != nil {
		return nil, fmt.Errorf("list lab reports: %w", err)
	}
	sort.SliceStable(reqs, func(i, j int) bool {
		return completedAt(reqs[i]).After(completedAt(reqs[j]))
	})
	return reqs, nil
}

func completedAt(r models.LabRequest) time.Time {
	if r.CompletedAt == nil {
		return time.Time{}
	}
	return *r.CompletedAt
}

// GetMyReportByCode returns a completed report of the patient.
func (s *LabService) GetMyReportByCode(ctx context.Context, patientUserID, code string) (*models.LabRequest, error) {
	req, err := s.GetQueueItem(ctx, code)
	if err != nil {
		return nil, err
	}
	if req.Status != models.LabCompleted {
		return nil, apperr.Forbidden("lab report %s is not available yet", code)
	}
	if req.PatientUserID == nil || *req.PatientUserID != patientUserID {
		return nil, apperr.Forbidden("lab report %s belongs to another patient", code)
	}
	return req, nil
}
