package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"hospital-management-server/internal/models"
	"hospital-management-server/internal/repository"

	"github.com/stretchr/testify/mock"
)

// memAppointments is an in-memory AppointmentStore. WithinTx holds a
// store-wide lock and rolls back on error; Create and Save enforce the
// same unique indexes as the schema.
type memAppointments struct {
	txMu sync.Mutex
	mu   sync.Mutex

	rows    map[uint]models.Appointment
	doctors map[uint]models.Doctor
	nextID  uint
	clock   time.Time

	// calls records the order of locking reads inside transactions.
	calls []string
	// createErrs are returned, in order, by the next Create calls.
	createErrs []error
}

func newMemAppointments(doctors ...models.Doctor) *memAppointments {
	m := &memAppointments{
		rows:    make(map[uint]models.Appointment),
		doctors: make(map[uint]models.Doctor),
		clock:   time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
	}
	for _, d := range doctors {
		m.doctors[d.ID] = d
	}
	return m
}

func (m *memAppointments) WithinTx(ctx context.Context, fn func(tx repository.AppointmentStore) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	snapshot := make(map[uint]models.Appointment, len(m.rows))
	for k, v := range m.rows {
		snapshot[k] = v
	}
	nextID := m.nextID
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.rows = snapshot
		m.nextID = nextID
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memAppointments) withDoctor(a models.Appointment) *models.Appointment {
	if d, ok := m.doctors[a.DoctorID]; ok {
		a.Doctor = &d
	}
	return &a
}

func (m *memAppointments) FindByID(ctx context.Context, id uint) (*models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return m.withDoctor(a), nil
}

func (m *memAppointments) FindByIDForUpdate(ctx context.Context, id uint) (*models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (m *memAppointments) LockDoctor(ctx context.Context, doctorID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "LockDoctor")
	if _, ok := m.doctors[doctorID]; !ok {
		return repository.ErrNotFound
	}
	return nil
}

func (m *memAppointments) SlotTaken(ctx context.Context, doctorID uint, date time.Time, timeSlot string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "SlotTaken")
	day := models.NormalizeDate(date)
	for _, a := range m.rows {
		if a.DoctorID == doctorID && a.Date.Equal(day) && a.TimeSlot == timeSlot && a.Status != models.AppointmentCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (m *memAppointments) MaxQueueNumber(ctx context.Context, doctorID uint, date time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "MaxQueueNumber")
	day := models.NormalizeDate(date)
	highest := 0
	for _, a := range m.rows {
		if a.DoctorID == doctorID && a.Date.Equal(day) && a.QueueNumber > highest {
			highest = a.QueueNumber
		}
	}
	return highest, nil
}

// checkUnique must be called with mu held.
func (m *memAppointments) checkUnique(a *models.Appointment) error {
	for id, other := range m.rows {
		if id == a.ID {
			continue
		}
		if a.SlotKey != nil && other.SlotKey != nil && *a.SlotKey == *other.SlotKey {
			return &repository.DuplicateKeyError{Index: models.IndexAppointmentSlot, Err: fmt.Errorf("slot %s", *a.SlotKey)}
		}
		if other.DoctorID == a.DoctorID && other.Date.Equal(a.Date) && other.QueueNumber == a.QueueNumber {
			return &repository.DuplicateKeyError{Index: models.IndexAppointmentQueue, Err: fmt.Errorf("queue %d", a.QueueNumber)}
		}
	}
	return nil
}

func (m *memAppointments) Create(ctx context.Context, appt *models.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.createErrs) > 0 {
		err := m.createErrs[0]
		m.createErrs = m.createErrs[1:]
		return err
	}
	if err := appt.BeforeSave(nil); err != nil {
		return err
	}
	if err := m.checkUnique(appt); err != nil {
		return err
	}
	m.nextID++
	m.clock = m.clock.Add(time.Second)
	appt.ID = m.nextID
	appt.CreatedAt = m.clock
	appt.UpdatedAt = m.clock

	row := *appt
	row.Doctor = nil
	m.rows[row.ID] = row
	return nil
}

func (m *memAppointments) Save(ctx context.Context, appt *models.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[appt.ID]; !ok {
		return repository.ErrNotFound
	}
	if err := appt.BeforeSave(nil); err != nil {
		return err
	}
	if err := m.checkUnique(appt); err != nil {
		return err
	}
	m.clock = m.clock.Add(time.Second)
	appt.UpdatedAt = m.clock

	row := *appt
	row.Doctor = nil
	m.rows[row.ID] = row
	return nil
}

func (m *memAppointments) Delete(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memAppointments) List(ctx context.Context, f repository.AppointmentFilter) ([]models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Appointment
	for _, a := range m.rows {
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if f.DoctorID != 0 && a.DoctorID != f.DoctorID {
			continue
		}
		if f.UserID != "" && (a.UserID == nil || *a.UserID != f.UserID) {
			continue
		}
		if f.Date != nil && !a.Date.Equal(models.NormalizeDate(*f.Date)) {
			continue
		}
		out = append(out, *m.withDoctor(a))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		if out[i].TimeSlot != out[j].TimeSlot {
			return out[i].TimeSlot < out[j].TimeSlot
		}
		return out[i].ID < out[j].ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// memLab is an in-memory LabStore keyed by code.
type memLab struct {
	txMu sync.Mutex
	mu   sync.Mutex

	rows       map[string]models.LabRequest
	nextID     uint
	nextTestID uint
	clock      time.Time

	// createErrs are returned, in order, by the next Create calls.
	createErrs  []error
	createCalls int
}

func newMemLab() *memLab {
	return &memLab{
		rows:  make(map[string]models.LabRequest),
		clock: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
	}
}

func cloneLabRequest(r models.LabRequest) models.LabRequest {
	tests := make([]models.LabRequestTest, len(r.Tests))
	copy(tests, r.Tests)
	r.Tests = tests
	return r
}

func (m *memLab) WithinTx(ctx context.Context, fn func(tx repository.LabStore) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	snapshot := make(map[string]models.LabRequest, len(m.rows))
	for k, v := range m.rows {
		snapshot[k] = cloneLabRequest(v)
	}
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.rows = snapshot
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memLab) Create(ctx context.Context, req *models.LabRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	if len(m.createErrs) > 0 {
		err := m.createErrs[0]
		m.createErrs = m.createErrs[1:]
		return err
	}
	if _, dup := m.rows[req.Code]; dup {
		return &repository.DuplicateKeyError{Index: models.IndexLabRequestCode, Err: fmt.Errorf("code %s exists", req.Code)}
	}

	m.nextID++
	m.clock = m.clock.Add(time.Second)
	req.ID = m.nextID
	req.CreatedAt = m.clock
	req.UpdatedAt = m.clock
	for i := range req.Tests {
		m.nextTestID++
		req.Tests[i].ID = m.nextTestID
		req.Tests[i].LabRequestID = req.ID
	}
	m.rows[req.Code] = cloneLabRequest(*req)
	return nil
}

func (m *memLab) FindByCode(ctx context.Context, code string) (*models.LabRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := cloneLabRequest(r)
	return &out, nil
}

func (m *memLab) FindByCodeForUpdate(ctx context.Context, code string) (*models.LabRequest, error) {
	return m.FindByCode(ctx, code)
}

func (m *memLab) List(ctx context.Context, f repository.LabRequestFilter) ([]models.LabRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.LabRequest
	for _, r := range m.rows {
		if f.DoctorUserID != "" && r.DoctorUserID != f.DoctorUserID {
			continue
		}
		if f.PatientUserID != "" && (r.PatientUserID == nil || *r.PatientUserID != f.PatientUserID) {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		out = append(out, cloneLabRequest(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memLab) Save(ctx context.Context, req *models.LabRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.rows[req.Code]
	if !ok {
		return repository.ErrNotFound
	}
	row := cloneLabRequest(*req)
	row.Tests = stored.Tests
	row.UpdatedAt = m.clock
	m.rows[req.Code] = row
	return nil
}

func (m *memLab) SaveTest(ctx context.Context, test *models.LabRequestTest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for code, r := range m.rows {
		for i := range r.Tests {
			if r.Tests[i].ID == test.ID {
				r.Tests[i] = *test
				m.rows[code] = r
				return nil
			}
		}
	}
	return repository.ErrNotFound
}

type mockDoctorStore struct {
	mock.Mock
}

func (m *mockDoctorStore) FindByID(ctx context.Context, id uint) (*models.Doctor, error) {
	args := m.Called(ctx, id)
	d, _ := args.Get(0).(*models.Doctor)
	return d, args.Error(1)
}

func (m *mockDoctorStore) FindByUserID(ctx context.Context, userID string) (*models.Doctor, error) {
	args := m.Called(ctx, userID)
	d, _ := args.Get(0).(*models.Doctor)
	return d, args.Error(1)
}

func (m *mockDoctorStore) List(ctx context.Context, specializationID uint) ([]models.Doctor, error) {
	args := m.Called(ctx, specializationID)
	d, _ := args.Get(0).([]models.Doctor)
	return d, args.Error(1)
}

func (m *mockDoctorStore) Create(ctx context.Context, doctor *models.Doctor) error {
	return m.Called(ctx, doctor).Error(0)
}

func (m *mockDoctorStore) Save(ctx context.Context, doctor *models.Doctor) error {
	return m.Called(ctx, doctor).Error(0)
}

func (m *mockDoctorStore) UsersWithoutProfile(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	u, _ := args.Get(0).([]models.User)
	return u, args.Error(1)
}

func (m *mockDoctorStore) ListSpecializations(ctx context.Context) ([]models.Specialization, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).([]models.Specialization)
	return s, args.Error(1)
}

func (m *mockDoctorStore) FindSpecialization(ctx context.Context, id uint) (*models.Specialization, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*models.Specialization)
	return s, args.Error(1)
}

func (m *mockDoctorStore) CreateSpecialization(ctx context.Context, spec *models.Specialization) error {
	return m.Called(ctx, spec).Error(0)
}

type mockUserStore struct {
	mock.Mock
}

func (m *mockUserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockUserStore) Exists(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserStore) List(ctx context.Context, role models.Role) ([]models.User, error) {
	args := m.Called(ctx, role)
	u, _ := args.Get(0).([]models.User)
	return u, args.Error(1)
}

func (m *mockUserStore) Create(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserStore) Save(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserStore) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockUserStore) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	return m.Called(ctx, token).Error(0)
}

func (m *mockUserStore) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	args := m.Called(ctx, token)
	t, _ := args.Get(0).(*models.RefreshToken)
	return t, args.Error(1)
}

func (m *mockUserStore) SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	return m.Called(ctx, token).Error(0)
}
