package handlers

import (
	"time"

	"hospital-management-server/internal/models"
	"hospital-management-server/internal/services"
	"hospital-management-server/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AppointmentHandler handles appointment related requests.
type AppointmentHandler struct {
	Appointments AppointmentScheduler
	Doctors      DoctorDirectory
	Log          logrus.FieldLogger
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(appointments AppointmentScheduler, doctors DoctorDirectory, log logrus.FieldLogger) *AppointmentHandler {
	return &AppointmentHandler{Appointments: appointments, Doctors: doctors, Log: log}
}

// CreateAppointmentRequest represents the request body for booking a slot.
type CreateAppointmentRequest struct {
	DoctorID        uint    `json:"doctorId" binding:"required"`
	UserID          *string `json:"userId"`
	PatientName     string  `json:"patientName" binding:"required"`
	ContactNumber   string  `json:"contactNumber" binding:"required"`
	AppointmentType string  `json:"appointmentType" binding:"required"`
	Reason          *string `json:"reason"`
	Date            string  `json:"date" binding:"required"`
	TimeSlot        string  `json:"timeSlot" binding:"required"`
	Status          string  `json:"status"`
}

// CreateAppointment books a slot. Patients always book for themselves and
// cannot choose the initial status.
func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	userID, role, ok := caller(c)
	if !ok {
		return
	}
	var req CreateAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	date, ok := parseDate(c, req.Date)
	if !ok {
		return
	}

	in := services.CreateAppointmentInput{
		DoctorID:        req.DoctorID,
		UserID:          req.UserID,
		PatientName:     req.PatientName,
		ContactNumber:   req.ContactNumber,
		AppointmentType: req.AppointmentType,
		Reason:          req.Reason,
		Date:            date,
		TimeSlot:        req.TimeSlot,
		Status:          models.AppointmentStatus(req.Status),
	}
	if role == models.RolePatient {
		in.UserID = &userID
		in.Status = ""
	}

	appt, err := h.Appointments.Create(c.Request.Context(), in)
	if err != nil {
		utils.HandleError(c, h.Log, err)
		return
	}
	utils.Created(c, "Appointment created successfully", appt)
}

// GetAppointments lists appointments. Doctors only ever see their own.
func (h *AppointmentHandler) GetAppointments(c *gin.Context) {
	userID, role, ok := caller(c)
	if !ok {
		return
	}

	doctorID, ok := uintQuery(c, "doctorId")
	if !ok {
		return
	}
	limit, ok := uintQuery(c, "limit")
	if !ok {
		return
	}
	q := services.AppointmentQuery{
		Status:   models.AppointmentStatus(c.Query("status")),
		DoctorID: doctorID,
		Limit:    int(limit),
	}
	if raw := c.Query("date"); raw != "" {
		date, ok := parseDate(c, raw)
		if !ok {
			return
		}
		q.Date = &date
	}

	if role == models.RoleDoctor {
		doctor, err := h.Doctors.GetByUserID(c.Request.Context(), userID)
		if err != nil {
			utils.HandleError(c, h.Log, err)
			return
		}
		q.DoctorID = doctor.ID
	}

	appts, err := h.Appointments.List(c.Request.Context(), q)
	if err != nil {
		utils.HandleError(c, h.Log, err)
		return
	}
	utils.Success(c, "Appointments fetched successfully", appts)
}

// GetAppointmentByID returns one appointment.
func (h *AppointmentHandler) GetAppointmentByID(c *gin.Context) {
	id, ok := uintParam(c, "id", "appointment")
	if !ok {
		return
	}
	appt, err := h.Appointments.FindOne(c.Request.Context(), id)
	if err != nil {
		utils.HandleError(c, h.Log, err)
		return
	}
	utils.Success(c, "Appointment fetched successfully", appt)
}

// GetMyAppointments lists the caller's own bookings.
func (h *AppointmentHandler) GetMyAppointments(c *gin.Context) {
	userID, _, ok := caller(c)
	if !ok {
		return
	}
	appts, err := h.Appointments.ListMine(c.Request.Context(), userID, models.AppointmentStatus(c.Query("status")))
	if err != nil {
		utils.HandleError(c, h.Log, err)
		return
	}
	utils.Success(c, "Appointments fetched successfully", appts)
}

// CancelMyAppointment cancels one of the caller's upcoming bookings.
func (h *AppointmentHandler) CancelMyAppointment(c *gin.Context) {
	userID, _, ok := caller(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id", "appointment")
	if !ok {
		return
	}
	appt, err := h.Appointments.CancelMine(c.Request.Context(), id, userID)
	if err != nil {
		utils.HandleError(c, h.Log, err)
		return
	}
	utils.Success(c, "Appointment cancelled successfully", appt)
}

// UpdateAppointmentRequest represents an admin appointment update.
type UpdateAppointmentRequest struct {
	DoctorID        *uint   `json:"doctorId"`
	UserID          *string `json:"userId"`
	PatientName     *string `json:"patientName"`
	ContactNumber   *string `json:"contactNumber"`
	AppointmentType *string `json:"appointmentType"`
	Reason          *string `json:"reason"`
	Date            *string `json:"date"`
	TimeSlot        *string `json:"timeSlot"`
	QueueNumber     *int    `json:"queueNumber"`
	Status          *string `json:"status"`
}

// UpdateAppointment applies an admin update.
func (h *AppointmentHandler) UpdateAppointment(c *gin.Context) {
	id, ok := uintParam(c, "id", "appointment")
	if !ok {
		return
	}
	var req UpdateAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	patch := services.AppointmentPatch{
		DoctorID:        req.DoctorID,
		UserID:          req.UserID,
		PatientName:     req.PatientName,
		ContactNumber:   req.ContactNumber,
		AppointmentType: req.AppointmentType,
		Reason:          req.Reason,
		TimeSlot:        req.TimeSlot,
		QueueNumber:     req.QueueNumber,
	}
	if req.Date != nil {
		var date time.Time
		if date, ok = parseDate(c, *req.Date); !ok {
			return
		}
		patch.Date = &date
	}
	if req.Status != nil {
		status := models.AppointmentStatus(*req.Status)
		patch.Status = &status
	}

	appt, err := h.Appointments.Update(c.Request.Context(), id, patch)
	if err != nil {
		utils.HandleError(c, h.Log, err)
		return
	}
	utils.Success(c, "Appointment updated successfully", appt)
}

// DeleteAppointment removes an appointment.
func (h *AppointmentHandler) DeleteAppointment(c *gin.Context) {
	id, ok := uintParam(c, "id", "appointment")
	if !ok {
		return
	}
	if err := h.Appointments.Remove(c.Request.Context(), id); err != nil {
		utils.HandleError(c, h.Log, err)
		return
	}
	utils.Success(c, "Appointment deleted successfully", nil)
}
