package handlers

import (
	"hospital-management-server/internal/models"
	"hospital-management-server/internal/services"
	"hospital-management-server/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// DoctorHandler serves the doctor directory.
type DoctorHandler struct {
	Doctors DoctorDirectory
	Log     logrus.FieldLogger
}

// NewDoctorHandler creates a new DoctorHandler.
func NewDoctorHandler(doctors DoctorDirectory, log logrus.FieldLogger) *DoctorHandler {
	return &DoctorHandler{Doctors: doctors, Log: log}
}

// GetDoctors lists bookable doctors, optionally by specialization.
func (h *DoctorHandler) GetDoctors(c *gin.Context) {
	specializationID, ok := uintQuery(c, "specializationId")
	if !ok {
		return
	}
	doctors, err := h.Doctors.List(c.Request.Context(), specializationID)
	if err != nil {
		utils.HandleError(c, h.Log, err)
		return
	}
	utils.Success(c, "Doctors fetched successfully", doctors)
}

func (h *DoctorHandler) GetDoctorByID(c *gin.Context) {
	id, ok := uintParam(c, "id", "doctor")
	if !ok {
		return
	}
	doctor, err := h.Doctors.Get(c.Request.Context(), id)
	if err != nil {
		utils.HandleError(c, h.Log, err)
		return
	}
	utils.Success(c, "Doctor fetched successfully", doctor)
}

// UpdateDoctorRequest represents a directory profile update.
type UpdateDoctorRequest struct {
	DisplayName      *string  `json:"displayName"`
	SpecializationID *uint    `json:"specializationId"`
	Bio              *string  `json:"bio"`
	ConsultationFee  *float64 `json:"consultationFee"`
}

// UpdateDoctor edits a profile; doctors may only edit their own.
func (h *DoctorHandler) UpdateDoctor(c *gin.Context) {
	userID, role, ok := caller(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id", "doctor")
	if !ok {
		return
	}
	var req UpdateDoctorRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	doctor, err := h.Doctors.UpdateProfile(c.Request.Context(), id, userID, role == models.RoleAdmin, services.DoctorProfilePatch{
		DisplayName:      req.DisplayName,
		SpecializationID: req.SpecializationID,
		Bio:              req.Bio,
		ConsultationFee:  req.ConsultationFee,
	})
	if err != nil {
		utils.HandleError(c, h.Log, err)
		return
	}
	utils.Success(c, "Doctor profile updated successfully", doctor)
}

func (h *DoctorHandler) GetSpecializations(c *gin.Context) {
	specs, err := h.Doctors.ListSpecializations(c.Request.Context())
	if err != nil {
		utils.HandleError(c, h.Log, err)
		return
	}
	utils.Success(c, "Specializations fetched successfully", specs)
}

// CreateSpecializationRequest represents a new specialization.
type CreateSpecializationRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description"`
}

func (h *DoctorHandler) CreateSpecialization(c *gin.Context) {
	var req CreateSpecializationRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	spec, err := h.Doctors.CreateSpecialization(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		utils.HandleError(c, h.Log, err)
		return
	}
	utils.Created(c, "Specialization created successfully", spec)
}
