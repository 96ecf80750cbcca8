package handlers

import (
	"strings"

	"hospital-management-server/internal/models"
	"hospital-management-server/internal/services"
	"hospital-management-server/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// LabHandler serves the doctor, lab staff and patient views of the lab
// workflow.
type LabHandler struct {
	Lab      LabWorkflow
	Accounts AccountManager
	Log      logrus.FieldLogger
}

// NewLabHandler creates a new LabHandler.
func NewLabHandler(lab LabWorkflow, accounts AccountManager, log logrus.FieldLogger) *LabHandler {
	return &LabHandler{Lab: lab, Accounts: accounts, Log: log}
}

// CreateLabRequestRequest represents a doctor's lab order.
type CreateLabRequestRequest struct {
	PatientName   string   `json:"patientName" binding:"required"`
	PatientUserID *string  `json:"patientUserId"`
	AppointmentID *uint    `json:"appointmentId"`
	Tests         []string `json:"tests" binding:"required,min=1"`
}

// CreateRequest orders lab tests on behalf of the calling doctor.
func (h *LabHandler) CreateRequest(c *gin.Context) {
	userID, _, ok := caller(c)
	if !ok {
		return
	}
	var req CreateLabRequestRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	created, err := h.Lab.CreateRequest(c.Request.Context(), services.CreateLabRequestInput{
		DoctorUserID:  userID,
		PatientName:   req.PatientName,
		PatientUserID: req.PatientUserID,
		AppointmentID: req.AppointmentID,
		Tests:         req.Tests,
	})
	if err != nil {
		utils.HandleError(c, h.Log, err)
		return
	}
	utils.Created(c, "Lab request created successfully", created)
}

// GetDoctorRequests lists the calling doctor's requests.
func (h *LabHandler) GetDoctorRequests(c *gin.Context) {
	userID, _, ok := caller(c)
	if !ok {
		return
	}
	reqs, err := h.Lab.ListDoctorRequests(c.Request.Context(), userID, models.LabRequestStatus(c.Query("status")))
	if err != nil {
		utils.HandleError(c, h.Log, err)
		return
	}
	utils.Success(c, "Lab requests fetched successfully", reqs)
}

// GetDoctorRequest returns one of the calling doctor's requests.
func (h *LabHandler) GetDoctorRequest(c *gin.Context) {
	userID, _, ok := caller(c)
	if !ok {
		return
	}
	req, err := h.Lab.GetDoctorRequestByCode(c.Request.Context(), userID, c.Param("code"))
	if err != nil {
		utils.HandleError(c, h.Log, err)
		return
	}
	utils.Success(c, "Lab request fetched successfully", req)
}

// GetQueue is the lab staff worklist.
func (h *LabHandler) GetQueue(c *gin.Context) {
	reqs, err := h.Lab.ListQueue(c.Request.Context(), models.LabRequestStatus(c.Query("status")))
	if err != nil {
		utils.HandleError(c, h.Log, err)
		return
	}
	utils.Success(c, "Lab queue fetched successfully", reqs)
}

// GetQueueItem returns any request by code.
func (h *LabHandler) GetQueueItem(c *gin.Context) {
	req, err := h.Lab.GetQueueItem(c.Request.Context(), c.Param("code"))
	if err != nil {
		utils.HandleError(c, h.Log, err)
		return
	}
	utils.Success(c, "Lab request fetched successfully", req)
}

// CollectSampleRequest is the optional body of the collect action.
type CollectSampleRequest struct {
	TechnicianName string `json:"technicianName"`
}

// CollectSample marks the sample of a pending request as collected.
func (h *LabHandler) CollectSample(c *gin.Context) {
	userID, _, ok := caller(c)
	if !ok {
		return
	}
	var req CollectSampleRequest
	if c.Request.ContentLength != 0 && !utils.BindAndValidate(c, &req) {
		return
	}
	name, ok := h.technicianName(c, userID, req.TechnicianName)
	if !ok {
		return
	}

	updated, err := h.Lab.MarkSampleCollected(c.Request.Context(), c.Param("code"), userID, name)
	if err != nil {
		utils.HandleError(c, h.Log, err)
		return
	}
	utils.Success(c, "Sample marked as collected", updated)
}

// LabResultRequest is the result of one requested test.
type LabResultRequest struct {
	TestName string `json:"testName" binding:"required"`
	Value    string `json:"value"`
	Remarks  string `json:"remarks"`
}

// CompleteRequestRequest carries the results of every requested test.
type CompleteRequestRequest struct {
	TechnicianName string             `json:"technicianName"`
	Results        []LabResultRequest `json:"results" binding:"required,min=1,dive"`
}

// CompleteRequest records results and completes a request.
func (h *LabHandler) CompleteRequest(c *gin.Context) {
	userID, _, ok := caller(c)
	if !ok {
		return
	}
	var req CompleteRequestRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	name, ok := h.technicianName(c, userID, req.TechnicianName)
	if !ok {
		return
	}

	in := services.CompleteLabRequestInput{TechnicianUserID: userID, TechnicianName: name}
	for _, r := range req.Results {
		in.Results = append(in.Results, services.LabResultInput{TestName: r.TestName, Value: r.Value, Remarks: r.Remarks})
	}

	updated, err := h.Lab.CompleteRequest(c.Request.Context(), c.Param("code"), in)
	if err != nil {
		utils.HandleError(c, h.Log, err)
		return
	}
	utils.Success(c, "Lab request completed", updated)
}

// technicianName falls back to the caller's account name.
func (h *LabHandler) technicianName(c *gin.Context, userID, given string) (string, bool) {
	if name := strings.TrimSpace(given); name != "" {
		return name, true
	}
	user, err := h.Accounts.GetUser(c.Request.Context(), userID)
	if err != nil {
		utils.HandleError(c, h.Log, err)
		return "", false
	}
	return user.FullName(), true
}

// GetMyReports lists the calling patient's completed reports.
func (h *LabHandler) GetMyReports(c *gin.Context) {
	userID, _, ok := caller(c)
	if !ok {
		return
	}
	reports, err := h.Lab.ListMyReports(c.Request.Context(), userID)
	if err != nil {
		utils.HandleError(c, h.Log, err)
		return
	}
	utils.Success(c, "Lab reports fetched successfully", reports)
}

// GetMyReport returns one completed report of the calling patient.
func (h *LabHandler) GetMyReport(c *gin.Context) {
	userID, _, ok := caller(c)
	if !ok {
		return
	}
	report, err := h.Lab.GetMyReportByCode(c.Request.Context(), userID, c.Param("code"))
	if err != nil {
		utils.HandleError(c, h.Log, err)
		return
	}
	utils.Success(c, "Lab report fetched successfully", report)
}
