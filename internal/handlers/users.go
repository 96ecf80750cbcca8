package handlers

import (
	"hospital-management-server/internal/models"
	"hospital-management-server/internal/services"
	"hospital-management-server/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// UserHandler handles admin user management.
type UserHandler struct {
	Accounts AccountManager
	Log      logrus.FieldLogger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(accounts AccountManager, log logrus.FieldLogger) *UserHandler {
	return &UserHandler{Accounts: accounts, Log: log}
}

// CreateUserRequest represents the request body for creating a user (by admin).
type CreateUserRequest struct {
	FirstName   string `json:"firstName" binding:"required"`
	LastName    string `json:"lastName" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	PhoneNumber string `json:"phoneNumber"`
	Role        string `json:"role" binding:"required,oneof=admin doctor patient lab"`
	IsActive    *bool  `json:"isActive"`
	IsConfirmed *bool  `json:"isConfirmed"`
}

// CreateUser handles creating a new user (admin only).
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	user, err := h.Accounts.CreateUser(c.Request.Context(), services.CreateUserInput{
		RegisterInput: services.RegisterInput{
			FirstName:   req.FirstName,
			LastName:    req.LastName,
			Email:       req.Email,
			Password:    req.Password,
			PhoneNumber: req.PhoneNumber,
		},
		Role:        models.Role(req.Role),
		IsActive:    req.IsActive,
		IsConfirmed: req.IsConfirmed,
	})
	if err != nil {
		utils.HandleError(c, h.Log, err)
		return
	}
	utils.Created(c, "User created successfully", user.Sanitize())
}

// GetUsers handles fetching all users (admin only), optionally by role.
func (h *UserHandler) GetUsers(c *gin.Context) {
	users, err := h.Accounts.ListUsers(c.Request.Context(), models.Role(c.Query("role")))
	if err != nil {
		utils.HandleError(c, h.Log, err)
		return
	}
	utils.Success(c, "Users fetched successfully", sanitizeUsers(users))
}

// GetUserByID handles fetching a single user by ID (admin only).
func (h *UserHandler) GetUserByID(c *gin.Context) {
	user, err := h.Accounts.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.HandleError(c, h.Log, err)
		return
	}
	utils.Success(c, "User fetched successfully", user.Sanitize())
}

// UpdateUserRequest represents the request body for updating a user (by admin).
type UpdateUserRequest struct {
	FirstName   *string `json:"firstName"`
	LastName    *string `json:"lastName"`
	Email       *string `json:"email" binding:"omitempty,email"`
	Password    *string `json:"password" binding:"omitempty,min=8"`
	PhoneNumber *string `json:"phoneNumber"`
	Role        *string `json:"role" binding:"omitempty,oneof=admin doctor patient lab"`
	IsActive    *bool   `json:"isActive"`
	IsConfirmed *bool   `json:"isConfirmed"`
}

// UpdateUser handles updating a user's details (admin only).
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var req UpdateUserRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	patch := services.UserPatch{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Password:    req.Password,
		PhoneNumber: req.PhoneNumber,
		IsActive:    req.IsActive,
		IsConfirmed: req.IsConfirmed,
	}
	if req.Role != nil {
		role := models.Role(*req.Role)
		patch.Role = &role
	}

	user, err := h.Accounts.UpdateUser(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		utils.HandleError(c, h.Log, err)
		return
	}
	utils.Success(c, "User updated successfully", user.Sanitize())
}

// DeleteUser handles deleting a user (admin only).
func (h *UserHandler) DeleteUser(c *gin.Context) {
	if err := h.Accounts.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		utils.HandleError(c, h.Log, err)
		return
	}
	utils.Success(c, "User deleted successfully", nil)
}
