package handlers

import (
	"hospital-management-server/internal/config"
	"hospital-management-server/internal/models"
	"hospital-management-server/internal/services"
	"hospital-management-server/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const refreshCookie = "refresh_token"

// AuthHandler handles authentication-related requests.
type AuthHandler struct {
	Accounts AccountManager
	Cfg      *config.Config
	Log      logrus.FieldLogger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(accounts AccountManager, cfg *config.Config, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{Accounts: accounts, Cfg: cfg, Log: log}
}

// RegisterRequest represents the request body for patient self-registration.
type RegisterRequest struct {
	FirstName   string `json:"firstName" binding:"required"`
	LastName    string `json:"lastName" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	PhoneNumber string `json:"phoneNumber"`
}

// Register handles user registration. Self-registered accounts are always patients.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	user, err := h.Accounts.Register(c.Request.Context(), services.RegisterInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Password:    req.Password,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		utils.HandleError(c, h.Log, err)
		return
	}
	utils.Created(c, "User registered successfully", user.Sanitize())
}

// LoginRequest represents the request body for user login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents the response body for successful login.
type LoginResponse struct {
	AccessToken  string               `json:"accessToken"`
	RefreshToken string               `json:"refreshToken"`
	User         models.UserSanitized `json:"user"`
}

// Login handles user login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	session, err := h.Accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		utils.HandleError(c, h.Log, err)
		return
	}

	h.setRefreshCookie(c, session.RefreshToken)
	utils.Success(c, "Login successful", LoginResponse{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		User:         session.User.Sanitize(),
	})
}

// RefreshTokenRequest represents the request body for token refresh.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// RefreshTokenResponse represents the response body for successful token refresh.
type RefreshTokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// RefreshToken exchanges a refresh token, read from the HTTP-only cookie or
// the request body, for a new token pair.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	token, ok := h.presentedRefreshToken(c)
	if !ok {
		return
	}

	session, err := h.Accounts.Refresh(c.Request.Context(), token)
	if err != nil {
		utils.HandleError(c, h.Log, err)
		return
	}

	h.setRefreshCookie(c, session.RefreshToken)
	utils.Success(c, "Access token refreshed successfully", RefreshTokenResponse{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
	})
}

// Logout revokes the presented refresh token and clears the cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	token, ok := h.presentedRefreshToken(c)
	if !ok {
		return
	}
	if err := h.Accounts.Logout(c.Request.Context(), token); err != nil {
		utils.HandleError(c, h.Log, err)
		return
	}

	c.SetCookie(refreshCookie, "", -1, "/", "", !h.Cfg.IsDevelopment(), true)
	utils.Success(c, "Logout successful. Refresh token has been invalidated.", nil)
}

func (h *AuthHandler) presentedRefreshToken(c *gin.Context) (string, bool) {
	if token, err := c.Cookie(refreshCookie); err == nil && token != "" {
		return token, true
	}
	var req RefreshTokenRequest
	if !utils.BindAndValidate(c, &req) {
		return "", false
	}
	return req.RefreshToken, true
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string) {
	c.SetCookie(
		refreshCookie,
		token,
		h.Cfg.JWTRefreshExpirationHours*60*60,
		"/",
		"",
		!h.Cfg.IsDevelopment(), // Secure outside development
		true,
	)
}

// GetProfile handles fetching the currently authenticated user's profile.
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, _, ok := caller(c)
	if !ok {
		return
	}
	user, err := h.Accounts.GetUser(c.Request.Context(), userID)
	if err != nil {
		utils.HandleError(c, h.Log, err)
		return
	}
	utils.Success(c, "Profile fetched successfully", user.Sanitize())
}

// UpdateProfileRequest represents the request body for updating user profile.
type UpdateProfileRequest struct {
	FirstName   *string `json:"firstName"`
	LastName    *string `json:"lastName"`
	PhoneNumber *string `json:"phoneNumber"`
}

// UpdateProfile handles updating the currently authenticated user's profile.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, _, ok := caller(c)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	user, err := h.Accounts.UpdateProfile(c.Request.Context(), userID, services.ProfilePatch{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		utils.HandleError(c, h.Log, err)
		return
	}
	utils.Success(c, "Profile updated successfully", user.Sanitize())
}
