package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hospital-management-server/internal/apperr"
	"hospital-management-server/internal/models"
	"hospital-management-server/internal/repository"

	"github.com/sirupsen/logrus"
)

// TokenIssuer signs and verifies session tokens.
type TokenIssuer interface {
	Issue(user *models.User) (accessToken, refreshToken string, err error)
	// ParseRefresh verifies a refresh token and returns its user id.
	ParseRefresh(token string) (string, error)
	RefreshTTL() time.Duration
}

// ProfileProvisioner creates directory entries for doctor accounts.
type ProfileProvisioner interface {
	EnsureProfile(ctx context.Context, user *models.User) error
}

// AccountService manages accounts and login sessions.
type AccountService struct {
	users    repository.UserStore
	profiles ProfileProvisioner
	tokens   TokenIssuer
	log      logrus.FieldLogger
	now      func() time.Time
}

// NewAccountService creates a new AccountService.
func NewAccountService(users repository.UserStore, profiles ProfileProvisioner, tokens TokenIssuer, log logrus.FieldLogger) *AccountService {
	return &AccountService{
		users:    users,
		profiles: profiles,
		tokens:   tokens,
		log:      log.WithField("component", "accounts"),
		now:      time.Now,
	}
}

// Session is the result of a login or token refresh.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         *models.User
}

// RegisterInput is a self-service sign-up.
type RegisterInput struct {
	FirstName   string
	LastName    string
	Email       string
	Password    string
	PhoneNumber string
}

// CreateUserInput is an admin-created account of any role.
type CreateUserInput struct {
	RegisterInput
	Role        models.Role
	IsActive    *bool
	IsConfirmed *bool
}

// UserPatch is an admin account update; nil fields are left alone.
type UserPatch struct {
	FirstName   *string
	LastName    *string
	Email       *string
	Password    *string
	PhoneNumber *string
	Role        *models.Role
	IsActive    *bool
	IsConfirmed *bool
}

// ProfilePatch is the subset of UserPatch an account may change itself.
type ProfilePatch struct {
	FirstName   *string
	LastName    *string
	PhoneNumber *string
}

const minPasswordLength = 8

// Register creates a confirmed patient account.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	confirmed := true
	return s.create(ctx, CreateUserInput{RegisterInput: in, Role: models.RolePatient, IsConfirmed: &confirmed})
}

// CreateUser creates an account on behalf of an admin.
func (s *AccountService) CreateUser(ctx context.Context, in CreateUserInput) (*models.User, error) {
	if !in.Role.Valid() {
		return nil, apperr.Validation("invalid role %q", in.Role)
	}
	return s.create(ctx, in)
}

func (s *AccountService) create(ctx context.Context, in CreateUserInput) (*models.User, error) {
	email := normalizeEmail(in.Email)
	if email == "" {
		return nil, apperr.Validation("email is required")
	}
	if len(in.Password) < minPasswordLength {
		return nil, apperr.Validation("password must be at least %d characters", minPasswordLength)
	}

	user := &models.User{
		Email:       email,
		FirstName:   strings.TrimSpace(in.FirstName),
		LastName:    strings.TrimSpace(in.LastName),
		PhoneNumber: strings.TrimSpace(in.PhoneNumber),
		Role:        in.Role,
		IsActive:    true,
	}
	if in.IsActive != nil {
		user.IsActive = *in.IsActive
	}
	if in.IsConfirmed != nil {
		user.IsConfirmed = *in.IsConfirmed
	}
	if err := user.SetPassword(in.Password); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.Create(ctx, user); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, apperr.Conflict("user with this email already exists").Wrap(err)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	if err := s.provision(ctx, user); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("account created")
	return user, nil
}

func (s *AccountService) provision(ctx context.Context, user *models.User) error {
	if user.Role != models.RoleDoctor || s.profiles == nil {
		return nil
	}
	return s.profiles.EnsureProfile(ctx, user)
}

// Login checks credentials and opens a session.
func (s *AccountService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Unauthorized("invalid email or password")
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !user.CheckPassword(password) {
		return nil, apperr.Unauthorized("invalid email or password")
	}
	if err := checkLoginAllowed(user); err != nil {
		return nil, err
	}

	session, err := s.openSession(ctx, user)
	if err != nil {
		return nil, err
	}
	s.log.WithField("user_id", user.ID).Info("user logged in")
	return session, nil
}

func checkLoginAllowed(user *models.User) error {
	if !user.IsActive {
		return apperr.Forbidden("account is deactivated")
	}
	if !user.IsConfirmed {
		return apperr.Forbidden("account is not confirmed")
	}
	return nil
}

func (s *AccountService) openSession(ctx context.Context, user *models.User) (*Session, error) {
	access, refresh, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}
	stored := &models.RefreshToken{
		UserID:    user.ID,
		Token:     refresh,
		ExpiresAt: s.now().Add(s.tokens.RefreshTTL()),
	}
	if err := s.users.CreateRefreshToken(ctx, stored); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return &Session{AccessToken: access, RefreshToken: refresh, User: user}, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a
// new pair is issued.
func (s *AccountService) Refresh(ctx context.Context, token string) (*Session, error) {
	userID, err := s.tokens.ParseRefresh(token)
	if err != nil {
		return nil, apperr.Unauthorized("invalid refresh token").Wrap(err)
	}
	stored, err := s.users.FindRefreshToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Unauthorized("refresh token not found, expired, or revoked")
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	now := s.now()
	if stored.UserID != userID || !stored.Usable(now) {
		return nil, apperr.Unauthorized("refresh token not found, expired, or revoked")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Unauthorized("account no longer exists")
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if err := checkLoginAllowed(user); err != nil {
		return nil, err
	}

	stored.Revoke(now)
	if err := s.users.SaveRefreshToken(ctx, stored); err != nil {
		return nil, fmt.Errorf("revoke refresh token: %w", err)
	}
	return s.openSession(ctx, user)
}

// Logout revokes a refresh token. Unknown or already revoked tokens are
// accepted silently.
func (s *AccountService) Logout(ctx context.Context, token string) error {
	stored, err := s.users.FindRefreshToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("find refresh token: %w", err)
	}
	if stored.IsRevoked {
		return nil
	}
	stored.Revoke(s.now())
	if err := s.users.SaveRefreshToken(ctx, stored); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	s.log.WithField("user_id", stored.UserID).Info("user logged out")
	return nil
}

// GetUser returns an account by id.
func (s *AccountService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("user %s not found", id)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

// ListUsers returns all accounts, optionally of one role.
func (s *AccountService) ListUsers(ctx context.Context, role models.Role) ([]models.User, error) {
	if role != "" && !role.Valid() {
		return nil, apperr.Validation("invalid role %q", role)
	}
	users, err := s.users.List(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// UpdateUser applies an admin patch. Promoting an account to doctor
// provisions its directory entry.
func (s *AccountService) UpdateUser(ctx context.Context, id string, patch UserPatch) (*models.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Email != nil {
		email := normalizeEmail(*patch.Email)
		if email == "" {
			return nil, apperr.Validation("email cannot be empty")
		}
		user.Email = email
	}
	if patch.Password != nil {
		if len(*patch.Password) < minPasswordLength {
			return nil, apperr.Validation("password must be at least %d characters", minPasswordLength)
		}
		if err := user.SetPassword(*patch.Password); err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
	}
	if patch.Role != nil {
		if !patch.Role.Valid() {
			return nil, apperr.Validation("invalid role %q", *patch.Role)
		}
		user.Role = *patch.Role
	}
	if patch.IsActive != nil {
		user.IsActive = *patch.IsActive
	}
	if patch.IsConfirmed != nil {
		user.IsConfirmed = *patch.IsConfirmed
	}
	applyProfilePatch(user, ProfilePatch{FirstName: patch.FirstName, LastName: patch.LastName, PhoneNumber: patch.PhoneNumber})

	if err := s.users.Save(ctx, user); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, apperr.Conflict("user with this email already exists").Wrap(err)
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	if err := s.provision(ctx, user); err != nil {
		return nil, err
	}
	s.log.WithField("user_id", id).Info("account updated")
	return user, nil
}

// DeleteUser removes an account.
func (s *AccountService) DeleteUser(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("user %s not found", id)
		}
		return fmt.Errorf("delete user: %w", err)
	}
	s.log.WithField("user_id", id).Info("account deleted")
	return nil
}

// UpdateProfile lets an account edit its own contact details.
func (s *AccountService) UpdateProfile(ctx context.Context, id string, patch ProfilePatch) (*models.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	applyProfilePatch(user, patch)
	if err := s.users.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}

func applyProfilePatch(user *models.User, patch ProfilePatch) {
	if patch.FirstName != nil && strings.TrimSpace(*patch.FirstName) != "" {
		user.FirstName = strings.TrimSpace(*patch.FirstName)
	}
	if patch.LastName != nil && strings.TrimSpace(*patch.LastName) != "" {
		user.LastName = strings.TrimSpace(*patch.LastName)
	}
	if patch.PhoneNumber != nil {
		user.PhoneNumber = strings.TrimSpace(*patch.PhoneNumber)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
