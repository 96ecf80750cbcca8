package repository

import (
	"context"
	"strings"

	"hospital-management-server/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserStore is the account store consulted for existence, role and
// login lookups.
type UserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Exists(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, role models.Role) ([]models.User, error)
	Create(ctx context.Context, user *models.User) error
	Save(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error

	CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error
	FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error)
	SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error
}

// UserRepository is the gorm implementation of UserStore.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) conn(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.conn(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.conn(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *UserRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := r.conn(ctx).Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, translate(err)
	}
	return count > 0, nil
}

func (r *UserRepository) List(ctx context.Context, role models.Role) ([]models.User, error) {
	q := r.conn(ctx).Order("created_at DESC")
	if role != "" {
		q = q.Where("role = ?", role)
	}
	var users []models.User
	if err := q.Find(&users).Error; err != nil {
		return nil, translate(err)
	}
	return users, nil
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	// Select("*") so an explicit IsActive=false is not replaced by the column default.
	return translate(r.conn(ctx).Select("*").Omit(clause.Associations).Create(user).Error)
}

func (r *UserRepository) Save(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	return translate(r.conn(ctx).Save(user).Error)
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	res := r.conn(ctx).Delete(&models.User{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	return translate(r.conn(ctx).Create(token).Error)
}

func (r *UserRepository) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	var stored models.RefreshToken
	if err := r.conn(ctx).Where("token = ?", token).First(&stored).Error; err != nil {
		return nil, translate(err)
	}
	return &stored, nil
}

func (r *UserRepository) SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	return translate(r.conn(ctx).Save(token).Error)
}
