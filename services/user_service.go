package services

import (
	"context"
	"strings"

	"github.com/mesa-digital/restaurant-app/models"
	"github.com/mesa-digital/restaurant-app/utils"
	"gorm.io/gorm"
)

type CreateUserInput struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=4,max=72"`
	Role     string `json:"role" validate:"required,oneof=admin operator"`
}

type UserService struct {
	db         *gorm.DB
	bcryptCost int
}

func NewUserService(db *gorm.DB, bcryptCost int) *UserService {
	return &UserService{db: db, bcryptCost: bcryptCost}
}

func (s *UserService) ListUsers(ctx context.Context, tenantID uint) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("id asc").
		Find(&users).Error
	if err != nil {
		return nil, utils.StorageError(err)
	}
	return users, nil
}

// CreateUser adds an admin or operator to the tenant. Emails are unique
// across all tenants.
func (s *UserService) CreateUser(ctx context.Context, tenantID uint, in CreateUserInput) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	hash, err := HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, utils.StorageError(err)
	}

	user := models.User{
		TenantID:     &tenantID,
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         models.Role(in.Role),
		Active:       true,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", in.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return utils.ErrEmailAlreadyExists
		}
		if err := tx.Create(&user).Error; err != nil {
			if isDuplicate(err) {
				return utils.ErrEmailAlreadyExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, dbError(err, nil)
	}
	return &user, nil
}

// DeactivateUser soft-deletes a user of the tenant. Users cannot deactivate
// themselves.
func (s *UserService) DeactivateUser(ctx context.Context, tenantID, userID, actorID uint) error {
	if userID == actorID {
		return utils.InvalidField("id", "you cannot deactivate your own account")
	}

	db := s.db.WithContext(ctx)
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return dbError(err, utils.ErrUserNotFound)
	}
	if user.TenantScope() != tenantID {
		return utils.ErrForbidden
	}

	if err := db.Model(&user).Update("active", false).Error; err != nil {
		return utils.StorageError(err)
	}
	return nil
}
