package services

import (
	"context"
	"errors"

	"github.com/mesa-digital/restaurant-app/models"
	"github.com/mesa-digital/restaurant-app/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// HashPassword hashes with bcrypt at the given cost.
func HashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

type AuthService struct {
	db *gorm.DB
	// compared against when the email is unknown so both paths cost one bcrypt check
	dummyHash []byte
}

func NewAuthService(db *gorm.DB, bcryptCost int) (*AuthService, error) {
	dummy, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcryptCost)
	if err != nil {
		return nil, err
	}
	return &AuthService{db: db, dummyHash: dummy}, nil
}

// Authenticate checks the credentials and returns the session context. Every
// failure is reported as ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (models.SessionContext, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return models.SessionContext{}, utils.StorageError(err)
		}
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return models.SessionContext{}, utils.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.SessionContext{}, utils.ErrInvalidCredentials
	}
	if !user.Active {
		utils.InfoLogger.WithField("user_id", user.ID).Info("Login attempt on inactive account")
		return models.SessionContext{}, utils.ErrInvalidCredentials
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("User authenticated")

	return models.SessionContext{
		UserID:   user.ID,
		Name:     user.Name,
		Role:     user.Role,
		TenantID: user.TenantScope(),
	}, nil
}

// Authorize is the single role gate. A super_admin requirement admits only
// super admins; lower requirements admit that role or higher and, when
// tenantID is non-zero, require the session to belong to that tenant.
func Authorize(sess *models.SessionContext, required models.Role, tenantID uint) error {
	if sess == nil || sess.UserID == 0 {
		return utils.ErrUnauthenticated
	}
	if !sess.Role.AtLeast(required) {
		return utils.ErrForbidden
	}
	if tenantID != 0 && !sess.CanAccessTenant(tenantID) {
		return utils.ErrForbidden
	}
	return nil
}
