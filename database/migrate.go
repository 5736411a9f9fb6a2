package database

import (
	"context"
	"errors"

	"github.com/mesa-digital/restaurant-app/models"
	"github.com/mesa-digital/restaurant-app/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Models lists every persisted entity in dependency order.
var Models = []interface{}{
	&models.Tenant{},
	&models.User{},
	&models.Table{},
	&models.Category{},
	&models.Product{},
	&models.CashTransaction{},
	&models.Order{},
	&models.OrderItem{},
	&models.AccessLog{},
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models...); err != nil {
		return err
	}
	utils.InfoLogger.Infof("Schema migrated (%d models)", len(Models))
	return nil
}

// EnsureSuperAdmin creates the tenant-less super admin unless a user with that
// email already exists. It reports whether a user was created.
func EnsureSuperAdmin(ctx context.Context, db *gorm.DB, name, email, password string, cost int) (bool, error) {
	var existing models.User
	err := db.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		if existing.Role != models.RoleSuperAdmin {
			utils.ErrorLogger.WithField("email", email).Warn("Bootstrap email belongs to a non super admin user")
		}
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return false, err
	}
	user := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleSuperAdmin,
		Active:       true,
	}
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return false, err
	}

	utils.InfoLogger.WithField("email", email).Info("Super admin account created")
	return true, nil
}
