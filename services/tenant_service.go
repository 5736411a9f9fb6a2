package services

import (
	"context"
	"fmt"

	"github.com/mesa-digital/restaurant-app/models"
	"github.com/mesa-digital/restaurant-app/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	DefaultTableCount    = 12
	DefaultTableCapacity = 4
)

// TableNumber formats the n-th table of a tenant ("01", "02", ...).
func TableNumber(n int) string {
	return fmt.Sprintf("%02d", n)
}

type CreateTenantInput struct {
	Name          string `json:"name" form:"name" validate:"required,max=120"`
	Email         string `json:"email" form:"email" validate:"required,email"`
	AdminName     string `json:"admin_name" form:"admin_name" validate:"required,max=255"`
	AdminEmail    string `json:"admin_email" form:"admin_email" validate:"required,email"`
	AdminPassword string `json:"admin_password" form:"admin_password" validate:"required,min=4,max=72"`
}

type UpdateTenantInput struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=120"`
	Email *string `json:"email" validate:"omitempty,email"`
}

type TenantService struct {
	db         *gorm.DB
	bcryptCost int
}

func NewTenantService(db *gorm.DB, bcryptCost int) *TenantService {
	return &TenantService{db: db, bcryptCost: bcryptCost}
}

// CreateTenant inserts the tenant, its admin and its initial tables in one
// transaction.
func (s *TenantService) CreateTenant(ctx context.Context, in CreateTenantInput) (uint, error) {
	if err := validateInput(in); err != nil {
		return 0, err
	}
	adminEmail := normalizeEmail(in.AdminEmail)

	hash, err := HashPassword(in.AdminPassword, s.bcryptCost)
	if err != nil {
		return 0, utils.StorageError(err)
	}

	var tenant models.Tenant
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", adminEmail).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return utils.ErrEmailAlreadyExists
		}

		tenant = models.Tenant{Name: in.Name, Email: normalizeEmail(in.Email)}
		if err := tx.Create(&tenant).Error; err != nil {
			return err
		}

		admin := models.User{
			TenantID:     &tenant.ID,
			Name:         in.AdminName,
			Email:        adminEmail,
			PasswordHash: hash,
			Role:         models.RoleAdmin,
			Active:       true,
		}
		if err := tx.Create(&admin).Error; err != nil {
			if isDuplicate(err) {
				return utils.ErrEmailAlreadyExists
			}
			return err
		}

		tables := make([]models.Table, 0, DefaultTableCount)
		for i := 1; i <= DefaultTableCount; i++ {
			tables = append(tables, models.Table{
				TenantID:     tenant.ID,
				Number:       TableNumber(i),
				Capacity:     DefaultTableCapacity,
				Status:       models.TableAvailable,
				RunningTotal: decimal.Zero,
			})
		}
		return tx.Create(&tables).Error
	})
	if err != nil {
		return 0, dbError(err, nil)
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"tenant_id": tenant.ID,
		"name":      tenant.Name,
	}).Info("Restaurant provisioned")
	return tenant.ID, nil
}

func (s *TenantService) ListTenants(ctx context.Context) ([]models.Tenant, error) {
	var tenants []models.Tenant
	if err := s.db.WithContext(ctx).Order("id asc").Find(&tenants).Error; err != nil {
		return nil, utils.StorageError(err)
	}
	return tenants, nil
}

func (s *TenantService) GetTenant(ctx context.Context, id uint) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := s.db.WithContext(ctx).First(&tenant, id).Error; err != nil {
		return nil, dbError(err, utils.ErrTenantNotFound)
	}
	return &tenant, nil
}

// UpdateTenant changes the mutable profile fields.
func (s *TenantService) UpdateTenant(ctx context.Context, id uint, in UpdateTenantInput) (*models.Tenant, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	tenant, err := s.GetTenant(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		tenant.Name = *in.Name
	}
	if in.Email != nil {
		tenant.Email = normalizeEmail(*in.Email)
	}
	if err := s.db.WithContext(ctx).Save(tenant).Error; err != nil {
		return nil, utils.StorageError(err)
	}
	return tenant, nil
}
