package services

import (
	"context"
	"strings"

	"github.com/mesa-digital/restaurant-app/models"
	"github.com/mesa-digital/restaurant-app/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreateTableInput struct {
	Number   string `json:"number" validate:"required,max=10"`
	Capacity int    `json:"capacity" validate:"gte=0,lte=100"`
}

type UpdateTableInput struct {
	Capacity *int `json:"capacity" validate:"omitempty,gt=0,lte=100"`
}

// TableDetail is a table with the orders placed since its last close-out.
type TableDetail struct {
	models.Table
	Orders []models.Order `json:"orders"`
}

type TableService struct {
	db *gorm.DB
}

func NewTableService(db *gorm.DB) *TableService {
	return &TableService{db: db}
}

// findTenantTable loads a table and checks it belongs to tenantID.
func findTenantTable(tx *gorm.DB, tenantID, tableID uint) (*models.Table, error) {
	var table models.Table
	if err := tx.First(&table, tableID).Error; err != nil {
		return nil, dbError(err, utils.ErrTableNotFound)
	}
	if table.TenantID != tenantID {
		return nil, utils.ErrForbidden
	}
	return &table, nil
}

func (s *TableService) ListTables(ctx context.Context, tenantID uint) ([]models.Table, error) {
	var tables []models.Table
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("number asc").
		Find(&tables).Error
	if err != nil {
		return nil, utils.StorageError(err)
	}
	return tables, nil
}

func (s *TableService) GetTable(ctx context.Context, tenantID, tableID uint) (*models.Table, error) {
	return findTenantTable(s.db.WithContext(ctx), tenantID, tableID)
}

// TableDetail returns the table and its unsettled orders, oldest first.
func (s *TableService) TableDetail(ctx context.Context, tenantID, tableID uint) (*TableDetail, error) {
	db := s.db.WithContext(ctx)
	table, err := findTenantTable(db, tenantID, tableID)
	if err != nil {
		return nil, err
	}

	var orders []models.Order
	err = db.Preload("Items").
		Where("table_id = ? AND cash_transaction_id IS NULL", table.ID).
		Order("created_at asc, id asc").
		Find(&orders).Error
	if err != nil {
		return nil, utils.StorageError(err)
	}
	return &TableDetail{Table: *table, Orders: orders}, nil
}

// FindByNumber resolves a table by its human number within a tenant.
func (s *TableService) FindByNumber(ctx context.Context, tenantID uint, number string) (*models.Table, error) {
	var table models.Table
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND number = ?", tenantID, strings.TrimSpace(number)).
		First(&table).Error
	if err != nil {
		return nil, dbError(err, utils.ErrTableNotFound)
	}
	return &table, nil
}

func (s *TableService) CreateTable(ctx context.Context, tenantID uint, in CreateTableInput) (*models.Table, error) {
	in.Number = strings.TrimSpace(in.Number)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if in.Capacity == 0 {
		in.Capacity = DefaultTableCapacity
	}

	table := models.Table{
		TenantID:     tenantID,
		Number:       in.Number,
		Capacity:     in.Capacity,
		Status:       models.TableAvailable,
		RunningTotal: decimal.Zero,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Table{}).
			Where("tenant_id = ? AND number = ?", tenantID, in.Number).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return utils.ErrTableNumberExists
		}
		if err := tx.Create(&table).Error; err != nil {
			if isDuplicate(err) {
				return utils.ErrTableNumberExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, dbError(err, nil)
	}
	return &table, nil
}

func (s *TableService) UpdateTable(ctx context.Context, tenantID, tableID uint, in UpdateTableInput) (*models.Table, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	table, err := findTenantTable(db, tenantID, tableID)
	if err != nil {
		return nil, err
	}

	if in.Capacity != nil {
		table.Capacity = *in.Capacity
		if err := db.Model(table).Update("capacity", table.Capacity).Error; err != nil {
			return nil, utils.StorageError(err)
		}
	}
	return table, nil
}
