package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	TableAvailable = "available"
	TableOccupied  = "occupied"
)

type Table struct {
	ID                  uint            `gorm:"primaryKey" json:"id"`
	TenantID            uint            `gorm:"not null;uniqueIndex:idx_tenant_table_number" json:"tenant_id"`
	Tenant              *Tenant         `gorm:"foreignKey:TenantID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Number              string          `gorm:"type:varchar(10);not null;uniqueIndex:idx_tenant_table_number" json:"number"`
	Capacity            int             `gorm:"not null;default:4" json:"capacity"`
	Status              string          `gorm:"type:varchar(20);not null;default:'available'" json:"status"`
	CurrentCustomerName *string         `gorm:"type:varchar(120)" json:"current_customer_name"`
	RunningTotal        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"running_total"`
	CreatedAt           time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt           time.Time       `gorm:"not null" json:"updated_at"`
}

// AfterFind keeps money at cents precision whatever the driver hands back.
func (t *Table) AfterFind(tx *gorm.DB) error {
	t.RunningTotal = t.RunningTotal.Round(2)
	return nil
}
