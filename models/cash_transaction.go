package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CashTransaction is the append-only record of one table close-out.
type CashTransaction struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	TenantID      uint            `gorm:"not null;index" json:"tenant_id"`
	TableID       uint            `gorm:"not null;index" json:"table_id"`
	Table         *Table          `gorm:"foreignKey:TableID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	PaymentMethod string          `gorm:"type:varchar(30);not null" json:"payment_method"`
	ClosedAt      time.Time       `gorm:"not null;index" json:"closed_at"`
}

func (c *CashTransaction) AfterFind(tx *gorm.DB) error {
	c.TotalAmount = c.TotalAmount.Round(2)
	return nil
}
