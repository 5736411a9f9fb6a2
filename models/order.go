package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPreparing OrderStatus = "preparing"
	OrderReady     OrderStatus = "ready"
	OrderDelivered OrderStatus = "delivered"
)

// ActiveOrderStatuses are the statuses shown on the kitchen display.
var ActiveOrderStatuses = []OrderStatus{OrderPending, OrderPreparing, OrderReady}

func ParseOrderStatus(s string) (OrderStatus, error) {
	switch st := OrderStatus(s); st {
	case OrderPending, OrderPreparing, OrderReady, OrderDelivered:
		return st, nil
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

type Order struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	TableID           uint            `gorm:"not null;index" json:"table_id"`
	Table             *Table          `gorm:"foreignKey:TableID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	CustomerName      string          `gorm:"type:varchar(120)" json:"customer_name"`
	Status            OrderStatus     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Total             decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	Note              string          `gorm:"type:text" json:"note"`
	ReadyAt           *time.Time      `json:"ready_at"`
	DeliveredAt       *time.Time      `json:"delivered_at"`
	CashTransactionID *uint           `gorm:"index" json:"cash_transaction_id"`
	Items             []OrderItem     `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt         time.Time       `gorm:"not null;index" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"not null" json:"updated_at"`
}

func (o *Order) AfterFind(tx *gorm.DB) error {
	o.Total = o.Total.Round(2)
	return nil
}

// OrderView is an order joined with the number of its table.
type OrderView struct {
	Order
	TableNumber string `json:"table_number"`
}
