package kds

import (
	"time"

	"github.com/mesa-digital/restaurant-app/models"
	"github.com/shopspring/decimal"
)

// OrderEvent is the payload of order_created and order_status_changed.
type OrderEvent struct {
	OrderID      uint               `json:"order_id"`
	TableID      uint               `json:"table_id"`
	TableNumber  string             `json:"table_number"`
	CustomerName string             `json:"customer_name,omitempty"`
	Status       models.OrderStatus `json:"status"`
	Total        decimal.Decimal    `json:"total"`
	Items        []models.OrderItem `json:"items,omitempty"`
}

type TableClosedEvent struct {
	TableID           uint            `json:"table_id"`
	TableNumber       string          `json:"table_number"`
	CashTransactionID uint            `json:"cash_transaction_id"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	TotalLabel        string          `json:"total_label"`
	PaymentMethod     string          `json:"payment_method"`
	ClosedAt          time.Time       `json:"closed_at"`
}

func NewOrderEvent(event string, order models.Order, tableNumber string) Message {
	return Message{
		Event: event,
		Data: OrderEvent{
			OrderID:      order.ID,
			TableID:      order.TableID,
			TableNumber:  tableNumber,
			CustomerName: order.CustomerName,
			Status:       order.Status,
			Total:        order.Total,
			Items:        order.Items,
		},
	}
}
