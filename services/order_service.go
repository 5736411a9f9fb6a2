package services

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/mesa-digital/restaurant-app/kds"
	"github.com/mesa-digital/restaurant-app/models"
	"github.com/mesa-digital/restaurant-app/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Publisher receives order and table events after they are committed.
type Publisher interface {
	Publish(tenantID uint, msg kds.Message, topics ...kds.Topic)
}

type noopPublisher struct{}

func (noopPublisher) Publish(uint, kds.Message, ...kds.Topic) {}

type OrderItemInput struct {
	ProductID uint `json:"product_id" validate:"required"`
	Quantity  int  `json:"quantity" validate:"gt=0,lte=1000"`
}

type CreateOrderInput struct {
	TableID      uint             `json:"table_id" validate:"required"`
	CustomerName string           `json:"customer_name" validate:"max=120"`
	Items        []OrderItemInput `json:"items" validate:"required,min=1,dive"`
	// Total is optional; when sent it must match the catalog prices.
	Total *decimal.Decimal `json:"total"`
	Note  string           `json:"note" validate:"max=1000"`
}

type CloseTableInput struct {
	PaymentMethod string `json:"payment_method" form:"payment_method" validate:"required,max=30"`
}

type OrderService struct {
	db  *gorm.DB
	pub Publisher
	now func() time.Time
}

func NewOrderService(db *gorm.DB, pub Publisher) *OrderService {
	if pub == nil {
		pub = noopPublisher{}
	}
	return &OrderService{db: db, pub: pub, now: time.Now}
}

// SetClock replaces the time source used for timestamps.
func (s *OrderService) SetClock(now func() time.Time) {
	s.now = now
}

// CreateOrder prices the items from the catalog, stores the order and adds its
// total to the table's running total in one transaction.
func (s *OrderService) CreateOrder(ctx context.Context, tenantID uint, in CreateOrderInput) (*models.Order, error) {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	var (
		order models.Order
		table *models.Table
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		table, err = findTenantTable(tx, tenantID, in.TableID)
		if err != nil {
			return err
		}

		items, total, err := priceItems(tx, tenantID, in.Items)
		if err != nil {
			return err
		}
		if !total.IsPositive() {
			return utils.InvalidField("total", "must be greater than 0")
		}
		if in.Total != nil && !in.Total.Round(2).Equal(total) {
			return utils.InvalidField("total", "does not match the sum of the items ("+total.StringFixed(2)+")")
		}

		order = models.Order{
			TableID:      table.ID,
			CustomerName: in.CustomerName,
			Status:       models.OrderPending,
			Total:        total,
			Note:         strings.TrimSpace(in.Note),
			Items:        items,
			CreatedAt:    s.now(),
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{
			"running_total": gorm.Expr("running_total + ?", total),
			"status":        models.TableOccupied,
		}
		if in.CustomerName != "" {
			updates["current_customer_name"] = in.CustomerName
		}
		return tx.Model(&models.Table{}).Where("id = ?", table.ID).Updates(updates).Error
	})
	if err != nil {
		return nil, dbError(err, nil)
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"tenant_id": tenantID,
		"table_id":  table.ID,
		"order_id":  order.ID,
		"total":     order.Total.StringFixed(2),
	}).Info("Order created")

	s.pub.Publish(tenantID, kds.NewOrderEvent(kds.EventOrderCreated, order, table.Number), kds.TopicKitchen, kds.TopicAdmin)
	return &order, nil
}

// priceItems resolves every product against the tenant's active catalog.
func priceItems(tx *gorm.DB, tenantID uint, in []OrderItemInput) ([]models.OrderItem, decimal.Decimal, error) {
	ids := make([]uint, 0, len(in))
	seen := make(map[uint]bool, len(in))
	for _, it := range in {
		if !seen[it.ProductID] {
			seen[it.ProductID] = true
			ids = append(ids, it.ProductID)
		}
	}

	var products []models.Product
	err := tx.Joins("JOIN categories ON categories.id = products.category_id").
		Where("products.id IN ? AND categories.tenant_id = ? AND products.active = ?", ids, tenantID, true).
		Find(&products).Error
	if err != nil {
		return nil, decimal.Zero, err
	}
	byID := make(map[uint]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	items := make([]models.OrderItem, 0, len(in))
	total := decimal.Zero
	fields := map[string]string{}
	for i, it := range in {
		p, ok := byID[it.ProductID]
		if !ok {
			fields[itemField(i)] = "unknown or inactive product"
			continue
		}
		item := models.OrderItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    it.Quantity,
			UnitPrice:   p.Price,
		}
		total = total.Add(item.Subtotal())
		items = append(items, item)
	}
	if len(fields) > 0 {
		return nil, decimal.Zero, utils.ValidationError(fields)
	}
	return items, total.Round(2), nil
}

func itemField(i int) string {
	return "items[" + strconv.Itoa(i) + "].product_id"
}

// UpdateStatus sets any of the four statuses; ready_at and delivered_at are
// stamped when the order enters those states. Orders settled by a close-out
// keep their status.
func (s *OrderService) UpdateStatus(ctx context.Context, tenantID, orderID uint, status string) (*models.OrderView, error) {
	next, err := models.ParseOrderStatus(strings.TrimSpace(status))
	if err != nil {
		return nil, utils.InvalidField("status", "must be one of: pending preparing ready delivered")
	}

	var view *models.OrderView
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		view, err = findTenantOrder(tx, tenantID, orderID)
		if err != nil {
			return err
		}
		if view.Status == next {
			return nil
		}
		if view.CashTransactionID != nil {
			return utils.InvalidField("status", "order was settled by a table close-out")
		}

		now := s.now()
		updates := map[string]interface{}{"status": next}
		switch next {
		case models.OrderReady:
			view.ReadyAt = &now
			updates["ready_at"] = now
		case models.OrderDelivered:
			view.DeliveredAt = &now
			updates["delivered_at"] = now
		}
		view.Status = next
		return tx.Model(&models.Order{}).Where("id = ?", view.ID).Updates(updates).Error
	})
	if err != nil {
		return nil, dbError(err, nil)
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"tenant_id": tenantID,
		"order_id":  view.ID,
		"status":    view.Status,
	}).Info("Order status updated")

	s.pub.Publish(tenantID, kds.NewOrderEvent(kds.EventOrderStatusChanged, view.Order, view.TableNumber), kds.TopicKitchen, kds.TopicAdmin)
	return view, nil
}

func findTenantOrder(tx *gorm.DB, tenantID, orderID uint) (*models.OrderView, error) {
	var order models.Order
	if err := tx.Preload("Items").Preload("Table").First(&order, orderID).Error; err != nil {
		return nil, dbError(err, utils.ErrOrderNotFound)
	}
	if order.Table == nil || order.Table.TenantID != tenantID {
		return nil, utils.ErrForbidden
	}
	return &models.OrderView{Order: order, TableNumber: order.Table.Number}, nil
}

func (s *OrderService) GetOrder(ctx context.Context, tenantID, orderID uint) (*models.OrderView, error) {
	return findTenantOrder(s.db.WithContext(ctx), tenantID, orderID)
}

// ListActiveOrders returns pending, preparing and ready orders, oldest first.
func (s *OrderService) ListActiveOrders(ctx context.Context, tenantID uint) ([]models.OrderView, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Preload("Table").
		Joins("JOIN tables ON tables.id = orders.table_id").
		Where("tables.tenant_id = ? AND orders.status IN ?", tenantID, models.ActiveOrderStatuses).
		Order("orders.created_at asc, orders.id asc").
		Find(&orders).Error
	if err != nil {
		return nil, utils.StorageError(err)
	}

	views := make([]models.OrderView, 0, len(orders))
	for _, o := range orders {
		number := ""
		if o.Table != nil {
			number = o.Table.Number
		}
		views = append(views, models.OrderView{Order: o, TableNumber: number})
	}
	return views, nil
}

// CloseTable settles the table: it records a cash transaction for the running
// total, delivers and settles its open orders and frees the table.
func (s *OrderService) CloseTable(ctx context.Context, tenantID, tableID uint, in CloseTableInput) (*models.CashTransaction, error) {
	in.PaymentMethod = strings.TrimSpace(in.PaymentMethod)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	var (
		cash  models.CashTransaction
		table *models.Table
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		table, err = findTenantTable(forUpdate(tx), tenantID, tableID)
		if err != nil {
			return err
		}

		now := s.now()
		cash = models.CashTransaction{
			TenantID:      tenantID,
			TableID:       table.ID,
			TotalAmount:   table.RunningTotal,
			PaymentMethod: in.PaymentMethod,
			ClosedAt:      now,
		}
		if err := tx.Create(&cash).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Order{}).
			Where("table_id = ? AND status <> ?", table.ID, models.OrderDelivered).
			Updates(map[string]interface{}{"status": models.OrderDelivered, "delivered_at": now}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Order{}).
			Where("table_id = ? AND cash_transaction_id IS NULL", table.ID).
			Update("cash_transaction_id", cash.ID).Error; err != nil {
			return err
		}

		return tx.Model(&models.Table{}).Where("id = ?", table.ID).Updates(map[string]interface{}{
			"status":                models.TableAvailable,
			"current_customer_name": nil,
			"running_total":         decimal.Zero,
		}).Error
	})
	if err != nil {
		return nil, dbError(err, nil)
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"tenant_id":      tenantID,
		"table_id":       table.ID,
		"total":          cash.TotalAmount.StringFixed(2),
		"payment_method": cash.PaymentMethod,
	}).Info("Table closed")

	s.pub.Publish(tenantID, kds.Message{
		Event: kds.EventTableClosed,
		Data: kds.TableClosedEvent{
			TableID:           table.ID,
			TableNumber:       table.Number,
			CashTransactionID: cash.ID,
			TotalAmount:       cash.TotalAmount,
			TotalLabel:        utils.FormatCurrencyBRL(cash.TotalAmount),
			PaymentMethod:     cash.PaymentMethod,
			ClosedAt:          cash.ClosedAt,
		},
	}, kds.TopicKitchen, kds.TopicAdmin)
	return &cash, nil
}

// ListCashTransactions returns the tenant's close-outs, newest first.
func (s *OrderService) ListCashTransactions(ctx context.Context, tenantID uint) ([]models.CashTransaction, error) {
	var txs []models.CashTransaction
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("closed_at desc, id desc").
		Find(&txs).Error
	if err != nil {
		return nil, utils.StorageError(err)
	}
	return txs, nil
}
