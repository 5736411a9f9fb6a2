package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mesa-digital/restaurant-app/kds"
	"github.com/mesa-digital/restaurant-app/models"
	"github.com/mesa-digital/restaurant-app/services"
	"github.com/mesa-digital/restaurant-app/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPizzaHouseScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pizza := f.product(t, f.tenantID, "Margherita", "39.90")
	soda := f.product(t, f.tenantID, "Soda", "3.00")
	table := f.table(t, f.tenantID, "01")

	total := money("45.90")
	order, err := f.orders.CreateOrder(ctx, f.tenantID, services.CreateOrderInput{
		TableID:      table.ID,
		CustomerName: "Maria",
		Items: []services.OrderItemInput{
			{ProductID: pizza.ID, Quantity: 1},
			{ProductID: soda.ID, Quantity: 2},
		},
		Total: &total,
		Note:  "no onions",
	})
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.True(t, money("45.90").Equal(order.Total))
	require.Len(t, order.Items, 2)

	table = f.table(t, f.tenantID, "01")
	assert.True(t, money("45.90").Equal(table.RunningTotal), "running total %s", table.RunningTotal)
	assert.Equal(t, models.TableOccupied, table.Status)
	require.NotNil(t, table.CurrentCustomerName)
	assert.Equal(t, "Maria", *table.CurrentCustomerName)

	ready, err := f.orders.UpdateStatus(ctx, f.tenantID, order.ID, "ready")
	require.NoError(t, err)
	assert.Equal(t, models.OrderReady, ready.Status)
	assert.NotNil(t, ready.ReadyAt)
	assert.Equal(t, "01", ready.TableNumber)

	delivered, err := f.orders.UpdateStatus(ctx, f.tenantID, order.ID, "delivered")
	require.NoError(t, err)
	assert.NotNil(t, delivered.DeliveredAt)

	cash, err := f.orders.CloseTable(ctx, f.tenantID, table.ID, services.CloseTableInput{PaymentMethod: "cash"})
	require.NoError(t, err)
	assert.True(t, money("45.90").Equal(cash.TotalAmount))
	assert.Equal(t, "cash", cash.PaymentMethod)

	table = f.table(t, f.tenantID, "01")
	assert.Equal(t, models.TableAvailable, table.Status)
	assert.True(t, table.RunningTotal.IsZero())
	assert.Nil(t, table.CurrentCustomerName)

	var count int64
	f.db.Model(&models.CashTransaction{}).Where("table_id = ?", table.ID).Count(&count)
	assert.EqualValues(t, 1, count)

	assert.Equal(t, []string{
		kds.EventOrderCreated,
		kds.EventOrderStatusChanged,
		kds.EventOrderStatusChanged,
		kds.EventTableClosed,
	}, f.events.events())
}

func TestCloseTableSettlesEveryOpenOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	burger := f.product(t, f.tenantID, "Burger", "12.50")
	table := f.table(t, f.tenantID, "03")

	for _, qty := range []int{1, 3} {
		_, err := f.orders.CreateOrder(ctx, f.tenantID, services.CreateOrderInput{
			TableID: table.ID,
			Items:   []services.OrderItemInput{{ProductID: burger.ID, Quantity: qty}},
		})
		require.NoError(t, err)
	}

	cash, err := f.orders.CloseTable(ctx, f.tenantID, table.ID, services.CloseTableInput{PaymentMethod: "card"})
	require.NoError(t, err)
	assert.True(t, money("50.00").Equal(cash.TotalAmount))

	var orders []models.Order
	require.NoError(t, f.db.Where("table_id = ?", table.ID).Find(&orders).Error)
	require.Len(t, orders, 2)
	for _, o := range orders {
		assert.Equal(t, models.OrderDelivered, o.Status)
		assert.NotNil(t, o.DeliveredAt)
		require.NotNil(t, o.CashTransactionID)
		assert.Equal(t, cash.ID, *o.CashTransactionID)
	}

	active, err := f.orders.ListActiveOrders(ctx, f.tenantID)
	require.NoError(t, err)
	assert.Empty(t, active)

	detail, err := f.tables.TableDetail(ctx, f.tenantID, table.ID)
	require.NoError(t, err)
	assert.Empty(t, detail.Orders)
}

func TestCloseTableRollsBackOnFailedStep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	burger := f.product(t, f.tenantID, "Burger", "12.50")
	table := f.table(t, f.tenantID, "04")
	order, err := f.orders.CreateOrder(ctx, f.tenantID, services.CreateOrderInput{
		TableID:      table.ID,
		CustomerName: "Ana",
		Items:        []services.OrderItemInput{{ProductID: burger.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	// the cash transaction and the delivery update run before the settlement stamp fails
	failUpdates(t, f.db, "orders", "cash_transaction_id")

	_, err = f.orders.CloseTable(ctx, f.tenantID, table.ID, services.CloseTableInput{PaymentMethod: "cash"})
	require.ErrorIs(t, err, errDiskFull)
	assert.Equal(t, utils.KindStorage, utils.KindOf(err))

	var cashCount int64
	f.db.Model(&models.CashTransaction{}).Count(&cashCount)
	assert.Zero(t, cashCount)

	stored, err := f.orders.GetOrder(ctx, f.tenantID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, stored.Status)
	assert.Nil(t, stored.DeliveredAt)
	assert.Nil(t, stored.CashTransactionID)

	table = f.table(t, f.tenantID, "04")
	assert.True(t, money("25.00").Equal(table.RunningTotal))
	assert.Equal(t, models.TableOccupied, table.Status)
	require.NotNil(t, table.CurrentCustomerName)

	assert.Equal(t, []string{kds.EventOrderCreated}, f.events.events())
}

func TestCloseTableWithoutOrdersRecordsZero(t *testing.T) {
	f := newFixture(t)
	table := f.table(t, f.tenantID, "05")

	cash, err := f.orders.CloseTable(context.Background(), f.tenantID, table.ID, services.CloseTableInput{PaymentMethod: "pix"})
	require.NoError(t, err)
	assert.True(t, cash.TotalAmount.IsZero())
}

func TestCloseTableRequiresPaymentMethod(t *testing.T) {
	f := newFixture(t)
	table := f.table(t, f.tenantID, "05")

	_, err := f.orders.CloseTable(context.Background(), f.tenantID, table.ID, services.CloseTableInput{})
	assert.Equal(t, utils.KindValidation, utils.KindOf(err))
}

func TestCreateOrderWithoutItemsFails(t *testing.T) {
	f := newFixture(t)
	table := f.table(t, f.tenantID, "01")

	_, err := f.orders.CreateOrder(context.Background(), f.tenantID, services.CreateOrderInput{
		TableID: table.ID,
		Items:   []services.OrderItemInput{},
	})
	require.Error(t, err)

	var appErr *utils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, utils.KindValidation, appErr.Kind)
	assert.Contains(t, appErr.Fields, "items")
}

func TestCreateOrderUnknownTableWritesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	soda := f.product(t, f.tenantID, "Soda", "3.00")
	before := f.table(t, f.tenantID, "01")

	_, err := f.orders.CreateOrder(ctx, f.tenantID, services.CreateOrderInput{
		TableID: 424242,
		Items:   []services.OrderItemInput{{ProductID: soda.ID, Quantity: 1}},
	})
	require.ErrorIs(t, err, utils.ErrTableNotFound)
	assert.Equal(t, utils.KindNotFound, utils.KindOf(err))

	after := f.table(t, f.tenantID, "01")
	assert.Equal(t, before.RunningTotal.String(), after.RunningTotal.String())
	assert.Equal(t, before.Status, after.Status)

	var orders int64
	f.db.Model(&models.Order{}).Count(&orders)
	assert.Zero(t, orders)
	assert.Empty(t, f.events.events())
}

func TestCreateOrderTotalMismatch(t *testing.T) {
	f := newFixture(t)
	soda := f.product(t, f.tenantID, "Soda", "3.00")
	table := f.table(t, f.tenantID, "01")

	wrong := money("1.00")
	_, err := f.orders.CreateOrder(context.Background(), f.tenantID, services.CreateOrderInput{
		TableID: table.ID,
		Items:   []services.OrderItemInput{{ProductID: soda.ID, Quantity: 2}},
		Total:   &wrong,
	})
	assert.Equal(t, utils.KindValidation, utils.KindOf(err))
	assert.True(t, f.table(t, f.tenantID, "01").RunningTotal.IsZero())
}

func TestCreateOrderRejectsInactiveProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	soda := f.product(t, f.tenantID, "Soda", "3.00")
	require.NoError(t, f.catalog.DeactivateProduct(ctx, f.tenantID, soda.ID))

	_, err := f.orders.CreateOrder(ctx, f.tenantID, services.CreateOrderInput{
		TableID: f.table(t, f.tenantID, "01").ID,
		Items:   []services.OrderItemInput{{ProductID: soda.ID, Quantity: 1}},
	})
	var appErr *utils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Fields, "items[0].product_id")
}

func TestConcurrentOrdersOnSameTable(t *testing.T) {
	f := newFixture(t)
	ten := f.product(t, f.tenantID, "Ten", "10.00")
	twenty := f.product(t, f.tenantID, "Twenty", "20.00")
	table := f.table(t, f.tenantID, "02")

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, p := range []*models.Product{ten, twenty} {
		wg.Add(1)
		go func(productID uint) {
			defer wg.Done()
			_, err := f.orders.CreateOrder(context.Background(), f.tenantID, services.CreateOrderInput{
				TableID: table.ID,
				Items:   []services.OrderItemInput{{ProductID: productID, Quantity: 1}},
			})
			errs <- err
		}(p.ID)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	table = f.table(t, f.tenantID, "02")
	assert.True(t, money("30.00").Equal(table.RunningTotal), "running total %s", table.RunningTotal)
}

func TestListActiveOrdersIsFIFOAndIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	soda := f.product(t, f.tenantID, "Soda", "3.00")

	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	f.orders.SetClock(func() time.Time { return clock })

	var ids []uint
	for _, number := range []string{"04", "01", "07"} {
		clock = clock.Add(time.Minute)
		o, err := f.orders.CreateOrder(ctx, f.tenantID, services.CreateOrderInput{
			TableID: f.table(t, f.tenantID, number).ID,
			Items:   []services.OrderItemInput{{ProductID: soda.ID, Quantity: 1}},
		})
		require.NoError(t, err)
		ids = append(ids, o.ID)
	}
	_, err := f.orders.UpdateStatus(ctx, f.tenantID, ids[1], string(models.OrderDelivered))
	require.NoError(t, err)

	first, err := f.orders.ListActiveOrders(ctx, f.tenantID)
	require.NoError(t, err)
	second, err := f.orders.ListActiveOrders(ctx, f.tenantID)
	require.NoError(t, err)

	require.Len(t, first, 2)
	assert.Equal(t, ids[0], first[0].ID)
	assert.Equal(t, "04", first[0].TableNumber)
	assert.Equal(t, ids[2], first[1].ID)
	assert.Equal(t, "07", first[1].TableNumber)
	assert.Equal(t, first, second)
}

func TestUpdateStatusIsPermissive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	soda := f.product(t, f.tenantID, "Soda", "3.00")
	order, err := f.orders.CreateOrder(ctx, f.tenantID, services.CreateOrderInput{
		TableID: f.table(t, f.tenantID, "01").ID,
		Items:   []services.OrderItemInput{{ProductID: soda.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	for _, status := range []string{"delivered", "pending", "preparing"} {
		view, err := f.orders.UpdateStatus(ctx, f.tenantID, order.ID, status)
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatus(status), view.Status)
	}

	_, err = f.orders.UpdateStatus(ctx, f.tenantID, order.ID, "cooking")
	assert.Equal(t, utils.KindValidation, utils.KindOf(err))

	_, err = f.orders.UpdateStatus(ctx, f.tenantID, 9999, "ready")
	assert.ErrorIs(t, err, utils.ErrOrderNotFound)
}

func TestUpdateStatusKeepsSettledOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	soda := f.product(t, f.tenantID, "Soda", "3.00")
	table := f.table(t, f.tenantID, "06")
	order, err := f.orders.CreateOrder(ctx, f.tenantID, services.CreateOrderInput{
		TableID: table.ID,
		Items:   []services.OrderItemInput{{ProductID: soda.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	_, err = f.orders.CloseTable(ctx, f.tenantID, table.ID, services.CloseTableInput{PaymentMethod: "pix"})
	require.NoError(t, err)

	_, err = f.orders.UpdateStatus(ctx, f.tenantID, order.ID, "pending")
	var appErr *utils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, utils.KindValidation, appErr.Kind)
	assert.Contains(t, appErr.Fields, "status")

	view, err := f.orders.UpdateStatus(ctx, f.tenantID, order.ID, "delivered")
	require.NoError(t, err)
	assert.Equal(t, models.OrderDelivered, view.Status)

	active, err := f.orders.ListActiveOrders(ctx, f.tenantID)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestOrdersAreTenantIsolated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	otherTenant := f.createTenant(t, "Sushi Bar", "s@b.com")

	soda := f.product(t, f.tenantID, "Soda", "3.00")
	order, err := f.orders.CreateOrder(ctx, f.tenantID, services.CreateOrderInput{
		TableID: f.table(t, f.tenantID, "01").ID,
		Items:   []services.OrderItemInput{{ProductID: soda.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = f.orders.GetOrder(ctx, otherTenant, order.ID)
	assert.ErrorIs(t, err, utils.ErrForbidden)

	_, err = f.orders.UpdateStatus(ctx, otherTenant, order.ID, "ready")
	assert.ErrorIs(t, err, utils.ErrForbidden)

	foreignTable := f.table(t, otherTenant, "01")
	_, err = f.orders.CreateOrder(ctx, f.tenantID, services.CreateOrderInput{
		TableID: foreignTable.ID,
		Items:   []services.OrderItemInput{{ProductID: soda.ID, Quantity: 1}},
	})
	assert.ErrorIs(t, err, utils.ErrForbidden)

	_, err = f.orders.CloseTable(ctx, f.tenantID, foreignTable.ID, services.CloseTableInput{PaymentMethod: "cash"})
	assert.ErrorIs(t, err, utils.ErrForbidden)

	// a product of another tenant cannot be ordered
	_, err = f.orders.CreateOrder(ctx, otherTenant, services.CreateOrderInput{
		TableID: foreignTable.ID,
		Items:   []services.OrderItemInput{{ProductID: soda.ID, Quantity: 1}},
	})
	assert.Equal(t, utils.KindValidation, utils.KindOf(err))

	active, err := f.orders.ListActiveOrders(ctx, otherTenant)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestListCashTransactionsNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	clock := time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)
	f.orders.SetClock(func() time.Time { return clock })

	for _, number := range []string{"01", "02"} {
		clock = clock.Add(time.Hour)
		_, err := f.orders.CloseTable(ctx, f.tenantID, f.table(t, f.tenantID, number).ID, services.CloseTableInput{PaymentMethod: "cash"})
		require.NoError(t, err)
	}

	txs, err := f.orders.ListCashTransactions(ctx, f.tenantID)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, f.table(t, f.tenantID, "02").ID, txs[0].TableID)
}
