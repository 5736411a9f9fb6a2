package database_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mesa-digital/restaurant-app/database"
	"github.com/mesa-digital/restaurant-app/models"
	"github.com/mesa-digital/restaurant-app/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

const sampleDocument = `{
  "tenants": [{"id": 10, "name": "Cantina", "email": "c@c.com"}],
  "users": [
    {"id": 1, "tenant_id": null, "name": "Root", "email": "root@c.com", "password_hash": "$2a$04$x", "role": "super_admin"},
    {"id": 2, "tenant_id": 10, "name": "Dona", "email": "dona@c.com", "password_hash": "$2a$04$y", "role": "admin"},
    {"id": 3, "tenant_id": 10, "name": "Ex", "email": "ex@c.com", "password_hash": "$2a$04$z", "role": "operator", "active": false}
  ],
  "tables": [
    {"id": 5, "tenant_id": 10, "number": "01", "capacity": 4, "status": "occupied", "current_customer_name": "Joao", "running_total": "15.50"},
    {"id": 6, "tenant_id": 10, "number": "02", "capacity": 2, "status": "available", "current_customer_name": null, "running_total": "0"}
  ],
  "categories": [{"id": 7, "tenant_id": 10, "name": "Pratos", "description": "", "display_order": 1}],
  "products": [{"id": 8, "category_id": 7, "name": "Pastel", "description": "", "price": "7.75", "type": "food", "featured": false, "prep_time_minutes": 10}],
  "cash_transactions": [{"id": 30, "table_id": 6, "total_amount": "7.75", "payment_method": "cash", "closed_at": "2024-04-30T22:00:00Z"}],
  "orders": [
    {"id": 40, "table_id": 5, "customer_name": "Joao", "items": [{"product_id": 8, "product_name": "Pastel", "quantity": 2, "unit_price": "7.75"}],
     "status": "preparing", "total": "15.50", "note": "", "created_at": "2024-05-01T12:00:00Z", "ready_at": null, "delivered_at": null, "cash_transaction_id": null},
    {"id": 41, "table_id": 6, "customer_name": "", "items": [{"product_id": 8, "product_name": "Pastel", "quantity": 1, "unit_price": "7.75"}],
     "status": "delivered", "total": "7.75", "note": "", "created_at": "2024-04-30T21:00:00Z", "ready_at": null, "delivered_at": "2024-04-30T21:30:00Z", "cash_transaction_id": 30}
  ]
}`

func TestImportAndExport(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	doc, err := database.ReadDocument(strings.NewReader(sampleDocument))
	require.NoError(t, err)

	res, err := database.Import(ctx, db, doc)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Users)
	assert.Equal(t, 2, res.Orders)

	var table models.Table
	require.NoError(t, db.Where("number = ?", "01").First(&table).Error)
	assert.Equal(t, "15.50", table.RunningTotal.StringFixed(2))

	var ex models.User
	require.NoError(t, db.Where("email = ?", "ex@c.com").First(&ex).Error)
	assert.False(t, ex.Active)

	var settled models.Order
	require.NoError(t, db.Where("status = ?", models.OrderDelivered).First(&settled).Error)
	require.NotNil(t, settled.CashTransactionID)

	out, err := database.Export(ctx, db)
	require.NoError(t, err)
	assert.Len(t, out.Tenants, 1)
	assert.Len(t, out.Users, 3)
	require.Len(t, out.Orders, 2)
	assert.Len(t, out.Orders[0].Items, 1)
	assert.True(t, decimal.RequireFromString("15.50").Equal(out.Orders[0].Total))
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), out.Orders[0].CreatedAt.UTC())

	var buf bytes.Buffer
	require.NoError(t, database.WriteDocument(&buf, out))
	again, err := database.ReadDocument(&buf)
	require.NoError(t, err)
	assert.NoError(t, again.Validate())
}

func TestImportRejectsMalformedDocument(t *testing.T) {
	db := setupTestDB(t)

	doc := &database.Document{
		Tenants: []database.DocTenant{{ID: 1, Name: "A"}},
		Users: []database.DocUser{
			{ID: 1, TenantID: nil, Email: "x@a.com", PasswordHash: "h", Role: "chef"},
			{ID: 2, Email: "x@a.com", PasswordHash: "h", Role: "admin"},
		},
		Tables: []database.DocTable{
			{ID: 1, TenantID: 1, Number: "01"},
			{ID: 2, TenantID: 1, Number: "01"},
		},
		Orders: []database.DocOrder{{ID: 1, TableID: 99, Status: "lost", Total: decimal.Zero}},
	}

	_, err := database.Import(context.Background(), db, doc)
	var appErr *utils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, utils.KindValidation, appErr.Kind)
	for _, field := range []string{
		"users[0].role",
		"users[1].email",
		"users[1].tenant_id",
		"tables[1].number",
		"orders[0].table_id",
		"orders[0].status",
		"orders[0].total",
		"orders[0].items",
	} {
		assert.Contains(t, appErr.Fields, field)
	}

	var tenants int64
	db.Model(&models.Tenant{}).Count(&tenants)
	assert.Zero(t, tenants)
}

func TestImportRejectsInconsistentTotals(t *testing.T) {
	db := setupTestDB(t)

	doc, err := database.ReadDocument(strings.NewReader(sampleDocument))
	require.NoError(t, err)
	doc.Orders[0].Total = decimal.RequireFromString("1.00")
	doc.Tables[1].RunningTotal = decimal.RequireFromString("999.00")
	doc.CashTransactions[0].TableID = 5

	_, err = database.Import(context.Background(), db, doc)
	var appErr *utils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, utils.KindValidation, appErr.Kind)
	assert.Contains(t, appErr.Fields, "orders[0].total")
	assert.Contains(t, appErr.Fields, "tables[1].running_total")
	assert.Contains(t, appErr.Fields, "orders[1].cash_transaction_id")

	var orders int64
	db.Model(&models.Order{}).Count(&orders)
	assert.Zero(t, orders)
}

func TestValidateRunningTotalMatchesUnsettledOrders(t *testing.T) {
	doc, err := database.ReadDocument(strings.NewReader(sampleDocument))
	require.NoError(t, err)
	require.NoError(t, doc.Validate())

	// settling the open order without resetting the table leaves a balance no order backs
	id := doc.CashTransactions[0].ID
	doc.CashTransactions[0].TableID = 5
	doc.Orders[0].CashTransactionID = &id
	doc.Orders[1].CashTransactionID = nil

	err = doc.Validate()
	var appErr *utils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Fields, "tables[0].running_total")
	assert.Contains(t, appErr.Fields, "tables[1].running_total")
}

func TestImportRollsBackOnExistingEmail(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := database.EnsureSuperAdmin(ctx, db, "Root", "root@c.com", "secret", 4)
	require.NoError(t, err)

	doc, err := database.ReadDocument(strings.NewReader(sampleDocument))
	require.NoError(t, err)
	_, err = database.Import(ctx, db, doc)
	assert.Equal(t, utils.KindValidation, utils.KindOf(err))

	var tenants int64
	db.Model(&models.Tenant{}).Count(&tenants)
	assert.Zero(t, tenants)
}

func TestReadDocumentRejectsUnknownFields(t *testing.T) {
	_, err := database.ReadDocument(strings.NewReader(`{"tenants": [], "mystery": 1}`))
	assert.Equal(t, utils.KindValidation, utils.KindOf(err))
}

func TestEnsureSuperAdminIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	created, err := database.EnsureSuperAdmin(ctx, db, "Root", "root@c.com", "secret", 4)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = database.EnsureSuperAdmin(ctx, db, "Root", "root@c.com", "secret", 4)
	require.NoError(t, err)
	assert.False(t, created)

	var user models.User
	require.NoError(t, db.Where("email = ?", "root@c.com").First(&user).Error)
	assert.Equal(t, models.RoleSuperAdmin, user.Role)
	assert.Nil(t, user.TenantID)
}
