package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/mesa-digital/restaurant-app/database"
	"github.com/mesa-digital/restaurant-app/kds"
	"github.com/mesa-digital/restaurant-app/models"
	"github.com/mesa-digital/restaurant-app/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
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

// recorder is a Publisher that keeps every message.
type recorder struct {
	mu   sync.Mutex
	msgs []kds.Message
}

func (r *recorder) Publish(_ uint, msg kds.Message, _ ...kds.Topic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *recorder) events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.msgs))
	for _, m := range r.msgs {
		out = append(out, m.Event)
	}
	return out
}

type fixture struct {
	db       *gorm.DB
	tenants  *services.TenantService
	tables   *services.TableService
	orders   *services.OrderService
	catalog  *services.CatalogService
	users    *services.UserService
	events   *recorder
	tenantID uint
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := setupTestDB(t)
	events := &recorder{}
	f := &fixture{
		db:      db,
		tenants: services.NewTenantService(db, bcrypt.MinCost),
		tables:  services.NewTableService(db),
		orders:  services.NewOrderService(db, events),
		catalog: services.NewCatalogService(db),
		users:   services.NewUserService(db, bcrypt.MinCost),
		events:  events,
	}
	f.tenantID = f.createTenant(t, "Pizza House", "a@p.com")
	return f
}

func (f *fixture) createTenant(t *testing.T, name, adminEmail string) uint {
	t.Helper()
	id, err := f.tenants.CreateTenant(context.Background(), services.CreateTenantInput{
		Name:          name,
		Email:         "contact@example.com",
		AdminName:     "Admin",
		AdminEmail:    adminEmail,
		AdminPassword: "pw123",
	})
	require.NoError(t, err)
	return id
}

func (f *fixture) table(t *testing.T, tenantID uint, number string) *models.Table {
	t.Helper()
	table, err := f.tables.FindByNumber(context.Background(), tenantID, number)
	require.NoError(t, err)
	return table
}

func (f *fixture) product(t *testing.T, tenantID uint, name, price string) *models.Product {
	t.Helper()
	ctx := context.Background()
	category, err := f.catalog.CreateCategory(ctx, tenantID, services.CreateCategoryInput{Name: "Main " + name})
	require.NoError(t, err)

	product, err := f.catalog.CreateProduct(ctx, tenantID, services.CreateProductInput{
		CategoryID: category.ID,
		Name:       name,
		Price:      decimal.RequireFromString(price),
		Type:       models.ProductFood,
	})
	require.NoError(t, err)
	return product
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var errDiskFull = errors.New("disk full")

// failCreates makes every insert into table fail.
func failCreates(t *testing.T, db *gorm.DB, table string) {
	t.Helper()
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:fail_create", func(tx *gorm.DB) {
		if tx.Statement.Table == table {
			tx.AddError(errDiskFull)
		}
	}))
}

// failUpdates makes updates of table that set column fail.
func failUpdates(t *testing.T, db *gorm.DB, table, column string) {
	t.Helper()
	require.NoError(t, db.Callback().Update().Before("gorm:update").Register("test:fail_update", func(tx *gorm.DB) {
		if tx.Statement.Table != table {
			return
		}
		if values, ok := tx.Statement.Dest.(map[string]interface{}); ok {
			if _, ok := values[column]; ok {
				tx.AddError(errDiskFull)
			}
		}
	}))
}
