package services_test

import (
	"context"
	"testing"

	"github.com/mesa-digital/restaurant-app/models"
	"github.com/mesa-digital/restaurant-app/services"
	"github.com/mesa-digital/restaurant-app/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTenantProvisionsTwelveTables(t *testing.T) {
	f := newFixture(t)

	tables, err := f.tables.ListTables(context.Background(), f.tenantID)
	require.NoError(t, err)
	require.Len(t, tables, services.DefaultTableCount)

	seen := map[string]bool{}
	for i, table := range tables {
		assert.Equal(t, services.TableNumber(i+1), table.Number)
		assert.Equal(t, models.TableAvailable, table.Status)
		assert.Equal(t, services.DefaultTableCapacity, table.Capacity)
		assert.True(t, table.RunningTotal.IsZero())
		assert.Nil(t, table.CurrentCustomerName)
		assert.False(t, seen[table.Number], "duplicate number %s", table.Number)
		seen[table.Number] = true
	}
	assert.Equal(t, "01", tables[0].Number)
	assert.Equal(t, "12", tables[11].Number)
}

func TestCreateTenantCreatesAdmin(t *testing.T) {
	f := newFixture(t)

	var admin models.User
	require.NoError(t, f.db.Where("email = ?", "a@p.com").First(&admin).Error)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.Equal(t, f.tenantID, admin.TenantScope())
	assert.True(t, admin.Active)
	assert.NotEqual(t, "pw123", admin.PasswordHash)
}

func TestCreateTenantDuplicateAdminEmailWritesNothing(t *testing.T) {
	f := newFixture(t)

	_, err := f.tenants.CreateTenant(context.Background(), services.CreateTenantInput{
		Name:          "Burger Place",
		Email:         "burger@b.com",
		AdminName:     "Other",
		AdminEmail:    "A@P.com",
		AdminPassword: "secret",
	})
	require.ErrorIs(t, err, utils.ErrEmailAlreadyExists)
	assert.Equal(t, utils.KindConflict, utils.KindOf(err))

	var tenants, tables int64
	f.db.Model(&models.Tenant{}).Count(&tenants)
	f.db.Model(&models.Table{}).Count(&tables)
	assert.EqualValues(t, 1, tenants)
	assert.EqualValues(t, services.DefaultTableCount, tables)
}

func TestCreateTenantRollsBackWhenTablesFail(t *testing.T) {
	f := newFixture(t)
	failCreates(t, f.db, "tables")

	_, err := f.tenants.CreateTenant(context.Background(), services.CreateTenantInput{
		Name:          "Burger Place",
		Email:         "burger@b.com",
		AdminName:     "Bia",
		AdminEmail:    "bia@b.com",
		AdminPassword: "secret",
	})
	require.ErrorIs(t, err, errDiskFull)
	assert.Equal(t, utils.KindStorage, utils.KindOf(err))

	var tenants, users, tables int64
	f.db.Model(&models.Tenant{}).Count(&tenants)
	f.db.Model(&models.User{}).Where("email = ?", "bia@b.com").Count(&users)
	f.db.Model(&models.Table{}).Count(&tables)
	assert.EqualValues(t, 1, tenants)
	assert.Zero(t, users)
	assert.EqualValues(t, services.DefaultTableCount, tables)
}

func TestCreateTenantValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.tenants.CreateTenant(context.Background(), services.CreateTenantInput{
		Name:          "",
		Email:         "not-an-email",
		AdminName:     "X",
		AdminEmail:    "x@x.com",
		AdminPassword: "pw",
	})
	require.Error(t, err)

	var appErr *utils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, utils.KindValidation, appErr.Kind)
	assert.Contains(t, appErr.Fields, "name")
	assert.Contains(t, appErr.Fields, "email")
	assert.Contains(t, appErr.Fields, "admin_password")
}

func TestUpdateAndGetTenant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	name := "Pizza House Centro"
	updated, err := f.tenants.UpdateTenant(ctx, f.tenantID, services.UpdateTenantInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)

	got, err := f.tenants.GetTenant(ctx, f.tenantID)
	require.NoError(t, err)
	assert.Equal(t, name, got.Name)

	_, err = f.tenants.GetTenant(ctx, 9999)
	assert.ErrorIs(t, err, utils.ErrTenantNotFound)

	list, err := f.tenants.ListTenants(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
