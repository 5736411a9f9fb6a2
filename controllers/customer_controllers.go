package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mesa-digital/restaurant-app/services"
	"github.com/mesa-digital/restaurant-app/utils"
	"github.com/shopspring/decimal"
)

// DefaultTable is used when a menu link carries no table number.
const DefaultTable = "01"

// CustomerController serves the pages reached by scanning a table QR code.
type CustomerController struct {
	Tenants *services.TenantService
	Tables  *services.TableService
	Catalog *services.CatalogService
	Orders  *services.OrderService
}

func NewCustomerController(tenants *services.TenantService, tables *services.TableService, catalog *services.CatalogService, orders *services.OrderService) *CustomerController {
	return &CustomerController{Tenants: tenants, Tables: tables, Catalog: catalog, Orders: orders}
}

type publicMenu struct {
	RestaurantID   uint                   `json:"restaurant_id"`
	RestaurantName string                 `json:"restaurant_name"`
	TableNumber    string                 `json:"table_number"`
	Categories     []services.MenuSection `json:"categories"`
}

func tableNumberOf(raw string) string {
	if n := strings.TrimSpace(raw); n != "" {
		return n
	}
	return DefaultTable
}

func (cc *CustomerController) GetMenu(c *gin.Context) {
	tenantID, ok := idParam(c, "tenant_id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	tenant, err := cc.Tenants.GetTenant(ctx, tenantID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	table, err := cc.Tables.FindByNumber(ctx, tenantID, tableNumberOf(c.Query("mesa")))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	sections, err := cc.Catalog.PublicMenu(ctx, tenantID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Menu", publicMenu{
		RestaurantID:   tenant.ID,
		RestaurantName: tenant.Name,
		TableNumber:    table.Number,
		Categories:     sections,
	})
}

// PlaceOrder lets a customer order for the table of the scanned code.
func (cc *CustomerController) PlaceOrder(c *gin.Context) {
	tenantID, ok := idParam(c, "tenant_id")
	if !ok {
		return
	}
	var body struct {
		Mesa         string                    `json:"mesa"`
		CustomerName string                    `json:"customer_name"`
		Items        []services.OrderItemInput `json:"items"`
		Total        *decimal.Decimal          `json:"total"`
		Note         string                    `json:"note"`
	}
	if !bindJSON(c, &body) {
		return
	}
	ctx := c.Request.Context()

	table, err := cc.Tables.FindByNumber(ctx, tenantID, tableNumberOf(body.Mesa))
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	order, err := cc.Orders.CreateOrder(ctx, tenantID, services.CreateOrderInput{
		TableID:      table.ID,
		CustomerName: body.CustomerName,
		Items:        body.Items,
		Total:        body.Total,
		Note:         body.Note,
	})
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Order received", gin.H{"id": order.ID, "order": order})
}
