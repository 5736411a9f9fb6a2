package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mesa-digital/restaurant-app/services"
	"github.com/mesa-digital/restaurant-app/utils"
)

type TableController struct {
	Tables *services.TableService
	Orders *services.OrderService
}

func NewTableController(tables *services.TableService, orders *services.OrderService) *TableController {
	return &TableController{Tables: tables, Orders: orders}
}

func (tc *TableController) GetAllTables(c *gin.Context) {
	tenantID, ok := tenantScope(c)
	if !ok {
		return
	}
	tables, err := tc.Tables.ListTables(c.Request.Context(), tenantID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", tables)
}

// GetTable returns the table with the orders of its current bill.
func (tc *TableController) GetTable(c *gin.Context) {
	tenantID, ok := tenantScope(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	detail, err := tc.Tables.TableDetail(c.Request.Context(), tenantID, id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table detail", detail)
}

func (tc *TableController) CreateTable(c *gin.Context) {
	tenantID, ok := tenantScope(c)
	if !ok {
		return
	}
	var input services.CreateTableInput
	if !bindJSON(c, &input) {
		return
	}

	table, err := tc.Tables.CreateTable(c.Request.Context(), tenantID, input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.InfoLogger.WithField("tenant_id", tenantID).Infof("New table created: %s", table.Number)
	utils.RespondJSON(c, http.StatusCreated, "Table created successfully", table)
}

func (tc *TableController) UpdateTable(c *gin.Context) {
	tenantID, ok := tenantScope(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input services.UpdateTableInput
	if !bindJSON(c, &input) {
		return
	}

	table, err := tc.Tables.UpdateTable(c.Request.Context(), tenantID, id, input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table updated", table)
}

// CloseTable settles the table bill. The payment method may come as JSON or
// as a form field.
func (tc *TableController) CloseTable(c *gin.Context) {
	tenantID, ok := tenantScope(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input services.CloseTableInput
	if err := c.ShouldBind(&input); err != nil {
		utils.RespondError(c, utils.InvalidField("body", err.Error()))
		return
	}

	cash, err := tc.Orders.CloseTable(c.Request.Context(), tenantID, id, input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table closed", cash)
}
