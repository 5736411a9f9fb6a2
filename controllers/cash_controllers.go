package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mesa-digital/restaurant-app/services"
	"github.com/mesa-digital/restaurant-app/utils"
)

// CashController exposes the close-out history.
type CashController struct {
	Orders *services.OrderService
}

func NewCashController(orders *services.OrderService) *CashController {
	return &CashController{Orders: orders}
}

func (cc *CashController) GetCashTransactions(c *gin.Context) {
	tenantID, ok := tenantScope(c)
	if !ok {
		return
	}
	txs, err := cc.Orders.ListCashTransactions(c.Request.Context(), tenantID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Cash transactions", txs)
}
