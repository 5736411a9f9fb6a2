package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mesa-digital/restaurant-app/services"
	"github.com/mesa-digital/restaurant-app/utils"
)

type OrderController struct {
	Orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{Orders: orders}
}

// GetActiveOrders is the kitchen queue, oldest first.
func (oc *OrderController) GetActiveOrders(c *gin.Context) {
	tenantID, ok := tenantScope(c)
	if !ok {
		return
	}
	orders, err := oc.Orders.ListActiveOrders(c.Request.Context(), tenantID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Active orders", orders)
}

func (oc *OrderController) CreateOrder(c *gin.Context) {
	tenantID, ok := tenantScope(c)
	if !ok {
		return
	}
	var input services.CreateOrderInput
	if !bindJSON(c, &input) {
		return
	}

	order, err := oc.Orders.CreateOrder(c.Request.Context(), tenantID, input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Order created", gin.H{"id": order.ID, "order": order})
}

func (oc *OrderController) GetOrder(c *gin.Context) {
	tenantID, ok := tenantScope(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	order, err := oc.Orders.GetOrder(c.Request.Context(), tenantID, id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order", order)
}

func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
	tenantID, ok := tenantScope(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var body struct {
		Status string `json:"status" form:"status" binding:"required"`
	}
	if err := c.ShouldBind(&body); err != nil {
		utils.RespondError(c, utils.InvalidField("status", "is required"))
		return
	}

	order, err := oc.Orders.UpdateStatus(c.Request.Context(), tenantID, id, body.Status)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order status updated", order)
}
