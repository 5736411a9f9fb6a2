package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mesa-digital/restaurant-app/services"
	"github.com/mesa-digital/restaurant-app/utils"
)

// AdminController serves the super admin restaurant management.
type AdminController struct {
	Tenants *services.TenantService
}

func NewAdminController(tenants *services.TenantService) *AdminController {
	return &AdminController{Tenants: tenants}
}

// CreateRestaurant provisions a tenant with its admin and tables.
func (ac *AdminController) CreateRestaurant(c *gin.Context) {
	var input services.CreateTenantInput
	if err := c.ShouldBind(&input); err != nil {
		utils.RespondError(c, utils.InvalidField("body", err.Error()))
		return
	}

	id, err := ac.Tenants.CreateTenant(c.Request.Context(), input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Restaurant created", gin.H{"id": id})
}

func (ac *AdminController) ListRestaurants(c *gin.Context) {
	tenants, err := ac.Tenants.ListTenants(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of restaurants", tenants)
}

func (ac *AdminController) GetRestaurant(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	tenant, err := ac.Tenants.GetTenant(c.Request.Context(), id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Restaurant", tenant)
}

func (ac *AdminController) UpdateRestaurant(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input services.UpdateTenantInput
	if !bindJSON(c, &input) {
		return
	}

	tenant, err := ac.Tenants.UpdateTenant(c.Request.Context(), id, input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Restaurant updated", tenant)
}
