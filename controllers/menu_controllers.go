package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mesa-digital/restaurant-app/services"
	"github.com/mesa-digital/restaurant-app/utils"
)

// MenuController manages products.
type MenuController struct {
	Catalog *services.CatalogService
}

func NewMenuController(catalog *services.CatalogService) *MenuController {
	return &MenuController{Catalog: catalog}
}

// GetAllMenus lists active products, optionally of one category_id.
func (mc *MenuController) GetAllMenus(c *gin.Context) {
	tenantID, ok := tenantScope(c)
	if !ok {
		return
	}

	var categoryID uint
	if raw := c.Query("category_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			utils.RespondError(c, utils.InvalidField("category_id", "must be a positive integer"))
			return
		}
		categoryID = uint(id)
	}

	products, err := mc.Catalog.ListProducts(c.Request.Context(), tenantID, categoryID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of products", products)
}

func (mc *MenuController) GetMenuByID(c *gin.Context) {
	tenantID, ok := tenantScope(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	product, err := mc.Catalog.GetProduct(c.Request.Context(), tenantID, id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Product", product)
}

func (mc *MenuController) CreateMenu(c *gin.Context) {
	tenantID, ok := tenantScope(c)
	if !ok {
		return
	}
	var input services.CreateProductInput
	if !bindJSON(c, &input) {
		return
	}

	product, err := mc.Catalog.CreateProduct(c.Request.Context(), tenantID, input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Product created", product)
}

func (mc *MenuController) UpdateMenu(c *gin.Context) {
	tenantID, ok := tenantScope(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input services.UpdateProductInput
	if !bindJSON(c, &input) {
		return
	}

	product, err := mc.Catalog.UpdateProduct(c.Request.Context(), tenantID, id, input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Product updated", product)
}

// DeleteMenu deactivates the product so past orders keep their reference.
func (mc *MenuController) DeleteMenu(c *gin.Context) {
	tenantID, ok := tenantScope(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := mc.Catalog.DeactivateProduct(c.Request.Context(), tenantID, id); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Product deactivated", gin.H{"id": id})
}
