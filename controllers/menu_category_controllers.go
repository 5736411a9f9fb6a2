package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mesa-digital/restaurant-app/services"
	"github.com/mesa-digital/restaurant-app/utils"
)

type MenuCategoryController struct {
	Catalog *services.CatalogService
}

func NewMenuCategoryController(catalog *services.CatalogService) *MenuCategoryController {
	return &MenuCategoryController{Catalog: catalog}
}

func (mcc *MenuCategoryController) GetAllCategories(c *gin.Context) {
	tenantID, ok := tenantScope(c)
	if !ok {
		return
	}
	categories, err := mcc.Catalog.ListCategories(c.Request.Context(), tenantID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "All menu categories", categories)
}

func (mcc *MenuCategoryController) CreateCategory(c *gin.Context) {
	tenantID, ok := tenantScope(c)
	if !ok {
		return
	}
	var input services.CreateCategoryInput
	if !bindJSON(c, &input) {
		return
	}

	category, err := mcc.Catalog.CreateCategory(c.Request.Context(), tenantID, input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Category created", category)
}

func (mcc *MenuCategoryController) UpdateCategory(c *gin.Context) {
	tenantID, ok := tenantScope(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input services.UpdateCategoryInput
	if !bindJSON(c, &input) {
		return
	}

	category, err := mcc.Catalog.UpdateCategory(c.Request.Context(), tenantID, id, input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Category updated", category)
}

// DeleteCategory deactivates; categories are never removed.
func (mcc *MenuCategoryController) DeleteCategory(c *gin.Context) {
	tenantID, ok := tenantScope(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := mcc.Catalog.DeactivateCategory(c.Request.Context(), tenantID, id); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Category deactivated", gin.H{"id": id})
}
