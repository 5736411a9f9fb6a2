package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mesa-digital/restaurant-app/models"
	"github.com/mesa-digital/restaurant-app/services"
	"github.com/mesa-digital/restaurant-app/utils"
)

type QRCodeController struct {
	Tenants       *services.TenantService
	Tables        *services.TableService
	PublicBaseURL string
}

func NewQRCodeController(tenants *services.TenantService, tables *services.TableService, publicBaseURL string) *QRCodeController {
	return &QRCodeController{Tenants: tenants, Tables: tables, PublicBaseURL: publicBaseURL}
}

// GetTableQRCode returns the PNG QR code of one table, inline or as a
// download with ?download=1.
func (qc *QRCodeController) GetTableQRCode(c *gin.Context) {
	tenantID, ok := idParam(c, "tenant_id")
	if !ok {
		return
	}
	table, err := qc.Tables.FindByNumber(c.Request.Context(), tenantID, c.Param("table_number"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	img, err := services.EncodeQRPNG(services.MenuURL(publicBaseURL(c, qc.PublicBaseURL), tenantID, table.Number), services.DefaultQRSize)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	disposition := "inline"
	if c.Query("download") == "1" {
		disposition = fmt.Sprintf("attachment; filename=\"table-%s.png\"", table.Number)
	}
	c.Header("Content-Disposition", disposition)
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", img)
}

// GetQRCodeSheet lists the QR codes of every table of a tenant, or renders
// them as a printable PDF with ?format=pdf.
func (qc *QRCodeController) GetQRCodeSheet(c *gin.Context) {
	sc, ok := session(c)
	if !ok {
		return
	}
	tenantID, ok := idParam(c, "tenant_id")
	if !ok {
		return
	}
	if err := services.Authorize(&sc, models.RoleAdmin, tenantID); err != nil {
		utils.RespondError(c, err)
		return
	}
	ctx := c.Request.Context()

	tenant, err := qc.Tenants.GetTenant(ctx, tenantID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	tables, err := qc.Tables.ListTables(ctx, tenantID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	entries := services.BuildQRSheet(publicBaseURL(c, qc.PublicBaseURL), tenantID, tables)

	if c.Query("format") != "pdf" {
		utils.RespondJSON(c, http.StatusOK, "QR codes", entries)
		return
	}

	pdf, err := services.RenderQRSheetPDF(*tenant, entries)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"qrcodes-%d.pdf\"", tenantID))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
