package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mesa-digital/restaurant-app/middlewares"
	"github.com/mesa-digital/restaurant-app/models"
	"github.com/mesa-digital/restaurant-app/utils"
)

// bindJSON decodes the request body and reports malformed input as a
// validation error. Field rules are enforced by the services.
func bindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		utils.RespondError(c, utils.InvalidField("body", err.Error()))
		return false
	}
	return true
}

// idParam parses a positive numeric path parameter.
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		utils.RespondError(c, utils.InvalidField(name, "must be a positive integer"))
		return 0, false
	}
	return uint(id), true
}

func session(c *gin.Context) (models.SessionContext, bool) {
	sc, ok := middlewares.CurrentSession(c)
	if !ok {
		utils.RespondError(c, utils.ErrUnauthenticated)
	}
	return sc, ok
}

// tenantScope is the tenant a request acts on: the session's own tenant, or
// the tenant_id query parameter for super admins.
func tenantScope(c *gin.Context) (uint, bool) {
	sc, ok := session(c)
	if !ok {
		return 0, false
	}
	if !sc.IsSuperAdmin() {
		return sc.TenantID, true
	}

	id, err := strconv.ParseUint(c.Query("tenant_id"), 10, 64)
	if err != nil || id == 0 {
		utils.RespondError(c, utils.InvalidField("tenant_id", "is required for super admin requests"))
		return 0, false
	}
	return uint(id), true
}

// publicBaseURL is the configured base URL or the one the request came in on.
func publicBaseURL(c *gin.Context, configured string) string {
	if configured != "" {
		return configured
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + c.Request.Host
}
