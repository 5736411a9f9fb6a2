package models

// SessionContext is what an authenticated request carries around.
type SessionContext struct {
	UserID   uint   `json:"user_id"`
	Name     string `json:"name"`
	Role     Role   `json:"role"`
	TenantID uint   `json:"tenant_id"`
}

// IsSuperAdmin is true for the cross-tenant role.
func (s SessionContext) IsSuperAdmin() bool {
	return s.Role == RoleSuperAdmin
}

// CanAccessTenant reports whether the session may touch data of tenantID.
func (s SessionContext) CanAccessTenant(tenantID uint) bool {
	return s.IsSuperAdmin() || (s.TenantID != 0 && s.TenantID == tenantID)
}
