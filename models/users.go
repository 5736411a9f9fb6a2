package models

import (
	"fmt"
	"time"
)

// Role is the closed set of access levels.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleOperator   Role = "operator"
)

var roleRank = map[Role]int{
	RoleOperator:   1,
	RoleAdmin:      2,
	RoleSuperAdmin: 3,
}

// ParseRole rejects anything outside the three known roles.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := roleRank[r]; !ok {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r grants everything other grants.
func (r Role) AtLeast(other Role) bool {
	return roleRank[r] >= roleRank[other] && roleRank[other] > 0
}

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	TenantID     *uint     `gorm:"index" json:"tenant_id"`
	Tenant       *Tenant   `gorm:"foreignKey:TenantID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Name         string    `gorm:"type:varchar(255);not null" json:"name"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	Role         Role      `gorm:"type:varchar(20);not null" json:"role"`
	Active       bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TenantScope returns the tenant the user is bound to, 0 for super admins.
func (u *User) TenantScope() uint {
	if u.TenantID == nil {
		return 0
	}
	return *u.TenantID
}
