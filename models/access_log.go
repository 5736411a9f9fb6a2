package models

import "time"

type AccessLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TenantID  *uint     `gorm:"index" json:"tenant_id"`
	UserID    *uint     `gorm:"index" json:"user_id"`
	Action    string    `gorm:"type:varchar(50);not null" json:"action"`
	IP        string    `gorm:"type:varchar(64)" json:"ip"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}
