package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	ProductFood  = "food"
	ProductDrink = "drink"
)

type Product struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	CategoryID      uint            `gorm:"not null;index" json:"category_id"`
	Category        *Category       `gorm:"foreignKey:CategoryID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Name            string          `gorm:"type:varchar(255);not null" json:"name"`
	Description     string          `gorm:"type:text" json:"description"`
	Price           decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Type            string          `gorm:"type:varchar(10);not null" json:"type"`
	Featured        bool            `gorm:"not null;default:false" json:"featured"`
	PrepTimeMinutes int             `gorm:"not null;default:0" json:"prep_time_minutes"`
	Active          bool            `gorm:"not null;default:true" json:"active"`
	CreatedAt       time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"not null" json:"updated_at"`
}

func (p *Product) AfterFind(tx *gorm.DB) error {
	p.Price = p.Price.Round(2)
	return nil
}
