package models

import "time"

// Ingredient: Ham madde (stok ve birim fiyat takibi)
type Ingredient struct {
	ID           uint    `gorm:"primaryKey"`
	Name         string  `gorm:"size:100;not null;unique"`
	Unit         string  `gorm:"size:20;not null"` // gram, ml, adet vs.
	Stock        float64 `gorm:"not null"`         // mevcut stok miktarı, asla negatif olmaz
	PricePerGram float64 `gorm:"not null"`         // gram başına maliyet
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
