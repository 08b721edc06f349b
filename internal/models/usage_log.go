package models

import "time"

// UsageLog: Bir satışın malzeme bazında tüketim/maliyet kaydı.
// Sadece satış işlemi içinde, aynı transaction'da oluşturulur.
type UsageLog struct {
	ID            uint `gorm:"primaryKey"`
	SaleID        uint `gorm:"index;not null"`
	Sale          Sale
	IngredientID  uint `gorm:"index;not null"`
	Ingredient    Ingredient
	QuantityUsed  float64 `gorm:"not null"` // fire hariç tüketim
	QuantityWaste float64 `gorm:"not null"` // fire miktarı
	TotalCost     float64 `gorm:"not null"` // bu satıra düşen maliyet
	CreatedAt     time.Time
}
