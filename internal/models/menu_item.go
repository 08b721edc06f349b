package models

import "time"

// MenuItem: Satılabilir menü kalemi (reçetesiyle birlikte)
type MenuItem struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:100;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Recipe []RecipeItem `gorm:"foreignKey:MenuItemID;constraint:OnDelete:CASCADE"`
}

// RecipeItem: Reçetedeki her malzeme satırı (fire yüzdesiyle)
type RecipeItem struct {
	ID           uint `gorm:"primaryKey"`
	MenuItemID   uint `gorm:"index;not null"`
	IngredientID uint `gorm:"index;not null"`
	Ingredient   Ingredient
	Quantity     float64 `gorm:"not null"` // birim satış başına miktar
	WastePercent float64 `gorm:"not null"` // fire yüzdesi (hazırlık kaybı)
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
