package models

import "time"

// Sale: Satış kaydı. Oluşturulduktan sonra değiştirilemez,
// silme endpoint'i de yok (kullanım logları buna bağlı).
type Sale struct {
	ID         uint `gorm:"primaryKey"`
	MenuItemID uint `gorm:"index;not null"`
	MenuItem   MenuItem
	Date       time.Time `gorm:"index;not null"` // satış tarihi
	Quantity   int       `gorm:"not null"`       // satılan adet
	CreatedAt  time.Time
}
