package sales

import (
	"fmt"

	"kafe-backend/internal/models"
)

// UsageComputation: Bir reçete satırının satış başına hesaplanmış tüketimi.
type UsageComputation struct {
	IngredientID uint
	BaseUsage    float64 // reçete miktarı * satılan adet
	WasteAmount  float64 // fire payı
	TotalUsage   float64 // stoktan düşülecek toplam
	Cost         float64
}

// StockError: Bir malzemenin stoğu hesaplanan tüketimi karşılamıyor.
type StockError struct {
	IngredientID   uint
	IngredientName string
	Unit           string
	Required       float64
	Available      float64
}

func (e *StockError) Error() string {
	return fmt.Sprintf("Stok yetersiz: %s - Gerekli: %.2f %s, Mevcut: %.2f %s",
		e.IngredientName, e.Required, e.Unit, e.Available, e.Unit)
}

// ComputeUsage: Menünün reçetesinden, satılan adede göre malzeme bazında
// tüketim, fire ve maliyet hesaplar. Saf fonksiyondur: stok değiştirmez,
// aynı girdiyle her çağrıda aynı sonucu verir. Reçete sırası korunur.
//
// Yetersiz stok gören İLK satırda StockError ile durur; kalan satırlar
// hesaplanmaz.
func ComputeUsage(menu *models.MenuItem, quantity int) ([]UsageComputation, error) {
	usages := make([]UsageComputation, 0, len(menu.Recipe))

	for _, item := range menu.Recipe {
		baseUsage := item.Quantity * float64(quantity)
		wasteAmount := baseUsage * (item.WastePercent / 100)
		totalUsage := baseUsage + wasteAmount
		cost := totalUsage * item.Ingredient.PricePerGram

		if totalUsage > item.Ingredient.Stock {
			return nil, &StockError{
				IngredientID:   item.IngredientID,
				IngredientName: item.Ingredient.Name,
				Unit:           item.Ingredient.Unit,
				Required:       totalUsage,
				Available:      item.Ingredient.Stock,
			}
		}

		usages = append(usages, UsageComputation{
			IngredientID: item.IngredientID,
			BaseUsage:    baseUsage,
			WasteAmount:  wasteAmount,
			TotalUsage:   totalUsage,
			Cost:         cost,
		})
	}

	return usages, nil
}
