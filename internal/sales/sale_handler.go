package sales

import (
	"errors"
	"fmt"
	"time"

	"kafe-backend/internal/audit"
	"kafe-backend/internal/database"
	"kafe-backend/internal/menu"
	"kafe-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CreateSaleRequest struct {
	MenuID   uint   `json:"menu_id"`
	Date     string `json:"date"` // "2025-12-09"
	Quantity int    `json:"quantity"`
}

type SaleResponse struct {
	ID           uint   `json:"id"`
	MenuItemID   uint   `json:"menu_item_id"`
	MenuItemName string `json:"menu_item_name"`
	Date         string `json:"date"`
	Quantity     int    `json:"quantity"`
	CreatedAt    string `json:"created_at"`
}

type UsageDetailResponse struct {
	IngredientID   uint    `json:"ingredient_id"`
	IngredientName string  `json:"ingredient_name"`
	QuantityUsed   float64 `json:"quantity_used"`  // fire hariç
	QuantityWaste  float64 `json:"quantity_waste"` // fire
	TotalUsage     float64 `json:"total_usage"`
	Cost           float64 `json:"cost"`
}

type CreateSaleResponse struct {
	Sale         SaleResponse          `json:"sale"`
	UsageDetails []UsageDetailResponse `json:"usage_details"`
	TotalCost    float64               `json:"total_cost"`
}

func toSaleResponse(s models.Sale) SaleResponse {
	return SaleResponse{
		ID:           s.ID,
		MenuItemID:   s.MenuItemID,
		MenuItemName: s.MenuItem.Name,
		Date:         s.Date.Format("2006-01-02"),
		Quantity:     s.Quantity,
		CreatedAt:    s.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// POST /api/sales
// Satış kaydının tamamı tek transaction: satış satırı, kullanım logları ve
// stok düşüşleri ya birlikte kaydedilir ya da hiçbiri kaydedilmez.
func CreateSaleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateSaleRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		if body.MenuID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "menu_id zorunludur")
		}

		// Önce menü çözülür: olmayan menü için miktar/tarih ne olursa olsun 404
		var menuItem models.MenuItem
		if err := menu.PreloadRecipe(database.DB).First(&menuItem, "id = ?", body.MenuID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("Menü bulunamadı (ID: %d)", body.MenuID))
		}

		if body.Quantity <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "quantity pozitif bir tamsayı olmalıdır")
		}

		saleDate, err := time.Parse("2006-01-02", body.Date)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Tarih formatı 'YYYY-MM-DD' olmalı")
		}

		// Saf hesaplama: tüketim, fire, maliyet + yüklü stok anlık görüntüsüne
		// karşı ön kontrol. Yetersizse hiçbir şey yazılmadan döner.
		usages, err := ComputeUsage(&menuItem, body.Quantity)
		if err != nil {
			var stockErr *StockError
			if errors.As(err, &stockErr) {
				return fiber.NewError(fiber.StatusBadRequest, stockErr.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Tüketim hesaplanamadı")
		}

		sale, totalCost, err := persistSale(&menuItem, saleDate, body.Quantity, usages)
		if err != nil {
			var stockErr *StockError
			if errors.As(err, &stockErr) {
				return fiber.NewError(fiber.StatusBadRequest, stockErr.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Satış kaydedilemedi")
		}

		_ = audit.WriteLog(audit.LogOptions{
			EntityType:  "sale",
			EntityID:    sale.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Satış kaydedildi: %s x%d, Maliyet: %.2f", menuItem.Name, sale.Quantity, totalCost),
			Before:      nil,
			After:       sale,
		})

		sale.MenuItem = menuItem
		details := make([]UsageDetailResponse, 0, len(usages))
		for _, usage := range usages {
			name := ""
			for _, r := range menuItem.Recipe {
				if r.IngredientID == usage.IngredientID {
					name = r.Ingredient.Name
					break
				}
			}
			details = append(details, UsageDetailResponse{
				IngredientID:   usage.IngredientID,
				IngredientName: name,
				QuantityUsed:   usage.BaseUsage,
				QuantityWaste:  usage.WasteAmount,
				TotalUsage:     usage.TotalUsage,
				Cost:           usage.Cost,
			})
		}

		return c.Status(fiber.StatusCreated).JSON(CreateSaleResponse{
			Sale:         toSaleResponse(sale),
			UsageDetails: details,
			TotalCost:    totalCost,
		})
	}
}

// persistSale satış satırını, kullanım loglarını ve stok düşüşlerini tek
// transaction içinde yazar. Stok, ön kontrolden sonra araya giren bir satış
// tarafından düşürülmüşse hiçbir şey yazılmadan *StockError döner.
func persistSale(menuItem *models.MenuItem, saleDate time.Time, quantity int, usages []UsageComputation) (models.Sale, float64, error) {
	tx := database.DB.Begin()
	if tx.Error != nil {
		return models.Sale{}, 0, tx.Error
	}

	sale := models.Sale{
		MenuItemID: menuItem.ID,
		Date:       saleDate,
		Quantity:   quantity,
	}
	if err := tx.Create(&sale).Error; err != nil {
		tx.Rollback()
		return models.Sale{}, 0, err
	}

	var totalCost float64
	for _, usage := range usages {
		// Koşullu tek statement düşüş: kontrol ve düşüş aynı UPDATE içinde.
		// Veritabanı aynı malzeme satırına yazan eşzamanlı satışları burada
		// serileştirir; stok hiçbir commit sonrasında negatif olamaz.
		res := tx.Model(&models.Ingredient{}).
			Where("id = ? AND stock >= ?", usage.IngredientID, usage.TotalUsage).
			Update("stock", gorm.Expr("stock - ?", usage.TotalUsage))
		if res.Error != nil {
			tx.Rollback()
			return models.Sale{}, 0, res.Error
		}
		if res.RowsAffected == 0 {
			tx.Rollback()
			var ingredient models.Ingredient
			if err := database.DB.First(&ingredient, "id = ?", usage.IngredientID).Error; err != nil {
				return models.Sale{}, 0, err
			}
			return models.Sale{}, 0, &StockError{
				IngredientID:   ingredient.ID,
				IngredientName: ingredient.Name,
				Unit:           ingredient.Unit,
				Required:       usage.TotalUsage,
				Available:      ingredient.Stock,
			}
		}

		log := models.UsageLog{
			SaleID:        sale.ID,
			IngredientID:  usage.IngredientID,
			QuantityUsed:  usage.BaseUsage,
			QuantityWaste: usage.WasteAmount,
			TotalCost:     usage.Cost,
		}
		if err := tx.Create(&log).Error; err != nil {
			tx.Rollback()
			return models.Sale{}, 0, err
		}

		totalCost += usage.Cost
	}

	if err := tx.Commit().Error; err != nil {
		return models.Sale{}, 0, err
	}
	return sale, totalCost, nil
}

// GET /api/sales
func ListSalesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var sales []models.Sale
		if err := database.DB.Preload("MenuItem").
			Order("date DESC, created_at DESC").
			Find(&sales).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Satışlar listelenemedi")
		}

		resp := make([]SaleResponse, 0, len(sales))
		for _, s := range sales {
			resp = append(resp, toSaleResponse(s))
		}
		return c.JSON(resp)
	}
}

type UsageLogResponse struct {
	ID             uint    `json:"id"`
	IngredientID   uint    `json:"ingredient_id"`
	IngredientName string  `json:"ingredient_name"`
	QuantityUsed   float64 `json:"quantity_used"`
	QuantityWaste  float64 `json:"quantity_waste"`
	TotalCost      float64 `json:"total_cost"`
}

// GET /api/sales/:id
// Satışı kullanım loglarıyla birlikte döndürür
func GetSaleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var sale models.Sale
		if err := database.DB.Preload("MenuItem").First(&sale, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Satış bulunamadı")
		}

		var logs []models.UsageLog
		if err := database.DB.Preload("Ingredient").
			Where("sale_id = ?", sale.ID).
			Order("id asc").
			Find(&logs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kullanım logları yüklenemedi")
		}

		logsResp := make([]UsageLogResponse, 0, len(logs))
		for _, l := range logs {
			logsResp = append(logsResp, UsageLogResponse{
				ID:             l.ID,
				IngredientID:   l.IngredientID,
				IngredientName: l.Ingredient.Name,
				QuantityUsed:   l.QuantityUsed,
				QuantityWaste:  l.QuantityWaste,
				TotalCost:      l.TotalCost,
			})
		}

		return c.JSON(fiber.Map{
			"sale":       toSaleResponse(sale),
			"usage_logs": logsResp,
		})
	}
}
