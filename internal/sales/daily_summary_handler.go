package sales

import (
	"time"

	"kafe-backend/internal/database"
	"kafe-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type DailySummaryResponse struct {
	Date                 string         `json:"date"`
	TotalSales           int            `json:"total_sales"`
	TotalItemsSold       int            `json:"total_items_sold"`
	TotalIngredientUsage float64        `json:"total_ingredient_usage"`
	TotalWaste           float64        `json:"total_waste"`
	TotalCost            float64        `json:"total_cost"`
	Sales                []SaleResponse `json:"sales"`
}

// GET /api/sales/daily/:date
// Günün satışları üzerinden salt okunur toplama; yeni hiçbir şey hesaplamaz.
// Satış olmayan bir gün hata değildir, sıfırlarla döner.
func DailySummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dateStr := c.Params("date")

		day, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Tarih formatı 'YYYY-MM-DD' olmalı")
		}

		// Günün tamamı: [00:00, ertesi gün 00:00)
		var sales []models.Sale
		if err := database.DB.Preload("MenuItem").
			Where("date >= ? AND date < ?", day, day.AddDate(0, 0, 1)).
			Order("id asc").
			Find(&sales).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Satışlar listelenemedi")
		}

		resp := DailySummaryResponse{
			Date:  dateStr,
			Sales: make([]SaleResponse, 0, len(sales)),
		}

		saleIDs := make([]uint, 0, len(sales))
		for _, s := range sales {
			saleIDs = append(saleIDs, s.ID)
			resp.TotalItemsSold += s.Quantity
			resp.Sales = append(resp.Sales, toSaleResponse(s))
		}
		resp.TotalSales = len(sales)

		if len(saleIDs) > 0 {
			var logs []models.UsageLog
			if err := database.DB.Where("sale_id IN ?", saleIDs).Find(&logs).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Kullanım logları yüklenemedi")
			}
			for _, l := range logs {
				resp.TotalIngredientUsage += l.QuantityUsed
				resp.TotalWaste += l.QuantityWaste
				resp.TotalCost += l.TotalCost
			}
		}

		return c.JSON(resp)
	}
}
