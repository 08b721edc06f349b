package inventory

import (
	"fmt"
	"strconv"
	"strings"

	"kafe-backend/internal/audit"
	"kafe-backend/internal/database"
	"kafe-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

type ImportResponse struct {
	CreatedCount int      `json:"created_count"`
	UpdatedCount int      `json:"updated_count"`
	SkippedRows  []string `json:"skipped_rows"`
}

// POST /api/ingredients/import
// Tedarikçi fiyat listesini (.xlsx) malzeme kataloğuna aktarır.
// Beklenen kolonlar: isim | birim | stok | gram fiyatı
// Aynı isimli malzeme varsa günceller, yoksa oluşturur.
func ImportIngredientsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Dosya yüklenemedi: "+err.Error())
		}

		if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
			return fiber.NewError(fiber.StatusBadRequest, "Sadece .xlsx dosyaları yüklenebilir")
		}

		file, err := fileHeader.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Dosya açılamadı: "+err.Error())
		}
		defer file.Close()

		excelFile, err := excelize.OpenReader(file)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Excel dosyası okunamadı: "+err.Error())
		}
		defer excelFile.Close()

		sheetList := excelFile.GetSheetList()
		if len(sheetList) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Excel dosyasında sheet bulunamadı")
		}

		rows, err := excelFile.GetRows(sheetList[0])
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Sheet okunamadı: "+err.Error())
		}
		if len(rows) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Excel dosyası boş")
		}

		// İlk satır başlık satırıysa atla
		startIndex := 0
		if len(rows[0]) > 0 {
			firstCell := strings.ToUpper(strings.TrimSpace(rows[0][0]))
			if strings.Contains(firstCell, "MALZEME") || strings.Contains(firstCell, "NAME") || strings.Contains(firstCell, "İSİM") {
				startIndex = 1
			}
		}

		resp := ImportResponse{SkippedRows: make([]string, 0)}

		for i := startIndex; i < len(rows); i++ {
			row := rows[i]
			if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
				continue
			}
			if len(row) < 4 {
				resp.SkippedRows = append(resp.SkippedRows, fmt.Sprintf("Satır %d: eksik kolon", i+1))
				continue
			}

			name := strings.TrimSpace(row[0])
			unit := strings.TrimSpace(row[1])
			if unit == "" {
				resp.SkippedRows = append(resp.SkippedRows, fmt.Sprintf("Satır %d: birim boş", i+1))
				continue
			}

			stock, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(row[2]), ",", "."), 64)
			if err != nil || stock < 0 {
				resp.SkippedRows = append(resp.SkippedRows, fmt.Sprintf("Satır %d: stok geçersiz", i+1))
				continue
			}
			price, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(row[3]), ",", "."), 64)
			if err != nil || price < 0 {
				resp.SkippedRows = append(resp.SkippedRows, fmt.Sprintf("Satır %d: fiyat geçersiz", i+1))
				continue
			}

			var existing models.Ingredient
			if err := database.DB.Where("name = ?", name).First(&existing).Error; err == nil {
				before := existing
				existing.Unit = unit
				existing.Stock = stock
				existing.PricePerGram = price
				if err := database.DB.Save(&existing).Error; err != nil {
					resp.SkippedRows = append(resp.SkippedRows, fmt.Sprintf("Satır %d: güncellenemedi", i+1))
					continue
				}
				resp.UpdatedCount++

				_ = audit.WriteLog(audit.LogOptions{
					EntityType:  "ingredient",
					EntityID:    existing.ID,
					Action:      models.AuditActionUpdate,
					Description: fmt.Sprintf("Malzeme Excel'den güncellendi: %s", existing.Name),
					Before:      before,
					After:       existing,
				})
				continue
			}

			ingredient := models.Ingredient{
				Name:         name,
				Unit:         unit,
				Stock:        stock,
				PricePerGram: price,
			}
			if err := database.DB.Create(&ingredient).Error; err != nil {
				resp.SkippedRows = append(resp.SkippedRows, fmt.Sprintf("Satır %d: oluşturulamadı", i+1))
				continue
			}
			resp.CreatedCount++

			_ = audit.WriteLog(audit.LogOptions{
				EntityType:  "ingredient",
				EntityID:    ingredient.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Malzeme Excel'den eklendi: %s", ingredient.Name),
				Before:      nil,
				After:       ingredient,
			})
		}

		return c.JSON(resp)
	}
}
