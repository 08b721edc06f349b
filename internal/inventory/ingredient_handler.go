package inventory

import (
	"fmt"
	"strings"

	"kafe-backend/internal/audit"
	"kafe-backend/internal/database"
	"kafe-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type IngredientResponse struct {
	ID           uint    `json:"id"`
	Name         string  `json:"name"`
	Unit         string  `json:"unit"`
	Stock        float64 `json:"stock"`
	PricePerGram float64 `json:"price_per_gram"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

type CreateIngredientRequest struct {
	Name         string   `json:"name"`
	Unit         string   `json:"unit"`
	Stock        *float64 `json:"stock"`
	PricePerGram *float64 `json:"price_per_gram"`
}

type UpdateIngredientRequest struct {
	Name         *string  `json:"name"`
	Unit         *string  `json:"unit"`
	Stock        *float64 `json:"stock"`
	PricePerGram *float64 `json:"price_per_gram"`
}

func toIngredientResponse(i models.Ingredient) IngredientResponse {
	return IngredientResponse{
		ID:           i.ID,
		Name:         i.Name,
		Unit:         i.Unit,
		Stock:        i.Stock,
		PricePerGram: i.PricePerGram,
		CreatedAt:    i.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt:    i.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}

// GET /api/ingredients
func ListIngredientsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var ingredients []models.Ingredient
		if err := database.DB.Order("name asc").Find(&ingredients).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Malzemeler listelenemedi")
		}

		resp := make([]IngredientResponse, 0, len(ingredients))
		for _, i := range ingredients {
			resp = append(resp, toIngredientResponse(i))
		}
		return c.JSON(resp)
	}
}

// GET /api/ingredients/:id
func GetIngredientHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var ingredient models.Ingredient
		if err := database.DB.First(&ingredient, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Malzeme bulunamadı")
		}

		return c.JSON(toIngredientResponse(ingredient))
	}
}

// POST /api/ingredients
func CreateIngredientHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateIngredientRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		body.Name = strings.TrimSpace(body.Name)
		body.Unit = strings.TrimSpace(body.Unit)

		if body.Name == "" || body.Unit == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name ve unit zorunludur")
		}
		if body.Stock == nil || body.PricePerGram == nil {
			return fiber.NewError(fiber.StatusBadRequest, "stock ve price_per_gram zorunludur")
		}
		if *body.Stock < 0 || *body.PricePerGram < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "stock ve price_per_gram negatif olamaz")
		}

		// İsim unique kontrolü
		var existing models.Ingredient
		if err := database.DB.Where("name = ?", body.Name).First(&existing).Error; err == nil {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Bu isimde bir malzeme zaten var: %s", body.Name))
		}

		ingredient := models.Ingredient{
			Name:         body.Name,
			Unit:         body.Unit,
			Stock:        *body.Stock,
			PricePerGram: *body.PricePerGram,
		}

		if err := database.DB.Create(&ingredient).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Malzeme oluşturulamadı")
		}

		_ = audit.WriteLog(audit.LogOptions{
			EntityType:  "ingredient",
			EntityID:    ingredient.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Malzeme eklendi: %s (%.2f %s)", ingredient.Name, ingredient.Stock, ingredient.Unit),
			Before:      nil,
			After:       ingredient,
		})

		return c.Status(fiber.StatusCreated).JSON(toIngredientResponse(ingredient))
	}
}

// PUT /api/ingredients/:id
func UpdateIngredientHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var ingredient models.Ingredient
		if err := database.DB.First(&ingredient, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Malzeme bulunamadı")
		}

		var body UpdateIngredientRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		before := ingredient

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "name boş olamaz")
			}
			ingredient.Name = name
		}
		if body.Unit != nil {
			unit := strings.TrimSpace(*body.Unit)
			if unit == "" {
				return fiber.NewError(fiber.StatusBadRequest, "unit boş olamaz")
			}
			ingredient.Unit = unit
		}
		if body.Stock != nil {
			if *body.Stock < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "stock negatif olamaz")
			}
			ingredient.Stock = *body.Stock
		}
		if body.PricePerGram != nil {
			if *body.PricePerGram < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "price_per_gram negatif olamaz")
			}
			ingredient.PricePerGram = *body.PricePerGram
		}

		if err := database.DB.Save(&ingredient).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Malzeme güncellenemedi")
		}

		_ = audit.WriteLog(audit.LogOptions{
			EntityType:  "ingredient",
			EntityID:    ingredient.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Malzeme güncellendi: %s", ingredient.Name),
			Before:      before,
			After:       ingredient,
		})

		return c.JSON(toIngredientResponse(ingredient))
	}
}

// DELETE /api/ingredients/:id
func DeleteIngredientHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var ingredient models.Ingredient
		if err := database.DB.First(&ingredient, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Malzeme bulunamadı")
		}

		// Reçetelerde kullanılıyorsa silme: reçete satırı malzemeye sahip değil,
		// sadece referans veriyor
		var recipeCount int64
		database.DB.Model(&models.RecipeItem{}).Where("ingredient_id = ?", ingredient.ID).Count(&recipeCount)
		if recipeCount > 0 {
			return fiber.NewError(fiber.StatusBadRequest,
				fmt.Sprintf("Malzeme %d reçetede kullanılıyor, önce reçetelerden çıkarılmalı", recipeCount))
		}

		if err := database.DB.Delete(&ingredient).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Malzeme silinemedi")
		}

		_ = audit.WriteLog(audit.LogOptions{
			EntityType:  "ingredient",
			EntityID:    ingredient.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Malzeme silindi: %s", ingredient.Name),
			Before:      ingredient,
			After:       nil,
		})

		return c.JSON(fiber.Map{
			"message": "Malzeme başarıyla silindi",
		})
	}
}
