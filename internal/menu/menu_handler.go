package menu

import (
	"fmt"

	"kafe-backend/internal/audit"
	"kafe-backend/internal/database"
	"kafe-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type RecipeItemRequest struct {
	IngredientID uint     `json:"ingredient_id"`
	Quantity     *float64 `json:"quantity"`      // birim satış başına miktar
	WastePercent *float64 `json:"waste_percent"` // fire yüzdesi
}

type CreateMenuRequest struct {
	Name   string              `json:"name"`
	Recipe []RecipeItemRequest `json:"recipe"`
}

type UpdateMenuRequest struct {
	Name   *string              `json:"name"`
	Recipe *[]RecipeItemRequest `json:"recipe"` // verilirse reçete tamamen değiştirilir
}

type RecipeItemResponse struct {
	ID             uint    `json:"id"`
	IngredientID   uint    `json:"ingredient_id"`
	IngredientName string  `json:"ingredient_name"`
	Unit           string  `json:"unit"`
	Quantity       float64 `json:"quantity"`
	WastePercent   float64 `json:"waste_percent"`
}

type MenuResponse struct {
	ID        uint                 `json:"id"`
	Name      string               `json:"name"`
	Recipe    []RecipeItemResponse `json:"recipe"`
	CreatedAt string               `json:"created_at"`
	UpdatedAt string               `json:"updated_at"`
}

// PreloadRecipe: Reçeteyi ekleme sırasına göre, malzemeleri çözülmüş halde yükler.
// Ekleme sırası = primary key sırası (reçete her zaman topluca yazıldığı için).
func PreloadRecipe(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Recipe", func(db *gorm.DB) *gorm.DB {
			return db.Order("recipe_items.id ASC")
		}).
		Preload("Recipe.Ingredient")
}

func toMenuResponse(m models.MenuItem) MenuResponse {
	recipe := make([]RecipeItemResponse, 0, len(m.Recipe))
	for _, r := range m.Recipe {
		recipe = append(recipe, RecipeItemResponse{
			ID:             r.ID,
			IngredientID:   r.IngredientID,
			IngredientName: r.Ingredient.Name,
			Unit:           r.Ingredient.Unit,
			Quantity:       r.Quantity,
			WastePercent:   r.WastePercent,
		})
	}
	return MenuResponse{
		ID:        m.ID,
		Name:      m.Name,
		Recipe:    recipe,
		CreatedAt: m.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt: m.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}

// buildRecipeItems: Reçete satırlarını doğrular ve model listesine çevirir.
// Her satırın malzemesi var olmalı, quantity > 0 ve waste_percent >= 0 olmalı.
func buildRecipeItems(items []RecipeItemRequest) ([]models.RecipeItem, error) {
	recipe := make([]models.RecipeItem, 0, len(items))
	for _, item := range items {
		if item.IngredientID == 0 {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Her reçete satırı için ingredient_id zorunludur")
		}
		if item.Quantity == nil || item.WastePercent == nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Her reçete satırı için quantity ve waste_percent zorunludur")
		}
		if *item.Quantity <= 0 {
			return nil, fiber.NewError(fiber.StatusBadRequest, "quantity 0'dan büyük olmalıdır")
		}
		if *item.WastePercent < 0 {
			return nil, fiber.NewError(fiber.StatusBadRequest, "waste_percent negatif olamaz")
		}

		var ingredient models.Ingredient
		if err := database.DB.First(&ingredient, "id = ?", item.IngredientID).Error; err != nil {
			return nil, fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("Malzeme bulunamadı (ID: %d)", item.IngredientID))
		}

		recipe = append(recipe, models.RecipeItem{
			IngredientID: item.IngredientID,
			Quantity:     *item.Quantity,
			WastePercent: *item.WastePercent,
		})
	}
	return recipe, nil
}

// GET /api/menus
func ListMenusHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var menus []models.MenuItem
		if err := PreloadRecipe(database.DB).Order("name asc").Find(&menus).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Menüler listelenemedi")
		}

		resp := make([]MenuResponse, 0, len(menus))
		for _, m := range menus {
			resp = append(resp, toMenuResponse(m))
		}
		return c.JSON(resp)
	}
}

// GET /api/menus/:id
func GetMenuHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var menu models.MenuItem
		if err := PreloadRecipe(database.DB).First(&menu, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Menü bulunamadı")
		}

		return c.JSON(toMenuResponse(menu))
	}
}

// POST /api/menus
func CreateMenuHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateMenuRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name zorunludur")
		}
		if body.Recipe == nil {
			return fiber.NewError(fiber.StatusBadRequest, "Menü bir reçete içermelidir (recipe listesi)")
		}

		recipe, err := buildRecipeItems(body.Recipe)
		if err != nil {
			return err
		}

		menu := models.MenuItem{
			Name:   body.Name,
			Recipe: recipe,
		}

		if err := database.DB.Create(&menu).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Menü oluşturulamadı")
		}

		// Reçeteyi malzemeleriyle birlikte tekrar yükle
		if err := PreloadRecipe(database.DB).First(&menu, "id = ?", menu.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Menü yüklenemedi")
		}

		_ = audit.WriteLog(audit.LogOptions{
			EntityType:  "menu_item",
			EntityID:    menu.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Menü eklendi: %s (%d malzeme)", menu.Name, len(menu.Recipe)),
			Before:      nil,
			After:       menu,
		})

		return c.Status(fiber.StatusCreated).JSON(toMenuResponse(menu))
	}
}

// PUT /api/menus/:id
// Reçete verilirse tamamen değiştirilir: eski satırların hepsi silinir,
// verilen liste sırasıyla yeniden eklenir (kısmi güncelleme yok).
func UpdateMenuHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var menu models.MenuItem
		if err := PreloadRecipe(database.DB).First(&menu, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Menü bulunamadı")
		}

		var body UpdateMenuRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		before := menu

		if body.Name != nil {
			if *body.Name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "name boş olamaz")
			}
			menu.Name = *body.Name
		}

		var newRecipe []models.RecipeItem
		if body.Recipe != nil {
			var err error
			newRecipe, err = buildRecipeItems(*body.Recipe)
			if err != nil {
				return err
			}
		}

		// İsim ve reçete değişikliğini atomik yap
		tx := database.DB.Begin()
		if tx.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İşlem başlatılamadı")
		}

		if err := tx.Model(&models.MenuItem{}).Where("id = ?", menu.ID).Update("name", menu.Name).Error; err != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Menü güncellenemedi")
		}

		if body.Recipe != nil {
			if err := tx.Where("menu_item_id = ?", menu.ID).Delete(&models.RecipeItem{}).Error; err != nil {
				tx.Rollback()
				return fiber.NewError(fiber.StatusInternalServerError, "Eski reçete silinemedi")
			}
			for i := range newRecipe {
				newRecipe[i].MenuItemID = menu.ID
			}
			if len(newRecipe) > 0 {
				if err := tx.Create(&newRecipe).Error; err != nil {
					tx.Rollback()
					return fiber.NewError(fiber.StatusInternalServerError, "Yeni reçete kaydedilemedi")
				}
			}
		}

		if err := tx.Commit().Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İşlem tamamlanamadı")
		}

		if err := PreloadRecipe(database.DB).First(&menu, "id = ?", menu.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Menü yüklenemedi")
		}

		_ = audit.WriteLog(audit.LogOptions{
			EntityType:  "menu_item",
			EntityID:    menu.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Menü güncellendi: %s", menu.Name),
			Before:      before,
			After:       menu,
		})

		return c.JSON(toMenuResponse(menu))
	}
}

// DELETE /api/menus/:id
// Reçete satırları menüyle birlikte silinir, malzemelere dokunulmaz.
func DeleteMenuHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var menu models.MenuItem
		if err := PreloadRecipe(database.DB).First(&menu, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Menü bulunamadı")
		}

		tx := database.DB.Begin()
		if tx.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İşlem başlatılamadı")
		}

		if err := tx.Where("menu_item_id = ?", menu.ID).Delete(&models.RecipeItem{}).Error; err != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Reçete silinemedi")
		}
		if err := tx.Delete(&models.MenuItem{}, "id = ?", menu.ID).Error; err != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Menü silinemedi")
		}

		if err := tx.Commit().Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İşlem tamamlanamadı")
		}

		_ = audit.WriteLog(audit.LogOptions{
			EntityType:  "menu_item",
			EntityID:    menu.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Menü silindi: %s", menu.Name),
			Before:      menu,
			After:       nil,
		})

		return c.JSON(fiber.Map{
			"message": "Menü başarıyla silindi",
		})
	}
}

// GET /api/menus/:id/recipe
func GetMenuRecipeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var menu models.MenuItem
		if err := PreloadRecipe(database.DB).First(&menu, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Menü bulunamadı")
		}

		resp := toMenuResponse(menu)
		return c.JSON(fiber.Map{
			"menu":   resp.Name,
			"recipe": resp.Recipe,
		})
	}
}
