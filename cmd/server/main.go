package main

import (
	"log"
	"strings"

	"kafe-backend/internal/audit"
	"kafe-backend/internal/config"
	"kafe-backend/internal/database"
	"kafe-backend/internal/inventory"
	"kafe-backend/internal/menu"
	"kafe-backend/internal/sales"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Beklenmeyen sunucu hatası",
			})
		},
	})

	// CORS origins'i virgülle ayrılmış string'den array'e çevir
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"message": "Service is running",
		})
	})

	api := app.Group("/api")

	// Malzemeler (ham madde)
	api.Get("/ingredients", inventory.ListIngredientsHandler())
	api.Post("/ingredients", inventory.CreateIngredientHandler())
	api.Post("/ingredients/import", inventory.ImportIngredientsHandler())
	api.Get("/ingredients/:id", inventory.GetIngredientHandler())
	api.Put("/ingredients/:id", inventory.UpdateIngredientHandler())
	api.Delete("/ingredients/:id", inventory.DeleteIngredientHandler())

	// Menüler ve reçeteler
	api.Get("/menus", menu.ListMenusHandler())
	api.Post("/menus", menu.CreateMenuHandler())
	api.Get("/menus/:id", menu.GetMenuHandler())
	api.Put("/menus/:id", menu.UpdateMenuHandler())
	api.Delete("/menus/:id", menu.DeleteMenuHandler())
	api.Get("/menus/:id/recipe", menu.GetMenuRecipeHandler())

	// Satışlar
	api.Get("/sales", sales.ListSalesHandler())
	api.Post("/sales", sales.CreateSaleHandler())
	api.Get("/sales/daily/:date", sales.DailySummaryHandler())
	api.Get("/sales/:id", sales.GetSaleHandler())

	// Audit logs
	api.Get("/audit-logs", audit.ListAuditLogsHandler())

	log.Println("Server çalışıyor port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
