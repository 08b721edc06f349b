package sales

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kafe-backend/internal/database"
	"kafe-backend/internal/menu"
	"kafe-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("test veritabanı açılamadı: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migration hatası: %v", err)
	}
	database.DB = db

	app := fiber.New()
	api := app.Group("/api")
	api.Get("/sales", ListSalesHandler())
	api.Post("/sales", CreateSaleHandler())
	api.Get("/sales/daily/:date", DailySummaryHandler())
	api.Get("/sales/:id", GetSaleHandler())
	return app
}

// seedLatte: Kahve + süt reçeteli bir menü ve malzemelerini kurar.
func seedLatte(t *testing.T, coffeeStock, milkStock float64) (menuID, coffeeID, milkID uint) {
	t.Helper()

	coffee := models.Ingredient{Name: "Kahve", Unit: "gram", Stock: coffeeStock, PricePerGram: 2}
	milk := models.Ingredient{Name: "Süt", Unit: "ml", Stock: milkStock, PricePerGram: 1}
	if err := database.DB.Create(&coffee).Error; err != nil {
		t.Fatalf("malzeme oluşturulamadı: %v", err)
	}
	if err := database.DB.Create(&milk).Error; err != nil {
		t.Fatalf("malzeme oluşturulamadı: %v", err)
	}

	latte := models.MenuItem{
		Name: "Latte",
		Recipe: []models.RecipeItem{
			{IngredientID: coffee.ID, Quantity: 10, WastePercent: 10},
			{IngredientID: milk.ID, Quantity: 5, WastePercent: 0},
		},
	}
	if err := database.DB.Create(&latte).Error; err != nil {
		t.Fatalf("menü oluşturulamadı: %v", err)
	}
	return latte.ID, coffee.ID, milk.ID
}

func postJSON(t *testing.T, app *fiber.App, path string, payload any) *http.Response {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("istek gövdesi oluşturulamadı: %v", err)
	}
	req := httptest.NewRequest("POST", path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("istek başarısız: %v", err)
	}
	return resp
}

func getJSON(t *testing.T, app *fiber.App, path string) *http.Response {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest("GET", path, nil), -1)
	if err != nil {
		t.Fatalf("istek başarısız: %v", err)
	}
	return resp
}

func ingredientStock(t *testing.T, id uint) float64 {
	t.Helper()

	var ingredient models.Ingredient
	if err := database.DB.First(&ingredient, "id = ?", id).Error; err != nil {
		t.Fatalf("malzeme okunamadı: %v", err)
	}
	return ingredient.Stock
}

func TestCreateSaleDebitsStockAndWritesLogs(t *testing.T) {
	app := setupTestApp(t)
	menuID, coffeeID, milkID := seedLatte(t, 100, 50)

	resp := postJSON(t, app, "/api/sales", CreateSaleRequest{
		MenuID:   menuID,
		Date:     "2025-12-09",
		Quantity: 3,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var body CreateSaleResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("yanıt çözümlenemedi: %v", err)
	}

	// Kahve: 30 + 3 fire = 33, maliyet 66. Süt: 15 + 0 = 15, maliyet 15.
	if body.TotalCost != 81 {
		t.Fatalf("total cost: expected 81, got %v", body.TotalCost)
	}
	if len(body.UsageDetails) != 2 {
		t.Fatalf("expected 2 usage details, got %d", len(body.UsageDetails))
	}
	if body.UsageDetails[0].IngredientID != coffeeID {
		t.Fatalf("usage order: expected coffee first")
	}
	if body.UsageDetails[0].TotalUsage != 33 || body.UsageDetails[0].QuantityWaste != 3 {
		t.Fatalf("coffee usage: got %+v", body.UsageDetails[0])
	}

	if got := ingredientStock(t, coffeeID); got != 67 {
		t.Fatalf("coffee stock: expected 67, got %v", got)
	}
	if got := ingredientStock(t, milkID); got != 35 {
		t.Fatalf("milk stock: expected 35, got %v", got)
	}

	var logCount int64
	database.DB.Model(&models.UsageLog{}).Where("sale_id = ?", body.Sale.ID).Count(&logCount)
	if logCount != 2 {
		t.Fatalf("expected 2 usage logs, got %d", logCount)
	}
}

func TestCreateSaleExactStockReachesZero(t *testing.T) {
	app := setupTestApp(t)
	// Kahve ihtiyacı 3 adet için tam 33, süt 15
	menuID, coffeeID, _ := seedLatte(t, 33, 15)

	resp := postJSON(t, app, "/api/sales", CreateSaleRequest{
		MenuID:   menuID,
		Date:     "2025-12-09",
		Quantity: 3,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	if got := ingredientStock(t, coffeeID); got != 0 {
		t.Fatalf("coffee stock: expected 0, got %v", got)
	}
}

func TestCreateSaleInsufficientStockLeavesStateUntouched(t *testing.T) {
	app := setupTestApp(t)
	// Kahve yeterli, süt yetersiz: ikinci satırda patlamalı ve hiçbir şey yazılmamalı
	menuID, coffeeID, milkID := seedLatte(t, 100, 10)

	resp := postJSON(t, app, "/api/sales", CreateSaleRequest{
		MenuID:   menuID,
		Date:     "2025-12-09",
		Quantity: 3,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	if got := ingredientStock(t, coffeeID); got != 100 {
		t.Fatalf("coffee stock mutated: %v", got)
	}
	if got := ingredientStock(t, milkID); got != 10 {
		t.Fatalf("milk stock mutated: %v", got)
	}

	var saleCount, logCount int64
	database.DB.Model(&models.Sale{}).Count(&saleCount)
	database.DB.Model(&models.UsageLog{}).Count(&logCount)
	if saleCount != 0 || logCount != 0 {
		t.Fatalf("expected no persisted rows, got %d sales, %d logs", saleCount, logCount)
	}
}

func TestCreateSaleValidation(t *testing.T) {
	app := setupTestApp(t)
	menuID, _, _ := seedLatte(t, 100, 50)

	cases := []struct {
		name string
		req  CreateSaleRequest
		want int
	}{
		{"zero quantity", CreateSaleRequest{MenuID: menuID, Date: "2025-12-09", Quantity: 0}, http.StatusBadRequest},
		{"negative quantity", CreateSaleRequest{MenuID: menuID, Date: "2025-12-09", Quantity: -1}, http.StatusBadRequest},
		{"bad date", CreateSaleRequest{MenuID: menuID, Date: "09-12-2025", Quantity: 1}, http.StatusBadRequest},
		{"missing menu", CreateSaleRequest{MenuID: 9999, Date: "2025-12-09", Quantity: 1}, http.StatusNotFound},
		// Menü, miktar ve tarihten önce çözülür: olmayan menü + bozuk alanlar yine 404
		{"missing menu with bad quantity", CreateSaleRequest{MenuID: 9999, Date: "2025-12-09", Quantity: 0}, http.StatusNotFound},
		{"missing menu with bad date", CreateSaleRequest{MenuID: 9999, Date: "bozuk", Quantity: 1}, http.StatusNotFound},
	}

	for _, tc := range cases {
		resp := postJSON(t, app, "/api/sales", tc.req)
		if resp.StatusCode != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, resp.StatusCode)
		}
	}

	var saleCount int64
	database.DB.Model(&models.Sale{}).Count(&saleCount)
	if saleCount != 0 {
		t.Fatalf("expected no sales after failed requests, got %d", saleCount)
	}
}

func TestPersistSaleDetectsConcurrentDebit(t *testing.T) {
	setupTestApp(t)
	menuID, coffeeID, milkID := seedLatte(t, 100, 50)

	var menuItem models.MenuItem
	if err := menu.PreloadRecipe(database.DB).First(&menuItem, "id = ?", menuID).Error; err != nil {
		t.Fatalf("menü yüklenemedi: %v", err)
	}

	// Ön kontrol yüklü anlık görüntüye karşı geçer (kahve ihtiyacı 33 <= 100)
	usages, err := ComputeUsage(&menuItem, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Ön kontrol ile transaction arasında araya giren bir satış stoğu düşürür
	if err := database.DB.Model(&models.Ingredient{}).
		Where("id = ?", coffeeID).
		Update("stock", gorm.Expr("stock - ?", 70.0)).Error; err != nil {
		t.Fatalf("stok düşürülemedi: %v", err)
	}

	_, _, err = persistSale(&menuItem, time.Date(2025, 12, 9, 0, 0, 0, 0, time.UTC), 3, usages)
	var stockErr *StockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected *StockError, got %v", err)
	}
	if stockErr.IngredientID != coffeeID {
		t.Fatalf("ingredient id: expected %d, got %d", coffeeID, stockErr.IngredientID)
	}
	if stockErr.Required != 33 || stockErr.Available != 30 {
		t.Fatalf("expected required 33 / available 30, got %v / %v", stockErr.Required, stockErr.Available)
	}

	// Transaction geri alınmış olmalı: satış da log da yok, stoklar olduğu gibi
	var saleCount, logCount int64
	database.DB.Model(&models.Sale{}).Count(&saleCount)
	database.DB.Model(&models.UsageLog{}).Count(&logCount)
	if saleCount != 0 || logCount != 0 {
		t.Fatalf("expected no persisted rows, got %d sales, %d logs", saleCount, logCount)
	}
	if got := ingredientStock(t, coffeeID); got != 30 {
		t.Fatalf("coffee stock: expected 30, got %v", got)
	}
	if got := ingredientStock(t, milkID); got != 50 {
		t.Fatalf("milk stock: expected 50, got %v", got)
	}
}

func TestGetSaleWithUsageLogs(t *testing.T) {
	app := setupTestApp(t)
	menuID, _, _ := seedLatte(t, 100, 50)

	resp := postJSON(t, app, "/api/sales", CreateSaleRequest{MenuID: menuID, Date: "2025-12-09", Quantity: 1})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var created CreateSaleResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("yanıt çözümlenemedi: %v", err)
	}

	resp = getJSON(t, app, fmt.Sprintf("/api/sales/%d", created.Sale.ID))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Sale      SaleResponse       `json:"sale"`
		UsageLogs []UsageLogResponse `json:"usage_logs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("yanıt çözümlenemedi: %v", err)
	}
	if body.Sale.ID != created.Sale.ID {
		t.Fatalf("sale id: expected %d, got %d", created.Sale.ID, body.Sale.ID)
	}
	if len(body.UsageLogs) != 2 {
		t.Fatalf("expected 2 usage logs, got %d", len(body.UsageLogs))
	}

	resp = getJSON(t, app, "/api/sales/9999")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for missing sale, got %d", resp.StatusCode)
	}
}

func TestDailySummary(t *testing.T) {
	app := setupTestApp(t)
	menuID, _, _ := seedLatte(t, 1000, 500)

	for i := 0; i < 2; i++ {
		resp := postJSON(t, app, "/api/sales", CreateSaleRequest{MenuID: menuID, Date: "2025-12-09", Quantity: 3})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201, got %d", resp.StatusCode)
		}
	}
	// Başka bir güne de satış: özete karışmamalı
	resp := postJSON(t, app, "/api/sales", CreateSaleRequest{MenuID: menuID, Date: "2025-12-10", Quantity: 1})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	resp = getJSON(t, app, "/api/sales/daily/2025-12-09")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var summary DailySummaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		t.Fatalf("yanıt çözümlenemedi: %v", err)
	}
	if summary.TotalSales != 2 {
		t.Fatalf("total sales: expected 2, got %d", summary.TotalSales)
	}
	if summary.TotalItemsSold != 6 {
		t.Fatalf("items sold: expected 6, got %d", summary.TotalItemsSold)
	}
	// Satış başına: kullanım 45 (30 kahve + 15 süt), fire 3, maliyet 81
	if summary.TotalIngredientUsage != 90 {
		t.Fatalf("usage: expected 90, got %v", summary.TotalIngredientUsage)
	}
	if summary.TotalWaste != 6 {
		t.Fatalf("waste: expected 6, got %v", summary.TotalWaste)
	}
	if summary.TotalCost != 162 {
		t.Fatalf("cost: expected 162, got %v", summary.TotalCost)
	}
	if len(summary.Sales) != 2 {
		t.Fatalf("expected 2 sales in list, got %d", len(summary.Sales))
	}
}

func TestDailySummaryEmptyDay(t *testing.T) {
	app := setupTestApp(t)
	seedLatte(t, 100, 50)

	resp := getJSON(t, app, "/api/sales/daily/2025-01-01")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var summary DailySummaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		t.Fatalf("yanıt çözümlenemedi: %v", err)
	}
	if summary.TotalSales != 0 || summary.TotalItemsSold != 0 || summary.TotalCost != 0 {
		t.Fatalf("expected zeroed summary, got %+v", summary)
	}
	if len(summary.Sales) != 0 {
		t.Fatalf("expected empty sales list, got %d", len(summary.Sales))
	}

	resp = getJSON(t, app, "/api/sales/daily/not-a-date")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad date, got %d", resp.StatusCode)
	}
}
