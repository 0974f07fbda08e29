package repository

import (
	"fmt"
	"testing"

	"github.com/shoplite/shoplite/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
	); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return db
}

func createTestProduct(t *testing.T, db *gorm.DB, name string, price float64) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:     name,
		Price:    models.NewMoneyFromDecimal(decimal.NewFromFloat(price)),
		IsActive: true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return product
}

func TestCartRepositoryAddItemQuantityAccumulates(t *testing.T) {
	db := openTestDB(t)
	repo := NewCartRepository(db)
	product := createTestProduct(t, db, "键盘", 59.90)

	cart, err := repo.GetOrCreateByUser(1)
	if err != nil {
		t.Fatalf("get or create cart failed: %v", err)
	}
	if err := repo.AddItemQuantity(cart.ID, product.ID, 2); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	if err := repo.AddItemQuantity(cart.ID, product.ID, 3); err != nil {
		t.Fatalf("second add failed: %v", err)
	}

	var items []models.CartItem
	if err := db.Where("cart_id = ?", cart.ID).Find(&items).Error; err != nil {
		t.Fatalf("list items failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected a single row, got %d", len(items))
	}
	if items[0].Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", items[0].Quantity)
	}
}

func TestCartRepositoryGetOrCreateIdempotent(t *testing.T) {
	db := openTestDB(t)
	repo := NewCartRepository(db)

	first, err := repo.GetOrCreateByUser(7)
	if err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	second, err := repo.GetOrCreateByUser(7)
	if err != nil {
		t.Fatalf("second call failed: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected same cart, got %d and %d", first.ID, second.ID)
	}
}

func TestCartRepositoryItemOwnershipScoped(t *testing.T) {
	db := openTestDB(t)
	repo := NewCartRepository(db)
	product := createTestProduct(t, db, "手冲壶", 25.50)

	cart, err := repo.GetOrCreateByUser(1)
	if err != nil {
		t.Fatalf("get or create cart failed: %v", err)
	}
	if err := repo.AddItemQuantity(cart.ID, product.ID, 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	var item models.CartItem
	if err := db.Where("cart_id = ?", cart.ID).First(&item).Error; err != nil {
		t.Fatalf("fetch item failed: %v", err)
	}

	owned, err := repo.GetItemByIDAndUser(item.ID, 1)
	if err != nil || owned == nil {
		t.Fatalf("expected owner to see item, got %v %v", owned, err)
	}
	other, err := repo.GetItemByIDAndUser(item.ID, 2)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if other != nil {
		t.Fatalf("expected other user to see nothing")
	}
}

func TestCartRepositoryClearByUser(t *testing.T) {
	db := openTestDB(t)
	repo := NewCartRepository(db)
	product := createTestProduct(t, db, "收纳架", 12.00)

	cart, err := repo.GetOrCreateByUser(3)
	if err != nil {
		t.Fatalf("get or create cart failed: %v", err)
	}
	if err := repo.AddItemQuantity(cart.ID, product.ID, 2); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	if err := repo.ClearByUser(3); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	got, err := repo.GetByUser(3)
	if err != nil {
		t.Fatalf("get cart failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected cart removed after clear")
	}

	// 清空后重新加购应当从零开始
	cart, err = repo.GetOrCreateByUser(3)
	if err != nil {
		t.Fatalf("recreate cart failed: %v", err)
	}
	if err := repo.AddItemQuantity(cart.ID, product.ID, 1); err != nil {
		t.Fatalf("re-add after clear failed: %v", err)
	}
	var count int64
	if err := db.Model(&models.CartItem{}).Where("cart_id = ?", cart.ID).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one item, got %d", count)
	}
}
