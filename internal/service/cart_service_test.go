package service

import (
	"errors"
	"testing"

	"github.com/shoplite/shoplite/internal/repository"
)

func newCartServiceForTest(t *testing.T) (*CartService, *repository.GormCartRepository) {
	t.Helper()
	db := setupServiceTestDB(t)
	cartRepo := repository.NewCartRepository(db)
	productRepo := repository.NewProductRepository(db)
	svc := NewCartService(cartRepo, productRepo)

	seedProduct(t, db, "键盘", 10.00, true)
	seedProduct(t, db, "手冲壶", 5.50, true)
	seedProduct(t, db, "下架商品", 3.00, false)
	return svc, cartRepo
}

func TestCartServiceAddItemValidation(t *testing.T) {
	svc, _ := newCartServiceForTest(t)

	if _, err := svc.AddItem(AddCartItemInput{UserID: 1, ProductID: 1, Quantity: 0}); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
	if _, err := svc.AddItem(AddCartItemInput{UserID: 1, ProductID: 999, Quantity: 1}); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
	// 下架商品等同不存在
	if _, err := svc.AddItem(AddCartItemInput{UserID: 1, ProductID: 3, Quantity: 1}); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound for inactive product, got %v", err)
	}
}

func TestCartServiceAddItemAccumulatesAndTotals(t *testing.T) {
	svc, _ := newCartServiceForTest(t)

	if _, err := svc.AddItem(AddCartItemInput{UserID: 1, ProductID: 1, Quantity: 2}); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	detail, err := svc.AddItem(AddCartItemInput{UserID: 1, ProductID: 1, Quantity: 3})
	if err != nil {
		t.Fatalf("second add failed: %v", err)
	}
	if len(detail.Items) != 1 {
		t.Fatalf("expected one line, got %d", len(detail.Items))
	}
	if detail.Items[0].Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", detail.Items[0].Quantity)
	}
	if detail.Total.String() != "50.00" {
		t.Fatalf("expected total 50.00, got %s", detail.Total.String())
	}
}

func TestCartServiceUpdateAndRemoveItem(t *testing.T) {
	svc, _ := newCartServiceForTest(t)

	detail, err := svc.AddItem(AddCartItemInput{UserID: 1, ProductID: 2, Quantity: 1})
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	itemID := detail.Items[0].ID

	updated, err := svc.UpdateItemQuantity(1, itemID, 4)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Items[0].Quantity != 4 {
		t.Fatalf("expected quantity 4, got %d", updated.Items[0].Quantity)
	}
	if updated.Total.String() != "22.00" {
		t.Fatalf("expected total 22.00, got %s", updated.Total.String())
	}

	if _, err := svc.UpdateItemQuantity(1, itemID, 0); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
	// 他人条目不可见
	if _, err := svc.UpdateItemQuantity(2, itemID, 1); !errors.Is(err, ErrCartItemNotFound) {
		t.Fatalf("expected ErrCartItemNotFound for other user, got %v", err)
	}

	if err := svc.RemoveItem(1, itemID); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if err := svc.RemoveItem(1, itemID); !errors.Is(err, ErrCartItemNotFound) {
		t.Fatalf("expected ErrCartItemNotFound after removal, got %v", err)
	}
}

func TestCartServiceGetByUserEmpty(t *testing.T) {
	svc, _ := newCartServiceForTest(t)

	detail, err := svc.GetByUser(42)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(detail.Items) != 0 {
		t.Fatalf("expected empty cart")
	}
	if detail.Total.String() != "0.00" {
		t.Fatalf("expected zero total, got %s", detail.Total.String())
	}
}
