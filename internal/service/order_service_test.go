package service

import (
	"errors"
	"testing"

	"github.com/shoplite/shoplite/internal/constants"
	"github.com/shoplite/shoplite/internal/models"
	"github.com/shoplite/shoplite/internal/repository"
)

func newOrderServiceForTest(t *testing.T) (*OrderService, *CartService) {
	t.Helper()
	db := setupServiceTestDB(t)
	cartRepo := repository.NewCartRepository(db)
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)

	seedProduct(t, db, "键盘", 10.00, true)
	seedProduct(t, db, "手冲壶", 5.50, true)

	orderSvc := NewOrderService(orderRepo, cartRepo, productRepo, nil, "USD")
	cartSvc := NewCartService(cartRepo, productRepo)
	return orderSvc, cartSvc
}

func TestCheckoutBuildsOrderFromCart(t *testing.T) {
	orderSvc, cartSvc := newOrderServiceForTest(t)

	if _, err := cartSvc.AddItem(AddCartItemInput{UserID: 1, ProductID: 1, Quantity: 2}); err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	if _, err := cartSvc.AddItem(AddCartItemInput{UserID: 1, ProductID: 2, Quantity: 1}); err != nil {
		t.Fatalf("add item failed: %v", err)
	}

	order, err := orderSvc.Checkout(CheckoutInput{
		UserID:             1,
		TransactionDetails: models.JSON{"paypal_order_id": "PP-123", "method": "paypal"},
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	if order.TotalAmount.String() != "25.50" {
		t.Fatalf("expected total 25.50, got %s", order.TotalAmount.String())
	}
	if order.PaymentState != constants.PaymentStatePending {
		t.Fatalf("expected pending state, got %s", order.PaymentState)
	}
	if order.ProviderRef != "PP-123" {
		t.Fatalf("expected provider ref PP-123, got %s", order.ProviderRef)
	}
	if order.Currency != "USD" {
		t.Fatalf("expected USD, got %s", order.Currency)
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(order.Items))
	}
	for _, item := range order.Items {
		expected := item.UnitPrice.Mul(int64(item.Quantity))
		if !item.TotalPrice.Decimal.Equal(expected.Decimal) {
			t.Fatalf("line total mismatch: %s != %s", item.TotalPrice, expected)
		}
		if item.ProductName == "" {
			t.Fatalf("expected product name snapshot")
		}
	}

	// 结算成功后购物车被清空
	detail, err := cartSvc.GetByUser(1)
	if err != nil {
		t.Fatalf("get cart failed: %v", err)
	}
	if len(detail.Items) != 0 {
		t.Fatalf("expected cart cleared, got %d items", len(detail.Items))
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	orderSvc, _ := newOrderServiceForTest(t)

	if _, err := orderSvc.Checkout(CheckoutInput{UserID: 9}); !errors.Is(err, ErrCartEmpty) {
		t.Fatalf("expected ErrCartEmpty, got %v", err)
	}

	// 结算失败不产生订单
	var count int64
	if err := models.DB.Model(&models.Order{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no orders, got %d", count)
	}
}

func TestCheckoutWithoutProviderRef(t *testing.T) {
	orderSvc, cartSvc := newOrderServiceForTest(t)

	if _, err := cartSvc.AddItem(AddCartItemInput{UserID: 2, ProductID: 2, Quantity: 1}); err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	order, err := orderSvc.Checkout(CheckoutInput{UserID: 2})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if order.ProviderRef != "" {
		t.Fatalf("expected empty provider ref, got %s", order.ProviderRef)
	}
	if order.OrderNo == "" {
		t.Fatalf("expected order number")
	}
}

func TestOrderQueriesScopedToUser(t *testing.T) {
	orderSvc, cartSvc := newOrderServiceForTest(t)

	if _, err := cartSvc.AddItem(AddCartItemInput{UserID: 1, ProductID: 1, Quantity: 1}); err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	order, err := orderSvc.Checkout(CheckoutInput{UserID: 1})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	if _, err := orderSvc.GetByIDAndUser(order.ID, 2); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound for other user, got %v", err)
	}
	got, err := orderSvc.GetByIDAndUser(order.ID, 1)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.ID != order.ID {
		t.Fatalf("expected order %d, got %d", order.ID, got.ID)
	}

	orders, total, err := orderSvc.ListByUser(1, repository.OrderListParams{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || len(orders) != 1 {
		t.Fatalf("expected one order, got total=%d len=%d", total, len(orders))
	}
}
