package repository

import (
	"testing"
	"time"

	"github.com/shoplite/shoplite/internal/constants"
	"github.com/shoplite/shoplite/internal/models"

	"github.com/shopspring/decimal"
)

func createTestOrder(t *testing.T, repo *GormOrderRepository, providerRef string) *models.Order {
	t.Helper()
	order := &models.Order{
		OrderNo:         "SL20260901000001",
		UserID:          1,
		PaymentState:    constants.PaymentStatePending,
		PaymentProvider: constants.PaymentProviderPaypal,
		Currency:        "USD",
		TotalAmount:     models.NewMoneyFromDecimal(decimal.NewFromFloat(25.50)),
		ProviderRef:     providerRef,
	}
	items := []models.OrderItem{
		{ProductID: 1, ProductName: "键盘", UnitPrice: models.NewMoneyFromDecimal(decimal.NewFromFloat(10.00)), Quantity: 2, TotalPrice: models.NewMoneyFromDecimal(decimal.NewFromFloat(20.00))},
		{ProductID: 2, ProductName: "手冲壶", UnitPrice: models.NewMoneyFromDecimal(decimal.NewFromFloat(5.50)), Quantity: 1, TotalPrice: models.NewMoneyFromDecimal(decimal.NewFromFloat(5.50))},
	}
	if err := repo.Create(order, items); err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func TestOrderRepositoryCreateWithItems(t *testing.T) {
	db := openTestDB(t)
	repo := NewOrderRepository(db)
	order := createTestOrder(t, repo, "PAYPAL-REF-1")

	got, err := repo.GetByID(order.ID)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if got == nil {
		t.Fatalf("order not found")
	}
	if len(got.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(got.Items))
	}
	for _, item := range got.Items {
		if item.OrderID != order.ID {
			t.Fatalf("item not linked to order: %d", item.OrderID)
		}
	}
}

func TestOrderRepositoryUpdatePaymentStateIf(t *testing.T) {
	db := openTestDB(t)
	repo := NewOrderRepository(db)
	order := createTestOrder(t, repo, "PAYPAL-REF-2")

	now := time.Now()
	updates := map[string]interface{}{
		"payment_state": constants.PaymentStateCompleted,
		"paid_at":       &now,
	}
	rows, err := repo.UpdatePaymentStateIf(order.ID, constants.PaymentStatePending, updates)
	if err != nil {
		t.Fatalf("first transition failed: %v", err)
	}
	if rows != 1 {
		t.Fatalf("expected 1 row affected, got %d", rows)
	}

	// 重复投递不再产生变更
	rows, err = repo.UpdatePaymentStateIf(order.ID, constants.PaymentStatePending, updates)
	if err != nil {
		t.Fatalf("second transition errored: %v", err)
	}
	if rows != 0 {
		t.Fatalf("expected 0 rows on duplicate, got %d", rows)
	}

	got, err := repo.GetByID(order.ID)
	if err != nil || got == nil {
		t.Fatalf("reload failed: %v", err)
	}
	if got.PaymentState != constants.PaymentStateCompleted {
		t.Fatalf("expected completed, got %s", got.PaymentState)
	}
	if got.PaidAt == nil {
		t.Fatalf("expected paid_at set")
	}
}

func TestOrderRepositoryGetByProviderRef(t *testing.T) {
	db := openTestDB(t)
	repo := NewOrderRepository(db)
	order := createTestOrder(t, repo, "PAYPAL-REF-3")

	got, err := repo.GetByProviderRef(constants.PaymentProviderPaypal, "PAYPAL-REF-3")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if got == nil || got.ID != order.ID {
		t.Fatalf("expected order %d, got %+v", order.ID, got)
	}

	missing, err := repo.GetByProviderRef(constants.PaymentProviderPaypal, "UNKNOWN")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected no order for unknown ref")
	}

	empty, err := repo.GetByProviderRef(constants.PaymentProviderPaypal, "")
	if err != nil || empty != nil {
		t.Fatalf("expected nil for empty ref, got %+v %v", empty, err)
	}
}
