package service

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shoplite/shoplite/internal/constants"
	"github.com/shoplite/shoplite/internal/models"
	"github.com/shoplite/shoplite/internal/payment/paypal"
	"github.com/shoplite/shoplite/internal/repository"

	"github.com/shopspring/decimal"
)

func newPaypalStub(t *testing.T, verificationStatus string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/oauth2/token":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"access_token": "test-token"})
		case "/v1/notifications/verify-webhook-signature":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"verification_status": verificationStatus})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func paypalWebhookHeaders() http.Header {
	headers := http.Header{}
	headers.Set("Paypal-Transmission-Id", "trans-1")
	headers.Set("Paypal-Transmission-Time", "2026-09-01T10:00:00Z")
	headers.Set("Paypal-Cert-Url", "https://api.sandbox.paypal.com/cert")
	headers.Set("Paypal-Auth-Algo", "SHA256withRSA")
	headers.Set("Paypal-Transmission-Sig", "sig")
	return headers
}

func captureCompletedEvent(orderID string) []byte {
	body, _ := json.Marshal(map[string]interface{}{
		"id":         "WH-1",
		"event_type": "PAYMENT.CAPTURE.COMPLETED",
		"resource": map[string]interface{}{
			"status":      "COMPLETED",
			"create_time": "2026-09-01T10:00:00Z",
			"supplementary_data": map[string]interface{}{
				"related_ids": map[string]interface{}{"order_id": orderID},
			},
		},
	})
	return body
}

func newPaymentServiceForTest(t *testing.T, baseURL string) (*PaymentService, *repository.GormOrderRepository) {
	t.Helper()
	db := setupServiceTestDB(t)
	orderRepo := repository.NewOrderRepository(db)
	cfg := &paypal.Config{
		Mode:         constants.PaypalModeSandbox,
		ClientID:     "client",
		ClientSecret: "secret",
		BaseURL:      baseURL,
		WebhookID:    "WH-ID",
	}
	return NewPaymentService(orderRepo, cfg), orderRepo
}

func seedPendingOrder(t *testing.T, repo *repository.GormOrderRepository, providerRef string) *models.Order {
	t.Helper()
	order := &models.Order{
		OrderNo:         "SL20260901120000",
		UserID:          1,
		PaymentState:    constants.PaymentStatePending,
		PaymentProvider: constants.PaymentProviderPaypal,
		Currency:        "USD",
		TotalAmount:     models.NewMoneyFromDecimal(decimal.NewFromFloat(25.50)),
		ProviderRef:     providerRef,
	}
	if err := repo.Create(order, nil); err != nil {
		t.Fatalf("seed order failed: %v", err)
	}
	return order
}

func TestHandlePaypalWebhookAppliesCompletion(t *testing.T) {
	stub := newPaypalStub(t, "SUCCESS")
	defer stub.Close()
	svc, repo := newPaymentServiceForTest(t, stub.URL)
	order := seedPendingOrder(t, repo, "PP-123")

	result, err := svc.HandlePaypalWebhook(WebhookInput{
		Headers: paypalWebhookHeaders(),
		Body:    captureCompletedEvent("PP-123"),
	})
	if err != nil {
		t.Fatalf("webhook handling failed: %v", err)
	}
	if !result.Applied {
		t.Fatalf("expected state applied")
	}
	if result.Order == nil || result.Order.PaymentState != constants.PaymentStateCompleted {
		t.Fatalf("expected completed order, got %+v", result.Order)
	}
	if result.Order.PaidAt == nil {
		t.Fatalf("expected paid_at set")
	}

	got, err := repo.GetByID(order.ID)
	if err != nil || got == nil {
		t.Fatalf("reload failed: %v", err)
	}
	if got.PaymentState != constants.PaymentStateCompleted {
		t.Fatalf("expected completed in db, got %s", got.PaymentState)
	}
}

func TestHandlePaypalWebhookDuplicateDelivery(t *testing.T) {
	stub := newPaypalStub(t, "SUCCESS")
	defer stub.Close()
	svc, repo := newPaymentServiceForTest(t, stub.URL)
	seedPendingOrder(t, repo, "PP-123")

	input := WebhookInput{Headers: paypalWebhookHeaders(), Body: captureCompletedEvent("PP-123")}
	if _, err := svc.HandlePaypalWebhook(input); err != nil {
		t.Fatalf("first delivery failed: %v", err)
	}
	result, err := svc.HandlePaypalWebhook(input)
	if err != nil {
		t.Fatalf("second delivery failed: %v", err)
	}
	if result.Applied {
		t.Fatalf("duplicate delivery must not apply")
	}
	if !result.Duplicate {
		t.Fatalf("expected duplicate flag")
	}
}

func TestHandlePaypalWebhookVerificationFailure(t *testing.T) {
	stub := newPaypalStub(t, "FAILURE")
	defer stub.Close()
	svc, repo := newPaymentServiceForTest(t, stub.URL)
	order := seedPendingOrder(t, repo, "PP-123")

	_, err := svc.HandlePaypalWebhook(WebhookInput{
		Headers: paypalWebhookHeaders(),
		Body:    captureCompletedEvent("PP-123"),
	})
	if !errors.Is(err, ErrWebhookVerifyFailed) {
		t.Fatalf("expected ErrWebhookVerifyFailed, got %v", err)
	}

	got, _ := repo.GetByID(order.ID)
	if got.PaymentState != constants.PaymentStatePending {
		t.Fatalf("failed verification must not change state, got %s", got.PaymentState)
	}
}

func TestHandlePaypalWebhookMissingHeaders(t *testing.T) {
	stub := newPaypalStub(t, "SUCCESS")
	defer stub.Close()
	svc, _ := newPaymentServiceForTest(t, stub.URL)

	_, err := svc.HandlePaypalWebhook(WebhookInput{
		Headers: http.Header{},
		Body:    captureCompletedEvent("PP-123"),
	})
	if !errors.Is(err, ErrWebhookVerifyFailed) {
		t.Fatalf("expected ErrWebhookVerifyFailed, got %v", err)
	}
}

func TestHandlePaypalWebhookIgnoresUnrelatedEvent(t *testing.T) {
	stub := newPaypalStub(t, "SUCCESS")
	defer stub.Close()
	svc, _ := newPaymentServiceForTest(t, stub.URL)

	body, _ := json.Marshal(map[string]interface{}{
		"id":         "WH-2",
		"event_type": "CUSTOMER.DISPUTE.CREATED",
		"resource":   map[string]interface{}{},
	})
	result, err := svc.HandlePaypalWebhook(WebhookInput{Headers: paypalWebhookHeaders(), Body: body})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Ignored {
		t.Fatalf("expected ignored result")
	}
}

func TestHandlePaypalWebhookNoMatchingOrder(t *testing.T) {
	stub := newPaypalStub(t, "SUCCESS")
	defer stub.Close()
	svc, _ := newPaymentServiceForTest(t, stub.URL)

	result, err := svc.HandlePaypalWebhook(WebhookInput{
		Headers: paypalWebhookHeaders(),
		Body:    captureCompletedEvent("UNKNOWN-REF"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Ignored {
		t.Fatalf("expected ignored result for unmatched order")
	}
}

func TestHandlePaypalWebhookInvalidPayload(t *testing.T) {
	stub := newPaypalStub(t, "SUCCESS")
	defer stub.Close()
	svc, _ := newPaymentServiceForTest(t, stub.URL)

	_, err := svc.HandlePaypalWebhook(WebhookInput{Headers: paypalWebhookHeaders(), Body: []byte("not json")})
	if !errors.Is(err, ErrWebhookPayloadInvalid) {
		t.Fatalf("expected ErrWebhookPayloadInvalid, got %v", err)
	}
}
