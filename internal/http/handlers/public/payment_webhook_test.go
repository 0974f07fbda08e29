package public

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shoplite/shoplite/internal/constants"
	"github.com/shoplite/shoplite/internal/models"
	"github.com/shoplite/shoplite/internal/payment/paypal"
	"github.com/shoplite/shoplite/internal/provider"
	"github.com/shoplite/shoplite/internal/repository"
	"github.com/shoplite/shoplite/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func newWebhookTestEngine(t *testing.T, verificationStatus string) (*gin.Engine, *repository.GormOrderRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Order{}, &models.OrderItem{}); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/oauth2/token":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"access_token": "test-token"})
		case "/v1/notifications/verify-webhook-signature":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"verification_status": verificationStatus})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(stub.Close)

	orderRepo := repository.NewOrderRepository(db)
	paypalCfg := &paypal.Config{
		Mode:         constants.PaypalModeSandbox,
		ClientID:     "client",
		ClientSecret: "secret",
		BaseURL:      stub.URL,
		WebhookID:    "WH-ID",
	}
	container := &provider.Container{
		OrderRepo:      orderRepo,
		PaymentService: service.NewPaymentService(orderRepo, paypalCfg),
	}
	handler := New(container)

	engine := gin.New()
	engine.POST("/api/v1/payments/webhook/paypal", handler.PaypalWebhook)
	return engine, orderRepo
}

func postWebhook(t *testing.T, engine *gin.Engine, body string, withHeaders bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook/paypal", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if withHeaders {
		req.Header.Set("Paypal-Transmission-Id", "trans-1")
		req.Header.Set("Paypal-Transmission-Time", "2026-09-01T10:00:00Z")
		req.Header.Set("Paypal-Cert-Url", "https://api.sandbox.paypal.com/cert")
		req.Header.Set("Paypal-Auth-Algo", "SHA256withRSA")
		req.Header.Set("Paypal-Transmission-Sig", "sig")
	}
	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, req)
	return recorder
}

func webhookStatus(t *testing.T, recorder *httptest.ResponseRecorder) string {
	t.Helper()
	var payload map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode webhook response failed: %v", err)
	}
	return payload["status"]
}

func seedWebhookOrder(t *testing.T, repo *repository.GormOrderRepository, providerRef string) *models.Order {
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

const completedEventBody = `{
	"id": "WH-1",
	"event_type": "PAYMENT.CAPTURE.COMPLETED",
	"resource": {
		"status": "COMPLETED",
		"create_time": "2026-09-01T10:00:00Z",
		"supplementary_data": {"related_ids": {"order_id": "PP-123"}}
	}
}`

func TestPaypalWebhookSuccess(t *testing.T) {
	engine, repo := newWebhookTestEngine(t, "SUCCESS")
	order := seedWebhookOrder(t, repo, "PP-123")

	recorder := postWebhook(t, engine, completedEventBody, true)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body %s", recorder.Code, recorder.Body.String())
	}
	if got := webhookStatus(t, recorder); got != "success" {
		t.Fatalf("expected success status, got %q", got)
	}

	reloaded, err := repo.GetByID(order.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.PaymentState != constants.PaymentStateCompleted {
		t.Fatalf("expected completed order, got %s", reloaded.PaymentState)
	}
}

func TestPaypalWebhookDuplicateStillSuccess(t *testing.T) {
	engine, repo := newWebhookTestEngine(t, "SUCCESS")
	seedWebhookOrder(t, repo, "PP-123")

	first := postWebhook(t, engine, completedEventBody, true)
	if first.Code != http.StatusOK {
		t.Fatalf("first delivery expected 200, got %d", first.Code)
	}
	second := postWebhook(t, engine, completedEventBody, true)
	if second.Code != http.StatusOK {
		t.Fatalf("duplicate delivery expected 200, got %d", second.Code)
	}
	if got := webhookStatus(t, second); got != "success" {
		t.Fatalf("duplicate delivery expected success status, got %q", got)
	}
}

func TestPaypalWebhookVerificationFailure(t *testing.T) {
	engine, repo := newWebhookTestEngine(t, "FAILURE")
	order := seedWebhookOrder(t, repo, "PP-123")

	recorder := postWebhook(t, engine, completedEventBody, true)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
	if got := webhookStatus(t, recorder); got != "verification failed" {
		t.Fatalf("expected verification failed status, got %q", got)
	}

	reloaded, _ := repo.GetByID(order.ID)
	if reloaded.PaymentState != constants.PaymentStatePending {
		t.Fatalf("failed verification must not change state, got %s", reloaded.PaymentState)
	}
}

func TestPaypalWebhookMissingTransmissionHeaders(t *testing.T) {
	engine, repo := newWebhookTestEngine(t, "SUCCESS")
	seedWebhookOrder(t, repo, "PP-123")

	recorder := postWebhook(t, engine, completedEventBody, false)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without transmission headers, got %d", recorder.Code)
	}
}

func TestPaypalWebhookIgnoredEvent(t *testing.T) {
	engine, _ := newWebhookTestEngine(t, "SUCCESS")

	body := `{"id":"WH-3","event_type":"CUSTOMER.DISPUTE.CREATED","resource":{}}`
	recorder := postWebhook(t, engine, body, true)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200 for unrelated event, got %d", recorder.Code)
	}
	if got := webhookStatus(t, recorder); got != "ignored" {
		t.Fatalf("expected ignored status, got %q", got)
	}
}

func TestPaypalWebhookMalformedBody(t *testing.T) {
	engine, _ := newWebhookTestEngine(t, "SUCCESS")

	recorder := postWebhook(t, engine, "not json", true)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", recorder.Code)
	}
	if got := webhookStatus(t, recorder); got != "verification failed" {
		t.Fatalf("expected verification failed status, got %q", got)
	}
}
