package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shoplite/shoplite/internal/constants"
	"github.com/shoplite/shoplite/internal/logger"
	"github.com/shoplite/shoplite/internal/models"
	"github.com/shoplite/shoplite/internal/payment/paypal"
	"github.com/shoplite/shoplite/internal/repository"

	"go.uber.org/zap"
)

// PaymentService 支付对账服务
type PaymentService struct {
	orderRepo repository.OrderRepository
	paypalCfg *paypal.Config
}

// NewPaymentService 创建支付对账服务
func NewPaymentService(orderRepo repository.OrderRepository, paypalCfg *paypal.Config) *PaymentService {
	if paypalCfg != nil {
		paypalCfg.Normalize()
	}
	return &PaymentService{
		orderRepo: orderRepo,
		paypalCfg: paypalCfg,
	}
}

// WebhookInput 支付回调输入
type WebhookInput struct {
	Context context.Context
	Headers http.Header
	Body    []byte
}

// WebhookResult 支付回调处理结果
type WebhookResult struct {
	Order       *models.Order
	EventType   string
	TargetState string
	Applied     bool // 本次投递产生了状态变更
	Duplicate   bool // 订单已处于目标状态, 重复投递
	Ignored     bool // 与支付结果无关或找不到订单
	Reason      string
}

// HandlePaypalWebhook 处理 PayPal webhook 通知。
// 先验签后处理, 验签失败一律拒绝; 状态迁移只允许 pending 出发,
// 终态订单收到重复通知按成功空操作返回。
func (s *PaymentService) HandlePaypalWebhook(input WebhookInput) (*WebhookResult, error) {
	log := paymentLogger("provider", constants.PaymentProviderPaypal, "body_size", len(input.Body))

	event, err := paypal.ParseWebhookEvent(input.Body)
	if err != nil {
		log.Warnw("payment_webhook_payload_invalid", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrWebhookPayloadInvalid, err)
	}
	log = log.With("event_type", event.EventType, "event_id", event.ID)

	ctx := input.Context
	if ctx == nil {
		ctx = context.Background()
	}
	if err := paypal.VerifyWebhookSignature(ctx, s.paypalCfg, input.Headers, input.Body); err != nil {
		log.Warnw("payment_webhook_signature_invalid", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrWebhookVerifyFailed, err)
	}

	result := &WebhookResult{EventType: event.EventType}

	targetState, relevant := paypal.ToPaymentState(event.EventType, event.ResourceStatus())
	if !relevant {
		log.Infow("payment_webhook_event_ignored")
		result.Ignored = true
		result.Reason = "event type not related to payment outcome"
		return result, nil
	}
	result.TargetState = targetState

	providerRef := strings.TrimSpace(event.RelatedOrderID())
	if providerRef == "" {
		log.Warnw("payment_webhook_related_order_missing")
		result.Ignored = true
		result.Reason = "related order id missing"
		return result, nil
	}

	order, err := s.orderRepo.GetByProviderRef(constants.PaymentProviderPaypal, providerRef)
	if err != nil {
		log.Errorw("payment_webhook_order_lookup_failed", "provider_ref", providerRef, "error", err)
		return nil, err
	}
	if order == nil {
		log.Infow("payment_webhook_order_not_found", "provider_ref", providerRef)
		result.Ignored = true
		result.Reason = "no matching order"
		return result, nil
	}
	result.Order = order
	log = log.With("order_id", order.ID, "order_no", order.OrderNo)

	updates := map[string]interface{}{
		"payment_state": targetState,
		"updated_at":    time.Now(),
	}
	if targetState == constants.PaymentStateCompleted {
		paidAt := event.PaidAt()
		if paidAt == nil {
			now := time.Now()
			paidAt = &now
		}
		updates["paid_at"] = paidAt
	}

	rows, err := s.orderRepo.UpdatePaymentStateIf(order.ID, constants.PaymentStatePending, updates)
	if err != nil {
		log.Errorw("payment_webhook_state_update_failed", "target_state", targetState, "error", err)
		return nil, err
	}
	if rows == 0 {
		// 订单已离开 pending, 区分重复投递与冲突投递
		current, err := s.orderRepo.GetByID(order.ID)
		if err != nil {
			return nil, err
		}
		if current != nil {
			result.Order = current
		}
		if current != nil && current.PaymentState == targetState {
			log.Infow("payment_webhook_duplicate_delivery", "target_state", targetState)
			result.Duplicate = true
			return result, nil
		}
		log.Warnw("payment_webhook_state_conflict",
			"target_state", targetState,
			"current_state", currentState(current),
		)
		result.Ignored = true
		result.Reason = "order already in terminal state"
		return result, nil
	}

	updated, err := s.orderRepo.GetByID(order.ID)
	if err == nil && updated != nil {
		result.Order = updated
	}
	result.Applied = true
	log.Infow("payment_webhook_state_applied", "target_state", targetState)
	return result, nil
}

func currentState(order *models.Order) string {
	if order == nil {
		return ""
	}
	return order.PaymentState
}

func paymentLogger(kv ...interface{}) *zap.SugaredLogger {
	return logger.SW(kv...)
}
