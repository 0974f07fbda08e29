package paypal

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shoplite/shoplite/internal/constants"
)

// WebhookEvent PayPal Webhook 事件。
type WebhookEvent struct {
	ID         string                 `json:"id"`
	EventType  string                 `json:"event_type"`
	CreateTime string                 `json:"create_time"`
	Resource   map[string]interface{} `json:"resource"`
}

// ParseWebhookEvent 解析 Webhook 事件。
func ParseWebhookEvent(body []byte) (*WebhookEvent, error) {
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: webhook body is empty", ErrResponseInvalid)
	}
	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("%w: webhook body invalid", ErrResponseInvalid)
	}
	event.ID = strings.TrimSpace(event.ID)
	event.EventType = strings.TrimSpace(event.EventType)
	event.CreateTime = strings.TrimSpace(event.CreateTime)
	if event.EventType == "" {
		return nil, fmt.Errorf("%w: event_type is missing", ErrResponseInvalid)
	}
	if event.Resource == nil {
		event.Resource = map[string]interface{}{}
	}
	return &event, nil
}

// RelatedOrderID 提取事件关联的 PayPal 订单号, 用于回查本地订单。
func (e *WebhookEvent) RelatedOrderID() string {
	if e == nil {
		return ""
	}
	if id := digString(e.Resource, "supplementary_data", "related_ids", "order_id"); id != "" {
		return id
	}
	if strings.HasPrefix(strings.ToUpper(e.EventType), "CHECKOUT.ORDER") {
		if id := digString(e.Resource, "id"); id != "" {
			return id
		}
	}
	// PAYMENT.SALE.* 事件把订单号放在 parent_payment
	if id := digString(e.Resource, "parent_payment"); id != "" {
		return id
	}
	return digString(e.Resource, "order_id")
}

// CaptureAmount 提取捕获金额和币种, 兼容 v1 (total/currency) 与 v2 (value/currency_code)。
func (e *WebhookEvent) CaptureAmount() (string, string) {
	if e == nil {
		return "", ""
	}
	if value := digString(e.Resource, "amount", "value"); value != "" {
		return value, digString(e.Resource, "amount", "currency_code")
	}
	return digString(e.Resource, "amount", "total"), digString(e.Resource, "amount", "currency")
}

// PaidAt 提取支付时间。
func (e *WebhookEvent) PaidAt() *time.Time {
	if e == nil {
		return nil
	}
	candidates := []string{
		digString(e.Resource, "create_time"),
		digString(e.Resource, "update_time"),
		e.CreateTime,
	}
	for _, raw := range candidates {
		if raw == "" {
			continue
		}
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			return &parsed
		}
	}
	return nil
}

// ResourceStatus 提取资源状态。
func (e *WebhookEvent) ResourceStatus() string {
	if e == nil {
		return ""
	}
	return digString(e.Resource, "status")
}

// ToPaymentState 映射 PayPal 事件到本地支付状态。
// 返回 false 表示该事件与支付结果无关, 应当忽略。
func ToPaymentState(eventType, resourceStatus string) (string, bool) {
	eventType = strings.ToUpper(strings.TrimSpace(eventType))
	resourceStatus = strings.ToUpper(strings.TrimSpace(resourceStatus))

	switch eventType {
	case "PAYMENT.CAPTURE.COMPLETED", "PAYMENT.SALE.COMPLETED", "CHECKOUT.ORDER.COMPLETED":
		return constants.PaymentStateCompleted, true
	case "PAYMENT.CAPTURE.DENIED", "PAYMENT.CAPTURE.DECLINED", "PAYMENT.CAPTURE.FAILED",
		"PAYMENT.SALE.DENIED", "CHECKOUT.ORDER.DENIED":
		return constants.PaymentStateFailed, true
	}

	switch resourceStatus {
	case "COMPLETED":
		return constants.PaymentStateCompleted, true
	case "DENIED", "DECLINED", "FAILED", "VOIDED":
		return constants.PaymentStateFailed, true
	}

	return "", false
}

// digString 沿嵌套 map 路径取字符串值
func digString(node map[string]interface{}, path ...string) string {
	for i, key := range path {
		if i == len(path)-1 {
			value, ok := node[key]
			if !ok || value == nil {
				return ""
			}
			if text, ok := value.(string); ok {
				return strings.TrimSpace(text)
			}
			return strings.TrimSpace(fmt.Sprint(value))
		}
		child, ok := node[key].(map[string]interface{})
		if !ok {
			return ""
		}
		node = child
	}
	return ""
}
