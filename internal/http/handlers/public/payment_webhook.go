package public

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/shoplite/shoplite/internal/service"

	"github.com/gin-gonic/gin"
)

const webhookLogValueLimit = 512

// PaypalWebhook PayPal webhook 回调。
// 响应体遵循支付渠道约定: 成功/重复投递返回 success, 无关事件返回 ignored,
// 验签或载荷问题返回 400。
func (h *Handler) PaypalWebhook(c *gin.Context) {
	log := requestLog(c)
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Warnw("paypal_webhook_body_read_failed", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"status": "verification failed"})
		return
	}
	log.Infow("paypal_webhook_received",
		"client_ip", c.ClientIP(),
		"body_size", len(body),
		"paypal_transmission_id", strings.TrimSpace(c.GetHeader("Paypal-Transmission-Id")),
		"paypal_transmission_time", strings.TrimSpace(c.GetHeader("Paypal-Transmission-Time")),
		"paypal_auth_algo", strings.TrimSpace(c.GetHeader("Paypal-Auth-Algo")),
		"paypal_cert_url", truncateWebhookLogValue(strings.TrimSpace(c.GetHeader("Paypal-Cert-Url"))),
		"paypal_transmission_sig", truncateWebhookLogValue(strings.TrimSpace(c.GetHeader("Paypal-Transmission-Sig"))),
	)

	result, err := h.PaymentService.HandlePaypalWebhook(service.WebhookInput{
		Context: c.Request.Context(),
		Headers: c.Request.Header,
		Body:    body,
	})
	if err != nil {
		log.Warnw("paypal_webhook_handle_failed", "error", err)
		switch {
		case errors.Is(err, service.ErrWebhookPayloadInvalid), errors.Is(err, service.ErrWebhookVerifyFailed):
			c.JSON(http.StatusBadRequest, gin.H{"status": "verification failed"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error"})
		}
		return
	}

	if result.Ignored {
		log.Infow("paypal_webhook_ignored",
			"event_type", result.EventType,
			"reason", result.Reason,
		)
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	log.Infow("paypal_webhook_processed",
		"event_type", result.EventType,
		"target_state", result.TargetState,
		"applied", result.Applied,
		"duplicate", result.Duplicate,
	)
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func truncateWebhookLogValue(value string) string {
	if len(value) <= webhookLogValueLimit {
		return value
	}
	return value[:webhookLogValueLimit] + "...(truncated)"
}
