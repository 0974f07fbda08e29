package queue

import (
	"encoding/json"

	"github.com/shoplite/shoplite/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderConfirmationEmail 订单确认邮件任务
	TaskOrderConfirmationEmail = constants.TaskOrderConfirmationEmail
	// TaskCartCleanup 结算后购物车残留清理任务
	TaskCartCleanup = constants.TaskCartCleanup
)

// OrderConfirmationEmailPayload 订单确认邮件任务载荷
type OrderConfirmationEmailPayload struct {
	OrderID uint `json:"order_id"`
}

// CartCleanupPayload 购物车清理任务载荷
type CartCleanupPayload struct {
	UserID  uint `json:"user_id"`
	OrderID uint `json:"order_id"`
}

// NewOrderConfirmationEmailTask 创建订单确认邮件任务
func NewOrderConfirmationEmailTask(payload OrderConfirmationEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderConfirmationEmail, body), nil
}

// NewCartCleanupTask 创建购物车清理任务
func NewCartCleanupTask(payload CartCleanupPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCartCleanup, body), nil
}
