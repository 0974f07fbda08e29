package constants

// 订单支付状态常量
const (
	PaymentStatePending   = "pending"
	PaymentStateCompleted = "completed"
	PaymentStateFailed    = "failed"
)

// 支付提供方常量
const (
	PaymentProviderPaypal = "paypal"
)

// PayPal 环境常量
const (
	PaypalModeSandbox = "sandbox"
	PaypalModeLive    = "live"
)

// 队列名称常量
const (
	QueueDefault = "default"
)

// 异步任务类型常量
const (
	TaskOrderConfirmationEmail = "order:confirmation_email"
	TaskCartCleanup            = "cart:cleanup"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)
