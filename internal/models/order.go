package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表（结算时一次性生成，金额与订单项此后不变）
type Order struct {
	ID                 uint           `gorm:"primarykey" json:"id"`                                      // 主键
	OrderNo            string         `gorm:"uniqueIndex;not null" json:"order_no"`                      // 订单编号
	UserID             uint           `gorm:"index;not null" json:"user_id"`                             // 用户ID
	PaymentState       string         `gorm:"index;not null" json:"payment_state"`                       // 支付状态（pending/completed/failed）
	PaymentProvider    string         `gorm:"index;not null;default:paypal" json:"payment_provider"`     // 支付渠道
	Currency           string         `gorm:"not null" json:"currency"`                                  // 币种
	TotalAmount        Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"` // 订单总额（创建时固定）
	TransactionDetails JSON           `gorm:"type:json" json:"transaction_details"`                      // 支付侧载荷（结算请求原样保存）
	ProviderRef        string         `gorm:"index" json:"provider_ref"`                                 // 支付提供方订单号（webhook 对账键）
	PaidAt             *time.Time     `gorm:"index" json:"paid_at"`                                      // 支付完成时间
	CreatedAt          time.Time      `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt          time.Time      `gorm:"index" json:"updated_at"`                                   // 更新时间
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"` // 订单项
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
