package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product 商品表（核心视角下为只读参照数据）
type Product struct {
	ID          uint            `gorm:"primarykey" json:"id"`                             // 主键
	Name        string          `gorm:"not null;index" json:"name"`                       // 商品名称
	Description string          `gorm:"type:text" json:"description"`                     // 商品描述
	Price       Money           `gorm:"type:decimal(20,2);not null;default:0" json:"price"` // 单价
	Weight      decimal.Decimal `gorm:"type:decimal(10,3);not null;default:0" json:"weight"` // 重量（千克）
	ImageURL    string          `gorm:"type:varchar(500)" json:"image_url"`               // 商品图片
	IsActive    bool            `gorm:"default:true;index" json:"is_active"`              // 是否上架
	CreatedAt   time.Time       `gorm:"index" json:"created_at"`                          // 创建时间
	UpdatedAt   time.Time       `json:"updated_at"`                                       // 更新时间
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`                                   // 软删除时间
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}
