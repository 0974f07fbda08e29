package repository

import (
	"errors"

	"github.com/shoplite/shoplite/internal/models"

	"gorm.io/gorm"
)

// OrderListParams 订单列表查询参数
type OrderListParams struct {
	Page     int
	PageSize int
	State    string
}

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	Create(order *models.Order, items []models.OrderItem) error
	GetByID(id uint) (*models.Order, error)
	GetByIDAndUser(id, userID uint) (*models.Order, error)
	GetByOrderNo(orderNo string) (*models.Order, error)
	GetByProviderRef(provider, providerRef string) (*models.Order, error)
	ListByUser(userID uint, params OrderListParams) ([]models.Order, int64, error)
	UpdatePaymentStateIf(id uint, fromState string, updates map[string]interface{}) (int64, error)
	WithTx(tx *gorm.DB) *GormOrderRepository
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) *GormOrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

// Create 创建订单与订单明细, 明细自动关联订单 ID
func (r *GormOrderRepository) Create(order *models.Order, items []models.OrderItem) error {
	if err := r.db.Create(order).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].OrderID = order.ID
	}
	if err := r.db.Create(&items).Error; err != nil {
		return err
	}
	order.Items = items
	return nil
}

// GetByID 根据 ID 获取订单, 预加载明细
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByIDAndUser 根据 ID 获取订单, 同时校验归属用户
func (r *GormOrderRepository) GetByIDAndUser(id, userID uint) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("Items").Where("user_id = ?", userID).First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByOrderNo 根据订单号获取订单
func (r *GormOrderRepository) GetByOrderNo(orderNo string) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("Items").Where("order_no = ?", orderNo).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByProviderRef 根据支付渠道引用获取订单
func (r *GormOrderRepository) GetByProviderRef(provider, providerRef string) (*models.Order, error) {
	if providerRef == "" {
		return nil, nil
	}
	var order models.Order
	err := r.db.
		Where("payment_provider = ? AND provider_ref = ?", provider, providerRef).
		Order("id DESC").
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// ListByUser 分页查询用户订单
func (r *GormOrderRepository) ListByUser(userID uint, params OrderListParams) ([]models.Order, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}

	query := r.db.Model(&models.Order{}).Where("user_id = ?", userID)
	if params.State != "" {
		query = query.Where("payment_state = ?", params.State)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	offset := (params.Page - 1) * params.PageSize
	err := query.Preload("Items").Order("id DESC").Offset(offset).Limit(params.PageSize).Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// UpdatePaymentStateIf 条件更新支付状态, 仅当前状态匹配时生效, 返回影响行数
func (r *GormOrderRepository) UpdatePaymentStateIf(id uint, fromState string, updates map[string]interface{}) (int64, error) {
	result := r.db.Model(&models.Order{}).
		Where("id = ? AND payment_state = ?", id, fromState).
		Updates(updates)
	return result.RowsAffected, result.Error
}
