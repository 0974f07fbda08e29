package service

import (
	"github.com/shoplite/shoplite/internal/models"
	"github.com/shoplite/shoplite/internal/repository"
)

// CartItemDetail 购物车项详情（用于响应）
type CartItemDetail struct {
	ID        uint            `json:"id"`
	ProductID uint            `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice models.Money    `json:"unit_price"`
	Subtotal  models.Money    `json:"subtotal"`
	Product   *models.Product `json:"product,omitempty"`
}

// CartDetail 购物车详情（用于响应）
type CartDetail struct {
	Items []CartItemDetail `json:"items"`
	Total models.Money     `json:"total"`
}

// AddCartItemInput 加购输入
type AddCartItemInput struct {
	UserID    uint
	ProductID uint
	Quantity  int
}

// CartService 购物车服务
type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

// NewCartService 创建购物车服务
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// GetByUser 获取用户购物车详情, 未创建时返回空购物车
func (s *CartService) GetByUser(userID uint) (*CartDetail, error) {
	cart, err := s.cartRepo.GetByUser(userID)
	if err != nil {
		return nil, err
	}
	detail := &CartDetail{
		Items: []CartItemDetail{},
		Total: models.NewMoneyFromFloat(0),
	}
	if cart == nil {
		return detail, nil
	}

	total := models.NewMoneyFromFloat(0)
	for _, item := range cart.Items {
		unitPrice := models.NewMoneyFromFloat(0)
		if item.Product != nil {
			unitPrice = item.Product.Price
		}
		subtotal := unitPrice.Mul(int64(item.Quantity))
		total = total.Add(subtotal)
		detail.Items = append(detail.Items, CartItemDetail{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: unitPrice,
			Subtotal:  subtotal,
			Product:   item.Product,
		})
	}
	detail.Total = total
	return detail, nil
}

// AddItem 加购商品, 已存在时累加数量, 返回条目所在购物车
func (s *CartService) AddItem(input AddCartItemInput) (*CartDetail, error) {
	if input.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	product, err := s.productRepo.GetActiveByID(input.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	cart, err := s.cartRepo.GetOrCreateByUser(input.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.cartRepo.AddItemQuantity(cart.ID, input.ProductID, input.Quantity); err != nil {
		return nil, err
	}
	return s.GetByUser(input.UserID)
}

// UpdateItemQuantity 覆盖条目数量
func (s *CartService) UpdateItemQuantity(userID, itemID uint, quantity int) (*CartDetail, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	item, err := s.cartRepo.GetItemByIDAndUser(itemID, userID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrCartItemNotFound
	}
	if err := s.cartRepo.UpdateItemQuantity(item.ID, quantity); err != nil {
		return nil, err
	}
	return s.GetByUser(userID)
}

// RemoveItem 删除条目
func (s *CartService) RemoveItem(userID, itemID uint) error {
	item, err := s.cartRepo.GetItemByIDAndUser(itemID, userID)
	if err != nil {
		return err
	}
	if item == nil {
		return ErrCartItemNotFound
	}
	return s.cartRepo.DeleteItem(item.ID)
}
