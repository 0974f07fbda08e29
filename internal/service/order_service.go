package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/shoplite/shoplite/internal/constants"
	"github.com/shoplite/shoplite/internal/logger"
	"github.com/shoplite/shoplite/internal/models"
	"github.com/shoplite/shoplite/internal/queue"
	"github.com/shoplite/shoplite/internal/repository"

	"gorm.io/gorm"
)

// OrderService 订单服务
type OrderService struct {
	orderRepo   repository.OrderRepository
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	queueClient *queue.Client
	currency    string
}

// NewOrderService 创建订单服务
func NewOrderService(orderRepo repository.OrderRepository, cartRepo repository.CartRepository, productRepo repository.ProductRepository, queueClient *queue.Client, currency string) *OrderService {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = "USD"
	}
	return &OrderService{
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		queueClient: queueClient,
		currency:    currency,
	}
}

// CheckoutInput 结算输入
type CheckoutInput struct {
	UserID             uint
	TransactionDetails models.JSON
}

// Checkout 把当前购物车一次性转为待支付订单。
// 订单与明细在单个事务内落库, 事务失败时购物车保持原样;
// 事务提交后清空购物车为尽力而为, 失败不回滚订单, 转交异步任务兜底。
func (s *OrderService) Checkout(input CheckoutInput) (*models.Order, error) {
	cart, err := s.cartRepo.GetByUser(input.UserID)
	if err != nil {
		return nil, err
	}
	if cart == nil || len(cart.Items) == 0 {
		return nil, ErrCartEmpty
	}

	details := input.TransactionDetails
	if details == nil {
		details = models.JSON{}
	}

	total := models.NewMoneyFromFloat(0)
	orderItems := make([]models.OrderItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		product := item.Product
		if product == nil {
			p, err := s.productRepo.GetByID(item.ProductID)
			if err != nil {
				return nil, err
			}
			if p == nil {
				return nil, ErrProductNotFound
			}
			product = p
		}
		lineTotal := product.Price.Mul(int64(item.Quantity))
		total = total.Add(lineTotal)
		orderItems = append(orderItems, models.OrderItem{
			ProductID:   item.ProductID,
			ProductName: product.Name,
			UnitPrice:   product.Price,
			Quantity:    item.Quantity,
			TotalPrice:  lineTotal,
		})
	}

	order := &models.Order{
		OrderNo:            generateOrderNo(),
		UserID:             input.UserID,
		PaymentState:       constants.PaymentStatePending,
		PaymentProvider:    constants.PaymentProviderPaypal,
		Currency:           s.currency,
		TotalAmount:        total,
		TransactionDetails: details,
		ProviderRef:        strings.TrimSpace(details.String("paypal_order_id")),
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		return s.orderRepo.WithTx(tx).Create(order, orderItems)
	})
	if err != nil {
		logger.Errorw("checkout_create_order_failed",
			"user_id", input.UserID,
			"error", err.Error(),
		)
		return nil, ErrOrderCreateFailed
	}

	if err := s.cartRepo.ClearByUser(input.UserID); err != nil {
		logger.Warnw("checkout_clear_cart_failed",
			"user_id", input.UserID,
			"order_id", order.ID,
			"error", err.Error(),
		)
		if s.queueClient != nil {
			payload := queue.CartCleanupPayload{UserID: input.UserID, OrderID: order.ID}
			if err := s.queueClient.EnqueueCartCleanup(payload); err != nil {
				logger.Warnw("checkout_enqueue_cart_cleanup_failed",
					"user_id", input.UserID,
					"order_id", order.ID,
					"error", err.Error(),
				)
			}
		}
	}

	if s.queueClient != nil {
		payload := queue.OrderConfirmationEmailPayload{OrderID: order.ID}
		if err := s.queueClient.EnqueueOrderConfirmationEmail(payload); err != nil {
			logger.Warnw("checkout_enqueue_confirmation_email_failed",
				"order_id", order.ID,
				"error", err.Error(),
			)
		}
	}

	logger.Infow("checkout_order_created",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"user_id", input.UserID,
		"total_amount", order.TotalAmount.String(),
		"provider_ref", order.ProviderRef,
	)
	return order, nil
}

// GetByIDAndUser 获取用户订单详情
func (s *OrderService) GetByIDAndUser(orderID, userID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListByUser 分页查询用户订单
func (s *OrderService) ListByUser(userID uint, params repository.OrderListParams) ([]models.Order, int64, error) {
	return s.orderRepo.ListByUser(userID, params)
}

func generateOrderNo() string {
	now := time.Now().Format("20060102150405")
	return fmt.Sprintf("SL%s%s", now, randNumeric(6))
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		fmt.Fprintf(&b, "%d", n.Int64())
	}
	return b.String()
}
