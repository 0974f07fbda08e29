package provider

import (
	"github.com/shoplite/shoplite/internal/cache"
	"github.com/shoplite/shoplite/internal/config"
	"github.com/shoplite/shoplite/internal/logger"
	"github.com/shoplite/shoplite/internal/models"
	"github.com/shoplite/shoplite/internal/payment/paypal"
	"github.com/shoplite/shoplite/internal/queue"
	"github.com/shoplite/shoplite/internal/repository"
	"github.com/shoplite/shoplite/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	UserRepo    repository.UserRepository
	ProductRepo repository.ProductRepository
	CartRepo    repository.CartRepository
	OrderRepo   repository.OrderRepository

	// Services
	UserAuthService *service.UserAuthService
	ProductService  *service.ProductService
	CartService     *service.CartService
	OrderService    *service.OrderService
	PaymentService  *service.PaymentService
	EmailService    *service.EmailService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}
	c.initRepositories()
	c.initServices()
	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
}

func (c *Container) initServices() {
	c.EmailService = service.NewEmailService(&c.Config.Email)
	c.UserAuthService = service.NewUserAuthService(c.Config, c.UserRepo)
	c.ProductService = service.NewProductService(c.ProductRepo)
	c.CartService = service.NewCartService(c.CartRepo, c.ProductRepo)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.CartRepo, c.ProductRepo, c.QueueClient, c.Config.Order.Currency)

	paypalCfg := &paypal.Config{
		Mode:         c.Config.Paypal.Mode,
		ClientID:     c.Config.Paypal.ClientID,
		ClientSecret: c.Config.Paypal.ClientSecret,
		BaseURL:      c.Config.Paypal.BaseURL,
		WebhookID:    c.Config.Paypal.WebhookID,
	}
	c.PaymentService = service.NewPaymentService(c.OrderRepo, paypalCfg)
}
