package provider

import (
	"time"

	"github.com/vendora-next/internal/cache"
	"github.com/vendora-next/internal/config"
	"github.com/vendora-next/internal/gateway"
	"github.com/vendora-next/internal/logger"
	"github.com/vendora-next/internal/models"
	"github.com/vendora-next/internal/pricing"
	"github.com/vendora-next/internal/queue"
	"github.com/vendora-next/internal/repository"
	"github.com/vendora-next/internal/service"

	"github.com/shopspring/decimal"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Gateway     gateway.Gateway

	// Repositories
	UserRepo        repository.UserRepository
	AddressRepo     repository.AddressRepository
	ProductRepo     repository.ProductRepository
	CartRepo        repository.CartRepository
	CouponRepo      repository.CouponRepository
	CouponUsageRepo repository.CouponUsageRepository
	OrderRepo       repository.OrderRepository
	PaymentRepo     repository.PaymentRepository
	RefundRepo      repository.RefundRepository

	// Services
	CouponService       *service.CouponService
	CouponAdminService  *service.CouponAdminService
	CartService         *service.CartService
	CheckoutService     *service.CheckoutService
	OrderService        *service.OrderService
	PaymentService      *service.PaymentService
	NotificationService *service.NotificationService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
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

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化支付网关
	c.initGateway()

	// 3. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.AddressRepo = repository.NewAddressRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.CouponRepo = repository.NewCouponRepository(db)
	c.CouponUsageRepo = repository.NewCouponUsageRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.PaymentRepo = repository.NewPaymentRepository(db)
	c.RefundRepo = repository.NewRefundRepository(db)
}

func (c *Container) initGateway() {
	switch c.Config.Gateway.Provider {
	case "hosted":
		gw, err := gateway.NewHostedGateway(gateway.HostedConfig{
			Endpoint: c.Config.Gateway.Endpoint,
			APIKey:   c.Config.Gateway.APIKey,
			Secret:   c.Config.Gateway.Secret,
			Timeout:  time.Duration(c.Config.Gateway.TimeoutMS) * time.Millisecond,
		})
		if err != nil {
			logger.Errorw("provider_init_gateway_failed", "provider", "hosted", "error", err)
			panic(err)
		}
		c.Gateway = gw
	default:
		c.Gateway = gateway.NewSandboxGateway()
	}
}

func (c *Container) initServices() {
	policy := buildPricingPolicy(&c.Config.Pricing)
	currency := c.Config.Pricing.Currency
	paymentTimeout := time.Duration(c.Config.Order.PaymentTimeoutMinutes) * time.Minute

	c.NotificationService = service.NewNotificationService(c.QueueClient)
	c.CouponService = service.NewCouponService(c.CouponRepo, c.CouponUsageRepo)
	c.CouponAdminService = service.NewCouponAdminService(c.CouponRepo)
	c.CartService = service.NewCartService(c.CartRepo, c.ProductRepo, c.CouponRepo, c.CouponService, policy, currency)
	c.CheckoutService = service.NewCheckoutService(
		models.DB,
		c.CartRepo,
		c.ProductRepo,
		c.CouponRepo,
		c.CouponUsageRepo,
		c.AddressRepo,
		c.OrderRepo,
		c.NotificationService,
		policy,
		paymentTimeout,
	)
	c.OrderService = service.NewOrderService(models.DB, c.OrderRepo, c.PaymentRepo, c.NotificationService)
	c.PaymentService = service.NewPaymentService(
		models.DB,
		c.PaymentRepo,
		c.RefundRepo,
		c.OrderRepo,
		c.Gateway,
		c.NotificationService,
		c.Config.Gateway.MaxRetries,
	)
}

// buildPricingPolicy 解析计价策略。
// 配置值非法时回退为零并告警，避免带错配置启动
func buildPricingPolicy(cfg *config.PricingConfig) pricing.Policy {
	policy := pricing.Policy{
		TaxRate:         decimal.Zero,
		ShippingFlatFee: models.NewMoneyFromDecimal(decimal.Zero),
	}
	if rate, err := decimal.NewFromString(cfg.TaxRate); err == nil && !rate.IsNegative() {
		policy.TaxRate = rate
	} else if cfg.TaxRate != "" {
		logger.Warnw("pricing_tax_rate_invalid", "value", cfg.TaxRate)
	}
	if fee, err := models.NewMoneyFromString(cfg.ShippingFlatFee); err == nil {
		policy.ShippingFlatFee = fee
	} else if cfg.ShippingFlatFee != "" {
		logger.Warnw("pricing_shipping_fee_invalid", "value", cfg.ShippingFlatFee)
	}
	if cfg.FreeShippingThreshold != "" {
		if threshold, err := decimal.NewFromString(cfg.FreeShippingThreshold); err == nil && !threshold.IsNegative() {
			policy.FreeShippingThreshold = &threshold
		} else {
			logger.Warnw("pricing_free_shipping_threshold_invalid", "value", cfg.FreeShippingThreshold)
		}
	}
	return policy
}
