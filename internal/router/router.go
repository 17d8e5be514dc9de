package router

import (
	"fmt"
	"strings"

	"github.com/vendora-next/internal/cache"
	"github.com/vendora-next/internal/config"
	"github.com/vendora-next/internal/constants"
	publichandlers "github.com/vendora-next/internal/http/handlers/public"
	staffhandlers "github.com/vendora-next/internal/http/handlers/staff"
	"github.com/vendora-next/internal/logger"
	"github.com/vendora-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按用户侧/员工侧分组）
	publicHandler := publichandlers.New(c)
	staffHandler := staffhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = constants.RedisPrefixDefault
	}
	redisClient := cache.Client()
	checkoutRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:checkout", redisPrefix),
		WindowSeconds: cfg.Security.CheckoutRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.CheckoutRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.CheckoutRateLimit.BlockSeconds,
		Message:       "too many checkout attempts",
	}
	paymentRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:payment", redisPrefix),
		WindowSeconds: cfg.Security.PaymentRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.PaymentRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.PaymentRateLimit.BlockSeconds,
		Message:       "too many payment attempts",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 网关回调（验签在服务层，不走用户鉴权）
		apiV1.POST("/payments/webhook", publicHandler.PaymentWebhook)

		// 用户接口（需鉴权）
		user := apiV1.Group("")
		user.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.UserRepo))
		{
			user.GET("/cart", publicHandler.GetCart)
			user.POST("/cart/items", publicHandler.AddCartItem)
			user.PUT("/cart/items/:id", publicHandler.UpdateCartItem)
			user.DELETE("/cart/items/:id", publicHandler.RemoveCartItem)
			user.DELETE("/cart", publicHandler.ClearCart)
			user.POST("/cart/coupon", publicHandler.ApplyCartCoupon)
			user.DELETE("/cart/coupon", publicHandler.RemoveCartCoupon)

			user.POST("/checkout", RateLimitMiddleware(redisClient, checkoutRule, KeyByUserID), publicHandler.Checkout)

			user.GET("/orders", publicHandler.ListOrders)
			user.GET("/orders/:id", publicHandler.GetOrder)
			user.GET("/orders/by-number/:order_number", publicHandler.GetOrderByNumber)
			user.POST("/orders/:id/cancel", publicHandler.CancelOrder)
			user.POST("/orders/:id/payments", publicHandler.CreatePayment)
			user.GET("/orders/:id/payments", publicHandler.GetOrderPayment)

			user.GET("/payments/:payment_id", publicHandler.GetPayment)
			user.POST("/payments/:payment_id/capture", RateLimitMiddleware(redisClient, paymentRule, KeyByUserID), publicHandler.CapturePayment)
			user.POST("/payments/:payment_id/refunds", RateLimitMiddleware(redisClient, paymentRule, KeyByUserID), publicHandler.RequestRefund)

			user.GET("/refunds", publicHandler.ListRefunds)
			user.GET("/refunds/:refund_id", publicHandler.GetRefund)
			user.POST("/refunds/:refund_id/cancel", publicHandler.CancelRefund)
		}

		// 员工接口
		staff := apiV1.Group("/staff")
		staff.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.UserRepo), StaffOnlyMiddleware())
		{
			staff.PATCH("/orders/:id/status", staffHandler.AdvanceOrderStatus)
			staff.GET("/payments", staffHandler.ListPayments)
			staff.GET("/refunds", staffHandler.ListRefunds)
			staff.POST("/refunds/:refund_id/process", staffHandler.ProcessRefund)
			staff.POST("/refunds/:refund_id/fail", staffHandler.FailRefund)

			staff.POST("/coupons", staffHandler.CreateCoupon)
			staff.GET("/coupons", staffHandler.ListCoupons)
			staff.GET("/coupons/:id", staffHandler.GetCoupon)
			staff.PUT("/coupons/:id", staffHandler.UpdateCoupon)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
