package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/vendora-next/internal/constants"
	"github.com/vendora-next/internal/models"
	"github.com/vendora-next/internal/pricing"
	"github.com/vendora-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 订单编号冲突最大重试次数
const orderNumberMaxAttempts = 5

// CheckoutInput 结账输入
type CheckoutInput struct {
	UserID            uint
	ShippingAddressID uint
	BillingAddressID  *uint
	Notes             string
}

// CheckoutService 结账编排。整个下单流程在单个数据库事务内完成：
// 锁购物车、复核库存、复核优惠券、计价、建单、记录券使用并递增计数、清空购物车。
// 任何一步失败整体回滚，不留下半成品订单。
type CheckoutService struct {
	db             *gorm.DB
	cartRepo       repository.CartRepository
	productRepo    repository.ProductRepository
	couponRepo     repository.CouponRepository
	usageRepo      repository.CouponUsageRepository
	addressRepo    repository.AddressRepository
	orderRepo      repository.OrderRepository
	notifications  *NotificationService
	policy         pricing.Policy
	paymentTimeout time.Duration
}

// NewCheckoutService 创建结账服务
func NewCheckoutService(
	db *gorm.DB,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	couponRepo repository.CouponRepository,
	usageRepo repository.CouponUsageRepository,
	addressRepo repository.AddressRepository,
	orderRepo repository.OrderRepository,
	notifications *NotificationService,
	policy pricing.Policy,
	paymentTimeout time.Duration,
) *CheckoutService {
	return &CheckoutService{
		db:             db,
		cartRepo:       cartRepo,
		productRepo:    productRepo,
		couponRepo:     couponRepo,
		usageRepo:      usageRepo,
		addressRepo:    addressRepo,
		orderRepo:      orderRepo,
		notifications:  notifications,
		policy:         policy,
		paymentTimeout: paymentTimeout,
	}
}

// checkoutLine 事务内复核后的一行，商品信息已定格
type checkoutLine struct {
	item    models.CartItem
	product *models.Product
	variant *models.ProductVariant
}

// Checkout 从当前购物车创建订单
func (s *CheckoutService) Checkout(ctx context.Context, input CheckoutInput) (*models.Order, error) {
	if input.UserID == 0 || input.ShippingAddressID == 0 {
		return nil, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	shipping, err := s.addressRepo.GetByIDAndUser(input.ShippingAddressID, input.UserID)
	if err != nil {
		return nil, err
	}
	if shipping == nil {
		return nil, ErrAddressNotFound
	}
	if input.BillingAddressID != nil {
		billing, err := s.addressRepo.GetByIDAndUser(*input.BillingAddressID, input.UserID)
		if err != nil {
			return nil, err
		}
		if billing == nil {
			return nil, ErrAddressNotFound
		}
	}

	var order *models.Order
	err = s.db.Transaction(func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		orderRepo := s.orderRepo.WithTx(tx)
		couponRepo := s.couponRepo.WithTx(tx)
		usageRepo := s.usageRepo.WithTx(tx)

		cart, err := cartRepo.GetByUserForUpdate(input.UserID)
		if err != nil {
			return err
		}
		if cart == nil {
			return ErrEmptyCart
		}

		items, err := cartRepo.ListItems(cart.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrEmptyCart
		}

		lines, err := s.verifyLines(tx, items)
		if err != nil {
			return err
		}

		var coupon *models.Coupon
		if cart.CouponID != nil {
			coupon, err = couponRepo.GetByIDForUpdate(*cart.CouponID)
			if err != nil {
				return err
			}
			subtotal := pricing.Subtotal(pricingLines(lines))
			validator := NewCouponService(couponRepo, usageRepo)
			if err := validator.Validate(coupon, input.UserID, subtotal, time.Now()); err != nil {
				return err
			}
		}

		quote := pricing.Calculate(pricingLines(lines), coupon, s.policy)

		now := time.Now()
		orderNumber, err := s.uniqueOrderNumber(orderRepo, now)
		if err != nil {
			return err
		}

		order = &models.Order{
			OrderNumber:       orderNumber,
			UserID:            input.UserID,
			Status:            constants.OrderStatusPending,
			Currency:          cart.Currency,
			Subtotal:          quote.Subtotal,
			DiscountAmount:    quote.Discount,
			TaxAmount:         quote.Tax,
			ShippingAmount:    quote.Shipping,
			TotalAmount:       quote.Total,
			CouponID:          cart.CouponID,
			ShippingAddressID: input.ShippingAddressID,
			BillingAddressID:  input.BillingAddressID,
			Notes:             input.Notes,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		orderItems := buildOrderItems(lines, now)
		if err := orderRepo.Create(order, orderItems); err != nil {
			// 编号预检后仍可能在提交时撞上并发事务的同号订单
			if isDuplicateKeyError(err) {
				return ErrCheckoutConflict
			}
			return err
		}
		order.Items = orderItems

		if coupon != nil {
			usage := &models.CouponUsage{
				CouponID:       coupon.ID,
				UserID:         input.UserID,
				OrderID:        order.ID,
				DiscountAmount: quote.Discount,
				CreatedAt:      now,
			}
			if err := usageRepo.Create(usage); err != nil {
				return err
			}
			ok, err := couponRepo.IncrementUsageCount(coupon.ID)
			if err != nil {
				return err
			}
			if !ok {
				// 并发场景下最后一个名额被别的事务抢走
				return ErrCouponExhausted
			}
		}

		if err := cartRepo.ClearItems(cart.ID); err != nil {
			return err
		}
		if err := cartRepo.DetachCoupon(cart.ID); err != nil {
			return err
		}
		zero := models.NewMoneyFromDecimal(decimal.Zero)
		return cartRepo.UpdateTotals(cart.ID, map[string]interface{}{
			"subtotal":        zero,
			"discount_amount": zero,
			"tax_amount":      zero,
			"shipping_amount": zero,
			"total_amount":    zero,
			"updated_at":      now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.notifications.NotifyOrderEvent(constants.NotificationEventOrderCreated, order)
	s.notifications.SchedulePaymentTimeout(order.ID, s.paymentTimeout)
	return order, nil
}

// verifyLines 事务内逐行复核商品可售状态与库存
func (s *CheckoutService) verifyLines(tx *gorm.DB, items []models.CartItem) ([]checkoutLine, error) {
	productRepo := s.productRepo.WithTx(tx)
	lines := make([]checkoutLine, 0, len(items))
	for _, item := range items {
		product, err := productRepo.GetByID(item.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil || !product.IsActive {
			return nil, ErrProductUnavailable
		}
		var variant *models.ProductVariant
		if item.VariantID != 0 {
			variant, err = productRepo.GetVariantByID(item.VariantID)
			if err != nil {
				return nil, err
			}
			if variant == nil || variant.ProductID != product.ID || !variant.IsActive {
				return nil, ErrProductUnavailable
			}
		}
		if err := checkStock(product, variant, item.Quantity); err != nil {
			return nil, err
		}
		lines = append(lines, checkoutLine{item: item, product: product, variant: variant})
	}
	return lines, nil
}

// uniqueOrderNumber 生成未占用的订单编号，冲突时重试
func (s *CheckoutService) uniqueOrderNumber(orderRepo repository.OrderRepository, now time.Time) (string, error) {
	for i := 0; i < orderNumberMaxAttempts; i++ {
		number := newOrderNumber(now)
		existing, err := orderRepo.GetByNumber(number)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return number, nil
		}
	}
	return "", ErrCheckoutConflict
}

// isDuplicateKeyError 判断是否唯一约束冲突。gorm 的翻译不覆盖所有驱动，
// 补上 sqlite 与 postgres 的原始报错文案
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

// pricingLines 转换为计价行（单价以购物车快照为准）
func pricingLines(lines []checkoutLine) []pricing.Line {
	result := make([]pricing.Line, 0, len(lines))
	for _, line := range lines {
		result = append(result, pricing.Line{
			UnitPrice: line.item.UnitPriceSnapshot,
			Quantity:  line.item.Quantity,
		})
	}
	return result
}

// buildOrderItems 定格订单项快照
func buildOrderItems(lines []checkoutLine, now time.Time) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		item := models.OrderItem{
			ProductID:    line.product.ID,
			VariantID:    line.item.VariantID,
			ProductName:  line.product.Name,
			ProductSKU:   line.product.SKU,
			ProductImage: line.product.ImageURL,
			UnitPrice:    line.item.UnitPriceSnapshot,
			Quantity:     line.item.Quantity,
			TotalPrice:   pricing.LineTotal(line.item.UnitPriceSnapshot, line.item.Quantity),
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if line.variant != nil {
			item.VariantName = line.variant.Name
			item.ProductSKU = line.variant.SKU
		}
		items = append(items, item)
	}
	return items
}
