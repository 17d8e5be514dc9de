package service

import (
	"time"

	"github.com/vendora-next/internal/models"
	"github.com/vendora-next/internal/pricing"
	"github.com/vendora-next/internal/repository"
)

// AddCartItemInput 添加购物车条目输入
type AddCartItemInput struct {
	UserID    uint
	ProductID uint
	VariantID uint // 0 表示无变体
	Quantity  int
}

// CartService 购物车服务。条目是事实来源，
// 每次变更后通过计价器重算并回写缓存金额。
type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	couponRepo  repository.CouponRepository
	coupons     *CouponService
	policy      pricing.Policy
	currency    string
}

// NewCartService 创建购物车服务
func NewCartService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	couponRepo repository.CouponRepository,
	coupons *CouponService,
	policy pricing.Policy,
	currency string,
) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		couponRepo:  couponRepo,
		coupons:     coupons,
		policy:      policy,
		currency:    currency,
	}
}

// GetCart 获取用户购物车（不存在则创建空车）
func (s *CartService) GetCart(userID uint) (*models.Cart, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	return s.cartRepo.GetOrCreateByUser(userID, s.currency)
}

// AddItem 添加条目。同商品同变体的行合并数量而不是新建行，
// 库存按合并后的总数量校验。
func (s *CartService) AddItem(input AddCartItemInput) (*models.Cart, error) {
	if input.UserID == 0 || input.ProductID == 0 || input.Quantity <= 0 {
		return nil, ErrInvalidInput
	}

	product, variant, err := s.resolveCatalogLine(input.ProductID, input.VariantID)
	if err != nil {
		return nil, err
	}

	cart, err := s.cartRepo.GetOrCreateByUser(input.UserID, s.currency)
	if err != nil {
		return nil, err
	}

	existing, err := s.cartRepo.FindItem(cart.ID, input.ProductID, input.VariantID)
	if err != nil {
		return nil, err
	}

	quantity := input.Quantity
	if existing != nil {
		quantity += existing.Quantity
	}
	if err := checkStock(product, variant, quantity); err != nil {
		return nil, err
	}

	if existing != nil {
		if err := s.cartRepo.UpdateItemQuantity(existing.ID, quantity); err != nil {
			return nil, err
		}
	} else {
		now := time.Now()
		item := &models.CartItem{
			CartID:            cart.ID,
			ProductID:         input.ProductID,
			VariantID:         input.VariantID,
			Quantity:          quantity,
			UnitPriceSnapshot: unitPrice(product, variant),
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := s.cartRepo.CreateItem(item); err != nil {
			return nil, err
		}
	}

	return s.refreshCart(input.UserID)
}

// UpdateItem 更新条目数量。数量 ≤ 0 等价于删除（幂等），
// 否则按新数量（而非增量）重新校验库存。
func (s *CartService) UpdateItem(userID, itemID uint, quantity int) (*models.Cart, error) {
	if userID == 0 || itemID == 0 {
		return nil, ErrInvalidInput
	}

	cart, err := s.cartRepo.GetOrCreateByUser(userID, s.currency)
	if err != nil {
		return nil, err
	}

	item, err := s.cartRepo.GetItem(cart.ID, itemID)
	if err != nil {
		return nil, err
	}

	if quantity <= 0 {
		if item != nil {
			if err := s.cartRepo.DeleteItem(item.ID); err != nil {
				return nil, err
			}
		}
		return s.refreshCart(userID)
	}

	if item == nil {
		return nil, ErrCartItemNotFound
	}

	product, variant, err := s.resolveCatalogLine(item.ProductID, item.VariantID)
	if err != nil {
		return nil, err
	}
	if err := checkStock(product, variant, quantity); err != nil {
		return nil, err
	}

	if err := s.cartRepo.UpdateItemQuantity(item.ID, quantity); err != nil {
		return nil, err
	}
	return s.refreshCart(userID)
}

// RemoveItem 删除条目
func (s *CartService) RemoveItem(userID, itemID uint) (*models.Cart, error) {
	if userID == 0 || itemID == 0 {
		return nil, ErrInvalidInput
	}
	cart, err := s.cartRepo.GetOrCreateByUser(userID, s.currency)
	if err != nil {
		return nil, err
	}
	item, err := s.cartRepo.GetItem(cart.ID, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrCartItemNotFound
	}
	if err := s.cartRepo.DeleteItem(item.ID); err != nil {
		return nil, err
	}
	return s.refreshCart(userID)
}

// Clear 清空购物车并解除优惠券
func (s *CartService) Clear(userID uint) (*models.Cart, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	cart, err := s.cartRepo.GetOrCreateByUser(userID, s.currency)
	if err != nil {
		return nil, err
	}
	if err := s.cartRepo.ClearItems(cart.ID); err != nil {
		return nil, err
	}
	if err := s.cartRepo.DetachCoupon(cart.ID); err != nil {
		return nil, err
	}
	return s.refreshCart(userID)
}

// ApplyCoupon 对当前小计校验优惠码，通过后挂到购物车。
// 不递增 usage_count，计数只在结账成功时发生。
func (s *CartService) ApplyCoupon(userID uint, code string) (*models.Cart, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	cart, err := s.cartRepo.GetOrCreateByUser(userID, s.currency)
	if err != nil {
		return nil, err
	}

	items, err := s.cartRepo.ListItems(cart.ID)
	if err != nil {
		return nil, err
	}
	subtotal := pricing.Subtotal(cartLines(items))

	coupon, err := s.coupons.ValidateCode(code, userID, subtotal, time.Now())
	if err != nil {
		return nil, err
	}

	if err := s.cartRepo.AttachCoupon(cart.ID, coupon.ID); err != nil {
		return nil, err
	}
	return s.refreshCart(userID)
}

// RemoveCoupon 解除优惠券
func (s *CartService) RemoveCoupon(userID uint) (*models.Cart, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	cart, err := s.cartRepo.GetOrCreateByUser(userID, s.currency)
	if err != nil {
		return nil, err
	}
	if err := s.cartRepo.DetachCoupon(cart.ID); err != nil {
		return nil, err
	}
	return s.refreshCart(userID)
}

// refreshCart 重算缓存金额并返回最新购物车
func (s *CartService) refreshCart(userID uint) (*models.Cart, error) {
	cart, err := s.cartRepo.GetByUser(userID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, ErrNotFound
	}

	var coupon *models.Coupon
	if cart.CouponID != nil {
		coupon, err = s.couponRepo.GetByID(*cart.CouponID)
		if err != nil {
			return nil, err
		}
	}

	quote := pricing.Calculate(cartLines(cart.Items), coupon, s.policy)
	updates := map[string]interface{}{
		"subtotal":        quote.Subtotal,
		"discount_amount": quote.Discount,
		"tax_amount":      quote.Tax,
		"shipping_amount": quote.Shipping,
		"total_amount":    quote.Total,
		"updated_at":      time.Now(),
	}
	if err := s.cartRepo.UpdateTotals(cart.ID, updates); err != nil {
		return nil, err
	}

	cart.Subtotal = quote.Subtotal
	cart.DiscountAmount = quote.Discount
	cart.TaxAmount = quote.Tax
	cart.ShippingAmount = quote.Shipping
	cart.TotalAmount = quote.Total
	return cart, nil
}

// resolveCatalogLine 读取商品与变体并校验可售状态
func (s *CartService) resolveCatalogLine(productID, variantID uint) (*models.Product, *models.ProductVariant, error) {
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, nil, err
	}
	if product == nil || !product.IsActive {
		return nil, nil, ErrProductUnavailable
	}

	var variant *models.ProductVariant
	if variantID != 0 {
		variant, err = s.productRepo.GetVariantByID(variantID)
		if err != nil {
			return nil, nil, err
		}
		if variant == nil || variant.ProductID != product.ID || !variant.IsActive {
			return nil, nil, ErrProductUnavailable
		}
	}
	return product, variant, nil
}

// checkStock 校验库存。有变体看变体库存，否则看商品库存
func checkStock(product *models.Product, variant *models.ProductVariant, quantity int) error {
	available := product.StockQuantity
	if variant != nil {
		available = variant.StockQuantity
	}
	if quantity > available {
		return ErrInsufficientStock
	}
	return nil
}

// unitPrice 计算行单价：商品价格加变体调价
func unitPrice(product *models.Product, variant *models.ProductVariant) models.Money {
	price := product.Price.Decimal
	if variant != nil {
		price = price.Add(variant.PriceAdjustment.Decimal)
	}
	return models.NewMoneyFromDecimal(price)
}

// cartLines 将购物车条目转换为计价行
func cartLines(items []models.CartItem) []pricing.Line {
	lines := make([]pricing.Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, pricing.Line{
			UnitPrice: item.UnitPriceSnapshot,
			Quantity:  item.Quantity,
		})
	}
	return lines
}
