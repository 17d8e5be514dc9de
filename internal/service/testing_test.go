package service

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vendora-next/internal/models"
	"github.com/vendora-next/internal/pricing"
	"github.com/vendora-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var testDBSeq uint64

// newTestDB 每个测试独立的内存库
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_test_%d?mode=memory&cache=shared", atomic.AddUint64(&testDBSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db failed: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.Address{},
		&models.Product{},
		&models.ProductVariant{},
		&models.Cart{},
		&models.CartItem{},
		&models.Coupon{},
		&models.CouponUsage{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
		&models.Refund{},
	)
	if err != nil {
		t.Fatalf("migrate test db failed: %v", err)
	}
	return db
}

func mustMoney(t *testing.T, s string) models.Money {
	t.Helper()
	m, err := models.NewMoneyFromString(s)
	if err != nil {
		t.Fatalf("parse money %q failed: %v", s, err)
	}
	return m
}

func testPolicy(t *testing.T) pricing.Policy {
	t.Helper()
	return pricing.Policy{
		TaxRate:         decimal.RequireFromString("0.10"),
		ShippingFlatFee: mustMoney(t, "0"),
	}
}

func seedUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	user := &models.User{
		Email:       fmt.Sprintf("buyer%d@example.com", atomic.AddUint64(&testDBSeq, 1)),
		DisplayName: "Test Buyer",
		Role:        "customer",
		Status:      "active",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user failed: %v", err)
	}
	return user
}

func seedAddress(t *testing.T, db *gorm.DB, userID uint) *models.Address {
	t.Helper()
	address := &models.Address{
		UserID:     userID,
		FullName:   "Test Buyer",
		Line1:      "1 Main St",
		City:       "Springfield",
		PostalCode: "12345",
		Country:    "US",
	}
	if err := db.Create(address).Error; err != nil {
		t.Fatalf("seed address failed: %v", err)
	}
	return address
}

func seedProduct(t *testing.T, db *gorm.DB, price string, stock int) *models.Product {
	t.Helper()
	seq := atomic.AddUint64(&testDBSeq, 1)
	product := &models.Product{
		Name:          fmt.Sprintf("Product %d", seq),
		Slug:          fmt.Sprintf("product-%d", seq),
		SKU:           fmt.Sprintf("SKU-%d", seq),
		Price:         mustMoney(t, price),
		Currency:      "USD",
		StockQuantity: stock,
		IsActive:      true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("seed product failed: %v", err)
	}
	return product
}

func seedVariant(t *testing.T, db *gorm.DB, productID uint, adjustment string, stock int) *models.ProductVariant {
	t.Helper()
	seq := atomic.AddUint64(&testDBSeq, 1)
	variant := &models.ProductVariant{
		ProductID:       productID,
		Name:            fmt.Sprintf("Variant %d", seq),
		SKU:             fmt.Sprintf("VSKU-%d", seq),
		PriceAdjustment: mustMoney(t, adjustment),
		StockQuantity:   stock,
		IsActive:        true,
	}
	if err := db.Create(variant).Error; err != nil {
		t.Fatalf("seed variant failed: %v", err)
	}
	return variant
}

func seedCoupon(t *testing.T, db *gorm.DB, coupon *models.Coupon) *models.Coupon {
	t.Helper()
	if coupon.Code == "" {
		coupon.Code = fmt.Sprintf("CODE%d", atomic.AddUint64(&testDBSeq, 1))
	}
	if err := db.Create(coupon).Error; err != nil {
		t.Fatalf("seed coupon failed: %v", err)
	}
	return coupon
}

// newCartService 组装购物车服务与依赖
func newCartService(t *testing.T, db *gorm.DB) *CartService {
	t.Helper()
	couponRepo := repository.NewCouponRepository(db)
	usageRepo := repository.NewCouponUsageRepository(db)
	return NewCartService(
		repository.NewCartRepository(db),
		repository.NewProductRepository(db),
		couponRepo,
		NewCouponService(couponRepo, usageRepo),
		testPolicy(t),
		"USD",
	)
}

// newCheckoutService 组装结账服务与依赖
func newCheckoutService(t *testing.T, db *gorm.DB) *CheckoutService {
	t.Helper()
	return NewCheckoutService(
		db,
		repository.NewCartRepository(db),
		repository.NewProductRepository(db),
		repository.NewCouponRepository(db),
		repository.NewCouponUsageRepository(db),
		repository.NewAddressRepository(db),
		repository.NewOrderRepository(db),
		NewNotificationService(nil),
		testPolicy(t),
		30*time.Minute,
	)
}

// newOrderService 组装订单服务与依赖
func newOrderService(t *testing.T, db *gorm.DB) *OrderService {
	t.Helper()
	return NewOrderService(
		db,
		repository.NewOrderRepository(db),
		repository.NewPaymentRepository(db),
		NewNotificationService(nil),
	)
}
