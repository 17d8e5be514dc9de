package main

import (
	"fmt"
	"time"

	"github.com/vendora-next/internal/config"
	"github.com/vendora-next/internal/constants"
	"github.com/vendora-next/internal/logger"
	"github.com/vendora-next/internal/models"
	"github.com/vendora-next/internal/service"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 演示数据填充：幂等执行，已存在的记录按唯一键跳过。
func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("数据库初始化失败: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("数据库迁移失败: %v", err)
	}

	db := models.DB

	customer, err := seedUser(db, "alice@example.com", "Alice", constants.UserRoleCustomer)
	if err != nil {
		stdLog.Fatalf("填充用户失败: %v", err)
	}
	if _, err := seedUser(db, "bob@example.com", "Bob", constants.UserRoleCustomer); err != nil {
		stdLog.Fatalf("填充用户失败: %v", err)
	}
	staffUser, err := seedUser(db, "ops@example.com", "Ops", constants.UserRoleStaff)
	if err != nil {
		stdLog.Fatalf("填充用户失败: %v", err)
	}
	stdLog.Printf("用户就绪: alice@example.com / bob@example.com / ops@example.com")

	if err := seedAddress(db, customer.ID); err != nil {
		stdLog.Fatalf("填充地址失败: %v", err)
	}
	stdLog.Printf("默认地址就绪: user_id=%d", customer.ID)

	if err := seedProducts(db); err != nil {
		stdLog.Fatalf("填充商品失败: %v", err)
	}
	stdLog.Printf("商品与变体就绪")

	if err := seedCoupons(db); err != nil {
		stdLog.Fatalf("填充优惠券失败: %v", err)
	}
	stdLog.Printf("优惠券就绪: WELCOME10 / SAVE5 / FREESHIP / EXPIRED20")

	fmt.Println("----------------------------------------")
	fmt.Println("演示数据填充完成")
	fmt.Println("  用户: alice@example.com (customer), bob@example.com (customer), ops@example.com (staff)")
	fmt.Println("  优惠券: WELCOME10 (9折), SAVE5 (减5), FREESHIP (满50免邮), EXPIRED20 (已过期)")
	printDevToken(&cfg.JWT, "customer", customer)
	printDevToken(&cfg.JWT, "staff", staffUser)
	fmt.Println("----------------------------------------")
}

// printDevToken 打印本地调试令牌，签发失败只提示不中断
func printDevToken(cfg *config.JWTConfig, label string, user *models.User) {
	token, err := service.IssueUserToken(cfg, user)
	if err != nil {
		fmt.Printf("  %s 令牌签发失败: %v\n", label, err)
		return
	}
	fmt.Printf("  %s 令牌 (%s): %s\n", label, user.Email, token)
}

func seedUser(db *gorm.DB, email, name, role string) (*models.User, error) {
	var user models.User
	err := db.Where("email = ?", email).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	user = models.User{
		Email:       email,
		DisplayName: name,
		Role:        role,
		Status:      constants.UserStatusActive,
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func seedAddress(db *gorm.DB, userID uint) error {
	var count int64
	if err := db.Model(&models.Address{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return db.Create(&models.Address{
		UserID:     userID,
		FullName:   "Alice Zhang",
		Phone:      "+1-555-0100",
		Line1:      "100 Market Street",
		Line2:      "Apt 5",
		City:       "San Francisco",
		State:      "CA",
		PostalCode: "94103",
		Country:    "US",
		IsDefault:  true,
	}).Error
}

func seedProducts(db *gorm.DB) error {
	products := []models.Product{
		{
			Name:          "Canvas Tote Bag",
			Slug:          "canvas-tote-bag",
			SKU:           "TOTE-001",
			Price:         models.NewMoneyFromDecimal(decimal.NewFromFloat(19.90)),
			Currency:      "USD",
			StockQuantity: 120,
			IsActive:      true,
			Variants: []models.ProductVariant{
				{Name: "Natural", SKU: "TOTE-001-NAT", PriceAdjustment: models.NewMoneyFromDecimal(decimal.Zero), StockQuantity: 80, IsActive: true},
				{Name: "Black", SKU: "TOTE-001-BLK", PriceAdjustment: models.NewMoneyFromDecimal(decimal.NewFromFloat(2.00)), StockQuantity: 40, IsActive: true},
			},
		},
		{
			Name:          "Ceramic Mug",
			Slug:          "ceramic-mug",
			SKU:           "MUG-010",
			Price:         models.NewMoneyFromDecimal(decimal.NewFromFloat(12.50)),
			Currency:      "USD",
			StockQuantity: 200,
			IsActive:      true,
		},
		{
			Name:          "Wireless Earbuds",
			Slug:          "wireless-earbuds",
			SKU:           "AUDIO-220",
			Price:         models.NewMoneyFromDecimal(decimal.NewFromFloat(79.00)),
			Currency:      "USD",
			StockQuantity: 35,
			IsActive:      true,
			Variants: []models.ProductVariant{
				{Name: "White", SKU: "AUDIO-220-WHT", PriceAdjustment: models.NewMoneyFromDecimal(decimal.Zero), StockQuantity: 20, IsActive: true},
				{Name: "Midnight", SKU: "AUDIO-220-MID", PriceAdjustment: models.NewMoneyFromDecimal(decimal.NewFromFloat(5.00)), StockQuantity: 15, IsActive: true},
			},
		},
		{
			Name:          "Discontinued Poster",
			Slug:          "discontinued-poster",
			SKU:           "POSTER-900",
			Price:         models.NewMoneyFromDecimal(decimal.NewFromFloat(8.00)),
			Currency:      "USD",
			StockQuantity: 0,
			IsActive:      false,
		},
	}
	for i := range products {
		var existing models.Product
		err := db.Where("slug = ?", products[i].Slug).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		if err := db.Create(&products[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func seedCoupons(db *gorm.DB) error {
	now := time.Now()
	yearFromNow := now.AddDate(1, 0, 0)
	lastMonth := now.AddDate(0, -1, 0)
	lastWeek := now.AddDate(0, 0, -7)
	coupons := []models.Coupon{
		{
			Code:         "WELCOME10",
			CouponType:   constants.CouponTypePercentage,
			Value:        models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
			UsageLimit:   0,
			PerUserLimit: 1,
			ValidFrom:    &now,
			ValidUntil:   &yearFromNow,
			IsActive:     true,
		},
		{
			Code:          "SAVE5",
			CouponType:    constants.CouponTypeFixed,
			Value:         models.NewMoneyFromDecimal(decimal.NewFromInt(5)),
			MinimumAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(20)),
			UsageLimit:    500,
			ValidFrom:     &now,
			ValidUntil:    &yearFromNow,
			IsActive:      true,
		},
		{
			Code:          "FREESHIP",
			CouponType:    constants.CouponTypeFreeShipping,
			Value:         models.NewMoneyFromDecimal(decimal.Zero),
			MinimumAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(50)),
			IsActive:      true,
		},
		{
			Code:       "EXPIRED20",
			CouponType: constants.CouponTypePercentage,
			Value:      models.NewMoneyFromDecimal(decimal.NewFromInt(20)),
			ValidFrom:  &lastMonth,
			ValidUntil: &lastWeek,
			IsActive:   true,
		},
	}
	for i := range coupons {
		var existing models.Coupon
		err := db.Where("code = ?", coupons[i].Code).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		if err := db.Create(&coupons[i]).Error; err != nil {
			return err
		}
	}
	return nil
}
