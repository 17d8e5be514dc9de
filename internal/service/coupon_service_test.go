package service

import (
	"errors"
	"testing"
	"time"

	"github.com/vendora-next/internal/models"
	"github.com/vendora-next/internal/repository"

	"gorm.io/gorm"
)

func newCouponService(t *testing.T, db *gorm.DB) *CouponService {
	t.Helper()
	return NewCouponService(
		repository.NewCouponRepository(db),
		repository.NewCouponUsageRepository(db),
	)
}

func TestCouponValidatePasses(t *testing.T) {
	db := newTestDB(t)
	svc := newCouponService(t, db)
	user := seedUser(t, db)
	coupon := seedCoupon(t, db, &models.Coupon{
		CouponType:    "percentage",
		Value:         mustMoney(t, "10"),
		MinimumAmount: mustMoney(t, "10.00"),
		UsageLimit:    5,
		IsActive:      true,
	})

	err := svc.Validate(coupon, user.ID, mustMoney(t, "25.00"), time.Now())
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
}

func TestCouponValidateInactive(t *testing.T) {
	db := newTestDB(t)
	svc := newCouponService(t, db)
	user := seedUser(t, db)
	coupon := seedCoupon(t, db, &models.Coupon{
		CouponType: "fixed",
		Value:      mustMoney(t, "5"),
		IsActive:   false,
	})

	err := svc.Validate(coupon, user.ID, mustMoney(t, "25.00"), time.Now())
	if !errors.Is(err, ErrCouponInactive) {
		t.Fatalf("want ErrCouponInactive got %v", err)
	}
}

func TestCouponValidateOutOfWindow(t *testing.T) {
	db := newTestDB(t)
	svc := newCouponService(t, db)
	user := seedUser(t, db)

	future := time.Now().Add(time.Hour)
	notYet := seedCoupon(t, db, &models.Coupon{
		CouponType: "fixed",
		Value:      mustMoney(t, "5"),
		ValidFrom:  &future,
		IsActive:   true,
	})
	if err := svc.Validate(notYet, user.ID, mustMoney(t, "25.00"), time.Now()); !errors.Is(err, ErrCouponOutOfWindow) {
		t.Fatalf("not-yet-valid: want ErrCouponOutOfWindow got %v", err)
	}

	past := time.Now().Add(-time.Hour)
	expired := seedCoupon(t, db, &models.Coupon{
		CouponType: "fixed",
		Value:      mustMoney(t, "5"),
		ValidUntil: &past,
		IsActive:   true,
	})
	if err := svc.Validate(expired, user.ID, mustMoney(t, "25.00"), time.Now()); !errors.Is(err, ErrCouponOutOfWindow) {
		t.Fatalf("expired: want ErrCouponOutOfWindow got %v", err)
	}
}

func TestCouponValidateExhausted(t *testing.T) {
	db := newTestDB(t)
	svc := newCouponService(t, db)
	user := seedUser(t, db)
	coupon := seedCoupon(t, db, &models.Coupon{
		CouponType: "fixed",
		Value:      mustMoney(t, "5"),
		UsageLimit: 3,
		UsageCount: 3,
		IsActive:   true,
	})

	err := svc.Validate(coupon, user.ID, mustMoney(t, "25.00"), time.Now())
	if !errors.Is(err, ErrCouponExhausted) {
		t.Fatalf("want ErrCouponExhausted got %v", err)
	}
}

func TestCouponValidateZeroLimitUnlimited(t *testing.T) {
	db := newTestDB(t)
	svc := newCouponService(t, db)
	user := seedUser(t, db)
	coupon := seedCoupon(t, db, &models.Coupon{
		CouponType: "fixed",
		Value:      mustMoney(t, "5"),
		UsageLimit: 0,
		UsageCount: 10000,
		IsActive:   true,
	})

	if err := svc.Validate(coupon, user.ID, mustMoney(t, "25.00"), time.Now()); err != nil {
		t.Fatalf("usage_limit=0 must be unlimited: %v", err)
	}
}

func TestCouponValidatePerUserLimit(t *testing.T) {
	db := newTestDB(t)
	svc := newCouponService(t, db)
	user := seedUser(t, db)
	coupon := seedCoupon(t, db, &models.Coupon{
		CouponType:   "fixed",
		Value:        mustMoney(t, "5"),
		PerUserLimit: 1,
		IsActive:     true,
	})
	usage := &models.CouponUsage{
		CouponID:       coupon.ID,
		UserID:         user.ID,
		OrderID:        1,
		DiscountAmount: mustMoney(t, "5.00"),
	}
	if err := db.Create(usage).Error; err != nil {
		t.Fatalf("seed usage failed: %v", err)
	}

	err := svc.Validate(coupon, user.ID, mustMoney(t, "25.00"), time.Now())
	if !errors.Is(err, ErrCouponPerUserLimit) {
		t.Fatalf("want ErrCouponPerUserLimit got %v", err)
	}

	// 其他用户不受影响
	other := seedUser(t, db)
	if err := svc.Validate(coupon, other.ID, mustMoney(t, "25.00"), time.Now()); err != nil {
		t.Fatalf("other user must pass: %v", err)
	}
}

func TestCouponValidateRejectionOrder(t *testing.T) {
	db := newTestDB(t)
	svc := newCouponService(t, db)
	user := seedUser(t, db)

	// 同时命中停用、超限、低于门槛：停用优先
	coupon := seedCoupon(t, db, &models.Coupon{
		CouponType:    "fixed",
		Value:         mustMoney(t, "5"),
		MinimumAmount: mustMoney(t, "100.00"),
		UsageLimit:    1,
		UsageCount:    1,
		IsActive:      false,
	})
	err := svc.Validate(coupon, user.ID, mustMoney(t, "10.00"), time.Now())
	if !errors.Is(err, ErrCouponInactive) {
		t.Fatalf("inactive must win, got %v", err)
	}

	// 启用后：超限优先于低于门槛
	coupon.IsActive = true
	err = svc.Validate(coupon, user.ID, mustMoney(t, "10.00"), time.Now())
	if !errors.Is(err, ErrCouponExhausted) {
		t.Fatalf("exhausted must precede below-minimum, got %v", err)
	}
}

func TestCouponGetByCodeNotFound(t *testing.T) {
	db := newTestDB(t)
	svc := newCouponService(t, db)

	if _, err := svc.GetByCode("NOPE"); !errors.Is(err, ErrCouponNotFound) {
		t.Fatalf("want ErrCouponNotFound got %v", err)
	}
	if _, err := svc.GetByCode("  "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput got %v", err)
	}
}

func TestCouponIncrementUsageCountGuard(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewCouponRepository(db)
	coupon := seedCoupon(t, db, &models.Coupon{
		CouponType: "fixed",
		Value:      mustMoney(t, "5"),
		UsageLimit: 1,
		IsActive:   true,
	})

	ok, err := repo.IncrementUsageCount(coupon.ID)
	if err != nil || !ok {
		t.Fatalf("first increment want ok, got ok=%v err=%v", ok, err)
	}
	ok, err = repo.IncrementUsageCount(coupon.ID)
	if err != nil {
		t.Fatalf("second increment errored: %v", err)
	}
	if ok {
		t.Fatalf("second increment must be rejected by guard")
	}

	var reloaded models.Coupon
	if err := db.First(&reloaded, coupon.ID).Error; err != nil {
		t.Fatalf("reload coupon failed: %v", err)
	}
	if reloaded.UsageCount != 1 {
		t.Fatalf("usage_count want 1 got %d", reloaded.UsageCount)
	}
}
