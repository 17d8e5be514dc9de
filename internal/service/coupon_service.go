package service

import (
	"strings"
	"time"

	"github.com/vendora-next/internal/models"
	"github.com/vendora-next/internal/repository"
)

// CouponService 优惠券资格校验。只做校验，不产生副作用；
// usage_count 仅由结账流程在订单创建成功后递增。
type CouponService struct {
	couponRepo repository.CouponRepository
	usageRepo  repository.CouponUsageRepository
}

// NewCouponService 创建优惠券服务
func NewCouponService(couponRepo repository.CouponRepository, usageRepo repository.CouponUsageRepository) *CouponService {
	return &CouponService{
		couponRepo: couponRepo,
		usageRepo:  usageRepo,
	}
}

// GetByCode 根据优惠码查询
func (s *CouponService) GetByCode(code string) (*models.Coupon, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return nil, ErrInvalidInput
	}
	coupon, err := s.couponRepo.GetByCode(trimmed)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}
	return coupon, nil
}

// Validate 校验优惠券对用户与购物车小计的适用性。
// 按固定顺序检查，命中第一个失败即返回：
// inactive → out_of_window → usage_exhausted → below_minimum → per_user_limit_exceeded
func (s *CouponService) Validate(coupon *models.Coupon, userID uint, cartSubtotal models.Money, now time.Time) error {
	if coupon == nil {
		return ErrCouponNotFound
	}
	if !coupon.IsActive {
		return ErrCouponInactive
	}
	if coupon.ValidFrom != nil && now.Before(*coupon.ValidFrom) {
		return ErrCouponOutOfWindow
	}
	if coupon.ValidUntil != nil && now.After(*coupon.ValidUntil) {
		return ErrCouponOutOfWindow
	}
	if coupon.UsageLimit > 0 && coupon.UsageCount >= coupon.UsageLimit {
		return ErrCouponExhausted
	}
	if cartSubtotal.Decimal.Cmp(coupon.MinimumAmount.Decimal) < 0 {
		return ErrCouponBelowMinimum
	}
	if coupon.PerUserLimit > 0 {
		count, err := s.usageRepo.CountByUser(coupon.ID, userID)
		if err != nil {
			return err
		}
		if int(count) >= coupon.PerUserLimit {
			return ErrCouponPerUserLimit
		}
	}
	return nil
}

// ValidateCode 查询并校验优惠码
func (s *CouponService) ValidateCode(code string, userID uint, cartSubtotal models.Money, now time.Time) (*models.Coupon, error) {
	coupon, err := s.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if err := s.Validate(coupon, userID, cartSubtotal, now); err != nil {
		return coupon, err
	}
	return coupon, nil
}
