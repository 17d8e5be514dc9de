package service

import (
	"strings"
	"time"

	"github.com/vendora-next/internal/constants"
	"github.com/vendora-next/internal/models"
	"github.com/vendora-next/internal/repository"

	"github.com/shopspring/decimal"
)

// CouponAdminService 优惠券运营管理
type CouponAdminService struct {
	repo repository.CouponRepository
}

// NewCouponAdminService 创建优惠券管理服务
func NewCouponAdminService(repo repository.CouponRepository) *CouponAdminService {
	return &CouponAdminService{repo: repo}
}

// CreateCouponInput 创建优惠券输入
type CreateCouponInput struct {
	Code          string
	CouponType    string
	Value         models.Money
	MinimumAmount models.Money
	UsageLimit    int
	PerUserLimit  int
	ValidFrom     *time.Time
	ValidUntil    *time.Time
	IsActive      *bool
}

// UpdateCouponInput 更新优惠券输入。
// 已发放的券不允许改码和改类型，只放开额度与时间窗调整
type UpdateCouponInput struct {
	MinimumAmount *models.Money
	UsageLimit    *int
	PerUserLimit  *int
	ValidFrom     *time.Time
	ValidUntil    *time.Time
	IsActive      *bool
}

// Create 创建优惠券
func (s *CouponAdminService) Create(input CreateCouponInput) (*models.Coupon, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" {
		return nil, ErrInvalidInput
	}
	couponType := strings.ToLower(strings.TrimSpace(input.CouponType))
	if err := validateCouponValue(couponType, input.Value); err != nil {
		return nil, err
	}
	if input.UsageLimit < 0 || input.PerUserLimit < 0 {
		return nil, ErrInvalidInput
	}
	if input.ValidFrom != nil && input.ValidUntil != nil && input.ValidUntil.Before(*input.ValidFrom) {
		return nil, ErrInvalidInput
	}

	exist, err := s.repo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if exist != nil {
		return nil, ErrCouponCodeTaken
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	coupon := &models.Coupon{
		Code:          code,
		CouponType:    couponType,
		Value:         input.Value,
		MinimumAmount: input.MinimumAmount,
		UsageLimit:    input.UsageLimit,
		PerUserLimit:  input.PerUserLimit,
		ValidFrom:     input.ValidFrom,
		ValidUntil:    input.ValidUntil,
		IsActive:      isActive,
	}
	if err := s.repo.Create(coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

// Update 更新优惠券
func (s *CouponAdminService) Update(id uint, input UpdateCouponInput) (*models.Coupon, error) {
	if id == 0 {
		return nil, ErrInvalidInput
	}
	existing, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrCouponNotFound
	}

	if input.MinimumAmount != nil {
		existing.MinimumAmount = *input.MinimumAmount
	}
	if input.UsageLimit != nil {
		if *input.UsageLimit < 0 {
			return nil, ErrInvalidInput
		}
		existing.UsageLimit = *input.UsageLimit
	}
	if input.PerUserLimit != nil {
		if *input.PerUserLimit < 0 {
			return nil, ErrInvalidInput
		}
		existing.PerUserLimit = *input.PerUserLimit
	}
	if input.ValidFrom != nil {
		existing.ValidFrom = input.ValidFrom
	}
	if input.ValidUntil != nil {
		existing.ValidUntil = input.ValidUntil
	}
	if existing.ValidFrom != nil && existing.ValidUntil != nil && existing.ValidUntil.Before(*existing.ValidFrom) {
		return nil, ErrInvalidInput
	}
	if input.IsActive != nil {
		existing.IsActive = *input.IsActive
	}

	if err := s.repo.Update(existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// Get 获取优惠券详情
func (s *CouponAdminService) Get(id uint) (*models.Coupon, error) {
	if id == 0 {
		return nil, ErrInvalidInput
	}
	coupon, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}
	return coupon, nil
}

// List 获取优惠券列表
func (s *CouponAdminService) List(filter repository.CouponListFilter) ([]models.Coupon, int64, error) {
	return s.repo.List(filter)
}

func validateCouponValue(couponType string, value models.Money) error {
	switch couponType {
	case constants.CouponTypePercentage:
		if !value.Decimal.IsPositive() || value.Decimal.GreaterThan(decimal.NewFromInt(100)) {
			return ErrInvalidInput
		}
	case constants.CouponTypeFixed:
		if !value.Decimal.IsPositive() {
			return ErrInvalidInput
		}
	case constants.CouponTypeFreeShipping:
		if value.Decimal.IsNegative() {
			return ErrInvalidInput
		}
	default:
		return ErrInvalidInput
	}
	return nil
}
