package repository

import (
	"errors"

	"github.com/vendora-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CouponRepository 优惠券数据访问接口
type CouponRepository interface {
	GetByID(id uint) (*models.Coupon, error)
	GetByCode(code string) (*models.Coupon, error)
	GetByIDForUpdate(id uint) (*models.Coupon, error)
	Create(coupon *models.Coupon) error
	Update(coupon *models.Coupon) error
	List(filter CouponListFilter) ([]models.Coupon, int64, error)
	IncrementUsageCount(id uint) (bool, error)
	WithTx(tx *gorm.DB) *GormCouponRepository
}

// GormCouponRepository GORM 实现
type GormCouponRepository struct {
	db *gorm.DB
}

// NewCouponRepository 创建优惠券仓库
func NewCouponRepository(db *gorm.DB) *GormCouponRepository {
	return &GormCouponRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCouponRepository) WithTx(tx *gorm.DB) *GormCouponRepository {
	if tx == nil {
		return r
	}
	return &GormCouponRepository{db: tx}
}

// GetByID 根据ID获取优惠券
func (r *GormCouponRepository) GetByID(id uint) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.db.First(&coupon, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &coupon, nil
}

// GetByCode 根据优惠码获取优惠券
func (r *GormCouponRepository) GetByCode(code string) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.db.Where("code = ?", code).First(&coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &coupon, nil
}

// GetByIDForUpdate 锁定优惠券行（事务内使用）
func (r *GormCouponRepository) GetByIDForUpdate(id uint) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&coupon, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &coupon, nil
}

// Create 创建优惠券
func (r *GormCouponRepository) Create(coupon *models.Coupon) error {
	return r.db.Create(coupon).Error
}

// Update 更新优惠券
func (r *GormCouponRepository) Update(coupon *models.Coupon) error {
	return r.db.Save(coupon).Error
}

// List 获取优惠券列表
func (r *GormCouponRepository) List(filter CouponListFilter) ([]models.Coupon, int64, error) {
	var coupons []models.Coupon
	query := r.db.Model(&models.Coupon{})

	if filter.Code != "" {
		query = query.Where("code = ?", filter.Code)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	if err := query.Order("id desc").Find(&coupons).Error; err != nil {
		return nil, 0, err
	}
	return coupons, total, nil
}

// IncrementUsageCount 使用次数 +1，带上限守卫。
// 返回 false 表示已达上限（未发生更新），由调用方决定失败处理。
func (r *GormCouponRepository) IncrementUsageCount(id uint) (bool, error) {
	result := r.db.Model(&models.Coupon{}).
		Where("id = ?", id).
		Where("usage_limit = 0 OR usage_count < usage_limit").
		UpdateColumn("usage_count", gorm.Expr("usage_count + ?", 1))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
