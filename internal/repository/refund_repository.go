package repository

import (
	"errors"

	"github.com/vendora-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RefundRepository 退款记录数据访问接口
type RefundRepository interface {
	Create(refund *models.Refund) error
	GetByID(id uint) (*models.Refund, error)
	GetByIDForUpdate(id uint) (*models.Refund, error)
	GetByRefundID(refundID string) (*models.Refund, error)
	ListByPaymentID(paymentID uint) ([]models.Refund, error)
	SumCompletedByPaymentID(paymentID uint) (models.Money, error)
	Update(refund *models.Refund) error
	List(filter RefundListFilter) ([]models.Refund, int64, error)
	WithTx(tx *gorm.DB) *GormRefundRepository
}

// GormRefundRepository GORM 实现
type GormRefundRepository struct {
	db *gorm.DB
}

// NewRefundRepository 创建退款仓库
func NewRefundRepository(db *gorm.DB) *GormRefundRepository {
	return &GormRefundRepository{db: db}
}

// WithTx 绑定事务
func (r *GormRefundRepository) WithTx(tx *gorm.DB) *GormRefundRepository {
	if tx == nil {
		return r
	}
	return &GormRefundRepository{db: tx}
}

// Create 创建退款记录
func (r *GormRefundRepository) Create(refund *models.Refund) error {
	return r.db.Create(refund).Error
}

// GetByID 根据 ID 获取退款记录
func (r *GormRefundRepository) GetByID(id uint) (*models.Refund, error) {
	var refund models.Refund
	if err := r.db.First(&refund, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &refund, nil
}

// GetByIDForUpdate 锁定退款行（事务内使用）
func (r *GormRefundRepository) GetByIDForUpdate(id uint) (*models.Refund, error) {
	var refund models.Refund
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&refund, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &refund, nil
}

// GetByRefundID 根据退款单号获取退款记录
func (r *GormRefundRepository) GetByRefundID(refundID string) (*models.Refund, error) {
	var refund models.Refund
	if err := r.db.Where("refund_id = ?", refundID).First(&refund).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &refund, nil
}

// ListByPaymentID 获取支付记录下的全部退款
func (r *GormRefundRepository) ListByPaymentID(paymentID uint) ([]models.Refund, error) {
	var refunds []models.Refund
	if err := r.db.Where("payment_id = ?", paymentID).Order("id asc").Find(&refunds).Error; err != nil {
		return nil, err
	}
	return refunds, nil
}

// SumCompletedByPaymentID 统计已完成退款总额
func (r *GormRefundRepository) SumCompletedByPaymentID(paymentID uint) (models.Money, error) {
	var row struct {
		Total models.Money
	}
	if err := r.db.Model(&models.Refund{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("payment_id = ? AND status = ?", paymentID, "completed").
		Take(&row).Error; err != nil {
		return models.Money{}, err
	}
	return row.Total, nil
}

// Update 保存退款记录
func (r *GormRefundRepository) Update(refund *models.Refund) error {
	return r.db.Save(refund).Error
}

// List 获取退款列表
func (r *GormRefundRepository) List(filter RefundListFilter) ([]models.Refund, int64, error) {
	var refunds []models.Refund
	query := r.db.Model(&models.Refund{})

	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.PaymentID != 0 {
		query = query.Where("payment_id = ?", filter.PaymentID)
	}
	if filter.OrderID != 0 {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	if err := query.Order("id desc").Find(&refunds).Error; err != nil {
		return nil, 0, err
	}
	return refunds, total, nil
}
