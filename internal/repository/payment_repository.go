package repository

import (
	"errors"

	"github.com/vendora-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PaymentRepository 支付记录数据访问接口
type PaymentRepository interface {
	Create(payment *models.Payment) error
	GetByID(id uint) (*models.Payment, error)
	GetByIDForUpdate(id uint) (*models.Payment, error)
	GetByPaymentID(paymentID string) (*models.Payment, error)
	GetByOrderID(orderID uint) (*models.Payment, error)
	GetByGatewayTxnID(txnID string) (*models.Payment, error)
	Update(payment *models.Payment) error
	UpdateFields(id uint, updates map[string]interface{}) error
	List(filter PaymentListFilter) ([]models.Payment, int64, error)
	WithTx(tx *gorm.DB) *GormPaymentRepository
}

// GormPaymentRepository GORM 实现
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository 创建支付仓库
func NewPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPaymentRepository) WithTx(tx *gorm.DB) *GormPaymentRepository {
	if tx == nil {
		return r
	}
	return &GormPaymentRepository{db: tx}
}

// Create 创建支付记录
func (r *GormPaymentRepository) Create(payment *models.Payment) error {
	return r.db.Create(payment).Error
}

// GetByID 根据 ID 获取支付记录
func (r *GormPaymentRepository) GetByID(id uint) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.First(&payment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

// GetByIDForUpdate 锁定支付行（事务内使用）
func (r *GormPaymentRepository) GetByIDForUpdate(id uint) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&payment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

// GetByPaymentID 根据支付单号获取支付记录
func (r *GormPaymentRepository) GetByPaymentID(paymentID string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.Where("payment_id = ?", paymentID).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

// GetByOrderID 根据订单 ID 获取支付记录
func (r *GormPaymentRepository) GetByOrderID(orderID uint) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.Where("order_id = ?", orderID).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

// GetByGatewayTxnID 根据网关流水号获取支付记录（回调去重用）
func (r *GormPaymentRepository) GetByGatewayTxnID(txnID string) (*models.Payment, error) {
	if txnID == "" {
		return nil, nil
	}
	var payment models.Payment
	if err := r.db.Where("gateway_txn_id = ?", txnID).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

// Update 保存支付记录
func (r *GormPaymentRepository) Update(payment *models.Payment) error {
	return r.db.Save(payment).Error
}

// UpdateFields 更新指定字段
func (r *GormPaymentRepository) UpdateFields(id uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.Payment{}).Where("id = ?", id).Updates(updates).Error
}

// List 获取支付列表
func (r *GormPaymentRepository) List(filter PaymentListFilter) ([]models.Payment, int64, error) {
	var payments []models.Payment
	query := r.db.Model(&models.Payment{})

	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.OrderID != 0 {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	if err := query.Order("id desc").Find(&payments).Error; err != nil {
		return nil, 0, err
	}
	return payments, total, nil
}
