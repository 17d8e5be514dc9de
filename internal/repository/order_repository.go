package repository

import (
	"errors"
	"time"

	"github.com/vendora-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	Create(order *models.Order, items []models.OrderItem) error
	GetByID(id uint) (*models.Order, error)
	GetByIDForUpdate(id uint) (*models.Order, error)
	GetByIDAndUser(id, userID uint) (*models.Order, error)
	GetByNumberAndUser(orderNumber string, userID uint) (*models.Order, error)
	GetByNumber(orderNumber string) (*models.Order, error)
	ListByUser(filter OrderListFilter) ([]models.Order, int64, error)
	ListByStatusBefore(status string, cutoff time.Time, limit int) ([]models.Order, error)
	UpdateStatus(id uint, status string, updates map[string]interface{}) error
	WithTx(tx *gorm.DB) *GormOrderRepository
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) *GormOrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

// Create 创建订单与订单项
func (r *GormOrderRepository) Create(order *models.Order, items []models.OrderItem) error {
	if err := r.db.Create(order).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].OrderID = order.ID
	}
	if len(items) > 0 {
		if err := r.db.Create(&items).Error; err != nil {
			return err
		}
	}
	return nil
}

// GetByID 根据 ID 获取订单
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").Preload("Payment").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByIDForUpdate 锁定订单行（事务内使用）
func (r *GormOrderRepository) GetByIDForUpdate(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByIDAndUser 获取用户订单详情
func (r *GormOrderRepository) GetByIDAndUser(id, userID uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").Preload("Payment").
		Where("id = ? AND user_id = ?", id, userID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByNumberAndUser 获取用户订单详情（按订单号）
func (r *GormOrderRepository) GetByNumberAndUser(orderNumber string, userID uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").Preload("Payment").
		Where("order_number = ? AND user_id = ?", orderNumber, userID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByNumber 按订单号获取订单
func (r *GormOrderRepository) GetByNumber(orderNumber string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").Preload("Payment").
		Where("order_number = ?", orderNumber).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// ListByUser 获取用户订单列表
func (r *GormOrderRepository) ListByUser(filter OrderListFilter) ([]models.Order, int64, error) {
	var orders []models.Order
	query := r.db.Model(&models.Order{}).Where("user_id = ?", filter.UserID)

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.OrderNumber != "" {
		query = query.Where(searchLikeCondition(r.db, "order_number"), "%"+filter.OrderNumber+"%")
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

	if err := query.Preload("Items").Order("id desc").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListByStatusBefore 获取指定状态且创建时间早于截止时间的订单（超时取消任务用）
func (r *GormOrderRepository) ListByStatusBefore(status string, cutoff time.Time, limit int) ([]models.Order, error) {
	var orders []models.Order
	query := r.db.Where("status = ? AND created_at <= ?", status, cutoff).Order("id asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatus 更新订单状态
func (r *GormOrderRepository) UpdateStatus(id uint, status string, updates map[string]interface{}) error {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = status
	return r.db.Model(&models.Order{}).Where("id = ?", id).Updates(updates).Error
}
