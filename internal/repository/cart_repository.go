package repository

import (
	"errors"
	"time"

	"github.com/vendora-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartRepository 购物车数据访问接口
type CartRepository interface {
	GetOrCreateByUser(userID uint, currency string) (*models.Cart, error)
	GetByUser(userID uint) (*models.Cart, error)
	GetByUserForUpdate(userID uint) (*models.Cart, error)
	UpdateTotals(cartID uint, updates map[string]interface{}) error
	AttachCoupon(cartID, couponID uint) error
	DetachCoupon(cartID uint) error
	GetItem(cartID, itemID uint) (*models.CartItem, error)
	FindItem(cartID, productID, variantID uint) (*models.CartItem, error)
	ListItems(cartID uint) ([]models.CartItem, error)
	CreateItem(item *models.CartItem) error
	UpdateItemQuantity(itemID uint, quantity int) error
	DeleteItem(itemID uint) error
	ClearItems(cartID uint) error
	WithTx(tx *gorm.DB) *GormCartRepository
}

// GormCartRepository GORM 实现
type GormCartRepository struct {
	db *gorm.DB
}

// NewCartRepository 创建购物车仓库
func NewCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCartRepository) WithTx(tx *gorm.DB) *GormCartRepository {
	if tx == nil {
		return r
	}
	return &GormCartRepository{db: tx}
}

// GetOrCreateByUser 获取用户购物车，不存在则创建
func (r *GormCartRepository) GetOrCreateByUser(userID uint, currency string) (*models.Cart, error) {
	cart, err := r.GetByUser(userID)
	if err != nil {
		return nil, err
	}
	if cart != nil {
		return cart, nil
	}
	now := time.Now()
	created := &models.Cart{
		UserID:    userID,
		Currency:  currency,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.db.Create(created).Error; err != nil {
		// 并发创建时唯一索引冲突，回读已有记录
		if existing, getErr := r.GetByUser(userID); getErr == nil && existing != nil {
			return existing, nil
		}
		return nil, err
	}
	return created, nil
}

// GetByUser 获取用户购物车（含条目与优惠券）
func (r *GormCartRepository) GetByUser(userID uint) (*models.Cart, error) {
	var cart models.Cart
	query := r.db.Preload("Items").Preload("Items.Product").Preload("Items.Variant").Preload("Coupon")
	if err := query.Where("user_id = ?", userID).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cart, nil
}

// GetByUserForUpdate 锁定用户购物车行（事务内使用）
func (r *GormCartRepository) GetByUserForUpdate(userID uint) (*models.Cart, error) {
	var cart models.Cart
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cart, nil
}

// UpdateTotals 更新购物车缓存金额
func (r *GormCartRepository) UpdateTotals(cartID uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.Cart{}).Where("id = ?", cartID).Updates(updates).Error
}

// AttachCoupon 关联优惠券
func (r *GormCartRepository) AttachCoupon(cartID, couponID uint) error {
	return r.db.Model(&models.Cart{}).Where("id = ?", cartID).Update("coupon_id", couponID).Error
}

// DetachCoupon 解除优惠券关联
func (r *GormCartRepository) DetachCoupon(cartID uint) error {
	return r.db.Model(&models.Cart{}).Where("id = ?", cartID).Update("coupon_id", nil).Error
}

// GetItem 获取购物车条目（校验归属）
func (r *GormCartRepository) GetItem(cartID, itemID uint) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.Where("id = ? AND cart_id = ?", itemID, cartID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// FindItem 查找同商品同变体的条目
func (r *GormCartRepository) FindItem(cartID, productID, variantID uint) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.
		Where("cart_id = ? AND product_id = ? AND variant_id = ?", cartID, productID, variantID).
		First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// ListItems 获取购物车条目列表
func (r *GormCartRepository) ListItems(cartID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.db.Preload("Product").Preload("Variant").
		Where("cart_id = ?", cartID).Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// CreateItem 创建购物车条目
func (r *GormCartRepository) CreateItem(item *models.CartItem) error {
	return r.db.Create(item).Error
}

// UpdateItemQuantity 更新条目数量
func (r *GormCartRepository) UpdateItemQuantity(itemID uint, quantity int) error {
	return r.db.Model(&models.CartItem{}).Where("id = ?", itemID).
		Updates(map[string]interface{}{"quantity": quantity, "updated_at": time.Now()}).Error
}

// DeleteItem 删除条目
func (r *GormCartRepository) DeleteItem(itemID uint) error {
	return r.db.Delete(&models.CartItem{}, itemID).Error
}

// ClearItems 清空购物车条目
func (r *GormCartRepository) ClearItems(cartID uint) error {
	return r.db.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
}
