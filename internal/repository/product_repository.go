package repository

import (
	"errors"

	"github.com/vendora-next/internal/models"

	"gorm.io/gorm"
)

// ProductRepository 商品目录读取接口。交易核心只读目录数据，不做任何写入
type ProductRepository interface {
	GetByID(id uint) (*models.Product, error)
	GetVariantByID(id uint) (*models.ProductVariant, error)
	WithTx(tx *gorm.DB) *GormProductRepository
}

// GormProductRepository GORM 实现
type GormProductRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓库
func NewProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// WithTx 绑定事务
func (r *GormProductRepository) WithTx(tx *gorm.DB) *GormProductRepository {
	if tx == nil {
		return r
	}
	return &GormProductRepository{db: tx}
}

// GetByID 根据 ID 获取商品
func (r *GormProductRepository) GetByID(id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// GetVariantByID 根据 ID 获取商品变体
func (r *GormProductRepository) GetVariantByID(id uint) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	if err := r.db.First(&variant, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &variant, nil
}
