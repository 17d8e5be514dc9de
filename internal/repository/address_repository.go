package repository

import (
	"errors"

	"github.com/vendora-next/internal/models"

	"gorm.io/gorm"
)

// AddressRepository 地址数据访问接口（结账时校验归属）
type AddressRepository interface {
	GetByIDAndUser(id, userID uint) (*models.Address, error)
	WithTx(tx *gorm.DB) *GormAddressRepository
}

// GormAddressRepository GORM 实现
type GormAddressRepository struct {
	db *gorm.DB
}

// NewAddressRepository 创建地址仓库
func NewAddressRepository(db *gorm.DB) *GormAddressRepository {
	return &GormAddressRepository{db: db}
}

// WithTx 绑定事务
func (r *GormAddressRepository) WithTx(tx *gorm.DB) *GormAddressRepository {
	if tx == nil {
		return r
	}
	return &GormAddressRepository{db: tx}
}

// GetByIDAndUser 获取用户地址（不属于该用户时视为不存在）
func (r *GormAddressRepository) GetByIDAndUser(id, userID uint) (*models.Address, error) {
	var address models.Address
	if err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&address).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &address, nil
}
