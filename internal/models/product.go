package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 商品表（目录协作方的数据，交易核心只读）
type Product struct {
	ID            uint           `gorm:"primarykey" json:"id"`                                 // 主键
	Name          string         `gorm:"not null" json:"name"`                                 // 商品名
	Slug          string         `gorm:"uniqueIndex;not null" json:"slug"`                     // 唯一标识
	SKU           string         `gorm:"uniqueIndex;not null" json:"sku"`                      // 商品编码
	Price         Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price"`  // 价格
	Currency      string         `gorm:"type:varchar(3);not null;default:'USD'" json:"currency"` // 币种
	ImageURL      string         `gorm:"type:text" json:"image_url"`                           // 主图地址
	StockQuantity int            `gorm:"not null;default:0" json:"stock_quantity"`             // 库存数量
	IsActive      bool           `gorm:"default:true;index" json:"is_active"`                  // 是否上架
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`                              // 创建时间
	UpdatedAt     time.Time      `json:"updated_at"`                                           // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                                       // 软删除时间

	// 关联
	Variants []ProductVariant `gorm:"foreignKey:ProductID" json:"variants,omitempty"` // 变体列表
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}
