package models

import (
	"time"

	"gorm.io/gorm"
)

// ProductVariant 商品变体（规格），价格为相对主商品的加价
type ProductVariant struct {
	ID              uint           `gorm:"primarykey" json:"id"`                                          // 主键
	ProductID       uint           `gorm:"index;not null" json:"product_id"`                              // 商品ID
	Name            string         `gorm:"not null" json:"name"`                                          // 变体名（如颜色/尺码）
	SKU             string         `gorm:"uniqueIndex;not null" json:"sku"`                               // 变体编码
	PriceAdjustment Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price_adjustment"` // 价格调整（可为负）
	StockQuantity   int            `gorm:"not null;default:0" json:"stock_quantity"`                      // 变体库存
	IsActive        bool           `gorm:"default:true;index" json:"is_active"`                           // 是否可售
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                                       // 创建时间
	UpdatedAt       time.Time      `json:"updated_at"`                                                    // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                                // 软删除时间
}

// TableName 指定表名
func (ProductVariant) TableName() string {
	return "product_variants"
}
