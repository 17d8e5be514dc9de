package models

import "time"

// CartItem 购物车条目，(cart, product, variant) 唯一；variant 为 0 表示无变体。
// 物理删除：移除/清空/结账后同一商品要能重新加入，软删除会占住唯一索引
type CartItem struct {
	ID                uint      `gorm:"primarykey" json:"id"`                                                      // 主键
	CartID            uint      `gorm:"not null;uniqueIndex:idx_cart_product_variant" json:"cart_id"`              // 购物车ID
	ProductID         uint      `gorm:"not null;uniqueIndex:idx_cart_product_variant" json:"product_id"`           // 商品ID
	VariantID         uint      `gorm:"not null;default:0;uniqueIndex:idx_cart_product_variant" json:"variant_id"` // 变体ID（0 表示无变体）
	Quantity          int       `gorm:"not null" json:"quantity"`                                                  // 数量
	UnitPriceSnapshot Money     `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price_snapshot"`          // 加入时的单价快照
	CreatedAt         time.Time `gorm:"index" json:"created_at"`                                                   // 创建时间
	UpdatedAt         time.Time `gorm:"index" json:"updated_at"`                                                   // 更新时间

	Product *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"` // 关联商品
	Variant *ProductVariant `gorm:"foreignKey:VariantID" json:"variant,omitempty"` // 关联变体
}

// TableName 指定表名
func (CartItem) TableName() string {
	return "cart_items"
}
