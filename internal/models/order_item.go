package models

import (
	"time"

	"gorm.io/gorm"
)

// OrderItem 订单项。商品信息为下单时快照，后续目录变更不回写
type OrderItem struct {
	ID           uint           `gorm:"primarykey" json:"id"`                                     // 主键
	OrderID      uint           `gorm:"index;not null" json:"order_id"`                           // 订单ID
	ProductID    uint           `gorm:"index;not null" json:"product_id"`                         // 商品ID
	VariantID    uint           `gorm:"not null;default:0" json:"variant_id"`                     // 变体ID（0 表示无变体）
	ProductName  string         `gorm:"not null" json:"product_name"`                             // 商品名快照
	ProductSKU   string         `gorm:"not null" json:"product_sku"`                              // 编码快照
	ProductImage string         `gorm:"type:text" json:"product_image"`                           // 图片快照
	VariantName  string         `gorm:"default:''" json:"variant_name,omitempty"`                 // 变体名快照
	UnitPrice    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`  // 单价快照
	Quantity     int            `gorm:"not null" json:"quantity"`                                 // 数量
	TotalPrice   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_price"` // 小计（unit_price × quantity）
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`                                  // 创建时间
	UpdatedAt    time.Time      `json:"updated_at"`                                               // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                                           // 软删除时间
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}
