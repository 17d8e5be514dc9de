package models

import (
	"time"

	"gorm.io/gorm"
)

// Cart 购物车（每个用户一个）。totals 字段仅为缓存，条目才是事实来源
type Cart struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                         // 主键
	UserID         uint           `gorm:"uniqueIndex;not null" json:"user_id"`                          // 用户ID
	CouponID       *uint          `gorm:"index" json:"coupon_id,omitempty"`                             // 已应用的优惠券ID
	Currency       string         `gorm:"type:varchar(3);not null;default:'USD'" json:"currency"`       // 币种
	Subtotal       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`        // 小计（缓存）
	DiscountAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"` // 优惠金额（缓存）
	TaxAmount      Money          `gorm:"type:decimal(20,2);not null;default:0" json:"tax_amount"`      // 税额（缓存）
	ShippingAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"shipping_amount"` // 运费（缓存）
	TotalAmount    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`    // 应付金额（缓存）
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                                      // 创建时间
	UpdatedAt      time.Time      `gorm:"index" json:"updated_at"`                                      // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                               // 软删除时间

	// 关联
	Items  []CartItem `gorm:"foreignKey:CartID" json:"items,omitempty"`  // 条目
	Coupon *Coupon    `gorm:"foreignKey:CouponID" json:"coupon,omitempty"` // 优惠券
}

// TableName 指定表名
func (Cart) TableName() string {
	return "carts"
}
