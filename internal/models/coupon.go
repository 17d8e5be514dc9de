package models

import (
	"time"

	"gorm.io/gorm"
)

// Coupon 优惠券
type Coupon struct {
	ID            uint           `gorm:"primarykey" json:"id"`                                        // 主键
	Code          string         `gorm:"uniqueIndex;not null" json:"code"`                            // 优惠码
	CouponType    string         `gorm:"not null" json:"coupon_type"`                                 // 类型（percentage/fixed/free_shipping）
	Value         Money          `gorm:"type:decimal(20,2);not null" json:"value"`                    // 数值（百分比或固定金额）
	MinimumAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"minimum_amount"` // 使用门槛
	UsageLimit    int            `gorm:"not null;default:0" json:"usage_limit"`                       // 总使用上限（0 表示不限制）
	UsageCount    int            `gorm:"not null;default:0" json:"usage_count"`                       // 已使用次数
	PerUserLimit  int            `gorm:"not null;default:0" json:"per_user_limit"`                    // 每人使用上限（0 表示不限制）
	ScopeType     string         `gorm:"default:''" json:"scope_type"`                                // 适用范围（product/category，空为全场）
	ScopeRefIDs   string         `gorm:"type:text" json:"scope_ref_ids"`                              // 适用对象ID集合（JSON数组）
	ValidFrom     *time.Time     `gorm:"index" json:"valid_from"`                                     // 生效时间
	ValidUntil    *time.Time     `gorm:"index" json:"valid_until"`                                    // 失效时间
	IsActive      bool           `gorm:"not null;default:true" json:"is_active"`                      // 是否启用
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`                                     // 创建时间
	UpdatedAt     time.Time      `gorm:"index" json:"updated_at"`                                     // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                                              // 软删除时间
}

// TableName 指定表名
func (Coupon) TableName() string {
	return "coupons"
}
