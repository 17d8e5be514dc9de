package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表。创建后除状态与物流字段外不可变
type Order struct {
	ID                uint           `gorm:"primarykey" json:"id"`                                         // 主键
	OrderNumber       string         `gorm:"uniqueIndex;not null" json:"order_number"`                     // 订单编号（ORD-YYYYMMDD-XXXXXX）
	UserID            uint           `gorm:"index;not null" json:"user_id"`                                // 用户ID
	Status            string         `gorm:"index;not null" json:"status"`                                 // 订单状态
	Currency          string         `gorm:"type:varchar(3);not null" json:"currency"`                     // 币种
	Subtotal          Money          `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`        // 小计
	DiscountAmount    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"` // 优惠金额
	TaxAmount         Money          `gorm:"type:decimal(20,2);not null;default:0" json:"tax_amount"`      // 税额
	ShippingAmount    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"shipping_amount"` // 运费
	TotalAmount       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`    // 实付金额
	CouponID          *uint          `gorm:"index" json:"coupon_id,omitempty"`                             // 优惠券ID
	ShippingAddressID uint           `gorm:"not null" json:"shipping_address_id"`                          // 收货地址ID
	BillingAddressID  *uint          `json:"billing_address_id,omitempty"`                                 // 账单地址ID（空则同收货地址）
	Notes             string         `gorm:"type:text" json:"notes,omitempty"`                             // 备注
	TrackingNumber    string         `gorm:"default:''" json:"tracking_number,omitempty"`                  // 物流单号
	ConfirmedAt       *time.Time     `gorm:"index" json:"confirmed_at"`                                    // 确认时间
	ShippedAt         *time.Time     `json:"shipped_at"`                                                   // 发货时间
	DeliveredAt       *time.Time     `json:"delivered_at"`                                                 // 送达时间
	CancelledAt       *time.Time     `gorm:"index" json:"cancelled_at"`                                    // 取消时间
	CreatedAt         time.Time      `gorm:"index" json:"created_at"`                                      // 创建时间
	UpdatedAt         time.Time      `gorm:"index" json:"updated_at"`                                      // 更新时间
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`                                               // 软删除时间

	// 关联
	Items   []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`   // 订单项
	Payment *Payment    `gorm:"foreignKey:OrderID" json:"payment,omitempty"` // 支付记录
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
