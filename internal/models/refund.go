package models

import (
	"time"

	"gorm.io/gorm"
)

// Refund 退款记录
type Refund struct {
	ID          uint           `gorm:"primarykey" json:"id"`                      // 主键
	RefundID    string         `gorm:"uniqueIndex;not null" json:"refund_id"`     // 退款单号（REF-XXXXXXXX）
	PaymentID   uint           `gorm:"index;not null" json:"payment_id"`          // 支付记录ID
	OrderID     uint           `gorm:"index;not null" json:"order_id"`            // 订单ID
	UserID      uint           `gorm:"index;not null" json:"user_id"`             // 申请用户ID
	Amount      Money          `gorm:"type:decimal(20,2);not null" json:"amount"` // 退款金额
	Currency    string         `gorm:"type:varchar(3);not null" json:"currency"`  // 币种
	Status      string         `gorm:"index;not null" json:"status"`              // 退款状态
	Reason      string         `gorm:"type:text" json:"reason,omitempty"`         // 退款原因
	GatewayRef  string         `gorm:"index" json:"gateway_ref"`                  // 网关退款流水号
	CompletedAt *time.Time     `gorm:"index" json:"completed_at"`                 // 完成时间
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                   // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`                   // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                            // 软删除时间
}

// TableName 指定表名
func (Refund) TableName() string {
	return "refunds"
}
