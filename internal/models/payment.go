package models

import (
	"time"

	"gorm.io/gorm"
)

// Payment 支付记录，与订单一一对应
type Payment struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                        // 主键
	PaymentID      string         `gorm:"uniqueIndex;not null" json:"payment_id"`                      // 支付单号（PAY-XXXXXXXX）
	OrderID        uint           `gorm:"uniqueIndex;not null" json:"order_id"`                        // 订单ID
	UserID         uint           `gorm:"index;not null" json:"user_id"`                               // 用户ID
	Amount         Money          `gorm:"type:decimal(20,2);not null" json:"amount"`                   // 支付金额
	Currency       string         `gorm:"type:varchar(3);not null" json:"currency"`                    // 币种
	Status         string         `gorm:"index;not null" json:"status"`                                // 支付状态
	Method         string         `gorm:"default:''" json:"method"`                                    // 支付方式标识（由网关返回）
	GatewayTxnID   string         `gorm:"index" json:"gateway_txn_id"`                                 // 网关流水号
	FailureReason  string         `gorm:"type:text" json:"failure_reason,omitempty"`                   // 失败原因
	RefundAmount   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"refund_amount"`  // 已退款累计
	ProcessedAt    *time.Time     `gorm:"index" json:"processed_at"`                                   // 完成时间
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                                     // 创建时间
	UpdatedAt      time.Time      `gorm:"index" json:"updated_at"`                                     // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                              // 软删除时间

	// 关联
	Refunds []Refund `gorm:"foreignKey:PaymentID;references:ID" json:"refunds,omitempty"` // 退款记录
}

// TableName 指定表名
func (Payment) TableName() string {
	return "payments"
}
