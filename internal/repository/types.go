package repository

import "time"

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Status      string
	OrderNumber string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// PaymentListFilter 查询支付列表的过滤条件
type PaymentListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	OrderID     uint
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// RefundListFilter 查询退款列表的过滤条件
type RefundListFilter struct {
	Page      int
	PageSize  int
	UserID    uint
	PaymentID uint
	OrderID   uint
	Status    string
}

// CouponListFilter 查询优惠券列表的过滤条件
type CouponListFilter struct {
	Page     int
	PageSize int
	Code     string
	IsActive *bool
}
