package constants

// 订单状态常量
const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
	OrderStatusRefunded   = "refunded"
)

// 支付状态常量
const (
	PaymentStatusPending           = "pending"
	PaymentStatusProcessing        = "processing"
	PaymentStatusCompleted         = "completed"
	PaymentStatusFailed            = "failed"
	PaymentStatusCancelled         = "cancelled"
	PaymentStatusRefunded          = "refunded"
	PaymentStatusPartiallyRefunded = "partially_refunded"
)

// 退款状态常量
const (
	RefundStatusPending    = "pending"
	RefundStatusProcessing = "processing"
	RefundStatusCompleted  = "completed"
	RefundStatusFailed     = "failed"
	RefundStatusCancelled  = "cancelled"
)

// 优惠券类型常量
const (
	CouponTypePercentage   = "percentage"
	CouponTypeFixed        = "fixed"
	CouponTypeFreeShipping = "free_shipping"
)

// 优惠券校验失败原因常量
const (
	CouponRejectInactive        = "inactive"
	CouponRejectOutOfWindow     = "out_of_window"
	CouponRejectUsageExhausted  = "usage_exhausted"
	CouponRejectBelowMinimum    = "below_minimum"
	CouponRejectPerUserExceeded = "per_user_limit_exceeded"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 用户角色常量
const (
	UserRoleCustomer = "customer"
	UserRoleStaff    = "staff"
)

// 通知事件常量
const (
	NotificationEventOrderCreated     = "order_created"
	NotificationEventOrderConfirmed   = "order_confirmed"
	NotificationEventOrderCancelled   = "order_cancelled"
	NotificationEventOrderShipped     = "order_shipped"
	NotificationEventOrderDelivered   = "order_delivered"
	NotificationEventOrderRefunded    = "order_refunded"
	NotificationEventPaymentCompleted = "payment_completed"
	NotificationEventPaymentFailed    = "payment_failed"
	NotificationEventRefundCompleted  = "refund_completed"
)

// 队列常量
const (
	QueueDefault             = "default"
	TaskNotificationDispatch = "notification:dispatch"
	TaskOrderPaymentTimeout  = "order:payment_timeout"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "vn"
)

// 币种常量
const (
	SiteCurrencyDefault = "USD"
)

// 单号前缀常量
const (
	OrderNumberPrefix = "ORD"
	PaymentIDPrefix   = "PAY"
	RefundIDPrefix    = "REF"
)
