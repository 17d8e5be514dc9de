// Package gateway 定义支付网关协作方的抽象契约。
// 交易核心不绑定任何具体提供方的报文格式，签名与回调验签全部委托给网关实现。
package gateway

import (
	"context"
	"errors"

	"github.com/vendora-next/internal/models"
)

var (
	ErrConfigInvalid  = errors.New("gateway config invalid")
	ErrRequestFailed  = errors.New("gateway request failed")
	ErrGatewayTimeout = errors.New("gateway timeout")
)

// ChargeRequest 扣款请求
type ChargeRequest struct {
	PaymentID   string       // 支付单号（幂等键）
	OrderNumber string       // 订单编号
	Amount      models.Money // 金额
	Currency    string       // 币种
}

// ChargeResult 扣款结果。Success 为 false 表示网关明确拒绝
type ChargeResult struct {
	Success      bool
	GatewayTxnID string // 网关流水号
	Method       string // 实际支付方式（由网关返回）
	Reason       string // 拒绝原因
}

// RefundRequest 退款请求
type RefundRequest struct {
	RefundID     string       // 退款单号（幂等键）
	PaymentID    string       // 原支付单号
	GatewayTxnID string       // 原网关流水号
	Amount       models.Money // 退款金额
	Currency     string       // 币种
}

// RefundResult 退款结果
type RefundResult struct {
	Success    bool
	GatewayRef string // 网关退款流水号
	Reason     string // 拒绝原因
}

// Gateway 支付网关契约。
// Charge/Refund 返回 error 表示结果未知（网络失败、超时），
// 返回 Success=false 表示网关明确拒绝，两者必须区分处理。
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
	Refund(ctx context.Context, req RefundRequest) (*RefundResult, error)
	VerifyWebhook(payload []byte, signature string) bool
}
