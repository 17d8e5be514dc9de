package gateway

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
)

// SandboxGateway 进程内模拟网关，开发与联调用。
// 金额以 .99 结尾的扣款会被拒绝，便于验证失败路径。
type SandboxGateway struct {
	seq uint64
}

// NewSandboxGateway 创建模拟网关
func NewSandboxGateway() *SandboxGateway {
	return &SandboxGateway{}
}

// Charge 模拟扣款
func (g *SandboxGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayTimeout, err)
	}
	if strings.HasSuffix(req.Amount.String(), ".99") {
		return &ChargeResult{Success: false, Reason: "card_declined"}, nil
	}
	return &ChargeResult{
		Success:      true,
		GatewayTxnID: fmt.Sprintf("sandbox-txn-%d", atomic.AddUint64(&g.seq, 1)),
		Method:       "sandbox",
	}, nil
}

// Refund 模拟退款
func (g *SandboxGateway) Refund(ctx context.Context, req RefundRequest) (*RefundResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayTimeout, err)
	}
	return &RefundResult{
		Success:    true,
		GatewayRef: fmt.Sprintf("sandbox-ref-%d", atomic.AddUint64(&g.seq, 1)),
	}, nil
}

// VerifyWebhook 模拟网关不签名，始终放行
func (g *SandboxGateway) VerifyWebhook(payload []byte, signature string) bool {
	return true
}
