package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/vendora-next/internal/constants"

	"github.com/google/uuid"
)

// newOrderNumber 生成订单编号，格式 ORD-YYYYMMDD-XXXXXX。
// 随机段较短，调用方需处理唯一冲突重试
func newOrderNumber(now time.Time) string {
	return fmt.Sprintf("%s-%s-%s", constants.OrderNumberPrefix, now.Format("20060102"), randomToken(6))
}

// newPaymentID 生成支付单号，格式 PAY-XXXXXXXX
func newPaymentID() string {
	return constants.PaymentIDPrefix + "-" + randomToken(8)
}

// newRefundID 生成退款单号，格式 REF-XXXXXXXX
func newRefundID() string {
	return constants.RefundIDPrefix + "-" + randomToken(8)
}

// randomToken 取 UUIDv4 的前 n 位十六进制字符（大写）
func randomToken(n int) string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	if n > len(token) {
		n = len(token)
	}
	return strings.ToUpper(token[:n])
}
