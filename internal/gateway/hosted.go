package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const defaultHostedTimeout = 10 * time.Second

// HostedConfig 托管网关配置
type HostedConfig struct {
	Endpoint string        // 网关地址，如 https://pay.example.com
	APIKey   string        // API Key
	Secret   string        // 签名密钥
	Timeout  time.Duration // 单次请求超时
}

// HostedGateway 基于 JSON over HTTP 的托管网关客户端，请求体使用 HMAC-SHA256 签名
type HostedGateway struct {
	cfg    HostedConfig
	client *http.Client
}

// NewHostedGateway 创建托管网关客户端
func NewHostedGateway(cfg HostedConfig) (*HostedGateway, error) {
	cfg.Endpoint = strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.Secret = strings.TrimSpace(cfg.Secret)
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("%w: endpoint is required", ErrConfigInvalid)
	}
	if cfg.Secret == "" {
		return nil, fmt.Errorf("%w: secret is required", ErrConfigInvalid)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultHostedTimeout
	}
	return &HostedGateway{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Charge 发起扣款
func (g *HostedGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	payload := map[string]interface{}{
		"payment_id":   req.PaymentID,
		"order_number": req.OrderNumber,
		"amount":       req.Amount.String(),
		"currency":     req.Currency,
	}

	var resp struct {
		Success       bool   `json:"success"`
		TransactionID string `json:"transaction_id"`
		Method        string `json:"method"`
		Reason        string `json:"reason"`
	}
	if err := g.postJSON(ctx, "/v1/charges", payload, &resp); err != nil {
		return nil, err
	}
	return &ChargeResult{
		Success:      resp.Success,
		GatewayTxnID: resp.TransactionID,
		Method:       resp.Method,
		Reason:       resp.Reason,
	}, nil
}

// Refund 发起退款
func (g *HostedGateway) Refund(ctx context.Context, req RefundRequest) (*RefundResult, error) {
	payload := map[string]interface{}{
		"refund_id":      req.RefundID,
		"payment_id":     req.PaymentID,
		"transaction_id": req.GatewayTxnID,
		"amount":         req.Amount.String(),
		"currency":       req.Currency,
	}

	var resp struct {
		Success   bool   `json:"success"`
		RefundRef string `json:"refund_ref"`
		Reason    string `json:"reason"`
	}
	if err := g.postJSON(ctx, "/v1/refunds", payload, &resp); err != nil {
		return nil, err
	}
	return &RefundResult{
		Success:    resp.Success,
		GatewayRef: resp.RefundRef,
		Reason:     resp.Reason,
	}, nil
}

// VerifyWebhook 校验回调签名（对原始报文做 HMAC-SHA256）
func (g *HostedGateway) VerifyWebhook(payload []byte, signature string) bool {
	signature = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(signature), "sha256="))
	if signature == "" {
		return false
	}
	expected := g.sign(payload)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}

func (g *HostedGateway) sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(g.cfg.Secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func (g *HostedGateway) postJSON(ctx context.Context, path string, payload map[string]interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.Endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Api-Key", g.cfg.APIKey)
	httpReq.Header.Set("X-Signature", "sha256="+g.sign(body))

	resp, err := g.client.Do(httpReq)
	if err != nil {
		if isTimeoutErr(err) {
			return fmt.Errorf("%w: %v", ErrGatewayTimeout, err)
		}
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: http status %d", ErrRequestFailed, resp.StatusCode)
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	return nil
}

func isTimeoutErr(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, os.ErrDeadlineExceeded)
}
