package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vendora-next/internal/models"

	"github.com/shopspring/decimal"
)

func TestHostedGatewayChargeSignsRequest(t *testing.T) {
	var gotSignature string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSignature = r.Header.Get("X-Signature")
		gotBody, _ = io.ReadAll(r.Body)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success":        true,
			"transaction_id": "txn-123",
			"method":         "card",
		})
	}))
	defer server.Close()

	g, err := NewHostedGateway(HostedConfig{
		Endpoint: server.URL,
		APIKey:   "key",
		Secret:   "secret",
	})
	if err != nil {
		t.Fatalf("new hosted gateway failed: %v", err)
	}

	result, err := g.Charge(context.Background(), ChargeRequest{
		PaymentID:   "PAY-AAAA1111",
		OrderNumber: "ORD-20260828-ABC123",
		Amount:      models.NewMoneyFromDecimal(decimal.NewFromInt(42)),
		Currency:    "USD",
	})
	if err != nil {
		t.Fatalf("charge failed: %v", err)
	}
	if !result.Success || result.GatewayTxnID != "txn-123" {
		t.Fatalf("unexpected result: %+v", result)
	}

	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write(gotBody)
	want := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	if gotSignature != want {
		t.Fatalf("signature want %s got %s", want, gotSignature)
	}
}

func TestHostedGatewayChargeDeclined(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"reason":  "insufficient_funds",
		})
	}))
	defer server.Close()

	g, err := NewHostedGateway(HostedConfig{Endpoint: server.URL, Secret: "secret"})
	if err != nil {
		t.Fatalf("new hosted gateway failed: %v", err)
	}

	result, err := g.Charge(context.Background(), ChargeRequest{
		PaymentID: "PAY-BBBB2222",
		Amount:    models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
		Currency:  "USD",
	})
	if err != nil {
		t.Fatalf("explicit decline must not be an error: %v", err)
	}
	if result.Success {
		t.Fatalf("want declined result")
	}
	if result.Reason != "insufficient_funds" {
		t.Fatalf("reason want insufficient_funds got %s", result.Reason)
	}
}

func TestHostedGatewayChargeTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	g, err := NewHostedGateway(HostedConfig{
		Endpoint: server.URL,
		Secret:   "secret",
		Timeout:  20 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("new hosted gateway failed: %v", err)
	}

	_, err = g.Charge(context.Background(), ChargeRequest{
		PaymentID: "PAY-CCCC3333",
		Amount:    models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
		Currency:  "USD",
	})
	if !errors.Is(err, ErrGatewayTimeout) {
		t.Fatalf("want ErrGatewayTimeout got %v", err)
	}
}

func TestHostedGatewayVerifyWebhook(t *testing.T) {
	g, err := NewHostedGateway(HostedConfig{Endpoint: "https://pay.example.com", Secret: "secret"})
	if err != nil {
		t.Fatalf("new hosted gateway failed: %v", err)
	}

	payload := []byte(`{"payment_id":"PAY-DDDD4444","status":"completed"}`)
	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write(payload)
	signature := hex.EncodeToString(mac.Sum(nil))

	if !g.VerifyWebhook(payload, signature) {
		t.Fatalf("valid signature rejected")
	}
	if !g.VerifyWebhook(payload, "sha256="+signature) {
		t.Fatalf("prefixed signature rejected")
	}
	if g.VerifyWebhook(payload, "deadbeef") {
		t.Fatalf("invalid signature accepted")
	}
	if g.VerifyWebhook([]byte(`tampered`), signature) {
		t.Fatalf("tampered payload accepted")
	}
}
