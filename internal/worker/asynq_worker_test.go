package worker

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/vendora-next/internal/queue"

	"github.com/hibiken/asynq"
)

func TestHandleNotificationDispatchInvalidPayload(t *testing.T) {
	consumer := &Consumer{}
	task := asynq.NewTask(queue.TaskNotificationDispatch, []byte("{not json"))
	if err := consumer.handleNotificationDispatch(context.Background(), task); err == nil {
		t.Fatalf("expected unmarshal error for invalid payload")
	}
}

func TestHandleNotificationDispatchEmptyEvent(t *testing.T) {
	consumer := &Consumer{}
	body, err := json.Marshal(queue.NotificationPayload{UserID: 7})
	if err != nil {
		t.Fatalf("marshal payload failed: %v", err)
	}
	task := asynq.NewTask(queue.TaskNotificationDispatch, body)
	if err := consumer.handleNotificationDispatch(context.Background(), task); err != nil {
		t.Fatalf("empty event should be skipped, got error: %v", err)
	}
}

func TestHandleOrderPaymentTimeoutInvalidPayload(t *testing.T) {
	consumer := &Consumer{}
	task := asynq.NewTask(queue.TaskOrderPaymentTimeout, []byte("oops"))
	if err := consumer.handleOrderPaymentTimeout(context.Background(), task); err == nil {
		t.Fatalf("expected unmarshal error for invalid payload")
	}
}

func TestHandleOrderPaymentTimeoutZeroOrderID(t *testing.T) {
	consumer := &Consumer{}
	body, err := json.Marshal(queue.OrderPaymentTimeoutPayload{OrderID: 0})
	if err != nil {
		t.Fatalf("marshal payload failed: %v", err)
	}
	task := asynq.NewTask(queue.TaskOrderPaymentTimeout, body)
	if err := consumer.handleOrderPaymentTimeout(context.Background(), task); err != nil {
		t.Fatalf("zero order id should be skipped, got error: %v", err)
	}
}
