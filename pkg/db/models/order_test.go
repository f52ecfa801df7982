package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/creamcommerce/commerce-backend/pkg/enums"
	pkgerrors "github.com/creamcommerce/commerce-backend/pkg/errors"
)

func testOrder(t *testing.T) *Order {
	t.Helper()
	order, err := NewOrder(uuid.New(), []OrderItem{
		{
			ProductID:   uuid.New(),
			OptionID:    uuid.New(),
			ProductName: "sneaker",
			OptionName:  "270",
			SKU:         "SNK-270",
			UnitPrice:   decimal.NewFromInt(1000),
			Quantity:    2,
		},
	}, "221B Baker Street")
	if err != nil {
		t.Fatalf("NewOrder: %v", err)
	}
	return order
}

func TestNewOrderComputesTotalOnce(t *testing.T) {
	order := testOrder(t)
	if order.Status != enums.OrderStatusPending {
		t.Fatalf("expected pending status, got %s", order.Status)
	}
	if !order.TotalAmount.Equal(decimal.NewFromInt(2000)) {
		t.Fatalf("expected total 2000, got %s", order.TotalAmount)
	}
	for _, item := range order.Items {
		if item.OrderID != order.ID {
			t.Fatalf("item not bound to order")
		}
	}
}

func TestNewOrderRejectsInvalidInput(t *testing.T) {
	if _, err := NewOrder(uuid.Nil, nil, ""); err == nil {
		t.Fatal("expected error for nil user")
	}
	if _, err := NewOrder(uuid.New(), nil, ""); err == nil {
		t.Fatal("expected error for empty items")
	}
	_, err := NewOrder(uuid.New(), []OrderItem{{Quantity: 0, UnitPrice: decimal.NewFromInt(10)}}, "addr")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestOrderHappyPathTransitions(t *testing.T) {
	order := testOrder(t)
	steps := []struct {
		name string
		fn   func() error
		want enums.OrderStatus
	}{
		{"pay", order.Pay, enums.OrderStatusPaid},
		{"process", order.ProcessShipping, enums.OrderStatusProcessing},
		{"ship", order.Ship, enums.OrderStatusShipped},
		{"deliver", order.Deliver, enums.OrderStatusDelivered},
		{"complete", order.Complete, enums.OrderStatusCompleted},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			t.Fatalf("%s: %v", step.name, err)
		}
		if order.Status != step.want {
			t.Fatalf("%s: expected %s got %s", step.name, step.want, order.Status)
		}
	}
	if !order.Status.IsTerminal() {
		t.Fatal("completed should be terminal")
	}
}

func TestOrderRefundFlow(t *testing.T) {
	order := testOrder(t)
	if err := order.Pay(); err != nil {
		t.Fatalf("pay: %v", err)
	}
	if err := order.RequestRefund(); err != nil {
		t.Fatalf("request refund: %v", err)
	}
	if err := order.Refund(); err != nil {
		t.Fatalf("refund: %v", err)
	}
	if order.Status != enums.OrderStatusRefunded {
		t.Fatalf("expected refunded, got %s", order.Status)
	}
}

func TestOrderRejectsIllegalTransitions(t *testing.T) {
	order := testOrder(t)

	// pay twice
	if err := order.Pay(); err != nil {
		t.Fatalf("pay: %v", err)
	}
	err := order.Pay()
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}

	// refund before requesting it
	if err := order.Refund(); err == nil {
		t.Fatal("refund from paid should fail")
	}

	// cancel after shipping started
	if err := order.ProcessShipping(); err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := order.Cancel(); err == nil {
		t.Fatal("cancel from processing should fail")
	}
}

func TestCanceledOrderIsTerminal(t *testing.T) {
	order := testOrder(t)
	if err := order.Cancel(); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := order.Cancel(); err == nil {
		t.Fatal("cancel on canceled order should fail")
	}
	if err := order.Pay(); err == nil {
		t.Fatal("pay on canceled order should fail")
	}
}
