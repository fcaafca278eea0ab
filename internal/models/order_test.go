package models

import "testing"

func TestOrderStatusValid(t *testing.T) {
	tests := []struct {
		status OrderStatus
		want   bool
	}{
		{OrderStatusReceived, true},
		{OrderStatusPaid, true},
		{OrderStatusPreparing, true},
		{OrderStatusShipping, true},
		{OrderStatusDelivered, true},
		{OrderStatusCancelled, true},
		{OrderStatusReturned, true},
		{OrderStatus(""), false},
		{OrderStatus("Paid"), false},
		{OrderStatus("refunded"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.Valid(); got != tt.want {
				t.Errorf("OrderStatus(%q).Valid() = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestOrderItemCount(t *testing.T) {
	o := &Order{Items: []OrderItem{{Quantity: 2}, {Quantity: 3}}}
	if got := o.ItemCount(); got != 5 {
		t.Errorf("ItemCount() = %d, want 5", got)
	}
	if got := (&Order{}).ItemCount(); got != 0 {
		t.Errorf("ItemCount() on empty order = %d, want 0", got)
	}
}
