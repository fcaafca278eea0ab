// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	OrderStatusReceived  OrderStatus = "received"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusShipping  OrderStatus = "shipping"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusReturned  OrderStatus = "returned"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusReceived, OrderStatusPaid, OrderStatusPreparing,
		OrderStatusShipping, OrderStatusDelivered, OrderStatusCancelled,
		OrderStatusReturned:
		return true
	}
	return false
}

// PaymentMethod is how the customer paid.
type PaymentMethod string

const (
	PaymentCard     PaymentMethod = "card"
	PaymentTransfer PaymentMethod = "transfer"
	PaymentCash     PaymentMethod = "cash"
)

// Order is a customer order. Orders are created by the storefront and are
// read-only in the admin.
type Order struct {
	ID              uuid.UUID     `json:"id"`
	OrderNumber     string        `json:"order_number"`
	UserID          *uuid.UUID    `json:"user_id,omitempty"`
	RecipientName   string        `json:"recipient_name"`
	RecipientPhone  string        `json:"recipient_phone"`
	ShippingAddress string        `json:"shipping_address"`
	PaymentMethod   PaymentMethod `json:"payment_method"`
	TotalAmount     int64         `json:"total_amount"`
	ShippingFee     int64         `json:"shipping_fee"`
	DiscountAmount  int64         `json:"discount_amount"`
	Status          OrderStatus   `json:"status"`
	OrderNotes      *string       `json:"order_notes,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`

	Items []OrderItem `json:"items"`
}

// OrderItem is one line of an order. Product fields are copied at order
// time so later catalog edits do not rewrite history.
type OrderItem struct {
	ID                  uuid.UUID  `json:"id"`
	OrderID             uuid.UUID  `json:"order_id"`
	ProductID           *uuid.UUID `json:"product_id,omitempty"`
	ProductName         string     `json:"product_name"`
	ProductDescription  string     `json:"product_description"`
	ProductPrice        int64      `json:"product_price"`
	ProductDiscountRate int        `json:"product_discount_rate"`
	ProductImageURL     *string    `json:"product_image_url,omitempty"`
	Quantity            int        `json:"quantity"`
	UnitPrice           int64      `json:"unit_price"`
	TotalPrice          int64      `json:"total_price"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// ItemCount returns the total quantity across all items.
func (o *Order) ItemCount() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}
