// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"shopadmin/internal/models"
)

// OrderStore reads customer orders. Orders are created by the storefront;
// staff only browse them.
type OrderStore struct {
	db *sql.DB
}

// NewOrderStore returns a new OrderStore.
func NewOrderStore(db *sql.DB) *OrderStore {
	return &OrderStore{db: db}
}

const orderColumns = `id, order_number, user_id, recipient_name, recipient_phone,
	shipping_address, payment_method, total_amount, shipping_fee, discount_amount,
	status, order_notes, created_at, updated_at`

const orderItemColumns = `id, order_id, product_id, product_name, product_description,
	product_price, product_discount_rate, product_image_url, quantity, unit_price,
	total_price, created_at, updated_at`

func scanOrder(scanner interface{ Scan(...any) error }) (*models.Order, error) {
	var o models.Order
	err := scanner.Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &o.RecipientName, &o.RecipientPhone,
		&o.ShippingAddress, &o.PaymentMethod, &o.TotalAmount, &o.ShippingFee, &o.DiscountAmount,
		&o.Status, &o.OrderNotes, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.Items = []models.OrderItem{}
	return &o, nil
}

func scanOrderItem(scanner interface{ Scan(...any) error }) (*models.OrderItem, error) {
	var it models.OrderItem
	err := scanner.Scan(
		&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.ProductDescription,
		&it.ProductPrice, &it.ProductDiscountRate, &it.ProductImageURL, &it.Quantity, &it.UnitPrice,
		&it.TotalPrice, &it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// OrderFilter narrows and orders an order listing.
type OrderFilter struct {
	Search string             // order number, recipient name or phone
	Status models.OrderStatus // empty for all
	Sort   string             // created_at, total_amount, status
	Order  string             // asc or desc
	Page   int
	Limit  int
}

var orderSort = map[string]string{
	"created_at":   "created_at",
	"total_amount": "total_amount",
	"status":       "status",
}

// List returns one page of orders without their items.
func (s *OrderStore) List(ctx context.Context, f OrderFilter) (Page[models.Order], error) {
	page, limit, offset := paging(f.Page, f.Limit)
	result := Page[models.Order]{Items: []models.Order{}, Page: page, Limit: limit}

	var w where
	if f.Search != "" {
		w.add("(order_number ILIKE ? OR recipient_name ILIKE ? OR recipient_phone ILIKE ?)", likePattern(f.Search))
	}
	if f.Status != "" {
		w.add("status = ?", string(f.Status))
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`+w.String(), w.args...).Scan(&result.Total); err != nil {
		return result, fmt.Errorf("count orders: %w", err)
	}

	query := `SELECT ` + orderColumns + ` FROM orders` + w.String() +
		` ORDER BY ` + orderBy(orderSort, f.Sort, "created_at", f.Order) + `, id` +
		` LIMIT ` + w.next(limit) + ` OFFSET ` + w.next(offset)

	rows, err := s.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return result, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return result, fmt.Errorf("scan order: %w", err)
		}
		result.Items = append(result.Items, *o)
	}
	return result, rows.Err()
}

// FindByID retrieves an order with its line items. Returns nil if not found.
func (s *OrderStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find order by id: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+orderItemColumns+` FROM order_items
		WHERE order_id = $1 ORDER BY created_at, id`, id)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		it, err := scanOrderItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		o.Items = append(o.Items, *it)
	}
	return o, rows.Err()
}
