package handlers

import (
	"net/http"
	"strings"

	"shopadmin/internal/models"
	"shopadmin/internal/store"
)

// OrdersList returns one page of orders. Query parameters: search (order
// number, recipient name or phone), status, sort, order, page, limit.
func (a *Admin) OrdersList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.OrderFilter{
		Search: strings.TrimSpace(q.Get("search")),
		Status: models.OrderStatus(q.Get("status")),
		Sort:   q.Get("sort"),
		Order:  q.Get("order"),
		Page:   queryInt(r, "page", 1),
		Limit:  queryInt(r, "limit", store.DefaultPageSize),
	}
	if f.Status != "" && !f.Status.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid order status.")
		return
	}

	page, err := a.orders.List(r.Context(), f)
	if err != nil {
		serverError(w, r, "list orders failed", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// OrderGet returns an order with its line items.
func (a *Admin) OrderGet(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	o, err := a.orders.FindByID(r.Context(), id)
	if err != nil {
		serverError(w, r, "find order failed", err)
		return
	}
	if o == nil {
		writeError(w, http.StatusNotFound, "Order not found.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"order":      o,
		"item_count": o.ItemCount(),
	})
}
