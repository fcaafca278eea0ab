package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"shopadmin/internal/middleware"
	"shopadmin/internal/models"
	"shopadmin/internal/store"
)

// productStoreError maps product store errors onto API responses. A failed
// image sync leaves the product unchanged, so the client may resubmit.
func productStoreError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	var perr *store.PersistenceError
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Product not found.")
	case errors.As(err, &perr):
		slog.Error(msg, "op", perr.Op, "error", perr.Err, "method", r.Method, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "Saving images failed and no changes were made. Please try again.")
	default:
		serverError(w, r, msg, err)
	}
}

// ProductsList returns one page of products matching the query filters:
// search, published (all|published|unpublished), sort, order, page, limit.
func (a *Admin) ProductsList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.ProductFilter{
		Search:    strings.TrimSpace(q.Get("search")),
		Published: q.Get("published"),
		Sort:      q.Get("sort"),
		Order:     q.Get("order"),
		Page:      queryInt(r, "page", 1),
		Limit:     queryInt(r, "limit", store.DefaultPageSize),
	}
	switch f.Published {
	case "", store.PublishedAll, store.PublishedOnly, store.DraftsOnly:
	default:
		writeError(w, http.StatusBadRequest, "Invalid published filter.")
		return
	}

	page, err := a.products.List(r.Context(), f)
	if err != nil {
		serverError(w, r, "list products failed", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// ProductGet returns a product with its category and gallery.
func (a *Admin) ProductGet(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	p, err := a.products.FindByID(r.Context(), id)
	if err != nil {
		serverError(w, r, "find product failed", err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "Product not found.")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// readProduct decodes and validates a product body, including the
// existence of its category. It answers the request itself on failure.
func (a *Admin) readProduct(w http.ResponseWriter, r *http.Request, creating bool) (*productInput, bool) {
	var in productInput
	if !decodeJSON(w, r, &in) {
		return nil, false
	}
	msg := in.normalize()
	if msg == "" {
		msg = in.requireImages(creating)
	}
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return nil, false
	}
	exists, err := a.categories.Exists(r.Context(), in.CategoryID)
	if err != nil {
		serverError(w, r, "check product category failed", err)
		return nil, false
	}
	if !exists {
		writeError(w, http.StatusBadRequest, "Category does not exist.")
		return nil, false
	}
	return &in, true
}

// ProductCreate adds a product with its gallery in display order.
func (a *Admin) ProductCreate(w http.ResponseWriter, r *http.Request) {
	in, ok := a.readProduct(w, r, true)
	if !ok {
		return
	}
	p := in.product()
	if sess := middleware.SessionFromCtx(r.Context()); sess != nil {
		p.UploadedBy = &sess.UserID
	}

	created, err := a.products.Create(r.Context(), p, in.ImageURLs)
	if err != nil {
		productStoreError(w, r, "create product failed", err)
		return
	}
	if created.Images == nil {
		created.Images = []models.ProductImage{}
	}
	writeJSON(w, http.StatusCreated, created)
}

// ProductUpdate writes a product's fields and, when image_urls is present,
// reconciles its gallery to that list.
func (a *Admin) ProductUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	in, ok := a.readProduct(w, r, false)
	if !ok {
		return
	}
	p := in.product()
	p.ID = id

	updated, err := a.products.Update(r.Context(), p, in.ImageURLs)
	if err != nil {
		productStoreError(w, r, "update product failed", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// ProductImagesSync reconciles only the gallery of a product and reports
// how many rows each kind of change touched.
func (a *Admin) ProductImagesSync(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		ImageURLs []string `json:"image_urls"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	in := productInput{ImageURLs: body.ImageURLs}
	if in.ImageURLs == nil {
		in.ImageURLs = []string{}
	}
	if msg := in.validateImages(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	p, err := a.products.FindByID(r.Context(), id)
	if err != nil {
		serverError(w, r, "find product failed", err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "Product not found.")
		return
	}

	plan, err := a.images.Sync(r.Context(), id, in.ImageURLs)
	if err != nil {
		productStoreError(w, r, "sync product images failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"deleted":   len(plan.Delete),
		"inserted":  len(plan.Insert),
		"reordered": len(plan.Reorder),
	})
}

// ProductDelete removes a product and then its image blobs.
func (a *Admin) ProductDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	urls, err := a.products.Delete(r.Context(), id)
	if err != nil {
		productStoreError(w, r, "delete product failed", err)
		return
	}
	a.removeBlobs(r.Context(), urls...)
	w.WriteHeader(http.StatusNoContent)
}
