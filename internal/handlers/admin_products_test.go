package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/google/uuid"

	"shopadmin/internal/models"
	"shopadmin/internal/session"
	"shopadmin/internal/store"
)

func productBody(images ...string) map[string]any {
	body := map[string]any{
		"name":          "Linen Shirt",
		"description":   "Breathable summer linen",
		"price":         49999.7,
		"discount_rate": 10,
		"quantity":      5,
		"is_published":  true,
		"category_id":   2,
		"badges":        []string{" new ", ""},
	}
	if images != nil {
		body["image_urls"] = images
	}
	return body
}

// seedProduct creates a product through the handler and returns it. A
// placeholder image is used when none is given.
func seedProduct(t *testing.T, env *testEnv, images ...string) models.Product {
	t.Helper()
	if len(images) == 0 {
		images = []string{"https://cdn.test/placeholder.png"}
	}
	rec := httptest.NewRecorder()
	env.Admin.ProductCreate(rec, jsonRequest(t, http.MethodPost, "/api/products", productBody(images...)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	var p models.Product
	decode(t, rec, &p)
	return p
}

func TestProductCreate(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()

	req := jsonRequest(t, http.MethodPost, "/api/products", productBody("https://cdn.test/a.png", "https://cdn.test/b.png"))
	req = req.WithContext(ctxWithSession(req.Context(), &session.Data{UserID: userID, TwoFADone: true}))
	rec := httptest.NewRecorder()
	env.Admin.ProductCreate(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var p models.Product
	decode(t, rec, &p)
	if p.Price != 49999 {
		t.Errorf("Price = %d, want floored 49999", p.Price)
	}
	if !reflect.DeepEqual(p.Badges, []string{"new"}) {
		t.Errorf("Badges = %v", p.Badges)
	}
	if p.UploadedBy == nil || *p.UploadedBy != userID {
		t.Errorf("UploadedBy = %v, want %s", p.UploadedBy, userID)
	}
	if len(p.Images) != 2 || !p.Images[0].IsPrimary || p.Images[1].DisplayOrder != 1 {
		t.Errorf("unexpected images: %+v", p.Images)
	}
}

func TestProductCreateRequiresImage(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
	}{
		{"omitted", productBody()},
		{"empty", productBody([]string{}...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			rec := httptest.NewRecorder()
			env.Admin.ProductCreate(rec, jsonRequest(t, http.MethodPost, "/api/products", tt.body))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if msg := errorMessage(t, rec); msg != "At least one image is required." {
				t.Errorf("message = %q", msg)
			}
		})
	}
}

func TestProductCreateDetailDescription(t *testing.T) {
	env := newTestEnv(t)
	body := productBody("https://cdn.test/a.png")
	body["detail_description"] = `<p>Washed linen.</p><script>steal()</script>`
	rec := httptest.NewRecorder()
	env.Admin.ProductCreate(rec, jsonRequest(t, http.MethodPost, "/api/products", body))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var p models.Product
	decode(t, rec, &p)
	if p.DetailDescription != "<p>Washed linen.</p>" {
		t.Errorf("DetailDescription = %q", p.DetailDescription)
	}
}

func TestProductCreateValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{"missing name", func(b map[string]any) { delete(b, "name") }},
		{"short description", func(b map[string]any) { b["description"] = "Too short" }},
		{"unknown category", func(b map[string]any) { b["category_id"] = 99 }},
		{"negative price", func(b map[string]any) { b["price"] = -5 }},
		{"bad image url", func(b map[string]any) { b["image_urls"] = []string{"not a url"} }},
		{"quantity not integer", func(b map[string]any) { b["quantity"] = 1.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			body := productBody("https://cdn.test/a.png")
			tt.mutate(body)
			rec := httptest.NewRecorder()
			env.Admin.ProductCreate(rec, jsonRequest(t, http.MethodPost, "/api/products", body))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400: %s", rec.Code, rec.Body.String())
			}
			if len(env.Products.rows) != 0 {
				t.Error("product was created despite validation failure")
			}
		})
	}
}

func TestProductUpdateImages(t *testing.T) {
	env := newTestEnv(t)
	p := seedProduct(t, env, "https://cdn.test/a.png", "https://cdn.test/b.png")

	update := func(body map[string]any) models.Product {
		t.Helper()
		id := p.ID.String()
		req := withChiURLParam(jsonRequest(t, http.MethodPut, "/api/products/"+id, body), "id", id)
		rec := httptest.NewRecorder()
		env.Admin.ProductUpdate(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		var out models.Product
		decode(t, rec, &out)
		return out
	}

	t.Run("omitted leaves gallery", func(t *testing.T) {
		out := update(productBody())
		if got := out.ImageURLs(); !reflect.DeepEqual(got, []string{"https://cdn.test/a.png", "https://cdn.test/b.png"}) {
			t.Errorf("images = %v", got)
		}
	})
	t.Run("reordered", func(t *testing.T) {
		out := update(productBody("https://cdn.test/b.png", "https://cdn.test/a.png"))
		if out.PrimaryImage() == nil || out.PrimaryImage().ImageURL != "https://cdn.test/b.png" {
			t.Errorf("primary = %+v", out.PrimaryImage())
		}
	})
	t.Run("clearing refused", func(t *testing.T) {
		id := p.ID.String()
		req := withChiURLParam(jsonRequest(t, http.MethodPut, "/api/products/"+id, productBody([]string{}...)), "id", id)
		rec := httptest.NewRecorder()
		env.Admin.ProductUpdate(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
		if got := env.Products.rows[p.ID].ImageURLs(); !reflect.DeepEqual(got, []string{"https://cdn.test/b.png", "https://cdn.test/a.png"}) {
			t.Errorf("images changed to %v", got)
		}
	})
}

func TestProductUpdateNotFound(t *testing.T) {
	env := newTestEnv(t)
	id := uuid.NewString()
	req := withChiURLParam(jsonRequest(t, http.MethodPut, "/api/products/"+id, productBody()), "id", id)
	rec := httptest.NewRecorder()
	env.Admin.ProductUpdate(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestProductUpdateSyncFailure(t *testing.T) {
	env := newTestEnv(t)
	p := seedProduct(t, env, "https://cdn.test/a.png")
	env.Products.syncErr = &store.PersistenceError{Op: "insert", Err: errors.New("unique violation")}

	id := p.ID.String()
	req := withChiURLParam(jsonRequest(t, http.MethodPut, "/api/products/"+id, productBody("https://cdn.test/z.png")), "id", id)
	rec := httptest.NewRecorder()
	env.Admin.ProductUpdate(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if msg := errorMessage(t, rec); msg != "Saving images failed and no changes were made. Please try again." {
		t.Errorf("message = %q", msg)
	}
	if got := env.Products.rows[p.ID].ImageURLs(); !reflect.DeepEqual(got, []string{"https://cdn.test/a.png"}) {
		t.Errorf("images changed to %v", got)
	}
}

func TestProductImagesSync(t *testing.T) {
	env := newTestEnv(t)
	p := seedProduct(t, env, "https://cdn.test/a.png", "https://cdn.test/b.png", "https://cdn.test/c.png")

	id := p.ID.String()
	body := map[string]any{"image_urls": []string{"https://cdn.test/c.png", "https://cdn.test/a.png", "https://cdn.test/d.png"}}
	req := withChiURLParam(jsonRequest(t, http.MethodPut, "/api/products/"+id+"/images", body), "id", id)
	rec := httptest.NewRecorder()
	env.Admin.ProductImagesSync(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var counts map[string]int
	decode(t, rec, &counts)
	want := map[string]int{"deleted": 1, "inserted": 1, "reordered": 2}
	if !reflect.DeepEqual(counts, want) {
		t.Errorf("counts = %v, want %v", counts, want)
	}
}

func TestProductImagesSyncUnknownProduct(t *testing.T) {
	env := newTestEnv(t)
	id := uuid.NewString()
	req := withChiURLParam(jsonRequest(t, http.MethodPut, "/api/products/"+id+"/images", map[string]any{"image_urls": []string{}}), "id", id)
	rec := httptest.NewRecorder()
	env.Admin.ProductImagesSync(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestProductGet(t *testing.T) {
	env := newTestEnv(t)
	p := seedProduct(t, env)

	tests := []struct {
		name       string
		id         string
		wantStatus int
	}{
		{"found", p.ID.String(), http.StatusOK},
		{"missing", uuid.NewString(), http.StatusNotFound},
		{"invalid", "not-a-uuid", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := withChiURLParam(httptest.NewRequest(http.MethodGet, "/api/products/"+tt.id, nil), "id", tt.id)
			rec := httptest.NewRecorder()
			env.Admin.ProductGet(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestProductsListFilters(t *testing.T) {
	env := newTestEnv(t)
	seedProduct(t, env)

	rec := httptest.NewRecorder()
	env.Admin.ProductsList(rec, httptest.NewRequest(http.MethodGet, "/api/products?search=+shirt+&published=unpublished&sort=price&order=asc&page=2&limit=5", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	want := store.ProductFilter{Search: "shirt", Published: store.DraftsOnly, Sort: "price", Order: "asc", Page: 2, Limit: 5}
	if env.Products.lastF != want {
		t.Errorf("filter = %+v, want %+v", env.Products.lastF, want)
	}
	var page store.Page[models.Product]
	decode(t, rec, &page)
	if page.Total != 1 || len(page.Items) != 1 {
		t.Errorf("page = %+v", page)
	}
}

func TestProductsListRejectsBadPublishedFilter(t *testing.T) {
	env := newTestEnv(t)
	rec := httptest.NewRecorder()
	env.Admin.ProductsList(rec, httptest.NewRequest(http.MethodGet, "/api/products?published=maybe", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestProductDeleteRemovesBlobs(t *testing.T) {
	env := newTestEnv(t)
	p := seedProduct(t, env, testBucketURL+"products/a.png", "https://elsewhere.test/b.png")

	id := p.ID.String()
	req := withChiURLParam(httptest.NewRequest(http.MethodDelete, "/api/products/"+id, nil), "id", id)
	rec := httptest.NewRecorder()
	env.Admin.ProductDelete(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if !reflect.DeepEqual(env.Blobs.removed, []string{testBucketURL + "products/a.png"}) {
		t.Errorf("removed = %v", env.Blobs.removed)
	}

	rec = httptest.NewRecorder()
	env.Admin.ProductDelete(rec, withChiURLParam(httptest.NewRequest(http.MethodDelete, "/api/products/"+id, nil), "id", id))
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestProductDeleteKeepsSharedBlobs(t *testing.T) {
	env := newTestEnv(t)
	shared := testBucketURL + "products/shared.png"
	mainURL := testBucketURL + "products/also-main.png"
	own := testBucketURL + "products/own.png"
	inline := testBucketURL + "editor-images/inline.png"

	body := productBody(shared, mainURL, own)
	body["detail_description"] = `<img src="` + inline + `">`
	rec := httptest.NewRecorder()
	env.Admin.ProductCreate(rec, jsonRequest(t, http.MethodPost, "/api/products", body))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	var p models.Product
	decode(t, rec, &p)
	seedProduct(t, env, shared)
	env.Settings.current.MainImageURL = ptr(mainURL)

	id := p.ID.String()
	rec = httptest.NewRecorder()
	env.Admin.ProductDelete(rec, withChiURLParam(httptest.NewRequest(http.MethodDelete, "/api/products/"+id, nil), "id", id))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if want := []string{own, inline}; !reflect.DeepEqual(env.Blobs.removed, want) {
		t.Errorf("removed = %v, want %v", env.Blobs.removed, want)
	}
}

func TestProductDeleteKeepsBlobsWhenReferencesUnavailable(t *testing.T) {
	env := newTestEnv(t)
	p := seedProduct(t, env, testBucketURL+"products/a.png")
	env.Products.refsErr = errBoom

	id := p.ID.String()
	rec := httptest.NewRecorder()
	env.Admin.ProductDelete(rec, withChiURLParam(httptest.NewRequest(http.MethodDelete, "/api/products/"+id, nil), "id", id))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(env.Blobs.removed) != 0 {
		t.Errorf("removed = %v, want nothing", env.Blobs.removed)
	}
}
