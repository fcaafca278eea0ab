// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler tests.
// The handlers depend on small interfaces, so tests run against in-memory
// fakes and need neither PostgreSQL nor Valkey.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"shopadmin/internal/gallery"
	"shopadmin/internal/middleware"
	"shopadmin/internal/models"
	"shopadmin/internal/richtext"
	"shopadmin/internal/session"
	"shopadmin/internal/store"
	"shopadmin/internal/tree"
)

// --- categories ---

type fakeCategories struct {
	mu       sync.Mutex
	rows     []models.Category
	nextID   int64
	inUse    map[int64]int
	treeHits int
	err      error
}

func newFakeCategories(rows ...models.Category) *fakeCategories {
	f := &fakeCategories{rows: rows, nextID: 1, inUse: map[int64]int{}}
	for _, c := range rows {
		if c.ID >= f.nextID {
			f.nextID = c.ID + 1
		}
	}
	return f
}

func (f *fakeCategories) List(context.Context) ([]models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]models.Category(nil), f.rows...), nil
}

func (f *fakeCategories) Tree(ctx context.Context) ([]tree.Node, error) {
	rows, err := f.List(ctx)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.treeHits++
	f.mu.Unlock()
	return tree.Build(rows), nil
}

func (f *fakeCategories) FindByID(_ context.Context, id int64) (*models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == id {
			c := f.rows[i]
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeCategories) Exists(ctx context.Context, id int64) (bool, error) {
	c, err := f.FindByID(ctx, id)
	return c != nil, err
}

func (f *fakeCategories) Create(ctx context.Context, name string, parentID *int64) (*models.Category, error) {
	if parentID != nil {
		if ok, _ := f.Exists(ctx, *parentID); !ok {
			return nil, store.ErrInvalidParent
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c := models.Category{ID: f.nextID, Name: name, ParentID: parentID, CreatedAt: time.Now()}
	f.nextID++
	f.rows = append(f.rows, c)
	return &c, nil
}

func (f *fakeCategories) Update(ctx context.Context, id int64, name string, parentID *int64) (*models.Category, error) {
	nodes, _ := f.Tree(ctx)
	if tree.Find(nodes, id) == nil {
		return nil, store.ErrNotFound
	}
	if parentID != nil && (tree.Find(nodes, *parentID) == nil || tree.DisallowedParents(nodes, id).Has(*parentID)) {
		return nil, store.ErrInvalidParent
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows[i].Name = name
			f.rows[i].ParentID = parentID
			c := f.rows[i]
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeCategories) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n := f.inUse[id]; n > 0 {
		return &store.InUseError{Count: n}
	}
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

// --- products ---

type fakeProducts struct {
	mu       sync.Mutex
	rows     map[uuid.UUID]*models.Product
	lastF    store.ProductFilter
	syncErr  error
	refsErr  error
	synced   map[uuid.UUID][]string
	settings *fakeSettings
}

func newFakeProducts() *fakeProducts {
	return &fakeProducts{rows: map[uuid.UUID]*models.Product{}, synced: map[uuid.UUID][]string{}}
}

func imagesFor(productID uuid.UUID, urls []string) []models.ProductImage {
	out := make([]models.ProductImage, len(urls))
	for i, u := range urls {
		out[i] = models.ProductImage{ID: uuid.New(), ProductID: productID, ImageURL: u, DisplayOrder: i, IsPrimary: i == 0}
	}
	return out
}

func (f *fakeProducts) List(_ context.Context, flt store.ProductFilter) (store.Page[models.Product], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastF = flt
	page := store.Page[models.Product]{Items: []models.Product{}, Page: 1, Limit: store.DefaultPageSize}
	for _, p := range f.rows {
		page.Items = append(page.Items, *p)
	}
	sort.Slice(page.Items, func(i, j int) bool { return page.Items[i].Name < page.Items[j].Name })
	page.Total = len(page.Items)
	return page, nil
}

func (f *fakeProducts) FindByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProducts) Create(_ context.Context, p *models.Product, imageURLs []string) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.syncErr != nil && len(imageURLs) > 0 {
		return nil, f.syncErr
	}
	cp := *p
	cp.ID = uuid.New()
	cp.Images = imagesFor(cp.ID, imageURLs)
	f.rows[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeProducts) Update(_ context.Context, p *models.Product, imageURLs []string) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	old, ok := f.rows[p.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if f.syncErr != nil && imageURLs != nil {
		return nil, f.syncErr
	}
	cp := *p
	cp.Images = old.Images
	if imageURLs != nil {
		cp.Images = imagesFor(cp.ID, imageURLs)
	}
	f.rows[p.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeProducts) Delete(_ context.Context, id uuid.UUID) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.rows[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	delete(f.rows, id)
	embedded, _ := richtext.ImageURLs(p.DetailDescription)
	return append(p.ImageURLs(), embedded...), nil
}

func (f *fakeProducts) ReferencedImageURLs(context.Context) (map[string]struct{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refsErr != nil {
		return nil, f.refsErr
	}
	refs := map[string]struct{}{}
	for _, p := range f.rows {
		for _, u := range p.ImageURLs() {
			refs[u] = struct{}{}
		}
		embedded, _ := richtext.ImageURLs(p.DetailDescription)
		for _, u := range embedded {
			refs[u] = struct{}{}
		}
	}
	if f.settings != nil && f.settings.current.MainImageURL != nil {
		refs[*f.settings.current.MainImageURL] = struct{}{}
	}
	return refs, nil
}

func (f *fakeProducts) Sync(_ context.Context, productID uuid.UUID, desired []string) (gallery.Plan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.syncErr != nil {
		return gallery.Plan{}, f.syncErr
	}
	p := f.rows[productID]
	existing := make([]gallery.Image, len(p.Images))
	for i, img := range p.Images {
		existing[i] = gallery.Image{ID: img.ID, URL: img.ImageURL, DisplayOrder: img.DisplayOrder, IsPrimary: img.IsPrimary}
	}
	plan := gallery.Reconcile(existing, desired)
	p.Images = imagesFor(productID, desired)
	f.synced[productID] = desired
	return plan, nil
}

// --- orders ---

type fakeOrders struct {
	rows  map[uuid.UUID]*models.Order
	lastF store.OrderFilter
}

func (f *fakeOrders) List(_ context.Context, flt store.OrderFilter) (store.Page[models.Order], error) {
	f.lastF = flt
	page := store.Page[models.Order]{Items: []models.Order{}, Page: 1, Limit: store.DefaultPageSize}
	for _, o := range f.rows {
		page.Items = append(page.Items, *o)
	}
	page.Total = len(page.Items)
	return page, nil
}

func (f *fakeOrders) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	o, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	return o, nil
}

// --- settings ---

type fakeSettings struct {
	current models.Settings
}

func (f *fakeSettings) Get(context.Context) (*models.Settings, error) {
	s := f.current
	return &s, nil
}

func (f *fakeSettings) SetMainImage(_ context.Context, url *string) (*models.Settings, *string, error) {
	prev := f.current.MainImageURL
	f.current.MainImageURL = url
	s := f.current
	return &s, prev, nil
}

// --- blobs ---

const testBucketURL = "http://s3.test/product-images/"

type fakeBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	removed []string
	putErr  error
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeBlobs) Put(_ context.Context, key, contentType string, body io.Reader, _ int64) (string, error) {
	if f.putErr != nil {
		return "", f.putErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	f.types[key] = contentType
	return testBucketURL + key, nil
}

func (f *fakeBlobs) RemoveURL(_ context.Context, rawURL string) (bool, error) {
	key, ok := strings.CutPrefix(rawURL, testBucketURL)
	if !ok {
		return false, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	f.removed = append(f.removed, rawURL)
	return true, nil
}

// --- response cache ---

type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newFakeCache() *fakeCache { return &fakeCache{entries: map[string][]byte{}} }

func (f *fakeCache) Get(_ context.Context, key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.entries[key]
	return b, ok
}

func (f *fakeCache) Set(_ context.Context, key string, body []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = body
}

func (f *fakeCache) Invalidate(_ context.Context, keys ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.entries, k)
	}
}

// --- users and sessions ---

type fakeUsers struct {
	users     map[uuid.UUID]*models.User
	createErr error
	listErr   error
}

func (f *fakeUsers) List(context.Context) ([]models.User, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (f *fakeUsers) Create(_ context.Context, email, password, name string, role models.Role) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	u := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: "hash:" + password,
		Name:         name,
		Role:         role,
		IsActive:     true,
	}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeUsers) ResetTOTP(_ context.Context, id uuid.UUID) error {
	u, ok := f.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.TOTPSecret = nil
	u.TOTPEnabled = false
	return nil
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	return f.users[id], nil
}

func (f *fakeUsers) CheckPassword(user *models.User, password string) bool {
	return user.PasswordHash == "hash:"+password
}

func (f *fakeUsers) SetTOTPSecret(_ context.Context, id uuid.UUID, secret string) error {
	f.users[id].TOTPSecret = &secret
	return nil
}

func (f *fakeUsers) EnableTOTP(_ context.Context, id uuid.UUID) error {
	f.users[id].TOTPEnabled = true
	return nil
}

type fakeSessions struct {
	created   *session.Data
	updated   *session.Data
	destroyed bool
	err       error
}

func (f *fakeSessions) Create(_ context.Context, w http.ResponseWriter, data *session.Data) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.created = data
	http.SetCookie(w, &http.Cookie{Name: session.CookieName, Value: "sid"})
	return "sid", nil
}

func (f *fakeSessions) Update(_ context.Context, _ *http.Request, data *session.Data) error {
	f.updated = data
	return f.err
}

func (f *fakeSessions) Destroy(context.Context, http.ResponseWriter, *http.Request) error {
	f.destroyed = true
	return f.err
}

// --- environment ---

type testEnv struct {
	Categories *fakeCategories
	Products   *fakeProducts
	Orders     *fakeOrders
	Settings   *fakeSettings
	Users      *fakeUsers
	Blobs      *fakeBlobs
	Cache      *fakeCache
	Admin      *Admin
}

func ptr[T any](v T) *T { return &v }

// newTestEnv builds an Admin over fakes seeded with a small category tree:
// 1 Clothing > 2 Tops, 3 Bottoms; 4 Accessories.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		Categories: newFakeCategories(
			models.Category{ID: 1, Name: "Clothing"},
			models.Category{ID: 2, Name: "Tops", ParentID: ptr[int64](1)},
			models.Category{ID: 3, Name: "Bottoms", ParentID: ptr[int64](1)},
			models.Category{ID: 4, Name: "Accessories"},
		),
		Products: newFakeProducts(),
		Orders:   &fakeOrders{rows: map[uuid.UUID]*models.Order{}},
		Settings: &fakeSettings{},
		Users:    &fakeUsers{users: map[uuid.UUID]*models.User{}},
		Blobs:    newFakeBlobs(),
		Cache:    newFakeCache(),
	}
	env.Products.settings = env.Settings
	env.Admin = NewAdmin(env.Categories, env.Products, env.Products, env.Orders, env.Settings, env.Users, env.Blobs, env.Cache)
	return env
}

// jsonRequest builds a request with a JSON body.
func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// decode unmarshals a recorded JSON response into v.
func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

// errorMessage returns the "error" field of a JSON error response.
func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	decode(t, rec, &body)
	return body["error"]
}

// ctxWithSession adds session data to a context using the middleware key.
func ctxWithSession(ctx context.Context, data *session.Data) context.Context {
	return context.WithValue(ctx, middleware.SessionKey, data)
}

// withChiURLParam adds a chi URL parameter to a request.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

var errBoom = errors.New("boom")
