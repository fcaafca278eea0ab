package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"shopadmin/internal/cache"
	"shopadmin/internal/store"
	"shopadmin/internal/tree"
)

// categoryStoreError maps category store errors onto API responses.
func categoryStoreError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	var inUse *store.InUseError
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Category not found.")
	case errors.Is(err, store.ErrInvalidParent):
		writeError(w, http.StatusConflict, "A category cannot be moved under itself or one of its descendants.")
	case errors.As(err, &inUse):
		writeError(w, http.StatusConflict, "Cannot delete: "+inUse.Error()+".")
	default:
		serverError(w, r, msg, err)
	}
}

// CategoriesList returns every category as a flat list.
func (a *Admin) CategoriesList(w http.ResponseWriter, r *http.Request) {
	cats, err := a.categories.List(r.Context())
	if err != nil {
		serverError(w, r, "list categories failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": cats, "total": len(cats)})
}

// CategoriesTree returns the nested category tree. The encoded tree is
// cached until a category mutation invalidates it.
func (a *Admin) CategoriesTree(w http.ResponseWriter, r *http.Request) {
	if a.cache != nil {
		if body, ok := a.cache.Get(r.Context(), cache.CategoryTreeKey); ok {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.Header().Set("X-Cache", "HIT")
			w.Write(body)
			return
		}
	}

	nodes, err := a.categories.Tree(r.Context())
	if err != nil {
		serverError(w, r, "build category tree failed", err)
		return
	}
	body, err := json.Marshal(map[string]any{"items": nodes})
	if err != nil {
		serverError(w, r, "encode category tree failed", err)
		return
	}
	body = append(body, '\n')
	if a.cache != nil {
		a.cache.Set(r.Context(), cache.CategoryTreeKey, body)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Cache", "MISS")
	w.Write(body)
}

// CategoryParentOptions lists candidate parents for a category, with the
// category itself and its descendants disabled. Without an id every
// category is selectable, as when creating a new one.
func (a *Admin) CategoryParentOptions(w http.ResponseWriter, r *http.Request) {
	var editing int64
	if chi.URLParam(r, "id") != "" {
		id, ok := int64Param(w, r, "id")
		if !ok {
			return
		}
		editing = id
	}

	nodes, err := a.categories.Tree(r.Context())
	if err != nil {
		serverError(w, r, "build category tree failed", err)
		return
	}
	if editing != 0 && tree.Find(nodes, editing) == nil {
		writeError(w, http.StatusNotFound, "Category not found.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": tree.ParentOptions(nodes, editing)})
}

// CategoryGet returns a single category.
func (a *Admin) CategoryGet(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	c, err := a.categories.FindByID(r.Context(), id)
	if err != nil {
		serverError(w, r, "find category failed", err)
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "Category not found.")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// CategoryCreate adds a category.
func (a *Admin) CategoryCreate(w http.ResponseWriter, r *http.Request) {
	var in categoryInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if msg := in.normalize(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	c, err := a.categories.Create(r.Context(), in.Name, in.ParentID)
	if err != nil {
		if errors.Is(err, store.ErrInvalidParent) {
			writeError(w, http.StatusConflict, "Parent category does not exist.")
			return
		}
		serverError(w, r, "create category failed", err)
		return
	}
	a.invalidateCategories(r)
	writeJSON(w, http.StatusCreated, c)
}

// CategoryUpdate renames and re-parents a category.
func (a *Admin) CategoryUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	var in categoryInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if msg := in.normalize(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	c, err := a.categories.Update(r.Context(), id, in.Name, in.ParentID)
	if err != nil {
		categoryStoreError(w, r, "update category failed", err)
		return
	}
	a.invalidateCategories(r)
	writeJSON(w, http.StatusOK, c)
}

// CategoryDelete removes a category that no product references.
func (a *Admin) CategoryDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	if err := a.categories.Delete(r.Context(), id); err != nil {
		categoryStoreError(w, r, "delete category failed", err)
		return
	}
	a.invalidateCategories(r)
	w.WriteHeader(http.StatusNoContent)
}

func (a *Admin) invalidateCategories(r *http.Request) {
	if a.cache != nil {
		a.cache.Invalidate(r.Context(), cache.CategoryTreeKey)
	}
}
