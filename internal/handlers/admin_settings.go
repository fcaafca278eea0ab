package handlers

import (
	"net/http"
	"strings"
)

// SettingsGet returns the storefront settings.
func (a *Admin) SettingsGet(w http.ResponseWriter, r *http.Request) {
	s, err := a.settings.Get(r.Context())
	if err != nil {
		serverError(w, r, "load settings failed", err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// SettingsMainImage sets or clears the storefront main image. The body is
// {"main_image_url": "<url>"} or {"main_image_url": null}. A replaced or
// cleared image is removed from object storage.
func (a *Admin) SettingsMainImage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		MainImageURL *string `json:"main_image_url"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.MainImageURL != nil {
		u := strings.TrimSpace(*body.MainImageURL)
		if u == "" {
			body.MainImageURL = nil
		} else if !validImageURL(u) {
			writeError(w, http.StatusBadRequest, "Main image must be a valid URL.")
			return
		} else {
			body.MainImageURL = &u
		}
	}

	s, previous, err := a.settings.SetMainImage(r.Context(), body.MainImageURL)
	if err != nil {
		serverError(w, r, "update main image failed", err)
		return
	}
	if previous != nil && (body.MainImageURL == nil || *previous != *body.MainImageURL) {
		a.removeBlobs(r.Context(), *previous)
	}
	writeJSON(w, http.StatusOK, s)
}
