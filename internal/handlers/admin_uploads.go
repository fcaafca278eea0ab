package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"shopadmin/internal/filename"
	"shopadmin/internal/imaging"
)

const (
	// maxUploadSize is the maximum allowed image upload size (5 MB).
	maxUploadSize = 5 << 20

	// ProductImagePrefix is the key prefix for product gallery uploads.
	ProductImagePrefix = "products"

	// MainImagePrefix is the key prefix for the storefront main image.
	MainImagePrefix = "main"

	// EditorImagePrefix is the key prefix for images embedded in product
	// detail descriptions.
	EditorImagePrefix = "editor-images"
)

// uploadFolders maps the optional "folder" form value onto a key prefix.
var uploadFolders = map[string]string{
	"":              ProductImagePrefix,
	"products":      ProductImagePrefix,
	"main":          MainImagePrefix,
	"editor-images": EditorImagePrefix,
}

// now is replaced in tests.
var now = time.Now

// Upload stores a multipart image ("file") in object storage and returns
// its public URL. The image is not attached to anything yet; the caller
// submits the URL with a product or settings update.
func (a *Admin) Upload(w http.ResponseWriter, r *http.Request) {
	if a.blobs == nil {
		writeError(w, http.StatusServiceUnavailable, "Object storage is not configured.")
		return
	}

	// Limit request body to maxUploadSize + some overhead for form fields.
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1024)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large. Maximum size is 5 MB.")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid multipart form.")
		return
	}

	prefix, ok := uploadFolders[r.FormValue("folder")]
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid upload folder.")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided.")
		return
	}
	defer file.Close()

	if header.Size > maxUploadSize {
		writeError(w, http.StatusRequestEntityTooLarge, "File too large. Maximum size is 5 MB.")
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize+1))
	if err != nil {
		serverError(w, r, "read upload failed", err)
		return
	}
	if len(data) > maxUploadSize {
		writeError(w, http.StatusRequestEntityTooLarge, "File too large. Maximum size is 5 MB.")
		return
	}

	info, err := imaging.Probe(data)
	if err != nil {
		switch {
		case errors.Is(err, imaging.ErrNotImage), errors.Is(err, imaging.ErrUnsupported):
			writeError(w, http.StatusBadRequest, "Only JPEG, PNG, GIF and WebP images are allowed.")
		case errors.Is(err, imaging.ErrTooManyPixels):
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Image dimensions too large (max %d megapixels).", imaging.MaxPixels/1_000_000))
		default:
			writeError(w, http.StatusBadRequest, "The file could not be read as an image.")
		}
		return
	}

	key := filename.ObjectKey(prefix, header.Filename, info.Ext(), now(), filename.RandomID())
	url, err := a.blobs.Put(r.Context(), key, info.ContentType, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		slog.Error("s3 upload failed", "error", err, "key", key)
		writeError(w, http.StatusBadGateway, "Failed to upload file.")
		return
	}
	slog.Info("image uploaded", "key", key, "size", len(data), "type", info.ContentType)

	writeJSON(w, http.StatusCreated, map[string]any{
		"url":          url,
		"key":          key,
		"content_type": info.ContentType,
		"size":         len(data),
		"width":        info.Width,
		"height":       info.Height,
	})
}

// UploadDelete removes a blob by its public URL, e.g. when the user drops
// a freshly uploaded image before saving. URLs outside the bucket are
// rejected, and so are images a product or the settings still use.
func (a *Admin) UploadDelete(w http.ResponseWriter, r *http.Request) {
	if a.blobs == nil {
		writeError(w, http.StatusServiceUnavailable, "Object storage is not configured.")
		return
	}
	var body struct {
		URL string `json:"url"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	body.URL = strings.TrimSpace(body.URL)
	if !validImageURL(body.URL) {
		writeError(w, http.StatusBadRequest, "A valid image URL is required.")
		return
	}

	refs, err := a.products.ReferencedImageURLs(r.Context())
	if err != nil {
		serverError(w, r, "load image references failed", err)
		return
	}
	if _, used := refs[body.URL]; used {
		writeError(w, http.StatusConflict, "Image is still in use and cannot be deleted.")
		return
	}

	removed, err := a.blobs.RemoveURL(r.Context(), body.URL)
	if err != nil {
		slog.Error("s3 delete failed", "error", err, "url", body.URL)
		writeError(w, http.StatusBadGateway, "Failed to delete file.")
		return
	}
	if !removed {
		writeError(w, http.StatusBadRequest, "URL does not belong to the image bucket.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
