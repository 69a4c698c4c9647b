package api

import (
	"io"
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"

	"github.com/starford/vaultpress/internal/press"
	"github.com/starford/vaultpress/internal/storage"
)

const maxUploadBytes = 50 << 20 // 50 MB

// BundleHandler serves files from page bundles and accepts images into them.
type BundleHandler struct {
	svc  *press.Service
	site storage.Provider
}

// NewBundleHandler creates a bundle file handler.
func NewBundleHandler(svc *press.Service, site storage.Provider) *BundleHandler {
	return &BundleHandler{svc: svc, site: site}
}

// ServeFile handles GET /api/bundles/{slug}/{file}.
//
//	@Summary		Serve a file from a page bundle
//	@Tags			bundles
//	@Param			slug	path	string	true	"Post slug"
//	@Param			file	path	string	true	"File name inside the bundle"
//	@Success		200		"File content"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/bundles/{slug}/{file} [get]
func (h *BundleHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.BundleFile(chi.URLParam(r, "slug"), chi.URLParam(r, "file"))
	if err != nil {
		writeServiceError(w, "bundle file", err)
		return
	}
	abs, err := h.site.Abs(p)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	http.ServeFile(w, r, abs)
}

// Upload handles POST /api/bundles/{slug} (multipart/form-data, field "file").
//
//	@Summary		Add an image to a published bundle
//	@Tags			bundles
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			slug	path		string	true	"Post slug"
//	@Param			file	formData	file	true	"Image file"
//	@Success		201		{object}	BundleUploadResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/bundles/{slug} [post]
func (h *BundleHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
		return
	}

	slug := chi.URLParam(r, "slug")
	dst, err := h.svc.AttachImage(slug, header.Filename, data)
	if err != nil {
		writeServiceError(w, "upload", err)
		return
	}

	name := path.Base(dst)
	writeJSON(w, http.StatusCreated, BundleUploadResponse{
		Filename: name,
		Size:     int64(len(data)),
		Path:     dst,
		URL:      "/api/bundles/" + slug + "/" + name,
	})
}
