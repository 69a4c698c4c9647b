package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/vaultpress/internal/press"
)

// Handler holds API route handlers.
type Handler struct {
	svc *press.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *press.Service) *Handler {
	return &Handler{svc: svc}
}

// Convert handles POST /api/convert.
//
//	@Summary		Convert note text without writing anything
//	@Tags			convert
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ConvertRequest	true	"Note to convert"
//	@Success		200		{object}	Report
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/convert [post]
func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req ConvertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Text == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("text is required"))
		return
	}
	rep, err := h.svc.Publish(r.Context(), press.PublishRequest{
		Text:     req.Text,
		Filename: req.Filename,
		Slug:     req.Slug,
		Policy:   req.Policy,
		DryRun:   true,
	})
	if err != nil {
		writeServiceError(w, "convert", err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// CreatePost handles POST /api/posts.
//
//	@Summary		Publish a note as a page bundle
//	@Tags			posts
//	@Accept			json
//	@Produce		json
//	@Param			body	body		PublishPostRequest	true	"Note to publish"
//	@Success		201		{object}	Report
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/posts [post]
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req PublishPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Text == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("text is required"))
		return
	}
	rep, err := h.svc.Publish(r.Context(), press.PublishRequest{
		Text:     req.Text,
		Filename: req.Filename,
		Slug:     req.Slug,
		Policy:   req.Policy,
		Feature:  req.Feature,
		Force:    req.Force,
	})
	if err != nil {
		writeServiceError(w, "publish", err)
		return
	}
	writeJSON(w, http.StatusCreated, rep)
}

// ListPosts handles GET /api/posts.
//
//	@Summary		List published posts with optional pagination and search
//	@Tags			posts
//	@Produce		json
//	@Param			q		query		string	false	"Search title, slug or source"
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Success		200		{object}	PostListResponse
//	@Security		BearerAuth
//	@Router			/posts [get]
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	posts, total, err := h.svc.Posts(limit, offset, strings.TrimSpace(q.Get("q")))
	if err != nil {
		writeServiceError(w, "list posts", err)
		return
	}
	if posts == nil {
		posts = []Post{}
	}
	writeJSON(w, http.StatusOK, PostListResponse{Posts: posts, Total: total})
}

// GetPost handles GET /api/posts/{slug}.
//
//	@Summary		Get a published post by slug
//	@Tags			posts
//	@Produce		json
//	@Param			slug	path		string	true	"Post slug"
//	@Success		200		{object}	Post
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/posts/{slug} [get]
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.svc.Post(chi.URLParam(r, "slug"))
	if err != nil {
		writeServiceError(w, "get post", err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// DeletePost handles DELETE /api/posts/{slug}.
//
//	@Summary		Delete a post with its bundle and assets
//	@Tags			posts
//	@Param			slug	path	string	true	"Post slug"
//	@Success		204		"Post deleted"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/posts/{slug} [delete]
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "slug")); err != nil {
		writeServiceError(w, "delete post", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Migrate handles POST /api/migrate.
//
//	@Summary		Re-normalize existing bundles
//	@Tags			migrate
//	@Accept			json
//	@Produce		json
//	@Param			body	body		MigrateRequest	false	"Migration options"
//	@Success		200		{object}	MigrateReport
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/migrate [post]
func (h *Handler) Migrate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req MigrateRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
			return
		}
	}
	rep, err := h.svc.Migrate(r.Context(), press.MigrateRequest{
		Pattern: req.Pattern,
		Policy:  req.Policy,
		DryRun:  req.DryRun,
		Workers: req.Workers,
	})
	if err != nil {
		writeServiceError(w, "migrate", err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// ListRuns handles GET /api/runs.
//
//	@Summary		List recent batch runs
//	@Tags			migrate
//	@Produce		json
//	@Param			limit	query		int	false	"Max runs"
//	@Success		200		{object}	RunListResponse
//	@Security		BearerAuth
//	@Router			/runs [get]
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := h.svc.Runs(limit)
	if err != nil {
		writeServiceError(w, "list runs", err)
		return
	}
	if runs == nil {
		runs = []Run{}
	}
	writeJSON(w, http.StatusOK, RunListResponse{Runs: runs})
}
