package content

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"BACK_FPA_GO/internal/models"
	"BACK_FPA_GO/internal/storage"
	"BACK_FPA_GO/internal/utils"
)

// Uploader is satisfied by the S3 uploader; nil disables media upload.
type Uploader interface {
	Upload(ctx context.Context, file io.Reader, filename string) (string, error)
}

type Handler struct {
	Store    storage.Storage
	Uploader Uploader
	Log      *zap.Logger
}

func NewHandler(store storage.Storage, up Uploader, log *zap.Logger) *Handler {
	return &Handler{Store: store, Uploader: up, Log: log}
}

// ---- blog ----

func (h *Handler) ListBlogPosts(w http.ResponseWriter, r *http.Request) {
	// public listing only shows published posts; admins pass all=true
	publishedOnly := r.URL.Query().Get("all") != "true"
	posts, err := h.Store.GetBlogPosts(r.Context(), publishedOnly)
	if err != nil {
		h.Log.Error("blog list failed", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "could not load posts")
		return
	}
	utils.RespondJSON(w, http.StatusOK, posts)
}

func (h *Handler) GetBlogPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.Store.GetBlogPostBySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		h.respondLookupError(w, err, "post")
		return
	}
	utils.RespondJSON(w, http.StatusOK, post)
}

type blogPostRequest struct {
	Title     string `json:"title"`
	Excerpt   string `json:"excerpt"`
	Body      string `json:"body"`
	Author    string `json:"author"`
	ImageURL  string `json:"imageUrl"`
	Published bool   `json:"published"`
}

func (h *Handler) CreateBlogPost(w http.ResponseWriter, r *http.Request) {
	var req blogPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		utils.RespondError(w, http.StatusBadRequest, "title is required")
		return
	}

	now := time.Now().UTC()
	post := &models.BlogPost{
		ID:        uuid.NewString(),
		Title:     strings.TrimSpace(req.Title),
		Slug:      utils.Slugify(req.Title),
		Excerpt:   req.Excerpt,
		Body:      req.Body,
		Author:    req.Author,
		ImageURL:  req.ImageURL,
		Published: req.Published,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.Published {
		post.PublishedAt = &now
	}
	if err := h.Store.CreateBlogPost(r.Context(), post); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			utils.RespondError(w, http.StatusConflict, "a post with this title already exists")
			return
		}
		h.Log.Error("blog create failed", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "could not create post")
		return
	}
	utils.RespondJSON(w, http.StatusCreated, post)
}

func (h *Handler) UpdateBlogPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.Store.GetBlogPostBySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		h.respondLookupError(w, err, "post")
		return
	}

	var req blogPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if strings.TrimSpace(req.Title) != "" {
		post.Title = strings.TrimSpace(req.Title)
		post.Slug = utils.Slugify(req.Title)
	}
	post.Excerpt = req.Excerpt
	post.Body = req.Body
	post.Author = req.Author
	post.ImageURL = req.ImageURL
	if req.Published && !post.Published {
		now := time.Now().UTC()
		post.PublishedAt = &now
	}
	post.Published = req.Published
	post.UpdatedAt = time.Now().UTC()

	if err := h.Store.UpdateBlogPost(r.Context(), post); err != nil {
		h.Log.Error("blog update failed", zap.String("id", post.ID), zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "could not update post")
		return
	}
	utils.RespondJSON(w, http.StatusOK, post)
}

func (h *Handler) DeleteBlogPost(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteBlogPost(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.respondLookupError(w, err, "post")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ---- causes ----

func (h *Handler) ListCauses(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("all") != "true"
	causes, err := h.Store.GetCauses(r.Context(), activeOnly)
	if err != nil {
		h.Log.Error("cause list failed", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "could not load causes")
		return
	}
	utils.RespondJSON(w, http.StatusOK, causes)
}

func (h *Handler) GetCause(w http.ResponseWriter, r *http.Request) {
	cause, err := h.Store.GetCauseBySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		h.respondLookupError(w, err, "cause")
		return
	}
	utils.RespondJSON(w, http.StatusOK, cause)
}

type causeRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	ImageURL     string `json:"imageUrl"`
	TargetAmount int64  `json:"targetAmount"`
	RaisedAmount int64  `json:"raisedAmount"`
	Active       bool   `json:"active"`
}

func (h *Handler) CreateCause(w http.ResponseWriter, r *http.Request) {
	var req causeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		utils.RespondError(w, http.StatusBadRequest, "title is required")
		return
	}

	cause := &models.Cause{
		ID:           uuid.NewString(),
		Title:        strings.TrimSpace(req.Title),
		Slug:         utils.Slugify(req.Title),
		Description:  req.Description,
		ImageURL:     req.ImageURL,
		TargetAmount: req.TargetAmount,
		RaisedAmount: req.RaisedAmount,
		Active:       req.Active,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	if err := h.Store.CreateCause(r.Context(), cause); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			utils.RespondError(w, http.StatusConflict, "a cause with this title already exists")
			return
		}
		h.Log.Error("cause create failed", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "could not create cause")
		return
	}
	utils.RespondJSON(w, http.StatusCreated, cause)
}

func (h *Handler) UpdateCause(w http.ResponseWriter, r *http.Request) {
	cause, err := h.Store.GetCauseBySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		h.respondLookupError(w, err, "cause")
		return
	}

	var req causeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if strings.TrimSpace(req.Title) != "" {
		cause.Title = strings.TrimSpace(req.Title)
		cause.Slug = utils.Slugify(req.Title)
	}
	cause.Description = req.Description
	cause.ImageURL = req.ImageURL
	cause.TargetAmount = req.TargetAmount
	cause.RaisedAmount = req.RaisedAmount
	cause.Active = req.Active
	cause.UpdatedAt = time.Now().UTC()

	if err := h.Store.UpdateCause(r.Context(), cause); err != nil {
		h.Log.Error("cause update failed", zap.String("id", cause.ID), zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "could not update cause")
		return
	}
	utils.RespondJSON(w, http.StatusOK, cause)
}

func (h *Handler) DeleteCause(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteCause(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.respondLookupError(w, err, "cause")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ---- team ----

func (h *Handler) ListTeamMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.Store.GetTeamMembers(r.Context())
	if err != nil {
		h.Log.Error("team list failed", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "could not load team")
		return
	}
	utils.RespondJSON(w, http.StatusOK, members)
}

type teamMemberRequest struct {
	Name      string `json:"name"`
	Role      string `json:"role"`
	Bio       string `json:"bio"`
	ImageURL  string `json:"imageUrl"`
	SortOrder int    `json:"sortOrder"`
}

func (h *Handler) CreateTeamMember(w http.ResponseWriter, r *http.Request) {
	var req teamMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		utils.RespondError(w, http.StatusBadRequest, "name is required")
		return
	}

	member := &models.TeamMember{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(req.Name),
		Role:      req.Role,
		Bio:       req.Bio,
		ImageURL:  req.ImageURL,
		SortOrder: req.SortOrder,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := h.Store.CreateTeamMember(r.Context(), member); err != nil {
		h.Log.Error("team member create failed", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "could not create team member")
		return
	}
	utils.RespondJSON(w, http.StatusCreated, member)
}

func (h *Handler) DeleteTeamMember(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteTeamMember(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.respondLookupError(w, err, "team member")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ---- gallery ----

func (h *Handler) ListGalleryImages(w http.ResponseWriter, r *http.Request) {
	images, err := h.Store.GetGalleryImages(r.Context())
	if err != nil {
		h.Log.Error("gallery list failed", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "could not load gallery")
		return
	}
	utils.RespondJSON(w, http.StatusOK, images)
}

// UploadGalleryImage accepts a multipart form with an "image" file,
// pushes it to the media bucket and records the resulting URL.
func (h *Handler) UploadGalleryImage(w http.ResponseWriter, r *http.Request) {
	if h.Uploader == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "media uploads are not configured")
		return
	}
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	url, err := h.Uploader.Upload(r.Context(), file, header.Filename)
	if err != nil {
		h.Log.Error("gallery upload failed", zap.String("filename", header.Filename), zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "upload failed")
		return
	}

	img := &models.GalleryImage{
		ID:        uuid.NewString(),
		Title:     r.FormValue("title"),
		URL:       url,
		Category:  r.FormValue("category"),
		CreatedAt: time.Now().UTC(),
	}
	if err := h.Store.CreateGalleryImage(r.Context(), img); err != nil {
		h.Log.Error("gallery record failed", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "could not save image")
		return
	}
	utils.RespondJSON(w, http.StatusCreated, img)
}

func (h *Handler) DeleteGalleryImage(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteGalleryImage(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.respondLookupError(w, err, "image")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) respondLookupError(w http.ResponseWriter, err error, kind string) {
	if errors.Is(err, storage.ErrNotFound) {
		utils.RespondError(w, http.StatusNotFound, kind+" not found")
		return
	}
	h.Log.Error("content lookup failed", zap.Error(err))
	utils.RespondError(w, http.StatusInternalServerError, "could not load "+kind)
}
