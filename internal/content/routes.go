package content

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/blog", h.ListBlogPosts).Methods(http.MethodGet)
	r.HandleFunc("/api/blog/{slug}", h.GetBlogPost).Methods(http.MethodGet)
	r.HandleFunc("/api/causes", h.ListCauses).Methods(http.MethodGet)
	r.HandleFunc("/api/causes/{slug}", h.GetCause).Methods(http.MethodGet)
	r.HandleFunc("/api/team", h.ListTeamMembers).Methods(http.MethodGet)
	r.HandleFunc("/api/gallery", h.ListGalleryImages).Methods(http.MethodGet)
}

func (h *Handler) RegisterAdminRoutes(r *mux.Router) {
	r.HandleFunc("/blog", h.CreateBlogPost).Methods(http.MethodPost)
	r.HandleFunc("/blog/{slug}", h.UpdateBlogPost).Methods(http.MethodPut)
	r.HandleFunc("/blog/{id}", h.DeleteBlogPost).Methods(http.MethodDelete)
	r.HandleFunc("/causes", h.CreateCause).Methods(http.MethodPost)
	r.HandleFunc("/causes/{slug}", h.UpdateCause).Methods(http.MethodPut)
	r.HandleFunc("/causes/{id}", h.DeleteCause).Methods(http.MethodDelete)
	r.HandleFunc("/team", h.CreateTeamMember).Methods(http.MethodPost)
	r.HandleFunc("/team/{id}", h.DeleteTeamMember).Methods(http.MethodDelete)
	r.HandleFunc("/gallery", h.UploadGalleryImage).Methods(http.MethodPost)
	r.HandleFunc("/gallery/{id}", h.DeleteGalleryImage).Methods(http.MethodDelete)
}
