package events

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterRoutes mounts the public read endpoints.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/events", h.ListEvents).Methods(http.MethodGet)
	r.HandleFunc("/api/events/by-name/{name}", h.GetEventByName).Methods(http.MethodGet)
	r.HandleFunc("/api/events/{id}", h.GetEvent).Methods(http.MethodGet)
}

// RegisterAdminRoutes mounts the write endpoints on an authenticated
// subrouter.
func (h *Handler) RegisterAdminRoutes(r *mux.Router) {
	r.HandleFunc("/events", h.CreateEvent).Methods(http.MethodPost)
	r.HandleFunc("/events/{id}", h.UpdateEvent).Methods(http.MethodPut)
	r.HandleFunc("/events/{id}", h.DeleteEvent).Methods(http.MethodDelete)
}
