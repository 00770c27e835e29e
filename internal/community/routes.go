package community

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/contact", h.CreateContactMessage).Methods(http.MethodPost)
	r.HandleFunc("/api/newsletter/subscribe", h.SubscribeNewsletter).Methods(http.MethodPost)
	r.HandleFunc("/api/volunteers", h.CreateVolunteer).Methods(http.MethodPost)
}

func (h *Handler) RegisterAdminRoutes(r *mux.Router) {
	r.HandleFunc("/contact", h.ListContactMessages).Methods(http.MethodGet)
	r.HandleFunc("/contact/{id}/read", h.MarkContactMessageRead).Methods(http.MethodPut)
	r.HandleFunc("/volunteers", h.ListVolunteers).Methods(http.MethodGet)
}
