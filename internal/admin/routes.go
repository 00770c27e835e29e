package admin

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterRoutes mounts the login endpoint and returns the authenticated
// subrouter other packages hang their admin routes on.
func (h *Handler) RegisterRoutes(r *mux.Router) *mux.Router {
	r.HandleFunc("/api/admin/login", h.Login).Methods(http.MethodPost)

	protected := r.PathPrefix("/api/admin").Subrouter()
	protected.Use(h.AuthMiddleware)
	protected.HandleFunc("/dashboard", h.Dashboard).Methods(http.MethodGet)
	protected.HandleFunc("/donations", h.ListDonations).Methods(http.MethodGet)
	protected.HandleFunc("/gateways/{gateway}/status", h.SetGatewayStatus).Methods(http.MethodPut)
	protected.HandleFunc("/gateways/{gateway}/config", h.GetGatewayConfig).Methods(http.MethodGet)
	protected.HandleFunc("/gateways/{gateway}/config", h.SetGatewayConfig).Methods(http.MethodPut)
	return protected
}
