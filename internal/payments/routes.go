package payments

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterRoutes mounts the public payment endpoints.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/payments/initiate", h.InitiatePayment).Methods(http.MethodPost)
	r.HandleFunc("/api/payments/callback", h.PesapalCallback).Methods(http.MethodGet)
	r.HandleFunc("/api/payments/gateway-status", h.GatewayStatus).Methods(http.MethodGet)

	r.HandleFunc("/api/donations", h.CreateDonation).Methods(http.MethodPost)
	r.HandleFunc("/api/currency/convert", h.ConvertCurrency).Methods(http.MethodPost)

	r.HandleFunc("/api/paypal/webhook", h.PaypalWebhook).Methods(http.MethodPost)
	r.HandleFunc("/api/paypal/orders/{orderId}/capture", h.CapturePaypalOrder).Methods(http.MethodPost)

	r.HandleFunc("/mpesa/initiate", h.MpesaInitiate).Methods(http.MethodPost)
	r.HandleFunc("/mpesa/callback", h.MpesaCallback).Methods(http.MethodPost)
	r.HandleFunc("/mpesa/status/{checkoutRequestId}", h.MpesaStatus).Methods(http.MethodGet)
}
