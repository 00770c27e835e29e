package payments

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"BACK_FPA_GO/internal/gateway/paypal"
	"BACK_FPA_GO/internal/models"
	"BACK_FPA_GO/internal/monitoring"
	"BACK_FPA_GO/internal/storage"
	"BACK_FPA_GO/internal/utils"
)

type Handler struct {
	Svc *Service
	Log *zap.Logger
}

func NewHandler(svc *Service, log *zap.Logger) *Handler {
	return &Handler{Svc: svc, Log: log}
}

type initiatePaymentRequest struct {
	FormData *RegistrationForm `json:"formData"`
	EventID  string            `json:"eventId"`
	Amount   float64           `json:"amount"`
	Currency string            `json:"currency"`
	Gateway  models.Gateway    `json:"gateway"`
}

// InitiatePayment starts the paid-registration flow for an event.
func (h *Handler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	var req initiatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.FormData == nil || strings.TrimSpace(req.EventID) == "" {
		utils.RespondError(w, http.StatusBadRequest, "formData and eventId are required")
		return
	}
	if req.Amount <= 0 {
		utils.RespondError(w, http.StatusBadRequest, "amount must be greater than zero")
		return
	}
	cur := strings.ToUpper(strings.TrimSpace(req.Currency))
	if cur == "" {
		cur = "USD"
	}
	amountCents := int64(math.Round(req.Amount * 100))

	result, err := h.Svc.InitiateRegistration(r.Context(), req.EventID, req.FormData, amountCents, cur, req.Gateway)
	if err != nil {
		h.respondInitiateError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success":           true,
		"registrationId":    result.RegistrationID,
		"paymentUrl":        result.PaymentURL,
		"checkoutRequestId": result.CheckoutRequestID,
	})
}

type createDonationRequest struct {
	DonorName   string         `json:"donorName"`
	DonorEmail  string         `json:"donorEmail"`
	Amount      float64        `json:"amount"`
	Currency    string         `json:"currency"`
	Method      models.Gateway `json:"paymentMethod"`
	PhoneNumber string         `json:"phoneNumber"`
	Anonymous   bool           `json:"anonymous"`
	Message     string         `json:"message"`
}

func (h *Handler) CreateDonation(w http.ResponseWriter, r *http.Request) {
	var req createDonationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Amount <= 0 {
		utils.RespondError(w, http.StatusBadRequest, "amount must be greater than zero")
		return
	}
	cur := strings.ToUpper(strings.TrimSpace(req.Currency))
	if cur == "" {
		cur = "USD"
	}

	d := &models.Donation{
		DonorName:     strings.TrimSpace(req.DonorName),
		DonorEmail:    strings.TrimSpace(req.DonorEmail),
		Amount:        int64(math.Round(req.Amount * 100)),
		Currency:      cur,
		PaymentMethod: req.Method,
		Anonymous:     req.Anonymous,
		Message:       strings.TrimSpace(req.Message),
	}

	result, err := h.Svc.InitiateDonation(r.Context(), d, req.PhoneNumber)
	if err != nil {
		h.respondInitiateError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusCreated, map[string]interface{}{
		"success":           true,
		"donationId":        result.RegistrationID,
		"paymentUrl":        result.PaymentURL,
		"checkoutRequestId": result.CheckoutRequestID,
	})
}

// PesapalCallback is the redirect target after the hosted payment page;
// the authoritative status comes from a direct status query, not from the
// query string.
func (h *Handler) PesapalCallback(w http.ResponseWriter, r *http.Request) {
	trackingID := strings.TrimSpace(r.URL.Query().Get("OrderTrackingId"))
	if trackingID == "" {
		utils.RespondError(w, http.StatusBadRequest, "OrderTrackingId is required")
		return
	}

	status, err := h.Svc.ResolvePesapalCallback(r.Context(), trackingID)
	if err != nil {
		if errors.Is(err, ErrUnknownReference) {
			utils.RespondError(w, http.StatusNotFound, "unknown payment reference")
			return
		}
		h.Log.Error("pesapal callback failed", zap.String("orderTrackingId", trackingID), zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "payment confirmation failed")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"orderTrackingId":        trackingID,
		"orderMerchantReference": r.URL.Query().Get("OrderMerchantReference"),
		"orderNotificationType":  r.URL.Query().Get("OrderNotificationType"),
		"status":                 status,
	})
}

type paypalWebhookEvent struct {
	ID        string `json:"id"`
	EventType string `json:"event_type"`
	Resource  struct {
		ID                string `json:"id"`
		Status            string `json:"status"`
		CustomID          string `json:"custom_id"`
		SupplementaryData struct {
			RelatedIDs struct {
				OrderID string `json:"order_id"`
			} `json:"related_ids"`
		} `json:"supplementary_data"`
	} `json:"resource"`
}

// PaypalWebhook verifies the transmission signature before anything else;
// unverified or unrecognized events are logged and dropped without
// touching any record.
func (h *Handler) PaypalWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	headers := paypal.WebhookHeaders{
		AuthAlgo:         r.Header.Get("paypal-auth-algo"),
		CertURL:          r.Header.Get("paypal-cert-url"),
		TransmissionID:   r.Header.Get("paypal-transmission-id"),
		TransmissionSig:  r.Header.Get("paypal-transmission-sig"),
		TransmissionTime: r.Header.Get("paypal-transmission-time"),
	}

	verified, err := h.Svc.Paypal.VerifyWebhookSignature(r.Context(), headers, body)
	if err != nil {
		h.Log.Error("paypal webhook verification errored", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "verification failed")
		return
	}
	if !verified {
		monitoring.WebhookEvents.WithLabelValues("paypal", "unverified").Inc()
		h.Log.Warn("unverified paypal webhook dropped",
			zap.String("transmissionId", headers.TransmissionID))
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	var event paypalWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid event payload")
		return
	}

	var status models.PaymentStatus
	switch event.EventType {
	case "PAYMENT.CAPTURE.COMPLETED":
		status = models.PaymentStatusCompleted
	case "PAYMENT.CAPTURE.DENIED", "PAYMENT.CAPTURE.DECLINED":
		status = models.PaymentStatusFailed
	default:
		monitoring.WebhookEvents.WithLabelValues("paypal", "unrecognized").Inc()
		h.Log.Info("unrecognized paypal event ignored", zap.String("eventType", event.EventType))
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	err = h.Svc.Store.RecordWebhookEvent(r.Context(), &models.WebhookEvent{
		EventID:   event.ID,
		EventType: event.EventType,
		Gateway:   models.GatewayPaypal,
	})
	if errors.Is(err, storage.ErrDuplicate) {
		monitoring.WebhookEvents.WithLabelValues("paypal", "replay").Inc()
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "already processed"})
		return
	}
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "event persistence failed")
		return
	}

	ref := event.Resource.SupplementaryData.RelatedIDs.OrderID
	if ref == "" {
		ref = event.Resource.ID
	}
	if err := h.Svc.ApplyResult(r.Context(), ref, status, models.GatewayPaypal); err != nil {
		if errors.Is(err, ErrUnknownReference) {
			h.Log.Warn("paypal event for unknown reference", zap.String("reference", ref))
			utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "event application failed")
		return
	}

	monitoring.WebhookEvents.WithLabelValues("paypal", "applied").Inc()
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// CapturePaypalOrder finalizes an approved order when the payer returns
// from the approval page.
func (h *Handler) CapturePaypalOrder(w http.ResponseWriter, r *http.Request) {
	orderID := mux.Vars(r)["orderId"]
	if orderID == "" {
		utils.RespondError(w, http.StatusBadRequest, "orderId is required")
		return
	}

	capture, err := h.Svc.Paypal.CaptureOrder(r.Context(), orderID)
	if err != nil {
		h.Log.Error("paypal capture failed", zap.String("orderId", orderID), zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "payment capture failed")
		return
	}

	if capture.Status == "COMPLETED" {
		if err := h.Svc.ApplyResult(r.Context(), orderID, models.PaymentStatusCompleted, models.GatewayPaypal); err != nil && !errors.Is(err, ErrUnknownReference) {
			utils.RespondError(w, http.StatusInternalServerError, "payment confirmation failed")
			return
		}
	}

	utils.RespondJSON(w, http.StatusOK, capture)
}

type mpesaInitiateRequest struct {
	PhoneNumber string  `json:"phoneNumber"`
	Amount      float64 `json:"amount"` // whole KES
	Reference   string  `json:"reference"`
	Description string  `json:"description"`
}

// MpesaInitiate triggers an STK push for a donation amount already
// expressed in KES. The phone number is validated and normalized before
// any network call goes out.
func (h *Handler) MpesaInitiate(w http.ResponseWriter, r *http.Request) {
	var req mpesaInitiateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if _, err := utils.NormalizePhone(req.PhoneNumber); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid phone number: expected a Kenyan mobile number")
		return
	}
	if req.Amount < 1 {
		utils.RespondError(w, http.StatusBadRequest, "amount must be at least 1 KES")
		return
	}

	d := &models.Donation{
		DonorName:     strings.TrimSpace(req.Reference),
		Amount:        int64(math.Round(req.Amount * 100)),
		Currency:      "KES",
		PaymentMethod: models.GatewayMpesa,
		Message:       strings.TrimSpace(req.Description),
	}

	result, err := h.Svc.InitiateDonation(r.Context(), d, req.PhoneNumber)
	if err != nil {
		h.respondInitiateError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"CheckoutRequestID": result.CheckoutRequestID,
		"donationId":        result.RegistrationID,
	})
}

// MpesaStatus reflects the recorded state for a CheckoutRequestID. The
// Daraja callback and the server-side monitor keep that state current; an
// exhausted poll window reports an unknown status, never a failure.
func (h *Handler) MpesaStatus(w http.ResponseWriter, r *http.Request) {
	checkoutRequestID := mux.Vars(r)["checkoutRequestId"]

	code, message, err := h.Svc.RecordedStatus(r.Context(), checkoutRequestID)
	if err != nil {
		if errors.Is(err, ErrUnknownReference) {
			utils.RespondError(w, http.StatusNotFound, "unknown CheckoutRequestID")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "status lookup failed")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"ResultCode": code,
		"message":    message,
	})
}

type mpesaCallbackBody struct {
	Body struct {
		StkCallback struct {
			MerchantRequestID string `json:"MerchantRequestID"`
			CheckoutRequestID string `json:"CheckoutRequestID"`
			ResultCode        int    `json:"ResultCode"`
			ResultDesc        string `json:"ResultDesc"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

// MpesaCallback is Daraja's own result delivery and the source of truth
// for confirmations that land after the poll window closed.
func (h *Handler) MpesaCallback(w http.ResponseWriter, r *http.Request) {
	var cb mpesaCallbackBody
	if err := json.NewDecoder(r.Body).Decode(&cb); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid callback payload")
		return
	}
	checkoutRequestID := cb.Body.StkCallback.CheckoutRequestID
	if checkoutRequestID == "" {
		utils.RespondError(w, http.StatusBadRequest, "CheckoutRequestID missing")
		return
	}

	status := models.PaymentStatusFailed
	if cb.Body.StkCallback.ResultCode == 0 {
		status = models.PaymentStatusCompleted
	}

	if err := h.Svc.ApplyResult(r.Context(), checkoutRequestID, status, models.GatewayMpesa); err != nil {
		if errors.Is(err, ErrUnknownReference) {
			h.Log.Warn("mpesa callback for unknown reference",
				zap.String("checkoutRequestId", checkoutRequestID))
			utils.RespondJSON(w, http.StatusOK, map[string]string{"ResultDesc": "ignored"})
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "callback application failed")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"ResultDesc": "accepted"})
}

// GatewayStatus is the advisory maintenance gate the client checks before
// rendering a payment form.
func (h *Handler) GatewayStatus(w http.ResponseWriter, r *http.Request) {
	gw := models.Gateway(strings.TrimSpace(r.URL.Query().Get("gateway")))
	if !gw.Valid() {
		utils.RespondError(w, http.StatusBadRequest, "gateway must be pesapal, paypal or mpesa")
		return
	}

	st, err := h.Svc.Store.GetGatewayStatus(r.Context(), gw)
	if errors.Is(err, storage.ErrNotFound) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"gateway": string(gw), "mode": string(models.GatewayModeLive)})
		return
	}
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "status lookup failed")
		return
	}
	utils.RespondJSON(w, http.StatusOK, st)
}

type convertRequest struct {
	Amount float64 `json:"amount"`
	From   string  `json:"from"`
	To     string  `json:"to"`
}

func (h *Handler) ConvertCurrency(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Amount <= 0 {
		utils.RespondError(w, http.StatusBadRequest, "amount must be greater than zero")
		return
	}

	converted, err := h.Svc.Converter.Convert(req.Amount, req.From, req.To)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]float64{"amount": converted})
}

func (h *Handler) respondInitiateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrGatewayDown):
		utils.RespondError(w, http.StatusServiceUnavailable, "payments are temporarily unavailable for maintenance")
	case errors.Is(err, ErrInvalidForm):
		utils.RespondError(w, http.StatusBadRequest, "exactly one of the individual/organization sections must match registrationType")
	case errors.Is(err, utils.ErrInvalidPhone):
		utils.RespondError(w, http.StatusBadRequest, "invalid phone number: expected a Kenyan mobile number")
	case errors.Is(err, storage.ErrEventFull):
		utils.RespondError(w, http.StatusConflict, "event is fully booked")
	case errors.Is(err, storage.ErrNotFound):
		utils.RespondError(w, http.StatusNotFound, "event not found")
	default:
		h.Log.Error("payment initiation failed", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "payment initiation failed")
	}
}
