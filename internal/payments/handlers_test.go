package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"BACK_FPA_GO/internal/models"
	"BACK_FPA_GO/internal/storage"
)

func newTestRouter(t *testing.T) (*mux.Router, *Service, *storage.MemStore, *fakePaypal) {
	t.Helper()
	svc, store, pp, _, _ := newTestService(t)
	h := NewHandler(svc, zap.NewNop())
	r := mux.NewRouter()
	h.RegisterRoutes(r)
	return r, svc, store, pp
}

func postJSON(t *testing.T, r http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestInitiatePaymentEndpoint(t *testing.T) {
	r, _, store, _ := newTestRouter(t)
	seedEvent(t, store, 10)

	rec := postJSON(t, r, "/api/payments/initiate", map[string]interface{}{
		"eventId": "evt-1",
		"amount":  50,
		"gateway": "pesapal",
		"formData": map[string]interface{}{
			"registrationType": "individual",
			"individual": map[string]string{
				"firstName": "Wanjiku",
				"lastName":  "Kamau",
				"email":     "wanjiku@example.com",
				"phone":     "0712345678",
			},
		},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp map[string]interface{}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["success"] != true {
		t.Errorf("success = %v", resp["success"])
	}
	if resp["paymentUrl"] != "https://pesapal.test/pay" {
		t.Errorf("paymentUrl = %v", resp["paymentUrl"])
	}
}

func TestInitiatePaymentFullEventConflict(t *testing.T) {
	r, _, store, _ := newTestRouter(t)
	seedEvent(t, store, 0)
	// fill the only slot
	e, _ := store.GetEvent(context.Background(), "evt-1")
	e.MaxParticipants = 1
	e.RegisteredCount = 1
	_ = store.UpdateEvent(context.Background(), e)

	rec := postJSON(t, r, "/api/payments/initiate", map[string]interface{}{
		"eventId": "evt-1",
		"amount":  50,
		"gateway": "pesapal",
		"formData": map[string]interface{}{
			"registrationType": "individual",
			"individual":       map[string]string{"firstName": "A", "email": "a@b.c"},
		},
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestInitiatePaymentInvalidForm(t *testing.T) {
	r, _, store, _ := newTestRouter(t)
	seedEvent(t, store, 10)

	rec := postJSON(t, r, "/api/payments/initiate", map[string]interface{}{
		"eventId":  "evt-1",
		"amount":   50,
		"gateway":  "pesapal",
		"formData": map[string]interface{}{"registrationType": "individual"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestInitiatePaymentMaintenance(t *testing.T) {
	r, svc, store, _ := newTestRouter(t)
	seedEvent(t, store, 10)
	_ = svc.Store.UpsertGatewayStatus(context.Background(), &models.PaymentGatewayStatus{
		Gateway: models.GatewayPesapal,
		Mode:    models.GatewayModeMaintenance,
	})

	rec := postJSON(t, r, "/api/payments/initiate", map[string]interface{}{
		"eventId": "evt-1",
		"amount":  50,
		"gateway": "pesapal",
		"formData": map[string]interface{}{
			"registrationType": "individual",
			"individual":       map[string]string{"firstName": "A", "email": "a@b.c"},
		},
	})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func webhookEvent(id, eventType, orderID string) map[string]interface{} {
	return map[string]interface{}{
		"id":         id,
		"event_type": eventType,
		"resource": map[string]interface{}{
			"id":     "cap-1",
			"status": "COMPLETED",
			"supplementary_data": map[string]interface{}{
				"related_ids": map[string]string{"order_id": orderID},
			},
		},
	}
}

func TestPaypalWebhookAppliesAndDedupes(t *testing.T) {
	r, svc, store, _ := newTestRouter(t)
	seedEvent(t, store, 10)
	ctx := context.Background()

	result, err := svc.InitiateRegistration(ctx, "evt-1", individualForm(), 5000, "USD", models.GatewayPaypal)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	orderID := "PP-" + result.RegistrationID

	rec := postJSON(t, r, "/api/paypal/webhook", webhookEvent("WH-1", "PAYMENT.CAPTURE.COMPLETED", orderID))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	reg, _ := store.GetRegistration(ctx, result.RegistrationID)
	if reg.PaymentStatus != models.PaymentStatusCompleted {
		t.Errorf("status = %s, want completed", reg.PaymentStatus)
	}

	// same delivery again: dedupe, no state change
	rec = postJSON(t, r, "/api/paypal/webhook", webhookEvent("WH-1", "PAYMENT.CAPTURE.COMPLETED", orderID))
	if rec.Code != http.StatusOK {
		t.Fatalf("replay status = %d", rec.Code)
	}
	var resp map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["status"] != "already processed" {
		t.Errorf("replay response = %v", resp)
	}
}

func TestPaypalWebhookUnverifiedIsDropped(t *testing.T) {
	r, svc, store, pp := newTestRouter(t)
	seedEvent(t, store, 10)
	pp.verifyFail = true
	ctx := context.Background()

	result, err := svc.InitiateRegistration(ctx, "evt-1", individualForm(), 5000, "USD", models.GatewayPaypal)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}

	rec := postJSON(t, r, "/api/paypal/webhook",
		webhookEvent("WH-2", "PAYMENT.CAPTURE.COMPLETED", "PP-"+result.RegistrationID))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	reg, _ := store.GetRegistration(ctx, result.RegistrationID)
	if reg.PaymentStatus != models.PaymentStatusPending {
		t.Errorf("status = %s, unverified webhook must not touch the record", reg.PaymentStatus)
	}
}

func TestPaypalWebhookUnrecognizedEventIgnored(t *testing.T) {
	r, _, _, _ := newTestRouter(t)

	rec := postJSON(t, r, "/api/paypal/webhook", webhookEvent("WH-3", "CHECKOUT.ORDER.APPROVED", "x"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["status"] != "ignored" {
		t.Errorf("response = %v", resp)
	}
}

func TestMpesaCallbackEndpoint(t *testing.T) {
	r, _, store, _ := newTestRouter(t)
	ctx := context.Background()
	_ = store.CreateDonation(ctx, &models.Donation{
		ID:            "don-1",
		Amount:        10000,
		Currency:      "KES",
		PaymentMethod: models.GatewayMpesa,
		Status:        models.PaymentStatusPending,
		TransactionID: "ws_CO_abc",
	})

	rec := postJSON(t, r, "/mpesa/callback", map[string]interface{}{
		"Body": map[string]interface{}{
			"stkCallback": map[string]interface{}{
				"MerchantRequestID": "mr-1",
				"CheckoutRequestID": "ws_CO_abc",
				"ResultCode":        0,
				"ResultDesc":        "The service request is processed successfully.",
			},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	d, _ := store.GetDonation(ctx, "don-1")
	if d.Status != models.PaymentStatusCompleted {
		t.Errorf("status = %s, want completed", d.Status)
	}
}

func TestMpesaStatusEndpoint(t *testing.T) {
	r, _, store, _ := newTestRouter(t)
	ctx := context.Background()
	_ = store.CreateDonation(ctx, &models.Donation{
		ID:            "don-1",
		Status:        models.PaymentStatusPending,
		PaymentMethod: models.GatewayMpesa,
		TransactionID: "ws_CO_abc",
	})

	req := httptest.NewRequest(http.MethodGet, "/mpesa/status/ws_CO_abc", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["ResultCode"] != "" {
		t.Errorf("ResultCode = %q, want empty while pending", resp["ResultCode"])
	}

	req = httptest.NewRequest(http.MethodGet, "/mpesa/status/unknown", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown ref status = %d, want 404", rec.Code)
	}
}

func TestCreateDonationEndpoint(t *testing.T) {
	r, _, store, _ := newTestRouter(t)

	rec := postJSON(t, r, "/api/donations", map[string]interface{}{
		"donorName":     "Wanjiku Kamau",
		"donorEmail":    "wanjiku@example.com",
		"amount":        25,
		"currency":      "USD",
		"paymentMethod": "paypal",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	donations, _ := store.GetDonations(context.Background())
	if len(donations) != 1 {
		t.Fatalf("donations = %d, want 1", len(donations))
	}
	if donations[0].Amount != 2500 {
		t.Errorf("amount = %d, want 2500 cents", donations[0].Amount)
	}
	if donations[0].Status != models.PaymentStatusPending {
		t.Errorf("status = %s, want pending", donations[0].Status)
	}
}

func TestConvertCurrencyEndpoint(t *testing.T) {
	r, _, _, _ := newTestRouter(t)

	rec := postJSON(t, r, "/api/currency/convert", map[string]interface{}{
		"amount": 10, "from": "USD", "to": "KES",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp map[string]float64
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["amount"] != 1300 {
		t.Errorf("amount = %v, want 1300", resp["amount"])
	}

	rec = postJSON(t, r, "/api/currency/convert", map[string]interface{}{
		"amount": 10, "from": "USD", "to": "XXX",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown currency status = %d, want 400", rec.Code)
	}
}

func TestMpesaInitiateRejectsInvalidPhone(t *testing.T) {
	r, _, _, _ := newTestRouter(t)

	rec := postJSON(t, r, "/mpesa/initiate", map[string]interface{}{
		"phoneNumber": "12345",
		"amount":      100,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
