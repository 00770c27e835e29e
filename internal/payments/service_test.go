package payments

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"BACK_FPA_GO/internal/currency"
	"BACK_FPA_GO/internal/gateway/mpesa"
	"BACK_FPA_GO/internal/gateway/paypal"
	"BACK_FPA_GO/internal/gateway/pesapal"
	"BACK_FPA_GO/internal/models"
	"BACK_FPA_GO/internal/storage"
)

type fakePaypal struct {
	orderErr   error
	verifyFail bool
	calls      int
}

func (f *fakePaypal) CreateOrder(_ context.Context, _ int64, _, reference, _, _ string) (*paypal.Order, error) {
	f.calls++
	if f.orderErr != nil {
		return nil, f.orderErr
	}
	return &paypal.Order{ID: "PP-" + reference, Status: "CREATED", ApprovalURL: "https://paypal.test/approve"}, nil
}

func (f *fakePaypal) CaptureOrder(_ context.Context, orderID string) (*paypal.CaptureResult, error) {
	return &paypal.CaptureResult{ID: orderID, Status: "COMPLETED"}, nil
}

func (f *fakePaypal) VerifyWebhookSignature(_ context.Context, _ paypal.WebhookHeaders, _ []byte) (bool, error) {
	return !f.verifyFail, nil
}

type fakePesapal struct {
	submitErr error
	status    string
	calls     int
}

func (f *fakePesapal) SubmitOrder(_ context.Context, req pesapal.OrderRequest) (*pesapal.OrderResponse, error) {
	f.calls++
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return &pesapal.OrderResponse{
		OrderTrackingID: "PSP-" + req.MerchantReference,
		RedirectURL:     "https://pesapal.test/pay",
	}, nil
}

func (f *fakePesapal) GetTransactionStatus(_ context.Context, _ string) (*pesapal.TransactionStatus, error) {
	return &pesapal.TransactionStatus{PaymentStatus: f.status}, nil
}

type fakeMpesa struct {
	pushErr   error
	pushCalls int
	// queryResults is consumed one per STKQuery call; the last entry
	// repeats once exhausted.
	queryResults []string
	queryCalls   int
}

func (f *fakeMpesa) STKPush(_ context.Context, phone string, _ int64, reference, _ string) (*mpesa.STKPushResponse, error) {
	f.pushCalls++
	if f.pushErr != nil {
		return nil, f.pushErr
	}
	return &mpesa.STKPushResponse{
		CheckoutRequestID: "ws_CO_" + reference,
		ResponseCode:      "0",
		CustomerMessage:   "Success. Request accepted for processing",
	}, nil
}

func (f *fakeMpesa) STKQuery(_ context.Context, _ string) (*mpesa.STKQueryResponse, error) {
	idx := f.queryCalls
	if idx >= len(f.queryResults) {
		idx = len(f.queryResults) - 1
	}
	f.queryCalls++
	return &mpesa.STKQueryResponse{ResultCode: f.queryResults[idx]}, nil
}

func newTestService(t *testing.T) (*Service, *storage.MemStore, *fakePaypal, *fakePesapal, *fakeMpesa) {
	t.Helper()
	store := storage.NewMemStore()
	pp := &fakePaypal{}
	pe := &fakePesapal{status: "COMPLETED"}
	mp := &fakeMpesa{queryResults: []string{""}}
	svc := NewService(store, pp, pe, mp, currency.NewConverter(130), zap.NewNop(), "https://fpa.test")
	svc.PollInterval = time.Millisecond
	svc.PollAttempts = 3
	return svc, store, pp, pe, mp
}

func seedEvent(t *testing.T, store *storage.MemStore, max int) *models.Event {
	t.Helper()
	e := &models.Event{
		ID:              "evt-1",
		Name:            "Annual Gala",
		Slug:            "annual-gala",
		Fee:             5000,
		Currency:        "USD",
		MaxParticipants: max,
		StartsAt:        time.Now().Add(48 * time.Hour),
	}
	if err := store.CreateEvent(context.Background(), e); err != nil {
		t.Fatalf("seed event: %v", err)
	}
	return e
}

func individualForm() *RegistrationForm {
	return &RegistrationForm{
		RegistrationType: models.RegistrationIndividual,
		Individual: &IndividualForm{
			FirstName: "Wanjiku",
			LastName:  "Kamau",
			Email:     "wanjiku@example.com",
			Phone:     "0712345678",
		},
	}
}

func TestInitiateRegistrationStoresReferenceAndReservesSlot(t *testing.T) {
	svc, store, _, _, _ := newTestService(t)
	event := seedEvent(t, store, 2)
	ctx := context.Background()

	result, err := svc.InitiateRegistration(ctx, event.ID, individualForm(), 5000, "USD", models.GatewayPesapal)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if result.PaymentURL != "https://pesapal.test/pay" {
		t.Errorf("payment url = %q", result.PaymentURL)
	}

	reg, err := store.GetRegistration(ctx, result.RegistrationID)
	if err != nil {
		t.Fatalf("get registration: %v", err)
	}
	if reg.PaymentStatus != models.PaymentStatusPending {
		t.Errorf("status = %s, want pending", reg.PaymentStatus)
	}
	if reg.PaymentReference != "PSP-"+reg.ID {
		t.Errorf("reference = %q", reg.PaymentReference)
	}

	got, _ := store.GetEvent(ctx, event.ID)
	if got.RegisteredCount != 1 {
		t.Errorf("registered count = %d, want 1", got.RegisteredCount)
	}
}

func TestInitiateRegistrationCompensatesOnGatewayFailure(t *testing.T) {
	svc, store, _, pe, _ := newTestService(t)
	pe.submitErr = errors.New("pesapal is down")
	event := seedEvent(t, store, 5)
	ctx := context.Background()

	_, err := svc.InitiateRegistration(ctx, event.ID, individualForm(), 5000, "USD", models.GatewayPesapal)
	if err == nil {
		t.Fatal("expected error from gateway failure")
	}

	got, _ := store.GetEvent(ctx, event.ID)
	if got.RegisteredCount != 0 {
		t.Errorf("registered count = %d, want 0 after compensation", got.RegisteredCount)
	}

	regs, _ := store.GetDashboardStats(ctx)
	if len(regs.RecentRegistrations) != 1 {
		t.Fatalf("expected the failed registration to remain recorded")
	}
	if regs.RecentRegistrations[0].PaymentStatus != models.PaymentStatusFailed {
		t.Errorf("status = %s, want failed", regs.RecentRegistrations[0].PaymentStatus)
	}
}

func TestInitiateRegistrationFullEvent(t *testing.T) {
	svc, store, _, _, _ := newTestService(t)
	event := seedEvent(t, store, 1)
	ctx := context.Background()

	if _, err := svc.InitiateRegistration(ctx, event.ID, individualForm(), 5000, "USD", models.GatewayPesapal); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	_, err := svc.InitiateRegistration(ctx, event.ID, individualForm(), 5000, "USD", models.GatewayPesapal)
	if !errors.Is(err, storage.ErrEventFull) {
		t.Fatalf("err = %v, want ErrEventFull", err)
	}

	got, _ := store.GetEvent(ctx, event.ID)
	if got.RegisteredCount != 1 {
		t.Errorf("registered count = %d, want 1", got.RegisteredCount)
	}
}

func TestInitiateRegistrationUnlimitedCapacity(t *testing.T) {
	svc, store, _, _, _ := newTestService(t)
	event := seedEvent(t, store, 0)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.InitiateRegistration(ctx, event.ID, individualForm(), 5000, "USD", models.GatewayPesapal); err != nil {
			t.Fatalf("registration %d: %v", i, err)
		}
	}
}

func TestInitiateRegistrationGatewayMaintenance(t *testing.T) {
	svc, store, _, pe, _ := newTestService(t)
	event := seedEvent(t, store, 5)
	ctx := context.Background()

	_ = store.UpsertGatewayStatus(ctx, &models.PaymentGatewayStatus{
		Gateway: models.GatewayPesapal,
		Mode:    models.GatewayModeMaintenance,
		Message: "scheduled maintenance",
	})

	_, err := svc.InitiateRegistration(ctx, event.ID, individualForm(), 5000, "USD", models.GatewayPesapal)
	if !errors.Is(err, ErrGatewayDown) {
		t.Fatalf("err = %v, want ErrGatewayDown", err)
	}
	if pe.calls != 0 {
		t.Errorf("gateway called %d times during maintenance", pe.calls)
	}
}

func TestRegistrationFormValidation(t *testing.T) {
	cases := []struct {
		name string
		form *RegistrationForm
	}{
		{"no sections", &RegistrationForm{RegistrationType: models.RegistrationIndividual}},
		{"both sections", &RegistrationForm{
			RegistrationType: models.RegistrationIndividual,
			Individual:       &IndividualForm{FirstName: "A", Email: "a@b.c"},
			Organization:     &OrganizationForm{OrganizationName: "Org", Email: "o@b.c"},
		}},
		{"wrong section for type", &RegistrationForm{
			RegistrationType: models.RegistrationOrganization,
			Individual:       &IndividualForm{FirstName: "A", Email: "a@b.c"},
		}},
		{"unknown type", &RegistrationForm{RegistrationType: "company"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.form.Validate(); !errors.Is(err, ErrInvalidForm) {
				t.Errorf("err = %v, want ErrInvalidForm", err)
			}
		})
	}
}

func TestApplyResultIsImmutableOnceTerminal(t *testing.T) {
	svc, store, _, _, _ := newTestService(t)
	event := seedEvent(t, store, 5)
	ctx := context.Background()

	result, err := svc.InitiateRegistration(ctx, event.ID, individualForm(), 5000, "USD", models.GatewayPesapal)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	ref := "PSP-" + result.RegistrationID

	if err := svc.ApplyResult(ctx, ref, models.PaymentStatusCompleted, models.GatewayPesapal); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	// replayed contradictory result must be a no-op
	if err := svc.ApplyResult(ctx, ref, models.PaymentStatusFailed, models.GatewayPesapal); err != nil {
		t.Fatalf("replay apply: %v", err)
	}

	reg, _ := store.GetRegistration(ctx, result.RegistrationID)
	if reg.PaymentStatus != models.PaymentStatusCompleted {
		t.Errorf("status = %s, want completed after replay", reg.PaymentStatus)
	}
	got, _ := store.GetEvent(ctx, event.ID)
	if got.RegisteredCount != 1 {
		t.Errorf("registered count = %d, want slot kept", got.RegisteredCount)
	}
}

func TestApplyResultFailureReleasesSlot(t *testing.T) {
	svc, store, _, _, _ := newTestService(t)
	event := seedEvent(t, store, 5)
	ctx := context.Background()

	result, err := svc.InitiateRegistration(ctx, event.ID, individualForm(), 5000, "USD", models.GatewayPesapal)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}

	if err := svc.ApplyResult(ctx, "PSP-"+result.RegistrationID, models.PaymentStatusFailed, models.GatewayPesapal); err != nil {
		t.Fatalf("apply: %v", err)
	}
	got, _ := store.GetEvent(ctx, event.ID)
	if got.RegisteredCount != 0 {
		t.Errorf("registered count = %d, want 0 after failed payment", got.RegisteredCount)
	}
}

func TestApplyResultUnknownReference(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	err := svc.ApplyResult(context.Background(), "no-such-ref", models.PaymentStatusCompleted, models.GatewayPaypal)
	if !errors.Is(err, ErrUnknownReference) {
		t.Fatalf("err = %v, want ErrUnknownReference", err)
	}
}

func TestResolvePesapalCallback(t *testing.T) {
	svc, store, _, pe, _ := newTestService(t)
	event := seedEvent(t, store, 5)
	ctx := context.Background()

	result, err := svc.InitiateRegistration(ctx, event.ID, individualForm(), 5000, "USD", models.GatewayPesapal)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	ref := "PSP-" + result.RegistrationID

	pe.status = "COMPLETED"
	status, err := svc.ResolvePesapalCallback(ctx, ref)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if status != models.PaymentStatusCompleted {
		t.Errorf("status = %s, want completed", status)
	}

	reg, _ := store.GetRegistration(ctx, result.RegistrationID)
	if reg.PaymentStatus != models.PaymentStatusCompleted {
		t.Errorf("stored status = %s, want completed", reg.PaymentStatus)
	}
}

func TestResolvePesapalCallbackLeavesPendingAlone(t *testing.T) {
	svc, store, _, pe, _ := newTestService(t)
	event := seedEvent(t, store, 5)
	ctx := context.Background()

	result, err := svc.InitiateRegistration(ctx, event.ID, individualForm(), 5000, "USD", models.GatewayPesapal)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}

	pe.status = "PENDING"
	status, err := svc.ResolvePesapalCallback(ctx, "PSP-"+result.RegistrationID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if status != models.PaymentStatusPending {
		t.Errorf("status = %s, want pending", status)
	}
	reg, _ := store.GetRegistration(ctx, result.RegistrationID)
	if reg.PaymentStatus != models.PaymentStatusPending {
		t.Errorf("stored status = %s, want pending", reg.PaymentStatus)
	}
}

func TestMonitorSTKCompletesOnConfirmation(t *testing.T) {
	svc, store, _, _, mp := newTestService(t)
	ctx := context.Background()

	d := &models.Donation{
		ID:            "don-1",
		Amount:        100000,
		Currency:      "KES",
		PaymentMethod: models.GatewayMpesa,
		Status:        models.PaymentStatusPending,
		TransactionID: "ws_CO_don-1",
	}
	if err := store.CreateDonation(ctx, d); err != nil {
		t.Fatalf("seed donation: %v", err)
	}

	mp.queryResults = []string{"", "", "0"}
	svc.MonitorSTK("ws_CO_don-1")

	got, _ := store.GetDonation(ctx, "don-1")
	if got.Status != models.PaymentStatusCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
	if mp.queryCalls != 3 {
		t.Errorf("query calls = %d, want 3", mp.queryCalls)
	}
}

func TestMonitorSTKFailsOnDefinitiveCode(t *testing.T) {
	svc, store, _, _, mp := newTestService(t)
	ctx := context.Background()

	d := &models.Donation{
		ID:            "don-2",
		Amount:        50000,
		Currency:      "KES",
		PaymentMethod: models.GatewayMpesa,
		Status:        models.PaymentStatusPending,
		TransactionID: "ws_CO_don-2",
	}
	_ = store.CreateDonation(ctx, d)

	mp.queryResults = []string{"1032"} // user cancelled
	svc.MonitorSTK("ws_CO_don-2")

	got, _ := store.GetDonation(ctx, "don-2")
	if got.Status != models.PaymentStatusFailed {
		t.Errorf("status = %s, want failed", got.Status)
	}
}

func TestMonitorSTKExhaustionLeavesPending(t *testing.T) {
	svc, store, _, _, mp := newTestService(t)
	ctx := context.Background()

	d := &models.Donation{
		ID:            "don-3",
		Amount:        50000,
		Currency:      "KES",
		PaymentMethod: models.GatewayMpesa,
		Status:        models.PaymentStatusPending,
		TransactionID: "ws_CO_don-3",
	}
	_ = store.CreateDonation(ctx, d)

	mp.queryResults = []string{""}
	svc.MonitorSTK("ws_CO_don-3")

	got, _ := store.GetDonation(ctx, "don-3")
	if got.Status != models.PaymentStatusPending {
		t.Errorf("status = %s, want pending after exhaustion", got.Status)
	}
	if mp.queryCalls != svc.PollAttempts {
		t.Errorf("query calls = %d, want %d", mp.queryCalls, svc.PollAttempts)
	}

	// a late Daraja callback still lands
	if err := svc.ApplyResult(ctx, "ws_CO_don-3", models.PaymentStatusCompleted, models.GatewayMpesa); err != nil {
		t.Fatalf("late callback: %v", err)
	}
	got, _ = store.GetDonation(ctx, "don-3")
	if got.Status != models.PaymentStatusCompleted {
		t.Errorf("status = %s, want completed after late callback", got.Status)
	}
}

func TestInitiateDonationMpesaRejectsBadPhoneBeforeGateway(t *testing.T) {
	svc, store, _, _, mp := newTestService(t)
	ctx := context.Background()

	d := &models.Donation{
		DonorName:     "Test Donor",
		Amount:        10000,
		Currency:      "KES",
		PaymentMethod: models.GatewayMpesa,
	}
	_, err := svc.InitiateDonation(ctx, d, "12345")
	if err == nil {
		t.Fatal("expected phone validation error")
	}
	if mp.pushCalls != 0 {
		t.Errorf("stk push called %d times for invalid phone", mp.pushCalls)
	}

	// the pending record created before validation must be compensated
	got, _ := store.GetDonation(ctx, d.ID)
	if got.Status != models.PaymentStatusFailed {
		t.Errorf("status = %s, want failed", got.Status)
	}
}

func TestRecordedStatusVocabulary(t *testing.T) {
	svc, store, _, _, _ := newTestService(t)
	ctx := context.Background()

	d := &models.Donation{
		ID:            "don-4",
		Amount:        10000,
		Currency:      "KES",
		PaymentMethod: models.GatewayMpesa,
		Status:        models.PaymentStatusPending,
		TransactionID: "ws_CO_don-4",
	}
	_ = store.CreateDonation(ctx, d)

	code, _, err := svc.RecordedStatus(ctx, "ws_CO_don-4")
	if err != nil || code != "" {
		t.Errorf("pending: code=%q err=%v, want empty code", code, err)
	}

	_ = svc.ApplyResult(ctx, "ws_CO_don-4", models.PaymentStatusCompleted, models.GatewayMpesa)
	code, msg, err := svc.RecordedStatus(ctx, "ws_CO_don-4")
	if err != nil || code != "0" {
		t.Errorf("completed: code=%q err=%v, want 0", code, err)
	}
	if msg == "" {
		t.Error("completed: empty message")
	}

	if _, _, err := svc.RecordedStatus(ctx, "unknown"); !errors.Is(err, ErrUnknownReference) {
		t.Errorf("unknown ref err = %v", err)
	}
}
