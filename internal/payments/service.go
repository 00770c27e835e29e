package payments

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"BACK_FPA_GO/internal/currency"
	"BACK_FPA_GO/internal/gateway/mpesa"
	"BACK_FPA_GO/internal/gateway/paypal"
	"BACK_FPA_GO/internal/gateway/pesapal"
	"BACK_FPA_GO/internal/models"
	"BACK_FPA_GO/internal/monitoring"
	"BACK_FPA_GO/internal/storage"
	"BACK_FPA_GO/internal/utils"
)

var (
	ErrGatewayDown      = errors.New("gateway is under maintenance")
	ErrInvalidForm      = errors.New("invalid registration form")
	ErrUnknownReference = errors.New("no record for payment reference")
)

// PaypalGateway, PesapalGateway and MpesaGateway are the slices of each
// client the service actually calls; tests substitute fakes.
type PaypalGateway interface {
	CreateOrder(ctx context.Context, amountCents int64, currency, reference, returnURL, cancelURL string) (*paypal.Order, error)
	CaptureOrder(ctx context.Context, orderID string) (*paypal.CaptureResult, error)
	VerifyWebhookSignature(ctx context.Context, h paypal.WebhookHeaders, rawEvent []byte) (bool, error)
}

type PesapalGateway interface {
	SubmitOrder(ctx context.Context, req pesapal.OrderRequest) (*pesapal.OrderResponse, error)
	GetTransactionStatus(ctx context.Context, orderTrackingID string) (*pesapal.TransactionStatus, error)
}

type MpesaGateway interface {
	STKPush(ctx context.Context, phone string, amountKES int64, reference, description string) (*mpesa.STKPushResponse, error)
	STKQuery(ctx context.Context, checkoutRequestID string) (*mpesa.STKQueryResponse, error)
}

// Service orchestrates the payment lifecycle: create a pending record, call
// the gateway, and apply the terminal transition from the gateway's
// callback, webhook or status poll.
type Service struct {
	Store     storage.Storage
	Paypal    PaypalGateway
	Pesapal   PesapalGateway
	Mpesa     MpesaGateway
	Converter *currency.Converter
	Log       *zap.Logger
	BaseURL   string

	// STK monitor tuning; shrunk in tests.
	PollInterval time.Duration
	PollAttempts int
}

func NewService(store storage.Storage, pp PaypalGateway, pe PesapalGateway, mp MpesaGateway, conv *currency.Converter, log *zap.Logger, baseURL string) *Service {
	return &Service{
		Store:        store,
		Paypal:       pp,
		Pesapal:      pe,
		Mpesa:        mp,
		Converter:    conv,
		Log:          log,
		BaseURL:      strings.TrimRight(baseURL, "/"),
		PollInterval: 5 * time.Second,
		PollAttempts: 10,
	}
}

type IndividualForm struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type OrganizationForm struct {
	OrganizationName string `json:"organizationName"`
	ContactPerson    string `json:"contactPerson"`
	Email            string `json:"email"`
	Phone            string `json:"phone"`
}

type RegistrationForm struct {
	RegistrationType models.RegistrationType `json:"registrationType"`
	Individual       *IndividualForm         `json:"individual,omitempty"`
	Organization     *OrganizationForm       `json:"organization,omitempty"`
}

// Validate enforces the invariant that exactly one of the individual /
// organization sections is present and matches registrationType.
func (f *RegistrationForm) Validate() error {
	switch f.RegistrationType {
	case models.RegistrationIndividual:
		if f.Individual == nil || f.Organization != nil {
			return ErrInvalidForm
		}
		if strings.TrimSpace(f.Individual.FirstName) == "" || strings.TrimSpace(f.Individual.Email) == "" {
			return ErrInvalidForm
		}
	case models.RegistrationOrganization:
		if f.Organization == nil || f.Individual != nil {
			return ErrInvalidForm
		}
		if strings.TrimSpace(f.Organization.OrganizationName) == "" || strings.TrimSpace(f.Organization.Email) == "" {
			return ErrInvalidForm
		}
	default:
		return ErrInvalidForm
	}
	return nil
}

func (f *RegistrationForm) email() string {
	if f.Individual != nil {
		return f.Individual.Email
	}
	return f.Organization.Email
}

func (f *RegistrationForm) phone() string {
	if f.Individual != nil {
		return f.Individual.Phone
	}
	return f.Organization.Phone
}

type InitiateResult struct {
	RegistrationID    string `json:"registrationId"`
	PaymentURL        string `json:"paymentUrl,omitempty"`
	CheckoutRequestID string `json:"checkoutRequestId,omitempty"`
}

// gatewayLive reads the maintenance switch. A missing row means the
// gateway has never been toggled and is treated as live.
func (s *Service) gatewayLive(ctx context.Context, gw models.Gateway) error {
	st, err := s.Store.GetGatewayStatus(ctx, gw)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return err
	}
	if st.Mode == models.GatewayModeMaintenance {
		return ErrGatewayDown
	}
	return nil
}

// InitiateRegistration creates a pending registration, reserves the event
// slot atomically, then calls the chosen gateway. If the gateway call
// fails the record is marked failed and the slot released, so no orphaned
// pending rows are left behind.
func (s *Service) InitiateRegistration(ctx context.Context, eventID string, form *RegistrationForm, amount int64, cur string, gw models.Gateway) (*InitiateResult, error) {
	if !gw.Valid() {
		return nil, fmt.Errorf("%w: unknown gateway %q", ErrInvalidForm, gw)
	}
	if err := form.Validate(); err != nil {
		return nil, err
	}
	if err := s.gatewayLive(ctx, gw); err != nil {
		return nil, err
	}

	event, err := s.Store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := s.Store.ReserveEventSlot(ctx, eventID); err != nil {
		return nil, err
	}

	reg := &models.EventRegistration{
		ID:            uuid.NewString(),
		EventID:       event.ID,
		Type:          form.RegistrationType,
		Amount:        amount,
		Currency:      cur,
		Gateway:       gw,
		PaymentStatus: models.PaymentStatusPending,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
	if form.Individual != nil {
		reg.FirstName = form.Individual.FirstName
		reg.LastName = form.Individual.LastName
		reg.Email = form.Individual.Email
		reg.Phone = form.Individual.Phone
	} else {
		reg.OrganizationName = form.Organization.OrganizationName
		reg.ContactPerson = form.Organization.ContactPerson
		reg.OrgEmail = form.Organization.Email
		reg.OrgPhone = form.Organization.Phone
	}
	if err := s.Store.CreateRegistration(ctx, reg); err != nil {
		_ = s.Store.ReleaseEventSlot(ctx, eventID)
		return nil, err
	}

	result, err := s.callGateway(ctx, gw, reg.ID, amount, cur, form, event.Name)
	if err != nil {
		s.compensateRegistration(ctx, reg.ID, eventID)
		monitoring.PaymentInitiations.WithLabelValues(string(gw), "error").Inc()
		return nil, err
	}
	if err := s.Store.UpdateRegistrationPayment(ctx, reg.ID, models.PaymentStatusPending, result.reference); err != nil {
		s.Log.Error("failed to store payment reference",
			zap.String("registrationId", reg.ID), zap.Error(err))
	}

	monitoring.PaymentInitiations.WithLabelValues(string(gw), "ok").Inc()
	s.Log.Info("payment initiated",
		zap.String("registrationId", reg.ID),
		zap.String("gateway", string(gw)),
		zap.Int64("amount", amount))

	out := &InitiateResult{RegistrationID: reg.ID, PaymentURL: result.paymentURL}
	if gw == models.GatewayMpesa {
		out.CheckoutRequestID = result.reference
		go s.MonitorSTK(result.reference)
	}
	return out, nil
}

type gatewayResult struct {
	reference  string // gateway tracking id, stored as the payment reference
	paymentURL string
}

func (s *Service) callGateway(ctx context.Context, gw models.Gateway, recordID string, amount int64, cur string, form *RegistrationForm, description string) (*gatewayResult, error) {
	switch gw {
	case models.GatewayPaypal:
		order, err := s.Paypal.CreateOrder(ctx, amount, cur, recordID,
			s.BaseURL+"/payment-success", s.BaseURL+"/payment-cancelled")
		if err != nil {
			return nil, fmt.Errorf("payment initiation failed: %w", err)
		}
		return &gatewayResult{reference: order.ID, paymentURL: order.ApprovalURL}, nil

	case models.GatewayPesapal:
		first, last := splitName(form)
		resp, err := s.Pesapal.SubmitOrder(ctx, pesapal.OrderRequest{
			MerchantReference: recordID,
			Amount:            amount,
			Currency:          cur,
			Description:       description,
			CallbackURL:       s.BaseURL + "/api/payments/callback",
			Email:             form.email(),
			Phone:             form.phone(),
			FirstName:         first,
			LastName:          last,
		})
		if err != nil {
			return nil, fmt.Errorf("payment initiation failed: %w", err)
		}
		return &gatewayResult{reference: resp.OrderTrackingID, paymentURL: resp.RedirectURL}, nil

	case models.GatewayMpesa:
		phone, err := utils.NormalizePhone(form.phone())
		if err != nil {
			return nil, err
		}
		kes, err := s.toKES(amount, cur)
		if err != nil {
			return nil, err
		}
		resp, err := s.Mpesa.STKPush(ctx, phone, kes, recordID, description)
		if err != nil {
			return nil, fmt.Errorf("payment initiation failed: %w", err)
		}
		return &gatewayResult{reference: resp.CheckoutRequestID}, nil
	}
	return nil, fmt.Errorf("unknown gateway %q", gw)
}

// toKES converts minor units in the source currency to whole KES, which is
// what Daraja expects. Amounts below one shilling round up to one.
func (s *Service) toKES(amountCents int64, cur string) (int64, error) {
	converted, err := s.Converter.Convert(float64(amountCents)/100, cur, "KES")
	if err != nil {
		return 0, err
	}
	kes := int64(math.Ceil(converted))
	if kes < 1 {
		kes = 1
	}
	return kes, nil
}

func (s *Service) compensateRegistration(ctx context.Context, regID, eventID string) {
	if err := s.Store.UpdateRegistrationPayment(ctx, regID, models.PaymentStatusFailed, ""); err != nil {
		s.Log.Error("compensation failed", zap.String("registrationId", regID), zap.Error(err))
	}
	if err := s.Store.ReleaseEventSlot(ctx, eventID); err != nil {
		s.Log.Error("slot release failed", zap.String("eventId", eventID), zap.Error(err))
	}
}

// InitiateDonation follows the same create-pending / call-gateway /
// compensate-on-error sequence without event capacity handling.
func (s *Service) InitiateDonation(ctx context.Context, d *models.Donation, phone string) (*InitiateResult, error) {
	gw := d.PaymentMethod
	if !gw.Valid() {
		return nil, fmt.Errorf("%w: unknown gateway %q", ErrInvalidForm, gw)
	}
	if err := s.gatewayLive(ctx, gw); err != nil {
		return nil, err
	}

	d.ID = uuid.NewString()
	d.Status = models.PaymentStatusPending
	d.CreatedAt = time.Now().UTC()
	d.UpdatedAt = d.CreatedAt
	if err := s.Store.CreateDonation(ctx, d); err != nil {
		return nil, err
	}

	form := &RegistrationForm{
		RegistrationType: models.RegistrationIndividual,
		Individual:       &IndividualForm{FirstName: d.DonorName, Email: d.DonorEmail, Phone: phone},
	}
	result, err := s.callGateway(ctx, gw, d.ID, d.Amount, d.Currency, form, "donation")
	if err != nil {
		if uerr := s.Store.UpdateDonationStatus(ctx, d.ID, models.PaymentStatusFailed, ""); uerr != nil {
			s.Log.Error("donation compensation failed", zap.String("donationId", d.ID), zap.Error(uerr))
		}
		monitoring.PaymentInitiations.WithLabelValues(string(gw), "error").Inc()
		return nil, err
	}
	if err := s.Store.UpdateDonationStatus(ctx, d.ID, models.PaymentStatusPending, result.reference); err != nil {
		s.Log.Error("failed to store donation reference", zap.String("donationId", d.ID), zap.Error(err))
	}

	monitoring.PaymentInitiations.WithLabelValues(string(gw), "ok").Inc()
	out := &InitiateResult{RegistrationID: d.ID, PaymentURL: result.paymentURL}
	if gw == models.GatewayMpesa {
		out.CheckoutRequestID = result.reference
		go s.MonitorSTK(result.reference)
	}
	return out, nil
}

// ApplyResult moves the record identified by the gateway reference to a
// terminal state. Replays against an already-terminal record are no-ops.
func (s *Service) ApplyResult(ctx context.Context, gatewayRef string, status models.PaymentStatus, gw models.Gateway) error {
	if reg, err := s.Store.GetRegistrationByReference(ctx, gatewayRef); err == nil {
		uerr := s.Store.UpdateRegistrationPayment(ctx, reg.ID, status, "")
		if errors.Is(uerr, storage.ErrTerminalStatus) {
			s.Log.Info("payment result replay ignored", zap.String("reference", gatewayRef))
			return nil
		}
		if uerr != nil {
			return uerr
		}
		if status == models.PaymentStatusFailed {
			_ = s.Store.ReleaseEventSlot(ctx, reg.EventID)
		}
		monitoring.PaymentConfirmations.WithLabelValues(string(gw), string(status)).Inc()
		s.Log.Info("registration payment resolved",
			zap.String("registrationId", reg.ID), zap.String("status", string(status)))
		return nil
	}

	if d, err := s.Store.GetDonationByTransactionID(ctx, gatewayRef); err == nil {
		uerr := s.Store.UpdateDonationStatus(ctx, d.ID, status, "")
		if errors.Is(uerr, storage.ErrTerminalStatus) {
			s.Log.Info("payment result replay ignored", zap.String("reference", gatewayRef))
			return nil
		}
		if uerr != nil {
			return uerr
		}
		monitoring.PaymentConfirmations.WithLabelValues(string(gw), string(status)).Inc()
		s.Log.Info("donation payment resolved",
			zap.String("donationId", d.ID), zap.String("status", string(status)))
		return nil
	}

	return ErrUnknownReference
}

// ResolvePesapalCallback queries Pesapal for the authoritative status of a
// tracking ID instead of trusting callback query parameters.
func (s *Service) ResolvePesapalCallback(ctx context.Context, orderTrackingID string) (models.PaymentStatus, error) {
	ts, err := s.Pesapal.GetTransactionStatus(ctx, orderTrackingID)
	if err != nil {
		return "", fmt.Errorf("pesapal status lookup: %w", err)
	}

	var status models.PaymentStatus
	switch strings.ToUpper(ts.PaymentStatus) {
	case "COMPLETED":
		status = models.PaymentStatusCompleted
	case "FAILED", "INVALID", "REVERSED":
		status = models.PaymentStatusFailed
	default:
		// still pending on the gateway side; leave the record alone
		return models.PaymentStatusPending, nil
	}
	if err := s.ApplyResult(ctx, orderTrackingID, status, models.GatewayPesapal); err != nil {
		return "", err
	}
	return status, nil
}

// MonitorSTK polls Daraja for the outcome of an STK push: at most
// PollAttempts queries spaced PollInterval apart. ResultCode "0" completes
// the record, any other definitive code fails it, and exhaustion leaves it
// pending — the Daraja callback remains the source of truth for late
// confirmations.
func (s *Service) MonitorSTK(checkoutRequestID string) {
	ctx := context.Background()
	for attempt := 1; attempt <= s.PollAttempts; attempt++ {
		if attempt > 1 {
			time.Sleep(s.PollInterval)
		}

		resp, err := s.Mpesa.STKQuery(ctx, checkoutRequestID)
		if err != nil {
			// Daraja answers with an error while the push is still being
			// processed; keep polling.
			monitoring.StatusPolls.WithLabelValues("error").Inc()
			continue
		}

		switch resp.ResultCode {
		case "":
			monitoring.StatusPolls.WithLabelValues("pending").Inc()
			continue
		case "0":
			monitoring.StatusPolls.WithLabelValues("success").Inc()
			if err := s.ApplyResult(ctx, checkoutRequestID, models.PaymentStatusCompleted, models.GatewayMpesa); err != nil {
				s.Log.Error("stk result apply failed",
					zap.String("checkoutRequestId", checkoutRequestID), zap.Error(err))
			}
			return
		default:
			monitoring.StatusPolls.WithLabelValues("failed").Inc()
			if err := s.ApplyResult(ctx, checkoutRequestID, models.PaymentStatusFailed, models.GatewayMpesa); err != nil {
				s.Log.Error("stk result apply failed",
					zap.String("checkoutRequestId", checkoutRequestID), zap.Error(err))
			}
			return
		}
	}

	s.Log.Warn("stk monitor exhausted without a terminal result",
		zap.String("checkoutRequestId", checkoutRequestID),
		zap.Int("attempts", s.PollAttempts))
}

// RecordedStatus reports the stored state for a CheckoutRequestID in
// Daraja's ResultCode vocabulary.
func (s *Service) RecordedStatus(ctx context.Context, checkoutRequestID string) (resultCode, message string, err error) {
	status := models.PaymentStatus("")
	if reg, rerr := s.Store.GetRegistrationByReference(ctx, checkoutRequestID); rerr == nil {
		status = reg.PaymentStatus
	} else if d, derr := s.Store.GetDonationByTransactionID(ctx, checkoutRequestID); derr == nil {
		status = d.Status
	} else {
		return "", "", ErrUnknownReference
	}

	switch status {
	case models.PaymentStatusCompleted:
		return "0", "Payment received", nil
	case models.PaymentStatusFailed:
		return "1", "Payment failed", nil
	default:
		return "", "Payment not confirmed yet. Check your phone to complete the M-Pesa prompt.", nil
	}
}

func splitName(form *RegistrationForm) (string, string) {
	if form.Individual != nil {
		return form.Individual.FirstName, form.Individual.LastName
	}
	parts := strings.Fields(form.Organization.ContactPerson)
	if len(parts) == 0 {
		return form.Organization.OrganizationName, ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
