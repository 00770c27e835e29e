package storage

import (
	"context"
	"errors"
	"sync"
	"testing"

	"BACK_FPA_GO/internal/models"
)

func TestReserveEventSlotEnforcesCapacity(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	_ = s.CreateEvent(ctx, &models.Event{ID: "e1", Name: "Gala", Slug: "gala", MaxParticipants: 2})

	if err := s.ReserveEventSlot(ctx, "e1"); err != nil {
		t.Fatalf("first reserve: %v", err)
	}
	if err := s.ReserveEventSlot(ctx, "e1"); err != nil {
		t.Fatalf("second reserve: %v", err)
	}
	if err := s.ReserveEventSlot(ctx, "e1"); !errors.Is(err, ErrEventFull) {
		t.Fatalf("third reserve err = %v, want ErrEventFull", err)
	}

	if err := s.ReleaseEventSlot(ctx, "e1"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := s.ReserveEventSlot(ctx, "e1"); err != nil {
		t.Fatalf("reserve after release: %v", err)
	}
}

func TestReserveEventSlotConcurrent(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	_ = s.CreateEvent(ctx, &models.Event{ID: "e1", Name: "Gala", Slug: "gala", MaxParticipants: 10})

	var wg sync.WaitGroup
	var mu sync.Mutex
	reserved := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.ReserveEventSlot(ctx, "e1"); err == nil {
				mu.Lock()
				reserved++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if reserved != 10 {
		t.Errorf("reserved = %d, want exactly 10", reserved)
	}
	e, _ := s.GetEvent(ctx, "e1")
	if e.RegisteredCount != 10 {
		t.Errorf("registered count = %d, want 10", e.RegisteredCount)
	}
}

func TestReleaseEventSlotNeverGoesNegative(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	_ = s.CreateEvent(ctx, &models.Event{ID: "e1", Name: "Gala", Slug: "gala", MaxParticipants: 5})

	_ = s.ReleaseEventSlot(ctx, "e1")
	e, _ := s.GetEvent(ctx, "e1")
	if e.RegisteredCount != 0 {
		t.Errorf("registered count = %d, want 0", e.RegisteredCount)
	}
}

func TestUpdateRegistrationPaymentTerminalGuard(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	_ = s.CreateRegistration(ctx, &models.EventRegistration{
		ID:            "r1",
		PaymentStatus: models.PaymentStatusPending,
	})

	if err := s.UpdateRegistrationPayment(ctx, "r1", models.PaymentStatusCompleted, "ref-1"); err != nil {
		t.Fatalf("pending -> completed: %v", err)
	}
	if err := s.UpdateRegistrationPayment(ctx, "r1", models.PaymentStatusFailed, ""); !errors.Is(err, ErrTerminalStatus) {
		t.Fatalf("completed -> failed err = %v, want ErrTerminalStatus", err)
	}

	r, _ := s.GetRegistration(ctx, "r1")
	if r.PaymentStatus != models.PaymentStatusCompleted {
		t.Errorf("status = %s, want completed", r.PaymentStatus)
	}
	if r.PaymentReference != "ref-1" {
		t.Errorf("reference = %q, want ref-1", r.PaymentReference)
	}
}

func TestUpdateDonationStatusTerminalGuard(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	_ = s.CreateDonation(ctx, &models.Donation{ID: "d1", Status: models.PaymentStatusPending})

	if err := s.UpdateDonationStatus(ctx, "d1", models.PaymentStatusFailed, "tx-1"); err != nil {
		t.Fatalf("pending -> failed: %v", err)
	}
	if err := s.UpdateDonationStatus(ctx, "d1", models.PaymentStatusCompleted, ""); !errors.Is(err, ErrTerminalStatus) {
		t.Fatalf("failed -> completed err = %v, want ErrTerminalStatus", err)
	}
}

func TestRecordWebhookEventDedupe(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	e := &models.WebhookEvent{EventID: "WH-1", EventType: "PAYMENT.CAPTURE.COMPLETED", Gateway: models.GatewayPaypal}

	if err := s.RecordWebhookEvent(ctx, e); err != nil {
		t.Fatalf("first record: %v", err)
	}
	if err := s.RecordWebhookEvent(ctx, e); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("replay err = %v, want ErrDuplicate", err)
	}
}

func TestSubscribeNewsletterIdempotent(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	first, err := s.SubscribeNewsletter(ctx, "donor@example.com")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	second, err := s.SubscribeNewsletter(ctx, "donor@example.com")
	if err != nil {
		t.Fatalf("resubscribe: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("resubscribe created a second row: %s vs %s", first.ID, second.ID)
	}
}

func TestGetDashboardStats(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	_ = s.CreateEvent(ctx, &models.Event{ID: "e1", Name: "Gala", Slug: "gala"})
	_ = s.CreateDonation(ctx, &models.Donation{ID: "d1", Amount: 5000, Status: models.PaymentStatusCompleted})
	_ = s.CreateDonation(ctx, &models.Donation{ID: "d2", Amount: 7000, Status: models.PaymentStatusPending})
	_ = s.CreateContactMessage(ctx, &models.ContactMessage{ID: "m1", Name: "A", Email: "a@b.c", Message: "hi"})
	_ = s.CreateVolunteer(ctx, &models.Volunteer{ID: "v1", FirstName: "A", LastName: "B", Email: "a@b.c"})

	stats, err := s.GetDashboardStats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalEvents != 1 || stats.TotalDonations != 2 || stats.TotalVolunteers != 1 {
		t.Errorf("counts = %+v", stats)
	}
	if stats.DonationsCompleted != 1 || stats.DonationTotal != 5000 {
		t.Errorf("completed=%d total=%d, want 1/5000", stats.DonationsCompleted, stats.DonationTotal)
	}
	if stats.UnreadMessages != 1 {
		t.Errorf("unread = %d, want 1", stats.UnreadMessages)
	}
}
