package storage

import (
	"context"
	"errors"

	"BACK_FPA_GO/internal/models"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrEventFull is returned when an event has no remaining capacity.
	ErrEventFull = errors.New("event is full")
	// ErrTerminalStatus is returned when a payment status transition is
	// attempted on a record already in a terminal state.
	ErrTerminalStatus = errors.New("payment status is terminal")
	// ErrDuplicate is returned when a webhook event was already recorded.
	ErrDuplicate = errors.New("duplicate record")
)

type DashboardStats struct {
	TotalEvents         int64                      `json:"totalEvents"`
	TotalRegistrations  int64                      `json:"totalRegistrations"`
	TotalDonations      int64                      `json:"totalDonations"`
	DonationsCompleted  int64                      `json:"donationsCompleted"`
	DonationTotal       int64                      `json:"donationTotal"`
	TotalVolunteers     int64                      `json:"totalVolunteers"`
	UnreadMessages      int64                      `json:"unreadMessages"`
	RecentRegistrations []models.EventRegistration `json:"recentRegistrations"`
}

// Storage is the persistence boundary: one method per query shape. Two
// implementations exist, GormStore (postgres) and MemStore (local dev); the
// active one is chosen at startup from configuration.
type Storage interface {
	// Events
	CreateEvent(ctx context.Context, e *models.Event) error
	GetEvents(ctx context.Context) ([]models.Event, error)
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	GetEventBySlug(ctx context.Context, slug string) (*models.Event, error)
	UpdateEvent(ctx context.Context, e *models.Event) error
	DeleteEvent(ctx context.Context, id string) error
	// ReserveEventSlot increments the registered count only while capacity
	// remains; ErrEventFull otherwise. ReleaseEventSlot is the compensating
	// decrement used when a gateway call fails after the reservation.
	ReserveEventSlot(ctx context.Context, id string) error
	ReleaseEventSlot(ctx context.Context, id string) error

	// Event registrations
	CreateRegistration(ctx context.Context, r *models.EventRegistration) error
	GetRegistration(ctx context.Context, id string) (*models.EventRegistration, error)
	GetRegistrationByReference(ctx context.Context, ref string) (*models.EventRegistration, error)
	// UpdateRegistrationPayment applies a status transition. Records already
	// in a terminal state are never modified; ErrTerminalStatus is returned.
	UpdateRegistrationPayment(ctx context.Context, id string, status models.PaymentStatus, reference string) error

	// Donations
	CreateDonation(ctx context.Context, d *models.Donation) error
	GetDonations(ctx context.Context) ([]models.Donation, error)
	GetDonation(ctx context.Context, id string) (*models.Donation, error)
	GetDonationByTransactionID(ctx context.Context, txID string) (*models.Donation, error)
	UpdateDonationStatus(ctx context.Context, id string, status models.PaymentStatus, txID string) error

	// Webhook dedupe: first writer wins, replays get ErrDuplicate.
	RecordWebhookEvent(ctx context.Context, e *models.WebhookEvent) error

	// Gateway switches and credentials
	GetGatewayStatus(ctx context.Context, gw models.Gateway) (*models.PaymentGatewayStatus, error)
	UpsertGatewayStatus(ctx context.Context, s *models.PaymentGatewayStatus) error
	GetGatewayConfig(ctx context.Context, gw models.Gateway) (*models.PaymentGatewayConfig, error)
	UpsertGatewayConfig(ctx context.Context, c *models.PaymentGatewayConfig) error

	// Content
	CreateBlogPost(ctx context.Context, p *models.BlogPost) error
	GetBlogPosts(ctx context.Context, publishedOnly bool) ([]models.BlogPost, error)
	GetBlogPostBySlug(ctx context.Context, slug string) (*models.BlogPost, error)
	UpdateBlogPost(ctx context.Context, p *models.BlogPost) error
	DeleteBlogPost(ctx context.Context, id string) error
	CreateCause(ctx context.Context, c *models.Cause) error
	GetCauses(ctx context.Context, activeOnly bool) ([]models.Cause, error)
	GetCauseBySlug(ctx context.Context, slug string) (*models.Cause, error)
	UpdateCause(ctx context.Context, c *models.Cause) error
	DeleteCause(ctx context.Context, id string) error
	CreateTeamMember(ctx context.Context, m *models.TeamMember) error
	GetTeamMembers(ctx context.Context) ([]models.TeamMember, error)
	DeleteTeamMember(ctx context.Context, id string) error
	CreateGalleryImage(ctx context.Context, g *models.GalleryImage) error
	GetGalleryImages(ctx context.Context) ([]models.GalleryImage, error)
	DeleteGalleryImage(ctx context.Context, id string) error

	// Community
	CreateContactMessage(ctx context.Context, m *models.ContactMessage) error
	GetContactMessages(ctx context.Context) ([]models.ContactMessage, error)
	MarkContactMessageRead(ctx context.Context, id string) error
	SubscribeNewsletter(ctx context.Context, email string) (*models.NewsletterSubscriber, error)
	CreateVolunteer(ctx context.Context, v *models.Volunteer) error
	GetVolunteers(ctx context.Context) ([]models.Volunteer, error)

	// Users
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// Admin dashboard aggregation
	GetDashboardStats(ctx context.Context) (*DashboardStats, error)
}
