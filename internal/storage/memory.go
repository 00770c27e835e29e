package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"BACK_FPA_GO/internal/models"
)

func newID() string { return uuid.NewString() }

// MemStore is the map-backed Storage used when no database is configured.
// It is explicitly selected at startup (STORAGE_BACKEND=memory), never a
// hidden fallback.
type MemStore struct {
	mu sync.Mutex

	events        map[string]*models.Event
	registrations map[string]*models.EventRegistration
	donations     map[string]*models.Donation
	webhookEvents map[string]*models.WebhookEvent
	gwStatus      map[models.Gateway]*models.PaymentGatewayStatus
	gwConfig      map[models.Gateway]*models.PaymentGatewayConfig
	blogPosts     map[string]*models.BlogPost
	causes        map[string]*models.Cause
	teamMembers   map[string]*models.TeamMember
	gallery       map[string]*models.GalleryImage
	messages      map[string]*models.ContactMessage
	subscribers   map[string]*models.NewsletterSubscriber
	volunteers    map[string]*models.Volunteer
	users         map[string]*models.User
}

func NewMemStore() *MemStore {
	return &MemStore{
		events:        make(map[string]*models.Event),
		registrations: make(map[string]*models.EventRegistration),
		donations:     make(map[string]*models.Donation),
		webhookEvents: make(map[string]*models.WebhookEvent),
		gwStatus:      make(map[models.Gateway]*models.PaymentGatewayStatus),
		gwConfig:      make(map[models.Gateway]*models.PaymentGatewayConfig),
		blogPosts:     make(map[string]*models.BlogPost),
		causes:        make(map[string]*models.Cause),
		teamMembers:   make(map[string]*models.TeamMember),
		gallery:       make(map[string]*models.GalleryImage),
		messages:      make(map[string]*models.ContactMessage),
		subscribers:   make(map[string]*models.NewsletterSubscriber),
		volunteers:    make(map[string]*models.Volunteer),
		users:         make(map[string]*models.User),
	}
}

// ---- events ----

func (s *MemStore) CreateEvent(_ context.Context, e *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *e
	s.events[e.ID] = &cp
	return nil
}

func (s *MemStore) GetEvents(_ context.Context) ([]models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Event, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.After(out[j].StartsAt) })
	return out, nil
}

func (s *MemStore) GetEvent(_ context.Context, id string) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (s *MemStore) GetEventBySlug(_ context.Context, slug string) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.events {
		if e.Slug == slug {
			cp := *e
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemStore) UpdateEvent(_ context.Context, e *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[e.ID]; !ok {
		return ErrNotFound
	}
	cp := *e
	cp.UpdatedAt = time.Now().UTC()
	s.events[e.ID] = &cp
	return nil
}

func (s *MemStore) DeleteEvent(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return ErrNotFound
	}
	delete(s.events, id)
	return nil
}

func (s *MemStore) ReserveEventSlot(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return ErrNotFound
	}
	if e.MaxParticipants > 0 && e.RegisteredCount >= e.MaxParticipants {
		return ErrEventFull
	}
	e.RegisteredCount++
	return nil
}

func (s *MemStore) ReleaseEventSlot(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return ErrNotFound
	}
	if e.RegisteredCount > 0 {
		e.RegisteredCount--
	}
	return nil
}

// ---- registrations ----

func (s *MemStore) CreateRegistration(_ context.Context, r *models.EventRegistration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.registrations[r.ID] = &cp
	return nil
}

func (s *MemStore) GetRegistration(_ context.Context, id string) (*models.EventRegistration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.registrations[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *MemStore) GetRegistrationByReference(_ context.Context, ref string) (*models.EventRegistration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.registrations {
		if r.PaymentReference == ref {
			cp := *r
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemStore) UpdateRegistrationPayment(_ context.Context, id string, status models.PaymentStatus, reference string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.registrations[id]
	if !ok {
		return ErrNotFound
	}
	if r.PaymentStatus.Terminal() {
		return ErrTerminalStatus
	}
	r.PaymentStatus = status
	if reference != "" {
		r.PaymentReference = reference
	}
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// ---- donations ----

func (s *MemStore) CreateDonation(_ context.Context, d *models.Donation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *d
	s.donations[d.ID] = &cp
	return nil
}

func (s *MemStore) GetDonations(_ context.Context) ([]models.Donation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Donation, 0, len(s.donations))
	for _, d := range s.donations {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemStore) GetDonation(_ context.Context, id string) (*models.Donation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.donations[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (s *MemStore) GetDonationByTransactionID(_ context.Context, txID string) (*models.Donation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.donations {
		if d.TransactionID == txID {
			cp := *d
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemStore) UpdateDonationStatus(_ context.Context, id string, status models.PaymentStatus, txID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.donations[id]
	if !ok {
		return ErrNotFound
	}
	if d.Status.Terminal() {
		return ErrTerminalStatus
	}
	d.Status = status
	if txID != "" {
		d.TransactionID = txID
	}
	d.UpdatedAt = time.Now().UTC()
	return nil
}

// ---- webhook dedupe ----

func (s *MemStore) RecordWebhookEvent(_ context.Context, e *models.WebhookEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.webhookEvents[e.EventID]; ok {
		return ErrDuplicate
	}
	cp := *e
	if cp.ProcessedAt.IsZero() {
		cp.ProcessedAt = time.Now().UTC()
	}
	s.webhookEvents[e.EventID] = &cp
	return nil
}

// ---- gateway switches ----

func (s *MemStore) GetGatewayStatus(_ context.Context, gw models.Gateway) (*models.PaymentGatewayStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.gwStatus[gw]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *st
	return &cp, nil
}

func (s *MemStore) UpsertGatewayStatus(_ context.Context, st *models.PaymentGatewayStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *st
	cp.UpdatedAt = time.Now().UTC()
	s.gwStatus[st.Gateway] = &cp
	return nil
}

func (s *MemStore) GetGatewayConfig(_ context.Context, gw models.Gateway) (*models.PaymentGatewayConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.gwConfig[gw]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *MemStore) UpsertGatewayConfig(_ context.Context, c *models.PaymentGatewayConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	cp.UpdatedAt = time.Now().UTC()
	s.gwConfig[c.Gateway] = &cp
	return nil
}

// ---- content ----

func (s *MemStore) CreateBlogPost(_ context.Context, p *models.BlogPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.blogPosts[p.ID] = &cp
	return nil
}

func (s *MemStore) GetBlogPosts(_ context.Context, publishedOnly bool) ([]models.BlogPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.BlogPost, 0, len(s.blogPosts))
	for _, p := range s.blogPosts {
		if publishedOnly && !p.Published {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemStore) GetBlogPostBySlug(_ context.Context, slug string) (*models.BlogPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.blogPosts {
		if p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemStore) UpdateBlogPost(_ context.Context, p *models.BlogPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blogPosts[p.ID]; !ok {
		return ErrNotFound
	}
	cp := *p
	cp.UpdatedAt = time.Now().UTC()
	s.blogPosts[p.ID] = &cp
	return nil
}

func (s *MemStore) DeleteBlogPost(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blogPosts[id]; !ok {
		return ErrNotFound
	}
	delete(s.blogPosts, id)
	return nil
}

func (s *MemStore) CreateCause(_ context.Context, c *models.Cause) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.causes[c.ID] = &cp
	return nil
}

func (s *MemStore) GetCauses(_ context.Context, activeOnly bool) ([]models.Cause, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Cause, 0, len(s.causes))
	for _, c := range s.causes {
		if activeOnly && !c.Active {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemStore) GetCauseBySlug(_ context.Context, slug string) (*models.Cause, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.causes {
		if c.Slug == slug {
			cp := *c
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemStore) UpdateCause(_ context.Context, c *models.Cause) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.causes[c.ID]; !ok {
		return ErrNotFound
	}
	cp := *c
	cp.UpdatedAt = time.Now().UTC()
	s.causes[c.ID] = &cp
	return nil
}

func (s *MemStore) DeleteCause(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.causes[id]; !ok {
		return ErrNotFound
	}
	delete(s.causes, id)
	return nil
}

func (s *MemStore) CreateTeamMember(_ context.Context, m *models.TeamMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	s.teamMembers[m.ID] = &cp
	return nil
}

func (s *MemStore) GetTeamMembers(_ context.Context) ([]models.TeamMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.TeamMember, 0, len(s.teamMembers))
	for _, m := range s.teamMembers {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (s *MemStore) DeleteTeamMember(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teamMembers[id]; !ok {
		return ErrNotFound
	}
	delete(s.teamMembers, id)
	return nil
}

func (s *MemStore) CreateGalleryImage(_ context.Context, g *models.GalleryImage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *g
	s.gallery[g.ID] = &cp
	return nil
}

func (s *MemStore) GetGalleryImages(_ context.Context) ([]models.GalleryImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.GalleryImage, 0, len(s.gallery))
	for _, g := range s.gallery {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemStore) DeleteGalleryImage(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.gallery[id]; !ok {
		return ErrNotFound
	}
	delete(s.gallery, id)
	return nil
}

// ---- community ----

func (s *MemStore) CreateContactMessage(_ context.Context, m *models.ContactMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	s.messages[m.ID] = &cp
	return nil
}

func (s *MemStore) GetContactMessages(_ context.Context) ([]models.ContactMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ContactMessage, 0, len(s.messages))
	for _, m := range s.messages {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemStore) MarkContactMessageRead(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return ErrNotFound
	}
	m.Read = true
	return nil
}

func (s *MemStore) SubscribeNewsletter(_ context.Context, email string) (*models.NewsletterSubscriber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(email)
	if sub, ok := s.subscribers[key]; ok {
		cp := *sub
		return &cp, nil
	}
	sub := &models.NewsletterSubscriber{
		ID:        newID(),
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
	s.subscribers[key] = sub
	cp := *sub
	return &cp, nil
}

func (s *MemStore) CreateVolunteer(_ context.Context, v *models.Volunteer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *v
	s.volunteers[v.ID] = &cp
	return nil
}

func (s *MemStore) GetVolunteers(_ context.Context) ([]models.Volunteer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Volunteer, 0, len(s.volunteers))
	for _, v := range s.volunteers {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ---- users ----

func (s *MemStore) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return ErrDuplicate
		}
	}
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *MemStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

// ---- dashboard ----

func (s *MemStore) GetDashboardStats(_ context.Context) (*DashboardStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := &DashboardStats{
		TotalEvents:        int64(len(s.events)),
		TotalRegistrations: int64(len(s.registrations)),
		TotalDonations:     int64(len(s.donations)),
		TotalVolunteers:    int64(len(s.volunteers)),
	}
	for _, d := range s.donations {
		if d.Status == models.PaymentStatusCompleted {
			stats.DonationsCompleted++
			stats.DonationTotal += d.Amount
		}
	}
	for _, m := range s.messages {
		if !m.Read {
			stats.UnreadMessages++
		}
	}
	regs := make([]models.EventRegistration, 0, len(s.registrations))
	for _, r := range s.registrations {
		regs = append(regs, *r)
	}
	sort.Slice(regs, func(i, j int) bool { return regs[i].CreatedAt.After(regs[j].CreatedAt) })
	if len(regs) > 10 {
		regs = regs[:10]
	}
	stats.RecentRegistrations = regs
	return stats, nil
}
