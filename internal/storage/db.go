package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"BACK_FPA_GO/internal/models"
)

// GormStore is the postgres-backed Storage.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Event{},
		&models.EventRegistration{},
		&models.Donation{},
		&models.WebhookEvent{},
		&models.PaymentGatewayStatus{},
		&models.PaymentGatewayConfig{},
		&models.BlogPost{},
		&models.Cause{},
		&models.TeamMember{},
		&models.GalleryImage{},
		&models.ContactMessage{},
		&models.NewsletterSubscriber{},
		&models.Volunteer{},
	); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}

// ---- events ----

func (s *GormStore) CreateEvent(ctx context.Context, e *models.Event) error {
	return translate(s.db.WithContext(ctx).Create(e).Error)
}

func (s *GormStore) GetEvents(ctx context.Context) ([]models.Event, error) {
	var out []models.Event
	err := s.db.WithContext(ctx).Order("starts_at desc").Find(&out).Error
	return out, translate(err)
}

func (s *GormStore) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	var e models.Event
	if err := s.db.WithContext(ctx).First(&e, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &e, nil
}

func (s *GormStore) GetEventBySlug(ctx context.Context, slug string) (*models.Event, error) {
	var e models.Event
	if err := s.db.WithContext(ctx).First(&e, "slug = ?", slug).Error; err != nil {
		return nil, translate(err)
	}
	return &e, nil
}

func (s *GormStore) UpdateEvent(ctx context.Context, e *models.Event) error {
	res := s.db.WithContext(ctx).Model(&models.Event{}).Where("id = ?", e.ID).Updates(e)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) DeleteEvent(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.Event{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ReserveEventSlot is a single conditional update so two concurrent
// registrations cannot oversell the last seat. MaxParticipants <= 0 means
// unlimited capacity.
func (s *GormStore) ReserveEventSlot(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Model(&models.Event{}).
		Where("id = ? AND (max_participants <= 0 OR registered_count < max_participants)", id).
		UpdateColumn("registered_count", gorm.Expr("registered_count + 1"))
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := s.GetEvent(ctx, id); err != nil {
			return err
		}
		return ErrEventFull
	}
	return nil
}

func (s *GormStore) ReleaseEventSlot(ctx context.Context, id string) error {
	return translate(s.db.WithContext(ctx).Model(&models.Event{}).
		Where("id = ? AND registered_count > 0", id).
		UpdateColumn("registered_count", gorm.Expr("registered_count - 1")).Error)
}

// ---- registrations ----

func (s *GormStore) CreateRegistration(ctx context.Context, r *models.EventRegistration) error {
	return translate(s.db.WithContext(ctx).Create(r).Error)
}

func (s *GormStore) GetRegistration(ctx context.Context, id string) (*models.EventRegistration, error) {
	var r models.EventRegistration
	if err := s.db.WithContext(ctx).First(&r, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

func (s *GormStore) GetRegistrationByReference(ctx context.Context, ref string) (*models.EventRegistration, error) {
	var r models.EventRegistration
	if err := s.db.WithContext(ctx).First(&r, "payment_reference = ?", ref).Error; err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

// UpdateRegistrationPayment only matches rows still pending, so terminal
// records are never rewritten even under concurrent callbacks.
func (s *GormStore) UpdateRegistrationPayment(ctx context.Context, id string, status models.PaymentStatus, reference string) error {
	updates := map[string]interface{}{"payment_status": status, "updated_at": time.Now().UTC()}
	if reference != "" {
		updates["payment_reference"] = reference
	}
	res := s.db.WithContext(ctx).Model(&models.EventRegistration{}).
		Where("id = ? AND payment_status = ?", id, models.PaymentStatusPending).
		Updates(updates)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		r, err := s.GetRegistration(ctx, id)
		if err != nil {
			return err
		}
		if r.PaymentStatus.Terminal() {
			return ErrTerminalStatus
		}
		return ErrNotFound
	}
	return nil
}

// ---- donations ----

func (s *GormStore) CreateDonation(ctx context.Context, d *models.Donation) error {
	return translate(s.db.WithContext(ctx).Create(d).Error)
}

func (s *GormStore) GetDonations(ctx context.Context) ([]models.Donation, error) {
	var out []models.Donation
	err := s.db.WithContext(ctx).Order("created_at desc").Find(&out).Error
	return out, translate(err)
}

func (s *GormStore) GetDonation(ctx context.Context, id string) (*models.Donation, error) {
	var d models.Donation
	if err := s.db.WithContext(ctx).First(&d, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

func (s *GormStore) GetDonationByTransactionID(ctx context.Context, txID string) (*models.Donation, error) {
	var d models.Donation
	if err := s.db.WithContext(ctx).First(&d, "transaction_id = ?", txID).Error; err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

func (s *GormStore) UpdateDonationStatus(ctx context.Context, id string, status models.PaymentStatus, txID string) error {
	updates := map[string]interface{}{"status": status, "updated_at": time.Now().UTC()}
	if txID != "" {
		updates["transaction_id"] = txID
	}
	res := s.db.WithContext(ctx).Model(&models.Donation{}).
		Where("id = ? AND status = ?", id, models.PaymentStatusPending).
		Updates(updates)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		d, err := s.GetDonation(ctx, id)
		if err != nil {
			return err
		}
		if d.Status.Terminal() {
			return ErrTerminalStatus
		}
		return ErrNotFound
	}
	return nil
}

// ---- webhook dedupe ----

func (s *GormStore) RecordWebhookEvent(ctx context.Context, e *models.WebhookEvent) error {
	if e.ProcessedAt.IsZero() {
		e.ProcessedAt = time.Now().UTC()
	}
	return translate(s.db.WithContext(ctx).Create(e).Error)
}

// ---- gateway switches ----

func (s *GormStore) GetGatewayStatus(ctx context.Context, gw models.Gateway) (*models.PaymentGatewayStatus, error) {
	var st models.PaymentGatewayStatus
	if err := s.db.WithContext(ctx).First(&st, "gateway = ?", gw).Error; err != nil {
		return nil, translate(err)
	}
	return &st, nil
}

func (s *GormStore) UpsertGatewayStatus(ctx context.Context, st *models.PaymentGatewayStatus) error {
	st.UpdatedAt = time.Now().UTC()
	return translate(s.db.WithContext(ctx).Save(st).Error)
}

func (s *GormStore) GetGatewayConfig(ctx context.Context, gw models.Gateway) (*models.PaymentGatewayConfig, error) {
	var c models.PaymentGatewayConfig
	if err := s.db.WithContext(ctx).First(&c, "gateway = ?", gw).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *GormStore) UpsertGatewayConfig(ctx context.Context, c *models.PaymentGatewayConfig) error {
	c.UpdatedAt = time.Now().UTC()
	return translate(s.db.WithContext(ctx).Save(c).Error)
}

// ---- content ----

func (s *GormStore) CreateBlogPost(ctx context.Context, p *models.BlogPost) error {
	return translate(s.db.WithContext(ctx).Create(p).Error)
}

func (s *GormStore) GetBlogPosts(ctx context.Context, publishedOnly bool) ([]models.BlogPost, error) {
	var out []models.BlogPost
	q := s.db.WithContext(ctx).Order("created_at desc")
	if publishedOnly {
		q = q.Where("published = ?", true)
	}
	return out, translate(q.Find(&out).Error)
}

func (s *GormStore) GetBlogPostBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	var p models.BlogPost
	if err := s.db.WithContext(ctx).First(&p, "slug = ?", slug).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *GormStore) UpdateBlogPost(ctx context.Context, p *models.BlogPost) error {
	res := s.db.WithContext(ctx).Model(&models.BlogPost{}).Where("id = ?", p.ID).Updates(p)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) DeleteBlogPost(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.BlogPost{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) CreateCause(ctx context.Context, c *models.Cause) error {
	return translate(s.db.WithContext(ctx).Create(c).Error)
}

func (s *GormStore) GetCauses(ctx context.Context, activeOnly bool) ([]models.Cause, error) {
	var out []models.Cause
	q := s.db.WithContext(ctx).Order("created_at desc")
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	return out, translate(q.Find(&out).Error)
}

func (s *GormStore) GetCauseBySlug(ctx context.Context, slug string) (*models.Cause, error) {
	var c models.Cause
	if err := s.db.WithContext(ctx).First(&c, "slug = ?", slug).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *GormStore) UpdateCause(ctx context.Context, c *models.Cause) error {
	res := s.db.WithContext(ctx).Model(&models.Cause{}).Where("id = ?", c.ID).Updates(c)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) DeleteCause(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.Cause{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) CreateTeamMember(ctx context.Context, m *models.TeamMember) error {
	return translate(s.db.WithContext(ctx).Create(m).Error)
}

func (s *GormStore) GetTeamMembers(ctx context.Context) ([]models.TeamMember, error) {
	var out []models.TeamMember
	err := s.db.WithContext(ctx).Order("sort_order asc").Find(&out).Error
	return out, translate(err)
}

func (s *GormStore) DeleteTeamMember(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.TeamMember{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) CreateGalleryImage(ctx context.Context, g *models.GalleryImage) error {
	return translate(s.db.WithContext(ctx).Create(g).Error)
}

func (s *GormStore) GetGalleryImages(ctx context.Context) ([]models.GalleryImage, error) {
	var out []models.GalleryImage
	err := s.db.WithContext(ctx).Order("created_at desc").Find(&out).Error
	return out, translate(err)
}

func (s *GormStore) DeleteGalleryImage(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.GalleryImage{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ---- community ----

func (s *GormStore) CreateContactMessage(ctx context.Context, m *models.ContactMessage) error {
	return translate(s.db.WithContext(ctx).Create(m).Error)
}

func (s *GormStore) GetContactMessages(ctx context.Context) ([]models.ContactMessage, error) {
	var out []models.ContactMessage
	err := s.db.WithContext(ctx).Order("created_at desc").Find(&out).Error
	return out, translate(err)
}

func (s *GormStore) MarkContactMessageRead(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Model(&models.ContactMessage{}).
		Where("id = ?", id).Update("read", true)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) SubscribeNewsletter(ctx context.Context, email string) (*models.NewsletterSubscriber, error) {
	var sub models.NewsletterSubscriber
	err := s.db.WithContext(ctx).
		Where(models.NewsletterSubscriber{Email: email}).
		Attrs(models.NewsletterSubscriber{ID: newID(), CreatedAt: time.Now().UTC()}).
		FirstOrCreate(&sub).Error
	if err != nil {
		return nil, translate(err)
	}
	return &sub, nil
}

func (s *GormStore) CreateVolunteer(ctx context.Context, v *models.Volunteer) error {
	return translate(s.db.WithContext(ctx).Create(v).Error)
}

func (s *GormStore) GetVolunteers(ctx context.Context) ([]models.Volunteer, error) {
	var out []models.Volunteer
	err := s.db.WithContext(ctx).Order("created_at desc").Find(&out).Error
	return out, translate(err)
}

// ---- users ----

func (s *GormStore) CreateUser(ctx context.Context, u *models.User) error {
	return translate(s.db.WithContext(ctx).Create(u).Error)
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "email = ?", email).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// ---- dashboard ----

func (s *GormStore) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	var stats DashboardStats
	db := s.db.WithContext(ctx)

	if err := db.Model(&models.Event{}).Count(&stats.TotalEvents).Error; err != nil {
		return nil, translate(err)
	}
	if err := db.Model(&models.EventRegistration{}).Count(&stats.TotalRegistrations).Error; err != nil {
		return nil, translate(err)
	}
	if err := db.Model(&models.Donation{}).Count(&stats.TotalDonations).Error; err != nil {
		return nil, translate(err)
	}
	if err := db.Model(&models.Donation{}).
		Where("status = ?", models.PaymentStatusCompleted).
		Count(&stats.DonationsCompleted).Error; err != nil {
		return nil, translate(err)
	}
	var total struct{ Total int64 }
	if err := db.Model(&models.Donation{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("status = ?", models.PaymentStatusCompleted).
		Scan(&total).Error; err != nil {
		return nil, translate(err)
	}
	stats.DonationTotal = total.Total
	if err := db.Model(&models.Volunteer{}).Count(&stats.TotalVolunteers).Error; err != nil {
		return nil, translate(err)
	}
	if err := db.Model(&models.ContactMessage{}).
		Where("read = ?", false).Count(&stats.UnreadMessages).Error; err != nil {
		return nil, translate(err)
	}
	if err := db.Order("created_at desc").Limit(10).
		Find(&stats.RecentRegistrations).Error; err != nil {
		return nil, translate(err)
	}
	return &stats, nil
}
