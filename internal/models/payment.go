package models

import "time"

// EventRegistration is one registrant (individual or organization) for one
// event. Exactly one of the individual/organization field sets is populated,
// matching Type; the handler layer enforces that before insert.
type EventRegistration struct {
	ID               string           `gorm:"primaryKey;size:36" json:"id"`
	EventID          string           `gorm:"size:36;index;not null" json:"eventId"`
	Type             RegistrationType `gorm:"size:16;not null" json:"registrationType"`
	FirstName        string           `gorm:"size:128" json:"firstName,omitempty"`
	LastName         string           `gorm:"size:128" json:"lastName,omitempty"`
	Email            string           `gorm:"size:255" json:"email,omitempty"`
	Phone            string           `gorm:"size:32" json:"phone,omitempty"`
	OrganizationName string           `gorm:"size:255" json:"organizationName,omitempty"`
	ContactPerson    string           `gorm:"size:255" json:"contactPerson,omitempty"`
	OrgEmail         string           `gorm:"size:255" json:"orgEmail,omitempty"`
	OrgPhone         string           `gorm:"size:32" json:"orgPhone,omitempty"`
	Amount           int64            `gorm:"not null" json:"amount"`
	Currency         string           `gorm:"size:8;not null" json:"currency"`
	Gateway          Gateway          `gorm:"size:16;not null" json:"gateway"`
	PaymentStatus    PaymentStatus    `gorm:"size:16;index;not null" json:"paymentStatus"`
	PaymentReference string           `gorm:"size:128;index" json:"paymentReference,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// Donation is a standalone contribution, not necessarily tied to an event.
type Donation struct {
	ID            string        `gorm:"primaryKey;size:36" json:"id"`
	DonorName     string        `gorm:"size:255" json:"donorName,omitempty"`
	DonorEmail    string        `gorm:"size:255" json:"donorEmail,omitempty"`
	Amount        int64         `gorm:"not null" json:"amount"`
	Currency      string        `gorm:"size:8;not null" json:"currency"`
	PaymentMethod Gateway       `gorm:"size:16;not null" json:"paymentMethod"`
	TransactionID string        `gorm:"size:128;index" json:"transactionId,omitempty"`
	Status        PaymentStatus `gorm:"size:16;index;not null" json:"status"`
	Anonymous     bool          `json:"anonymous"`
	Message       string        `gorm:"size:1024" json:"message,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// WebhookEvent records every gateway event already applied, so replays are
// detected before any state change.
type WebhookEvent struct {
	EventID     string    `gorm:"primaryKey;size:128" json:"eventId"`
	EventType   string    `gorm:"size:64;index" json:"eventType"`
	Gateway     Gateway   `gorm:"size:16" json:"gateway"`
	ProcessedAt time.Time `json:"processedAt"`
}

// PaymentGatewayStatus is the admin-editable live/maintenance switch read
// before any client-initiated payment attempt.
type PaymentGatewayStatus struct {
	Gateway   Gateway     `gorm:"primaryKey;size:16" json:"gateway"`
	Mode      GatewayMode `gorm:"size:16;not null" json:"mode"`
	Message   string      `gorm:"size:512" json:"message,omitempty"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// PaymentGatewayConfig holds per-gateway JSON-encoded credentials overriding
// the environment defaults.
type PaymentGatewayConfig struct {
	Gateway     Gateway   `gorm:"primaryKey;size:16" json:"gateway"`
	Credentials string    `gorm:"type:text" json:"credentials"`
	Sandbox     bool      `json:"sandbox"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
