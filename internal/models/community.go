package models

import "time"

type User struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"size:255" json:"name"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	Admin     bool      `json:"admin"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ContactMessage struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;not null" json:"email"`
	Subject   string    `gorm:"size:255" json:"subject,omitempty"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	Read      bool      `gorm:"index" json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

type NewsletterSubscriber struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type Volunteer struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	FirstName  string    `gorm:"size:128;not null" json:"firstName"`
	LastName   string    `gorm:"size:128;not null" json:"lastName"`
	Email      string    `gorm:"size:255;not null" json:"email"`
	Phone      string    `gorm:"size:32" json:"phone,omitempty"`
	Interests  string    `gorm:"size:512" json:"interests,omitempty"`
	Motivation string    `gorm:"type:text" json:"motivation,omitempty"`
	Status     string    `gorm:"size:16;index" json:"status"` // NEW, CONTACTED, ACTIVE
	CreatedAt  time.Time `json:"createdAt"`
}
