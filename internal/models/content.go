package models

import "time"

type Event struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	Name            string    `gorm:"size:255;not null" json:"name"`
	Slug            string    `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Description     string    `gorm:"type:text" json:"description,omitempty"`
	Location        string    `gorm:"size:255" json:"location,omitempty"`
	ImageURL        string    `gorm:"size:512" json:"imageUrl,omitempty"`
	Fee             int64     `json:"fee"`
	Currency        string    `gorm:"size:8" json:"currency"`
	MaxParticipants int       `json:"maxParticipants"`
	RegisteredCount int       `json:"registeredCount"`
	StartsAt        time.Time `json:"startsAt"`
	EndsAt          time.Time `json:"endsAt"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type BlogPost struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Slug        string     `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Excerpt     string     `gorm:"size:1024" json:"excerpt,omitempty"`
	Body        string     `gorm:"type:text" json:"body"`
	Author      string     `gorm:"size:255" json:"author,omitempty"`
	ImageURL    string     `gorm:"size:512" json:"imageUrl,omitempty"`
	Published   bool       `gorm:"index" json:"published"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type Cause struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Title        string    `gorm:"size:255;not null" json:"title"`
	Slug         string    `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Description  string    `gorm:"type:text" json:"description,omitempty"`
	ImageURL     string    `gorm:"size:512" json:"imageUrl,omitempty"`
	TargetAmount int64     `json:"targetAmount"`
	RaisedAmount int64     `json:"raisedAmount"`
	Active       bool      `gorm:"index" json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type TeamMember struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Role      string    `gorm:"size:255" json:"role,omitempty"`
	Bio       string    `gorm:"type:text" json:"bio,omitempty"`
	ImageURL  string    `gorm:"size:512" json:"imageUrl,omitempty"`
	SortOrder int       `json:"sortOrder"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type GalleryImage struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Title     string    `gorm:"size:255" json:"title,omitempty"`
	URL       string    `gorm:"size:512;not null" json:"url"`
	Category  string    `gorm:"size:64;index" json:"category,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
