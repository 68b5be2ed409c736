package storage

import (
	"time"
)

// Check outcome values stored in PageCheck.Status.
const (
	StatusUp   = "up"
	StatusDown = "down"
)

// User owns websites. Only the bcrypt hash of the password is stored.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Websites []Website `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// Website is a named group of monitored pages belonging to one user.
type Website struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	BaseURL   *string   `gorm:"size:2048" json:"base_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Pages []Page `gorm:"constraint:OnDelete:CASCADE" json:"pages,omitempty"`
}

// Page is a single monitored URL.
//
// IsUp, LastCheckedAt, LastStatusCode and LastResponseTimeMs are a cache of
// the most recent PageCheck and are only written by RecordCheck.
type Page struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	WebsiteID          uint       `gorm:"not null;index" json:"website_id"`
	URL                string     `gorm:"size:2048;not null" json:"url"`
	IsUp               bool       `gorm:"not null;default:false" json:"is_up"`
	LastCheckedAt      *time.Time `json:"last_checked_at"`
	LastStatusCode     *int       `json:"last_status_code"`
	LastResponseTimeMs *int       `json:"last_response_time_ms"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`

	Checks []PageCheck `gorm:"constraint:OnDelete:CASCADE" json:"checks,omitempty"`
}

// PageCheck is one immutable probe result.
//
// WebsiteID is copied from the page at record time so per-website history
// can be read without a join. StatusCode and ResponseTimeMs are either both
// set (a response was received) or both nil (transport failure).
type PageCheck struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	PageID         uint      `gorm:"not null;index" json:"page_id"`
	WebsiteID      uint      `gorm:"not null;index" json:"website_id"`
	Status         string    `gorm:"size:10;not null" json:"status"`
	StatusCode     *int      `json:"status_code"`
	ResponseTimeMs *int      `json:"response_time_ms"`
	CheckedAt      time.Time `gorm:"not null" json:"checked_at"`
}

// WebsiteStats holds the page aggregates of a website, computed on read.
type WebsiteStats struct {
	PagesUpCount    int64 `json:"pages_up_count"`
	PagesDownCount  int64 `json:"pages_down_count"`
	TotalPagesCount int64 `json:"total_pages_count"`
	IsHealthy       bool  `json:"is_healthy"`
}

// WebsiteWithStats is a website together with its derived aggregates.
type WebsiteWithStats struct {
	Website
	WebsiteStats
}

// allModels lists every model handled by AutoMigrate, parents first.
func allModels() []any {
	return []any{
		&User{},
		&Website{},
		&Page{},
		&PageCheck{},
	}
}
