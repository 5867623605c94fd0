package backend

import "time"

// User is the identity record owned by the backend. Roles are ordered;
// position 0 is the primary role for display.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Roles     []string  `json:"roles"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Event statuses as reported by the backend.
const (
	EventStatusDraft     = "draft"
	EventStatusPending   = "pending"
	EventStatusApproved  = "approved"
	EventStatusPublished = "published"
	EventStatusCancelled = "cancelled"
)

// Event is an event record owned by the backend.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Venue       string    `json:"venue"`
	Category    string    `json:"category"`
	Capacity    int       `json:"capacity"`
	Status      string    `json:"status"`
	StartsAt    time.Time `json:"startsAt"`
	EndsAt      time.Time `json:"endsAt"`
	OrganizerID string    `json:"organizerId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// EventStats aggregates event counts for the dashboard summary.
type EventStats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Approved  int `json:"approved"`
	Published int `json:"published"`
	Cancelled int `json:"cancelled"`
}

// UserStats aggregates account counts for the dashboard summary.
type UserStats struct {
	Total      int `json:"total"`
	Active     int `json:"active"`
	Organizers int `json:"organizers"`
	Admins     int `json:"admins"`
}
