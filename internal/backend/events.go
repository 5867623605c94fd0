package backend

import (
	"context"
	"net/url"
	"strconv"
	"time"
)

// EventFilter narrows event listings.
type EventFilter struct {
	Status  string
	Search  string
	Page    int
	PerPage int
}

// EventList is a paginated event listing.
type EventList struct {
	Events  []Event `json:"events"`
	Total   int     `json:"total"`
	Page    int     `json:"page"`
	PerPage int     `json:"perPage"`
}

// EventInput carries the writable event fields.
type EventInput struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Venue       string    `json:"venue"`
	Category    string    `json:"category"`
	Capacity    int       `json:"capacity"`
	StartsAt    time.Time `json:"startsAt"`
	EndsAt      time.Time `json:"endsAt"`
}

// ListEvents fetches a page of events.
func (c *Client) ListEvents(ctx context.Context, ts TokenSource, filter EventFilter) (*EventList, error) {
	query := url.Values{}
	if filter.Status != "" {
		query.Set("status", filter.Status)
	}
	if filter.Search != "" {
		query.Set("q", filter.Search)
	}
	if filter.Page > 0 {
		query.Set("page", strconv.Itoa(filter.Page))
	}
	if filter.PerPage > 0 {
		query.Set("perPage", strconv.Itoa(filter.PerPage))
	}
	var out EventList
	if err := c.get(ctx, "/api/v1/admin/events", ts, query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetEvent fetches one event by ID.
func (c *Client) GetEvent(ctx context.Context, ts TokenSource, id string) (*Event, error) {
	var out Event
	if err := c.do(ctx, "GET", "/api/v1/admin/events/"+url.PathEscape(id), ts, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateEvent creates a new event.
func (c *Client) CreateEvent(ctx context.Context, ts TokenSource, input EventInput) (*Event, error) {
	var out Event
	if err := c.do(ctx, "POST", "/api/v1/admin/events", ts, input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateEvent replaces an event's writable fields.
func (c *Client) UpdateEvent(ctx context.Context, ts TokenSource, id string, input EventInput) (*Event, error) {
	var out Event
	if err := c.do(ctx, "PUT", "/api/v1/admin/events/"+url.PathEscape(id), ts, input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteEvent removes an event.
func (c *Client) DeleteEvent(ctx context.Context, ts TokenSource, id string) error {
	return c.do(ctx, "DELETE", "/api/v1/admin/events/"+url.PathEscape(id), ts, nil, nil)
}

// ApproveEvent moves a pending event to approved.
func (c *Client) ApproveEvent(ctx context.Context, ts TokenSource, id string) (*Event, error) {
	var out Event
	if err := c.do(ctx, "POST", "/api/v1/admin/events/"+url.PathEscape(id)+"/approve", ts, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PublishEvent makes an approved event publicly visible.
func (c *Client) PublishEvent(ctx context.Context, ts TokenSource, id string) (*Event, error) {
	var out Event
	if err := c.do(ctx, "POST", "/api/v1/admin/events/"+url.PathEscape(id)+"/publish", ts, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeclineEvent marks an event cancelled. The backend exposes no dedicated
// decline endpoint; declining goes through the generic status update.
func (c *Client) DeclineEvent(ctx context.Context, ts TokenSource, id string) (*Event, error) {
	var out Event
	body := map[string]string{"status": EventStatusCancelled}
	if err := c.do(ctx, "PUT", "/api/v1/admin/events/"+url.PathEscape(id), ts, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EventStats fetches the event counters for the dashboard.
func (c *Client) EventStats(ctx context.Context, ts TokenSource) (*EventStats, error) {
	var out EventStats
	if err := c.do(ctx, "GET", "/api/v1/admin/events/stats", ts, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
