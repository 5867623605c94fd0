package backend

import (
	"context"
	"net/url"
	"strconv"
)

// UserFilter narrows account listings.
type UserFilter struct {
	Role    string
	Search  string
	Page    int
	PerPage int
}

// UserList is a paginated account listing.
type UserList struct {
	Users   []User `json:"users"`
	Total   int    `json:"total"`
	Page    int    `json:"page"`
	PerPage int    `json:"perPage"`
}

// UserPatch carries partial account updates; nil fields are left untouched.
type UserPatch struct {
	Name     *string   `json:"name,omitempty"`
	Roles    *[]string `json:"roles,omitempty"`
	IsActive *bool     `json:"isActive,omitempty"`
}

// ListUsers fetches a page of accounts.
func (c *Client) ListUsers(ctx context.Context, ts TokenSource, filter UserFilter) (*UserList, error) {
	query := url.Values{}
	if filter.Role != "" {
		query.Set("role", filter.Role)
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
	var out UserList
	if err := c.get(ctx, "/api/v1/admin/users", ts, query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetUser fetches one account by ID.
func (c *Client) GetUser(ctx context.Context, ts TokenSource, id string) (*User, error) {
	var out User
	if err := c.do(ctx, "GET", "/api/v1/admin/users/"+url.PathEscape(id), ts, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PatchUser applies a partial update and returns the reconciled record.
func (c *Client) PatchUser(ctx context.Context, ts TokenSource, id string, patch UserPatch) (*User, error) {
	var out User
	if err := c.do(ctx, "PATCH", "/api/v1/admin/users/"+url.PathEscape(id), ts, patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UserStats fetches the account counters for the dashboard.
func (c *Client) UserStats(ctx context.Context, ts TokenSource) (*UserStats, error) {
	var out UserStats
	if err := c.do(ctx, "GET", "/api/v1/admin/users/stats", ts, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
