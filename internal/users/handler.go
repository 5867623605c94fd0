// Package users serves the account administration screens: listing, role
// assignment, activation and profile edits. All writes relay to the backend
// as PATCH updates and render the reconciled record.
package users

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/eventdesk/eventdesk/internal/authz"
	"github.com/eventdesk/eventdesk/internal/backend"
	"github.com/eventdesk/eventdesk/internal/shared"
	"github.com/eventdesk/eventdesk/internal/token"
	"github.com/eventdesk/eventdesk/internal/view"
)

// API is the slice of the backend client the account screens depend on.
type API interface {
	ListUsers(ctx context.Context, ts backend.TokenSource, filter backend.UserFilter) (*backend.UserList, error)
	GetUser(ctx context.Context, ts backend.TokenSource, id string) (*backend.User, error)
	PatchUser(ctx context.Context, ts backend.TokenSource, id string, patch backend.UserPatch) (*backend.User, error)
}

// Handler manages user management endpoints.
type Handler struct {
	logger    *slog.Logger
	api       API
	policy    *authz.Policy
	templates *view.Engine
	csrf      *shared.CSRFManager
	authz     authz.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, api API, policy *authz.Policy, templates *view.Engine, csrf *shared.CSRFManager, mw authz.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		api:       api,
		policy:    policy,
		templates: templates,
		csrf:      csrf,
		authz:     mw,
		validator: validator.New(),
	}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireAny(authz.PermUsersView))
		r.Get("/", h.listUsers)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireAny(authz.PermUsersManage))
		r.Get("/{id}/edit", h.showEditForm)
		r.Post("/{id}", h.updateUser)
	})
}

type formErrors map[string]string

// UserForm carries the raw form values for the edit screen.
type UserForm struct {
	Name     string   `validate:"required,min=2,max=100"`
	Roles    []string `validate:"required,min=1"`
	IsActive bool
}

type listPageData struct {
	Users      []backend.User
	Filter     backend.UserFilter
	Roles      []authz.Role
	Pagination shared.Pagination
	Errors     formErrors
}

type formPageData struct {
	UserID   string
	Form     UserForm
	AllRoles []authz.Role
	Errors   formErrors
}

// HasRole reports whether the form currently carries role; templates use it
// to pre-check role boxes.
func (d formPageData) HasRole(role authz.Role) bool {
	for _, r := range d.Form.Roles {
		if r == string(role) {
			return true
		}
	}
	return false
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	filter := backend.UserFilter{
		Role:    r.URL.Query().Get("role"),
		Search:  r.URL.Query().Get("q"),
		PerPage: 20,
	}
	if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && page > 0 {
		filter.Page = page
	}

	data := listPageData{Filter: filter, Roles: authz.AllRoles(), Errors: formErrors{}}

	list, err := h.api.ListUsers(r.Context(), h.tokens(r), filter)
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		data.Errors["general"] = errorMessage(err)
		h.render(w, r, "pages/users/list.html", "Users", data, http.StatusOK)
		return
	}
	data.Users = list.Users
	data.Pagination = shared.NewPagination(list.Page, list.PerPage, list.Total)
	h.render(w, r, "pages/users/list.html", "Users", data, http.StatusOK)
}

func (h *Handler) showEditForm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	user, err := h.api.GetUser(r.Context(), h.tokens(r), id)
	if err != nil {
		if backend.IsNotFound(err) {
			http.NotFound(w, r)
			return
		}
		h.redirectWithFlash(w, r, "/users", "error", errorMessage(err))
		return
	}
	data := formPageData{
		UserID:   id,
		Form:     UserForm{Name: user.Name, Roles: user.Roles, IsActive: user.IsActive},
		AllRoles: authz.AllRoles(),
		Errors:   formErrors{},
	}
	h.render(w, r, "pages/users/form.html", "Edit user", data, http.StatusOK)
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	form := UserForm{
		Name:     r.PostFormValue("name"),
		Roles:    normalizeRoles(r.PostForm["roles"]),
		IsActive: r.PostFormValue("is_active") == "1",
	}

	errors := make(formErrors)
	if err := h.validator.Struct(form); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			if fieldErr.Field() == "Roles" {
				errors["Roles"] = "Select at least one role."
			} else {
				errors[fieldErr.Field()] = "Invalid value."
			}
		}
	}
	if len(errors) > 0 {
		data := formPageData{UserID: id, Form: form, AllRoles: authz.AllRoles(), Errors: errors}
		h.render(w, r, "pages/users/form.html", "Edit user", data, http.StatusBadRequest)
		return
	}

	patch := backend.UserPatch{
		Name:     &form.Name,
		Roles:    &form.Roles,
		IsActive: &form.IsActive,
	}
	if _, err := h.api.PatchUser(r.Context(), h.tokens(r), id, patch); err != nil {
		h.logger.Error("patch user", slog.String("id", id), slog.Any("error", err))
		data := formPageData{UserID: id, Form: form, AllRoles: authz.AllRoles(), Errors: formErrors{"general": errorMessage(err)}}
		h.render(w, r, "pages/users/form.html", "Edit user", data, http.StatusBadRequest)
		return
	}
	h.redirectWithFlash(w, r, "/users", "success", "User updated")
}

// normalizeRoles drops labels outside the closed role set while preserving
// submission order; position 0 stays the primary role.
func normalizeRoles(labels []string) []string {
	known := make(map[string]struct{}, len(authz.AllRoles()))
	for _, r := range authz.AllRoles() {
		known[string(r)] = struct{}{}
	}
	var roles []string
	for _, l := range labels {
		if _, ok := known[l]; ok {
			roles = append(roles, l)
		}
	}
	return roles
}

func (h *Handler) tokens(r *http.Request) *token.Manager {
	return token.NewManager(shared.SessionFromContext(r.Context()))
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template, title string, data any, status int) {
	viewData := view.BuildData(r, h.csrf, h.policy, title, data)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render template", slog.String("template", template), slog.Any("error", err))
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

func errorMessage(err error) string {
	var apiErr *backend.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return shared.UserSafeMessage(err)
}
