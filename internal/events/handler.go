// Package events serves the event management screens. Every mutation is
// relayed to the backend; the screens render whatever the backend reports
// back, with an optimistic flash on success.
package events

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

// API is the slice of the backend client the event screens depend on.
type API interface {
	ListEvents(ctx context.Context, ts backend.TokenSource, filter backend.EventFilter) (*backend.EventList, error)
	GetEvent(ctx context.Context, ts backend.TokenSource, id string) (*backend.Event, error)
	CreateEvent(ctx context.Context, ts backend.TokenSource, input backend.EventInput) (*backend.Event, error)
	UpdateEvent(ctx context.Context, ts backend.TokenSource, id string, input backend.EventInput) (*backend.Event, error)
	DeleteEvent(ctx context.Context, ts backend.TokenSource, id string) error
	ApproveEvent(ctx context.Context, ts backend.TokenSource, id string) (*backend.Event, error)
	PublishEvent(ctx context.Context, ts backend.TokenSource, id string) (*backend.Event, error)
	DeclineEvent(ctx context.Context, ts backend.TokenSource, id string) (*backend.Event, error)
}

// Handler manages event endpoints.
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

// MountRoutes registers event routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireAny(authz.PermEventsView))
		r.Get("/", h.listEvents)
		r.Get("/{id}", h.showEvent)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireAny(authz.PermEventsCreate))
		r.Get("/new", h.showCreateForm)
		r.Post("/", h.createEvent)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireAny(authz.PermEventsUpdate))
		r.Get("/{id}/edit", h.showEditForm)
		r.Post("/{id}", h.updateEvent)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireAny(authz.PermEventsDelete))
		r.Post("/{id}/delete", h.deleteEvent)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireAny(authz.PermEventsApprove))
		r.Post("/{id}/approve", h.approveEvent)
		r.Post("/{id}/decline", h.declineEvent)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireAny(authz.PermEventsPublish))
		r.Post("/{id}/publish", h.publishEvent)
	})
}

type formErrors map[string]string

type listPageData struct {
	Events     []backend.Event
	Filter     backend.EventFilter
	Statuses   []string
	Pagination shared.Pagination
	Errors     formErrors
}

type detailPageData struct {
	Event  *backend.Event
	Errors formErrors
}

type formPageData struct {
	EventID string
	Form    EventForm
	Errors  formErrors
}

func (h *Handler) listEvents(w http.ResponseWriter, r *http.Request) {
	filter := backend.EventFilter{
		Status:  r.URL.Query().Get("status"),
		Search:  r.URL.Query().Get("q"),
		PerPage: 20,
	}
	if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && page > 0 {
		filter.Page = page
	}

	data := listPageData{
		Filter: filter,
		Statuses: []string{
			backend.EventStatusDraft,
			backend.EventStatusPending,
			backend.EventStatusApproved,
			backend.EventStatusPublished,
			backend.EventStatusCancelled,
		},
		Errors: formErrors{},
	}

	list, err := h.api.ListEvents(r.Context(), h.tokens(r), filter)
	if err != nil {
		h.logger.Error("list events", slog.Any("error", err))
		data.Errors["general"] = errorMessage(err)
		h.render(w, r, "pages/events/list.html", "Events", data, http.StatusOK)
		return
	}
	data.Events = list.Events
	data.Pagination = shared.NewPagination(list.Page, list.PerPage, list.Total)
	h.render(w, r, "pages/events/list.html", "Events", data, http.StatusOK)
}

func (h *Handler) showEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.api.GetEvent(r.Context(), h.tokens(r), chi.URLParam(r, "id"))
	if err != nil {
		if backend.IsNotFound(err) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("get event", slog.Any("error", err))
		h.redirectWithFlash(w, r, "/events", "error", errorMessage(err))
		return
	}
	h.render(w, r, "pages/events/detail.html", event.Title, detailPageData{Event: event, Errors: formErrors{}}, http.StatusOK)
}

func (h *Handler) showCreateForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/events/form.html", "New event", formPageData{Form: EventForm{Capacity: 100}, Errors: formErrors{}}, http.StatusOK)
}

func (h *Handler) createEvent(w http.ResponseWriter, r *http.Request) {
	form, errors := h.parseForm(r)
	if len(errors) > 0 {
		h.render(w, r, "pages/events/form.html", "New event", formPageData{Form: form, Errors: errors}, http.StatusBadRequest)
		return
	}
	input, err := form.Input()
	if err != nil {
		errors["StartsAt"] = "Enter a valid date and time."
		h.render(w, r, "pages/events/form.html", "New event", formPageData{Form: form, Errors: errors}, http.StatusBadRequest)
		return
	}

	event, err := h.api.CreateEvent(r.Context(), h.tokens(r), input)
	if err != nil {
		h.logger.Error("create event", slog.Any("error", err))
		errors["general"] = errorMessage(err)
		h.render(w, r, "pages/events/form.html", "New event", formPageData{Form: form, Errors: errors}, http.StatusBadRequest)
		return
	}
	h.redirectWithFlash(w, r, "/events/"+event.ID, "success", "Event created")
}

func (h *Handler) showEditForm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	event, err := h.api.GetEvent(r.Context(), h.tokens(r), id)
	if err != nil {
		if backend.IsNotFound(err) {
			http.NotFound(w, r)
			return
		}
		h.redirectWithFlash(w, r, "/events", "error", errorMessage(err))
		return
	}
	h.render(w, r, "pages/events/form.html", "Edit event", formPageData{EventID: id, Form: formFromEvent(event), Errors: formErrors{}}, http.StatusOK)
}

func (h *Handler) updateEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	form, errors := h.parseForm(r)
	if len(errors) > 0 {
		h.render(w, r, "pages/events/form.html", "Edit event", formPageData{EventID: id, Form: form, Errors: errors}, http.StatusBadRequest)
		return
	}
	input, err := form.Input()
	if err != nil {
		errors["StartsAt"] = "Enter a valid date and time."
		h.render(w, r, "pages/events/form.html", "Edit event", formPageData{EventID: id, Form: form, Errors: errors}, http.StatusBadRequest)
		return
	}

	if _, err := h.api.UpdateEvent(r.Context(), h.tokens(r), id, input); err != nil {
		h.logger.Error("update event", slog.Any("error", err))
		errors["general"] = errorMessage(err)
		h.render(w, r, "pages/events/form.html", "Edit event", formPageData{EventID: id, Form: form, Errors: errors}, http.StatusBadRequest)
		return
	}
	h.redirectWithFlash(w, r, "/events/"+id, "success", "Event updated")
}

func (h *Handler) deleteEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.api.DeleteEvent(r.Context(), h.tokens(r), id); err != nil {
		h.logger.Error("delete event", slog.Any("error", err))
		h.redirectWithFlash(w, r, "/events/"+id, "error", errorMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/events", "success", "Event deleted")
}

func (h *Handler) approveEvent(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "approve", h.api.ApproveEvent, "Event approved")
}

func (h *Handler) publishEvent(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "publish", h.api.PublishEvent, "Event published")
}

func (h *Handler) declineEvent(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "decline", h.api.DeclineEvent, "Event declined")
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, action string, call func(context.Context, backend.TokenSource, string) (*backend.Event, error), success string) {
	id := chi.URLParam(r, "id")
	if _, err := call(r.Context(), h.tokens(r), id); err != nil {
		h.logger.Error(action+" event", slog.String("id", id), slog.Any("error", err))
		h.redirectWithFlash(w, r, "/events/"+id, "error", errorMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/events/"+id, "success", success)
}

func (h *Handler) parseForm(r *http.Request) (EventForm, formErrors) {
	errors := make(formErrors)
	if err := r.ParseForm(); err != nil {
		errors["general"] = "Invalid form submission."
		return EventForm{}, errors
	}
	capacity, _ := strconv.Atoi(r.PostFormValue("capacity"))
	form := EventForm{
		Title:       r.PostFormValue("title"),
		Description: r.PostFormValue("description"),
		Venue:       r.PostFormValue("venue"),
		Category:    r.PostFormValue("category"),
		Capacity:    capacity,
		StartsAt:    r.PostFormValue("starts_at"),
		EndsAt:      r.PostFormValue("ends_at"),
	}
	if err := h.validator.Struct(form); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			errors[fieldErr.Field()] = "Invalid value."
		}
	}
	return form, errors
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
