package account

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/eventdesk/eventdesk/internal/authz"
	"github.com/eventdesk/eventdesk/internal/backend"
	"github.com/eventdesk/eventdesk/internal/shared"
	"github.com/eventdesk/eventdesk/internal/token"
	"github.com/eventdesk/eventdesk/internal/view"
)

// Handler wires HTTP endpoints for authentication flows and the
// self-service profile screen.
type Handler struct {
	logger         *slog.Logger
	api            API
	policy         *authz.Policy
	templates      *view.Engine
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	authz          authz.Middleware
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, api API, policy *authz.Policy, templates *view.Engine, sessions *shared.SessionManager, csrf *shared.CSRFManager, mw authz.Middleware) *Handler {
	return &Handler{
		logger:         logger,
		api:            api,
		policy:         policy,
		templates:      templates,
		sessionManager: sessions,
		csrfManager:    csrf,
		authz:          mw,
		validator:      validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.showLogin)
	r.Post("/login", h.handleLogin)
	r.Get("/signup", h.showSignup)
	r.Post("/signup", h.handleSignup)
	r.Get("/verify", h.showVerify)
	r.Post("/verify", h.handleVerify)
	r.Post("/logout", h.handleLogout)
}

// MountProfileRoutes registers the signed-in user's own profile screen.
func (h *Handler) MountProfileRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireAny(authz.PermProfileUpdate))
		r.Get("/", h.showProfile)
		r.Post("/", h.updateProfile)
	})
}

// stateFor builds the per-request account state bound to this session.
func (h *Handler) stateFor(r *http.Request) *State {
	sess := shared.SessionFromContext(r.Context())
	return NewState(h.api, token.NewManager(sess))
}

type loginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
}

type signupForm struct {
	Name     string `validate:"required,min=2,max=100"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
}

type verifyForm struct {
	Code           string `validate:"required,min=4"`
	RegistrationID string `validate:"required"`
}

type formErrors map[string]string

type loginPageData struct {
	Form   loginForm
	Errors formErrors
}

type signupPageData struct {
	Form   signupForm
	Errors formErrors
}

type verifyPageData struct {
	Form   verifyForm
	Errors formErrors
}

type profileForm struct {
	Name string `validate:"required,min=2,max=100"`
}

type profilePageData struct {
	Form   profileForm
	Email  string
	Errors formErrors
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/login.html", "Sign in", loginPageData{Errors: formErrors{}}, http.StatusOK)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := loginForm{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	errors := h.validate(form)

	if len(errors) == 0 {
		state := h.stateFor(r)
		if err := state.Login(r.Context(), form.Email, form.Password); err == nil {
			h.redirectWithFlash(w, r, "/dashboard", "success", "Welcome back")
			return
		}
		// The failure message is in the session error slot now; the page
		// banner surfaces it.
	}

	h.render(w, r, "pages/login.html", "Sign in", loginPageData{Form: form, Errors: errors}, http.StatusBadRequest)
}

func (h *Handler) showSignup(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/signup.html", "Sign up", signupPageData{Errors: formErrors{}}, http.StatusOK)
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := signupForm{
		Name:     r.PostFormValue("name"),
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	errors := h.validate(form)

	if len(errors) == 0 {
		state := h.stateFor(r)
		registrationID, err := state.Signup(r.Context(), backend.SignupRequest{
			Name:     form.Name,
			Email:    form.Email,
			Password: form.Password,
		})
		if err == nil {
			h.render(w, r, "pages/verify.html", "Verify email", verifyPageData{
				Form:   verifyForm{RegistrationID: registrationID},
				Errors: formErrors{},
			}, http.StatusOK)
			return
		}
	}

	h.render(w, r, "pages/signup.html", "Sign up", signupPageData{Form: form, Errors: errors}, http.StatusBadRequest)
}

func (h *Handler) showVerify(w http.ResponseWriter, r *http.Request) {
	data := verifyPageData{
		Form:   verifyForm{RegistrationID: r.URL.Query().Get("registration_id")},
		Errors: formErrors{},
	}
	h.render(w, r, "pages/verify.html", "Verify email", data, http.StatusOK)
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := verifyForm{
		Code:           r.PostFormValue("code"),
		RegistrationID: r.PostFormValue("registration_id"),
	}
	errors := h.validate(form)

	if len(errors) == 0 {
		state := h.stateFor(r)
		if err := state.VerifyEmail(r.Context(), form.Code, form.RegistrationID); err == nil {
			h.redirectWithFlash(w, r, "/dashboard", "success", "Email verified, welcome aboard")
			return
		}
	}

	h.render(w, r, "pages/verify.html", "Verify email", verifyPageData{Form: form, Errors: errors}, http.StatusBadRequest)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	state := h.stateFor(r)
	state.Logout(r.Context())
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		h.sessionManager.Destroy(sess)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) showProfile(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	var profile backend.User
	if !token.NewManager(sess).CachedProfile(&profile) {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}
	data := profilePageData{
		Form:   profileForm{Name: profile.Name},
		Email:  profile.Email,
		Errors: formErrors{},
	}
	h.render(w, r, "pages/profile.html", "My profile", data, http.StatusOK)
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := profileForm{Name: r.PostFormValue("name")}
	errors := h.validate(form)

	state := h.stateFor(r)
	var email string
	if u := currentProfile(r); u != nil {
		email = u.Email
	}

	if len(errors) == 0 {
		fresh, err := h.api.UpdateProfile(r.Context(), state.Tokens(), backend.ProfileUpdateRequest{Name: form.Name})
		if err != nil {
			errors["general"] = errMessage(err)
		} else {
			state.UpdateUser(ProfileUpdate{Name: &fresh.Name})
			h.redirectWithFlash(w, r, "/profile", "success", "Profile updated")
			return
		}
	}

	data := profilePageData{Form: form, Email: email, Errors: errors}
	h.render(w, r, "pages/profile.html", "My profile", data, http.StatusBadRequest)
}

// currentProfile reads the cached profile for form prefills, nil when the
// session has none.
func currentProfile(r *http.Request) *backend.User {
	sess := shared.SessionFromContext(r.Context())
	var u backend.User
	if !token.NewManager(sess).CachedProfile(&u) {
		return nil
	}
	return &u
}

func (h *Handler) validate(form any) formErrors {
	errors := make(formErrors)
	if err := h.validator.Struct(form); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			errors[fieldErr.Field()] = fieldMessage(fieldErr)
		}
	}
	return errors
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "min":
		return "Too short."
	case "max":
		return "Too long."
	default:
		return "Invalid value."
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template, title string, data any, status int) {
	viewData := view.BuildData(r, h.csrfManager, h.policy, title, data)
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

// ShowLoginForTest exposes the GET handler for tests.
func (h *Handler) ShowLoginForTest(w http.ResponseWriter, r *http.Request) {
	h.showLogin(w, r)
}

// HandleLoginForTest exposes the POST handler for tests.
func (h *Handler) HandleLoginForTest(w http.ResponseWriter, r *http.Request) {
	h.handleLogin(w, r)
}

// HandleLogoutForTest exposes the logout handler for tests.
func (h *Handler) HandleLogoutForTest(w http.ResponseWriter, r *http.Request) {
	h.handleLogout(w, r)
}
