package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/a-h/templ"

	applog "mise/internal/log"
	"mise/internal/store"
	"mise/internal/views/pages"
)

const minPasswordLength = 8

// Signup displays the account creation form and registers a user together
// with the kitchen they will cost recipes for.
func Signup(w http.ResponseWriter, r *http.Request) {
	applog.Debug(r.Context(), "handling signup request", "method", r.Method, "htmx", isHTMX(r))

	switch r.Method {
	case http.MethodGet, http.MethodHead:
		if ActiveSession(r) {
			applog.Debug(r.Context(), "active session detected during signup, redirecting to app")
			redirectToApp(w, r)
			return
		}
		renderSignup(w, r, pages.SignupForm{})
	case http.MethodPost:
		if sessionManager == nil || database == nil {
			applog.Debug(r.Context(), "registration dependencies unavailable", "hasSession", sessionManager != nil, "hasDatabase", database != nil)
			http.Error(w, "registration not available", http.StatusServiceUnavailable)
			return
		}
		if err := r.ParseForm(); err != nil {
			applog.Debug(r.Context(), "failed to parse signup form", "error", err)
			http.Error(w, "invalid form submission", http.StatusBadRequest)
			return
		}

		form := pages.SignupForm{
			Name:        strings.TrimSpace(r.PostFormValue("name")),
			Email:       strings.TrimSpace(r.PostFormValue("email")),
			KitchenName: strings.TrimSpace(r.PostFormValue("kitchen_name")),
		}
		password := r.PostFormValue("password")
		confirm := r.PostFormValue("confirm_password")

		applog.Debug(r.Context(), "signup form parsed", "email", strings.ToLower(form.Email))

		if form.Email == "" || !strings.Contains(form.Email, "@") {
			form.Message = "Please provide a valid email address."
			renderSignup(w, r, form)
			return
		}
		if len(password) < minPasswordLength {
			applog.Debug(r.Context(), "password too short for signup", "length", len(password))
			form.Message = "Password must be at least 8 characters long."
			renderSignup(w, r, form)
			return
		}
		if confirm != "" && password != confirm {
			form.Message = "Passwords do not match."
			renderSignup(w, r, form)
			return
		}

		user, err := createAccount(r, form.Email, form.Name, password, form.KitchenName)
		switch {
		case errors.Is(err, store.ErrEmailTaken):
			applog.Debug(r.Context(), "signup attempted with existing email", "email", strings.ToLower(form.Email))
			form.Message = "An account with that email already exists."
			renderSignup(w, r, form)
			return
		case err != nil:
			applog.Error(r.Context(), "failed to create account", "error", err)
			form.Message = "We couldn't create your account right now. Please try again."
			renderSignup(w, r, form)
			return
		}

		applog.Info(r.Context(), "kitchen account created", "user", user.ID, "kitchen", user.KitchenID)

		if err := establishSession(r, user); err != nil {
			applog.Error(r.Context(), "failed to establish session after signup", "error", err)
			form.Message = "We couldn't sign you in after creating your account. Please try again."
			renderSignup(w, r, form)
			return
		}
		redirectToApp(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func renderSignup(w http.ResponseWriter, r *http.Request, form pages.SignupForm) {
	var component templ.Component
	if isHTMX(r) {
		component = pages.SignupPartial(form)
	} else {
		component = pages.Signup(form)
	}
	renderComponent(w, r, component)
}
