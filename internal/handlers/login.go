package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/a-h/templ"

	applog "mise/internal/log"
	"mise/internal/views/pages"
)

const (
	loginRequiredMessage = "Email and password are required."
	loginFailedMessage   = "We were unable to sign you in. Please try again."
)

// loginAttempt is one submission of the sign-in form.
type loginAttempt struct {
	Email    string
	Password string
}

func readLoginAttempt(r *http.Request) (loginAttempt, error) {
	if err := r.ParseForm(); err != nil {
		return loginAttempt{}, err
	}
	return loginAttempt{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
	}, nil
}

func (a loginAttempt) complete() bool {
	return a.Email != "" && a.Password != ""
}

// Login signs a cook into their kitchen. A successful sign-in lands on the app
// page that sent them to the form, or on the recipe index.
func Login(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		showLogin(w, r)
	case http.MethodPost:
		submitLogin(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func showLogin(w http.ResponseWriter, r *http.Request) {
	if ActiveSession(r) {
		applog.Debug(r.Context(), "kitchen session already open", "kitchen", kitchenName(r))
		redirect(w, r, returnPath(r))
		return
	}
	renderLogin(w, r, popSessionString(r, sessionLoginMessageKey), "")
}

func submitLogin(w http.ResponseWriter, r *http.Request) {
	if sessionManager == nil || records == nil {
		http.Error(w, "authentication not available", http.StatusServiceUnavailable)
		return
	}
	attempt, err := readLoginAttempt(r)
	if err != nil {
		applog.Debug(r.Context(), "failed to parse login form", "error", err)
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}
	if !attempt.complete() {
		renderLogin(w, r, loginRequiredMessage, attempt.Email)
		return
	}

	if !authenticate(w, r, attempt.Email, attempt.Password) {
		applog.Debug(r.Context(), "sign-in rejected", "email", strings.ToLower(attempt.Email))
		message := popSessionString(r, sessionLoginMessageKey)
		if message == "" {
			message = loginFailedMessage
		}
		renderLogin(w, r, message, attempt.Email)
		return
	}

	applog.Info(r.Context(), "cook signed in", "kitchen", kitchenName(r))
	redirect(w, r, returnPath(r))
}

// kitchenName returns the display name of the session kitchen. The first
// lookup is cached in the session.
func kitchenName(r *http.Request) string {
	if sessionManager == nil {
		return ""
	}
	if name, ok := sessionString(r, sessionKitchenNameKey); ok {
		return name
	}
	kitchenID, ok := currentKitchenID(r)
	if !ok || records == nil {
		return ""
	}
	kitchen, err := records.GetKitchen(r.Context(), kitchenID)
	if err != nil {
		applog.Warn(r.Context(), "failed to load session kitchen", "kitchen", kitchenID, "error", err)
		return ""
	}
	sessionManager.Put(r.Context(), sessionKitchenNameKey, kitchen.Name)
	return kitchen.Name
}

// rememberReturnPath records the app page a signed-out cook asked for.
func rememberReturnPath(r *http.Request) {
	if sessionManager == nil || r.Method != http.MethodGet || isHTMX(r) {
		return
	}
	sessionManager.Put(r.Context(), sessionReturnToKey, r.URL.RequestURI())
}

// returnPath pops the remembered page. Anything outside the app pages falls
// back to the recipe index.
func returnPath(r *http.Request) string {
	target := popSessionString(r, sessionReturnToKey)
	switch {
	case strings.HasPrefix(target, "/app/api/"):
		return "/app"
	case target == "/app", strings.HasPrefix(target, "/app/"), strings.HasPrefix(target, "/app?"):
		return target
	default:
		return "/app"
	}
}

func signedOutMessage(kitchen string) string {
	if kitchen == "" {
		return "You have been signed out."
	}
	return fmt.Sprintf("Signed out of %s.", kitchen)
}

func popSessionString(r *http.Request, key string) string {
	if sessionManager == nil {
		return ""
	}
	return sessionManager.PopString(r.Context(), key)
}

func renderLogin(w http.ResponseWriter, r *http.Request, message, email string) {
	var component templ.Component = pages.Login(message, email)
	if isHTMX(r) {
		component = pages.LoginPartial(message, email)
	}
	renderComponent(w, r, component)
}
