package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	applog "mise/internal/log"
	"mise/internal/storage"
	"mise/internal/store"
	"mise/models"
)

const (
	sessionAuthenticatedKey = "auth:authenticated"
	sessionLoginMessageKey  = "auth:message"
	sessionUserIDKey        = "auth:user:id"
	sessionUserEmailKey     = "auth:user:email"
	sessionUserNameKey      = "auth:user:name"
	sessionKitchenIDKey     = "auth:kitchen:id"
	sessionKitchenNameKey   = "auth:kitchen:name"
	sessionReturnToKey      = "auth:return"
)

var (
	sessionManager *scs.SessionManager
	database       *gorm.DB
	records        *store.Store
	objects        storage.ObjectStore = storage.NewMemoryStore("")
)

// Configure installs the shared dependencies used by the HTTP handlers.
func Configure(sm *scs.SessionManager, db *gorm.DB) {
	sessionManager = sm
	database = db
	records = store.New(db)
}

// ConfigureStorage installs the object store used for recipe photos.
func ConfigureStorage(objectStore storage.ObjectStore) {
	if objectStore == nil {
		objectStore = storage.NewMemoryStore("")
	}
	objects = objectStore
}

func createAccount(r *http.Request, email, name, password, kitchenName string) (*models.User, error) {
	if records == nil || database == nil {
		return nil, gorm.ErrInvalidDB
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	return records.CreateUserWithKitchen(r.Context(), store.NewAccount{
		Email:        email,
		Name:         name,
		PasswordHash: string(hashed),
		KitchenName:  kitchenName,
	})
}

func findUserByEmail(r *http.Request, email string) (*models.User, error) {
	if records == nil || database == nil {
		return nil, gorm.ErrInvalidDB
	}
	return records.FindUserByEmail(r.Context(), email)
}

// authenticate verifies the provided credentials and populates the session if successful.
func authenticate(w http.ResponseWriter, r *http.Request, email, password string) bool {
	if sessionManager == nil {
		http.Error(w, "authentication not available", http.StatusServiceUnavailable)
		return false
	}

	user, err := findUserByEmail(r, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			sessionManager.Put(r.Context(), sessionLoginMessageKey, "Invalid email or password. Please try again.")
		} else {
			applog.Error(r.Context(), "failed to load user during login", "error", err)
			sessionManager.Put(r.Context(), sessionLoginMessageKey, loginFailedMessage)
		}
		return false
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		sessionManager.Put(r.Context(), sessionLoginMessageKey, "Invalid email or password. Please try again.")
		return false
	}

	if err := establishSession(r, user); err != nil {
		applog.Error(r.Context(), "failed to establish session", "error", err)
		sessionManager.Put(r.Context(), sessionLoginMessageKey, loginFailedMessage)
		return false
	}

	return true
}

func establishSession(r *http.Request, user *models.User) error {
	if sessionManager == nil {
		return errors.New("session manager not configured")
	}
	if user.ID == "" || user.KitchenID == "" {
		return errors.New("user has no kitchen")
	}
	if err := sessionManager.RenewToken(r.Context()); err != nil {
		return err
	}
	sessionManager.Put(r.Context(), sessionAuthenticatedKey, true)
	sessionManager.Put(r.Context(), sessionUserIDKey, user.ID)
	sessionManager.Put(r.Context(), sessionUserEmailKey, user.Email)
	sessionManager.Put(r.Context(), sessionUserNameKey, user.Name)
	sessionManager.Put(r.Context(), sessionKitchenIDKey, user.KitchenID)
	sessionManager.Remove(r.Context(), sessionKitchenNameKey)
	return nil
}

// RequireAuthentication ensures the user has an active session before accessing
// the resource and tags the request's log records with the session kitchen.
func RequireAuthentication(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !ActiveSession(r) {
			if strings.HasPrefix(r.URL.Path, "/app/api/") {
				writeJSONError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			rememberReturnPath(r)
			redirectToLogin(w, r)
			return
		}
		kitchenID, _ := currentKitchenID(r)
		next.ServeHTTP(w, r.WithContext(applog.WithKitchen(r.Context(), kitchenID)))
	})
}

// Logout destroys the current session and redirects the user to the login screen.
func Logout(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodPost:
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if sessionManager != nil {
		kitchen, _ := sessionString(r, sessionKitchenNameKey)
		if err := sessionManager.Destroy(r.Context()); err != nil {
			applog.Error(r.Context(), "failed to destroy session", "error", err)
		} else {
			sessionManager.Put(r.Context(), sessionLoginMessageKey, signedOutMessage(kitchen))
		}
	}

	redirectToLogin(w, r)
}

func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	redirect(w, r, "/login")
}

func redirectToApp(w http.ResponseWriter, r *http.Request) {
	redirect(w, r, "/app")
}

func redirect(w http.ResponseWriter, r *http.Request, target string) {
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true" || r.Header.Get("HX-Boosted") == "true"
}

// ActiveSession returns true when the current request has an authenticated session.
func ActiveSession(r *http.Request) bool {
	if sessionManager == nil {
		return false
	}
	_, hasUser := currentUserID(r)
	_, hasKitchen := currentKitchenID(r)
	return sessionManager.GetBool(r.Context(), sessionAuthenticatedKey) && hasUser && hasKitchen
}

func currentUserID(r *http.Request) (string, bool) {
	return sessionString(r, sessionUserIDKey)
}

// currentKitchenID returns the tenant every store call of the request is scoped to.
func currentKitchenID(r *http.Request) (string, bool) {
	return sessionString(r, sessionKitchenIDKey)
}

func sessionString(r *http.Request, key string) (string, bool) {
	if sessionManager == nil {
		return "", false
	}
	value := sessionManager.GetString(r.Context(), key)
	return value, value != ""
}
