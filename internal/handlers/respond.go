package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"gorm.io/gorm"

	applog "mise/internal/log"
	"mise/internal/storage"
	"mise/internal/store"
)

const maxJSONBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		applog.Error(context.Background(), "failed to encode json response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeStoreError maps store and storage errors onto HTTP statuses. Unexpected
// errors are logged and hidden behind a generic message.
func writeStoreError(w http.ResponseWriter, r *http.Request, err error, action string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		applog.Debug(r.Context(), "record not found", "action", action, "error", err)
		writeJSONError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrInvalid), errors.Is(err, store.ErrEmailTaken):
		applog.Debug(r.Context(), "validation failed", "action", action, "error", err)
		writeJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrTooLarge):
		writeJSONError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, storage.ErrUnsupportedType):
		writeJSONError(w, http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, gorm.ErrInvalidDB):
		applog.Debug(r.Context(), "request without database", "action", action)
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
	default:
		applog.Error(r.Context(), "request failed", "action", action, "error", err)
		writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("unable to %s", action))
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := decoder.Decode(dst); err != nil {
		applog.Debug(r.Context(), "invalid json payload", "path", r.URL.Path, "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return false
	}
	return true
}

func renderComponent(w http.ResponseWriter, r *http.Request, component templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := component.Render(r.Context(), w); err != nil {
		applog.Error(r.Context(), "failed to render component", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// pathSegments splits the path below prefix into its non-empty segments.
func pathSegments(path, prefix string) []string {
	trimmed := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// requireKitchen resolves the session kitchen or answers 401.
func requireKitchen(w http.ResponseWriter, r *http.Request) (string, bool) {
	if records == nil || database == nil {
		applog.Debug(r.Context(), "api request without database", "path", r.URL.Path)
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return "", false
	}
	kitchenID, ok := currentKitchenID(r)
	if !ok {
		applog.Debug(r.Context(), "api request without kitchen", "path", r.URL.Path)
		writeJSONError(w, http.StatusUnauthorized, "unauthorized")
		return "", false
	}
	return kitchenID, true
}
