package server

import (
	"context"
	"net/http"

	"mise/internal/handlers"
	applog "mise/internal/log"
)

func newRouter() http.Handler {
	mux := http.NewServeMux()
	applog.Debug(context.Background(), "registering http routes")

	public := map[string]http.HandlerFunc{
		"/healthz": handlers.Health,
		"/login":   handlers.Login,
		"/signup":  handlers.Signup,
		"/logout":  handlers.Logout,
	}
	for path, handler := range public {
		mux.HandleFunc(path, handler)
	}

	protected := map[string]http.HandlerFunc{
		"/app":                  handlers.Dashboard,
		"/app/api/ingredients":  handlers.IngredientResource,
		"/app/api/ingredients/": handlers.IngredientResource,
		"/app/api/recipes":      handlers.RecipeResource,
		"/app/api/recipes/":     handlers.RecipeResource,
		"/app/recipes/":         handlers.RecipeView,
	}
	for path, handler := range protected {
		mux.Handle(path, handlers.RequireAuthentication(handler))
	}

	mux.HandleFunc("/", handlers.Home)
	applog.Debug(context.Background(), "routes registered", "public", len(public), "protected", len(protected))
	return mux
}
