package handlers

import (
	"net/http"
	"strconv"
	"strings"

	applog "mise/internal/log"
	"mise/internal/store"
	"mise/models"
)

// IngredientResource serves /app/api/ingredients and its sub-paths.
func IngredientResource(w http.ResponseWriter, r *http.Request) {
	kitchenID, ok := requireKitchen(w, r)
	if !ok {
		return
	}

	segments := pathSegments(r.URL.Path, "/app/api/ingredients")
	switch len(segments) {
	case 0:
		switch r.Method {
		case http.MethodGet:
			listIngredients(w, r, kitchenID)
		case http.MethodPost:
			createIngredient(w, r, kitchenID)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case 1:
		switch r.Method {
		case http.MethodGet:
			showIngredient(w, r, kitchenID, segments[0])
		case http.MethodPut, http.MethodPatch:
			updateIngredient(w, r, kitchenID, segments[0])
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case 2:
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		switch segments[1] {
		case "deactivate":
			setIngredientActive(w, r, kitchenID, segments[0], false)
		case "activate", "reactivate":
			setIngredientActive(w, r, kitchenID, segments[0], true)
		default:
			http.NotFound(w, r)
		}
	default:
		http.NotFound(w, r)
	}
}

func listIngredients(w http.ResponseWriter, r *http.Request, kitchenID string) {
	query := r.URL.Query()
	filter := store.IngredientFilter{
		Query:    strings.TrimSpace(query.Get("q")),
		Category: strings.TrimSpace(query.Get("category")),
	}
	if raw := strings.TrimSpace(query.Get("active")); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "active must be true or false")
			return
		}
		filter.Active = &active
	}

	ingredients, err := records.ListIngredients(r.Context(), kitchenID, filter)
	if err != nil {
		writeStoreError(w, r, err, "load ingredients")
		return
	}
	writeJSON(w, http.StatusOK, ingredients)
}

func showIngredient(w http.ResponseWriter, r *http.Request, kitchenID, id string) {
	ingredient, err := records.GetIngredient(r.Context(), kitchenID, id)
	if err != nil {
		writeStoreError(w, r, err, "load ingredient")
		return
	}
	writeJSON(w, http.StatusOK, ingredient)
}

func createIngredient(w http.ResponseWriter, r *http.Request, kitchenID string) {
	var payload store.IngredientInput
	if !decodeJSON(w, r, &payload) {
		return
	}
	ingredient, err := records.CreateIngredient(r.Context(), kitchenID, payload)
	if err != nil {
		writeStoreError(w, r, err, "create ingredient")
		return
	}
	applog.Debug(r.Context(), "ingredient created", "ingredient", ingredient.ID)
	writeJSON(w, http.StatusCreated, ingredient)
}

func updateIngredient(w http.ResponseWriter, r *http.Request, kitchenID, id string) {
	var payload store.IngredientInput
	if !decodeJSON(w, r, &payload) {
		return
	}
	ingredient, err := records.UpdateIngredient(r.Context(), kitchenID, id, payload)
	if err != nil {
		writeStoreError(w, r, err, "update ingredient")
		return
	}
	writeJSON(w, http.StatusOK, ingredient)
}

func setIngredientActive(w http.ResponseWriter, r *http.Request, kitchenID, id string, active bool) {
	var (
		ingredient *models.Ingredient
		err        error
	)
	if active {
		ingredient, err = records.ReactivateIngredient(r.Context(), kitchenID, id)
	} else {
		ingredient, err = records.DeactivateIngredient(r.Context(), kitchenID, id)
	}
	if err != nil {
		writeStoreError(w, r, err, "update ingredient state")
		return
	}
	applog.Debug(r.Context(), "ingredient state changed", "ingredient", id, "active", active)
	writeJSON(w, http.StatusOK, ingredient)
}
