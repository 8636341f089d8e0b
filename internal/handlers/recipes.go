package handlers

import (
	"net/http"
	"strconv"
	"strings"

	applog "mise/internal/log"
	"mise/internal/store"
)

// RecipeResource serves /app/api/recipes and every recipe sub-resource.
func RecipeResource(w http.ResponseWriter, r *http.Request) {
	kitchenID, ok := requireKitchen(w, r)
	if !ok {
		return
	}

	segments := pathSegments(r.URL.Path, "/app/api/recipes")
	if len(segments) == 0 {
		switch r.Method {
		case http.MethodGet:
			listRecipes(w, r, kitchenID)
		case http.MethodPost:
			createRecipe(w, r, kitchenID)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	recipeID := segments[0]
	if len(segments) == 1 {
		switch r.Method {
		case http.MethodGet:
			showRecipe(w, r, kitchenID, recipeID)
		case http.MethodPut, http.MethodPatch:
			updateRecipe(w, r, kitchenID, recipeID)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	rest := segments[2:]
	switch segments[1] {
	case "lines":
		recipeLines(w, r, kitchenID, recipeID, rest)
		return
	case "steps":
		recipeSteps(w, r, kitchenID, recipeID, rest)
		return
	case "photos":
		if len(rest) > 0 {
			http.NotFound(w, r)
			return
		}
		recipePhotos(w, r, kitchenID, recipeID)
		return
	}

	if len(rest) > 0 {
		http.NotFound(w, r)
		return
	}

	switch segments[1] {
	case "costing":
		onlyMethod(w, r, http.MethodGet, func() { showCosting(w, r, kitchenID, recipeID) })
	case "scale":
		onlyMethod(w, r, http.MethodGet, func() { scaleRecipe(w, r, kitchenID, recipeID) })
	case "apply-suggested-price":
		onlyMethod(w, r, http.MethodPost, func() { applySuggestedPrice(w, r, kitchenID, recipeID) })
	case "archive":
		onlyMethod(w, r, http.MethodPost, func() { archiveRecipe(w, r, kitchenID, recipeID, true) })
	case "unarchive":
		onlyMethod(w, r, http.MethodPost, func() { archiveRecipe(w, r, kitchenID, recipeID, false) })
	case "duplicate":
		onlyMethod(w, r, http.MethodPost, func() { duplicateRecipe(w, r, kitchenID, recipeID) })
	default:
		http.NotFound(w, r)
	}
}

func onlyMethod(w http.ResponseWriter, r *http.Request, method string, next func()) {
	if r.Method != method {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	next()
}

func listRecipes(w http.ResponseWriter, r *http.Request, kitchenID string) {
	query := r.URL.Query()
	filter := store.RecipeFilter{
		Query:    strings.TrimSpace(query.Get("q")),
		Category: strings.TrimSpace(query.Get("category")),
	}
	if raw := strings.TrimSpace(query.Get("archived")); raw != "" {
		archived, err := strconv.ParseBool(raw)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "archived must be true or false")
			return
		}
		filter.Archived = archived
	}

	recipes, err := records.ListRecipes(r.Context(), kitchenID, filter)
	if err != nil {
		writeStoreError(w, r, err, "load recipes")
		return
	}
	writeJSON(w, http.StatusOK, recipes)
}

func showRecipe(w http.ResponseWriter, r *http.Request, kitchenID, recipeID string) {
	recipe, err := records.GetRecipe(r.Context(), kitchenID, recipeID)
	if err != nil {
		writeStoreError(w, r, err, "load recipe")
		return
	}
	writeJSON(w, http.StatusOK, recipe)
}

func createRecipe(w http.ResponseWriter, r *http.Request, kitchenID string) {
	var payload store.RecipeInput
	if !decodeJSON(w, r, &payload) {
		return
	}
	recipe, err := records.CreateRecipe(r.Context(), kitchenID, payload)
	if err != nil {
		writeStoreError(w, r, err, "create recipe")
		return
	}
	applog.Debug(r.Context(), "recipe created", "recipe", recipe.ID)
	writeJSON(w, http.StatusCreated, recipe)
}

func updateRecipe(w http.ResponseWriter, r *http.Request, kitchenID, recipeID string) {
	var payload store.RecipeInput
	if !decodeJSON(w, r, &payload) {
		return
	}
	recipe, err := records.UpdateRecipe(r.Context(), kitchenID, recipeID, payload)
	if err != nil {
		writeStoreError(w, r, err, "update recipe")
		return
	}
	writeJSON(w, http.StatusOK, recipe)
}

func archiveRecipe(w http.ResponseWriter, r *http.Request, kitchenID, recipeID string, archive bool) {
	action := records.UnarchiveRecipe
	if archive {
		action = records.ArchiveRecipe
	}
	recipe, err := action(r.Context(), kitchenID, recipeID)
	if err != nil {
		writeStoreError(w, r, err, "archive recipe")
		return
	}
	applog.Debug(r.Context(), "recipe archive state changed", "recipe", recipeID, "archived", archive)
	writeJSON(w, http.StatusOK, recipe)
}

func duplicateRecipe(w http.ResponseWriter, r *http.Request, kitchenID, recipeID string) {
	recipe, err := records.DuplicateRecipe(r.Context(), kitchenID, recipeID)
	if err != nil {
		writeStoreError(w, r, err, "duplicate recipe")
		return
	}
	applog.Debug(r.Context(), "recipe duplicated", "source", recipeID, "copy", recipe.ID)
	writeJSON(w, http.StatusCreated, recipe)
}
