package handlers

import (
	"net/http"

	"mise/internal/store"
)

func recipeSteps(w http.ResponseWriter, r *http.Request, kitchenID, recipeID string, segments []string) {
	switch {
	case len(segments) == 0:
		switch r.Method {
		case http.MethodGet:
			steps, err := records.ListSteps(r.Context(), kitchenID, recipeID)
			if err != nil {
				writeStoreError(w, r, err, "load recipe steps")
				return
			}
			writeJSON(w, http.StatusOK, steps)
		case http.MethodPost:
			var payload store.StepInput
			if !decodeJSON(w, r, &payload) {
				return
			}
			step, err := records.CreateStep(r.Context(), kitchenID, recipeID, payload)
			if err != nil {
				writeStoreError(w, r, err, "create recipe step")
				return
			}
			writeJSON(w, http.StatusCreated, step)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case len(segments) == 1 && segments[0] == "reorder":
		onlyMethod(w, r, http.MethodPost, func() {
			var payload reorderRequest
			if !decodeJSON(w, r, &payload) {
				return
			}
			steps, err := records.ReorderSteps(r.Context(), kitchenID, recipeID, payload.IDs)
			if err != nil {
				writeStoreError(w, r, err, "reorder recipe steps")
				return
			}
			writeJSON(w, http.StatusOK, steps)
		})
	case len(segments) == 1:
		stepID := segments[0]
		switch r.Method {
		case http.MethodGet:
			step, err := records.GetStep(r.Context(), kitchenID, recipeID, stepID)
			if err != nil {
				writeStoreError(w, r, err, "load recipe step")
				return
			}
			writeJSON(w, http.StatusOK, step)
		case http.MethodPut, http.MethodPatch:
			var payload store.StepInput
			if !decodeJSON(w, r, &payload) {
				return
			}
			step, err := records.UpdateStep(r.Context(), kitchenID, recipeID, stepID, payload)
			if err != nil {
				writeStoreError(w, r, err, "update recipe step")
				return
			}
			writeJSON(w, http.StatusOK, step)
		case http.MethodDelete:
			if err := records.DeleteStep(r.Context(), kitchenID, recipeID, stepID); err != nil {
				writeStoreError(w, r, err, "delete recipe step")
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	default:
		http.NotFound(w, r)
	}
}
