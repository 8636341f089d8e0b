package handlers

import (
	"net/http"

	"mise/internal/store"
)

type reorderRequest struct {
	IDs []string `json:"ids"`
}

func recipeLines(w http.ResponseWriter, r *http.Request, kitchenID, recipeID string, segments []string) {
	switch {
	case len(segments) == 0:
		switch r.Method {
		case http.MethodGet:
			lines, err := records.ListLines(r.Context(), kitchenID, recipeID)
			if err != nil {
				writeStoreError(w, r, err, "load recipe lines")
				return
			}
			writeJSON(w, http.StatusOK, lines)
		case http.MethodPost:
			var payload store.LineInput
			if !decodeJSON(w, r, &payload) {
				return
			}
			line, err := records.CreateLine(r.Context(), kitchenID, recipeID, payload)
			if err != nil {
				writeStoreError(w, r, err, "create recipe line")
				return
			}
			writeJSON(w, http.StatusCreated, line)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case len(segments) == 1 && segments[0] == "reorder":
		onlyMethod(w, r, http.MethodPost, func() {
			var payload reorderRequest
			if !decodeJSON(w, r, &payload) {
				return
			}
			lines, err := records.ReorderLines(r.Context(), kitchenID, recipeID, payload.IDs)
			if err != nil {
				writeStoreError(w, r, err, "reorder recipe lines")
				return
			}
			writeJSON(w, http.StatusOK, lines)
		})
	case len(segments) == 1:
		lineID := segments[0]
		switch r.Method {
		case http.MethodPut, http.MethodPatch:
			var payload store.LineInput
			if !decodeJSON(w, r, &payload) {
				return
			}
			line, err := records.UpdateLine(r.Context(), kitchenID, recipeID, lineID, payload)
			if err != nil {
				writeStoreError(w, r, err, "update recipe line")
				return
			}
			writeJSON(w, http.StatusOK, line)
		case http.MethodDelete:
			if err := records.DeleteLine(r.Context(), kitchenID, recipeID, lineID); err != nil {
				writeStoreError(w, r, err, "delete recipe line")
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case len(segments) == 2 && segments[1] == "duplicate":
		onlyMethod(w, r, http.MethodPost, func() {
			line, err := records.DuplicateLine(r.Context(), kitchenID, recipeID, segments[0])
			if err != nil {
				writeStoreError(w, r, err, "duplicate recipe line")
				return
			}
			writeJSON(w, http.StatusCreated, line)
		})
	default:
		http.NotFound(w, r)
	}
}
