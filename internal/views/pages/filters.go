package pages

import (
	"net/http"
	"strconv"
	"strings"
)

// RecipeFilters capture the client-driven state of the recipe index.
type RecipeFilters struct {
	Query    string
	Category string
	Archived bool
}

// RecipeFiltersFromRequest extracts filter inputs from an HTTP request.
func RecipeFiltersFromRequest(r *http.Request) RecipeFilters {
	filters := RecipeFilters{}
	if err := r.ParseForm(); err != nil {
		return filters
	}
	filters.Query = strings.TrimSpace(r.FormValue("q"))
	filters.Category = strings.TrimSpace(r.FormValue("category"))
	filters.Archived, _ = strconv.ParseBool(strings.TrimSpace(r.FormValue("archived")))
	return filters
}

// ParseStep extracts a 1-based step number, returning 1 when value is missing or invalid.
func ParseStep(value string) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed < 1 {
		return 1
	}
	return parsed
}

// ClampStep bounds a 1-based step number to [1, total]. It returns 0 when there are no steps.
func ClampStep(step, total int) int {
	if total <= 0 {
		return 0
	}
	if step < 1 {
		return 1
	}
	if step > total {
		return total
	}
	return step
}
