package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alexedwards/scs/v2"

	"mise/internal/storage"
	"mise/internal/store"
	"mise/models"
)

type apiEnv struct {
	t         *testing.T
	sm        *scs.SessionManager
	kitchenID string
	userID    string
	photos    *storage.MemoryStore
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	sm, smCleanup := withTestSessionManager(t)
	t.Cleanup(smCleanup)
	_, dbCleanup := withTestDatabase(t)
	t.Cleanup(dbCleanup)

	memory := storage.NewMemoryStore("/media")
	objects = memory

	user, err := createAccount(httptest.NewRequest(http.MethodPost, "/signup", nil), "chef@example.com", "Chef", "password123", "Test Kitchen")
	if err != nil {
		t.Fatalf("failed to create account: %v", err)
	}
	return &apiEnv{t: t, sm: sm, kitchenID: user.KitchenID, userID: user.ID, photos: memory}
}

func (e *apiEnv) serve(handler http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	e.t.Helper()
	req = loadSession(e.t, e.sm, req)
	e.sm.Put(req.Context(), sessionAuthenticatedKey, true)
	e.sm.Put(req.Context(), sessionUserIDKey, e.userID)
	e.sm.Put(req.Context(), sessionKitchenIDKey, e.kitchenID)
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func (e *apiEnv) do(handler http.HandlerFunc, method, path string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			e.t.Fatalf("encode request: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return e.serve(handler, req)
}

func (e *apiEnv) expect(w *httptest.ResponseRecorder, status int) {
	e.t.Helper()
	if w.Code != status {
		e.t.Fatalf("expected status %d, got %d: %s", status, w.Code, w.Body.String())
	}
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func (e *apiEnv) createIngredient(body map[string]any) models.Ingredient {
	e.t.Helper()
	w := e.do(IngredientResource, http.MethodPost, "/app/api/ingredients", body)
	e.expect(w, http.StatusCreated)
	return decodeBody[models.Ingredient](e.t, w)
}

func (e *apiEnv) createRecipe(body map[string]any) models.Recipe {
	e.t.Helper()
	w := e.do(RecipeResource, http.MethodPost, "/app/api/recipes", body)
	e.expect(w, http.StatusCreated)
	return decodeBody[models.Recipe](e.t, w)
}

func (e *apiEnv) createLine(recipeID string, body map[string]any) models.RecipeLine {
	e.t.Helper()
	w := e.do(RecipeResource, http.MethodPost, "/app/api/recipes/"+recipeID+"/lines", body)
	e.expect(w, http.StatusCreated)
	return decodeBody[models.RecipeLine](e.t, w)
}

func (e *apiEnv) createStep(recipeID, instruction string) models.RecipeStep {
	e.t.Helper()
	w := e.do(RecipeResource, http.MethodPost, "/app/api/recipes/"+recipeID+"/steps", map[string]any{"instruction": instruction})
	e.expect(w, http.StatusCreated)
	return decodeBody[models.RecipeStep](e.t, w)
}

// costedRecipe sets up 500 g of a 4.00/kg flour over 4 portions sold at 5.00 with a 25% target.
func (e *apiEnv) costedRecipe() (models.Recipe, models.Ingredient) {
	e.t.Helper()
	flour := e.createIngredient(map[string]any{"name": "Flour", "pack_unit": "kg", "net_unit_cost": 4})
	recipe := e.createRecipe(map[string]any{"name": "Flatbread", "portions": 4, "selling_price": 5, "target_food_cost_pct": 25})
	e.createLine(recipe.ID, map[string]any{"line_type": "group", "title": "Dough"})
	e.createLine(recipe.ID, map[string]any{"ingredient_id": flour.ID, "qty": 500, "unit": "g"})
	return recipe, flour
}

func TestRequireKitchenWithoutDatabase(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/app/api/recipes", nil)
	w := httptest.NewRecorder()
	RecipeResource(w, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without database, got %d", w.Code)
	}
}

func TestIngredientResourceLifecycle(t *testing.T) {
	env := newAPIEnv(t)

	butter := env.createIngredient(map[string]any{
		"name":       "Butter",
		"category":   "Dairy",
		"pack_unit":  " KG ",
		"pack_size":  2,
		"pack_price": 18,
		"yield_pct":  90,
	})
	if butter.PackUnit != "kg" {
		t.Fatalf("expected normalized pack unit, got %q", butter.PackUnit)
	}
	if butter.NetUnitCost == nil || *butter.NetUnitCost != 10 {
		t.Fatalf("expected derived net unit cost 10, got %v", butter.NetUnitCost)
	}
	env.createIngredient(map[string]any{"name": "Sugar", "pack_unit": "kg", "net_unit_cost": 1.2})

	w := env.do(IngredientResource, http.MethodGet, "/app/api/ingredients?q=butt", nil)
	env.expect(w, http.StatusOK)
	if listed := decodeBody[[]models.Ingredient](t, w); len(listed) != 1 || listed[0].ID != butter.ID {
		t.Fatalf("expected search to return butter, got %+v", listed)
	}

	w = env.do(IngredientResource, http.MethodPut, "/app/api/ingredients/"+butter.ID, map[string]any{"supplier": "Dairy Co"})
	env.expect(w, http.StatusOK)
	if updated := decodeBody[models.Ingredient](t, w); updated.Supplier != "Dairy Co" || updated.Name != "Butter" {
		t.Fatalf("expected partial update, got %+v", updated)
	}

	w = env.do(IngredientResource, http.MethodPost, "/app/api/ingredients/"+butter.ID+"/deactivate", nil)
	env.expect(w, http.StatusOK)
	if deactivated := decodeBody[models.Ingredient](t, w); deactivated.Active {
		t.Fatal("expected ingredient to be inactive")
	}

	w = env.do(IngredientResource, http.MethodGet, "/app/api/ingredients?active=true", nil)
	env.expect(w, http.StatusOK)
	if listed := decodeBody[[]models.Ingredient](t, w); len(listed) != 1 || listed[0].Name != "Sugar" {
		t.Fatalf("expected only active ingredients, got %+v", listed)
	}

	w = env.do(IngredientResource, http.MethodPost, "/app/api/ingredients/"+butter.ID+"/activate", nil)
	env.expect(w, http.StatusOK)

	env.expect(env.do(IngredientResource, http.MethodGet, "/app/api/ingredients/missing", nil), http.StatusNotFound)
	env.expect(env.do(IngredientResource, http.MethodPost, "/app/api/ingredients", map[string]any{"name": "Salt", "yield_pct": 0}), http.StatusBadRequest)
	env.expect(env.do(IngredientResource, http.MethodGet, "/app/api/ingredients?active=maybe", nil), http.StatusBadRequest)
	env.expect(env.do(IngredientResource, http.MethodDelete, "/app/api/ingredients", nil), http.StatusMethodNotAllowed)
}

func TestIngredientResourceIsScopedToKitchen(t *testing.T) {
	env := newAPIEnv(t)

	other, err := createAccount(httptest.NewRequest(http.MethodPost, "/signup", nil), "other@example.com", "Other", "password123", "Other Kitchen")
	if err != nil {
		t.Fatalf("create other account: %v", err)
	}
	saffron := "Saffron"
	foreign, err := records.CreateIngredient(t.Context(), other.KitchenID, store.IngredientInput{Name: &saffron})
	if err != nil {
		t.Fatalf("create foreign ingredient: %v", err)
	}

	env.expect(env.do(IngredientResource, http.MethodGet, "/app/api/ingredients/"+foreign.ID, nil), http.StatusNotFound)

	recipe := env.createRecipe(map[string]any{"name": "Risotto"})
	w := env.do(RecipeResource, http.MethodPost, "/app/api/recipes/"+recipe.ID+"/lines", map[string]any{"ingredient_id": foreign.ID, "qty": 1, "unit": "g"})
	env.expect(w, http.StatusBadRequest)
}

func TestRecipeCostingEndpoints(t *testing.T) {
	env := newAPIEnv(t)
	recipe, _ := env.costedRecipe()

	w := env.do(RecipeResource, http.MethodGet, "/app/api/recipes/"+recipe.ID+"/costing", nil)
	env.expect(w, http.StatusOK)
	result := decodeBody[costingResponse](t, w)
	if result.TotalCost != 2 || result.CostPerPortion != 0.5 {
		t.Fatalf("expected total 2 and cost per portion 0.5, got %+v", result)
	}
	if result.FoodCostPercent == nil || *result.FoodCostPercent != 10 {
		t.Fatalf("expected food cost 10%%, got %v", result.FoodCostPercent)
	}
	if result.Margin != 4.5 || result.SuggestedPrice != 2 {
		t.Fatalf("expected margin 4.5 and suggested price 2, got %+v", result)
	}
	if result.Display.FoodCostPercent != "10.0%" || result.Display.CostPerPortion != "0.50 USD" {
		t.Fatalf("unexpected display block: %+v", result.Display)
	}
	if len(result.Lines) != 1 || result.Lines[0].IngredientName != "Flour" || result.Lines[0].ConvertedQty != 0.5 {
		t.Fatalf("expected one costed flour line, got %+v", result.Lines)
	}
	if len(result.Warnings) != 0 {
		t.Fatalf("expected no warnings, got %+v", result.Warnings)
	}

	w = env.do(RecipeResource, http.MethodPost, "/app/api/recipes/"+recipe.ID+"/apply-suggested-price", nil)
	env.expect(w, http.StatusOK)
	applied := decodeBody[costingResponse](t, w)
	if applied.SellingPrice == nil || *applied.SellingPrice != 2 {
		t.Fatalf("expected selling price 2 after applying suggestion, got %v", applied.SellingPrice)
	}
	if applied.FoodCostPercent == nil || *applied.FoodCostPercent != 25 {
		t.Fatalf("expected food cost to match the target, got %v", applied.FoodCostPercent)
	}

	env.expect(env.do(RecipeResource, http.MethodGet, "/app/api/recipes/"+recipe.ID+"/apply-suggested-price", nil), http.StatusMethodNotAllowed)
	env.expect(env.do(RecipeResource, http.MethodGet, "/app/api/recipes/missing/costing", nil), http.StatusNotFound)
}

func TestCostingWithoutSellingPriceReturnsNullPercentages(t *testing.T) {
	env := newAPIEnv(t)
	recipe := env.createRecipe(map[string]any{"name": "Stock", "portions": 2})
	env.createLine(recipe.ID, map[string]any{"line_type": "group", "title": "Bones"})

	w := env.do(RecipeResource, http.MethodGet, "/app/api/recipes/"+recipe.ID+"/costing", nil)
	env.expect(w, http.StatusOK)
	raw := decodeBody[map[string]any](t, w)
	if raw["food_cost_percent"] != nil || raw["margin_percent"] != nil {
		t.Fatalf("expected null percentages, got %v / %v", raw["food_cost_percent"], raw["margin_percent"])
	}
	display := raw["display"].(map[string]any)
	if display["food_cost_percent"] != "—" {
		t.Fatalf("expected not-set marker, got %v", display["food_cost_percent"])
	}
}

func TestScaleRecipe(t *testing.T) {
	env := newAPIEnv(t)
	recipe, _ := env.costedRecipe()

	w := env.do(RecipeResource, http.MethodGet, "/app/api/recipes/"+recipe.ID+"/scale?portions=8", nil)
	env.expect(w, http.StatusOK)
	scaled := decodeBody[scaleResponse](t, w)
	if scaled.FromPortions != 4 || scaled.ToPortions != 8 {
		t.Fatalf("unexpected portions: %+v", scaled)
	}
	if len(scaled.Lines) != 2 || scaled.Lines[0].LineType != models.LineTypeGroup || scaled.Lines[1].Qty != 1000 {
		t.Fatalf("expected group header and doubled flour, got %+v", scaled.Lines)
	}
	if scaled.Costing.TotalCost != 4 || scaled.Costing.CostPerPortion != 0.5 {
		t.Fatalf("expected scaled total 4 and unchanged cost per portion, got %+v", scaled.Costing)
	}

	for _, query := range []string{"", "?portions=0", "?portions=abc", "?portions=1.5"} {
		env.expect(env.do(RecipeResource, http.MethodGet, "/app/api/recipes/"+recipe.ID+"/scale"+query, nil), http.StatusBadRequest)
	}

	w = env.do(RecipeResource, http.MethodGet, "/app/api/recipes/"+recipe.ID, nil)
	env.expect(w, http.StatusOK)
	if stored := decodeBody[models.Recipe](t, w); stored.Portions != 4 {
		t.Fatalf("expected scaling to leave the recipe unchanged, got %d portions", stored.Portions)
	}
}

func TestRecipeArchiveAndDuplicate(t *testing.T) {
	env := newAPIEnv(t)
	recipe, _ := env.costedRecipe()
	env.createStep(recipe.ID, "Knead")

	w := env.do(RecipeResource, http.MethodPost, "/app/api/recipes/"+recipe.ID+"/duplicate", nil)
	env.expect(w, http.StatusCreated)
	copied := decodeBody[models.Recipe](t, w)
	if copied.Name != "Flatbread (Copy)" || copied.ID == recipe.ID {
		t.Fatalf("unexpected duplicate: %+v", copied)
	}
	if len(copied.Lines) != 2 || len(copied.Steps) != 1 {
		t.Fatalf("expected lines and steps to be copied, got %d lines %d steps", len(copied.Lines), len(copied.Steps))
	}

	env.expect(env.do(RecipeResource, http.MethodPost, "/app/api/recipes/"+recipe.ID+"/archive", nil), http.StatusOK)

	w = env.do(RecipeResource, http.MethodGet, "/app/api/recipes", nil)
	env.expect(w, http.StatusOK)
	if listed := decodeBody[[]models.Recipe](t, w); len(listed) != 1 || listed[0].ID != copied.ID {
		t.Fatalf("expected archived recipe to be hidden, got %+v", listed)
	}

	w = env.do(RecipeResource, http.MethodGet, "/app/api/recipes?archived=true", nil)
	env.expect(w, http.StatusOK)
	if listed := decodeBody[[]models.Recipe](t, w); len(listed) != 1 || listed[0].ID != recipe.ID {
		t.Fatalf("expected archived listing, got %+v", listed)
	}

	w = env.do(RecipeResource, http.MethodPatch, "/app/api/recipes/"+recipe.ID, map[string]any{"portions": 0})
	env.expect(w, http.StatusBadRequest)
}

func TestRecipeLinesEndpoints(t *testing.T) {
	env := newAPIEnv(t)
	flour := env.createIngredient(map[string]any{"name": "Flour", "pack_unit": "kg", "net_unit_cost": 1})
	recipe := env.createRecipe(map[string]any{"name": "Bread"})
	a := env.createLine(recipe.ID, map[string]any{"ingredient_id": flour.ID, "qty": 1, "unit": "kg"})
	b := env.createLine(recipe.ID, map[string]any{"line_type": "group", "title": "Finish"})
	if a.SortOrder != 10 || b.SortOrder != 20 {
		t.Fatalf("expected sort orders 10 and 20, got %d and %d", a.SortOrder, b.SortOrder)
	}

	base := "/app/api/recipes/" + recipe.ID + "/lines"
	w := env.do(RecipeResource, http.MethodPost, base+"/"+a.ID+"/duplicate", nil)
	env.expect(w, http.StatusCreated)
	if dup := decodeBody[models.RecipeLine](t, w); dup.SortOrder != 15 {
		t.Fatalf("expected duplicate directly after its source, got %d", dup.SortOrder)
	}

	w = env.do(RecipeResource, http.MethodPost, base+"/reorder", map[string]any{"ids": []string{b.ID, a.ID}})
	env.expect(w, http.StatusBadRequest)

	w = env.do(RecipeResource, http.MethodGet, base, nil)
	env.expect(w, http.StatusOK)
	lines := decodeBody[[]models.RecipeLine](t, w)
	ids := make([]string, 0, len(lines))
	for i := len(lines) - 1; i >= 0; i-- {
		ids = append(ids, lines[i].ID)
	}
	w = env.do(RecipeResource, http.MethodPost, base+"/reorder", map[string]any{"ids": ids})
	env.expect(w, http.StatusOK)
	reordered := decodeBody[[]models.RecipeLine](t, w)
	for i, line := range reordered {
		if line.ID != ids[i] || line.SortOrder != (i+1)*10 {
			t.Fatalf("unexpected order at %d: %+v", i, line)
		}
	}

	w = env.do(RecipeResource, http.MethodPut, base+"/"+a.ID, map[string]any{"qty": 2})
	env.expect(w, http.StatusOK)
	if updated := decodeBody[models.RecipeLine](t, w); updated.Qty != 2 {
		t.Fatalf("expected qty 2, got %v", updated.Qty)
	}

	env.expect(env.do(RecipeResource, http.MethodDelete, base+"/"+b.ID, nil), http.StatusNoContent)
	env.expect(env.do(RecipeResource, http.MethodDelete, base+"/"+b.ID, nil), http.StatusNotFound)
}

func TestRecipeStepsEndpoints(t *testing.T) {
	env := newAPIEnv(t)
	recipe := env.createRecipe(map[string]any{"name": "Omelette"})
	first := env.createStep(recipe.ID, "Whisk eggs")
	second := env.createStep(recipe.ID, "Cook gently")

	base := "/app/api/recipes/" + recipe.ID + "/steps"
	w := env.do(RecipeResource, http.MethodPost, base+"/reorder", map[string]any{"ids": []string{second.ID, first.ID}})
	env.expect(w, http.StatusOK)
	steps := decodeBody[[]models.RecipeStep](t, w)
	if steps[0].ID != second.ID || steps[0].Position != 10 || steps[1].Position != 20 {
		t.Fatalf("unexpected step order: %+v", steps)
	}

	w = env.do(RecipeResource, http.MethodPatch, base+"/"+first.ID, map[string]any{"timer_seconds": 90})
	env.expect(w, http.StatusOK)
	if updated := decodeBody[models.RecipeStep](t, w); updated.TimerSeconds != 90 || updated.Instruction != "Whisk eggs" {
		t.Fatalf("unexpected step update: %+v", updated)
	}

	env.expect(env.do(RecipeResource, http.MethodPost, base, map[string]any{"instruction": "  "}), http.StatusBadRequest)
	env.expect(env.do(RecipeResource, http.MethodDelete, base+"/"+first.ID, nil), http.StatusNoContent)
}

func multipartPhoto(t *testing.T, filename string, content []byte, fields map[string]string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	part, err := writer.CreateFormFile("photo", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, writer.FormDataContentType()
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestRecipePhotos(t *testing.T) {
	env := newAPIEnv(t)
	recipe := env.createRecipe(map[string]any{"name": "Tart"})
	step := env.createStep(recipe.ID, "Blind bake")
	path := "/app/api/recipes/" + recipe.ID + "/photos"

	body, contentType := multipartPhoto(t, "Tarte Tatin.PNG", pngHeader, nil)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	w := env.serve(RecipeResource, req)
	env.expect(w, http.StatusCreated)
	cover := decodeBody[photoResponse](t, w)
	prefix := storage.RecipePrefix(env.kitchenID, recipe.ID)
	if cover.Target != "recipe" || !strings.HasPrefix(cover.Object.Key, prefix) || !strings.HasSuffix(cover.Object.Key, "-tarte-tatin.png") {
		t.Fatalf("unexpected cover upload: %+v", cover)
	}
	if _, ok := env.photos.Bytes(cover.Object.Key); !ok {
		t.Fatal("expected cover photo to be stored")
	}

	body, contentType = multipartPhoto(t, "shell.png", pngHeader, map[string]string{"step_id": step.ID})
	req = httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	w = env.serve(RecipeResource, req)
	env.expect(w, http.StatusCreated)
	stepPhoto := decodeBody[photoResponse](t, w)
	if stepPhoto.Target != "step" || !strings.Contains(stepPhoto.Object.Key, "/steps/"+step.ID+"/") {
		t.Fatalf("unexpected step upload: %+v", stepPhoto)
	}

	w = env.do(RecipeResource, http.MethodGet, "/app/api/recipes/"+recipe.ID, nil)
	if stored := decodeBody[models.Recipe](t, w); stored.PhotoKey != cover.Object.Key || stored.Steps[0].PhotoKey != stepPhoto.Object.Key {
		t.Fatalf("expected photo keys to be recorded, got %+v", stored)
	}

	w = env.do(RecipeResource, http.MethodGet, path, nil)
	env.expect(w, http.StatusOK)
	if listed := decodeBody[[]storage.Object](t, w); len(listed) != 2 {
		t.Fatalf("expected two stored photos, got %+v", listed)
	}

	body, contentType = multipartPhoto(t, "notes.txt", []byte("not an image"), nil)
	req = httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	env.expect(env.serve(RecipeResource, req), http.StatusUnsupportedMediaType)

	body, contentType = multipartPhoto(t, "ghost.png", pngHeader, map[string]string{"step_id": "missing"})
	req = httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	env.expect(env.serve(RecipeResource, req), http.StatusNotFound)
}
