package pages

import "fmt"

const cookTitleSuffix = " · Cook"

// CardLine is a recipe line prepared for display.
type CardLine struct {
	Group      bool
	Title      string
	Qty        string
	Unit       string
	Ingredient string
	Note       string
	Cost       string
}

// CookModeData drives the step-by-step cooking view. Step is 1-based and 0
// when the recipe has no steps.
type CookModeData struct {
	RecipeID     string
	RecipeName   string
	Portions     int
	Step         int
	TotalSteps   int
	Instruction  string
	TimerSeconds int
	PhotoURL     string
	Lines        []CardLine
}

func stepLabel(step, total int) string {
	return fmt.Sprintf("Step %d of %d", step, total)
}

func stepPath(recipeID string, step int) string {
	return fmt.Sprintf("%s?step=%d", recipePath(recipeID, "cook"), step)
}
