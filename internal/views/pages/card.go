package pages

const cardTitleSuffix = " · Recipe card"

// CostSummary holds formatted costing figures for the recipe card.
type CostSummary struct {
	TotalCost       string
	CostPerPortion  string
	SellingPrice    string
	FoodCostPercent string
	Margin          string
	MarginPercent   string
	TargetPercent   string
	SuggestedPrice  string
}

// RecipeCardData drives the printable recipe card.
type RecipeCardData struct {
	Name        string
	Category    string
	Description string
	Portions    int
	PhotoURL    string
	Lines       []CardLine
	Steps       []string
	Summary     CostSummary
	Warnings    []string
	PrintedAt   string
}

func (d RecipeCardData) subtitle() string {
	return DefaultDash(d.Category) + " · " + PortionsLabel(d.Portions)
}
