// Package components holds small reusable fragments shared by pages.
package components

// NavLink is one entry of the application navigation.
type NavLink struct {
	Label   string
	Path    string
	Section string
}

// NavData drives the top navigation bar.
type NavData struct {
	Active      string
	KitchenName string
	UserName    string
	Links       []NavLink
}

// DefaultNavLinks lists the sections available to every signed-in user.
func DefaultNavLinks() []NavLink {
	return []NavLink{
		{Label: "Recipes", Path: "/app", Section: "recipes"},
		{Label: "Ingredients", Path: "/app/api/ingredients", Section: "ingredients"},
	}
}

func linkState(section, active string) string {
	if section == active {
		return "active"
	}
	return "inactive"
}
