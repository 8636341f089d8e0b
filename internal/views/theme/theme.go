package theme

import "strings"

// Option represents a selectable theme exposed to the UI.
type Option struct {
	Value string
	Label string
}

// KitchenTheme contains resolved styling primitives for the application shell.
type KitchenTheme struct {
	Key            string
	BodyClass      string
	ShellClass     string
	PanelClass     string
	AccentClass    string
	MutedTextClass string
}

const (
	// DefaultKey is used for back-office pages.
	DefaultKey = "prep"
	// ServiceKey is the high-contrast theme used at the pass while cooking.
	ServiceKey = "service"
	// PrintKey strips colour for printed recipe cards.
	PrintKey = "print"
)

var catalogue = map[string]KitchenTheme{
	DefaultKey: {
		Key:            DefaultKey,
		BodyClass:      "min-h-screen bg-stone-50 text-stone-900",
		ShellClass:     "kitchen-shell light",
		PanelClass:     "kitchen-panel",
		AccentClass:    "text-emerald-700",
		MutedTextClass: "text-stone-500",
	},
	ServiceKey: {
		Key:            ServiceKey,
		BodyClass:      "min-h-screen bg-black text-white text-2xl",
		ShellClass:     "kitchen-shell service",
		PanelClass:     "kitchen-panel-contrast",
		AccentClass:    "text-amber-300",
		MutedTextClass: "text-zinc-400",
	},
	PrintKey: {
		Key:            PrintKey,
		BodyClass:      "bg-white text-black",
		ShellClass:     "kitchen-shell print",
		PanelClass:     "kitchen-panel-print",
		AccentClass:    "font-semibold",
		MutedTextClass: "text-gray-600",
	},
}

var options = []Option{
	{Value: DefaultKey, Label: "Prep (Light)"},
	{Value: ServiceKey, Label: "Service (High contrast)"},
	{Value: PrintKey, Label: "Print"},
}

// Resolve returns the registered theme for key, falling back to DefaultKey.
func Resolve(key string) KitchenTheme {
	normalized := strings.ToLower(strings.TrimSpace(key))
	if value, ok := catalogue[normalized]; ok {
		return value
	}
	return catalogue[DefaultKey]
}

// Options exposes the available themes in display order.
func Options() []Option {
	return options
}
