// Package layout renders the HTML document shell shared by every page.
package layout

import "mise/internal/views/theme"

func bodyWrapperClass(hasNav bool, kitchenTheme theme.KitchenTheme) string {
	if hasNav {
		return kitchenTheme.ShellClass + " with-nav"
	}
	return kitchenTheme.ShellClass
}

func mainClass(hasNav bool) string {
	if hasNav {
		return "mx-auto max-w-5xl px-6 py-8"
	}
	return "mx-auto max-w-3xl px-4 py-6"
}
