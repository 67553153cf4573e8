package layout

import (
	"github.com/a-h/templ"

	"herbarium/internal/cms"
	"herbarium/internal/views/components"
)

// Page carries the chrome shared by every full page.
type Page struct {
	Title    string
	Active   string
	SignedIn bool
	UserName string
	Flash    components.Flash
}

// CatalogLinks builds the navigation entries for the browsable collections.
func CatalogLinks() []components.NavLink {
	links := make([]components.NavLink, 0, len(cms.Kinds))
	for _, kind := range cms.Kinds {
		links = append(links, components.NavLink{
			Label:   kind.Label(),
			Path:    "/" + string(kind),
			Section: string(kind),
		})
	}
	return links
}

func documentTitle(title string) string {
	if title == "" {
		return "Herbarium"
	}
	return title + " · Herbarium"
}

// Layout wraps content in the HTML document, navigation and flash banner.
func Layout(page Page, content templ.Component) templ.Component {
	return components.Render(func(w *components.Writer) {
		w.Raw("<!DOCTYPE html><html lang=\"en\"><head><meta charset=\"utf-8\"><meta name=\"viewport\" content=\"width=device-width, initial-scale=1\"><title>")
		w.Text(documentTitle(page.Title))
		w.Raw("</title><link rel=\"stylesheet\" href=\"/assets/site.css\"><script src=\"https://unpkg.com/htmx.org@1.9.12\" defer></script><script src=\"/assets/typeahead.js\" defer></script></head><body>")
		w.Component(components.Nav(components.NavData{
			Active:   page.Active,
			Links:    CatalogLinks(),
			SignedIn: page.SignedIn,
			UserName: page.UserName,
		}))
		w.Raw("<main id=\"content\" class=\"page\">")
		w.Component(components.FlashBanner(page.Flash))
		w.Component(content)
		w.Raw("</main></body></html>")
	})
}
