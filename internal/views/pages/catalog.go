package pages

import (
	"net/url"
	"sort"

	"github.com/a-h/templ"

	"herbarium/internal/cms"
	"herbarium/internal/views/components"
	"herbarium/internal/views/layout"
)

// Home renders the landing page with links into each collection.
func Home(page layout.Page) templ.Component {
	return layout.Layout(page, components.Render(func(w *components.Writer) {
		w.Raw("<section class=\"home\"><h1>Herbarium</h1><p>Browse herbs, classical formulas and the practitioners who use them.</p><ul class=\"home__kinds\">")
		for _, link := range layout.CatalogLinks() {
			w.Raw("<li><a")
			w.Attr("href", link.Path)
			w.Raw(">")
			w.Text(link.Label)
			w.Raw("</a></li>")
		}
		w.Raw("</ul></section>")
	}))
}

// EntityList renders one page of a collection with a title filter.
func EntityList(page layout.Page, kind cms.Kind, entities []cms.Entity, query, loadError string) templ.Component {
	return layout.Layout(page, components.Render(func(w *components.Writer) {
		w.Raw("<section class=\"catalog\"><h1>")
		w.Text(kind.Label())
		w.Raw("</h1><form method=\"get\" class=\"catalog__filter\"><input type=\"search\" name=\"q\" placeholder=\"Filter by name\"")
		w.Attr("value", query)
		w.Raw("><button type=\"submit\">Filter</button></form>")

		switch {
		case loadError != "":
			w.Component(components.EmptyState(loadError))
		case len(entities) == 0:
			w.Component(components.EmptyState("Nothing matches yet."))
		default:
			w.Raw("<ul class=\"catalog__items\">")
			for _, entity := range entities {
				w.Raw("<li><a")
				w.Attr("href", entityPath(kind, entity.ID))
				w.Raw(">")
				w.Text(DefaultDash(entity.Title))
				w.Raw("</a>")
				if entity.Summary != "" {
					w.Raw("<p>")
					w.Text(entity.Summary)
					w.Raw("</p>")
				}
				w.Raw("</li>")
			}
			w.Raw("</ul>")
		}
		w.Raw("</section>")
	}))
}

// EntityDetail renders a single catalog entity. Body is CMS-filtered HTML.
func EntityDetail(page layout.Page, kind cms.Kind, entity cms.Entity) templ.Component {
	return layout.Layout(page, components.Render(func(w *components.Writer) {
		w.Raw("<article class=\"entity\"")
		w.Attr("data-kind", string(kind))
		w.Raw("><p class=\"entity__kind\"><a")
		w.Attr("href", "/"+string(kind))
		w.Raw(">")
		w.Text(kind.Label())
		w.Raw("</a></p><h1>")
		w.Text(DefaultDash(entity.Title))
		w.Raw("</h1>")
		if entity.Summary != "" {
			w.Raw("<p class=\"entity__summary\">")
			w.Text(entity.Summary)
			w.Raw("</p>")
		}
		if entity.Body != "" {
			w.Raw("<div class=\"entity__body\">")
			w.Raw(entity.Body)
			w.Raw("</div>")
		}
		relationshipLinks(w, entity)
		w.Raw("</article>")
	}))
}

func relationshipLinks(w *components.Writer, entity cms.Entity) {
	names := make([]string, 0, len(entity.Relationships))
	for name := range entity.Relationships {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ids := entity.Relationships[name]
		var links []cms.Identifier
		for _, id := range ids {
			if _, ok := cms.ParseKind(id.Type); ok && id.ID != "" {
				links = append(links, id)
			}
		}
		if len(links) == 0 {
			continue
		}
		kind, _ := cms.ParseKind(links[0].Type)
		w.Raw("<section class=\"entity__related\"><h2>")
		w.Text(kind.Label())
		w.Raw("</h2><ul>")
		for _, link := range links {
			linked, _ := cms.ParseKind(link.Type)
			w.Raw("<li><a")
			w.Attr("href", entityPath(linked, link.ID))
			w.Raw(">")
			w.Text(link.ID)
			w.Raw("</a></li>")
		}
		w.Raw("</ul></section>")
	}
}

func entityPath(kind cms.Kind, id string) string {
	return "/" + string(kind) + "/" + url.PathEscape(id)
}
