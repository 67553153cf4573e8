package handlers

import (
	"net/http"
	"strings"

	"herbarium/internal/cms"
	applog "herbarium/internal/log"
	"herbarium/internal/views/pages"
)

// EntityIndex lists one catalog collection, optionally filtered by ?q=.
func EntityIndex(kind cms.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		query := strings.TrimSpace(r.URL.Query().Get("q"))
		page := pageChrome(r, kind.Label(), string(kind))

		if content == nil {
			renderComponentStatus(w, r, http.StatusServiceUnavailable,
				pages.EntityList(page, kind, nil, query, "The catalog is unavailable right now."))
			return
		}

		entities, err := content.ListEntities(r.Context(), kind, cms.ListQuery{Title: query})
		if err != nil {
			applog.Error(r.Context(), "failed to list entities", "kind", kind, "error", err)
			renderComponentStatus(w, r, http.StatusBadGateway,
				pages.EntityList(page, kind, nil, query, "The catalog is unavailable right now. Please try again shortly."))
			return
		}
		renderComponent(w, r, pages.EntityList(page, kind, entities, query, ""))
	}
}

// EntityDetail renders one catalog entity.
func EntityDetail(kind cms.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if content == nil {
			http.Error(w, "catalog not available", http.StatusServiceUnavailable)
			return
		}

		id := strings.TrimSpace(r.PathValue("id"))
		entity, err := content.GetEntity(r.Context(), kind, id)
		if err != nil {
			applog.Error(r.Context(), "failed to load entity", "kind", kind, "id", id, "error", err)
			http.Error(w, contentMessage(err, strings.TrimSuffix(string(kind), "s")), contentStatus(err))
			return
		}
		renderComponent(w, r, pages.EntityDetail(pageChrome(r, entity.Title, string(kind)), kind, entity))
	}
}

// HerbSearch serves the modification form's herb typeahead.
func HerbSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if content == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "herb search is not available")
		return
	}

	options, err := content.SearchHerbs(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		applog.Error(r.Context(), "herb search failed", "error", err)
		writeJSONError(w, http.StatusBadGateway, "Herb search is unavailable right now.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"herbs": options})
}
