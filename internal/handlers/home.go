package handlers

import (
	"net/http"

	"herbarium/internal/views/pages"
)

// Home renders the landing page.
func Home(w http.ResponseWriter, r *http.Request) {
	renderComponent(w, r, pages.Home(pageChrome(r, "", "")))
}
