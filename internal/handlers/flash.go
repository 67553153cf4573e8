package handlers

import (
	"net/http"

	"herbarium/internal/views/components"
	"herbarium/internal/views/layout"
)

const (
	sessionFlashKindKey    = "flash:kind"
	sessionFlashMessageKey = "flash:message"
)

// setFlash stores a message to show on the next rendered page.
func setFlash(r *http.Request, kind components.FlashKind, message string) {
	if sessionManager == nil {
		return
	}
	sessionManager.Put(r.Context(), sessionFlashKindKey, string(kind))
	sessionManager.Put(r.Context(), sessionFlashMessageKey, message)
}

func popFlash(r *http.Request) components.Flash {
	if sessionManager == nil {
		return components.Flash{}
	}
	return components.Flash{
		Kind:    components.FlashKind(sessionManager.PopString(r.Context(), sessionFlashKindKey)),
		Message: sessionManager.PopString(r.Context(), sessionFlashMessageKey),
	}
}

// pageChrome collects the per-request layout state: the signed-in user and
// any pending flash message.
func pageChrome(r *http.Request, title, active string) layout.Page {
	page := layout.Page{
		Title:  title,
		Active: active,
		Flash:  popFlash(r),
	}
	if ActiveSession(r) {
		page.SignedIn = true
		page.UserName = sessionManager.GetString(r.Context(), sessionUserNameKey)
	}
	return page
}
