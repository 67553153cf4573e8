package handlers

import (
	"net/http"
	"strings"

	applog "herbarium/internal/log"
	"herbarium/internal/views/components"
	"herbarium/internal/views/pages"
	"herbarium/models"
)

const loginFailedMessage = "We were unable to sign you in. Please try again."

// Login renders the sign-in form and processes submissions. A local path in
// the next query parameter, or one remembered by RequireAuthentication or a
// contribution attempt, is where the user lands after signing in.
func Login(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		rememberNextParam(r)
		if ActiveSession(r) {
			redirectToApp(w, r)
			return
		}
		message := ""
		if sessionManager != nil {
			message = sessionManager.PopString(r.Context(), sessionLoginMessageKey)
		}
		renderLogin(w, r, message, "")
	case http.MethodPost:
		if sessionManager == nil || database == nil {
			http.Error(w, "authentication not available", http.StatusServiceUnavailable)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form submission", http.StatusBadRequest)
			return
		}
		email := strings.TrimSpace(r.PostFormValue("email"))
		password := r.PostFormValue("password")
		if email == "" || password == "" {
			renderLogin(w, r, "Email and password are required.", email)
			return
		}

		if !authenticate(w, r, email, password) {
			applog.Debug(r.Context(), "sign in rejected", "email", models.NormalizeEmail(email))
			message := sessionManager.PopString(r.Context(), sessionLoginMessageKey)
			if message == "" {
				message = loginFailedMessage
			}
			renderLogin(w, r, message, email)
			return
		}

		name := sessionManager.GetString(r.Context(), sessionUserNameKey)
		applog.Info(r.Context(), "user signed in", "userID", sessionManager.GetInt(r.Context(), sessionUserIDKey))
		setFlash(r, components.FlashSuccess, "Welcome back, "+name+".")
		redirectToApp(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func renderLogin(w http.ResponseWriter, r *http.Request, message, email string) {
	if isHTMX(r) {
		renderComponentStatus(w, r, http.StatusOK, pages.LoginPartial(message, email))
		return
	}
	renderComponentStatus(w, r, http.StatusOK, pages.Login(message, email))
}

func redirectTo(w http.ResponseWriter, r *http.Request, target string) {
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	redirectTo(w, r, "/login")
}

// redirectToApp sends a freshly signed-in user back to the page that asked
// them to sign in, or to the home page.
func redirectToApp(w http.ResponseWriter, r *http.Request) {
	target := "/"
	if sessionManager != nil {
		if stored := sessionManager.PopString(r.Context(), sessionReturnToKey); safeReturnPath(stored) {
			target = stored
		}
	}
	redirectTo(w, r, target)
}

func rememberReturnPath(r *http.Request) {
	if r.Method != http.MethodGet {
		return
	}
	storeReturnPath(r, r.URL.RequestURI())
}

// rememberNextParam honours links such as /login?next=/formulas/f1.
func rememberNextParam(r *http.Request) {
	if next := strings.TrimSpace(r.URL.Query().Get("next")); next != "" {
		storeReturnPath(r, next)
	}
}

func storeReturnPath(r *http.Request, path string) {
	if sessionManager == nil || !safeReturnPath(path) {
		return
	}
	sessionManager.Put(r.Context(), sessionReturnToKey, path)
}

// safeReturnPath accepts only local absolute paths, never a scheme-relative
// or backslash-prefixed one that browsers would treat as another host.
func safeReturnPath(path string) bool {
	return strings.HasPrefix(path, "/") && !strings.HasPrefix(path, "//") && !strings.HasPrefix(path, "/\\")
}
