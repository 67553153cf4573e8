package server

import (
	"context"
	"net/http"

	"herbarium/internal/cms"
	"herbarium/internal/handlers"
	applog "herbarium/internal/log"
)

const staticDir = "web/static"

func newRouter() http.Handler {
	mux := http.NewServeMux()
	ctx := context.Background()
	applog.Debug(ctx, "registering http routes")

	mux.HandleFunc("/healthz", handlers.Health)
	mux.HandleFunc("/login", handlers.Login)
	mux.HandleFunc("/signup", handlers.Signup)
	mux.HandleFunc("/logout", handlers.Logout)
	mux.HandleFunc("/password/reset", handlers.PasswordResetRequest)
	mux.HandleFunc("/password/reset/confirm", handlers.PasswordResetConfirm)
	applog.Debug(ctx, "route registered", "group", "accounts")

	// Each collection gets literal routes so they never overlap with the
	// fixed paths above. Formula detail is the formula page itself.
	for _, kind := range cms.Kinds {
		mux.HandleFunc("/"+string(kind), handlers.EntityIndex(kind))
		if kind == cms.KindFormulas {
			continue
		}
		mux.HandleFunc("/"+string(kind)+"/{id}", handlers.EntityDetail(kind))
	}
	applog.Debug(ctx, "route registered", "group", "catalog", "kinds", len(cms.Kinds))

	mux.HandleFunc("/formulas/{id}", handlers.FormulaPage)
	mux.HandleFunc("/formulas/{id}/contributions", handlers.SubmitContribution)
	mux.HandleFunc("/api/formulas/{id}/contributions", handlers.FormulaContributions)
	mux.HandleFunc("/api/herbs", handlers.HerbSearch)
	applog.Debug(ctx, "route registered", "group", "formulas")

	mux.Handle("/app/contributions", handlers.RequireAuthentication(http.HandlerFunc(handlers.MyContributions)))
	applog.Debug(ctx, "route registered", "path", "/app/contributions", "protected", true)

	mux.HandleFunc("/{$}", handlers.Home)
	mux.Handle("/assets/", http.StripPrefix("/assets/", http.FileServer(http.Dir(staticDir))))
	applog.Debug(ctx, "route registered", "path", "/assets/", "static", true)
	return mux
}
