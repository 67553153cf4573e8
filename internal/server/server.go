package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"herbarium/internal/cache"
	"herbarium/internal/cms"
	"herbarium/internal/config"
	"herbarium/internal/handlers"
	applog "herbarium/internal/log"
	"herbarium/internal/mail"
)

const requestIDHeader = "X-Request-ID"

// Config captures the runtime configuration for the HTTP server.
type Config struct {
	Addr             string
	BaseURL          string
	Session          SessionConfig
	Database         *gorm.DB
	CMS              config.CMSConfig
	Cache            config.CacheConfig
	Mail             config.MailConfig
	PasswordResetTTL time.Duration
}

// SessionConfig controls session behavior for the HTTP server.
type SessionConfig struct {
	Lifetime     time.Duration
	CookieName   string
	CookieDomain string
	CookieSecure bool
}

// Server wraps an http.Server together with the CMS cache it owns.
type Server struct {
	config     Config
	httpServer *http.Server
	cache      cache.Store
}

// New builds a new Server using the provided configuration. An empty CMS base
// URL leaves the catalog unconfigured; its pages then report being
// unavailable.
func New(cfg Config) (*Server, error) {
	ctx := context.Background()
	applog.Debug(ctx, "initializing server",
		"addr", cfg.Addr,
		"sessionLifetime", cfg.Session.Lifetime.String(),
		"sessionCookie", cfg.Session.CookieName,
		"cmsBaseURL", cfg.CMS.BaseURL,
	)

	sessionCfg := cfg.Session
	if sessionCfg.Lifetime <= 0 {
		applog.Debug(ctx, "session lifetime not provided, using default")
		sessionCfg.Lifetime = 12 * time.Hour
	}
	if strings.TrimSpace(sessionCfg.CookieName) == "" {
		applog.Debug(ctx, "session cookie name not provided, using default")
		sessionCfg.CookieName = "herbarium_session"
	}

	sessionManager := scs.New()
	sessionManager.Lifetime = sessionCfg.Lifetime
	sessionManager.Cookie.Name = sessionCfg.CookieName
	sessionManager.Cookie.Domain = sessionCfg.CookieDomain
	sessionManager.Cookie.HttpOnly = true
	sessionManager.Cookie.Persist = true
	sessionManager.Cookie.SameSite = http.SameSiteLaxMode
	sessionManager.Cookie.Secure = sessionCfg.CookieSecure

	handlers.Configure(sessionManager, cfg.Database)

	store := newCache(ctx, cfg.Cache)
	if strings.TrimSpace(cfg.CMS.BaseURL) != "" {
		client, err := cms.NewClient(cms.Config{
			BaseURL:       cfg.CMS.BaseURL,
			Timeout:       cfg.CMS.Timeout,
			SigningSecret: cfg.CMS.SigningSecret,
			TokenTTL:      cfg.CMS.TokenTTL,
			Cache:         store,
			CacheTTL:      cfg.Cache.TTL,
		})
		if err != nil {
			store.Close()
			return nil, err
		}
		handlers.ConfigureContent(client, client)
		applog.Debug(ctx, "cms client configured", "baseURL", cfg.CMS.BaseURL, "signing", cfg.CMS.SigningSecret != "")
	} else {
		handlers.ConfigureContent(nil, nil)
		applog.Warn(ctx, "cms base url not set; catalog pages are disabled")
	}

	sender, err := newMailer(cfg.Mail)
	if err != nil {
		store.Close()
		return nil, err
	}
	handlers.ConfigureAccounts(sender, cfg.BaseURL, cfg.PasswordResetTTL)

	applog.Debug(ctx, "handler dependencies configured")

	handler := withRequestID(sessionManager.LoadAndSave(newRouter()))

	return &Server{
		config: cfg,
		cache:  store,
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

// newCache prefers Redis and falls back to the in-process cache when Redis
// is not configured or cannot be reached.
func newCache(ctx context.Context, cfg config.CacheConfig) cache.Store {
	if strings.TrimSpace(cfg.RedisAddr) == "" {
		return cache.NewMemory(cfg.MaxEntries)
	}
	store, err := cache.NewRedis(ctx, cache.RedisConfig{Addr: cfg.RedisAddr, DB: cfg.RedisDB, Prefix: cfg.Prefix})
	if err != nil {
		applog.Error(ctx, "redis unavailable, using in-process cache", "addr", cfg.RedisAddr, "error", err)
		return cache.NewMemory(cfg.MaxEntries)
	}
	applog.Info(ctx, "cms cache backed by redis", "addr", cfg.RedisAddr)
	return store
}

func newMailer(cfg config.MailConfig) (mail.Sender, error) {
	if strings.TrimSpace(cfg.SendGridAPIKey) == "" {
		return mail.LogSender{}, nil
	}
	return mail.NewSendGrid(mail.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		BaseURL:   cfg.SendGridBaseURL,
		FromEmail: cfg.FromEmail,
		FromName:  cfg.FromName,
	})
}

// withRequestID tags each request with an id, reusing the caller's when it
// sent one, and echoes it back in the response.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(applog.WithRequestID(r.Context(), id)))
	})
}

// Start begins serving HTTP traffic using the underlying http.Server.
func (s *Server) Start() error {
	applog.Debug(context.Background(), "server starting listener", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts down the HTTP server with a timeout and releases
// the cache connection.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	applog.Debug(ctx, "server initiating graceful shutdown")
	err := s.httpServer.Shutdown(ctx)
	if s.cache != nil {
		err = errors.Join(err, s.cache.Close())
	}
	return err
}

// Handler exposes the configured HTTP handler, enabling integration tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
