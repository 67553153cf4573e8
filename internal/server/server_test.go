package server

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"herbarium/internal/cache"
	"herbarium/internal/config"
	"herbarium/internal/handlers"
	"herbarium/internal/mail"
	"herbarium/models"
)

func TestNewAppliesSessionDefaults(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:server_defaults?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	if err := db.Create(&models.User{Email: "user@example.com", PasswordHash: string(hash)}).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	cfg := Config{Addr: ":8080", Session: SessionConfig{CookieSecure: true}, Database: db}
	srv, err := New(cfg)
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}
	t.Cleanup(func() {
		handlers.Configure(nil, nil)
		srv.Stop()
	})

	if srv.httpServer.Addr != ":8080" {
		t.Fatalf("expected server addr :8080, got %q", srv.httpServer.Addr)
	}

	data := url.Values{}
	data.Set("email", "user@example.com")
	data.Set("password", "password123")
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(data.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	srv.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect after login, got %d", rr.Code)
	}
	cookies := rr.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected session cookie to be set")
	}
	if cookies[0].Name != "herbarium_session" {
		t.Fatalf("expected default session cookie name, got %q", cookies[0].Name)
	}
	if !cookies[0].Secure {
		t.Fatal("expected cookie secure flag to be true")
	}
}

func TestServerHandlerSetsRequestID(t *testing.T) {
	srv, err := New(Config{Addr: ":9090"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		handlers.Configure(nil, nil)
	})

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected /healthz to return 200, got %d", rr.Code)
	}
	if rr.Header().Get(requestIDHeader) == "" {
		t.Fatal("expected a generated request id")
	}

	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "probe-1")
	srv.Handler().ServeHTTP(rr, req)
	if got := rr.Header().Get(requestIDHeader); got != "probe-1" {
		t.Fatalf("expected caller request id to be echoed, got %q", got)
	}
}

func TestNewWiresCMSClient(t *testing.T) {
	cms := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/jsonapi/herbs" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.api+json")
		w.Write([]byte(`{"data":[{"id":"h1","type":"herbs","attributes":{"title":"Ginger"}}]}`))
	}))
	t.Cleanup(cms.Close)

	srv, err := New(Config{
		Addr:  ":9091",
		CMS:   config.CMSConfig{BaseURL: cms.URL, Timeout: time.Second},
		Cache: config.CacheConfig{TTL: time.Minute},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		handlers.Configure(nil, nil)
		handlers.ConfigureContent(nil, nil)
	})

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/herbs?q=gin", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected herb search to succeed, got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), `"title":"Ginger"`) {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}
}

func TestNewRejectsInvalidCMSURL(t *testing.T) {
	t.Cleanup(func() {
		handlers.Configure(nil, nil)
	})
	if _, err := New(Config{CMS: config.CMSConfig{BaseURL: "not a url"}}); err == nil {
		t.Fatal("expected invalid CMS URL to fail")
	}
}

func TestNewCacheFallsBackToMemory(t *testing.T) {
	store := newCache(t.Context(), config.CacheConfig{})
	if _, ok := store.(*cache.Memory); !ok {
		t.Fatalf("expected memory cache, got %T", store)
	}
}

func TestNewMailerSelection(t *testing.T) {
	sender, err := newMailer(config.MailConfig{})
	if err != nil {
		t.Fatalf("newMailer() error = %v", err)
	}
	if _, ok := sender.(mail.LogSender); !ok {
		t.Fatalf("expected log sender without api key, got %T", sender)
	}

	sender, err = newMailer(config.MailConfig{SendGridAPIKey: "key", FromEmail: "noreply@herbarium.test"})
	if err != nil {
		t.Fatalf("newMailer() error = %v", err)
	}
	if _, ok := sender.(*mail.SendGrid); !ok {
		t.Fatalf("expected sendgrid sender, got %T", sender)
	}
}
