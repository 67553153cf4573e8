package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/alexedwards/scs/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"herbarium/models"
)

func withTestSessionManager(t *testing.T) (*scs.SessionManager, func()) {
	t.Helper()
	original := sessionManager
	sm := scs.New()
	sessionManager = sm
	return sm, func() {
		sessionManager = original
	}
}

func withTestDatabase(t *testing.T) (*gorm.DB, func()) {
	t.Helper()
	original := database
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.PasswordReset{}, &models.ContributionReceipt{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	database = db
	return db, func() {
		database = original
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}
}

// sessionRequest builds a request whose context carries a loaded session.
func sessionRequest(t *testing.T, sm *scs.SessionManager, method, target string, body *strings.Reader) *http.Request {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, body)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	ctx, err := sm.Load(req.Context(), "")
	if err != nil {
		t.Fatalf("failed to load session context: %v", err)
	}
	return req.WithContext(ctx)
}

func formRequest(t *testing.T, sm *scs.SessionManager, target string, values url.Values) *http.Request {
	t.Helper()
	req := sessionRequest(t, sm, http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func authenticateRequest(sm *scs.SessionManager, req *http.Request, userID int, name string) {
	sm.Put(req.Context(), sessionAuthenticatedKey, true)
	sm.Put(req.Context(), sessionUserIDKey, userID)
	sm.Put(req.Context(), sessionUserNameKey, name)
}

func TestIsHTMX(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if isHTMX(req) {
		t.Fatal("expected false when no HTMX headers present")
	}
	req.Header.Set("HX-Request", "true")
	if !isHTMX(req) {
		t.Fatal("expected true when HX-Request header present")
	}
}

func TestSafeReturnPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want bool
	}{
		{"/formulas/abc", true},
		{"/", true},
		{"", false},
		{"//evil.example.com", false},
		{"/\\evil.example.com", false},
		{"https://evil.example.com", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			if got := safeReturnPath(tt.path); got != tt.want {
				t.Fatalf("safeReturnPath(%q) = %t, want %t", tt.path, got, tt.want)
			}
		})
	}
}

func TestActiveSession(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if ActiveSession(req) {
		t.Fatal("expected inactive session when manager is nil")
	}

	sm, cleanup := withTestSessionManager(t)
	t.Cleanup(cleanup)

	req = sessionRequest(t, sm, http.MethodGet, "/", nil)
	authenticateRequest(sm, req, 42, "Mei")

	if !ActiveSession(req) {
		t.Fatal("expected active session when flags are set")
	}
}

func TestCurrentUserID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := currentUserID(req); ok {
		t.Fatal("expected currentUserID to fail without session manager")
	}

	sm, cleanup := withTestSessionManager(t)
	t.Cleanup(cleanup)

	req = sessionRequest(t, sm, http.MethodGet, "/", nil)
	if _, ok := currentUserID(req); ok {
		t.Fatal("expected false when user id not set")
	}

	sm.Put(req.Context(), sessionUserIDKey, 7)
	id, ok := currentUserID(req)
	if !ok || id != 7 {
		t.Fatalf("expected user id 7, got %d (ok=%t)", id, ok)
	}
}

func TestCurrentAuthor(t *testing.T) {
	sm, cleanup := withTestSessionManager(t)
	t.Cleanup(cleanup)

	req := sessionRequest(t, sm, http.MethodGet, "/", nil)
	if author := currentAuthor(req); author != nil {
		t.Fatalf("expected no author for anonymous request, got %+v", author)
	}

	authenticateRequest(sm, req, 12, "Mei Lin")
	author := currentAuthor(req)
	if author == nil || author.ID != "12" || author.Name != "Mei Lin" {
		t.Fatalf("unexpected author %+v", author)
	}
}

func TestEstablishSession(t *testing.T) {
	sm, cleanup := withTestSessionManager(t)
	t.Cleanup(cleanup)

	req := sessionRequest(t, sm, http.MethodGet, "/", nil)

	user := &models.User{Model: gorm.Model{ID: 3}, Email: "user@example.com"}
	if err := establishSession(req, user); err != nil {
		t.Fatalf("establishSession returned error: %v", err)
	}

	if !sm.GetBool(req.Context(), sessionAuthenticatedKey) {
		t.Fatal("expected session authenticated flag to be true")
	}
	if got := sm.GetInt(req.Context(), sessionUserIDKey); got != 3 {
		t.Fatalf("expected session user id 3, got %d", got)
	}
	if got := sm.GetString(req.Context(), sessionUserEmailKey); got != "user@example.com" {
		t.Fatalf("unexpected email %q", got)
	}
	if got := sm.GetString(req.Context(), sessionUserNameKey); got != "user" {
		t.Fatalf("expected display name fallback, got %q", got)
	}
}

func TestEstablishSessionWithoutManager(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if err := establishSession(req, &models.User{}); err == nil {
		t.Fatal("expected error when session manager is nil")
	}
}

func TestCreateUser(t *testing.T) {
	db, dbCleanup := withTestDatabase(t)
	t.Cleanup(dbCleanup)

	req := httptest.NewRequest(http.MethodPost, "/signup", nil)
	user, err := createUser(req, "Example@Email.com", "  Test User  ", "password123")
	if err != nil {
		t.Fatalf("createUser returned error: %v", err)
	}
	if user.Email != "example@email.com" {
		t.Fatalf("expected email to be lowercased, got %q", user.Email)
	}
	if user.Name != "Test User" {
		t.Fatalf("expected trimmed name, got %q", user.Name)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password123")); err != nil {
		t.Fatalf("password hash does not match original: %v", err)
	}

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", "example@email.com").Count(&count).Error; err != nil || count != 1 {
		t.Fatalf("expected user persisted, count=%d err=%v", count, err)
	}
}

func TestCreateUserWithoutDatabase(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/signup", nil)
	if _, err := createUser(req, "test@example.com", "User", "password"); !errors.Is(err, gorm.ErrInvalidDB) {
		t.Fatalf("expected ErrInvalidDB, got %v", err)
	}
}

func TestFindUserByEmail(t *testing.T) {
	_, dbCleanup := withTestDatabase(t)
	t.Cleanup(dbCleanup)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := findUserByEmail(req, "missing@example.com"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound for missing user, got %v", err)
	}

	if _, err := createUser(req, "user@example.com", "User", "password123"); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	user, err := findUserByEmail(req, "USER@example.com")
	if err != nil {
		t.Fatalf("findUserByEmail returned error: %v", err)
	}
	if user.Email != "user@example.com" {
		t.Fatalf("expected lowercase email, got %q", user.Email)
	}
}

func TestAuthenticate(t *testing.T) {
	sm, smCleanup := withTestSessionManager(t)
	t.Cleanup(smCleanup)
	_, dbCleanup := withTestDatabase(t)
	t.Cleanup(dbCleanup)

	req := sessionRequest(t, sm, http.MethodPost, "/login", nil)
	w := httptest.NewRecorder()

	if _, err := createUser(req, "user@example.com", "User", "password123"); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	if ok := authenticate(w, req, "user@example.com", "password123"); !ok {
		t.Fatal("expected authentication to succeed")
	}
	if !sm.GetBool(req.Context(), sessionAuthenticatedKey) {
		t.Fatal("expected session authenticated flag to be true")
	}

	w = httptest.NewRecorder()
	if ok := authenticate(w, req, "user@example.com", "wrong"); ok {
		t.Fatal("expected authentication failure with bad password")
	}
	if message := sm.PopString(req.Context(), sessionLoginMessageKey); message == "" {
		t.Fatal("expected login failure message to be set")
	}
}

func TestLoginFlowRedirectsToStoredPath(t *testing.T) {
	sm, smCleanup := withTestSessionManager(t)
	t.Cleanup(smCleanup)
	_, dbCleanup := withTestDatabase(t)
	t.Cleanup(dbCleanup)

	seed := httptest.NewRequest(http.MethodPost, "/signup", nil)
	if _, err := createUser(seed, "mei@example.com", "Mei", "password123"); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	req := formRequest(t, sm, "/login", url.Values{"email": {"mei@example.com"}, "password": {"password123"}})
	sm.Put(req.Context(), sessionReturnToKey, "/formulas/f1")
	w := httptest.NewRecorder()
	Login(w, req)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 after login, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/formulas/f1" {
		t.Fatalf("expected redirect to stored path, got %q", loc)
	}
	if flash := popFlash(req); !strings.Contains(flash.Message, "Welcome back, Mei") {
		t.Fatalf("expected welcome flash, got %+v", flash)
	}
}

func TestLoginRemembersNextParameter(t *testing.T) {
	sm, smCleanup := withTestSessionManager(t)
	t.Cleanup(smCleanup)

	tests := []struct {
		name   string
		target string
		want   string
	}{
		{"local formula path", "/login?next=%2Fformulas%2Ff1", "/formulas/f1"},
		{"scheme relative", "/login?next=%2F%2Fevil.example", ""},
		{"absolute url", "/login?next=https%3A%2F%2Fevil.example%2F", ""},
		{"no parameter", "/login", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := sessionRequest(t, sm, http.MethodGet, tt.target, nil)
			w := httptest.NewRecorder()
			Login(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("expected login form, got %d", w.Code)
			}
			if got := sm.GetString(req.Context(), sessionReturnToKey); got != tt.want {
				t.Fatalf("stored return path = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoginRedirectsSignedInVisitorToNext(t *testing.T) {
	sm, smCleanup := withTestSessionManager(t)
	t.Cleanup(smCleanup)

	req := sessionRequest(t, sm, http.MethodGet, "/login?next=%2Fapp%2Fcontributions", nil)
	authenticateRequest(sm, req, 3, "Mei")
	w := httptest.NewRecorder()
	Login(w, req)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect for an active session, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/app/contributions" {
		t.Fatalf("expected redirect to next path, got %q", loc)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	sm, smCleanup := withTestSessionManager(t)
	t.Cleanup(smCleanup)
	_, dbCleanup := withTestDatabase(t)
	t.Cleanup(dbCleanup)

	req := formRequest(t, sm, "/login", url.Values{"email": {"nobody@example.com"}, "password": {"password123"}})
	w := httptest.NewRecorder()
	Login(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected form to be re-rendered, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Invalid email or password") {
		t.Fatalf("expected failure message in body: %s", w.Body.String())
	}
}

func TestSignupCreatesAccountAndSession(t *testing.T) {
	sm, smCleanup := withTestSessionManager(t)
	t.Cleanup(smCleanup)
	db, dbCleanup := withTestDatabase(t)
	t.Cleanup(dbCleanup)

	req := formRequest(t, sm, "/signup", url.Values{
		"name":             {"Mei Lin"},
		"email":            {"Mei@Example.com"},
		"password":         {"password123"},
		"confirm_password": {"password123"},
	})
	w := httptest.NewRecorder()
	Signup(w, req)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect after signup, got %d: %s", w.Code, w.Body.String())
	}
	if !ActiveSession(req) {
		t.Fatal("expected session after signup")
	}
	var user models.User
	if err := db.Where("email = ?", "mei@example.com").First(&user).Error; err != nil {
		t.Fatalf("expected user to be stored: %v", err)
	}
}

func TestSignupValidatesPasswords(t *testing.T) {
	sm, smCleanup := withTestSessionManager(t)
	t.Cleanup(smCleanup)
	_, dbCleanup := withTestDatabase(t)
	t.Cleanup(dbCleanup)

	req := formRequest(t, sm, "/signup", url.Values{
		"email":            {"mei@example.com"},
		"password":         {"short"},
		"confirm_password": {"short"},
	})
	w := httptest.NewRecorder()
	Signup(w, req)

	if !strings.Contains(w.Body.String(), passwordLengthMessage) {
		t.Fatalf("expected password length message: %s", w.Body.String())
	}
}

func TestRequireAuthenticationRemembersPath(t *testing.T) {
	sm, cleanup := withTestSessionManager(t)
	t.Cleanup(cleanup)

	called := false
	handler := RequireAuthentication(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := sessionRequest(t, sm, http.MethodGet, "/app/contributions", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if called {
		t.Fatal("expected protected handler not to run")
	}
	if loc := w.Header().Get("Location"); loc != "/login" {
		t.Fatalf("expected redirect to /login, got %q", loc)
	}
	if stored := sm.GetString(req.Context(), sessionReturnToKey); stored != "/app/contributions" {
		t.Fatalf("expected return path to be stored, got %q", stored)
	}
}

func TestRedirectToLogin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/app/contributions", nil)
	req.Header.Set("HX-Request", "true")
	w := httptest.NewRecorder()
	redirectToLogin(w, req)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 for HTMX redirect, got %d", w.Code)
	}
	if w.Header().Get("HX-Redirect") != "/login" {
		t.Fatalf("expected HX-Redirect header to be set")
	}

	req = httptest.NewRequest(http.MethodGet, "/app/contributions", nil)
	w = httptest.NewRecorder()
	redirectToLogin(w, req)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 redirect, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/login" {
		t.Fatalf("expected redirect to /login, got %q", loc)
	}
}

func TestRedirectToAppDefaultsHome(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.Header.Set("HX-Boosted", "true")
	w := httptest.NewRecorder()
	redirectToApp(w, req)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 status, got %d", w.Code)
	}
	if w.Header().Get("HX-Redirect") != "/" {
		t.Fatalf("expected HX-Redirect header to point home")
	}
}

func TestLogoutDestroysSession(t *testing.T) {
	sm, cleanup := withTestSessionManager(t)
	t.Cleanup(cleanup)

	req := sessionRequest(t, sm, http.MethodPost, "/logout", nil)
	authenticateRequest(sm, req, 5, "Mei")
	w := httptest.NewRecorder()
	Logout(w, req)

	if ActiveSession(req) {
		t.Fatal("expected session to be cleared")
	}
	if loc := w.Header().Get("Location"); loc != "/login" {
		t.Fatalf("expected redirect to /login, got %q", loc)
	}
}
