package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	applog "herbarium/internal/log"
	"herbarium/internal/mail"
	"herbarium/internal/views/components"
	"herbarium/internal/views/pages"
	"herbarium/models"
)

const resetRequestedMessage = "If an account exists for that address, we've emailed a link to reset the password."

var now = func() time.Time { return time.Now().UTC() }

// PasswordResetRequest asks for an email address and sends a reset link. The
// response never reveals whether the account exists.
func PasswordResetRequest(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		renderComponent(w, r, pages.PasswordResetRequest(pageChrome(r, "Reset password", ""), "", ""))
	case http.MethodPost:
		if database == nil {
			http.Error(w, "password reset not available", http.StatusServiceUnavailable)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form submission", http.StatusBadRequest)
			return
		}
		email := strings.TrimSpace(r.PostFormValue("email"))
		if email == "" || !strings.Contains(email, "@") {
			renderComponentStatus(w, r, http.StatusUnprocessableEntity,
				pages.PasswordResetRequest(pageChrome(r, "Reset password", ""), "Please provide a valid email address.", email))
			return
		}

		if err := issuePasswordReset(r, email); err != nil {
			applog.Error(r.Context(), "failed to issue password reset", "error", err)
		}

		setFlash(r, components.FlashInfo, resetRequestedMessage)
		redirectToLogin(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func issuePasswordReset(r *http.Request, email string) error {
	user, err := findUserByEmail(r, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		applog.Debug(r.Context(), "password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}

	reset := models.NewPasswordReset(user.ID, passwordResetTTL, now())
	if err := database.WithContext(r.Context()).Create(&reset).Error; err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	link := publicBaseURL + "/password/reset/confirm?token=" + url.QueryEscape(reset.Token)
	msg := mail.Message{
		To:      user.Email,
		Subject: "Reset your Herbarium password",
		Text: fmt.Sprintf("Hello %s,\n\nUse the link below within %s to choose a new password:\n\n%s\n\nIf you didn't ask for this, you can ignore this email.\n",
			user.DisplayName(), passwordResetTTL, link),
	}
	if err := mailer.Send(r.Context(), msg); err != nil {
		return fmt.Errorf("send reset email: %w", err)
	}
	applog.Info(r.Context(), "password reset issued", "userID", user.ID)
	return nil
}

// PasswordResetConfirm lets the holder of a valid token set a new password.
func PasswordResetConfirm(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		token := strings.TrimSpace(r.URL.Query().Get("token"))
		if _, err := findUsableReset(r, token); err != nil {
			setFlash(r, components.FlashError, "That reset link is invalid or has expired. Please request a new one.")
			redirectTo(w, r, "/password/reset")
			return
		}
		renderComponent(w, r, pages.PasswordResetConfirm(pageChrome(r, "Choose a new password", ""), token, ""))
	case http.MethodPost:
		if database == nil {
			http.Error(w, "password reset not available", http.StatusServiceUnavailable)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form submission", http.StatusBadRequest)
			return
		}
		token := strings.TrimSpace(r.PostFormValue("token"))
		password := r.PostFormValue("password")
		confirm := r.PostFormValue("confirm_password")

		reset, err := findUsableReset(r, token)
		if err != nil {
			setFlash(r, components.FlashError, "That reset link is invalid or has expired. Please request a new one.")
			redirectTo(w, r, "/password/reset")
			return
		}

		message := ""
		switch {
		case len(password) < minPasswordLength:
			message = passwordLengthMessage
		case password != confirm:
			message = "Passwords do not match."
		}
		if message != "" {
			renderComponentStatus(w, r, http.StatusUnprocessableEntity,
				pages.PasswordResetConfirm(pageChrome(r, "Choose a new password", ""), token, message))
			return
		}

		if err := completePasswordReset(r, reset, password); err != nil {
			applog.Error(r.Context(), "failed to complete password reset", "error", err)
			renderComponentStatus(w, r, http.StatusInternalServerError,
				pages.PasswordResetConfirm(pageChrome(r, "Choose a new password", ""), token, "We couldn't update your password. Please try again."))
			return
		}

		setFlash(r, components.FlashSuccess, "Your password has been updated. Please sign in.")
		redirectToLogin(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

var errResetUnusable = errors.New("password reset token is invalid, used or expired")

func findUsableReset(r *http.Request, token string) (*models.PasswordReset, error) {
	if database == nil {
		return nil, gorm.ErrInvalidDB
	}
	if token == "" {
		return nil, errResetUnusable
	}
	reset := &models.PasswordReset{}
	if err := database.WithContext(r.Context()).Where("token = ?", token).First(reset).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errResetUnusable
		}
		return nil, err
	}
	if !reset.Usable(now()) {
		return nil, errResetUnusable
	}
	return reset, nil
}

// completePasswordReset updates the hash and burns the token in one
// transaction so a token can never be used twice.
func completePasswordReset(r *http.Request, reset *models.PasswordReset, password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	usedAt := now()
	return database.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.PasswordReset{}).
			Where("id = ? AND used_at IS NULL", reset.ID).
			Update("used_at", usedAt)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errResetUnusable
		}
		return tx.Model(&models.User{}).Where("id = ?", reset.UserID).Update("password_hash", string(hashed)).Error
	})
}
