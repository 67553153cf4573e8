package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PasswordReset is a single-use token that lets a user choose a new password.
type PasswordReset struct {
	gorm.Model
	Token     string `gorm:"uniqueIndex;not null"`
	UserID    uint   `gorm:"index;not null"`
	ExpiresAt time.Time
	UsedAt    *time.Time
}

// NewPasswordReset issues a fresh token for the user valid for ttl.
func NewPasswordReset(userID uint, ttl time.Duration, now time.Time) PasswordReset {
	return PasswordReset{
		Token:     uuid.NewString(),
		UserID:    userID,
		ExpiresAt: now.Add(ttl).UTC(),
	}
}

// Usable reports whether the token is unused and unexpired at now.
func (p PasswordReset) Usable(now time.Time) bool {
	return p.UsedAt == nil && now.Before(p.ExpiresAt)
}
