package mock

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"herbarium/models"
)

func TestNewSeedsExpectedRecords(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, err := New(ctx)
	if err != nil {
		t.Fatalf("mock database initialization failed: %v", err)
	}

	var user models.User
	if err := db.WithContext(ctx).Where("email = ?", DemoEmail).First(&user).Error; err != nil {
		t.Fatalf("query user: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(DemoPassword)); err != nil {
		t.Fatalf("unexpected password hash: %v", err)
	}

	var receipts []models.ContributionReceipt
	if err := db.WithContext(ctx).Where("user_id = ?", user.ID).Find(&receipts).Error; err != nil {
		t.Fatalf("query receipts: %v", err)
	}
	if len(receipts) == 0 {
		t.Fatal("expected seeded contribution receipt")
	}
	if receipts[0].Status != "pending" {
		t.Fatalf("expected pending receipt, got %q", receipts[0].Status)
	}
}

func TestNewIsIdempotent(t *testing.T) {
	ctx := context.Background()
	if _, err := New(ctx); err != nil {
		t.Fatalf("first initialization failed: %v", err)
	}
	db, err := New(ctx)
	if err != nil {
		t.Fatalf("second initialization failed: %v", err)
	}

	var count int64
	if err := db.WithContext(ctx).Model(&models.User{}).Where("email = ?", DemoEmail).Count(&count).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one demo user, got %d", count)
	}
}
