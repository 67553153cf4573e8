package mock

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"herbarium/internal/contribution"
	applog "herbarium/internal/log"
	"herbarium/models"
)

const (
	// DemoEmail and DemoPassword sign in to the seeded account.
	DemoEmail    = "practitioner@herbarium.test"
	DemoPassword = "herbarium"
)

// New returns an in-memory sqlite database seeded with a demo practitioner
// account and one pending contribution receipt.
func New(ctx context.Context) (*gorm.DB, error) {
	applog.Debug(ctx, "initialising mock database")

	db, err := gorm.Open(sqlite.Open("file:herbarium-mock?mode=memory&cache=shared"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		PrepareStmt:                              true,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.PasswordReset{},
		&models.ContributionReceipt{},
	); err != nil {
		return nil, err
	}

	if err := seed(ctx, db); err != nil {
		return nil, err
	}

	applog.Debug(ctx, "mock database ready")
	return db, nil
}

func seed(ctx context.Context, db *gorm.DB) error {
	var existing int64
	if err := db.WithContext(ctx).Model(&models.User{}).Where("email = ?", DemoEmail).Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		return nil
	}

	applog.Debug(ctx, "seeding mock database")

	password, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := &models.User{
		Name:         "Mei Lin",
		Email:        DemoEmail,
		PasswordHash: string(password),
	}
	if err := db.WithContext(ctx).Create(user).Error; err != nil {
		return err
	}

	payload := contribution.Payload{
		ContributionType: contribution.TypeClinicalNote,
		FormulaID:        "si-jun-zi-tang",
		ClinicalNote:     "Patients with post-viral fatigue reported steadier energy after two weeks.",
	}
	receipt := models.NewContributionReceipt(user.ID, "Si Jun Zi Tang", contribution.Receipt{
		ID:          "seed-receipt",
		FormulaID:   payload.FormulaID,
		Type:        payload.ContributionType,
		Status:      contribution.StatusPending,
		SubmittedAt: time.Now().UTC().Add(-2 * time.Hour),
	}, payload)
	if err := db.WithContext(ctx).Create(&receipt).Error; err != nil {
		return err
	}

	applog.Debug(ctx, "mock database seeded")
	return nil
}
