package database

import (
	"errors"
	"fmt"

	"github.com/JawadAsif77/fundchain-sub001/internal/models"

	"gorm.io/gorm"
)

// AutoMigrate runs database schema migrations for all models and seeds the
// platform treasury row.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Campaign{},
		&models.Milestone{},
		&models.Wallet{},
		&models.CampaignEscrow{},
		&models.PlatformTreasury{},
		&models.Investment{},
		&models.CampaignInvestment{},
		&models.CampaignInvestor{},
		&models.Transaction{},
		&models.TokenTransaction{},
		&models.ExternalPayment{},
		&models.AuditLog{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return EnsureTreasury(db)
}

// EnsureTreasury creates the singleton treasury row when it is missing.
func EnsureTreasury(db *gorm.DB) error {
	var t models.PlatformTreasury
	err := db.First(&t, models.TreasuryID).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("load treasury: %w", err)
	}
	if err := db.Create(&models.PlatformTreasury{ID: models.TreasuryID}).Error; err != nil {
		return fmt.Errorf("seed treasury: %w", err)
	}
	return nil
}
