package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet holds a user's spendable and locked FC.
// LockedFC is the sum of that user's pending (confirmed, unreleased) investments.
type Wallet struct {
	ID        uint            `gorm:"primaryKey"`
	UserID    string          `gorm:"size:64;uniqueIndex;not null"`
	BalanceFC decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0"`
	LockedFC  decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CampaignEscrow holds investor funds for one campaign until release or refund.
type CampaignEscrow struct {
	ID              uint            `gorm:"primaryKey"`
	CampaignID      string          `gorm:"size:64;uniqueIndex;not null"`
	EscrowBalanceFC decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0"`
	ReleasedFC      decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (CampaignEscrow) TableName() string {
	return "campaign_wallets"
}

// TreasuryID is the primary key of the single platform treasury row.
const TreasuryID uint = 1

// PlatformTreasury is a singleton row. LockedFC follows aggregate escrow not yet released.
type PlatformTreasury struct {
	ID        uint            `gorm:"primaryKey"`
	BalanceFC decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0"`
	LockedFC  decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (PlatformTreasury) TableName() string {
	return "platform_wallet"
}
