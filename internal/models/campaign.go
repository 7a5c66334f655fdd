package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	CampaignDraft     = "draft"
	CampaignActive    = "active"
	CampaignFunded    = "funded"
	CampaignCompleted = "completed"
	CampaignFailed    = "failed"
	CampaignCancelled = "cancelled"
)

// Campaign is owned by the campaign-management subsystem. The ledger reads
// Status and CreatorID and bumps the funding counters.
type Campaign struct {
	ID             string          `gorm:"primaryKey;size:64"`
	CreatorID      string          `gorm:"size:64;index;not null"`
	Title          string          `gorm:"size:255"`
	Status         string          `gorm:"size:16;index;not null;default:draft"`
	CurrentFunding decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0"`
	TotalRaised    decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0"`
	InvestorCount  int             `gorm:"not null;default:0"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsTerminal reports whether the campaign can no longer move escrow.
func (c *Campaign) IsTerminal() bool {
	return c.Status == CampaignFailed || c.Status == CampaignCancelled
}

type Milestone struct {
	ID              string `gorm:"primaryKey;size:64"`
	CampaignID      string `gorm:"size:64;index;not null"`
	Title           string `gorm:"size:255"`
	IsCompleted     bool   `gorm:"not null;default:false"`
	CompletionDate  *time.Time
	CompletionNotes string `gorm:"type:text"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
