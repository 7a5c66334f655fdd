package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	InvestmentConfirmed = "confirmed"
	InvestmentRefunded  = "refunded"
)

// Investment is one investment event. confirmed -> refunded is the only transition.
type Investment struct {
	ID             string              `gorm:"primaryKey;size:36"`
	InvestorID     string              `gorm:"size:64;index;not null"`
	CampaignID     string              `gorm:"size:64;index;not null"`
	Amount         decimal.Decimal     `gorm:"type:decimal(20,8);not null"`
	Status         string              `gorm:"size:16;index;not null"`
	InvestmentDate time.Time           `gorm:"not null"`
	ConfirmedAt    *time.Time
	RefundAmount   decimal.NullDecimal `gorm:"type:decimal(20,8)"`
	RefundReason   string              `gorm:"type:text"`
	RefundedAt     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CampaignInvestment is the running total an investor has put into a campaign.
type CampaignInvestment struct {
	ID         uint            `gorm:"primaryKey"`
	CampaignID string          `gorm:"size:64;not null;uniqueIndex:idx_campaign_investment"`
	InvestorID string          `gorm:"size:64;not null;uniqueIndex:idx_campaign_investment;index"`
	AmountFC   decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CampaignInvestor tells first-time from repeat investors for investor_count.
type CampaignInvestor struct {
	ID                uint            `gorm:"primaryKey"`
	CampaignID        string          `gorm:"size:64;not null;uniqueIndex:idx_campaign_investor"`
	InvestorID        string          `gorm:"size:64;not null;uniqueIndex:idx_campaign_investor"`
	TotalInvested     decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0"`
	FirstInvestmentAt time.Time       `gorm:"not null"`
	LastInvestmentAt  time.Time       `gorm:"not null"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
