package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// audit record types
const (
	TxInvest  = "invest_fc"
	TxRelease = "release_fc"
	TxRefund  = "refund_fc"
	TxBuy     = "buy_fc"
)

// Transaction is the human-readable audit trail. Append only.
type Transaction struct {
	ID           uint            `gorm:"primaryKey"`
	UserID       string          `gorm:"size:64;index;not null"`
	CampaignID   *string         `gorm:"size:64;index"`
	InvestmentID *string         `gorm:"size:36"`
	Amount       decimal.Decimal `gorm:"type:decimal(20,8);not null"`
	Type         string          `gorm:"size:32;index;not null"`
	Description  string          `gorm:"type:text"`
	CreatedAt    time.Time       `gorm:"index"`
}

// TokenTransaction is the machine-readable FC movement log. Append only.
type TokenTransaction struct {
	ID          uint              `gorm:"primaryKey"`
	UserID      string            `gorm:"size:64;index;not null"`
	CampaignID  *string           `gorm:"size:64;index"`
	MilestoneID *string           `gorm:"size:64"`
	AmountFC    decimal.Decimal   `gorm:"type:decimal(20,8);not null"`
	Type        string            `gorm:"size:32;index;not null"`
	Metadata    datatypes.JSONMap
	CreatedAt   time.Time         `gorm:"index"`
}

// ExternalPayment registers a payment proof so one signature credits once.
type ExternalPayment struct {
	ID           uint            `gorm:"primaryKey"`
	TxSignature  string          `gorm:"size:128;uniqueIndex;not null"`
	UserID       string          `gorm:"size:64;index;not null"`
	SourceType   string          `gorm:"size:8;not null"`
	SourceAmount decimal.Decimal `gorm:"type:decimal(20,8);not null"`
	FCRate       decimal.Decimal `gorm:"type:decimal(20,8);not null"`
	AmountFC     decimal.Decimal `gorm:"type:decimal(20,8);not null"`
	CreatedAt    time.Time
}
