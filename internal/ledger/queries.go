package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/JawadAsif77/fundchain-sub001/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func (s *Service) GetWallet(ctx context.Context, userID string) (*models.Wallet, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, invalidArgument("userId is required")
	}
	var w models.Wallet
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&w).Error; err != nil {
		return nil, lookup(err, "wallet")
	}
	return &w, nil
}

// CreateWallet returns the user's wallet, creating an empty one if needed.
func (s *Service) CreateWallet(ctx context.Context, userID string) (w *models.Wallet, created bool, err error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, false, invalidArgument("userId is required")
	}
	err = s.inTx(ctx, func(tx *gorm.DB) error {
		var err error
		w, created, err = ensureWallet(tx, userID)
		return err
	})
	if err != nil {
		return nil, false, asLedgerError(err)
	}
	if created {
		s.log.Info().Str("user_id", userID).Msg("wallet created")
	}
	return w, created, nil
}

// ListTokenTransactions returns a user's FC movements, newest first. A limit
// of zero returns all of them.
func (s *Service) ListTokenTransactions(ctx context.Context, userID string, limit, offset int) ([]models.TokenTransaction, error) {
	if limit < 0 || offset < 0 {
		return nil, invalidArgument("limit and offset must not be negative")
	}
	q, err := s.tokenTransactions(ctx, userID)
	if err != nil {
		return nil, err
	}
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}
	var list []models.TokenTransaction
	if err := q.Find(&list).Error; err != nil {
		return nil, internal("list token transactions", err)
	}
	return list, nil
}

// ListTokenTransactionsBetween returns a user's FC movements created in
// [from, to), newest first. A zero bound leaves that side open.
func (s *Service) ListTokenTransactionsBetween(ctx context.Context, userID string, from, to time.Time) ([]models.TokenTransaction, error) {
	if !from.IsZero() && !to.IsZero() && !from.Before(to) {
		return nil, invalidArgument("from must be before to")
	}
	q, err := s.tokenTransactions(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !from.IsZero() {
		q = q.Where("created_at >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("created_at < ?", to)
	}
	var list []models.TokenTransaction
	if err := q.Find(&list).Error; err != nil {
		return nil, internal("list token transactions", err)
	}
	return list, nil
}

func (s *Service) tokenTransactions(ctx context.Context, userID string) (*gorm.DB, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, invalidArgument("userId is required")
	}
	return s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC, id DESC"), nil
}

// UserInvestment is one row of a user's per-campaign investment totals.
type UserInvestment struct {
	CampaignID     string          `json:"campaign_id"`
	CampaignTitle  string          `json:"campaign_title"`
	CampaignStatus string          `json:"campaign_status"`
	AmountFC       decimal.Decimal `json:"amount_fc"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (s *Service) ListUserInvestments(ctx context.Context, userID string) ([]UserInvestment, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, invalidArgument("userId is required")
	}

	var rows []UserInvestment
	err := s.db.WithContext(ctx).
		Table("campaign_investments AS ci").
		Select("ci.campaign_id, c.title AS campaign_title, c.status AS campaign_status, ci.amount_fc, ci.updated_at").
		Joins("LEFT JOIN campaigns AS c ON c.id = ci.campaign_id").
		Where("ci.investor_id = ?", userID).
		Order("ci.updated_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, internal("list user investments", err)
	}
	return rows, nil
}

// Reconciliation compares a campaign's escrow row with its investment rows.
// Consistent holds when escrow plus released equals the confirmed total.
type Reconciliation struct {
	CampaignID      string          `json:"campaign_id"`
	CampaignStatus  string          `json:"campaign_status"`
	EscrowBalanceFC decimal.Decimal `json:"escrow_balance_fc"`
	ReleasedFC      decimal.Decimal `json:"released_fc"`
	ConfirmedFC     decimal.Decimal `json:"confirmed_fc"`
	RefundedFC      decimal.Decimal `json:"refunded_fc"`
	ConfirmedCount  int             `json:"confirmed_count"`
	// Drift is escrow + released - confirmed. Refund skips leave it negative.
	Drift      decimal.Decimal `json:"drift"`
	Consistent bool            `json:"consistent"`
}

// ReconcileCampaign reports whether a campaign's escrow still matches the sum
// of its confirmed investments. It makes no changes.
func (s *Service) ReconcileCampaign(ctx context.Context, campaignID string) (*Reconciliation, error) {
	campaignID = strings.TrimSpace(campaignID)
	if campaignID == "" {
		return nil, invalidArgument("campaignId is required")
	}
	db := s.db.WithContext(ctx)

	campaign, err := findCampaign(db, campaignID)
	if err != nil {
		return nil, err
	}

	rep := &Reconciliation{
		CampaignID:      campaignID,
		CampaignStatus:  campaign.Status,
		EscrowBalanceFC: decimal.Zero,
		ReleasedFC:      decimal.Zero,
		ConfirmedFC:     decimal.Zero,
		RefundedFC:      decimal.Zero,
	}

	var escrow models.CampaignEscrow
	err = db.Where("campaign_id = ?", campaignID).Limit(1).Find(&escrow).Error
	if err != nil {
		return nil, internal("load campaign wallet", err)
	}
	if escrow.ID != 0 {
		rep.EscrowBalanceFC = escrow.EscrowBalanceFC
		rep.ReleasedFC = escrow.ReleasedFC
	}

	// summed here rather than in SQL so the decimal column keeps full precision
	var confirmed, refunded []decimal.Decimal
	err = db.Model(&models.Investment{}).
		Where("campaign_id = ? AND status = ?", campaignID, models.InvestmentConfirmed).
		Pluck("amount", &confirmed).Error
	if err != nil {
		return nil, internal("sum confirmed investments", err)
	}
	err = db.Model(&models.Investment{}).
		Where("campaign_id = ? AND status = ?", campaignID, models.InvestmentRefunded).
		Pluck("amount", &refunded).Error
	if err != nil {
		return nil, internal("sum refunded investments", err)
	}
	rep.ConfirmedFC = decimal.Sum(decimal.Zero, confirmed...)
	rep.RefundedFC = decimal.Sum(decimal.Zero, refunded...)
	rep.ConfirmedCount = len(confirmed)

	// released funds came out of confirmed investments that stay confirmed
	rep.Drift = rep.EscrowBalanceFC.Add(rep.ReleasedFC).Sub(rep.ConfirmedFC)
	rep.Consistent = rep.Drift.IsZero()
	return rep, nil
}

// AuthorizeAdmin checks that adminID names an admin user.
func (s *Service) AuthorizeAdmin(ctx context.Context, adminID string) error {
	adminID = strings.TrimSpace(adminID)
	if adminID == "" {
		return invalidArgument("adminId is required")
	}
	return requireAdmin(s.db.WithContext(ctx), adminID)
}
