package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/JawadAsif77/fundchain-sub001/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InvestInput struct {
	InvestorID string
	CampaignID string
	Amount     decimal.Decimal
}

type InvestResult struct {
	Investment models.Investment
	Wallet     models.Wallet
	Escrow     models.CampaignEscrow
	// FirstInvestment is true when this was the investor's first investment in
	// the campaign. It is false if the investor record could not be written.
	FirstInvestment    bool
	SideEffectFailures []SideEffectFailure
}

// Invest moves amount from the investor's spendable balance into the
// campaign escrow and records the investment.
func (s *Service) Invest(ctx context.Context, in InvestInput) (*InvestResult, error) {
	const op = "invest"

	in.InvestorID = strings.TrimSpace(in.InvestorID)
	in.CampaignID = strings.TrimSpace(in.CampaignID)
	if in.InvestorID == "" {
		return nil, s.done(op, invalidArgument("userId is required"))
	}
	if in.CampaignID == "" {
		return nil, s.done(op, invalidArgument("campaignId is required"))
	}
	if !in.Amount.IsPositive() {
		return nil, s.done(op, invalidArgument("amount must be a positive number"))
	}

	now := s.now()
	res := &InvestResult{}
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		// shared lock keeps a concurrent refund from failing the campaign under us
		campaign, err := shareCampaign(tx, in.CampaignID)
		if err != nil {
			return err
		}
		if campaign.Status != models.CampaignActive {
			return invalidState("campaign is not active", map[string]any{"campaignStatus": campaign.Status})
		}

		wallet, err := lockWallet(tx, in.InvestorID)
		if err != nil {
			return err
		}

		if wallet.BalanceFC.LessThan(in.Amount) {
			return insufficientFunds("insufficient balance", wallet.BalanceFC, in.Amount)
		}

		wallet.BalanceFC = wallet.BalanceFC.Sub(in.Amount)
		wallet.LockedFC = wallet.LockedFC.Add(in.Amount)
		if err := saveWallet(tx, wallet); err != nil {
			return err
		}

		escrow, err := ensureEscrow(tx, in.CampaignID)
		if err != nil {
			return err
		}
		escrow.EscrowBalanceFC = escrow.EscrowBalanceFC.Add(in.Amount)
		if err := saveEscrow(tx, escrow); err != nil {
			return err
		}

		treasury, err := lockTreasury(tx)
		if err != nil {
			return err
		}
		treasury.LockedFC = treasury.LockedFC.Add(in.Amount)
		if err := saveTreasury(tx, treasury); err != nil {
			return err
		}

		confirmedAt := now
		inv := models.Investment{
			ID:             uuid.NewString(),
			InvestorID:     in.InvestorID,
			CampaignID:     in.CampaignID,
			Amount:         in.Amount,
			Status:         models.InvestmentConfirmed,
			InvestmentDate: now,
			ConfirmedAt:    &confirmedAt,
		}
		if err := tx.Create(&inv).Error; err != nil {
			return internal("create investment", err)
		}

		res.Investment = inv
		res.Wallet = *wallet
		res.Escrow = *escrow
		return nil
	})
	if err != nil {
		return nil, s.done(op, asLedgerError(err))
	}

	res.SideEffectFailures = s.runSideEffects(ctx, op, s.investSideEffects(in, res, now))
	return res, s.done(op, nil)
}

// investSideEffects are the statistics and audit writes of Invest. The
// investor record decides FirstInvestment, which the campaign counters use.
func (s *Service) investSideEffects(in InvestInput, res *InvestResult, now time.Time) []sideEffect {
	campaignID := in.CampaignID
	investmentID := res.Investment.ID

	return []sideEffect{
		{name: "campaign_investment", run: func(db *gorm.DB) error {
			return db.Transaction(func(tx *gorm.DB) error {
				seed := models.CampaignInvestment{CampaignID: in.CampaignID, InvestorID: in.InvestorID, AmountFC: decimal.Zero}
				if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
					return err
				}
				var row models.CampaignInvestment
				err := forUpdate(tx).
					Where("campaign_id = ? AND investor_id = ?", in.CampaignID, in.InvestorID).
					First(&row).Error
				if err != nil {
					return err
				}
				return tx.Model(&models.CampaignInvestment{}).Where("id = ?", row.ID).Updates(map[string]any{
					"amount_fc":  row.AmountFC.Add(in.Amount),
					"updated_at": now,
				}).Error
			})
		}},
		{name: "campaign_investor", run: func(db *gorm.DB) error {
			return db.Transaction(func(tx *gorm.DB) error {
				seed := models.CampaignInvestor{
					CampaignID:        in.CampaignID,
					InvestorID:        in.InvestorID,
					TotalInvested:     decimal.Zero,
					FirstInvestmentAt: now,
					LastInvestmentAt:  now,
				}
				created := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed)
				if created.Error != nil {
					return created.Error
				}
				var row models.CampaignInvestor
				err := forUpdate(tx).
					Where("campaign_id = ? AND investor_id = ?", in.CampaignID, in.InvestorID).
					First(&row).Error
				if err != nil {
					return err
				}
				err = tx.Model(&models.CampaignInvestor{}).Where("id = ?", row.ID).Updates(map[string]any{
					"total_invested":     row.TotalInvested.Add(in.Amount),
					"last_investment_at": now,
				}).Error
				if err != nil {
					return err
				}
				res.FirstInvestment = created.RowsAffected == 1
				return nil
			})
		}},
		{name: "campaign_counters", run: func(db *gorm.DB) error {
			return db.Transaction(func(tx *gorm.DB) error {
				var c models.Campaign
				if err := forUpdate(tx).Where("id = ?", in.CampaignID).First(&c).Error; err != nil {
					return err
				}
				investors := c.InvestorCount
				if res.FirstInvestment {
					investors++
				}
				return tx.Model(&models.Campaign{}).Where("id = ?", in.CampaignID).Updates(map[string]any{
					"current_funding": c.CurrentFunding.Add(in.Amount),
					"total_raised":    c.TotalRaised.Add(in.Amount),
					"investor_count":  investors,
				}).Error
			})
		}},
		{name: "transaction", run: func(db *gorm.DB) error {
			return db.Create(&models.Transaction{
				UserID:       in.InvestorID,
				CampaignID:   &campaignID,
				InvestmentID: &investmentID,
				Amount:       in.Amount,
				Type:         models.TxInvest,
				Description:  fmt.Sprintf("Invested %s FC in campaign", in.Amount),
			}).Error
		}},
		{name: "token_transaction", run: func(db *gorm.DB) error {
			// negative: the amount leaves the spendable balance
			return db.Create(&models.TokenTransaction{
				UserID:     in.InvestorID,
				CampaignID: &campaignID,
				AmountFC:   in.Amount.Neg(),
				Type:       models.TxInvest,
				Metadata: datatypes.JSONMap{
					"campaign_id":   campaignID,
					"investment_id": investmentID,
					"operation":     "invest",
				},
			}).Error
		}},
	}
}
