package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/JawadAsif77/fundchain-sub001/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const defaultRefundReason = "Campaign failed"

type RefundInput struct {
	AdminID    string
	CampaignID string
	Reason     string
}

// SkippedRefund is a confirmed investment that could not be returned to its
// investor's wallet. It stays confirmed.
type SkippedRefund struct {
	InvestmentID string
	InvestorID   string
	Reason       string
}

type RefundResult struct {
	// RefundedCount counts the confirmed investments the refund covered,
	// skipped ones included, like TotalRefund. Skipped holds the ones that
	// did not reach a wallet.
	RefundedCount int
	// TotalRefund is the sum of all confirmed investments, skipped ones included.
	// Escrow and treasury are decremented by this amount.
	TotalRefund        decimal.Decimal
	Skipped            []SkippedRefund
	SideEffectFailures []SideEffectFailure
}

// RefundCampaignInvestors returns every confirmed investment of a campaign to
// the investors' spendable balances and marks the campaign failed.
func (s *Service) RefundCampaignInvestors(ctx context.Context, in RefundInput) (*RefundResult, error) {
	const op = "refund_campaign_investors"

	in.AdminID = strings.TrimSpace(in.AdminID)
	in.CampaignID = strings.TrimSpace(in.CampaignID)
	if in.AdminID == "" {
		return nil, s.done(op, invalidArgument("adminId is required"))
	}
	if in.CampaignID == "" {
		return nil, s.done(op, invalidArgument("campaignId is required"))
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		reason = defaultRefundReason
	}

	now := s.now()
	res := &RefundResult{TotalRefund: decimal.Zero}
	var refunded []models.Investment
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		if err := requireAdmin(tx, in.AdminID); err != nil {
			return err
		}

		var campaign models.Campaign
		if err := forUpdate(tx).Where("id = ?", in.CampaignID).First(&campaign).Error; err != nil {
			return lookup(err, "campaign")
		}
		if campaign.IsTerminal() {
			return invalidState(fmt.Sprintf("campaign is already %s", campaign.Status),
				map[string]any{"campaignStatus": campaign.Status})
		}

		var investments []models.Investment
		err := forUpdate(tx).
			Where("campaign_id = ? AND status = ?", in.CampaignID, models.InvestmentConfirmed).
			Order("investment_date, id").
			Find(&investments).Error
		if err != nil {
			return internal("load investments", err)
		}
		if len(investments) == 0 {
			return nil
		}

		investorIDs := make([]string, 0, len(investments))
		total := decimal.Zero
		for _, inv := range investments {
			total = total.Add(inv.Amount)
			investorIDs = append(investorIDs, inv.InvestorID)
		}
		res.TotalRefund = total
		res.RefundedCount = len(investments)

		wallets, err := lockWallets(tx, investorIDs)
		if err != nil {
			return err
		}

		escrow, err := lockEscrow(tx, in.CampaignID)
		if err != nil {
			return err
		}
		if escrow.EscrowBalanceFC.LessThan(total) {
			return insufficientFunds("insufficient escrow balance for refunds", escrow.EscrowBalanceFC, total)
		}

		treasury, err := lockTreasury(tx)
		if err != nil {
			return err
		}
		if treasury.LockedFC.LessThan(total) {
			s.log.Warn().
				Str("campaign_id", in.CampaignID).
				Str("treasury_locked_fc", treasury.LockedFC.String()).
				Str("total_refund", total.String()).
				Msg("treasury locked below refund total; flooring at zero")
		}

		for _, inv := range investments {
			wallet, ok := wallets[inv.InvestorID]
			if !ok {
				res.Skipped = append(res.Skipped, SkippedRefund{inv.ID, inv.InvestorID, "wallet not found"})
				continue
			}
			if wallet.LockedFC.LessThan(inv.Amount) {
				res.Skipped = append(res.Skipped, SkippedRefund{
					inv.ID, inv.InvestorID,
					fmt.Sprintf("locked balance %s below investment %s", wallet.LockedFC, inv.Amount),
				})
				continue
			}

			wallet.LockedFC = wallet.LockedFC.Sub(inv.Amount)
			wallet.BalanceFC = wallet.BalanceFC.Add(inv.Amount)
			if err := saveWallet(tx, wallet); err != nil {
				return err
			}

			refundedAt := now
			err := tx.Model(&models.Investment{}).Where("id = ?", inv.ID).Updates(map[string]any{
				"status":        models.InvestmentRefunded,
				"refund_amount": inv.Amount,
				"refund_reason": reason,
				"refunded_at":   refundedAt,
				"updated_at":    now,
			}).Error
			if err != nil {
				return internal("update investment", err)
			}
			inv.Status = models.InvestmentRefunded
			inv.RefundAmount = decimal.NewNullDecimal(inv.Amount)
			inv.RefundReason = reason
			inv.RefundedAt = &refundedAt
			refunded = append(refunded, inv)
		}

		// the full total leaves escrow even when investments were skipped
		escrow.EscrowBalanceFC = escrow.EscrowBalanceFC.Sub(total)
		if err := saveEscrow(tx, escrow); err != nil {
			return err
		}
		treasury.LockedFC = floorZero(treasury.LockedFC.Sub(total))
		if err := saveTreasury(tx, treasury); err != nil {
			return err
		}

		err = tx.Model(&models.Campaign{}).Where("id = ?", in.CampaignID).Updates(map[string]any{
			"status":     models.CampaignFailed,
			"updated_at": now,
		}).Error
		if err != nil {
			return internal("update campaign status", err)
		}
		return nil
	})
	if err != nil {
		return nil, s.done(op, asLedgerError(err))
	}

	for _, sk := range res.Skipped {
		s.log.Error().
			Str("campaign_id", in.CampaignID).
			Str("investment_id", sk.InvestmentID).
			Str("investor_id", sk.InvestorID).
			Str("reason", sk.Reason).
			Msg("refund skipped")
	}
	if res.TotalRefund.IsPositive() {
		s.log.Info().
			Str("campaign_id", in.CampaignID).
			Int("refunded_count", len(refunded)).
			Int("skipped_count", len(res.Skipped)).
			Str("total_refund", res.TotalRefund.String()).
			Msg("campaign investors refunded")
	}

	res.SideEffectFailures = s.runSideEffects(ctx, op, refundSideEffects(in.CampaignID, reason, refunded))
	return res, s.done(op, nil)
}

func refundSideEffects(campaignID, reason string, refunded []models.Investment) []sideEffect {
	effects := make([]sideEffect, 0, 2*len(refunded))
	for _, inv := range refunded {
		inv := inv
		effects = append(effects,
			sideEffect{name: "token_transaction", run: func(db *gorm.DB) error {
				return db.Create(&models.TokenTransaction{
					UserID:     inv.InvestorID,
					CampaignID: &campaignID,
					AmountFC:   inv.Amount,
					Type:       models.TxRefund,
					Metadata: datatypes.JSONMap{
						"campaign_id":   campaignID,
						"investment_id": inv.ID,
						"reason":        reason,
					},
				}).Error
			}},
			sideEffect{name: "transaction", run: func(db *gorm.DB) error {
				return db.Create(&models.Transaction{
					UserID:       inv.InvestorID,
					CampaignID:   &campaignID,
					InvestmentID: &inv.ID,
					Amount:       inv.Amount,
					Type:         models.TxRefund,
					Description:  fmt.Sprintf("Refund: %s", reason),
				}).Error
			}},
		)
	}
	return effects
}
