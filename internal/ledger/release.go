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

const defaultReleaseNotes = "Milestone funds released"

type ReleaseInput struct {
	AdminID     string
	CampaignID  string
	MilestoneID string
	Amount      decimal.Decimal
	Notes       string
}

type ReleaseResult struct {
	Escrow             models.CampaignEscrow
	CreatorWallet      models.Wallet
	Milestone          models.Milestone
	SideEffectFailures []SideEffectFailure
}

// ReleaseMilestoneFunds pays amount out of a campaign's escrow into the
// creator's wallet and marks the milestone completed. Only admins may call it.
func (s *Service) ReleaseMilestoneFunds(ctx context.Context, in ReleaseInput) (*ReleaseResult, error) {
	const op = "release_milestone_funds"

	in.AdminID = strings.TrimSpace(in.AdminID)
	in.CampaignID = strings.TrimSpace(in.CampaignID)
	in.MilestoneID = strings.TrimSpace(in.MilestoneID)
	switch {
	case in.AdminID == "":
		return nil, s.done(op, invalidArgument("adminId is required"))
	case in.CampaignID == "":
		return nil, s.done(op, invalidArgument("campaignId is required"))
	case in.MilestoneID == "":
		return nil, s.done(op, invalidArgument("milestoneId is required"))
	case !in.Amount.IsPositive():
		return nil, s.done(op, invalidArgument("amount must be a positive number"))
	}
	notes := strings.TrimSpace(in.Notes)
	if notes == "" {
		notes = defaultReleaseNotes
	}

	now := s.now()
	res := &ReleaseResult{}
	var creatorID string
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		if err := requireAdmin(tx, in.AdminID); err != nil {
			return err
		}

		campaign, err := shareCampaign(tx, in.CampaignID)
		if err != nil {
			return err
		}
		if campaign.IsTerminal() {
			return invalidState(fmt.Sprintf("cannot release funds for %s campaign", campaign.Status),
				map[string]any{"campaignStatus": campaign.Status})
		}

		var milestone models.Milestone
		if err := forUpdate(tx).Where("id = ?", in.MilestoneID).First(&milestone).Error; err != nil {
			return lookup(err, "milestone")
		}
		if milestone.CampaignID != in.CampaignID {
			return invalidArgument("milestone does not belong to specified campaign")
		}
		if s.opts.GuardMilestoneRerelease && milestone.IsCompleted {
			return alreadyCompleted("milestone funds already released")
		}

		// the creator wallet is a wallet row, so it is locked before escrow
		wallet, _, err := ensureWallet(tx, campaign.CreatorID)
		if err != nil {
			return err
		}

		escrow, err := lockEscrow(tx, in.CampaignID)
		if err != nil {
			return err
		}
		if escrow.EscrowBalanceFC.LessThan(in.Amount) {
			return insufficientFunds("insufficient escrow balance", escrow.EscrowBalanceFC, in.Amount)
		}

		treasury, err := lockTreasury(tx)
		if err != nil {
			return err
		}

		escrow.EscrowBalanceFC = escrow.EscrowBalanceFC.Sub(in.Amount)
		escrow.ReleasedFC = escrow.ReleasedFC.Add(in.Amount)
		if err := saveEscrow(tx, escrow); err != nil {
			return err
		}

		wallet.BalanceFC = wallet.BalanceFC.Add(in.Amount)
		if err := saveWallet(tx, wallet); err != nil {
			return err
		}

		// the treasury figure is advisory; it never goes below zero
		treasury.LockedFC = floorZero(treasury.LockedFC.Sub(in.Amount))
		if err := saveTreasury(tx, treasury); err != nil {
			return err
		}

		completedAt := now
		milestone.IsCompleted = true
		milestone.CompletionDate = &completedAt
		milestone.CompletionNotes = notes
		err = tx.Model(&models.Milestone{}).Where("id = ?", milestone.ID).Updates(map[string]any{
			"is_completed":     true,
			"completion_date":  completedAt,
			"completion_notes": notes,
			"updated_at":       now,
		}).Error
		if err != nil {
			return internal("update milestone", err)
		}

		creatorID = campaign.CreatorID
		res.Escrow = *escrow
		res.CreatorWallet = *wallet
		res.Milestone = milestone
		return nil
	})
	if err != nil {
		return nil, s.done(op, asLedgerError(err))
	}

	s.log.Info().
		Str("campaign_id", in.CampaignID).
		Str("milestone_id", in.MilestoneID).
		Str("creator_id", creatorID).
		Str("amount_fc", in.Amount.String()).
		Msg("milestone funds released")

	res.SideEffectFailures = s.runSideEffects(ctx, op, releaseSideEffects(in, creatorID, res.Milestone.Title))
	return res, s.done(op, nil)
}

func releaseSideEffects(in ReleaseInput, creatorID, milestoneTitle string) []sideEffect {
	campaignID := in.CampaignID
	milestoneID := in.MilestoneID

	return []sideEffect{
		{name: "token_transaction", run: func(db *gorm.DB) error {
			return db.Create(&models.TokenTransaction{
				UserID:      creatorID,
				CampaignID:  &campaignID,
				MilestoneID: &milestoneID,
				AmountFC:    in.Amount,
				Type:        models.TxRelease,
				Metadata: datatypes.JSONMap{
					"campaign_id":  campaignID,
					"milestone_id": milestoneID,
					"approved_by":  in.AdminID,
				},
			}).Error
		}},
		{name: "transaction", run: func(db *gorm.DB) error {
			return db.Create(&models.Transaction{
				UserID:      creatorID,
				CampaignID:  &campaignID,
				Amount:      in.Amount,
				Type:        models.TxRelease,
				Description: fmt.Sprintf("Milestone funds released to creator (%s)", milestoneTitle),
			}).Error
		}},
	}
}
