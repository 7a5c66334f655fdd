package ledger

import (
	"context"
	"testing"

	"github.com/JawadAsif77/fundchain-sub001/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// refundFixture has two investors with 100 FC each invested in c1.
func refundFixture(t *testing.T) *fixture {
	f := newFixture(t)
	f.user(t, "admin", models.RoleAdmin)
	f.wallet(t, "alice", "100", "0")
	f.wallet(t, "bob", "250", "0")
	f.campaign(t, "c1", "carol", models.CampaignActive)

	for _, investor := range []string{"alice", "bob"} {
		_, err := f.svc.Invest(context.Background(), InvestInput{InvestorID: investor, CampaignID: "c1", Amount: fc("100")})
		require.NoError(t, err)
	}
	assertFC(t, "200", f.loadEscrow(t, "c1").EscrowBalanceFC)
	return f
}

func TestRefund_ReturnsLockedFunds(t *testing.T) {
	f := refundFixture(t)

	res, err := f.svc.RefundCampaignInvestors(context.Background(), RefundInput{AdminID: "admin", CampaignID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.RefundedCount)
	assertFC(t, "200", res.TotalRefund)
	assert.Empty(t, res.Skipped)
	assert.Empty(t, res.SideEffectFailures)

	alice := f.loadWallet(t, "alice")
	assertFC(t, "100", alice.BalanceFC)
	assertFC(t, "0", alice.LockedFC)
	bob := f.loadWallet(t, "bob")
	assertFC(t, "250", bob.BalanceFC)
	assertFC(t, "0", bob.LockedFC)

	e := f.loadEscrow(t, "c1")
	assertFC(t, "0", e.EscrowBalanceFC)
	assertFC(t, "0", e.ReleasedFC)
	assertFC(t, "0", f.loadTreasury(t).LockedFC)
	assert.Equal(t, models.CampaignFailed, f.loadCampaign(t, "c1").Status)

	var invs []models.Investment
	require.NoError(t, f.db.Where("campaign_id = ?", "c1").Find(&invs).Error)
	require.Len(t, invs, 2)
	for _, inv := range invs {
		assert.Equal(t, models.InvestmentRefunded, inv.Status)
		assert.True(t, inv.RefundAmount.Valid)
		assertFC(t, "100", inv.RefundAmount.Decimal)
		assert.Equal(t, "Campaign failed", inv.RefundReason)
		assert.NotNil(t, inv.RefundedAt)
	}

	assert.EqualValues(t, 2, f.count(t, &models.TokenTransaction{}, "type = ?", models.TxRefund))
	assert.EqualValues(t, 2, f.count(t, &models.Transaction{}, "type = ?", models.TxRefund))
}

func TestRefund_CustomReason(t *testing.T) {
	f := refundFixture(t)

	_, err := f.svc.RefundCampaignInvestors(context.Background(), RefundInput{AdminID: "admin", CampaignID: "c1", Reason: "creator withdrew"})
	require.NoError(t, err)

	var tx models.Transaction
	require.NoError(t, f.db.Where("user_id = ? AND type = ?", "alice", models.TxRefund).First(&tx).Error)
	assert.Equal(t, "Refund: creator withdrew", tx.Description)
}

func TestRefund_NoConfirmedInvestments(t *testing.T) {
	f := newFixture(t)
	f.user(t, "admin", models.RoleAdmin)
	f.campaign(t, "c1", "carol", models.CampaignActive)

	res, err := f.svc.RefundCampaignInvestors(context.Background(), RefundInput{AdminID: "admin", CampaignID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.RefundedCount)
	assertFC(t, "0", res.TotalRefund)

	// nothing changes, the campaign included
	assert.Equal(t, models.CampaignActive, f.loadCampaign(t, "c1").Status)
	assert.EqualValues(t, 0, f.count(t, &models.TokenTransaction{}, "type = ?", models.TxRefund))
}

func TestRefund_Rejections(t *testing.T) {
	f := refundFixture(t)
	f.user(t, "mallory", models.RoleCreator)
	f.campaign(t, "gone", "carol", models.CampaignCancelled)

	tests := []struct {
		name string
		in   RefundInput
		want error
	}{
		{"missing admin", RefundInput{CampaignID: "c1"}, ErrInvalidArgument},
		{"missing campaign", RefundInput{AdminID: "admin"}, ErrInvalidArgument},
		{"unknown admin", RefundInput{AdminID: "ghost", CampaignID: "c1"}, ErrNotFound},
		{"not an admin", RefundInput{AdminID: "mallory", CampaignID: "c1"}, ErrForbidden},
		{"unknown campaign", RefundInput{AdminID: "admin", CampaignID: "nope"}, ErrNotFound},
		{"cancelled campaign", RefundInput{AdminID: "admin", CampaignID: "gone"}, ErrInvalidState},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.RefundCampaignInvestors(context.Background(), tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assertFC(t, "200", f.loadEscrow(t, "c1").EscrowBalanceFC)
}

func TestRefund_TwiceIsRejected(t *testing.T) {
	f := refundFixture(t)
	ctx := context.Background()

	_, err := f.svc.RefundCampaignInvestors(ctx, RefundInput{AdminID: "admin", CampaignID: "c1"})
	require.NoError(t, err)

	_, err = f.svc.RefundCampaignInvestors(ctx, RefundInput{AdminID: "admin", CampaignID: "c1"})
	var le *Error
	require.ErrorAs(t, err, &le)
	assert.Equal(t, KindInvalidState, le.Kind)
	assert.Equal(t, "campaign is already failed", le.Message)
	assertFC(t, "100", f.loadWallet(t, "alice").BalanceFC)
}

func TestRefund_EscrowBelowTotal(t *testing.T) {
	f := refundFixture(t)
	require.NoError(t, f.db.Model(&models.CampaignEscrow{}).Where("campaign_id = ?", "c1").
		Update("escrow_balance_fc", fc("150")).Error)

	_, err := f.svc.RefundCampaignInvestors(context.Background(), RefundInput{AdminID: "admin", CampaignID: "c1"})
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	assertFC(t, "100", f.loadWallet(t, "alice").LockedFC)
	assert.Equal(t, models.CampaignActive, f.loadCampaign(t, "c1").Status)
}

func TestRefund_SkipsInconsistentWallet(t *testing.T) {
	f := refundFixture(t)
	require.NoError(t, f.db.Model(&models.Wallet{}).Where("user_id = ?", "alice").
		Update("locked_fc", fc("40")).Error)

	res, err := f.svc.RefundCampaignInvestors(context.Background(), RefundInput{AdminID: "admin", CampaignID: "c1"})
	require.NoError(t, err)
	// the count covers skipped investments too; Skipped carries the difference
	assert.Equal(t, 2, res.RefundedCount)
	assertFC(t, "200", res.TotalRefund)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "alice", res.Skipped[0].InvestorID)

	alice := f.loadWallet(t, "alice")
	assertFC(t, "0", alice.BalanceFC)
	assertFC(t, "40", alice.LockedFC)
	assertFC(t, "250", f.loadWallet(t, "bob").BalanceFC)

	// escrow still loses the full total
	assertFC(t, "0", f.loadEscrow(t, "c1").EscrowBalanceFC)
	assert.Equal(t, models.CampaignFailed, f.loadCampaign(t, "c1").Status)
	assert.EqualValues(t, 1, f.count(t, &models.Investment{}, "campaign_id = ? AND status = ?", "c1", models.InvestmentConfirmed))

	rep, err := f.svc.ReconcileCampaign(context.Background(), "c1")
	require.NoError(t, err)
	assert.False(t, rep.Consistent)
	assertFC(t, "-100", rep.Drift)
}

func TestRefund_LockOrder(t *testing.T) {
	f := refundFixture(t)
	locks := f.recordLocks(t)

	_, err := f.svc.RefundCampaignInvestors(context.Background(), RefundInput{AdminID: "admin", CampaignID: "c1"})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"campaigns/UPDATE",
		"investments/UPDATE",
		"wallets/UPDATE",
		"wallets/UPDATE",
		"campaign_wallets/UPDATE",
		"platform_wallet/UPDATE",
	}, locks.take())
}
