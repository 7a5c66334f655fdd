package ledger

import (
	"context"
	"sync"
	"testing"

	"github.com/JawadAsif77/fundchain-sub001/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvest_MovesBalanceIntoEscrow(t *testing.T) {
	f := newFixture(t)
	f.wallet(t, "alice", "500", "0")
	f.campaign(t, "c1", "carol", models.CampaignActive)

	res, err := f.svc.Invest(context.Background(), InvestInput{InvestorID: "alice", CampaignID: "c1", Amount: fc("200")})
	require.NoError(t, err)
	assert.Empty(t, res.SideEffectFailures)

	assertFC(t, "300", res.Wallet.BalanceFC)
	assertFC(t, "200", res.Wallet.LockedFC)
	assertFC(t, "200", res.Escrow.EscrowBalanceFC)
	assertFC(t, "0", res.Escrow.ReleasedFC)
	assert.True(t, res.FirstInvestment)

	assert.Equal(t, models.InvestmentConfirmed, res.Investment.Status)
	assert.Len(t, res.Investment.ID, 36)
	assert.NotNil(t, res.Investment.ConfirmedAt)

	w := f.loadWallet(t, "alice")
	assertFC(t, "300", w.BalanceFC)
	assertFC(t, "200", w.LockedFC)
	e := f.loadEscrow(t, "c1")
	assertFC(t, "200", e.EscrowBalanceFC)
	assertFC(t, "200", f.loadTreasury(t).LockedFC)

	c := f.loadCampaign(t, "c1")
	assertFC(t, "200", c.CurrentFunding)
	assertFC(t, "200", c.TotalRaised)
	assert.Equal(t, 1, c.InvestorCount)

	var agg models.CampaignInvestment
	require.NoError(t, f.db.Where("campaign_id = ? AND investor_id = ?", "c1", "alice").First(&agg).Error)
	assertFC(t, "200", agg.AmountFC)

	var tt models.TokenTransaction
	require.NoError(t, f.db.Where("user_id = ? AND type = ?", "alice", models.TxInvest).First(&tt).Error)
	assertFC(t, "-200", tt.AmountFC)
	assert.Equal(t, res.Investment.ID, tt.Metadata["investment_id"])
	assert.EqualValues(t, 1, f.count(t, &models.Transaction{}, "user_id = ? AND type = ?", "alice", models.TxInvest))

	assert.Equal(t, []string{"ok"}, f.obs.outcomes["invest"])
}

func TestInvest_RepeatInvestorCountedOnce(t *testing.T) {
	f := newFixture(t)
	f.wallet(t, "alice", "500", "0")
	f.campaign(t, "c1", "carol", models.CampaignActive)
	ctx := context.Background()

	_, err := f.svc.Invest(ctx, InvestInput{InvestorID: "alice", CampaignID: "c1", Amount: fc("100")})
	require.NoError(t, err)
	res, err := f.svc.Invest(ctx, InvestInput{InvestorID: "alice", CampaignID: "c1", Amount: fc("50")})
	require.NoError(t, err)
	assert.False(t, res.FirstInvestment)

	c := f.loadCampaign(t, "c1")
	assert.Equal(t, 1, c.InvestorCount)
	assertFC(t, "150", c.TotalRaised)

	var agg models.CampaignInvestment
	require.NoError(t, f.db.Where("campaign_id = ? AND investor_id = ?", "c1", "alice").First(&agg).Error)
	assertFC(t, "150", agg.AmountFC)

	var rec models.CampaignInvestor
	require.NoError(t, f.db.Where("campaign_id = ? AND investor_id = ?", "c1", "alice").First(&rec).Error)
	assertFC(t, "150", rec.TotalInvested)

	assert.EqualValues(t, 2, f.count(t, &models.Investment{}, "investor_id = ?", "alice"))
	assertFC(t, "150", f.loadEscrow(t, "c1").EscrowBalanceFC)
}

func TestInvest_ExactBalanceLeavesZero(t *testing.T) {
	f := newFixture(t)
	f.wallet(t, "alice", "500", "0")
	f.campaign(t, "c1", "carol", models.CampaignActive)

	res, err := f.svc.Invest(context.Background(), InvestInput{InvestorID: "alice", CampaignID: "c1", Amount: fc("500")})
	require.NoError(t, err)
	assertFC(t, "0", res.Wallet.BalanceFC)
	assertFC(t, "500", res.Wallet.LockedFC)
}

func TestInvest_InsufficientBalanceChangesNothing(t *testing.T) {
	f := newFixture(t)
	f.wallet(t, "alice", "500", "0")
	f.campaign(t, "c1", "carol", models.CampaignActive)

	_, err := f.svc.Invest(context.Background(), InvestInput{InvestorID: "alice", CampaignID: "c1", Amount: fc("600")})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	var le *Error
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "insufficient balance", le.Message)
	assertFC(t, "500", le.Details["available"].(decimal.Decimal))
	assertFC(t, "600", le.Details["required"].(decimal.Decimal))

	w := f.loadWallet(t, "alice")
	assertFC(t, "500", w.BalanceFC)
	assertFC(t, "0", w.LockedFC)
	assert.EqualValues(t, 0, f.count(t, &models.Investment{}, "investor_id = ?", "alice"))
	assert.EqualValues(t, 0, f.count(t, &models.CampaignEscrow{}, "campaign_id = ?", "c1"))
	assert.Equal(t, []string{string(KindInsufficientFunds)}, f.obs.outcomes["invest"])
}

func TestInvest_Rejections(t *testing.T) {
	f := newFixture(t)
	f.wallet(t, "alice", "500", "0")
	f.campaign(t, "active", "carol", models.CampaignActive)
	f.campaign(t, "draft", "carol", models.CampaignDraft)
	f.campaign(t, "failed", "carol", models.CampaignFailed)

	tests := []struct {
		name string
		in   InvestInput
		want error
	}{
		{"zero amount", InvestInput{InvestorID: "alice", CampaignID: "active", Amount: fc("0")}, ErrInvalidArgument},
		{"negative amount", InvestInput{InvestorID: "alice", CampaignID: "active", Amount: fc("-5")}, ErrInvalidArgument},
		{"missing investor", InvestInput{InvestorID: "  ", CampaignID: "active", Amount: fc("5")}, ErrInvalidArgument},
		{"missing campaign id", InvestInput{InvestorID: "alice", Amount: fc("5")}, ErrInvalidArgument},
		{"no wallet", InvestInput{InvestorID: "bob", CampaignID: "active", Amount: fc("5")}, ErrNotFound},
		{"unknown campaign", InvestInput{InvestorID: "alice", CampaignID: "nope", Amount: fc("5")}, ErrNotFound},
		{"draft campaign", InvestInput{InvestorID: "alice", CampaignID: "draft", Amount: fc("5")}, ErrInvalidState},
		{"failed campaign", InvestInput{InvestorID: "alice", CampaignID: "failed", Amount: fc("5")}, ErrInvalidState},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Invest(context.Background(), tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	w := f.loadWallet(t, "alice")
	assertFC(t, "500", w.BalanceFC)
	assertFC(t, "0", w.LockedFC)
}

func TestInvest_InactiveCampaignReportsStatus(t *testing.T) {
	f := newFixture(t)
	f.wallet(t, "alice", "500", "0")
	f.campaign(t, "c1", "carol", models.CampaignFunded)

	_, err := f.svc.Invest(context.Background(), InvestInput{InvestorID: "alice", CampaignID: "c1", Amount: fc("10")})
	var le *Error
	require.ErrorAs(t, err, &le)
	assert.Equal(t, KindInvalidState, le.Kind)
	assert.Equal(t, "campaign is not active", le.Message)
	assert.Equal(t, models.CampaignFunded, le.Details["campaignStatus"])
}

func TestInvest_SideEffectFailureKeepsLedgerChange(t *testing.T) {
	f := newFixture(t)
	f.wallet(t, "alice", "500", "0")
	f.campaign(t, "c1", "carol", models.CampaignActive)
	require.NoError(t, f.db.Migrator().DropTable(&models.CampaignInvestor{}))

	res, err := f.svc.Invest(context.Background(), InvestInput{InvestorID: "alice", CampaignID: "c1", Amount: fc("200")})
	require.NoError(t, err)

	require.Len(t, res.SideEffectFailures, 1)
	assert.Equal(t, "campaign_investor", res.SideEffectFailures[0].Effect)
	assert.False(t, res.FirstInvestment)
	assert.Equal(t, []string{"campaign_investor"}, f.obs.sideEffects["invest"])

	w := f.loadWallet(t, "alice")
	assertFC(t, "300", w.BalanceFC)
	assertFC(t, "200", w.LockedFC)
	assertFC(t, "200", f.loadEscrow(t, "c1").EscrowBalanceFC)

	// later effects still ran
	c := f.loadCampaign(t, "c1")
	assertFC(t, "200", c.TotalRaised)
	assert.Equal(t, 0, c.InvestorCount)
	assert.EqualValues(t, 1, f.count(t, &models.TokenTransaction{}, "user_id = ?", "alice"))
}

func TestInvest_ConcurrentSpendNeverOverdraws(t *testing.T) {
	f := newFixture(t)
	f.wallet(t, "alice", "100", "0")
	f.campaign(t, "c1", "carol", models.CampaignActive)

	const attempts = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, fail int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Invest(context.Background(), InvestInput{InvestorID: "alice", CampaignID: "c1", Amount: fc("30")})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if assert.ErrorIs(t, err, ErrInsufficientFunds) {
				fail++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, ok)
	assert.Equal(t, attempts-3, fail)

	w := f.loadWallet(t, "alice")
	assertFC(t, "10", w.BalanceFC)
	assertFC(t, "90", w.LockedFC)
	assertFC(t, "90", f.loadEscrow(t, "c1").EscrowBalanceFC)
}

func TestInvest_AggregatesStayExact(t *testing.T) {
	f := newFixture(t)
	f.wallet(t, "alice", "999999999999.99999999", "0")
	f.campaign(t, "c1", "carol", models.CampaignActive)
	ctx := context.Background()

	for _, amount := range []string{"0.1", "0.2", "0.00000001"} {
		_, err := f.svc.Invest(ctx, InvestInput{InvestorID: "alice", CampaignID: "c1", Amount: fc(amount)})
		require.NoError(t, err)
	}

	w := f.loadWallet(t, "alice")
	assertFC(t, "999999999999.69999998", w.BalanceFC)
	assertFC(t, "0.30000001", w.LockedFC)

	c := f.loadCampaign(t, "c1")
	assertFC(t, "0.30000001", c.CurrentFunding)
	assertFC(t, "0.30000001", c.TotalRaised)

	var agg models.CampaignInvestment
	require.NoError(t, f.db.Where("campaign_id = ? AND investor_id = ?", "c1", "alice").First(&agg).Error)
	assertFC(t, "0.30000001", agg.AmountFC)
	var rec models.CampaignInvestor
	require.NoError(t, f.db.Where("campaign_id = ? AND investor_id = ?", "c1", "alice").First(&rec).Error)
	assertFC(t, "0.30000001", rec.TotalInvested)
}

func TestInvest_LocksCampaignBeforeWallet(t *testing.T) {
	f := newFixture(t)
	f.wallet(t, "alice", "500", "0")
	f.campaign(t, "c1", "carol", models.CampaignActive)
	locks := f.recordLocks(t)

	_, err := f.svc.Invest(context.Background(), InvestInput{InvestorID: "alice", CampaignID: "c1", Amount: fc("10")})
	require.NoError(t, err)

	got := locks.take()
	require.GreaterOrEqual(t, len(got), 4)
	assert.Equal(t, []string{
		"campaigns/SHARE",
		"wallets/UPDATE",
		"campaign_wallets/UPDATE",
		"platform_wallet/UPDATE",
	}, got[:4])
}

func TestInvest_ConcurrentWithRefund(t *testing.T) {
	f := newFixture(t)
	f.user(t, "admin", models.RoleAdmin)
	f.campaign(t, "c1", "carol", models.CampaignActive)
	investors := []string{"ann", "ben", "cat", "dan", "eve", "fay"}
	for _, id := range investors {
		f.wallet(t, id, "100", "0")
	}
	ctx := context.Background()
	_, err := f.svc.Invest(ctx, InvestInput{InvestorID: "ann", CampaignID: "c1", Amount: fc("40")})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, len(investors)+1)
	for _, id := range investors {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := f.svc.Invest(ctx, InvestInput{InvestorID: id, CampaignID: "c1", Amount: fc("25")})
			errs <- err
		}(id)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := f.svc.RefundCampaignInvestors(ctx, RefundInput{AdminID: "admin", CampaignID: "c1"})
		errs <- err
	}()
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, ErrInvalidState, "only invests after the refund may fail")
		}
	}

	// every committed investment was either refunded or rejected afterwards
	for _, id := range investors {
		w := f.loadWallet(t, id)
		assertFC(t, "100", w.BalanceFC, id)
		assertFC(t, "0", w.LockedFC, id)
	}
	assertFC(t, "0", f.loadEscrow(t, "c1").EscrowBalanceFC)
	assertFC(t, "0", f.loadTreasury(t).LockedFC)
	assert.Equal(t, models.CampaignFailed, f.loadCampaign(t, "c1").Status)
	assert.Zero(t, f.count(t, &models.Investment{}, "status = ?", models.InvestmentConfirmed))
}
