package ledger

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/JawadAsif77/fundchain-sub001/internal/config"
	"github.com/JawadAsif77/fundchain-sub001/internal/database"
	"github.com/JawadAsif77/fundchain-sub001/internal/models"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type recordingObserver struct {
	mu          sync.Mutex
	outcomes    map[string][]string
	sideEffects map[string][]string
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{
		outcomes:    map[string][]string{},
		sideEffects: map[string][]string{},
	}
}

func (o *recordingObserver) ObserveOperation(op, outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes[op] = append(o.outcomes[op], outcome)
}

func (o *recordingObserver) ObserveSideEffectFailure(op, effect string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sideEffects[op] = append(o.sideEffects[op], effect)
}

type fixture struct {
	svc *Service
	db  *gorm.DB
	obs *recordingObserver
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithOptions(t, DefaultOptions())
}

func newFixtureWithOptions(t *testing.T, opts Options) *fixture {
	t.Helper()
	db, err := database.Init(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "ledger.db"),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	obs := newRecordingObserver()
	return &fixture{
		svc: NewService(db, zerolog.Nop(), opts, obs),
		db:  db,
		obs: obs,
	}
}

func fc(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertFC(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.Truef(t, fc(want).Equal(got), "want %s FC, got %s FC %v", want, got, msgAndArgs)
}

func (f *fixture) user(t *testing.T, id, role string) {
	t.Helper()
	require.NoError(t, f.db.Create(&models.User{ID: id, Email: id + "@example.com", Role: role}).Error)
}

func (f *fixture) wallet(t *testing.T, userID, balance, locked string) {
	t.Helper()
	require.NoError(t, f.db.Create(&models.Wallet{
		UserID:    userID,
		BalanceFC: fc(balance),
		LockedFC:  fc(locked),
	}).Error)
}

func (f *fixture) campaign(t *testing.T, id, creatorID, status string) {
	t.Helper()
	require.NoError(t, f.db.Create(&models.Campaign{
		ID:        id,
		CreatorID: creatorID,
		Title:     "Campaign " + id,
		Status:    status,
	}).Error)
}

func (f *fixture) escrow(t *testing.T, campaignID, balance, released string) {
	t.Helper()
	require.NoError(t, f.db.Create(&models.CampaignEscrow{
		CampaignID:      campaignID,
		EscrowBalanceFC: fc(balance),
		ReleasedFC:      fc(released),
	}).Error)
}

func (f *fixture) milestone(t *testing.T, id, campaignID string) {
	t.Helper()
	require.NoError(t, f.db.Create(&models.Milestone{
		ID:         id,
		CampaignID: campaignID,
		Title:      "Milestone " + id,
	}).Error)
}

func (f *fixture) treasuryLocked(t *testing.T, locked string) {
	t.Helper()
	require.NoError(t, f.db.Model(&models.PlatformTreasury{}).
		Where("id = ?", models.TreasuryID).
		Update("locked_fc", fc(locked)).Error)
}

func (f *fixture) loadWallet(t *testing.T, userID string) models.Wallet {
	t.Helper()
	var w models.Wallet
	require.NoError(t, f.db.Where("user_id = ?", userID).First(&w).Error)
	return w
}

func (f *fixture) loadEscrow(t *testing.T, campaignID string) models.CampaignEscrow {
	t.Helper()
	var e models.CampaignEscrow
	require.NoError(t, f.db.Where("campaign_id = ?", campaignID).First(&e).Error)
	return e
}

func (f *fixture) loadTreasury(t *testing.T) models.PlatformTreasury {
	t.Helper()
	var tr models.PlatformTreasury
	require.NoError(t, f.db.First(&tr, models.TreasuryID).Error)
	return tr
}

func (f *fixture) loadCampaign(t *testing.T, id string) models.Campaign {
	t.Helper()
	var c models.Campaign
	require.NoError(t, f.db.Where("id = ?", id).First(&c).Error)
	return c
}

func (f *fixture) count(t *testing.T, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

// lockLog lists "table/strength" for every locking read, in execution order.
type lockLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *lockLog) take() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.entries
	l.entries = nil
	return out
}

// recordLocks logs the row locks requested through f.db. SQLite ignores
// them, but the order they are asked for is what postgres would take.
func (f *fixture) recordLocks(t *testing.T) *lockLog {
	t.Helper()
	log := &lockLog{}
	err := f.db.Callback().Query().Before("gorm:query").Register("test:record_locks", func(db *gorm.DB) {
		c, ok := db.Statement.Clauses["FOR"]
		if !ok {
			return
		}
		locking, ok := c.Expression.(clause.Locking)
		if !ok {
			return
		}
		log.mu.Lock()
		log.entries = append(log.entries, db.Statement.Table+"/"+locking.Strength)
		log.mu.Unlock()
	})
	require.NoError(t, err)
	return log
}
