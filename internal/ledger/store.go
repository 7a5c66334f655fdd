package ledger

import (
	"errors"
	"sort"

	"github.com/JawadAsif77/fundchain-sub001/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Row access used inside ledger transactions. Every operation takes its locks
// in the order campaign, milestone or investments, wallets (sorted by user
// id), campaign escrow, treasury, and skips the ones it does not need.

func forUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// asLedgerError keeps *Error values and wraps anything else as internal.
func asLedgerError(err error) error {
	var le *Error
	if errors.As(err, &le) {
		return err
	}
	return internal("store failure", err)
}

// lookup turns a missing row into NotFound and any other failure into Internal.
func lookup(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(what + " not found")
	}
	return internal("load "+what, err)
}

func lockWallet(tx *gorm.DB, userID string) (*models.Wallet, error) {
	var w models.Wallet
	if err := forUpdate(tx).Where("user_id = ?", userID).First(&w).Error; err != nil {
		return nil, lookup(err, "wallet")
	}
	return &w, nil
}

// lockWallets locks the wallets of userIDs in a stable order. Missing wallets
// are absent from the map.
func lockWallets(tx *gorm.DB, userIDs []string) (map[string]*models.Wallet, error) {
	ids := make([]string, 0, len(userIDs))
	seen := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	out := make(map[string]*models.Wallet, len(ids))
	for _, id := range ids {
		w, err := lockWallet(tx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[id] = w
	}
	return out, nil
}

// ensureWallet returns the locked wallet of userID, creating an empty one first
// if needed. created reports whether this call inserted it.
func ensureWallet(tx *gorm.DB, userID string) (w *models.Wallet, created bool, err error) {
	row := models.Wallet{UserID: userID, BalanceFC: decimal.Zero, LockedFC: decimal.Zero}
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if res.Error != nil {
		return nil, false, internal("create wallet", res.Error)
	}
	w, err = lockWallet(tx, userID)
	return w, res.RowsAffected == 1, err
}

func saveWallet(tx *gorm.DB, w *models.Wallet) error {
	if w.BalanceFC.IsNegative() || w.LockedFC.IsNegative() {
		return internal("wallet would go negative", nil)
	}
	err := tx.Model(&models.Wallet{}).Where("id = ?", w.ID).Updates(map[string]any{
		"balance_fc": w.BalanceFC,
		"locked_fc":  w.LockedFC,
		"updated_at": tx.NowFunc(),
	}).Error
	if err != nil {
		return internal("update wallet", err)
	}
	return nil
}

func lockEscrow(tx *gorm.DB, campaignID string) (*models.CampaignEscrow, error) {
	var e models.CampaignEscrow
	if err := forUpdate(tx).Where("campaign_id = ?", campaignID).First(&e).Error; err != nil {
		return nil, lookup(err, "campaign wallet")
	}
	return &e, nil
}

func ensureEscrow(tx *gorm.DB, campaignID string) (*models.CampaignEscrow, error) {
	row := models.CampaignEscrow{CampaignID: campaignID, EscrowBalanceFC: decimal.Zero, ReleasedFC: decimal.Zero}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return nil, internal("create campaign wallet", err)
	}
	return lockEscrow(tx, campaignID)
}

func saveEscrow(tx *gorm.DB, e *models.CampaignEscrow) error {
	if e.EscrowBalanceFC.IsNegative() || e.ReleasedFC.IsNegative() {
		return internal("escrow would go negative", nil)
	}
	err := tx.Model(&models.CampaignEscrow{}).Where("id = ?", e.ID).Updates(map[string]any{
		"escrow_balance_fc": e.EscrowBalanceFC,
		"released_fc":       e.ReleasedFC,
		"updated_at":        tx.NowFunc(),
	}).Error
	if err != nil {
		return internal("update campaign wallet", err)
	}
	return nil
}

// lockTreasury locks the singleton treasury row, seeding it if absent.
func lockTreasury(tx *gorm.DB) (*models.PlatformTreasury, error) {
	seed := models.PlatformTreasury{ID: models.TreasuryID, BalanceFC: decimal.Zero, LockedFC: decimal.Zero}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return nil, internal("seed platform wallet", err)
	}
	var t models.PlatformTreasury
	if err := forUpdate(tx).First(&t, models.TreasuryID).Error; err != nil {
		return nil, lookup(err, "platform wallet")
	}
	return &t, nil
}

func saveTreasury(tx *gorm.DB, t *models.PlatformTreasury) error {
	err := tx.Model(&models.PlatformTreasury{}).Where("id = ?", t.ID).Updates(map[string]any{
		"balance_fc": t.BalanceFC,
		"locked_fc":  t.LockedFC,
		"updated_at": tx.NowFunc(),
	}).Error
	if err != nil {
		return internal("update platform wallet", err)
	}
	return nil
}

// requireAdmin checks the caller's role in the users table.
func requireAdmin(tx *gorm.DB, adminID string) error {
	var u models.User
	if err := tx.Where("id = ?", adminID).First(&u).Error; err != nil {
		return lookup(err, "admin user")
	}
	if u.Role != models.RoleAdmin {
		return forbidden("user is not authorized as admin")
	}
	return nil
}

func findCampaign(tx *gorm.DB, campaignID string) (*models.Campaign, error) {
	var c models.Campaign
	if err := tx.Where("id = ?", campaignID).First(&c).Error; err != nil {
		return nil, lookup(err, "campaign")
	}
	return &c, nil
}

// shareCampaign reads the campaign under a shared lock: concurrent invests and
// releases proceed, a refund's exclusive lock waits for them.
func shareCampaign(tx *gorm.DB, campaignID string) (*models.Campaign, error) {
	var c models.Campaign
	err := tx.Clauses(clause.Locking{Strength: "SHARE"}).Where("id = ?", campaignID).First(&c).Error
	if err != nil {
		return nil, lookup(err, "campaign")
	}
	return &c, nil
}

// floorZero returns max(d, 0).
func floorZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
