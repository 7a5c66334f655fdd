package ledger

import (
	"context"
	"errors"
	"strings"

	"github.com/JawadAsif77/fundchain-sub001/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	SourceSOL = "SOL"
	SourceUSD = "USD"
)

type PurchaseInput struct {
	UserID       string
	SourceAmount decimal.Decimal
	SourceType   string
	TxSignature  string
}

type PurchaseResult struct {
	Wallet        models.Wallet
	UserID        string
	SourceAmount  decimal.Decimal
	SourceType    string
	FCRate        decimal.Decimal
	AmountFC      decimal.Decimal
	WalletCreated bool

	SideEffectFailures []SideEffectFailure
}

// Rate returns the FC conversion rate for a purchase source.
func (s *Service) Rate(sourceType string) (decimal.Decimal, error) {
	switch strings.ToUpper(sourceType) {
	case SourceSOL:
		return s.opts.SolToFCRate, nil
	case SourceUSD:
		return s.opts.USDToFCRate, nil
	default:
		return decimal.Zero, invalidArgument("unsupported purchase type")
	}
}

// CreditExternalPurchase credits a wallet for a payment verified outside the
// ledger. The wallet is created on first credit.
func (s *Service) CreditExternalPurchase(ctx context.Context, in PurchaseInput) (*PurchaseResult, error) {
	const op = "credit_external_purchase"

	in.UserID = strings.TrimSpace(in.UserID)
	in.TxSignature = strings.TrimSpace(in.TxSignature)
	in.SourceType = strings.ToUpper(strings.TrimSpace(in.SourceType))
	if in.UserID == "" {
		return nil, s.done(op, invalidArgument("userId is required"))
	}
	if in.TxSignature == "" {
		return nil, s.done(op, invalidArgument("txSignature is required"))
	}
	rate, err := s.Rate(in.SourceType)
	if err != nil {
		return nil, s.done(op, err)
	}
	fc := in.SourceAmount.Mul(rate)
	if !fc.IsPositive() {
		return nil, s.done(op, invalidArgument("amount must be a positive number"))
	}

	res := &PurchaseResult{
		UserID:       in.UserID,
		SourceAmount: in.SourceAmount,
		SourceType:   in.SourceType,
		FCRate:       rate,
		AmountFC:     fc,
	}
	err = s.inTx(ctx, func(tx *gorm.DB) error {
		if s.opts.EnforceUniqueTxSignature {
			if err := registerPayment(tx, in, rate, fc); err != nil {
				return err
			}
		}

		wallet, created, err := ensureWallet(tx, in.UserID)
		if err != nil {
			return err
		}
		wallet.BalanceFC = wallet.BalanceFC.Add(fc)
		if err := saveWallet(tx, wallet); err != nil {
			return err
		}

		treasury, err := lockTreasury(tx)
		if err != nil {
			return err
		}
		treasury.BalanceFC = treasury.BalanceFC.Add(fc)
		if err := saveTreasury(tx, treasury); err != nil {
			return err
		}

		res.Wallet = *wallet
		res.WalletCreated = created
		return nil
	})
	if err != nil {
		return nil, s.done(op, asLedgerError(err))
	}

	s.log.Info().
		Str("user_id", in.UserID).
		Str("source_type", in.SourceType).
		Str("amount_fc", fc.String()).
		Bool("wallet_created", res.WalletCreated).
		Msg("wallet credited")

	res.SideEffectFailures = s.runSideEffects(ctx, op, []sideEffect{
		{name: "token_transaction", run: func(db *gorm.DB) error {
			return db.Create(&models.TokenTransaction{
				UserID:   in.UserID,
				AmountFC: fc,
				Type:     models.TxBuy,
				Metadata: datatypes.JSONMap{
					"sourceAmount": in.SourceAmount.String(),
					"sourceType":   in.SourceType,
					"txSignature":  in.TxSignature,
					"fcRate":       rate.String(),
				},
			}).Error
		}},
	})
	return res, s.done(op, nil)
}

// registerPayment records the payment proof; a signature seen before is a
// duplicate credit attempt.
func registerPayment(tx *gorm.DB, in PurchaseInput, rate, fc decimal.Decimal) error {
	var n int64
	if err := tx.Model(&models.ExternalPayment{}).Where("tx_signature = ?", in.TxSignature).Count(&n).Error; err != nil {
		return internal("check payment signature", err)
	}
	if n > 0 {
		return duplicateTransaction("transaction signature already credited")
	}

	err := tx.Create(&models.ExternalPayment{
		TxSignature:  in.TxSignature,
		UserID:       in.UserID,
		SourceType:   in.SourceType,
		SourceAmount: in.SourceAmount,
		FCRate:       rate,
		AmountFC:     fc,
	}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return duplicateTransaction("transaction signature already credited")
	}
	if err != nil {
		return internal("register payment", err)
	}
	return nil
}
