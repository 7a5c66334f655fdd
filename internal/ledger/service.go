// Package ledger implements the FundChain escrow ledger: wallets, campaign
// escrow, the platform treasury and the fund-movement operations between them.
//
// Every operation splits its writes in two lists. Critical effects (wallet,
// escrow, treasury and investment rows) run inside one database transaction
// with row locks. Side effects (statistics and audit records) run after the
// commit; a failing side effect is logged and reported in the result but never
// undoes the ledger change.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/JawadAsif77/fundchain-sub001/internal/config"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Options tune the fund-movement operations.
type Options struct {
	// Isolation is passed to every ledger transaction.
	Isolation   sql.IsolationLevel
	SolToFCRate decimal.Decimal
	USDToFCRate decimal.Decimal
	// EnforceUniqueTxSignature rejects a second credit for the same payment proof.
	EnforceUniqueTxSignature bool
	// GuardMilestoneRerelease rejects a release for an already completed milestone.
	GuardMilestoneRerelease bool
}

func DefaultOptions() Options {
	return Options{
		Isolation:                sql.LevelDefault,
		SolToFCRate:              decimal.NewFromInt(100),
		USDToFCRate:              decimal.NewFromInt(1),
		EnforceUniqueTxSignature: true,
		GuardMilestoneRerelease:  true,
	}
}

// OptionsFromConfig converts the ledger section of the configuration.
func OptionsFromConfig(cfg config.LedgerConfig) (Options, error) {
	opts := DefaultOptions()
	opts.EnforceUniqueTxSignature = cfg.EnforceUniqueTxSignature
	opts.GuardMilestoneRerelease = cfg.GuardMilestoneRerelease

	level, err := ParseIsolation(cfg.Isolation)
	if err != nil {
		return Options{}, err
	}
	opts.Isolation = level

	if cfg.SolToFCRate != "" {
		if opts.SolToFCRate, err = parseRate(cfg.SolToFCRate); err != nil {
			return Options{}, fmt.Errorf("sol_to_fc_rate: %w", err)
		}
	}
	if cfg.USDToFCRate != "" {
		if opts.USDToFCRate, err = parseRate(cfg.USDToFCRate); err != nil {
			return Options{}, fmt.Errorf("usd_to_fc_rate: %w", err)
		}
	}
	return opts, nil
}

func ParseIsolation(s string) (sql.IsolationLevel, error) {
	switch s {
	case "", "default":
		return sql.LevelDefault, nil
	case "read_committed":
		return sql.LevelReadCommitted, nil
	case "repeatable_read":
		return sql.LevelRepeatableRead, nil
	case "serializable":
		return sql.LevelSerializable, nil
	default:
		return sql.LevelDefault, fmt.Errorf("unknown isolation level %q", s)
	}
}

func parseRate(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("rate must be positive, got %s", s)
	}
	return d, nil
}

// Observer receives operation outcomes. *metrics.Recorder implements it.
type Observer interface {
	ObserveOperation(operation, outcome string)
	ObserveSideEffectFailure(operation, effect string)
}

type noopObserver struct{}

func (noopObserver) ObserveOperation(string, string)        {}
func (noopObserver) ObserveSideEffectFailure(string, string) {}

// Service is the Ledger Service. It holds no ledger state of its own.
type Service struct {
	db   *gorm.DB
	log  zerolog.Logger
	opts Options
	obs  Observer
	now  func() time.Time
}

func NewService(db *gorm.DB, log zerolog.Logger, opts Options, obs Observer) *Service {
	if obs == nil {
		obs = noopObserver{}
	}
	return &Service{
		db:   db,
		log:  log.With().Str("component", "ledger").Logger(),
		opts: opts,
		obs:  obs,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// inTx runs fn as one ledger transaction.
func (s *Service) inTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn, &sql.TxOptions{Isolation: s.opts.Isolation})
}

// done records the outcome of op and passes err through.
func (s *Service) done(op string, err error) error {
	if err == nil {
		s.obs.ObserveOperation(op, "ok")
		return nil
	}
	kind := KindOf(err)
	s.obs.ObserveOperation(op, string(kind))
	if kind == KindInternal {
		s.log.Error().Err(err).Str("operation", op).Msg("ledger operation failed")
	} else {
		s.log.Info().Err(err).Str("operation", op).Str("kind", string(kind)).Msg("ledger operation rejected")
	}
	return err
}
