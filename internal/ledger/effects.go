package ledger

import (
	"context"

	"gorm.io/gorm"
)

// sideEffect is a best-effort write that runs after the critical transaction
// has committed.
type sideEffect struct {
	name string
	run  func(db *gorm.DB) error
}

// SideEffectFailure describes a best-effort write that did not happen.
type SideEffectFailure struct {
	Effect string
	Err    error
}

// runSideEffects runs effects in order. A failure is logged and counted; the
// remaining effects still run.
func (s *Service) runSideEffects(ctx context.Context, op string, effects []sideEffect) []SideEffectFailure {
	var failures []SideEffectFailure
	db := s.db.WithContext(ctx)
	for _, e := range effects {
		if err := e.run(db); err != nil {
			s.log.Error().Err(err).
				Str("operation", op).
				Str("effect", e.name).
				Msg("side effect failed; ledger change kept")
			s.obs.ObserveSideEffectFailure(op, e.name)
			failures = append(failures, SideEffectFailure{Effect: e.name, Err: err})
		}
	}
	return failures
}
